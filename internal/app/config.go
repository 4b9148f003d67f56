package app

// Config holds runtime wiring options for the CLI.
type Config struct {
	Home     string // config directory, e.g. $HOME/.construct
	RelayURL string // relay base URL, empty when offline
	Username string // stable identifier this user registered under
	Suite    uint16 // suite id, defaults to classic
}
