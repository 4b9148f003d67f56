package app

import (
	"fmt"

	"github.com/maximeliseyev/construct-messenger/internal/core"
	"github.com/maximeliseyev/construct-messenger/internal/domain"
	"github.com/maximeliseyev/construct-messenger/internal/relay"
	"github.com/maximeliseyev/construct-messenger/internal/store"
	"github.com/maximeliseyev/construct-messenger/internal/suite"
)

// App is the dependency graph behind every CLI command.
type App struct {
	Config Config
	Store  *store.FileStore
	Relay  *relay.Client // nil when no relay is configured
}

// New builds the graph from cfg.
func New(cfg Config) (*App, error) {
	fs, err := store.NewFileStore(cfg.Home)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Store: fs}
	if cfg.RelayURL != "" {
		a.Relay = relay.NewClient(cfg.RelayURL)
	}
	return a, nil
}

// InitIdentity generates a fresh core and seals its identity to disk.
func (a *App) InitIdentity(passphrase string) (*core.Core, error) {
	if a.Store.HasIdentity() {
		return nil, fmt.Errorf("identity already exists in %s", a.Config.Home)
	}
	c, err := core.New(core.WithSuite(a.suite()))
	if err != nil {
		return nil, err
	}
	return c, a.persistIdentity(passphrase, c)
}

// OpenCore unseals the stored identity and rebuilds a core around it.
func (a *App) OpenCore(passphrase string) (*core.Core, error) {
	exported, err := a.Store.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	return core.New(core.WithSuite(a.suite()), core.WithIdentity(exported))
}

// RestoreSession imports a contact's stored session into the core.
func (a *App) RestoreSession(c *core.Core, passphrase, contactID string) (core.Handle, bool, error) {
	blob, ok, err := a.Store.LoadSession(passphrase, contactID)
	if err != nil || !ok {
		return "", false, err
	}
	h, err := c.ImportSession(contactID, blob)
	if err != nil {
		return "", false, err
	}
	return h, true, nil
}

// PersistSession exports a session and seals it to disk.
func (a *App) PersistSession(c *core.Core, passphrase, contactID string, h core.Handle) error {
	blob, err := c.ExportSession(h)
	if err != nil {
		return err
	}
	return a.Store.SaveSession(passphrase, contactID, blob)
}

// PersistIdentity re-seals the identity, e.g. after a prekey rotation.
func (a *App) PersistIdentity(passphrase string, c *core.Core) error {
	return a.persistIdentity(passphrase, c)
}

// PeerBundle returns a contact's canonical bundle, from the local cache or
// the relay, caching on fetch.
func (a *App) PeerBundle(contactID string) ([]byte, error) {
	if b, ok, err := a.Store.LoadContactBundle(contactID); err != nil {
		return nil, err
	} else if ok {
		return b, nil
	}
	if a.Relay == nil {
		return nil, fmt.Errorf("no cached bundle for %q and no relay configured", contactID)
	}
	b, err := a.Relay.FetchBundle(contactID)
	if err != nil {
		return nil, err
	}
	if err := a.Store.SaveContactBundle(contactID, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (a *App) persistIdentity(passphrase string, c *core.Core) error {
	exported, err := c.ExportIdentity()
	if err != nil {
		return err
	}
	return a.Store.SaveIdentity(passphrase, exported)
}

func (a *App) suite() suite.Suite {
	if s, ok := suite.ByID(domain.SuiteID(a.Config.Suite), nil); ok {
		return s
	}
	s, _ := suite.ByID(domain.SuiteClassic, nil)
	return s
}
