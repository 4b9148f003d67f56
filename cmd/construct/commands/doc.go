// Package commands contains the cobra commands of the construct CLI.
package commands
