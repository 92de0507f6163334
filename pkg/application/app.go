package application

import (
	"path/filepath"

	"github.com/luxfi/log"
	"github.com/spf13/viper"
)

// App is the application context that holds the dependencies shared by the
// CLI commands.
type App struct {
	Log    log.Logger
	Config *viper.Viper

	// ChainDataDir is the node's chaindata directory holding the
	// key-value store. AncientDir overrides the archive location; empty
	// means the node convention <chaindata>/ancient.
	ChainDataDir string
	AncientDir   string
}

// New creates a new application instance.
func New() *App {
	return &App{}
}

// Setup initializes the application with its dependencies.
func (a *App) Setup(chaindata, ancient string, logger log.Logger, config *viper.Viper) {
	a.ChainDataDir = chaindata
	a.AncientDir = ancient
	a.Log = logger
	a.Config = config
}

// ResolveAncientDir returns the archive directory, applying the node-layout
// default when no override was given.
func (a *App) ResolveAncientDir() string {
	if a.AncientDir != "" {
		return a.AncientDir
	}
	return filepath.Join(a.ChainDataDir, "ancient")
}
