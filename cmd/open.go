package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/glacierdb/glacier/pkg/application"
	"github.com/glacierdb/glacier/pkg/chaindb"
	"github.com/glacierdb/glacier/pkg/freezer"
)

// openChainDB opens the chain database per the global flags. archiveOnly
// skips the key-value store, storeOnly skips the archive.
func openChainDB(app *application.App, archiveOnly, storeOnly bool) (*chaindb.DB, error) {
	cfg := &chaindb.Config{
		Backend: app.Config.GetString("backend"),
		Logger:  app.Log,
		Freezer: &freezer.Config{
			Logger:     app.Log,
			Registerer: prometheus.NewRegistry(),
		},
	}
	switch {
	case archiveOnly && storeOnly:
		return nil, fmt.Errorf("--archive-only and --store-only are mutually exclusive")
	case archiveOnly:
		if app.AncientDir == "" && app.ChainDataDir == "" {
			return nil, fmt.Errorf("either --ancient or --chaindata is required")
		}
		return chaindb.OpenArchive(app.ResolveAncientDir(), cfg)
	case storeOnly:
		if app.ChainDataDir == "" {
			return nil, fmt.Errorf("the --chaindata flag is required")
		}
		return chaindb.OpenStore(app.ChainDataDir, cfg)
	default:
		if app.ChainDataDir == "" {
			return nil, fmt.Errorf("the --chaindata flag is required")
		}
		return chaindb.Open(app.ChainDataDir, app.AncientDir, cfg)
	}
}
