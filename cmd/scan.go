package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glacierdb/glacier/pkg/application"
	"github.com/glacierdb/glacier/pkg/kvstore"
)

// NewScanCmd creates the `scan` command.
func NewScanCmd(app *application.App) *cobra.Command {
	var (
		prefix string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scans the key-value store for keys and values",
		Long: `Iterates over the key-value store, optionally filtering by a key prefix,
and prints the keys and values. The prefix is taken literally, or as hex
when it starts with 0x.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.ChainDataDir == "" {
				return fmt.Errorf("the --chaindata flag is required")
			}
			store, err := kvstore.Open(app.ChainDataDir, app.Config.GetString("backend"))
			if err != nil {
				return err
			}
			defer store.Close()

			pfx := []byte(prefix)
			if strings.HasPrefix(prefix, "0x") {
				if pfx, err = hex.DecodeString(prefix[2:]); err != nil {
					return fmt.Errorf("invalid hex prefix: %w", err)
				}
			}

			cmd.Printf("Scanning %s...\n", app.ChainDataDir)
			found := 0
			err = store.Scan(pfx, limit, func(key, value []byte) error {
				cmd.Printf("  - Key: 0x%s\n    Value: 0x%s\n", hex.EncodeToString(key), hex.EncodeToString(value))
				found++
				return nil
			})
			if err != nil {
				return err
			}
			cmd.Printf("Found %d results\n", found)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Only scan for keys with this prefix")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of results, 0 for all")

	return cmd
}
