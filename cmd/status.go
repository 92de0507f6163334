package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/glacierdb/glacier/pkg/application"
	"github.com/glacierdb/glacier/pkg/freezer"
	"github.com/glacierdb/glacier/pkg/kvstore"
)

// NewStatusCmd creates the `status` command.
func NewStatusCmd(app *application.App) *cobra.Command {
	var (
		skipStore bool
		sample    int
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Displays archive and store statistics",
		Long: `Prints the per-table item counts of the ancient archive and samples the
key-value store to show its key distribution.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			frozen, err := freezer.Open(app.ResolveAncientDir(), &freezer.Config{Logger: app.Log})
			if err != nil {
				return err
			}
			defer frozen.Close()

			cmd.Printf("Ancient archive: %s\n", app.ResolveAncientDir())
			cmd.Printf("=================================\n")
			cmd.Printf("Frozen blocks: %d\n", frozen.Ancients())
			for _, kind := range []string{
				freezer.HashTable, freezer.HeaderTable, freezer.BodyTable,
				freezer.ReceiptTable, freezer.DifficultyTable,
			} {
				table, err := frozen.Table(kind)
				if err != nil {
					return err
				}
				cmd.Printf("  %-9s %d items\n", kind, table.Items())
			}

			if skipStore || app.ChainDataDir == "" {
				return nil
			}
			store, err := kvstore.Open(app.ChainDataDir, app.Config.GetString("backend"))
			if err != nil {
				return err
			}
			defer store.Close()

			cmd.Printf("\nKey-value store: %s (%s)\n", app.ChainDataDir, kvstore.Detect(app.ChainDataDir))
			counts := make(map[byte]int)
			total := 0
			err = store.Scan(nil, sample, func(key, _ []byte) error {
				if len(key) > 0 {
					counts[key[0]]++
				}
				total++
				return nil
			})
			if err != nil {
				return err
			}
			cmd.Printf("Key distribution (first %d keys):\n", total)
			prefixes := make([]int, 0, len(counts))
			for prefix := range counts {
				prefixes = append(prefixes, int(prefix))
			}
			sort.Ints(prefixes)
			for _, prefix := range prefixes {
				cmd.Printf("  %c (%s): %d\n", prefix, kvstore.KeyTypeName(byte(prefix)), counts[byte(prefix)])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipStore, "skip-store", false, "Only report on the ancient archive")
	cmd.Flags().IntVar(&sample, "sample", 100000, "Number of store keys to sample")

	return cmd
}
