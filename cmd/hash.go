package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/glacierdb/glacier/pkg/application"
)

// NewHashCmd creates the `hash` command.
func NewHashCmd(app *application.App) *cobra.Command {
	var (
		archiveOnly bool
		storeOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "hash <number>",
		Short: "Reads the canonical header hash of a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid block number %q: %w", args[0], err)
			}

			db, err := openChainDB(app, archiveOnly, storeOnly)
			if err != nil {
				return err
			}
			defer db.Close()

			hash, err := db.HeaderHash(number)
			if err != nil {
				return err
			}
			cmd.Printf("%s\n", hash.Hex())
			return nil
		},
	}

	cmd.Flags().BoolVar(&archiveOnly, "archive-only", false, "Only read the ancient archive")
	cmd.Flags().BoolVar(&storeOnly, "store-only", false, "Only read the key-value store")

	return cmd
}
