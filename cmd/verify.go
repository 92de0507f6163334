package cmd

import (
	"github.com/spf13/cobra"

	"github.com/glacierdb/glacier/pkg/application"
)

// NewVerifyCmd creates the `verify` command.
func NewVerifyCmd(app *application.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Cross-checks the archive's hash table against its headers",
		Long: `Recomputes the keccak hash of every frozen header and compares it with the
hash table entry for the same block. Walks the whole archive, so this can
take a while.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openChainDB(app, true, false)
			if err != nil {
				return err
			}
			defer db.Close()

			verified, failed, err := db.VerifyHeaderHashes(func(done uint64) {
				cmd.Printf(".")
			})
			cmd.Printf("\n")
			if err != nil {
				return err
			}
			cmd.Printf("Verified %d blocks, %d mismatches\n", verified, failed)
			return nil
		},
	}
	return cmd
}
