package cmd

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/glacierdb/glacier/pkg/application"
)

// NewHeaderCmd creates the `header` command.
func NewHeaderCmd(app *application.App) *cobra.Command {
	var (
		archiveOnly bool
		storeOnly   bool
		raw         bool
	)

	cmd := &cobra.Command{
		Use:   "header <number>",
		Short: "Reads the header of a block directly from disk",
		Long: `Looks up a block header by number, serving it from the ancient archive when
the block is frozen and from the key-value store otherwise.`,
		Args: cobra.ExactArgs(1),
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

			if raw {
				blob, err := db.HeaderBytes(number)
				if err != nil {
					return err
				}
				cmd.Printf("0x%s\n", hex.EncodeToString(blob))
				return nil
			}

			header, err := db.Header(number)
			if err != nil {
				return err
			}
			cmd.Printf("Number      = %d\n", header.Number)
			cmd.Printf("Hash        = %s\n", header.Hash().Hex())
			cmd.Printf("Time        = %d\n", header.Time)
			cmd.Printf("Difficulty  = %d\n", header.Difficulty)
			cmd.Printf("GasLimit    = %d\n", header.GasLimit)
			cmd.Printf("GasUsed     = %d\n", header.GasUsed)
			cmd.Printf("ParentHash  = %s\n", header.ParentHash.Hex())
			cmd.Printf("UncleHash   = %s\n", header.UncleHash.Hex())
			cmd.Printf("Coinbase    = %s\n", header.Coinbase.Hex())
			cmd.Printf("Root        = %s\n", header.Root.Hex())
			cmd.Printf("TxHash      = %s\n", header.TxHash.Hex())
			cmd.Printf("ReceiptHash = %s\n", header.ReceiptHash.Hex())
			cmd.Printf("Extra       = 0x%s\n", hex.EncodeToString(header.Extra))
			cmd.Printf("MixDigest   = %s\n", header.MixDigest.Hex())
			cmd.Printf("Nonce       = 0x%s\n", hex.EncodeToString(header.Nonce[:]))
			return nil
		},
	}

	cmd.Flags().BoolVar(&archiveOnly, "archive-only", false, "Only read the ancient archive")
	cmd.Flags().BoolVar(&storeOnly, "store-only", false, "Only read the key-value store")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the RLP payload instead of decoding it")

	return cmd
}
