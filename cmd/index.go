package cmd

import (
	"github.com/spf13/cobra"

	"github.com/glacierdb/glacier/pkg/application"
	"github.com/glacierdb/glacier/pkg/freezer"
)

// NewIndexCmd creates the `index` command.
func NewIndexCmd(app *application.App) *cobra.Command {
	var max int

	cmd := &cobra.Command{
		Use:   "index <table>",
		Short: "Dumps the decoded index entries of an archive table",
		Long: `Reads an archive table's index file and prints its boundary entries, one
(file number, offset) pair per line. Useful when poking at a damaged archive.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := freezer.IndexPath(app.ResolveAncientDir(), args[0])
			if err != nil {
				return err
			}
			return freezer.DumpIndex(path, cmd.OutOrStdout(), max)
		},
	}

	cmd.Flags().IntVar(&max, "max", 100, "Maximum entries to print, 0 for all")

	return cmd
}
