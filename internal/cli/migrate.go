package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"hometasks/internal/gateway"
	"hometasks/internal/ops"
)

func newMigrateCmd(st *state) *cobra.Command {
	var to gateway.Options
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy the configured task table to another backend",
		Long: `migrate reads the whole table from the configured store and overwrites the
target with it, e.g. to move from a CSV file to SQLite:

  hometasks migrate --to-backend sqlite --to-path data/tasks.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			from, err := st.openGateway(ctx)
			if err != nil {
				return err
			}
			defer gateway.Close(from)

			target, err := gateway.Open(ctx, to)
			if err != nil {
				return fmt.Errorf("open target: %w", err)
			}
			defer gateway.Close(target)

			n, err := ops.Copy(ctx, from, target)
			if err != nil {
				return err
			}
			st.log.WithField("from", st.cfg.Store.Backend).WithField("to", to.Backend).WithField("rows", n).Info("table migrated")
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d rows to %s\n", n, to.Backend)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&to.Backend, "to-backend", "", "target backend: file, sqlite, postgres or sheets")
	f.StringVar(&to.Path, "to-path", "", "target file or sqlite path")
	f.StringVar(&to.DSN, "to-dsn", "", "target SQL DSN")
	f.StringVar(&to.Table, "to-table", "tasks", "target SQL table")
	f.StringVar(&to.SpreadsheetID, "to-spreadsheet-id", "", "target spreadsheet ID")
	f.StringVar(&to.Range, "to-range", "Sheet1", "target sheet range")
	f.StringVar(&to.CredentialsFile, "to-credentials-file", "", "service account JSON for the target sheet")
	_ = cmd.MarkFlagRequired("to-backend")
	return cmd
}
