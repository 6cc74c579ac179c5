package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"hometasks/internal/gateway"
	"hometasks/internal/ops"
)

func newSnapshotCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Back up, restore and verify the task table",
	}

	var out string
	backup := &cobra.Command{
		Use:   "backup",
		Short: "Write the task table to a compressed snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				ts := st.now().UTC().Format("20060102T150405Z")
				out = filepath.Join("backups", "hometasks-"+ts+".tar.gz")
			}
			gw, err := st.openGateway(cmd.Context())
			if err != nil {
				return err
			}
			defer gateway.Close(gw)

			m, err := ops.BackupFile(cmd.Context(), gw, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nrows: %d\ndigest: %s\n", out, m.Rows, m.Digest)
			return nil
		},
	}
	backup.Flags().StringVarP(&out, "out", "o", "", "output archive path (default backups/hometasks-<ts>.tar.gz)")

	var archive string
	restore := &cobra.Command{
		Use:   "restore",
		Short: "Overwrite the task table from a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if archive == "" {
				return fmt.Errorf("--archive is required")
			}
			gw, err := st.openGateway(cmd.Context())
			if err != nil {
				return err
			}
			defer gateway.Close(gw)

			m, err := ops.RestoreFile(cmd.Context(), gw, archive)
			if err != nil {
				return err
			}
			st.log.WithField("archive", archive).WithField("rows", m.Rows).Info("snapshot restored")
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d rows from %s (taken %s)\n", m.Rows, archive, m.CreatedAt.Format(time.RFC3339))
			return nil
		},
	}
	restore.Flags().StringVarP(&archive, "archive", "a", "", "snapshot archive to restore")

	var workDir string
	drill := &cobra.Command{
		Use:   "drill",
		Short: "Back up and restore into a scratch table, then compare digests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := st.openGateway(cmd.Context())
			if err != nil {
				return err
			}
			defer gateway.Close(gw)

			res, err := ops.Drill(cmd.Context(), gw, workDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup: %s\nrows: %d\ndigest: %s\n", res.Archive, res.Rows, res.Digest)
			return nil
		},
	}
	drill.Flags().StringVar(&workDir, "work-dir", os.TempDir(), "directory for drill artifacts")

	cmd.AddCommand(backup, restore, drill)
	return cmd
}
