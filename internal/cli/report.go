package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/pkg/id"
)

func newReportCmd(rc *RootConfig) *cobra.Command {
	var (
		dbPath string
		output string
	)

	cmd := &cobra.Command{
		Use:   "report <run-id>",
		Short: "Export a stored run as Org-mode",
		Long: `Report loads a run saved with the SQLITE journal format and renders
its summary, metrics and trades as an Org-mode document.

Example:
  backtester report 01HRZ7ZK8J3M4W5X6Y7Z8A9B0C --db runs.sqlite -o run.org`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := strings.ToUpper(args[0])
			if _, err := id.Created(runID); err != nil {
				return err
			}

			if dbPath == "" {
				cfg, err := rc.Load()
				if err != nil {
					return err
				}
				dbPath = cfg.Journal.DBPath
			}
			if dbPath == "" {
				return fmt.Errorf("no journal database given (use --db or journal.db_path)")
			}

			j, err := journal.NewSQLite(dbPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer j.Close()

			s, err := j.ExportBacktestOrg(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), s)
				return err
			}
			return os.WriteFile(output, []byte(s), 0644)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite journal database")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
