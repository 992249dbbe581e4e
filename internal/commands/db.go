package commands

import (
	"github.com/spf13/cobra"

	"github.com/commentd/commentd/internal/app"
	"github.com/commentd/commentd/internal/output"
	"github.com/commentd/commentd/internal/store"
)

func NewDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
	}

	cmd.AddCommand(newDBPathCmd())
	cmd.AddCommand(newDBStatusCmd())

	namespaceIndex(cmd)
	return cmd
}

func newDBPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the resolved database path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, source, err := app.ResolveDBPathDetailed()
			if err != nil {
				return cmdErr(err)
			}

			type resp struct {
				Path   string `json:"path"`
				Source string `json:"source"`
			}
			return output.PrintSuccess(resp{Path: path, Source: source})
		},
	}
	return cmd
}

func newDBStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report schema version and table health",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := app.ResolveDBPathDetailed()
			if err != nil {
				return cmdErr(err)
			}

			type resp struct {
				Path          string `json:"path"`
				SchemaVersion int64  `json:"schema_version"`
				SchemaLatest  int64  `json:"schema_latest"`
				Comments      int64  `json:"comments"`
			}
			var r resp
			r.Path = path

			if err := withDB(func(db *DB) error {
				current, latest, err := store.SchemaVersion(db)
				if err != nil {
					return err
				}
				r.SchemaVersion = current
				r.SchemaLatest = latest

				return db.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&r.Comments)
			}); err != nil {
				return err
			}

			return output.PrintSuccess(r)
		},
	}
	return cmd
}
