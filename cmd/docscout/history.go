package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/docscout/internal/config"
	"github.com/nao1215/docscout/internal/database"
	"github.com/nao1215/docscout/internal/report"
)

// defaultHistoryLimit is how many runs "history" lists.
const defaultHistoryLimit = 20

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded discovery and analysis runs",
		Long: `History lists the runs recorded with --save-db, newest first.

Examples:
  # The last 20 runs
  docscout history

  # Only analysis runs
  docscout history --kind analysis

  # Print the results of run 3
  docscout history show 3

  # Forget run 3
  docscout history delete 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := cmd.Flags().GetString("kind")
			if err != nil {
				return err
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			return withHistoryDB(cmd, a, func(db *database.HistoryDB) error {
				return listRuns(cmd, a, db, database.RunKind(kind), limit)
			})
		},
	}

	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(), "Directory of the history database")
	cmd.Flags().String("kind", "", "Only list runs of this kind (discovery or analysis)")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs listed; 0 lists all")

	cmd.AddCommand(newHistoryShowCmd(a))
	cmd.AddCommand(newHistoryDeleteCmd(a))
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the results of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			return withHistoryDB(cmd, a, func(db *database.HistoryDB) error {
				run, err := db.GetRun(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Run %d (%s) started %s\n", run.ID, run.Kind, run.StartedAt.Local().Format(time.DateTime))

				console := report.NewConsoleWriter(a.out)
				switch run.Kind {
				case database.RunDiscovery:
					results, err := db.DiscoveryResults(cmd.Context(), id)
					if err != nil {
						return err
					}
					_, err = console.WriteDiscovery(results)
					return err
				case database.RunAnalysis:
					reports, err := db.PageReports(cmd.Context(), id)
					if err != nil {
						return err
					}
					_, err = console.WritePages(reports)
					return err
				default:
					return fmt.Errorf("run %d has unknown kind %q", id, run.Kind)
				}
			})
		},
	}
}

func newHistoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			return withHistoryDB(cmd, a, func(db *database.HistoryDB) error {
				if err := db.DeleteRun(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted run %d\n", id)
				return nil
			})
		},
	}
}

func parseRunID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q", s)
	}
	return id, nil
}

// withHistoryDB opens the existing history database for fn. A missing
// database is reported as an empty history.
func withHistoryDB(cmd *cobra.Command, a *app, fn func(db *database.HistoryDB) error) error {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	db, err := database.Open(dir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(a.out, "No runs recorded yet. Use --save-db with discover or analyze.")
		return nil
	}
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func listRuns(cmd *cobra.Command, a *app, db *database.HistoryDB, kind database.RunKind, limit int) error {
	switch kind {
	case "", database.RunDiscovery, database.RunAnalysis:
	default:
		return fmt.Errorf("unknown run kind %q (want discovery or analysis)", kind)
	}

	runs, err := db.ListRuns(cmd.Context(), kind, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.out, "No runs recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			string(r.Kind),
			r.StartedAt.Local().Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String(),
			strconv.Itoa(r.ItemCount),
			strconv.Itoa(r.FailedCount),
		})
	}
	return markdown.NewMarkdown(a.out).
		Table(markdown.TableSet{
			Header: []string{"ID", "Kind", "Started", "Duration", "Items", "Failed"},
			Rows:   rows,
		}).
		Build()
}
