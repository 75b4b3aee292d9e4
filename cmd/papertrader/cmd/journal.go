package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/journal"
)

type journalOptions struct {
	root   *rootOptions
	dbPath string
}

func newJournalCmd(o *rootOptions) *cobra.Command {
	jo := &journalOptions{root: o}

	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Query the trade journal",
		Long: `Query closed trades recorded in the SQLite journal.

Subcommands:
  trade  - Show a specific closed trade by position ID
  today  - List trades closed today
  day    - List trades closed on a specific day

Examples:
  papertrader journal trade <position-id>
  papertrader journal today
  papertrader journal day 2026-01-15`,
	}

	journalTradeCmd := &cobra.Command{
		Use:   "trade <position-id>",
		Short: "Show a specific closed trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return jo.run(func(j *journal.SQLite) error {
				rec, err := j.GetTrade(args[0])
				if err != nil {
					return fmt.Errorf("get trade: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
				return nil
			})
		},
	}

	journalTodayCmd := &cobra.Command{
		Use:   "today",
		Short: "List trades closed today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := time.Local
			return jo.listDay(cmd, loc, time.Now().In(loc).Format("2006-01-02"))
		},
	}

	journalDayCmd := &cobra.Command{
		Use:   "day <YYYY-MM-DD>",
		Short: "List trades closed on a specific day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return jo.listDay(cmd, time.Local, args[0])
		},
	}

	journalCmd.AddCommand(journalTradeCmd, journalTodayCmd, journalDayCmd)
	journalCmd.PersistentFlags().StringVarP(&jo.dbPath, "db", "d", "", "path to SQLite journal DB (default journal.db_path from the config)")
	return journalCmd
}

func (jo *journalOptions) run(fn func(j *journal.SQLite) error) error {
	path := jo.dbPath
	if path == "" {
		cfg, err := jo.root.loadConfig()
		if err != nil {
			return err
		}
		if cfg.Journal.Type != "sqlite" {
			return errors.New("journal queries need a sqlite journal; set journal.type or pass --db")
		}
		path = cfg.Journal.DBPath
	}

	j, err := journal.NewSQLite(path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	return fn(j)
}

func (jo *journalOptions) listDay(cmd *cobra.Command, loc *time.Location, day string) error {
	start, end, err := dayBounds(loc, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	return jo.run(func(j *journal.SQLite) error {
		recs, err := j.ListTradesClosedBetween(start, end)
		if err != nil {
			return fmt.Errorf("query trades: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintf(w, "No trades closed on %s\n", day)
			return nil
		}
		fmt.Fprintln(w, journal.FormatTradesOrg(recs))

		s := journal.Summarize(recs)
		fmt.Fprintf(w, "\n%d trades, %d wins, %d losses, win rate %.1f%%, net P/L %.2f\n",
			s.Trades, s.Wins, s.Losses, s.WinRate*100, s.NetPL)
		return nil
	})
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
