package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/keyrush/internal/config"
	"github.com/verte-zerg/keyrush/internal/stats"
	"github.com/verte-zerg/keyrush/internal/store"
)

const (
	formatTable = "table"
	formatYAML  = "yaml"
)

var (
	historyLast   int
	historyFormat string
	historyClear  bool
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sessions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", 0, "show only the last N sessions (0 for all kept)")
	cmd.Flags().StringVar(&historyFormat, "format", formatTable, "output format: table or yaml")
	cmd.Flags().BoolVar(&historyClear, "clear", false, "delete all history and the high score")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if historyFormat != formatTable && historyFormat != formatYAML {
		return fmt.Errorf("invalid --format %q (use %s or %s)", historyFormat, formatTable, formatYAML)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := baseContext(cmd)

	if historyClear {
		if err := st.ClearHistory(ctx); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		_, err := fmt.Fprintln(os.Stdout, "History cleared.")
		return err
	}

	report, err := stats.BuildHistoryReport(ctx, st, historyLast, defaultHistoryWindow)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if historyFormat == formatYAML {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(report.Records); err != nil {
			return fmt.Errorf("failed to encode history: %w", err)
		}
		return enc.Close()
	}
	return stats.RenderHistory(os.Stdout, report, terminalWidth()-len("WPM curve: "))
}
