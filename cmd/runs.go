package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/marketdesk/indicators-cli/internal/runlog"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent extraction runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := runlog.Open(cfg.RunLog.Path)
		if err != nil {
			return eris.Wrap(err, "open run history")
		}
		defer store.Close() //nolint:errcheck
		if err := store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate run history")
		}

		runs, err := store.List(ctx, runsLimit)
		if err != nil {
			return eris.Wrap(err, "list runs")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tDURATION\tTICKERS\tQUALITY\tOUTPUT\tRUN ID")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
				r.StartedAt.Local().Format(time.DateTime),
				r.Duration.Round(time.Second),
				r.Total,
				formatQuality(r.Quality),
				r.OutputFile,
				r.ID,
			)
		}
		return w.Flush()
	},
}

// formatQuality renders quality counts as "good:18 partial:4 mock:3",
// highest count first.
func formatQuality(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}
	tiers := make([]string, 0, len(counts))
	for tier := range counts {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool {
		if counts[tiers[i]] != counts[tiers[j]] {
			return counts[tiers[i]] > counts[tiers[j]]
		}
		return tiers[i] < tiers[j]
	})
	parts := make([]string, len(tiers))
	for i, tier := range tiers {
		parts[i] = fmt.Sprintf("%s:%d", tier, counts[tier])
	}
	return strings.Join(parts, " ")
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(runsCmd)
}
