package app

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/reposcout/internal/config"
	"github.com/blackwell-systems/reposcout/internal/output"
	"github.com/blackwell-systems/reposcout/internal/store"
)

var (
	trackCompare int
	trackHistory int
	trackTop     int
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Compare stored runs",
	Long: `Compare the most recent stored run against an earlier one and show
metric deltas with trend arrows, plus the repositories whose scores changed.
Runs are stored with 'reposcout scan --save' or 'reposcout score --save'.`,
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().IntVar(&trackCompare, "compare", 1, "Compare against Nth previous snapshot (1 = the one before the latest)")
	trackCmd.Flags().IntVar(&trackHistory, "history", 0, "Show metric trends across N most recent snapshots")
	trackCmd.Flags().IntVar(&trackTop, "top", 10, "Number of repository changes to show")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyColor(cfg)

	if trackCompare < 1 {
		return fmt.Errorf("--compare must be at least 1, got %d", trackCompare)
	}

	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if trackHistory > 0 {
		history, err := loadHistory(db, trackHistory)
		if err != nil {
			return err
		}
		if flagJSON {
			return output.WriteJSON(os.Stdout, map[string]any{"history": history})
		}
		renderHistory(history)
		return nil
	}

	current, err := db.GetLatestSnapshot()
	if err != nil {
		return fmt.Errorf("loading latest snapshot: %w", err)
	}
	if current == nil {
		fmt.Println(" No snapshots found. Run 'reposcout scan --save' to record one.")
		return nil
	}

	// trackCompare=1 means the immediate predecessor (offset 2 from newest).
	prev, err := db.GetSnapshotN(trackCompare + 1)
	if err != nil {
		return fmt.Errorf("loading previous snapshot: %w", err)
	}

	var diff *store.SnapshotDiff
	if prev != nil {
		if diff, err = db.Compare(prev, current); err != nil {
			return err
		}
	}

	if flagJSON {
		result := map[string]any{"snapshot": current}
		if diff != nil {
			result["diff"] = diff
		}
		return output.WriteJSON(os.Stdout, result)
	}
	renderTrackOutput(current, diff, trackTop)
	return nil
}

func renderTrackOutput(current *store.Snapshot, diff *store.SnapshotDiff, top int) {
	fmt.Println(output.Section("Track: Snapshot Comparison"))
	fmt.Println()
	fmt.Printf(" Snapshot #%d (%s) taken at %s\n\n", current.ID, current.Command, current.TakenAt.Local().Format("2006-01-02 15:04:05"))

	if diff == nil {
		fmt.Println(" Only one snapshot recorded. Save another run later to see trends.")
		return
	}

	fmt.Printf(" Comparing against snapshot #%d (%s)\n\n",
		diff.Previous.ID, diff.Previous.TakenAt.Local().Format("2006-01-02 15:04:05"))

	tbl := output.NewTable("Metric", "Previous", "Current", "Delta", "Trend").AlignRight(1, 2, 3)
	for _, d := range diff.Deltas {
		tbl.AddRow(
			metricShortName(d.Name),
			fmt.Sprintf("%.1f", d.Previous),
			fmt.Sprintf("%.1f", d.Current),
			fmt.Sprintf("%+.1f", d.Delta),
			output.TrendArrow(d.Delta, store.HigherIsBetter(d.Name)),
		)
	}
	tbl.Fprint(os.Stdout)

	changes := repoChanges(diff.Repositories, top)
	if len(changes) == 0 {
		return
	}
	fmt.Println(output.Section("Repository Changes"))
	fmt.Println()
	rt := output.NewTable("Repository", "Previous", "Current", "Change").AlignRight(1, 2)
	for _, r := range changes {
		change := output.TrendArrow(float64(r.Delta), true)
		switch r.Direction {
		case store.DirectionNew:
			change = output.StyleSuccess.Render("new")
		case store.DirectionRemoved:
			change = output.StyleMuted.Render("removed")
		}
		rt.AddRow(truncate(r.Repository, 40), fmt.Sprintf("%d", r.Previous), fmt.Sprintf("%d", r.Current), change)
	}
	rt.Fprint(os.Stdout)
}

// repoChanges drops unchanged repositories and keeps the n largest moves.
func repoChanges(deltas []store.RepoDelta, n int) []store.RepoDelta {
	var changed []store.RepoDelta
	for _, d := range deltas {
		if d.Direction != store.DirectionUnchanged {
			changed = append(changed, d)
		}
	}
	slices.SortStableFunc(changed, func(a, b store.RepoDelta) int {
		return abs(b.Delta) - abs(a.Delta)
	})
	if n > 0 && len(changed) > n {
		changed = changed[:n]
	}
	return changed
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// metricDisplayOrder defines the order metrics appear in history output.
var metricDisplayOrder = []string{
	"repositories",
	"avg_score",
	"median_score",
	"min_score",
	"max_score",
	"with_readme",
	"with_docs_folder",
	"avg_comment_ratio",
	"avg_markdown_files",
	"candidates",
	"skipped",
	"filtered",
}

// metricShortName returns a compact label for display.
func metricShortName(name string) string {
	short := map[string]string{
		"repositories":       "Repositories",
		"avg_score":          "Avg Score",
		"median_score":       "Median Score",
		"min_score":          "Min Score",
		"max_score":          "Max Score",
		"with_readme":        "With README",
		"with_docs_folder":   "With Docs Folder",
		"avg_comment_ratio":  "Avg Comment %",
		"avg_markdown_files": "Avg Markdown Files",
		"candidates":         "Candidates",
		"skipped":            "Skipped",
		"filtered":           "Below Threshold",
	}
	if s, ok := short[name]; ok {
		return s
	}
	return name
}

// historyEntry is one snapshot with its metrics.
type historyEntry struct {
	Snapshot store.Snapshot          `json:"snapshot"`
	Metrics  []store.AggregateMetric `json:"metrics"`
}

// loadHistory returns up to n snapshots in chronological order.
func loadHistory(db *store.DB, n int) ([]historyEntry, error) {
	snapshots, err := db.GetRecentSnapshots(n)
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}
	slices.Reverse(snapshots)

	entries := make([]historyEntry, 0, len(snapshots))
	for _, s := range snapshots {
		metrics, err := db.GetAggregateMetrics(s.ID)
		if err != nil {
			return nil, fmt.Errorf("loading metrics for snapshot #%d: %w", s.ID, err)
		}
		entries = append(entries, historyEntry{Snapshot: s, Metrics: metrics})
	}
	return entries, nil
}

// renderHistory shows a multi-snapshot timeline table.
func renderHistory(history []historyEntry) {
	if len(history) == 0 {
		fmt.Println(" No snapshots found. Run 'reposcout scan --save' to record one.")
		return
	}

	fmt.Println(output.Section("Track: Metric History"))
	fmt.Println()
	fmt.Printf(" Showing %d most recent snapshots\n\n", len(history))

	headers := []string{"Metric"}
	values := make([]map[string]float64, len(history))
	present := make(map[string]bool)
	for i, h := range history {
		headers = append(headers, fmt.Sprintf("#%d %s", h.Snapshot.ID, h.Snapshot.TakenAt.Local().Format("Jan 02")))
		values[i] = make(map[string]float64, len(h.Metrics))
		for _, m := range h.Metrics {
			values[i][m.MetricName] = m.MetricValue
			present[m.MetricName] = true
		}
	}
	headers = append(headers, "Trend")
	tbl := output.NewTable(headers...)

	for _, name := range metricDisplayOrder {
		if !present[name] {
			continue
		}
		row := []string{metricShortName(name)}
		for _, v := range values {
			row = append(row, fmt.Sprintf("%.1f", v[name]))
		}

		trend := ""
		if len(values) >= 2 {
			delta := values[len(values)-1][name] - values[0][name]
			trend = output.TrendArrow(delta, store.HigherIsBetter(name))
		}
		tbl.AddRow(append(row, trend)...)
	}
	tbl.Fprint(os.Stdout)
}
