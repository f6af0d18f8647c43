package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/reposcout/internal/config"
	"github.com/blackwell-systems/reposcout/internal/docscore"
	"github.com/blackwell-systems/reposcout/internal/github"
	"github.com/blackwell-systems/reposcout/internal/output"
	"github.com/blackwell-systems/reposcout/internal/scraper"
)

var (
	scanFlagTopics     []string
	scanFlagMaxRepos   int
	scanFlagOut        string
	scanFlagFormat     string
	scanFlagSave       bool
	scanFlagNoProgress bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Search GitHub and rank repositories by documentation score",
	Long: `Scan searches GitHub for repositories tagged with the configured topics,
fetches the README, file tree, markdown files and a sample of source files
of each, and scores their documentation from 0-100.

Results are sorted by score and written to <output.path>/repositories.<format>.
Requires GITHUB_TOKEN in the environment or a .env file.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanFlagTopics, "topic", nil, "Topics to search (replaces search.topics, can be repeated)")
	scanCmd.Flags().IntVar(&scanFlagMaxRepos, "max-repos", 0, "Maximum repositories to evaluate (overrides search.max_repos)")
	scanCmd.Flags().StringVar(&scanFlagOut, "out", "", "Report directory (overrides output.path)")
	scanCmd.Flags().StringVar(&scanFlagFormat, "format", "", "Report format: json or html (overrides output.format)")
	scanCmd.Flags().BoolVar(&scanFlagSave, "save", false, "Store the run in the local history database")
	scanCmd.Flags().BoolVar(&scanFlagNoProgress, "no-progress", false, "Hide the progress bar")

	rootCmd.AddCommand(scanCmd)
}

// reportSettings is the settings block written into report metadata.
type reportSettings struct {
	Topics         []string        `json:"topics"`
	MaxRepos       int             `json:"max_repos"`
	Query          string          `json:"query_example,omitempty"`
	Scoring        docscore.Config `json:"scoring"`
	MaxConcurrency int             `json:"max_concurrency"`
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyColor(cfg)
	if err := applyScanFlags(cfg); err != nil {
		return err
	}
	if cfg.Token == "" {
		return errors.New(config.TokenEnv + " is not set; add it to the environment or a .env file")
	}

	logger := newLogger(os.Stderr)

	client, err := github.New(github.Options{
		BaseURL:        cfg.GitHub.BaseURL,
		Token:          cfg.Token,
		Timeout:        cfg.GitHub.Timeout,
		RateLimitPause: cfg.GitHub.RateLimitPause,
		PerPage:        cfg.GitHub.PerPage,
		CacheSize:      cfg.GitHub.CacheSize,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("creating GitHub client: %w", err)
	}

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	search, err := cfg.Search.Filter()
	if err != nil {
		return err
	}

	showProgress := !scanFlagNoProgress && !flagJSON
	sc := scraper.New(client, github.NewSnapshotBuilder(client, cfg.GitHub.SampleFiles, logger), engine, scraper.Options{
		Topics:         cfg.Search.Topics,
		MaxRepos:       cfg.Search.MaxRepos,
		Search:         search,
		Threshold:      cfg.Scoring.ScoreThreshold.Filter(),
		MaxConcurrency: cfg.Performance.MaxConcurrency,
		OwnerActivity:  cfg.GitHub.IncludeOwnerActivity,
		ActivityDays:   cfg.GitHub.ActivityDays,
		StartProgress: func(total int) scraper.Progress {
			return output.StartProgress(os.Stderr, showProgress, "Scoring", total)
		},
		Logger: logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	report, err := sc.Run(ctx)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	now := time.Now()
	settings := reportSettings{
		Topics:         cfg.Search.Topics,
		MaxRepos:       cfg.Search.MaxRepos,
		Scoring:        engine.Config(),
		MaxConcurrency: cfg.Performance.MaxConcurrency,
	}
	if len(cfg.Search.Topics) > 0 {
		settings.Query = search.Query(cfg.Search.Topics[0], now)
	}
	doc := output.NewDocument(report, settings, client.RateLimit(), now)

	path, err := output.SaveReport(cfg.Output.Path, cfg.Output.Format, doc)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}

	var snapshotID int64
	if scanFlagSave {
		run := buildRun("scan", scanEntries(report.Results), map[string]float64{
			"candidates": float64(report.Candidates),
			"skipped":    float64(len(report.Skipped)),
			"filtered":   float64(report.Filtered),
		})
		if snapshotID, err = saveRun(run); err != nil {
			return err
		}
	}

	if flagJSON {
		return output.WriteJSON(os.Stdout, doc)
	}
	renderScanTable(report.Results, cfg.Output.Width)
	renderScanSummary(report, client.RateLimit(), path, snapshotID)
	return nil
}

// applyScanFlags overrides configuration with command-line values.
func applyScanFlags(cfg *config.Config) error {
	if len(scanFlagTopics) > 0 {
		cfg.Search.Topics = scanFlagTopics
	}
	if scanFlagMaxRepos > 0 {
		cfg.Search.MaxRepos = scanFlagMaxRepos
	}
	if scanFlagOut != "" {
		cfg.Output.Path = scanFlagOut
	}
	if scanFlagFormat != "" {
		switch scanFlagFormat {
		case output.FormatJSON, output.FormatHTML:
			cfg.Output.Format = scanFlagFormat
		default:
			return fmt.Errorf("--format must be json or html, got %q", scanFlagFormat)
		}
	}
	if len(cfg.Search.Topics) == 0 {
		return errors.New("no topics to search; set search.topics or pass --topic")
	}
	return nil
}

func renderScanTable(results []scraper.Result, width int) {
	fmt.Println(output.Section("Documentation Ranking"))
	fmt.Println()

	if len(results) == 0 {
		fmt.Println(output.StyleMuted.Render(" No repositories matched."))
		return
	}

	tbl := output.NewTable("Score", "Repository", "Stars", "Language", "Issues").AlignRight(2, 4)
	for _, r := range results {
		lang := r.Language
		if lang == "" {
			lang = output.StyleMuted.Render("-")
		}
		issues := output.StyleSuccess.Render("0")
		if n := len(r.Documentation.Findings); n > 0 {
			issues = output.StyleWarning.Render(strconv.Itoa(n))
		}
		tbl.AddRow(
			output.ScoreBar(float64(r.Documentation.Score), 10),
			truncate(r.FullName, max(width/2, 20)),
			strconv.Itoa(r.StargazersCount),
			lang,
			issues,
		)
	}
	tbl.Fprint(os.Stdout)
}

func renderScanSummary(report *scraper.Report, rate github.RateLimit, path string, snapshotID int64) {
	fmt.Println(output.Section("Summary"))
	fmt.Println()
	printField("Candidates:", strconv.Itoa(report.Candidates))
	printField("Ranked:", strconv.Itoa(len(report.Results)))
	if report.Filtered > 0 {
		printField("Below threshold:", strconv.Itoa(report.Filtered))
	}
	if len(report.Skipped) > 0 {
		printField("Skipped:", output.StyleWarning.Render(strconv.Itoa(len(report.Skipped))))
	}
	if rate.Known() {
		printField("Rate limit:", fmt.Sprintf("%d/%d remaining", rate.Remaining, rate.Limit))
	}
	printField("Report:", path)
	if snapshotID > 0 {
		printField("Saved as:", fmt.Sprintf("snapshot #%d", snapshotID))
	}
	fmt.Println()
}

func printField(label, value string) {
	fmt.Printf(" %s %s\n", output.StyleLabel.Render(label), output.StyleBold.Render(value))
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 2 {
		return s
	}
	return string(r[:n-1]) + "…"
}
