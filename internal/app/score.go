package app

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/reposcout/internal/config"
	"github.com/blackwell-systems/reposcout/internal/docscore"
	"github.com/blackwell-systems/reposcout/internal/output"
	"github.com/blackwell-systems/reposcout/internal/scanner"
)

var (
	scoreFlagDetails bool
	scoreFlagSave    bool
)

var scoreCmd = &cobra.Command{
	Use:   "score [dir...]",
	Short: "Score local checkouts",
	Long: `Score evaluates the documentation of local checkouts with the same
engine scan uses. Each argument may be a repository or a directory whose
immediate subdirectories are repositories. Defaults to the current directory.`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreFlagDetails, "details", false, "Show issues and suggestions for each project")
	scoreCmd.Flags().BoolVar(&scoreFlagSave, "save", false, "Store the run in the local history database")
	rootCmd.AddCommand(scoreCmd)
}

// localResult is the evaluation of one local project.
type localResult struct {
	Project       scanner.Project  `json:"project"`
	Documentation docscore.Summary `json:"documentation"`
	Admitted      bool             `json:"admitted"`
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyColor(cfg)

	engine, err := newEngine(cfg, newLogger(os.Stderr))
	if err != nil {
		return err
	}

	dirs := args
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	results, err := scoreLocal(cmd.Context(), engine, dirs)
	if err != nil {
		return err
	}
	threshold := cfg.Scoring.ScoreThreshold.Filter()
	for i := range results {
		results[i].Admitted = threshold.Admit(results[i].Documentation.Score)
	}

	var snapshotID int64
	if scoreFlagSave {
		entries := make([]runEntry, 0, len(results))
		for _, r := range results {
			entries = append(entries, runEntry{Name: r.Project.Path, Summary: r.Documentation})
		}
		if snapshotID, err = saveRun(buildRun("score", entries, nil)); err != nil {
			return err
		}
	}

	if flagJSON {
		return output.WriteJSON(os.Stdout, results)
	}
	renderScoreTable(results)
	if scoreFlagDetails {
		renderScoreDetails(results)
	}
	if snapshotID > 0 {
		printField("Saved as:", fmt.Sprintf("snapshot #%d", snapshotID))
		fmt.Println()
	}
	return nil
}

// scoreLocal discovers projects under dirs and evaluates each one. A
// directory that contains no repositories is scored as a project itself.
func scoreLocal(ctx context.Context, engine *docscore.Engine, dirs []string) ([]localResult, error) {
	var projects []scanner.Project
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", dir)
		}

		found, err := scanner.DiscoverProjects([]string{dir})
		if err != nil {
			return nil, fmt.Errorf("discovering projects in %s: %w", dir, err)
		}
		if len(found) == 0 {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return nil, err
			}
			found = []scanner.Project{{Path: abs, Name: filepath.Base(abs)}}
		}
		projects = append(projects, found...)
	}

	results := make([]localResult, 0, len(projects))
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := scanner.LocalSnapshot(p.Path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p.Path, err)
		}
		p.HasReadme = snap.ReadmeText != ""
		results = append(results, localResult{Project: p, Documentation: engine.Evaluate(ctx, snap)})
	}

	slices.SortStableFunc(results, func(a, b localResult) int {
		if c := cmp.Compare(b.Documentation.Score, a.Documentation.Score); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a.Project.Name), strings.ToLower(b.Project.Name))
	})
	return results, nil
}

func renderScoreTable(results []localResult) {
	fmt.Println(output.Section("Local Documentation Scores"))
	fmt.Println()

	if len(results) == 0 {
		fmt.Println(output.StyleMuted.Render(" No projects found."))
		return
	}

	tbl := output.NewTable("Score", "Project", "Language", "README words", "Docs folder").AlignRight(3)
	for _, r := range results {
		stats := r.Documentation.Stats
		docs := output.StyleError.Render("---")
		if len(stats.DocsFolders) > 0 {
			docs = output.StyleSuccess.Render(strings.Join(stats.DocsFolders, ", "))
		}
		name := r.Project.Name
		if !r.Admitted {
			name = output.StyleMuted.Render(name)
		}
		lang := r.Project.PrimaryLanguage
		if lang == "" {
			lang = output.StyleMuted.Render("-")
		}
		tbl.AddRow(
			output.ScoreBar(float64(r.Documentation.Score), 10),
			name,
			lang,
			fmt.Sprintf("%d", stats.ReadmeWordCount),
			docs,
		)
	}
	tbl.Fprint(os.Stdout)
	fmt.Println()
}

func renderScoreDetails(results []localResult) {
	for _, r := range results {
		if len(r.Documentation.Findings) == 0 {
			continue
		}
		fmt.Println(output.Section(r.Project.Name))
		for _, f := range r.Documentation.Findings {
			fmt.Printf("  %s %s\n", output.StyleWarning.Render("✗"), f.Issue)
			fmt.Printf("    %s\n", output.StyleMuted.Render("→ "+f.Suggestion))
		}
	}
	fmt.Println()
}
