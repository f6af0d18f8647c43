package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/reposcout/internal/config"
	"github.com/blackwell-systems/reposcout/internal/output"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and connectivity",
	Long: `Run a series of health checks against your reposcout configuration,
GitHub token, output directory, history database and grammar server. Prints
a pass/fail line for each check and a summary of how many checks passed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	if flagNoColor {
		output.SetNoColor(true)
	}

	var checks []doctorCheck

	cfg, err := config.Load(flagConfig)
	if err != nil {
		checks = append(checks, doctorCheck{Name: "Configuration", Message: err.Error()})
	} else {
		checks = append(checks, doctorCheck{Name: "Configuration", Passed: true, Message: "loaded and valid"})
		checks = append(checks, checkToken(cfg.Token))
		checks = append(checks, checkOutputDir(cfg.Output.Path))
		checks = append(checks, checkGrammar(cmd.Context(), cfg))
	}
	checks = append(checks, checkDatabase(config.DBPath()))

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	if flagJSON {
		return output.WriteJSON(os.Stdout, doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		})
	}

	fmt.Println(output.Section("Doctor"))
	fmt.Println()
	for _, c := range checks {
		renderDoctorCheck(c)
	}

	fmt.Println()
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Printf(" %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Printf(" %s\n\n", output.StyleWarning.Render(summary))
	}
	return nil
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(c doctorCheck) {
	indicator := output.StyleWarning.Render("✗")
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	}
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Printf("  %s  %-30s %s\n", indicator, label, detail)
}

// checkToken verifies that a GitHub token is available.
func checkToken(token string) doctorCheck {
	if token == "" {
		return doctorCheck{
			Name:    "GitHub token",
			Message: config.TokenEnv + " is not set (required for 'scan')",
		}
	}
	// Show only the first few characters.
	masked := token[:min(4, len(token))] + "..."
	return doctorCheck{
		Name:    "GitHub token",
		Passed:  true,
		Message: fmt.Sprintf("%s set (%s)", config.TokenEnv, masked),
	}
}

// checkOutputDir verifies that reports can be written to dir.
func checkOutputDir(dir string) doctorCheck {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return doctorCheck{Name: "Output directory", Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	f, err := os.CreateTemp(dir, ".reposcout-doctor-*")
	if err != nil {
		return doctorCheck{Name: "Output directory", Message: fmt.Sprintf("not writable: %v", err)}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return doctorCheck{Name: "Output directory", Passed: true, Message: abs}
}

// checkDatabase verifies that the SQLite database file exists.
func checkDatabase(dbPath string) doctorCheck {
	if _, err := os.Stat(dbPath); err != nil {
		return doctorCheck{
			Name:    "History database",
			Message: fmt.Sprintf("not found at %s (run 'reposcout scan --save' to create)", dbPath),
		}
	}
	return doctorCheck{Name: "History database", Passed: true, Message: dbPath}
}

// checkGrammar queries the LanguageTool server when grammar checks are on.
func checkGrammar(ctx context.Context, cfg *config.Config) doctorCheck {
	q := cfg.Scoring.Markdown.QualityChecks
	if !cfg.Scoring.Markdown.Enabled || !q.Enabled {
		return doctorCheck{Name: "Grammar server", Passed: true, Message: "quality checks disabled"}
	}
	endpoint := strings.TrimRight(cfg.Grammar.Endpoint, "/")
	if endpoint == "" {
		return doctorCheck{Name: "Grammar server", Message: "quality checks enabled but grammar.endpoint is empty"}
	}

	timeout := cfg.Grammar.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/v2/languages", nil)
	if err != nil {
		return doctorCheck{Name: "Grammar server", Message: err.Error()}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return doctorCheck{Name: "Grammar server", Message: fmt.Sprintf("unreachable: %v", err)}
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return doctorCheck{Name: "Grammar server", Message: fmt.Sprintf("%s returned status %d", endpoint, resp.StatusCode)}
	}
	return doctorCheck{Name: "Grammar server", Passed: true, Message: endpoint}
}
