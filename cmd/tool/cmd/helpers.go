package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/toolstore/tool/internal/core"
	"github.com/toolstore/tool/internal/progress"
	"github.com/toolstore/tool/internal/registry"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// deps bundles the shared dependencies commands construct once per run.
type deps struct {
	cfg      *core.Config
	registry *registry.Client
}

func newDeps() (*deps, error) {
	cfg, err := core.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &deps{
		cfg:      cfg,
		registry: registry.NewClient(cfg.RegistryURL, cfg.Token),
	}, nil
}

// runWithProgress executes work with a terminal progress display when stdout
// is a TTY, and a plain line writer otherwise.
func runWithProgress(work func(maker core.ProgressMaker)) error {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return progress.Run(os.Stdout, work)
	}
	work(progress.NewPlainMaker(os.Stdout, false))
	return nil
}

// printInstallSummary prints per-item lines and the aggregate count line.
func printInstallSummary(summary *core.InstallSummary) {
	for _, o := range summary.Outcomes {
		switch o.Status {
		case core.OutcomeInstalled:
			fmt.Fprintf(os.Stdout, "%s %s -> %s\n", okStyle.Render("installed"), o.Ref, o.Target)
		case core.OutcomeAlreadyInstalled:
			fmt.Fprintf(os.Stdout, "%s %s (%s)\n", dimStyle.Render("skipped"), o.Ref, "already installed")
		default:
			fmt.Fprintf(os.Stdout, "%s %s: %s\n", failStyle.Render("failed"), o.Ref, o.Message)
		}
	}
	fmt.Fprintf(os.Stdout, "\n%d installed, %d already installed, %d failed\n",
		summary.Installed, summary.AlreadyInstalled, summary.Failed)
}

// confirm asks for a y/N answer on stdin.
func confirm(prompt string) bool {
	fmt.Fprintf(os.Stdout, "%s [y/N] ", prompt)
	var answer string
	_, _ = fmt.Scanln(&answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
