package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// installWorkers bounds how many install items mutate concurrently. Large
// batches queue behind the pool instead of opening a socket and a temp file
// per item all at once.
const installWorkers = 4

// Executor consumes dispositions and performs the downloads, extractions,
// and links they describe. Items run concurrently through a bounded pool; a
// failing item becomes a Failed outcome and never cancels its siblings. The
// executor always drains the whole batch.
type Executor struct {
	cfg      *Config
	registry Registry
	linker   *Linker
	progress ProgressMaker
}

// NewExecutor creates an Executor. A nil progress maker disables progress
// reporting.
func NewExecutor(cfg *Config, registry Registry, progress ProgressMaker) *Executor {
	if progress == nil {
		progress = NopProgressMaker{}
	}
	return &Executor{
		cfg:      cfg,
		registry: registry,
		linker:   NewLinker(cfg),
		progress: progress,
	}
}

// Execute runs every disposition and aggregates the per-item outcomes.
// Outcomes are index-aligned with the dispositions regardless of completion
// order.
func (e *Executor) Execute(ctx context.Context, dispositions []Disposition) *InstallSummary {
	outcomes := make([]Outcome, len(dispositions))

	var wg sync.WaitGroup
	sem := make(chan struct{}, installWorkers)
	for i, d := range dispositions {
		wg.Add(1)
		go func(i int, d Disposition) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = e.executeOne(ctx, d)
		}(i, d)
	}
	wg.Wait()

	summary := &InstallSummary{Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case OutcomeInstalled:
			summary.Installed++
		case OutcomeAlreadyInstalled:
			summary.AlreadyInstalled++
		default:
			summary.Failed++
		}
	}
	return summary
}

func (e *Executor) executeOne(ctx context.Context, d Disposition) Outcome {
	switch plan := d.(type) {
	case *AlreadyInstalled:
		return Outcome{Ref: plan.Ref, Status: OutcomeAlreadyInstalled, Target: plan.TargetDir}
	case *Invalid:
		return Outcome{Ref: plan.Ref, Status: OutcomeFailed, Message: plan.Reason.Error()}
	case *RegistryPlan:
		return e.installFromRegistry(ctx, plan)
	case *BundlePlan:
		return e.installFromBundle(plan)
	case *LocalLink:
		return e.installLocal(plan)
	default:
		return Outcome{Ref: d.RefString(), Status: OutcomeFailed, Message: fmt.Sprintf("unknown disposition %T", d)}
	}
}

// installFromRegistry downloads to the plan's temp file, extracts through a
// staging directory, and cleans the temp file up. Progress is by bytes.
func (e *Executor) installFromRegistry(ctx context.Context, plan *RegistryPlan) Outcome {
	if err := os.MkdirAll(e.cfg.TempDir, 0o755); err != nil {
		return Outcome{Ref: plan.Ref, Status: OutcomeFailed, Message: fmt.Sprintf("creating temp dir: %v", err)}
	}

	progress := e.progress.NewProgress(plan.Ref)
	progress.SetTotal(plan.DownloadSize)

	size, err := e.registry.DownloadWithProgress(ctx, plan.DownloadURL, plan.TempFile, progress)
	if err != nil {
		progress.Finish()
		return Outcome{Ref: plan.Ref, Status: OutcomeFailed, Message: fmt.Sprintf("downloading: %v", err)}
	}
	defer func() { _ = os.Remove(plan.TempFile) }()

	if err := e.extractStaged(plan.TempFile, plan.TargetDir, NopProgress{}); err != nil {
		progress.Finish()
		return Outcome{Ref: plan.Ref, Status: OutcomeFailed, Message: err.Error()}
	}

	progress.Finish()
	return Outcome{Ref: plan.Ref, Status: OutcomeInstalled, Size: size, Target: plan.TargetDir}
}

// installFromBundle extracts a local bundle file. Progress is by archive
// entry since the bytes are already resident.
func (e *Executor) installFromBundle(plan *BundlePlan) Outcome {
	progress := e.progress.NewProgress(plan.DisplayName)
	defer progress.Finish()

	if err := e.extractStaged(plan.SourcePath, plan.TargetDir, progress); err != nil {
		return Outcome{Ref: plan.Ref, Status: OutcomeFailed, Message: err.Error()}
	}

	var size int64
	if info, err := os.Stat(plan.SourcePath); err == nil {
		size = info.Size()
	}
	return Outcome{Ref: plan.Ref, Status: OutcomeInstalled, Size: size, Target: plan.TargetDir}
}

func (e *Executor) installLocal(plan *LocalLink) Outcome {
	outcome, err := e.linker.Link(plan.SourcePath, plan.Name, plan.Version)
	if err != nil {
		return Outcome{Ref: plan.Ref, Status: OutcomeFailed, Message: err.Error()}
	}

	switch outcome.Status {
	case LinkCreated:
		return Outcome{Ref: plan.Ref, Status: OutcomeInstalled, Target: outcome.Target}
	case LinkExists:
		return Outcome{Ref: plan.Ref, Status: OutcomeAlreadyInstalled, Target: outcome.Target}
	default:
		return Outcome{
			Ref:    plan.Ref,
			Status: OutcomeFailed,
			Message: fmt.Sprintf("%s already exists and points at %s (use --force to replace)",
				outcome.Target, outcome.ExistingTarget),
		}
	}
}

// extractStaged extracts a bundle into a staging sibling of the target and
// renames it into place, so a crashed or concurrent install never leaves a
// partial target directory.
func (e *Executor) extractStaged(bundlePath, targetDir string, progress Progress) error {
	if err := os.MkdirAll(filepath.Dir(targetDir), 0o755); err != nil {
		return fmt.Errorf("creating parent dir: %w", err)
	}

	staging := targetDir + ".tmp-" + uuid.NewString()
	if err := ExtractBundle(bundlePath, staging, progress); err != nil {
		_ = os.RemoveAll(staging)
		return err
	}

	if err := os.Rename(staging, targetDir); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("installing into %s: %w", targetDir, err)
	}
	return nil
}
