package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Remover handles tool uninstallation: removes installed directories, prunes
// namespace folders that become empty, and reclaims orphaned entries.
type Remover struct {
	cfg *Config
}

// NewRemover creates a Remover over the configured tools root.
func NewRemover(cfg *Config) *Remover {
	return &Remover{cfg: cfg}
}

// RemoveOptions configures a batch removal.
type RemoveOptions struct {
	All     bool // Remove every installed tool
	Orphans bool // Also reclaim orphaned entries
}

// Remove uninstalls the tool a reference names. The reference must be the
// installed form, [namespace/]name[@version]; an unversioned reference
// removes the highest installed version. When the namespace folder becomes
// empty it is pruned too, keeping the hierarchy tidy.
func (r *Remover) Remove(raw string) RemoveOutcome {
	ref, err := ParseRef(raw)
	if err != nil {
		return RemoveOutcome{Ref: raw, Status: RemoveFailed, Message: err.Error()}
	}
	if ref.Kind != RefRegistry {
		return RemoveOutcome{Ref: raw, Status: RemoveFailed,
			Message: "specify the installed tool as [namespace/]name[@version]"}
	}

	tool, err := ResolveInstalled(r.cfg.ToolsRoot, ref)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return RemoveOutcome{Ref: raw, Status: RemoveNotFound}
		}
		return RemoveOutcome{Ref: raw, Status: RemoveFailed, Message: err.Error()}
	}

	if err := r.removeEntry(tool.Dir); err != nil {
		return RemoveOutcome{Ref: raw, Status: RemoveFailed, Message: err.Error()}
	}
	return RemoveOutcome{Ref: raw, Status: RemoveRemoved, Dir: tool.Dir}
}

// RemoveBatch uninstalls a set of references concurrently, optionally
// sweeping every installed tool and/or orphaned entries. Per-item failures
// never abort the batch; the summary carries one outcome per item.
func (r *Remover) RemoveBatch(refs []string, opts RemoveOptions) (*RemoveSummary, error) {
	if opts.All {
		installed, err := ListInstalled(r.cfg.ToolsRoot)
		if err != nil {
			return nil, err
		}
		refs = nil
		for _, tool := range installed {
			refs = append(refs, installedRefString(tool))
		}
	}

	outcomes := make([]RemoveOutcome, len(refs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, installWorkers)
	for i, raw := range refs {
		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = r.Remove(raw)
		}(i, raw)
	}
	wg.Wait()

	if opts.Orphans {
		orphanOutcomes, err := r.removeOrphans()
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, orphanOutcomes...)
	}

	summary := &RemoveSummary{Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case RemoveRemoved:
			summary.Removed++
		case RemoveOrphanCleaned:
			summary.OrphansCleaned++
		case RemoveNotFound:
			summary.NotFound++
		default:
			summary.Failed++
		}
	}
	return summary, nil
}

// removeOrphans reclaims every orphaned entry under the tools root. Each
// orphan is independently removable and gets its own outcome.
func (r *Remover) removeOrphans() ([]RemoveOutcome, error) {
	orphans, err := ListOrphans(r.cfg.ToolsRoot)
	if err != nil {
		return nil, err
	}

	var outcomes []RemoveOutcome
	for _, orphan := range orphans {
		ref := fmt.Sprintf("%s (%s)", filepath.Base(orphan.Path), orphan.Reason)
		if err := r.removeEntry(orphan.Path); err != nil {
			outcomes = append(outcomes, RemoveOutcome{Ref: ref, Status: RemoveFailed, Message: err.Error()})
			continue
		}
		outcomes = append(outcomes, RemoveOutcome{Ref: ref, Status: RemoveOrphanCleaned, Dir: orphan.Path})
	}
	return outcomes, nil
}

// removeEntry deletes an entry and prunes its parent if that leaves the
// namespace folder empty. The tools root itself is never removed.
func (r *Remover) removeEntry(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}

	parent := filepath.Dir(path)
	if filepath.Clean(parent) != filepath.Clean(r.cfg.ToolsRoot) {
		cleanupEmptyDir(parent)
	}
	return nil
}
