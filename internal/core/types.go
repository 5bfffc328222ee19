// Package core provides the business logic for the tool package manager:
// reference resolution, platform bundle selection, the preflight/execute
// install pipeline, local linking, uninstall, and publishing. It has zero
// terminal dependencies and is independently testable.
package core

const (
	// manifestFileName is the manifest entry every bundle and installed
	// tool directory must contain.
	manifestFileName = "manifest.json"

	// bundleExt is the extension of standard bundles.
	bundleExt = "mcpb"

	// bundleExtExtended is the extension of extended bundles (reference
	// mode, HTTP transport, system_config).
	bundleExtExtended = "mcpbx"

	// universalPlatform selects the platform-independent artifact.
	universalPlatform = "universal"
)

// Disposition is the per-reference outcome of preflight planning. It is
// produced once, is immutable, and is consumed by the executor. Exactly one
// of the concrete types below applies to each reference.
type Disposition interface {
	// RefString returns the reference the disposition was planned for.
	RefString() string
}

// AlreadyInstalled marks a reference whose target manifest already exists on
// disk. Executing it performs no filesystem writes.
type AlreadyInstalled struct {
	Ref       string
	TargetDir string
}

func (d *AlreadyInstalled) RefString() string { return d.Ref }

// RegistryPlan describes a pending download-and-extract from the registry.
type RegistryPlan struct {
	Ref          string
	Namespace    string
	Name         string
	Version      string
	DownloadURL  string
	DownloadSize int64
	TargetDir    string
	TempFile     string
}

func (d *RegistryPlan) RefString() string { return d.Ref }

// BundlePlan describes a pending extraction from a local bundle file.
type BundlePlan struct {
	Ref         string
	SourcePath  string
	DisplayName string // "name@version" derived from the bundle manifest
	EntryCount  int    // archive entries, used for progress
	TargetDir   string
}

func (d *BundlePlan) RefString() string { return d.Ref }

// LocalLink describes a pending symlink of a local source directory into the
// tools root. Idempotence and conflict checks are deferred to execution.
type LocalLink struct {
	Ref        string
	SourcePath string
	Name       string
	Version    string
}

func (d *LocalLink) RefString() string { return d.Ref }

// Invalid marks a reference that failed preflight. It never aborts the batch.
type Invalid struct {
	Ref    string
	Reason error
}

func (d *Invalid) RefString() string { return d.Ref }

// OutcomeStatus classifies a per-item install result.
type OutcomeStatus string

const (
	OutcomeInstalled        OutcomeStatus = "installed"
	OutcomeAlreadyInstalled OutcomeStatus = "already-installed"
	OutcomeFailed           OutcomeStatus = "failed"
)

// Outcome is the per-item result of executing one disposition.
type Outcome struct {
	Ref     string
	Status  OutcomeStatus
	Size    int64  // Bytes installed, when known
	Target  string // Installed directory or link target
	Message string // Failure detail or link note
}

// InstallSummary aggregates a batch install. Every requested reference maps
// to exactly one outcome, so Installed+AlreadyInstalled+Failed equals the
// number of requests.
type InstallSummary struct {
	Outcomes         []Outcome
	Installed        int
	AlreadyInstalled int
	Failed           int
}

// LinkStatus classifies the result of a non-forced link attempt.
type LinkStatus string

const (
	LinkCreated LinkStatus = "linked"
	LinkExists  LinkStatus = "already-linked"
	LinkBlocked LinkStatus = "conflict"
)

// LinkOutcome reports a Link call. A conflict never mutates the filesystem.
type LinkOutcome struct {
	Status         LinkStatus
	Target         string // Link path inside the tools root
	ExistingTarget string // What the conflicting entry points at, if a conflict
}

// RemoveStatus classifies a per-item uninstall result.
type RemoveStatus string

const (
	RemoveRemoved       RemoveStatus = "removed"
	RemoveOrphanCleaned RemoveStatus = "orphan-cleaned"
	RemoveNotFound      RemoveStatus = "not-found"
	RemoveFailed        RemoveStatus = "failed"
)

// RemoveOutcome is the per-item result of an uninstall.
type RemoveOutcome struct {
	Ref     string
	Status  RemoveStatus
	Dir     string
	Message string
}

// RemoveSummary aggregates a batch uninstall. The batch never reports a
// single pass/fail; callers read the counts.
type RemoveSummary struct {
	Outcomes       []RemoveOutcome
	Removed        int
	OrphansCleaned int
	NotFound       int
	Failed         int
}

// InstalledTool is one entry found under the tools root.
type InstalledTool struct {
	Namespace string // Empty for unnamespaced (bundle/local) installs
	Name      string
	Version   string
	Dir       string
	Linked    bool // True when the entry is a symlink to a local source
}

// Orphan is a tools-root entry that no longer represents an installed tool:
// a symlink whose target is gone, or a directory without a manifest.
type Orphan struct {
	Path   string
	Reason string
}
