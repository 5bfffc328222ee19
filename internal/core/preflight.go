package core

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// Planner produces install dispositions without mutating anything: its only
// I/O is registry metadata reads and local existence checks. Callers can
// show the full plan and ask for confirmation before the executor runs.
//
// Target directories are namespaced for registry installs
// ({root}/{ns}/{name}@{ver}) but flat for bundle and local installs
// ({root}/{name}@{ver}). The two conventions can collide when an unrelated
// local tool shares name@version with a registry tool; that mismatch is
// inherited and deliberately not papered over here.
type Planner struct {
	cfg      *Config
	registry Registry
}

// NewPlanner creates a Planner over the given config and registry client.
func NewPlanner(cfg *Config, registry Registry) *Planner {
	return &Planner{cfg: cfg, registry: registry}
}

// Plan resolves each reference to a disposition. Per-item failures become
// Invalid dispositions; the batch never aborts. The returned slice is
// index-aligned with refs.
func (p *Planner) Plan(ctx context.Context, refs []string, platform string) []Disposition {
	dispositions := make([]Disposition, 0, len(refs))
	for _, raw := range refs {
		dispositions = append(dispositions, p.planOne(ctx, raw, platform))
	}
	return dispositions
}

func (p *Planner) planOne(ctx context.Context, raw, platform string) Disposition {
	ref, err := ParseRef(raw)
	if err != nil {
		return &Invalid{Ref: raw, Reason: err}
	}

	switch ref.Kind {
	case RefBundleFile:
		return p.planBundle(ref)
	case RefLocalPath:
		return p.planLocal(ref)
	default:
		return p.planRegistry(ctx, ref, platform)
	}
}

// planBundle opens the bundle, derives name@version from its manifest, and
// checks whether that tool is already installed.
func (p *Planner) planBundle(ref *Ref) Disposition {
	info, err := OpenBundleFile(ref.Path)
	if err != nil {
		return &Invalid{Ref: ref.Raw, Reason: err}
	}

	targetDir := filepath.Join(p.cfg.ToolsRoot, info.Manifest.DirName())
	if fileExists(filepath.Join(targetDir, manifestFileName)) {
		return &AlreadyInstalled{Ref: ref.Raw, TargetDir: targetDir}
	}

	return &BundlePlan{
		Ref:         ref.Raw,
		SourcePath:  ref.Path,
		DisplayName: info.Manifest.DirName(),
		EntryCount:  info.EntryCount,
		TargetDir:   targetDir,
	}
}

// planLocal validates the source directory and defers the idempotence and
// conflict checks to the linker, which must compare existing symlink targets
// at execution time anyway.
func (p *Planner) planLocal(ref *Ref) Disposition {
	manifest, err := ReadManifestDir(ref.Path)
	if err != nil {
		return &Invalid{Ref: ref.Raw, Reason: fmt.Errorf("not a tool directory: %w", err)}
	}

	abs, err := filepath.Abs(ref.Path)
	if err != nil {
		return &Invalid{Ref: ref.Raw, Reason: fmt.Errorf("resolving path: %w", err)}
	}

	return &LocalLink{
		Ref:        ref.Raw,
		SourcePath: abs,
		Name:       manifest.Name,
		Version:    manifest.Version,
	}
}

// planRegistry resolves the version, selects the platform bundle, and checks
// the installed manifest path.
func (p *Planner) planRegistry(ctx context.Context, ref *Ref, platform string) Disposition {
	if !ref.Qualified() {
		return &Invalid{
			Ref:    ref.Raw,
			Reason: fmt.Errorf("%w: registry reference %q requires a namespace", ErrInvalidReference, ref.Raw),
		}
	}

	version := ref.Version
	if version == "" {
		artifact, err := p.registry.GetArtifact(ctx, ref.Namespace, ref.Name)
		if err != nil {
			return &Invalid{Ref: ref.Raw, Reason: err}
		}
		if artifact.LatestVersion == "" {
			return &Invalid{Ref: ref.Raw, Reason: &NoPublishedVersionError{Reference: ref.String()}}
		}
		version = artifact.LatestVersion
	}

	versionInfo, err := p.registry.GetVersion(ctx, ref.Namespace, ref.Name, version)
	if err != nil {
		return &Invalid{Ref: ref.Raw, Reason: err}
	}

	selection, err := SelectBundle(versionInfo.Files, versionInfo.MainDownloadURL, versionInfo.MainDownloadSize, platform, ref.String())
	if err != nil {
		return &Invalid{Ref: ref.Raw, Reason: err}
	}

	targetDir := filepath.Join(p.cfg.ToolsRoot, ref.Namespace, ref.Name+"@"+version)
	if fileExists(filepath.Join(targetDir, manifestFileName)) {
		return &AlreadyInstalled{Ref: ref.Raw, TargetDir: targetDir}
	}

	downloadURL := versionInfo.MainDownloadURL
	if !selection.FromMainDownload {
		downloadURL = p.registry.FileDownloadURL(ref.Namespace, ref.Name, version, selection.Filename)
	}

	tempFile := filepath.Join(p.cfg.TempDir,
		fmt.Sprintf("tool-%s-%s-%s-%s.zip", ref.Namespace, ref.Name, version, uuid.NewString()))

	return &RegistryPlan{
		Ref:          ref.Raw,
		Namespace:    ref.Namespace,
		Name:         ref.Name,
		Version:      version,
		DownloadURL:  downloadURL,
		DownloadSize: selection.Size,
		TargetDir:    targetDir,
		TempFile:     tempFile,
	}
}
