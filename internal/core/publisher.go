package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// versionManifestName is the artifact index uploaded as the main file of a
// multi-artifact publish.
const versionManifestName = "version.json"

// Packer is the black-box pack collaborator. It validates a tool directory
// and archives it into a bundle file, applying the platform's manifest
// overrides when a platform key is given ("" or "universal" packs the
// platform-independent bundle).
type Packer interface {
	Pack(dir, destDir, platform string) (string, error)
}

// VersionManifest indexes every artifact of a multi-artifact version. It is
// serialized once as version.json and is the durable record of the publish.
type VersionManifest struct {
	Name      string                   `json:"name"`
	Version   string                   `json:"version"`
	Artifacts map[string]ArtifactEntry `json:"artifacts"`
}

// ArtifactEntry describes one published bundle.
type ArtifactEntry struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"` // "sha256:<hex>"
}

// Publisher packs, verifies, uploads, and finalizes versions. Unlike install
// and uninstall, a publish is a single logical unit: any pack or upload
// failure aborts the attempt. The one pre-network gate is the identity
// check, which guarantees a rejected multi-artifact publish performs zero
// registry mutations.
type Publisher struct {
	cfg      *Config
	registry Registry
	packer   Packer
	progress ProgressMaker
}

// NewPublisher creates a Publisher. A nil progress maker disables progress
// reporting.
func NewPublisher(cfg *Config, registry Registry, packer Packer, progress ProgressMaker) *Publisher {
	if progress == nil {
		progress = NopProgressMaker{}
	}
	return &Publisher{cfg: cfg, registry: registry, packer: packer, progress: progress}
}

// PublishOptions configures a publish.
type PublishOptions struct {
	Namespace   string
	Platforms   []string          // Platform keys to pack (multi-artifact)
	Universal   bool              // Also pack the universal bundle
	Artifacts   map[string]string // Pre-built bundle per platform key; takes precedence entirely over packing
	Description string
	DryRun      bool // Perform every step up to (not including) network upload
}

// PublishResult reports a completed (or dry-run) publish.
type PublishResult struct {
	Namespace   string
	Name        string
	Version     string
	Files       []string // Filenames uploaded, main file first
	BundleCount int
	UploadID    string
	DryRun      bool
}

// publishFile is one pending upload.
type publishFile struct {
	name string
	data []byte
	sha  string
}

// PublishSingle publishes one bundle: pack (when given a directory), create
// the artifact record if absent, upload the bundle and its icons in
// parallel, and finalize naming the bundle as the main file.
func (p *Publisher) PublishSingle(ctx context.Context, source string, opts PublishOptions) (*PublishResult, error) {
	if opts.Namespace == "" {
		return nil, fmt.Errorf("%w: publish requires a namespace", ErrInvalidReference)
	}

	bundlePath, err := p.resolveBundle(source, "")
	if err != nil {
		return nil, err
	}

	info, err := OpenBundleFile(bundlePath)
	if err != nil {
		return nil, err
	}
	manifest := info.Manifest

	sha, _, err := FileSHA256(bundlePath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}

	filename := DownloadFilename(manifest.Name, manifest.Version, "", bundleFileExt(bundlePath))
	files := []publishFile{{name: filename, data: data, sha: sha}}

	icons, err := ExtractIcons(bundlePath, manifest.IconPaths())
	if err != nil {
		return nil, err
	}
	files = append(files, iconFiles(icons)...)

	result := &PublishResult{
		Namespace:   opts.Namespace,
		Name:        manifest.Name,
		Version:     manifest.Version,
		Files:       fileNames(files),
		BundleCount: 1,
	}

	if opts.DryRun {
		result.DryRun = true
		result.UploadID = "dry-run-" + uuid.NewString()
		return result, nil
	}

	uploadID, err := p.upload(ctx, manifest, files, opts, filename, info.ManifestJSON, iconNames(icons))
	if err != nil {
		return nil, err
	}
	result.UploadID = uploadID
	return result, nil
}

// PublishMulti publishes one version spanning several platform bundles.
// Pre-built bundles must all carry the same identity hash; the check runs
// before any network activity and a mismatch aborts the whole publish.
// Freshly packed bundles run concurrently. The version.json artifact index
// is uploaded first and finalized as the main file.
func (p *Publisher) PublishMulti(ctx context.Context, source string, opts PublishOptions) (*PublishResult, error) {
	if opts.Namespace == "" {
		return nil, fmt.Errorf("%w: publish requires a namespace", ErrInvalidReference)
	}

	bundles, err := p.collectBundles(source, opts)
	if err != nil {
		return nil, err
	}
	if len(bundles) == 0 {
		return nil, fmt.Errorf("no platform bundles to publish")
	}

	platforms := sortedPlatforms(bundles)
	first, err := OpenBundleFile(bundles[platforms[0]])
	if err != nil {
		return nil, err
	}
	if err := p.verifyIdentity(bundles, platforms, first); err != nil {
		return nil, err
	}

	manifest := first.Manifest
	versionManifest := VersionManifest{
		Name:      manifest.Name,
		Version:   manifest.Version,
		Artifacts: map[string]ArtifactEntry{},
	}

	var files []publishFile
	for _, platform := range platforms {
		path := bundles[platform]
		sha, size, err := FileSHA256(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading bundle: %w", err)
		}
		filename := DownloadFilename(manifest.Name, manifest.Version, platform, bundleFileExt(path))
		versionManifest.Artifacts[platform] = ArtifactEntry{
			Filename: filename,
			Size:     size,
			Checksum: "sha256:" + sha,
		}
		files = append(files, publishFile{name: filename, data: data, sha: sha})
	}

	indexData, err := json.MarshalIndent(versionManifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", versionManifestName, err)
	}
	indexSHA := sha256Hex(indexData)

	// version.json leads the upload list; it is the main file.
	files = append([]publishFile{{name: versionManifestName, data: indexData, sha: indexSHA}}, files...)

	icons, err := ExtractIcons(bundles[platforms[0]], manifest.IconPaths())
	if err != nil {
		return nil, err
	}
	files = append(files, iconFiles(icons)...)

	result := &PublishResult{
		Namespace:   opts.Namespace,
		Name:        manifest.Name,
		Version:     manifest.Version,
		Files:       fileNames(files),
		BundleCount: len(platforms),
	}

	if opts.DryRun {
		result.DryRun = true
		result.UploadID = "dry-run-" + uuid.NewString()
		return result, nil
	}

	uploadID, err := p.upload(ctx, manifest, files, opts, versionManifestName, first.ManifestJSON, iconNames(icons))
	if err != nil {
		return nil, err
	}
	result.UploadID = uploadID
	return result, nil
}

// collectBundles gathers the bundle file per platform: caller-supplied
// pre-built artifacts when given (never mixed with packing), otherwise a
// concurrent pack per requested platform plus, optionally, universal.
// Platforms default to the manifest's platform overrides.
func (p *Publisher) collectBundles(source string, opts PublishOptions) (map[string]string, error) {
	if len(opts.Artifacts) > 0 {
		bundles := map[string]string{}
		for platform, path := range opts.Artifacts {
			key := platform
			if key != universalPlatform {
				if !IsValidPlatformKey(key) {
					return nil, fmt.Errorf("invalid platform key %q", platform)
				}
				key = NormalizePlatform(key)
			}
			if !fileExists(path) {
				return nil, &NotFoundError{Kind: "bundle", Reference: path}
			}
			bundles[key] = path
		}
		return bundles, nil
	}

	platforms := opts.Platforms
	if len(platforms) == 0 {
		manifest, err := ReadManifestDir(source)
		if err != nil {
			return nil, err
		}
		platforms = manifest.PlatformOverrideKeys()
	}
	for i, platform := range platforms {
		if !IsValidPlatformKey(platform) {
			return nil, fmt.Errorf("invalid platform key %q", platform)
		}
		platforms[i] = NormalizePlatform(platform)
	}
	if opts.Universal {
		platforms = append(platforms, universalPlatform)
	}

	if err := os.MkdirAll(p.cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	destDir, err := os.MkdirTemp(p.cfg.TempDir, "publish-*")
	if err != nil {
		return nil, fmt.Errorf("creating pack dir: %w", err)
	}

	bundles := make(map[string]string, len(platforms))
	errs := make([]error, len(platforms))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, installWorkers)
	for i, platform := range platforms {
		wg.Add(1)
		go func(i int, platform string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			path, err := p.packer.Pack(source, destDir, platform)
			if err != nil {
				errs[i] = fmt.Errorf("packing %s: %w", platform, err)
				return
			}
			mu.Lock()
			bundles[platform] = path
			mu.Unlock()
		}(i, platform)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return bundles, nil
}

// verifyIdentity requires every bundle to describe the same logical package
// as the first one. The error names both offending files.
func (p *Publisher) verifyIdentity(bundles map[string]string, platforms []string, first *BundleFileInfo) error {
	firstHash, err := IdentityHash(first.Manifest)
	if err != nil {
		return err
	}

	for _, platform := range platforms[1:] {
		path := bundles[platform]
		manifest, err := ReadManifestBundle(path)
		if err != nil {
			return err
		}
		hash, err := IdentityHash(manifest)
		if err != nil {
			return err
		}
		if hash != firstHash {
			reason := ""
			if manifest.Name != first.Manifest.Name || manifest.Version != first.Manifest.Version {
				reason = fmt.Sprintf("%s vs %s", first.Manifest.DirName(), manifest.DirName())
			}
			return &IdentityMismatchError{First: first.Path, Other: path, Reason: reason}
		}
	}
	return nil
}

// upload creates the artifact record if absent, initializes the upload
// batch, pushes every file to its presigned URL in parallel, and finalizes
// the version. Any upload failure aborts the publish attempt.
func (p *Publisher) upload(ctx context.Context, manifest *Manifest, files []publishFile, opts PublishOptions, mainFile string, manifestJSON []byte, icons []string) (string, error) {
	exists, err := p.registry.ArtifactExists(ctx, opts.Namespace, manifest.Name)
	if err != nil {
		return "", err
	}
	if !exists {
		description := opts.Description
		if description == "" {
			description = manifest.Description
		}
		if err := p.registry.CreateArtifact(ctx, opts.Namespace, manifest.Name, description, nil); err != nil {
			return "", err
		}
	}

	declared := make([]UploadFile, len(files))
	for i, f := range files {
		declared[i] = UploadFile{Name: f.name, Size: int64(len(f.data)), SHA256: f.sha}
	}
	init, err := p.registry.InitUpload(ctx, opts.Namespace, manifest.Name, manifest.Version, declared)
	if err != nil {
		return "", err
	}

	targets := map[string]string{}
	for _, target := range init.Uploads {
		targets[target.Name] = target.UploadURL
	}

	errs := make([]error, len(files))
	var wg sync.WaitGroup
	sem := make(chan struct{}, installWorkers)
	for i, f := range files {
		url, ok := targets[f.name]
		if !ok {
			return "", fmt.Errorf("registry returned no upload target for %s", f.name)
		}
		wg.Add(1)
		go func(i int, f publishFile, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			progress := p.progress.NewProgress(f.name)
			progress.SetTotal(int64(len(f.data)))
			errs[i] = p.registry.UploadToPresignedURL(ctx, url, f.data, progress)
			progress.Finish()
		}(i, f, url)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return "", fmt.Errorf("uploading %s: %w", files[i].name, err)
		}
	}

	if _, err := p.registry.PublishVersion(ctx, &PublishRequest{
		Namespace:    opts.Namespace,
		Name:         manifest.Name,
		UploadID:     init.UploadID,
		Version:      manifest.Version,
		MainFile:     mainFile,
		ManifestJSON: manifestJSON,
		Description:  opts.Description,
		Icons:        icons,
	}); err != nil {
		return "", err
	}
	return init.UploadID, nil
}

// resolveBundle returns the bundle path for a source that is either a
// directory to pack or an existing bundle file.
func (p *Publisher) resolveBundle(source, platform string) (string, error) {
	if dirExists(source) {
		if err := os.MkdirAll(p.cfg.TempDir, 0o755); err != nil {
			return "", fmt.Errorf("creating temp dir: %w", err)
		}
		destDir, err := os.MkdirTemp(p.cfg.TempDir, "publish-*")
		if err != nil {
			return "", fmt.Errorf("creating pack dir: %w", err)
		}
		return p.packer.Pack(source, destDir, platform)
	}
	if !fileExists(source) {
		return "", &NotFoundError{Kind: "bundle", Reference: source}
	}
	return source, nil
}

func iconFiles(icons map[string][]byte) []publishFile {
	names := make([]string, 0, len(icons))
	for name := range icons {
		names = append(names, name)
	}
	sort.Strings(names)

	files := make([]publishFile, 0, len(names))
	for _, name := range names {
		files = append(files, publishFile{name: name, data: icons[name], sha: sha256Hex(icons[name])})
	}
	return files
}

func iconNames(icons map[string][]byte) []string {
	names := make([]string, 0, len(icons))
	for name := range icons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func fileNames(files []publishFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names
}

func sortedPlatforms(bundles map[string]string) []string {
	platforms := make([]string, 0, len(bundles))
	for platform := range bundles {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)
	return platforms
}
