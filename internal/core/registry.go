package core

import "context"

// ArtifactInfo is the registry's record of a published package.
type ArtifactInfo struct {
	Namespace     string
	Name          string
	Description   string
	LatestVersion string // Empty when nothing has been published yet
}

// VersionInfo is the registry's record of one published version.
type VersionInfo struct {
	Version          string
	Files            map[string]int64 // filename → size
	MainDownloadURL  string
	MainDownloadSize int64
}

// UploadFile declares one file of an upload batch.
type UploadFile struct {
	Name   string
	Size   int64
	SHA256 string
}

// UploadTarget is a presigned destination returned by InitUpload.
type UploadTarget struct {
	Name      string
	UploadURL string
	CDNURL    string
}

// InitUploadResult identifies an initialized upload batch.
type InitUploadResult struct {
	UploadID string
	Uploads  []UploadTarget
}

// PublishRequest finalizes an upload batch into a published version.
type PublishRequest struct {
	Namespace    string
	Name         string
	UploadID     string
	Version      string
	MainFile     string // The bundle, or version.json for multi-artifact
	ManifestJSON []byte
	Description  string
	Icons        []string
}

// Registry is the client surface the install and publish pipelines consume.
// Implementations must be safe for concurrent use; the executor shares one
// client across its workers.
type Registry interface {
	// GetArtifact fetches the package record, including its latest version.
	GetArtifact(ctx context.Context, namespace, name string) (*ArtifactInfo, error)

	// GetVersion fetches one version's file listing and main download.
	GetVersion(ctx context.Context, namespace, name, version string) (*VersionInfo, error)

	// FileDownloadURL builds the download URL for one file of a version.
	// No I/O is performed.
	FileDownloadURL(namespace, name, version, filename string) string

	// ArtifactExists reports whether the package record exists.
	ArtifactExists(ctx context.Context, namespace, name string) (bool, error)

	// CreateArtifact creates the package record.
	CreateArtifact(ctx context.Context, namespace, name, description string, categories []string) error

	// InitUpload declares an upload batch and returns presigned targets.
	InitUpload(ctx context.Context, namespace, name, version string, files []UploadFile) (*InitUploadResult, error)

	// UploadToPresignedURL uploads one file's bytes.
	UploadToPresignedURL(ctx context.Context, url string, data []byte, progress Progress) error

	// PublishVersion finalizes an upload batch and returns the published
	// version string.
	PublishVersion(ctx context.Context, req *PublishRequest) (string, error)

	// DownloadWithProgress streams a URL to a file, reporting progress by
	// bytes, and returns the byte count written.
	DownloadWithProgress(ctx context.Context, url, destPath string, progress Progress) (int64, error)
}
