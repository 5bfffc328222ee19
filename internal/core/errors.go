package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidReference indicates a reference string that cannot be parsed or
// is missing a required part (e.g. a namespace for a registry operation).
var ErrInvalidReference = errors.New("invalid reference")

// ErrBundleInvalid indicates a file that is not a readable bundle archive or
// lacks a manifest.json entry.
var ErrBundleInvalid = errors.New("invalid bundle")

// NotFoundError reports a missing artifact, version, or installed tool.
type NotFoundError struct {
	Kind      string // "tool", "version", "artifact"
	Reference string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Reference)
}

// NoPublishedVersionError reports an artifact that exists in the registry but
// has no published version to resolve "latest" against.
type NoPublishedVersionError struct {
	Reference string
}

func (e *NoPublishedVersionError) Error() string {
	return fmt.Sprintf("no published version for %s", e.Reference)
}

// PlatformUnavailableError reports that a version has no bundle matching the
// requested platform.
type PlatformUnavailableError struct {
	Platform  string
	Reference string
}

func (e *PlatformUnavailableError) Error() string {
	return fmt.Sprintf("no bundle for platform %q in %s (try --platform universal)", e.Platform, e.Reference)
}

// AmbiguousReferenceError reports an unqualified reference that matches more
// than one installed tool.
type AmbiguousReferenceError struct {
	Requested  string
	Candidates []string
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("ambiguous reference %q, matches: %s (specify the full reference)",
		e.Requested, strings.Join(e.Candidates, ", "))
}

// IdentityMismatchError reports two platform bundles that do not describe the
// same logical package. It aborts a multi-artifact publish before any upload.
type IdentityMismatchError struct {
	First  string // bundle whose identity all others must match
	Other  string // first bundle that diverged
	Reason string
}

func (e *IdentityMismatchError) Error() string {
	msg := fmt.Sprintf("bundle identity mismatch between %s and %s", e.First, e.Other)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
