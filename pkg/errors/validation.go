package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const maxCoordinateLength = 512

// mavenIDRegex matches Maven groupId and artifactId segments.
var mavenIDRegex = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// mavenVersionRegex matches concrete Maven versions. Ranges ("[1.0,2.0)") are
// rejected since roots must name one version.
var mavenVersionRegex = regexp.MustCompile(`^[A-Za-z0-9_.\-+]+$`)

// ValidateCoordinate validates the parts of a group:artifact:version
// coordinate. The version may be empty; callers that require a version check
// it themselves.
//
// The validation rules are intentionally conservative:
//   - No empty group or artifact
//   - No control characters
//   - No path traversal sequences (the parts end up in repository URLs)
//   - Maximum combined length of 512 characters
func ValidateCoordinate(group, artifact, version string) error {
	if group == "" || artifact == "" {
		return New(ErrCodeInvalidCoordinate, "group and artifact cannot be empty")
	}
	if len(group)+len(artifact)+len(version) > maxCoordinateLength {
		return New(ErrCodeInvalidCoordinate, "coordinate too long (max %d characters)", maxCoordinateLength)
	}

	for _, part := range []string{group, artifact, version} {
		for _, r := range part {
			if unicode.IsControl(r) {
				return New(ErrCodeInvalidCoordinate, "coordinate contains invalid control characters")
			}
		}
		if strings.Contains(part, "..") {
			return New(ErrCodeInvalidCoordinate, "coordinate contains invalid characters: %q", "..")
		}
	}

	if !mavenIDRegex.MatchString(group) {
		return New(ErrCodeInvalidCoordinate, "invalid group id: %q", group)
	}
	if !mavenIDRegex.MatchString(artifact) {
		return New(ErrCodeInvalidCoordinate, "invalid artifact id: %q", artifact)
	}
	if version != "" && !mavenVersionRegex.MatchString(version) {
		return New(ErrCodeInvalidCoordinate, "invalid version: %q", version)
	}
	return nil
}

// ValidateManifestFilename validates a manifest filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateManifestFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidManifest, "manifest filename cannot be empty")
	}

	// Must be a simple filename, not a path
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidManifest, "manifest filename cannot contain path separators")
	}

	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidManifest, "manifest filename cannot be a hidden file")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
