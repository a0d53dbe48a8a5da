package java

import "strings"

// NormalizeCoordinate converts filename-safe coordinates to Maven format.
// Since colons are not allowed in filenames (especially on Windows and in some
// build tools), underscores can be used as a substitute. This function converts
// "groupId_artifactId" to "groupId:artifactId" when no colon is present.
//
// Examples:
//   - "com.google.guava:guava" → "com.google.guava:guava" (unchanged)
//   - "com.google.guava_guava" → "com.google.guava:guava" (converted)
func NormalizeCoordinate(coord string) string {
	if strings.Contains(coord, ":") {
		return coord
	}
	// GroupIds follow reverse domain notation (no underscores typically)
	// while artifactIds may contain hyphens or underscores
	if idx := strings.LastIndex(coord, "_"); idx != -1 {
		return coord[:idx] + ":" + coord[idx+1:]
	}
	return coord
}
