// package resource contains the building blocks shared by the engine's asset managers: canonical path
// resolution, a weakly referencing resource cache, and the coordinator that deduplicates concurrent loads.
package resource

import (
	"path/filepath"
	"strings"
)

// ResolvePath converts a resource identifier into the canonical absolute path used as a cache key.
// Absolute identifiers are cleaned as-is. Relative identifiers are joined to baseDir, cleaned, and made
// absolute against the working directory. Redundant separators and "." / ".." segments are collapsed.
// If the working directory cannot be determined, the verbatim concatenation of baseDir and identifier
// is returned instead so the caller still gets a usable (if non-canonical) key.
//
// ResolvePath is idempotent: ResolvePath(ResolvePath(p, base), "") == ResolvePath(p, base).
//
// Parameters:
//   - identifier: the resource identifier, usually a file path
//   - baseDir: the directory relative identifiers are resolved against (may be empty)
//
// Returns:
//   - string: the canonical resource key
func ResolvePath(identifier, baseDir string) string {
	if filepath.IsAbs(identifier) {
		return filepath.Clean(identifier)
	}

	joined := filepath.Join(baseDir, identifier)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return concatPath(baseDir, identifier)
	}
	return abs
}

// concatPath joins dir and name with a single separator and no normalization.
func concatPath(dir, name string) string {
	if dir == "" {
		return name
	}
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir + name
	}
	return dir + string(filepath.Separator) + name
}

// Ext returns the lower-cased format extension of a resource path, looking through a trailing
// compression suffix so "models/chair.glb.lz4" reports ".glb".
//
// Parameters:
//   - path: the resource path
//
// Returns:
//   - string: the lower-cased extension including the leading dot, or "" when none
func Ext(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == CompressedExt {
		return strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}
	return ext
}
