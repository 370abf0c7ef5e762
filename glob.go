package crucible

import (
	"path/filepath"
	"strings"
)

// DefaultIgnoreGlobs is the canonical ignore-glob set applied at the
// watcher level: editor swap files, version-control
// metadata, and build-output directories never reach the coalescer.
var DefaultIgnoreGlobs = []string{
	".goutputstream*",
	"*/.DS_Store",
	"*.sw?",
	"*.sw?x",
	"#*#",
	".#*",
	".*.kate-swp",
	"*/.hg/**",
	"*/.git/**",
	"*/.svn/**",
	"*.db",
	"*.db-*",
	"*/*.db-journal/**",
	"*/target/**",
}

// ignoreMatch reports whether relPath (slash-separated, relative to the
// watch root) matches any pattern in patterns. Two pattern shapes are
// recognised: a trailing "/**" anchors the pattern to a path segment
// (matching it anywhere below the root, not just at the top); anything
// else is matched against the path's basename with filepath.Match, which
// covers single-character and prefix/suffix wildcards.
func ignoreMatch(relPath string, patterns []string) bool {
	relPath = filepath.ToSlash(relPath)
	base := filepath.Base(relPath)
	segments := strings.Split(relPath, "/")

	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/**") {
			dirPattern := strings.TrimSuffix(pattern, "/**")
			dirPattern = strings.TrimPrefix(dirPattern, "*/")
			for i := 0; i < len(segments)-1; i++ {
				if ok, _ := filepath.Match(dirPattern, segments[i]); ok {
					return true
				}
			}
			continue
		}

		basePattern := strings.TrimPrefix(pattern, "*/")
		if ok, _ := filepath.Match(basePattern, base); ok {
			return true
		}
	}
	return false
}

// NewIgnoreFilter adapts an ignore-glob set into a PopulateFilter: a path is
// accepted for ShadowCopy population exactly when it does not match any
// pattern.
func NewIgnoreFilter(patterns []string) PopulateFilter {
	return func(relPath string) bool {
		return !ignoreMatch(relPath, patterns)
	}
}
