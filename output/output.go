/*
Package output resolves the file names a record's results are written to:
structure plots, dot plots and optional per-record fold output files. It
sanitizes sequence identifiers, avoids clobbering the input file and keeps
repeated identifiers from overwriting each other.
*/
package output

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CollisionError reports an output path that would overwrite the input
// file. It is always fatal.
type CollisionError struct {
	Path string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("output file %q would overwrite the input file", e.Path)
}

// Router turns record identifiers into output file paths.
type Router struct {
	delim     string
	inputPath string
	used      map[string]int
}

// NewRouter returns a router using delim as the filename separator.
// inputPath, when non-empty, is the path results must never be written to.
func NewRouter(delim, inputPath string) *Router {
	return &Router{
		delim:     delim,
		inputPath: inputPath,
		used:      make(map[string]int),
	}
}

// Sanitize replaces filesystem-unsafe characters in a name with the
// router's delimiter, collapsing runs into one.
func (r *Router) Sanitize(name string) string {
	var b strings.Builder
	lastDelim := false
	for _, c := range name {
		safe := c == '.' || c == '-' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if safe {
			b.WriteRune(c)
			lastDelim = false
			continue
		}
		if !lastDelim {
			b.WriteString(r.delim)
			lastDelim = true
		}
	}
	return b.String()
}

// Resolve builds the path for an auxiliary file (plots): the sanitized id,
// the delimiter and the suffix, e.g. "seq1_ss.ps". defaultName is used when
// the record has no id.
func (r *Router) Resolve(suffix, defaultName, id string) (string, error) {
	path := defaultName
	if id != "" {
		path = r.Sanitize(id) + r.delim + suffix
	}
	return path, r.checkCollision(path)
}

// ResolveUnique builds the path of a primary result file: the sanitized id
// plus an extension. The same identifier appearing again gets a numeric
// suffix before the extension, so a second "seq" yields "seq_1.fold" and a
// third "seq_2.fold".
func (r *Router) ResolveUnique(ext, defaultName, id string) (string, error) {
	if id == "" {
		// records without an id share the default file
		return defaultName, r.checkCollision(defaultName)
	}
	path := r.Sanitize(id) + ext
	if err := r.checkCollision(path); err != nil {
		return "", err
	}
	n := r.used[path]
	r.used[path] = n + 1
	if n == 0 {
		return path, nil
	}
	fext := filepath.Ext(path)
	path = fmt.Sprintf("%s%s%d%s", strings.TrimSuffix(path, fext), r.delim, n, fext)
	return path, r.checkCollision(path)
}

func (r *Router) checkCollision(path string) error {
	if r.inputPath != "" && path == r.inputPath {
		return &CollisionError{Path: path}
	}
	return nil
}
