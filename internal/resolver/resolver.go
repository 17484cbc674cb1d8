// Package resolver expands command-line source arguments into the list of
// files to convert and works out the root used to mirror their directories.
package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidInput = errors.New("Invalid Input")
	ErrNoSources    = errors.New("Source files does not exist")
)

const globMeta = `*?[{\`

// Resolution is the immutable result of expanding the source arguments.
type Resolution struct {
	// Prefix is the character-wise common prefix of the absolute arguments.
	Prefix string
	// RootDir is Prefix cut back to a real directory boundary.
	RootDir string
	Paths   []string
}

// Resolve expands sources against exts. Existing directories are scanned
// recursively for the accepted extensions, skipping dotfiles and dot
// directories, existing files are kept as given,
// and anything else is expanded as a glob pattern.
func Resolve(sources []string, exts []string) (Resolution, error) {
	if len(sources) == 0 {
		return Resolution{}, ErrInvalidInput
	}

	abs := make([]string, 0, len(sources))
	for _, s := range sources {
		p, err := filepath.Abs(s)
		if err != nil {
			return Resolution{}, fmt.Errorf("resolve %q: %w", s, err)
		}
		abs = append(abs, p)
	}

	prefix := CommonPrefix(abs)
	res := Resolution{
		Prefix:  prefix,
		RootDir: RootDir(prefix, abs),
	}

	seen := make(map[string]struct{})
	add := func(paths ...string) {
		for _, p := range paths {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			res.Paths = append(res.Paths, p)
		}
	}

	for _, src := range abs {
		info, err := os.Stat(src)
		switch {
		case err == nil && info.IsDir():
			matches, err := doublestar.FilepathGlob(dirPattern(src, exts), doublestar.WithFilesOnly())
			if err != nil {
				return Resolution{}, fmt.Errorf("scan %s: %w", src, err)
			}
			sort.Strings(matches)
			for _, m := range matches {
				if !hidden(src, m) {
					add(m)
				}
			}
		case err == nil:
			add(src)
		default:
			matches, err := doublestar.FilepathGlob(src, doublestar.WithFilesOnly())
			if err != nil {
				log.WithField("pattern", src).Warnf("bad glob pattern: %v", err)
				continue
			}
			sort.Strings(matches)
			add(matches...)
		}
	}

	if len(res.Paths) == 0 {
		return res, ErrNoSources
	}
	return res, nil
}

// CommonPrefix returns the longest leading substring shared by all strings.
func CommonPrefix(strs []string) string {
	if len(strs) == 0 {
		return ""
	}
	prefix := strs[0]
	for _, s := range strs[1:] {
		i := 0
		for i < len(prefix) && i < len(s) && prefix[i] == s[i] {
			i++
		}
		prefix = prefix[:i]
	}
	return prefix
}

// RootDir turns a character-wise prefix into the deepest directory that is an
// ancestor of (or equal to) every source. Glob metacharacters end the usable
// part of the prefix.
func RootDir(prefix string, sources []string) string {
	meta := globMeta
	if filepath.Separator != '/' {
		meta = "*?[{"
	}
	if i := strings.IndexAny(prefix, meta); i >= 0 {
		prefix = prefix[:i]
	}
	if prefix == "" {
		return ""
	}

	sep := string(filepath.Separator)
	dirPrefix := strings.TrimSuffix(prefix, sep) + sep
	aligned := true
	for _, s := range sources {
		if s != prefix && !strings.HasPrefix(s, dirPrefix) {
			aligned = false
			break
		}
	}
	if aligned {
		if info, err := os.Stat(prefix); err == nil && info.IsDir() {
			return filepath.Clean(prefix)
		}
	}

	// Cut back to the last separator; a file prefix yields its parent.
	i := strings.LastIndexByte(prefix, filepath.Separator)
	if i < 0 {
		return ""
	}
	if i == 0 {
		return string(filepath.Separator)
	}
	dir := prefix[:i]
	if vol := filepath.VolumeName(dir); vol != "" && dir == vol {
		return dir + string(filepath.Separator)
	}
	return dir
}

// RelDir returns fileDir relative to rootDir, or "" when fileDir is not below
// rootDir so that the output lands flat under the destination.
func RelDir(rootDir, fileDir string) string {
	if rootDir == "" {
		return ""
	}
	rel, err := filepath.Rel(rootDir, fileDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return rel
}

// Accepted reports whether path carries one of exts.
func Accepted(path string, exts []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// hidden reports whether any path component of p below dir starts with a dot.
func hidden(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

func dirPattern(dir string, exts []string) string {
	base := escapeMeta(filepath.ToSlash(dir))
	switch len(exts) {
	case 0:
		return base + "/**/*"
	case 1:
		return base + "/**/*." + exts[0]
	default:
		return base + "/**/*.{" + strings.Join(exts, ",") + "}"
	}
}

func escapeMeta(p string) string {
	if filepath.Separator != '/' {
		return p
	}
	var b strings.Builder
	for _, r := range p {
		if strings.ContainsRune(globMeta, r) || r == ']' || r == '}' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
