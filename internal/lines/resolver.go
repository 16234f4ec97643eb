package lines

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/ccflex/internal/pattern"
)

// DefaultMaxDepth bounds directory recursion below a location root.
const DefaultMaxDepth = 64

// Location selects files for extraction. Path may be a file or a directory.
// For directories, a file is selected when its name matches at least one
// Include expression (anchored at the start of the name) and no Exclude
// expression. Ignore holds globs for subdirectories, relative to Path, that
// are not descended into. Patterns do not apply to a Path naming a file.
type Location struct {
	Path    string
	Include []string
	Exclude []string
	Ignore  []string
}

// compiledLocation is the immutable form of a Location shared by the rule
// and every subdirectory rule synthesized from it.
type compiledLocation struct {
	include []*pattern.Regexp
	exclude []*pattern.Regexp
	ignore  []compiledGlob
}

type compiledGlob struct {
	pattern string
	glob    glob.Glob
}

// Resolver expands location rules into a set of files.
type Resolver struct {
	maxDepth int
	logger   *slog.Logger
}

// NewResolver creates a resolver. maxDepth <= 0 selects DefaultMaxDepth.
func NewResolver(maxDepth int, logger *slog.Logger) *Resolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Resolver{maxDepth: maxDepth, logger: orDiscard(logger)}
}

// Resolve returns the sorted, deduplicated absolute paths of every file the
// locations select. A location whose path does not exist is an error.
func (r *Resolver) Resolve(locations []Location) ([]string, error) {
	files := make(map[string]struct{})

	for _, loc := range locations {
		if err := r.resolveLocation(loc, files); err != nil {
			return nil, err
		}
	}

	out := make([]string, 0, len(files))
	for f := range files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

func (r *Resolver) resolveLocation(loc Location, files map[string]struct{}) error {
	info, err := os.Stat(loc.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrLocationNotFound, loc.Path)
		}
		return fmt.Errorf("failed to stat location %s: %w", loc.Path, err)
	}

	abs, err := filepath.Abs(loc.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve location %s: %w", loc.Path, err)
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			r.logger.Warn("skipping location that is not a regular file", "path", abs, "mode", info.Mode().String())
			return nil
		}
		files[abs] = struct{}{}
		return nil
	}

	compiled, err := compileLocation(loc)
	if err != nil {
		return fmt.Errorf("location %s: %w", loc.Path, err)
	}

	visited := make(map[string]bool)
	return r.walk(abs, "", 0, compiled, visited, files)
}

func compileLocation(loc Location) (*compiledLocation, error) {
	include, err := pattern.CompileAll(loc.Include, pattern.Prefix, 0)
	if err != nil {
		return nil, fmt.Errorf("include: %w", err)
	}
	exclude, err := pattern.CompileAll(loc.Exclude, pattern.Prefix, 0)
	if err != nil {
		return nil, fmt.Errorf("exclude: %w", err)
	}

	cl := &compiledLocation{include: include, exclude: exclude}
	for _, p := range loc.Ignore {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("ignore %q: %w", p, err)
		}
		cl.ignore = append(cl.ignore, compiledGlob{pattern: p, glob: g})
	}
	return cl, nil
}

// walk lists the immediate children of dir, selects matching files and
// recurses into subdirectories with the same compiled rule.
func (r *Resolver) walk(dir, rel string, depth int, loc *compiledLocation, visited map[string]bool, files map[string]struct{}) error {
	target, err := filepath.EvalSymlinks(dir)
	if err != nil {
		target = dir
	}
	if visited[target] {
		r.logger.Debug("directory already visited", "path", dir, "target", target)
		return nil
	}
	visited[target] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrLocationNotFound, dir)
		}
		return fmt.Errorf("failed to list directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)

		// Stat follows symlinks so linked files and directories count as such.
		info, err := os.Stat(full)
		if err != nil {
			r.logger.Debug("skipping unreadable entry", "path", full, "error", err)
			continue
		}

		if info.IsDir() {
			childRel := path.Join(rel, name)
			if g, ok := loc.ignoredBy(childRel); ok {
				r.logger.Debug("skipping ignored directory", "path", full, "glob", g)
				continue
			}
			if depth+1 > r.maxDepth {
				r.logger.Warn("maximum directory depth reached", "path", full, "max_depth", r.maxDepth)
				continue
			}
			if err := r.walk(full, childRel, depth+1, loc, visited, files); err != nil {
				return err
			}
			continue
		}
		// FIFOs, sockets and devices would block or fail on open.
		if !info.Mode().IsRegular() {
			r.logger.Debug("skipping non-regular file", "path", full, "mode", info.Mode().String())
			continue
		}

		selected, err := loc.selects(name)
		if err != nil {
			return fmt.Errorf("failed to match %s: %w", full, err)
		}
		if !selected {
			r.logger.Debug("skipping file", "path", full)
			continue
		}
		files[full] = struct{}{}
	}
	return nil
}

func (cl *compiledLocation) selects(name string) (bool, error) {
	included, err := pattern.MatchAny(cl.include, name)
	if err != nil || !included {
		return false, err
	}
	excluded, err := pattern.MatchAny(cl.exclude, name)
	if err != nil {
		return false, err
	}
	return !excluded, nil
}

// ignoredBy returns the ignore glob matching a directory relative to the
// location root, either directly or as "<dir>/**".
func (cl *compiledLocation) ignoredBy(rel string) (string, bool) {
	for _, g := range cl.ignore {
		if g.glob.Match(rel) || g.glob.Match(rel+"/**") {
			return g.pattern, true
		}
	}
	return "", false
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
