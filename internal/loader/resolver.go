package loader

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolver maps the path of a use definition to a source file.
//
// Resolution strategy:
//  1. An absolute path is used as is.
//  2. A relative path is joined to the directory of the using file.
//  3. Otherwise each search path is tried in order.
//
// The configured extension is appended when the path lacks it.
type Resolver struct {
	extension   string
	searchPaths []string
}

func NewResolver(extension string, searchPaths []string) *Resolver {
	return &Resolver{
		extension:   extension,
		searchPaths: searchPaths,
	}
}

// Resolve returns the absolute path of the file named by usePath in a use
// definition of the file from.
func (r *Resolver) Resolve(from, usePath string) (string, error) {
	name := usePath
	if r.extension != "" && !strings.HasSuffix(name, r.extension) {
		name += r.extension
	}

	if filepath.IsAbs(name) {
		if isSourceFile(name) {
			return name, nil
		}
		return "", &UnitNotFoundError{UsePath: usePath, From: from}
	}

	candidates := []string{filepath.Join(filepath.Dir(from), name)}
	for _, sp := range r.searchPaths {
		candidates = append(candidates, filepath.Join(sp, name))
	}
	for _, c := range candidates {
		if !isSourceFile(c) {
			continue
		}
		abs, err := filepath.Abs(c)
		if err != nil {
			return "", err
		}
		return abs, nil
	}

	return "", &UnitNotFoundError{UsePath: usePath, From: from}
}

// UnitNotFoundError is returned when a use path cannot be resolved.
type UnitNotFoundError struct {
	UsePath string
	From    string
}

func (e *UnitNotFoundError) Error() string {
	return "use \"" + e.UsePath + "\" in " + e.From + ": file not found"
}

func isSourceFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
