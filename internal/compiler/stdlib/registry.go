// Package stdlib bundles the built-in package records and the platform class
// descriptions every resolution session starts from. The data is embedded so
// a session works without a classpath.
package stdlib

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/conduit-lang/interop/internal/compiler/metadata"
)

//go:embed data/*.yml
var data embed.FS

const dataDir = "data"

// platformSuffix marks platform class descriptions among the bundled files.
const platformSuffix = ".platform.yml"

// File is one bundled file.
type File struct {
	Name    string
	Content []byte
}

// IsPlatform reports whether the file describes platform classes.
func (f File) IsPlatform() bool {
	return strings.HasSuffix(f.Name, platformSuffix)
}

// Files returns every bundled file sorted by name.
func Files() ([]File, error) {
	entries, err := fs.ReadDir(data, dataDir)
	if err != nil {
		return nil, fmt.Errorf("reading bundled data: %w", err)
	}
	out := make([]File, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		content, err := data.ReadFile(path.Join(dataDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		out = append(out, File{Name: e.Name(), Content: content})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Records decodes the bundled built-in package records.
func Records() ([]*metadata.PackageRecord, error) {
	files, err := Files()
	if err != nil {
		return nil, err
	}
	var out []*metadata.PackageRecord
	for _, f := range files {
		if f.IsPlatform() {
			continue
		}
		record, err := metadata.DecodeFile(f.Name, f.Content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		out = append(out, record)
	}
	return out, nil
}

// PlatformSources returns the bundled platform class descriptions, undecoded.
func PlatformSources() ([]File, error) {
	files, err := Files()
	if err != nil {
		return nil, err
	}
	var out []File
	for _, f := range files {
		if f.IsPlatform() {
			out = append(out, f)
		}
	}
	return out, nil
}

// Packages lists the packages of the bundled built-in records, sorted.
func Packages() ([]string, error) {
	records, err := Records()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Package)
	}
	sort.Strings(out)
	return out, nil
}
