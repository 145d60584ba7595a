// Package goldencorpus discovers paired fixture files under an embedded
// testdata directory: a compressed stream (*.deflate or *.gz) alongside the
// plaintext it must decompress to (*.want, same base name). It exists only
// to be imported from _test.go files elsewhere in the module; nothing in
// THE CORE decoding path depends on it.
package goldencorpus

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

//go:embed testdata
var testdataFS embed.FS

// Kind distinguishes a fixture's container format.
type Kind int

const (
	Deflate Kind = iota
	Gzip
)

func (k Kind) String() string {
	switch k {
	case Deflate:
		return "deflate"
	case Gzip:
		return "gzip"
	default:
		return "unknown"
	}
}

// Fixture is one compressed/plaintext pair from testdata.
type Fixture struct {
	Name       string
	Kind       Kind
	Compressed []byte
	Want       []byte
}

var patterns = []struct {
	glob string
	kind Kind
}{
	{"testdata/*.deflate", Deflate},
	{"testdata/*.gz", Gzip},
}

// Load globs testdata for every fixture pair and reads them into memory.
// It fails closed: a compressed file with no matching .want file is an
// error, not a silently skipped fixture.
func Load() ([]Fixture, error) {
	var fixtures []Fixture
	for _, p := range patterns {
		matches, err := doublestar.Glob(testdataFS, p.glob)
		if err != nil {
			return nil, fmt.Errorf("goldencorpus: glob %s: %w", p.glob, err)
		}
		for _, m := range matches {
			compressed, err := fs.ReadFile(testdataFS, m)
			if err != nil {
				return nil, fmt.Errorf("goldencorpus: read %s: %w", m, err)
			}

			ext := path.Ext(m)
			base := strings.TrimSuffix(m, ext)
			wantPath := base + ".want"
			want, err := fs.ReadFile(testdataFS, wantPath)
			if err != nil {
				return nil, fmt.Errorf("goldencorpus: %s has no matching .want file: %w", m, err)
			}

			fixtures = append(fixtures, Fixture{
				Name:       strings.TrimSuffix(path.Base(m), ext),
				Kind:       p.kind,
				Compressed: compressed,
				Want:       want,
			})
		}
	}

	sort.Slice(fixtures, func(i, j int) bool {
		if fixtures[i].Kind != fixtures[j].Kind {
			return fixtures[i].Kind < fixtures[j].Kind
		}
		return fixtures[i].Name < fixtures[j].Name
	})
	return fixtures, nil
}

// MustLoad is Load for callers, such as TestMain or package-level var
// initializers in tests, that would just panic on an error anyway.
func MustLoad() []Fixture {
	fixtures, err := Load()
	if err != nil {
		panic(err)
	}
	return fixtures
}
