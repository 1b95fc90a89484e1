// Package cache implements the per-module `.blade` cache of spec.md
// §4.7.1: a source-path-keyed, version-gated MIR artifact store that lets
// the pipeline driver (package pipeline) short-circuit lowering for
// unchanged files.
//
// Grounded on inspector/graph.Hash for the highwayhash key convention
// (a fixed 32-byte key, teacher idiom), on analyzer/package.go for
// afs.Service-based filesystem access, and on gopkg.in/yaml.v3 — the
// teacher's only precedent for structured serialization
// (analyzer/analyzer_test.go) — for the cache payload encoding.
package cache

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/highwayhash"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/blade-lang/bladec/mir"
)

// hashKey is the fixed HighwayHash key used to derive cache file names
// from a module's source path, the same convention inspector/graph.Hash
// uses for its content hashes.
var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Metadata describes one cached module, per spec.md §4.7.1.
type Metadata struct {
	ModuleName       string   `yaml:"module_name"`
	SourcePath       string   `yaml:"source_path"`
	SourceTimestamp  int64    `yaml:"source_timestamp"`
	CompileTimestamp int64    `yaml:"compile_timestamp"`
	Dependencies     []string `yaml:"dependencies"`
	CompilerVersion  string   `yaml:"compiler_version"`
}

// Valid reports whether m satisfies the cache-hit rule of spec.md
// §4.7.1: compiler_version matches and source_timestamp has not
// advanced past compile_timestamp.
func (m Metadata) Valid(compilerVersion string, sourceTimestamp int64) bool {
	return versionsMatch(m.CompilerVersion, compilerVersion) && sourceTimestamp <= m.CompileTimestamp
}

// versionsMatch compares two compiler_version strings using semver
// ordering rather than plain string equality, so "1.0.0" and "v1.0.0"
// (or a build-metadata suffix) are recognized as the same version. Falls
// back to string equality when either side isn't a valid semver string.
func versionsMatch(a, b string) bool {
	va, vb := canonicalize(a), canonicalize(b)
	if semver.IsValid(va) && semver.IsValid(vb) {
		return semver.Compare(va, vb) == 0
	}
	return a == b
}

func canonicalize(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

// entry is the on-disk payload: metadata plus the serialized MIR module.
type entry struct {
	Metadata Metadata   `yaml:"metadata"`
	Module   *mir.Module `yaml:"module"`
}

// Store is a directory of `.blade` cache files addressed by a hash of
// the module's source path.
type Store struct {
	fs  afs.Service
	dir string
}

// NewStore returns a Store rooted at dir, creating nothing until the
// first Put.
func NewStore(dir string) *Store {
	return &Store{fs: afs.New(), dir: dir}
}

// keyFor derives the `<path-safe-name>.cache` file name for sourcePath,
// per spec.md §4.7.1, using the same HighwayHash convention as
// inspector/graph.Hash.
func keyFor(sourcePath string) (string, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return "", err
	}
	if _, err := h.Write([]byte(sourcePath)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x.cache", h.Sum64()), nil
}

func (s *Store) pathFor(sourcePath string) (string, error) {
	key, err := keyFor(sourcePath)
	if err != nil {
		return "", err
	}
	return url.Join(s.dir, key), nil
}

// Get loads the cached module for sourcePath if present and valid for
// (compilerVersion, sourceTimestamp); ok is false on a miss (absent,
// stale, or version-mismatched entry) and is never an error condition
// by itself.
func (s *Store) Get(ctx context.Context, sourcePath string, compilerVersion string, sourceTimestamp int64) (*mir.Module, Metadata, bool, error) {
	p, err := s.pathFor(sourcePath)
	if err != nil {
		return nil, Metadata{}, false, err
	}
	ok, err := s.fs.Exists(ctx, p)
	if err != nil || !ok {
		return nil, Metadata{}, false, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, p)
	if err != nil {
		return nil, Metadata{}, false, nil
	}
	var e entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, Metadata{}, false, nil
	}
	if !e.Metadata.Valid(compilerVersion, sourceTimestamp) {
		return nil, e.Metadata, false, nil
	}
	return e.Module, e.Metadata, true, nil
}

// Put persists module and meta, overwriting any existing entry for the
// same source path. The write is atomic: content lands in a temp file
// first, then is moved into place, so a concurrent Get never observes a
// partially written cache file (spec.md §5's write-then-rename rule).
func (s *Store) Put(ctx context.Context, sourcePath string, module *mir.Module, meta Metadata) error {
	p, err := s.pathFor(sourcePath)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(entry{Metadata: meta, Module: module})
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := s.fs.Upload(ctx, tmp, 0644, bytes.NewReader(data)); err != nil {
		return err
	}
	return s.fs.Move(ctx, tmp, p)
}

// ClearCache removes every `.cache` artifact under the store's
// directory, per spec.md §4.7.1's clear_cache operation.
func (s *Store) ClearCache(ctx context.Context) error {
	objects, err := s.fs.List(ctx, s.dir)
	if err != nil {
		return nil
	}
	for _, obj := range objects {
		if obj.IsDir() || !strings.HasSuffix(obj.Name(), ".cache") {
			continue
		}
		if err := s.fs.Delete(ctx, url.Join(s.dir, obj.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Stats is the count/size report cache_stats produces.
type Stats struct {
	Count int
	Bytes int64
}

// CacheStats reports the number and total size of cache artifacts under
// the store's directory, per spec.md §4.7.1's cache_stats operation.
func (s *Store) CacheStats(ctx context.Context) (Stats, error) {
	objects, err := s.fs.List(ctx, s.dir)
	if err != nil {
		return Stats{}, nil
	}
	var st Stats
	for _, obj := range objects {
		if obj.IsDir() || !strings.HasSuffix(obj.Name(), ".cache") {
			continue
		}
		st.Count++
		st.Bytes += obj.Size()
	}
	return st, nil
}
