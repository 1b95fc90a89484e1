package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDriverDefaults(t *testing.T) {
	d := NewDriver()
	assert.NotNil(t, d.Interner)
	assert.NotNil(t, d.Types)
	assert.NotNil(t, d.Symbols)
	assert.NotNil(t, d.Diags)
	assert.Equal(t, "std", d.rootPackage)
}

func TestWithOptionsOverrideDefaults(t *testing.T) {
	d := NewDriver(
		WithStdlibRoot("/opt/blade/stdlib"),
		WithRootPackage("core"),
		WithCompilerVersion("9.9.9"),
	)
	assert.Equal(t, "/opt/blade/stdlib", d.ResolveStdlibRoot(""))
	assert.Equal(t, "core", d.rootPackage)
	assert.Equal(t, "9.9.9", d.compilerVersion)
}

func TestResolveStdlibRootFallsBackWhenNothingConfigured(t *testing.T) {
	d := NewDriver()
	root := d.ResolveStdlibRoot("")
	assert.NotEmpty(t, root)
}

func TestAddFileTracksUserFiles(t *testing.T) {
	d := NewDriver()
	d.AddFile([]byte("content"), "foo.bl")
	assert.Len(t, d.Files(), 1)
	assert.Equal(t, ClassUser, d.Files()[0].Class)
}

func TestResolveImportSearchesPathsInOrder(t *testing.T) {
	d := NewDriver()
	_, ok := d.ResolveImport("std.io", []string{"/nonexistent-root-a", "/nonexistent-root-b"})
	assert.False(t, ok)
}
