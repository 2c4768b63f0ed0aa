package build

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karmlang/karm/internal/config"
	"karmlang/karm/internal/loader"
	"karmlang/karm/internal/testutil"
	"karmlang/karm/karmerr"
)

func strictConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Strict = true
	return cfg
}

func TestBuildSingleFile(t *testing.T) {
	var log bytes.Buffer
	units, err := NewBuilder(strictConfig(), true, &log).Build(testutil.Path(t, "fib.kr"))
	require.NoError(t, err)
	require.Len(t, units, 1)

	sigs := units[0].Result.Signatures
	require.Len(t, sigs, 1)
	assert.Equal(t, "fib :: n: {Int} -> {Int}", sigs[0].String())
	assert.Contains(t, log.String(), "Compiling ")
}

func TestBuildQuietByDefault(t *testing.T) {
	var log bytes.Buffer
	_, err := NewBuilder(strictConfig(), false, &log).Build(testutil.Path(t, "fib.kr"))
	require.NoError(t, err)
	assert.Empty(t, log.String())
}

func TestBuildRejectsExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.txt")
	require.NoError(t, os.WriteFile(path, []byte("lam f -> 1;"), 0644))

	_, err := NewBuilder(config.DefaultConfig(), false, &bytes.Buffer{}).Build(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a .kr file")
}

func TestBuildTypeErrorCarriesSource(t *testing.T) {
	path := testutil.Path(t, "mismatch.kr")
	_, err := NewBuilder(config.DefaultConfig(), false, &bytes.Buffer{}).Build(path)

	var fileErr *FileError
	require.True(t, errors.As(err, &fileErr))
	assert.Equal(t, path, fileErr.Name)
	assert.Equal(t, testutil.Read(t, "mismatch.kr"), fileErr.Source)
	assert.True(t, karmerr.Is(err, karmerr.TypeType))
}

func TestBuildWithoutCheck(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Check = false

	units, err := NewBuilder(cfg, false, &bytes.Buffer{}).Build(testutil.Path(t, "mismatch.kr"))
	require.NoError(t, err)
	assert.Nil(t, units[0].Result.Signatures)
}

func TestBuildFollowUses(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FollowUses = true

	var log bytes.Buffer
	units, err := NewBuilder(cfg, true, &log).Build(testutil.Path(t, "uses/main.kr"))
	require.NoError(t, err)
	require.Len(t, units, 3)

	var bases []string
	for _, u := range units {
		bases = append(bases, filepath.Base(u.Name))
	}
	assert.Equal(t, []string{"math.kr", "text.kr", "main.kr"}, bases)
	assert.Equal(t, "double :: x: {Int} -> {Int}", units[0].Result.Signatures[0].String())
	assert.Contains(t, log.String(), "checking")
}

func TestBuildFollowUsesSearchPaths(t *testing.T) {
	lib := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(lib, "std"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(lib, "std", "strings.kr"), []byte("lam empty :: s -> s == \"\";\n"), 0644))

	dir := t.TempDir()
	main := filepath.Join(dir, "main.kr")
	require.NoError(t, os.WriteFile(main, []byte("use \"std/strings\";\nlam m -> 1;\n"), 0644))

	cfg := config.DefaultConfig()
	cfg.FollowUses = true

	_, err := NewBuilder(cfg, false, &bytes.Buffer{}).Build(main)
	var notFound *loader.UnitNotFoundError
	require.True(t, errors.As(err, &notFound))

	cfg.SearchPaths = []string{lib}
	units, err := NewBuilder(cfg, false, &bytes.Buffer{}).Build(main)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, filepath.Join(lib, "std", "strings.kr"), units[0].Path)
	assert.Equal(t, "empty :: s: {Str} -> {Bool}", units[0].Result.Signatures[0].String())
}

func TestBuildFollowUsesCycle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.kr"), []byte("use \"b\";\nlam a -> 1;\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.kr"), []byte("use \"a\";\nlam b -> 1;\n"), 0644))

	cfg := config.DefaultConfig()
	cfg.FollowUses = true

	_, err := NewBuilder(cfg, false, &bytes.Buffer{}).Build(filepath.Join(dir, "a.kr"))
	var cycle *loader.CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, "use cycle detected: a.kr -> b.kr -> a.kr", err.Error())
}

func TestBuildFollowUsesSyntaxError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.kr"), []byte("use \"lib\";\nlam m -> 1;\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.kr"), []byte("lam l -> ;\n"), 0644))

	cfg := config.DefaultConfig()
	cfg.FollowUses = true

	_, err := NewBuilder(cfg, false, &bytes.Buffer{}).Build(filepath.Join(dir, "main.kr"))
	var fileErr *FileError
	require.True(t, errors.As(err, &fileErr))
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "lib.kr")), fileErr.Name)
	assert.Equal(t, "lam l -> ;\n", fileErr.Source)
	assert.True(t, karmerr.Is(err, karmerr.TypeSyntax))
}
