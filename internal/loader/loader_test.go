package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karmlang/karm/internal/ast"
	"karmlang/karm/internal/parser"
	"karmlang/karm/karmerr"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func names(units []*Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Name
	}
	return out
}

func TestLoadOrdered(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.kr":      "use \"lib/math\";\nuse \"util.kr\";\nlam main -> 1;\n",
		"lib/math.kr":  "use \"../util\";\nlam sq :: x -> x * x;\n",
		"util.kr":      "lam id :: x -> x;\n",
		"unrelated.kr": "lam x -> 2;\n",
	})

	units, err := New(".kr").LoadOrdered(filepath.Join(dir, "main.kr"))
	require.NoError(t, err)
	assert.Equal(t, []string{"util.kr", "lib/math.kr", "main.kr"}, names(units))

	// util.kr is used twice but parsed once.
	assert.Same(t, units[0], units[1].Uses[0])
	assert.Same(t, units[0], units[2].Uses[1])
	assert.Len(t, units[0].Users, 2)
}

func TestLoadParsesEachFileOnce(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.kr": "use \"b\";\nuse \"c\";\nlam a -> 1;\n",
		"b.kr": "use \"c\";\nlam b -> 1;\n",
		"c.kr": "lam c -> 1;\n",
	})

	calls := 0
	counting := func(src string) (*ast.Program, error) {
		calls++
		return parser.Parse(src)
	}

	g, err := New(".kr", WithParser(counting)).Load(filepath.Join(dir, "a.kr"))
	require.NoError(t, err)
	assert.Len(t, g.Units, 3)
	assert.Equal(t, 3, calls)
}

func TestLoadDetectsCycle(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.kr": "use \"b\";\nlam a -> 1;\n",
		"b.kr": "use \"a\";\nlam b -> 1;\n",
	})

	_, err := New(".kr").Load(filepath.Join(dir, "a.kr"))
	require.Error(t, err)

	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"a.kr", "b.kr", "a.kr"}, cycle.Cycle)
	assert.Equal(t, "use cycle detected: a.kr -> b.kr -> a.kr", err.Error())
}

func TestLoadDetectsSelfUse(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"self.kr": "use \"self\";\nlam s -> 1;\n",
	})

	_, err := New(".kr").Load(filepath.Join(dir, "self.kr"))
	assert.EqualError(t, err, "use cycle detected: self.kr -> self.kr")
}

func TestLoadMissingUse(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.kr": "use \"nowhere\";\nlam m -> 1;\n",
	})

	_, err := New(".kr").Load(filepath.Join(dir, "main.kr"))
	var notFound *UnitNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "nowhere", notFound.UsePath)
}

func TestLoadSearchPaths(t *testing.T) {
	std := writeFiles(t, map[string]string{
		"std/strings.kr": "lam empty :: s -> s == \"\";\n",
	})
	dir := writeFiles(t, map[string]string{
		"main.kr": "use \"std/strings\";\nlam m -> 1;\n",
	})

	units, err := New(".kr", WithSearchPaths(std)).LoadOrdered(filepath.Join(dir, "main.kr"))
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, filepath.Join(std, "std", "strings.kr"), units[0].Path)
}

func TestLoadSyntaxErrorInUsedFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.kr":   "use \"broken\";\nlam m -> 1;\n",
		"broken.kr": "lam b -> 1\n",
	})

	_, err := New(".kr").Load(filepath.Join(dir, "main.kr"))
	var unitErr *UnitError
	require.True(t, errors.As(err, &unitErr))
	assert.Equal(t, "broken.kr", unitErr.Name)
	assert.Equal(t, "lam b -> 1\n", unitErr.Source)
	assert.True(t, karmerr.Is(err, karmerr.TypeSyntax))
}

func TestLoadUnreadableEntry(t *testing.T) {
	_, err := New(".kr").Load(filepath.Join(t.TempDir(), "missing.kr"))
	var unitErr *UnitError
	require.True(t, errors.As(err, &unitErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
