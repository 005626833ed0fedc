package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingFileIsEmpty(t *testing.T) {
	p := LoadFrom(filepath.Join(t.TempDir(), "none", prefsFile))

	assert.Equal(t, "", p.String(KeyLastDir))
	assert.Equal(t, 1.5, p.FloatWithFallback(KeyFixedScale, 1.5))
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", prefsFile)

	p := LoadFrom(path)
	p.SetString(KeyLastFixedImage, "/data/fixed.tif")
	p.SetFloat(KeyMovingScale, 2.25)
	require.NoError(t, p.Save())
	assert.FileExists(t, path)

	reloaded := LoadFrom(path)
	assert.Equal(t, "/data/fixed.tif", reloaded.String(KeyLastFixedImage))
	assert.Equal(t, 2.25, reloaded.FloatWithFallback(KeyMovingScale, 0))
}

func TestCorruptFileIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p := LoadFrom(path)
	assert.Equal(t, "", p.String(KeyLastDir))

	p.SetString(KeyLastDir, "/tmp")
	require.NoError(t, p.Save())
	assert.Equal(t, "/tmp", LoadFrom(path).String(KeyLastDir))
}
