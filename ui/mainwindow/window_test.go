package mainwindow

import (
	goimage "image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"landmark-picker/internal/app"
	"landmark-picker/internal/config"
	"landmark-picker/internal/landmark"
	"landmark-picker/ui/prefs"

	"fyne.io/fyne/v2/test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, goimage.NewGray(goimage.Rect(0, 0, w, h))))
	return path
}

func newTestWindow(t *testing.T, cfg config.Config, p *prefs.Prefs) *MainWindow {
	t.Helper()
	state, err := app.NewState(cfg, zerolog.Nop())
	require.NoError(t, err)
	return New(test.NewApp(), state, p, zerolog.Nop())
}

func TestRestoreSkipsUnsupportedPaths(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("not an image"), 0o644))

	p := prefs.LoadFrom(filepath.Join(dir, "preferences.json"))
	p.SetString(prefs.KeyLastFixedImage, notes)
	p.SetString(prefs.KeyLastMovingImage, writePNG(t, dir, "moving.png", 20, 10))

	mw := newTestWindow(t, config.Default(), p)

	assert.False(t, mw.state.View(landmark.Fixed).Loaded())
	assert.True(t, mw.state.View(landmark.Moving).Loaded())
}

func TestRestoreAppliesSavedZoom(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Zoom.FitOnLoad = false

	p := prefs.LoadFrom(filepath.Join(dir, "preferences.json"))
	p.SetString(prefs.KeyLastFixedImage, writePNG(t, dir, "fixed.png", 20, 20))
	p.SetString(prefs.KeyLastMovingImage, writePNG(t, dir, "moving.png", 20, 20))
	p.SetFloat(prefs.KeyFixedScale, 2.0)

	mw := newTestWindow(t, cfg, p)

	assert.Equal(t, 2.0, mw.state.View(landmark.Fixed).Scale())
	assert.Equal(t, 1.0, mw.state.View(landmark.Moving).Scale())
}

func TestRestoreIgnoresSavedZoomWhenFitting(t *testing.T) {
	dir := t.TempDir()

	p := prefs.LoadFrom(filepath.Join(dir, "preferences.json"))
	p.SetString(prefs.KeyLastFixedImage, writePNG(t, dir, "fixed.png", 20, 20))
	p.SetFloat(prefs.KeyFixedScale, 2.0)

	mw := newTestWindow(t, config.Default(), p)

	assert.Greater(t, mw.state.View(landmark.Fixed).Scale(), 2.0)
}

func TestZoomIsSaved(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Zoom.FitOnLoad = false
	prefsPath := filepath.Join(dir, "preferences.json")

	p := prefs.LoadFrom(prefsPath)
	p.SetString(prefs.KeyLastMovingImage, writePNG(t, dir, "moving.png", 20, 20))
	mw := newTestWindow(t, cfg, p)

	mw.onZoom(landmark.Moving, mw.state.ZoomIn)

	want := mw.state.View(landmark.Moving).Scale()
	assert.Greater(t, want, 1.0)
	assert.InDelta(t, want, prefs.LoadFrom(prefsPath).FloatWithFallback(prefs.KeyMovingScale, 0), 1e-9)
}

func TestSaveExportDir(t *testing.T) {
	dir := t.TempDir()
	prefsPath := filepath.Join(dir, "preferences.json")
	mw := newTestWindow(t, config.Default(), prefs.LoadFrom(prefsPath))

	out := filepath.Join(dir, "results")
	mw.saveExportDir(out)

	reloaded := prefs.LoadFrom(prefsPath)
	assert.Equal(t, out, reloaded.String(prefs.KeyLastExportDir))
	assert.Equal(t, "", reloaded.String(prefs.KeyLastDir))
}
