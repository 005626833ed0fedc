// Package prefs provides JSON-based UI preferences.
package prefs

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

const (
	prefsFile = "preferences.json"
	appDir    = "landmark-picker"
)

// Keys used by the main window.
const (
	KeyLastDir         = "lastDirectory"
	KeyLastFixedImage  = "lastFixedImage"
	KeyLastMovingImage = "lastMovingImage"
	KeyLastExportDir   = "lastExportDirectory"
	KeyFixedScale      = "fixedScale"
	KeyMovingScale     = "movingScale"
)

// Prefs stores UI preferences in a dedicated viper instance.
type Prefs struct {
	mu   sync.RWMutex
	v    *viper.Viper
	path string
}

// Load reads preferences from <user config dir>/landmark-picker/preferences.json.
// Returns empty Prefs if the file doesn't exist.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, appDir, prefsFile))
}

// LoadFrom reads preferences from path. A missing or unreadable file yields
// empty Prefs that will be written to path on Save.
func LoadFrom(path string) *Prefs {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	_ = v.ReadInConfig()
	return &Prefs{v: v, path: path}
}

// Path returns the file preferences are saved to.
func (p *Prefs) Path() string {
	return p.path
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.v.WriteConfigAs(p.path)
}

// String returns a string preference, or "" if not set.
func (p *Prefs) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.v.GetString(key)
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.mu.Lock()
	p.v.Set(key, val)
	p.mu.Unlock()
}

// FloatWithFallback returns a float64 preference, or fallback if not set.
func (p *Prefs) FloatWithFallback(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.v.IsSet(key) {
		return fallback
	}
	return p.v.GetFloat64(key)
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.mu.Lock()
	p.v.Set(key, val)
	p.mu.Unlock()
}
