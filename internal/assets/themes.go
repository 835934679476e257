// internal/assets/themes.go
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jason-s-yu/fourcard/internal/deck"
)

// ErrUnknownTheme is returned when a theme name is not configured.
var ErrUnknownTheme = errors.New("unknown theme")

// Theme names an asset base path.
type Theme struct {
	Name     string `json:"name"`
	BasePath string `json:"base_path"`
}

// Themes maps theme names to base paths and remembers the default theme.
type Themes struct {
	byName       map[string]Theme
	defaultTheme string
}

// BuiltinThemes returns the "default" and "classic" themes served under /assets/.
func BuiltinThemes() map[string]string {
	return map[string]string{
		"default": "/assets/default/",
		"classic": "/assets/classic/",
	}
}

// NewThemes builds a theme set from name -> base path pairs.
// Base paths always end in a slash.
func NewThemes(paths map[string]string, defaultTheme string) (*Themes, error) {
	t := &Themes{byName: make(map[string]Theme, len(paths))}
	for name, base := range paths {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("empty theme name for base path %q", base)
		}
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		t.byName[name] = Theme{Name: name, BasePath: base}
	}
	if _, ok := t.byName[defaultTheme]; !ok {
		return nil, fmt.Errorf("default theme %q: %w", defaultTheme, ErrUnknownTheme)
	}
	t.defaultTheme = defaultTheme
	return t, nil
}

// ParseThemes parses "name=/base/path/,name2=/other/" into a name -> base path map.
func ParseThemes(raw string) (map[string]string, error) {
	out := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, base, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(base) == "" {
			return nil, fmt.Errorf("malformed theme entry %q, want name=/base/path/", part)
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(base)
	}
	return out, nil
}

// Default returns the default theme name.
func (t *Themes) Default() string {
	return t.defaultTheme
}

// Lookup resolves a theme by name. An empty name selects the default theme.
func (t *Themes) Lookup(name string) (Theme, error) {
	if name == "" {
		name = t.defaultTheme
	}
	th, ok := t.byName[name]
	if !ok {
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	return th, nil
}

// List returns all themes sorted by name.
func (t *Themes) List() []Theme {
	out := make([]Theme, 0, len(t.byName))
	for _, th := range t.byName {
		out = append(out, th)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Path returns the asset path for a card under this theme.
func (th Theme) Path(c deck.Card) string {
	return th.BasePath + c.AssetName()
}

// Missing reports the codes of cards whose image is absent from dir, sorted
// in canonical deck order.
func Missing(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat asset dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset dir %s is not a directory", dir)
	}

	var missing []string
	for _, c := range deck.New() {
		fi, err := os.Stat(filepath.Join(dir, c.AssetName()))
		if err != nil || fi.IsDir() {
			missing = append(missing, c.Code())
		}
	}
	return missing, nil
}
