// Package manifest loads and validates the poppy.json project manifest
//: project identity, target platform, source set, include
// paths, injected defines, artifact toggles, and named configuration
// overlays.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// FileName is the canonical manifest file name.
const FileName = "poppy.json"

// platformExt maps each platform selector to its default output
// extension.
var platformExt = map[string]string{
	"nes": "nes", "snes": "smc", "gb": "gb", "gbc": "gbc",
	"genesis": "md", "md": "md", "gba": "gba", "sms": "sms",
	"pce": "pce", "a26": "a26", "lnx": "lnx", "ws": "ws", "spc": "spc",
}

var (
	nameRe    = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	versionRe = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)
)

// Configuration is one named overlay (e.g. "debug"/"release"): it may
// override the output path and merge additional defines on top of the
// base set.
type Configuration struct {
	Output  string           `json:"output,omitempty"`
	Defines map[string]int64 `json:"defines,omitempty"`
}

// Manifest is the parsed poppy.json.
type Manifest struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
	Entry    string `json:"entry"`
	Output   string `json:"output,omitempty"`

	Sources  []string         `json:"sources,omitempty"`
	Includes []string         `json:"includes,omitempty"`
	Defines  map[string]int64 `json:"defines,omitempty"`

	Symbols    string `json:"symbols,omitempty"`
	Listing    string `json:"listing,omitempty"`
	Mapfile    string `json:"mapfile,omitempty"`
	AutoLabels bool   `json:"autoLabels,omitempty"`

	Configurations map[string]Configuration `json:"configurations,omitempty"`

	// Dir is the directory the manifest was loaded from; relative paths
	// in the manifest resolve against it.
	Dir string `json:"-"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

// Parse decodes and validates manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the structural constraints on manifest fields.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest: missing name")
	}
	if !nameRe.MatchString(m.Name) {
		return fmt.Errorf("manifest: name %q must be lowercase alphanumeric with hyphens", m.Name)
	}
	if m.Version != "" && !versionRe.MatchString(m.Version) {
		return fmt.Errorf("manifest: version %q is not MAJOR.MINOR.PATCH", m.Version)
	}
	if m.Platform != "" {
		if _, ok := platformExt[m.Platform]; !ok {
			return fmt.Errorf("manifest: unknown platform %q", m.Platform)
		}
	}
	if m.Entry == "" {
		return fmt.Errorf("manifest: missing entry")
	}
	if !strings.HasSuffix(m.Entry, ".pasm") {
		return fmt.Errorf("manifest: entry %q must be a .pasm file", m.Entry)
	}
	return nil
}

// OutputPath returns the configured output path, or the default
// {name}.{ext} with the extension the platform dictates.
func (m *Manifest) OutputPath() string {
	if m.Output != "" {
		return m.Output
	}
	ext, ok := platformExt[m.Platform]
	if !ok {
		ext = "bin"
	}
	return m.Name + "." + ext
}

// ApplyConfiguration overlays the named configuration onto a copy of m:
// its output path wins when set and its defines merge over the base
// defines. An unknown name is an error.
func (m *Manifest) ApplyConfiguration(name string) (*Manifest, error) {
	cfg, ok := m.Configurations[name]
	if !ok {
		return nil, fmt.Errorf("manifest: unknown configuration %q", name)
	}
	out := *m
	if cfg.Output != "" {
		out.Output = cfg.Output
	}
	merged := make(map[string]int64, len(m.Defines)+len(cfg.Defines))
	for k, v := range m.Defines {
		merged[k] = v
	}
	for k, v := range cfg.Defines {
		merged[k] = v
	}
	out.Defines = merged
	return &out, nil
}

// SourceFiles expands Entry plus the Sources glob patterns against the
// manifest's directory, removing duplicates while preserving first-seen
// order (entry always compiles first).
func (m *Manifest) SourceFiles() ([]string, error) {
	var out []string
	seen := map[string]bool{}
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}

	add(filepath.Join(m.Dir, m.Entry))
	for _, pattern := range m.Sources {
		matches, err := filepath.Glob(filepath.Join(m.Dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("manifest: bad sources pattern %q: %w", pattern, err)
		}
		// Glob returns lexical order on most platforms, but sort anyway so
		// the compile order never depends on the file system.
		sort.Strings(matches)
		for _, match := range matches {
			add(match)
		}
	}
	return out, nil
}

// IncludePaths resolves the extra include directories against the
// manifest's directory.
func (m *Manifest) IncludePaths() []string {
	out := make([]string, 0, len(m.Includes))
	for _, inc := range m.Includes {
		if filepath.IsAbs(inc) {
			out = append(out, inc)
			continue
		}
		out = append(out, filepath.Join(m.Dir, inc))
	}
	return out
}
