// Package voices manages the voice catalog: the speech server's built-in
// voices, their OpenAI-compatible aliases, and custom voice reference
// clips stored as .wav files in a voices directory.
package voices

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Voice kinds.
const (
	KindBuiltin = "builtin"
	KindAlias   = "alias"
	KindCustom  = "custom"
)

const wavExtension = ".wav"

// Static errors.
var (
	// ErrUnknownVoice indicates a name that is neither built in, an
	// alias, nor a custom voice file.
	ErrUnknownVoice = errors.New("unknown voice")
	// ErrInvalidVoiceName indicates a voice name unusable as a filename.
	ErrInvalidVoiceName = errors.New("invalid voice name")
)

// builtinVoices are the native voices shipped with the speech model.
var builtinVoices = []string{
	"alba", "marius", "javert", "jean", "fantine", "cosette", "eponine", "azelma",
}

// aliases maps OpenAI voice names onto native voices, mirroring the
// mapping the speech server applies.
var aliases = map[string]string{
	"alloy":   "alba",
	"echo":    "jean",
	"fable":   "fantine",
	"onyx":    "cosette",
	"nova":    "eponine",
	"shimmer": "azelma",
}

// Voice is a resolved catalog entry.
type Voice struct {
	// Name is the requested name.
	Name string
	// Kind is builtin, alias, or custom.
	Kind string
	// Target is the native voice an alias resolves to; equal to Name
	// for builtin voices, empty for custom ones.
	Target string
	// Path is the reference clip path for custom voices.
	Path string
}

// Catalog lists everything a user may pass as a voice name.
type Catalog struct {
	Builtin []string
	Aliases map[string]string
	Custom  []string
}

// Manager resolves and maintains voices in a single directory.
type Manager struct {
	dir string
}

// NewManager creates a Manager over the given voices directory. The
// directory does not have to exist yet; it is created on first Add.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Dir returns the voices directory.
func (m *Manager) Dir() string {
	return m.dir
}

// List returns the full catalog. Custom voices are the .wav file stems in
// the voices directory, sorted by name.
func (m *Manager) List() (*Catalog, error) {
	custom, err := m.customVoices()
	if err != nil {
		return nil, err
	}

	return &Catalog{
		Builtin: append([]string(nil), builtinVoices...),
		Aliases: aliases,
		Custom:  custom,
	}, nil
}

// Resolve validates a voice name against the catalog. Custom voices win
// over built-ins and aliases, matching the speech server's lookup order.
func (m *Manager) Resolve(name string) (*Voice, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownVoice)
	}

	clipPath := filepath.Join(m.dir, trimmed+wavExtension)

	info, statErr := os.Stat(clipPath)
	if statErr == nil && !info.IsDir() {
		return &Voice{Name: trimmed, Kind: KindCustom, Target: "", Path: clipPath}, nil
	}

	for _, builtin := range builtinVoices {
		if trimmed == builtin {
			return &Voice{Name: trimmed, Kind: KindBuiltin, Target: trimmed, Path: ""}, nil
		}
	}

	if target, ok := aliases[trimmed]; ok {
		return &Voice{Name: trimmed, Kind: KindAlias, Target: target, Path: ""}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownVoice, trimmed)
}

func (m *Manager) customVoices() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read voices directory %s: %w", m.dir, err)
	}

	var custom []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.EqualFold(filepath.Ext(name), wavExtension) {
			custom = append(custom, strings.TrimSuffix(name, filepath.Ext(name)))
		}
	}

	sort.Strings(custom)

	return custom, nil
}

// validateName rejects names that would escape the voices directory or
// produce awkward filenames.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidVoiceName)
	}

	if strings.ContainsAny(name, `/\:*?"<>| `) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidVoiceName, name)
	}

	return nil
}
