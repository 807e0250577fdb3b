// Package target models the consumer directories that mirror the skill
// repository, and detects installed tools by probing their well-known
// configuration directories.
package target

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthur-debert/agentloom/pkg/errors"
	"github.com/arthur-debert/agentloom/pkg/logging"
)

// Kind describes one known tool that consumes skills.
type Kind struct {
	// ID is the stable identifier, e.g. "claude-code"
	ID string

	// DisplayName is the human-readable name
	DisplayName string

	// ConfigDir is the tool's directory under home whose presence
	// implies the tool is installed
	ConfigDir string
}

// SkillsSubdir is the skills directory inside every tool's config dir.
const SkillsSubdir = "skills"

// KnownKinds lists the tools probed during auto-detection.
func KnownKinds() []Kind {
	return []Kind{
		{ID: "claude-code", DisplayName: "Claude Code", ConfigDir: ".claude"},
		{ID: "codex", DisplayName: "Codex", ConfigDir: ".codex"},
		{ID: "gemini", DisplayName: "Gemini", ConfigDir: ".gemini"},
		{ID: "cursor", DisplayName: "Cursor", ConfigDir: ".cursor"},
		{ID: "amp", DisplayName: "Amp", ConfigDir: ".amp"},
		{ID: "goose", DisplayName: "Goose", ConfigDir: ".goose"},
		{ID: "roo-code", DisplayName: "Roo Code", ConfigDir: ".roo-code"},
		{ID: "opencode", DisplayName: "OpenCode", ConfigDir: ".opencode"},
		{ID: "vibe", DisplayName: "Vibe", ConfigDir: ".vibe"},
		{ID: "firebender", DisplayName: "Firebender", ConfigDir: ".firebender"},
		{ID: "mux", DisplayName: "Mux", ConfigDir: ".mux"},
		{ID: "autohand", DisplayName: "Autohand", ConfigDir: ".autohand"},
	}
}

// Target is one consumer directory binding.
type Target struct {
	// ID is a stable short identifier: the tool id for detected
	// targets, generated for custom folders
	ID string

	// Name is the display name
	Name string

	// SkillsPath is the absolute directory the syncer acts on
	SkillsPath string

	// AutoDetected distinguishes probed targets from user-added ones
	AutoDetected bool

	// Enabled gates all syncer activity on this target
	Enabled bool

	// SkillOverrides enables or disables individual skills, keyed by
	// folder name. Absent means enabled.
	SkillOverrides map[string]bool
}

// New creates a manually configured target for a known kind.
func New(kind Kind, skillsPath string) *Target {
	return &Target{
		ID:         kind.ID,
		Name:       kind.DisplayName,
		SkillsPath: skillsPath,
		Enabled:    true,
	}
}

// Detect probes one kind under home. Returns nil when the tool's config
// directory is absent.
func Detect(kind Kind, home string) *Target {
	configDir := filepath.Join(home, kind.ConfigDir)
	info, err := os.Stat(configDir)
	if err != nil || !info.IsDir() {
		return nil
	}
	return &Target{
		ID:           kind.ID,
		Name:         kind.DisplayName,
		SkillsPath:   filepath.Join(configDir, SkillsSubdir),
		AutoDetected: true,
		Enabled:      true,
	}
}

// DetectAll probes every known kind under home. Unmatched tools are
// silently omitted.
func DetectAll(home string) []*Target {
	logger := logging.GetLogger("target.detect")

	var targets []*Target
	for _, kind := range KnownKinds() {
		if t := Detect(kind, home); t != nil {
			targets = append(targets, t)
		}
	}

	logger.Debug().Int("detected", len(targets)).Str("home", home).Msg("Probed known tools")
	return targets
}

// LinkPath returns where a skill's symlink lives on this target.
func (t *Target) LinkPath(folderName string) string {
	return filepath.Join(t.SkillsPath, folderName)
}

// SkillEnabled reports the per-target override for a skill, defaulting
// to enabled when no override exists.
func (t *Target) SkillEnabled(folderName string) bool {
	if t.SkillOverrides == nil {
		return true
	}
	enabled, ok := t.SkillOverrides[folderName]
	if !ok {
		return true
	}
	return enabled
}

// SkillsDirExists reports whether the skills directory is present.
func (t *Target) SkillsDirExists() bool {
	info, err := os.Stat(t.SkillsPath)
	return err == nil && info.IsDir()
}

// EnsureSkillsDir creates the skills directory if it is missing.
func (t *Target) EnsureSkillsDir() error {
	if err := os.MkdirAll(t.SkillsPath, 0755); err != nil {
		return errors.Wrap(err, errors.ErrDirCreate, "cannot create target skills directory").
			WithDetail("target", t.ID).
			WithDetail("path", t.SkillsPath)
	}
	return nil
}

// FolderID derives a custom-target id from a folder path, unique among
// taken ids: folder-<slug>, then folder-<slug>-2, -3, ...
func FolderID(path string, taken func(id string) bool) string {
	base := "folder-" + slugifyFolder(filepath.Base(path))
	id := base
	for n := 2; taken(id); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

// NewFolder creates a custom target from an arbitrary directory.
func NewFolder(id, path string) *Target {
	return &Target{
		ID:         id,
		Name:       filepath.Base(path),
		SkillsPath: path,
		Enabled:    true,
	}
}

func slugifyFolder(name string) string {
	out := make([]rune, 0, len(name))
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-':
			out = append(out, c)
		case c >= 'A' && c <= 'Z':
			out = append(out, c-'A'+'a')
		case c == ' ' || c == '_' || c == '.':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "folder"
	}
	return string(out)
}
