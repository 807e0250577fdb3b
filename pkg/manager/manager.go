// Package manager is the application facade: it owns the loaded skill
// set and target list, and coordinates validation, syncing and
// importing on top of them.
package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/arthur-debert/agentloom/pkg/config"
	"github.com/arthur-debert/agentloom/pkg/errors"
	"github.com/arthur-debert/agentloom/pkg/importer"
	"github.com/arthur-debert/agentloom/pkg/logging"
	"github.com/arthur-debert/agentloom/pkg/paths"
	"github.com/arthur-debert/agentloom/pkg/skill"
	"github.com/arthur-debert/agentloom/pkg/syncer"
	"github.com/arthur-debert/agentloom/pkg/target"
	"github.com/arthur-debert/agentloom/pkg/validator"
)

// Manager wires the engine together around one skill repository.
type Manager struct {
	paths    *paths.Paths
	cfg      *config.Config
	syncer   *syncer.Syncer
	importer *importer.Importer

	skills  []*skill.Skill
	targets []*target.Target
}

// New builds a Manager for the configured repository. An empty
// skillsRoot resolves through the environment and defaults.
func New(skillsRoot string) (*Manager, error) {
	p, err := paths.New(skillsRoot)
	if err != nil {
		return nil, err
	}
	return NewWithPaths(p)
}

// NewWithPaths builds a Manager on pre-resolved paths, which tests use
// to point everything at temporary directories.
func NewWithPaths(p *paths.Paths) (*Manager, error) {
	cfg, err := config.Load(p.ConfigFilePath())
	if err != nil {
		return nil, err
	}
	// The configured skills_dir only applies when the caller did not
	// pick a root explicitly (flag or environment)
	if cfg.SkillsDir != "" && p.SkillsRootDefaulted() {
		if p, err = p.WithSkillsRoot(cfg.SkillsDir); err != nil {
			return nil, err
		}
	}

	if err := p.EnsureSkillsRoot(); err != nil {
		return nil, err
	}

	m := &Manager{
		paths:    p,
		cfg:      cfg,
		syncer:   syncer.New(p.SkillsRoot()),
		importer: importer.New(p.SkillsRoot()),
	}
	if err := m.Refresh(); err != nil {
		return nil, err
	}
	return m, nil
}

// Refresh rediscovers skills and rebuilds the effective target list.
func (m *Manager) Refresh() error {
	skills, err := skill.Discover(m.paths.SkillsRoot())
	if err != nil {
		return err
	}
	m.skills = skills
	m.targets = target.LoadAll(m.cfg, m.paths.Home())
	return nil
}

// Paths exposes the resolved filesystem locations.
func (m *Manager) Paths() *paths.Paths {
	return m.paths
}

// Config exposes the loaded configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Skills returns the loaded skill set, sorted by folder name.
func (m *Manager) Skills() []*skill.Skill {
	return m.skills
}

// Targets returns the effective target list.
func (m *Manager) Targets() []*target.Target {
	return m.targets
}

// Get returns a skill by folder name.
func (m *Manager) Get(folderName string) (*skill.Skill, error) {
	for _, s := range m.skills {
		if s.FolderName == folderName {
			return s, nil
		}
	}
	return nil, errors.New(errors.ErrSkillNotFound, "no skill named '"+folderName+"'").
		WithDetail("skill", folderName)
}

// Target returns a target by id.
func (m *Manager) Target(id string) (*target.Target, error) {
	for _, t := range m.targets {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errors.New(errors.ErrTargetNotFound, "no target with id '"+id+"'").
		WithDetail("target", id)
}

// Create adds a new skill to the repository and projects it to every
// enabled target. Names outside the allowed charset are slugified.
func (m *Manager) Create(name, description string) (*skill.Skill, error) {
	folderName := name
	if !skill.IsValidName(folderName) {
		folderName = skill.Slug(folderName)
	}

	if _, err := m.Get(folderName); err == nil {
		return nil, errors.New(errors.ErrSkillExists, "skill '"+folderName+"' already exists").
			WithDetail("skill", folderName)
	}

	s, err := skill.Create(m.paths.SkillsRoot(), folderName, description)
	if err != nil {
		return nil, err
	}

	if err := m.Refresh(); err != nil {
		return nil, err
	}
	m.SyncAll()

	logger := logging.GetLogger("manager")
	logger.Info().Str("skill", folderName).Msg("Skill created")
	return s, nil
}

// Delete removes a skill from the repository after unlinking it from
// every enabled target, so no dangling projection survives.
func (m *Manager) Delete(folderName string) error {
	s, err := m.Get(folderName)
	if err != nil {
		return err
	}

	remaining := make([]*skill.Skill, 0, len(m.skills)-1)
	for _, other := range m.skills {
		if other.FolderName != folderName {
			remaining = append(remaining, other)
		}
	}
	m.syncer.SyncAll(m.targets, m.syncable(remaining))

	if err := os.RemoveAll(s.Path); err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, "cannot delete skill directory").
			WithDetail("path", s.Path)
	}

	logger := logging.GetLogger("manager")
	logger.Info().Str("skill", folderName).Msg("Skill deleted")
	return m.Refresh()
}

// Rename moves a skill directory, rewrites its frontmatter name and
// relinks it on every target.
func (m *Manager) Rename(oldName, newName string) (*skill.Skill, error) {
	s, err := m.Get(oldName)
	if err != nil {
		return nil, err
	}
	if !skill.IsValidName(newName) {
		return nil, errors.New(errors.ErrSkillNameInvalid,
			"invalid skill name '"+newName+"' (allowed: letters, digits, '-', '_')")
	}
	if _, err := m.Get(newName); err == nil {
		return nil, errors.New(errors.ErrSkillExists, "skill '"+newName+"' already exists").
			WithDetail("skill", newName)
	}

	newPath := m.paths.SkillPath(newName)
	if err := os.Rename(s.Path, newPath); err != nil {
		return nil, errors.Wrap(err, errors.ErrFileAccess, "cannot move skill directory").
			WithDetail("from", s.Path).WithDetail("to", newPath)
	}

	renamed := skill.LoadLenient(newPath)
	if _, err := renamed.FixFrontmatter(); err != nil {
		return nil, err
	}

	if err := m.Refresh(); err != nil {
		return nil, err
	}
	m.SyncAll()

	logger := logging.GetLogger("manager")
	logger.Info().Str("from", oldName).Str("to", newName).Msg("Skill renamed")
	return m.Get(newName)
}

// FixSkill repairs a skill's frontmatter in place and returns the fixes
// applied.
func (m *Manager) FixSkill(folderName string) ([]string, error) {
	s, err := m.Get(folderName)
	if err != nil {
		return nil, err
	}
	fixes, err := s.FixFrontmatter()
	if err != nil {
		return nil, err
	}
	if len(fixes) > 0 {
		if err := m.Refresh(); err != nil {
			return nil, err
		}
	}
	return fixes, nil
}

// ValidateOne validates a single skill under the configured strictness.
func (m *Manager) ValidateOne(folderName string) (skill.ValidationStatus, error) {
	s, err := m.Get(folderName)
	if err != nil {
		return skill.NotValidated(), err
	}
	return validator.Validate(s, m.cfg.Preferences.StrictValidation), nil
}

// ValidateAll validates every loaded skill under the configured
// strictness.
func (m *Manager) ValidateAll() []skill.ValidationStatus {
	return validator.ValidateAll(m.skills, m.cfg.Preferences.StrictValidation)
}

// SyncAll reconciles every target. When validate_on_sync is set, skills
// failing validation are withheld from all targets.
func (m *Manager) SyncAll() []syncer.Result {
	return m.syncer.SyncAll(m.targets, m.syncable(m.skills))
}

// SyncTarget reconciles a single target by id.
func (m *Manager) SyncTarget(id string) (syncer.Result, error) {
	t, err := m.Target(id)
	if err != nil {
		return syncer.Result{}, err
	}
	return m.syncer.Sync(t, m.syncable(m.skills)), nil
}

// Verify reports dangling managed links per target without mutating
// anything.
func (m *Manager) Verify() (map[string][]string, error) {
	dangling := make(map[string][]string)
	for _, t := range m.targets {
		if !t.Enabled {
			continue
		}
		names, err := m.syncer.Verify(t)
		if err != nil {
			return nil, err
		}
		if len(names) > 0 {
			dangling[t.ID] = names
		}
	}
	return dangling, nil
}

// syncable filters the given skills down to the set allowed onto
// targets under the current preferences.
func (m *Manager) syncable(skills []*skill.Skill) []*skill.Skill {
	if !m.cfg.Preferences.ValidateOnSync {
		return skills
	}

	strict := m.cfg.Preferences.StrictValidation
	out := make([]*skill.Skill, 0, len(skills))
	for _, s := range skills {
		status := s.Status
		if !status.Validated() {
			status = validator.Validate(s, strict)
		}
		if status.Kind() != skill.StatusInvalid {
			out = append(out, s)
		}
	}
	return out
}

// SetTargetEnabled flips a target on or off. Disabling removes every
// managed link from the target first.
func (m *Manager) SetTargetEnabled(id string, enabled bool) error {
	t, err := m.Target(id)
	if err != nil {
		return err
	}

	if !enabled && t.Enabled {
		if _, err := m.syncer.RemoveAll(t); err != nil {
			return errors.Wrap(err, errors.ErrSymlinkRemove, "cannot unlink skills from target").
				WithDetail("target", id)
		}
	}

	m.cfg.SetTargetEnabled(id, enabled)
	if err := m.saveConfig(); err != nil {
		return err
	}
	return m.Refresh()
}

// AddFolderTarget registers an arbitrary directory as a custom target
// and syncs it immediately.
func (m *Manager) AddFolderTarget(path string) (*target.Target, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileAccess, "cannot resolve target path").
			WithDetail("path", path)
	}

	for _, t := range m.targets {
		if t.SkillsPath == abs {
			return nil, errors.New(errors.ErrTargetExists, "directory is already a target").
				WithDetail("target", t.ID)
		}
	}

	id := target.FolderID(abs, func(id string) bool {
		_, err := m.Target(id)
		if err == nil {
			return true
		}
		_, inConfig := m.cfg.Targets[id]
		return inConfig
	})

	m.cfg.Targets[id] = config.TargetConfig{
		Enabled:    true,
		SkillsPath: abs,
		Name:       target.NewFolder(id, abs).Name,
	}
	if err := m.saveConfig(); err != nil {
		return nil, err
	}
	if err := m.Refresh(); err != nil {
		return nil, err
	}

	t, err := m.Target(id)
	if err != nil {
		return nil, err
	}
	m.syncer.Sync(t, m.syncable(m.skills))
	return t, nil
}

// RemoveTarget deletes a custom target after unlinking its skills.
// Auto-detected targets cannot be removed, only disabled.
func (m *Manager) RemoveTarget(id string) error {
	t, err := m.Target(id)
	if err != nil {
		return err
	}
	if t.AutoDetected {
		return errors.New(errors.ErrTargetBuiltin,
			"target '"+id+"' is auto-detected; disable it instead of removing it")
	}

	if _, err := m.syncer.RemoveAll(t); err != nil {
		return errors.Wrap(err, errors.ErrSymlinkRemove, "cannot unlink skills from target").
			WithDetail("target", id)
	}

	delete(m.cfg.Targets, id)
	if err := m.saveConfig(); err != nil {
		return err
	}
	return m.Refresh()
}

// SetSkillOverride flips one skill on or off for one target and
// reconciles that target.
func (m *Manager) SetSkillOverride(targetID, folderName string, enabled bool) error {
	if _, err := m.Target(targetID); err != nil {
		return err
	}
	if _, err := m.Get(folderName); err != nil {
		return err
	}

	m.cfg.SetSkillOverride(targetID, folderName, enabled)
	if err := m.saveConfig(); err != nil {
		return err
	}
	if err := m.Refresh(); err != nil {
		return err
	}

	t, err := m.Target(targetID)
	if err != nil {
		return err
	}
	m.syncer.Sync(t, m.syncable(m.skills))
	return nil
}

// ScanTargetsForImport finds importable skills sitting in target
// directories.
func (m *Manager) ScanTargetsForImport() []*importer.Discovered {
	return m.importer.ScanTargets(m.targets)
}

// ScanFolderForImport finds importable skills under an arbitrary
// directory.
func (m *Manager) ScanFolderForImport(root string) ([]*importer.Discovered, error) {
	return m.importer.ScanFolder(root)
}

// Import runs an import batch, then refreshes and resyncs so the new
// skills appear on every enabled target.
func (m *Manager) Import(selections []importer.Selection) (importer.Result, error) {
	result := m.importer.Import(selections)
	if err := m.Refresh(); err != nil {
		return result, err
	}
	m.SyncAll()
	return result, nil
}

// Search fuzzy-matches the query against skill names and descriptions,
// best matches first. An empty query returns every skill.
func (m *Manager) Search(query string) []*skill.Skill {
	if strings.TrimSpace(query) == "" {
		return m.skills
	}

	haystack := make([]string, len(m.skills))
	for i, s := range m.skills {
		haystack[i] = s.FolderName + " " + s.Meta.Description
	}

	matches := fuzzy.Find(query, haystack)
	out := make([]*skill.Skill, 0, len(matches))
	for _, match := range matches {
		out = append(out, m.skills[match.Index])
	}
	return out
}

// Stats summarizes the repository for status output.
type Stats struct {
	SkillCount     int
	ValidCount     int
	WarningCount   int
	InvalidCount   int
	TargetCount    int
	EnabledTargets int
	TotalSizeBytes int64
}

// Stats validates everything and aggregates repository counters.
func (m *Manager) Stats() Stats {
	m.ValidateAll()

	stats := Stats{SkillCount: len(m.skills), TargetCount: len(m.targets)}
	for _, s := range m.skills {
		stats.TotalSizeBytes += s.SizeBytes
		switch s.Status.Kind() {
		case skill.StatusValid:
			stats.ValidCount++
		case skill.StatusWarning:
			stats.WarningCount++
		case skill.StatusInvalid:
			stats.InvalidCount++
		}
	}
	for _, t := range m.targets {
		if t.Enabled {
			stats.EnabledTargets++
		}
	}
	return stats
}

// saveConfig persists the configuration to its resolved path.
func (m *Manager) saveConfig() error {
	return m.cfg.Save(m.paths.ConfigFilePath())
}

// SortResults orders sync results by target id for stable display.
func SortResults(results []syncer.Result) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].TargetID < results[j].TargetID
	})
}

// FormatSize renders a byte count for humans.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
