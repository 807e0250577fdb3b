// Test Type: Integration Test
// Description: Tests for the manager package - end-to-end flows over a
// temporary home directory

package manager_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/agentloom/pkg/config"
	"github.com/arthur-debert/agentloom/pkg/errors"
	"github.com/arthur-debert/agentloom/pkg/importer"
	"github.com/arthur-debert/agentloom/pkg/manager"
	"github.com/arthur-debert/agentloom/pkg/paths"
	"github.com/arthur-debert/agentloom/pkg/skill"
)

// newTestManager builds a manager over a temp home that has Claude Code
// "installed" (a ~/.claude directory).
func newTestManager(t *testing.T) (*manager.Manager, string) {
	t.Helper()
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".claude"), 0755))

	p := paths.NewWithHome(home,
		filepath.Join(home, paths.AppDirName),
		filepath.Join(home, paths.AppDirName, paths.SkillsDirName))

	m, err := manager.NewWithPaths(p)
	require.NoError(t, err)
	return m, home
}

// reopen builds a fresh manager over the same home, simulating a new
// process.
func reopen(t *testing.T, home string) *manager.Manager {
	t.Helper()
	p := paths.NewWithHome(home,
		filepath.Join(home, paths.AppDirName),
		filepath.Join(home, paths.AppDirName, paths.SkillsDirName))
	m, err := manager.NewWithPaths(p)
	require.NoError(t, err)
	return m
}

func claudeLink(home, folderName string) string {
	return filepath.Join(home, ".claude", "skills", folderName)
}

func TestNewWithPaths_ExplicitRootWinsOverConfig(t *testing.T) {
	home := t.TempDir()
	appDir := filepath.Join(home, paths.AppDirName)
	explicit := filepath.Join(home, "explicit-skills")

	cfg := config.Default()
	cfg.SkillsDir = filepath.Join(home, "config-skills")
	require.NoError(t, cfg.Save(filepath.Join(appDir, paths.ConfigFileName)))

	p := paths.NewWithHome(home, appDir, explicit)
	m, err := manager.NewWithPaths(p)
	require.NoError(t, err)

	assert.Equal(t, explicit, m.Paths().SkillsRoot(),
		"configured skills_dir does not displace an explicitly chosen root")
}

func TestCreate_SyncsToDetectedTarget(t *testing.T) {
	m, home := newTestManager(t)

	s, err := m.Create("my-skill", "A skill created by the facade tests")
	require.NoError(t, err)
	assert.Equal(t, "my-skill", s.FolderName)

	resolved, err := filepath.EvalSymlinks(claudeLink(home, "my-skill"))
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(s.Path)
	require.NoError(t, err)
	assert.Equal(t, expected, resolved)
}

func TestCreate_SlugifiesName(t *testing.T) {
	m, _ := newTestManager(t)

	s, err := m.Create("My Fancy Skill", "A skill created by the facade tests")
	require.NoError(t, err)
	assert.Equal(t, "my-fancy-skill", s.FolderName)
	assert.Equal(t, "my-fancy-skill", s.Meta.Name)
}

func TestCreate_Duplicate(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Create("my-skill", "A skill created by the facade tests")
	require.NoError(t, err)

	_, err = m.Create("my-skill", "Another skill with the same name")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSkillExists))
}

func TestGet_Unknown(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Get("nope")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSkillNotFound))
}

func TestDelete_RemovesSkillAndLink(t *testing.T) {
	m, home := newTestManager(t)
	s, err := m.Create("doomed", "A skill that is about to be deleted")
	require.NoError(t, err)

	require.NoError(t, m.Delete("doomed"))

	_, err = os.Stat(s.Path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(claudeLink(home, "doomed"))
	assert.True(t, os.IsNotExist(err), "no dangling projection may survive")
	_, err = m.Get("doomed")
	assert.Error(t, err)
}

func TestRename_MovesAndRelinks(t *testing.T) {
	m, home := newTestManager(t)
	_, err := m.Create("old-name", "A skill that is about to be renamed")
	require.NoError(t, err)

	s, err := m.Rename("old-name", "new-name")
	require.NoError(t, err)
	assert.Equal(t, "new-name", s.FolderName)

	// The frontmatter follows the folder
	reloaded, err := skill.Load(s.Path)
	require.NoError(t, err)
	assert.Equal(t, "new-name", reloaded.Meta.Name)

	_, err = os.Lstat(claudeLink(home, "old-name"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(claudeLink(home, "new-name"))
	assert.NoError(t, err)
}

func TestRename_RejectsInvalidName(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Create("fine", "A skill that will keep its name")
	require.NoError(t, err)

	_, err = m.Rename("fine", "not a valid name")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSkillNameInvalid))
}

func TestSetTargetEnabled_DisablePersistsAndUnlinks(t *testing.T) {
	m, home := newTestManager(t)
	_, err := m.Create("my-skill", "A skill created by the facade tests")
	require.NoError(t, err)

	require.NoError(t, m.SetTargetEnabled("claude-code", false))

	_, err = os.Lstat(claudeLink(home, "my-skill"))
	assert.True(t, os.IsNotExist(err))

	// A fresh process still sees the target disabled
	m2 := reopen(t, home)
	tgt, err := m2.Target("claude-code")
	require.NoError(t, err)
	assert.False(t, tgt.Enabled)
}

func TestSetSkillOverride_RemovesOnlyThatLink(t *testing.T) {
	m, home := newTestManager(t)
	_, err := m.Create("keep", "A skill that stays linked on the target")
	require.NoError(t, err)
	_, err = m.Create("hide", "A skill that gets hidden on the target")
	require.NoError(t, err)

	require.NoError(t, m.SetSkillOverride("claude-code", "hide", false))

	_, err = os.Lstat(claudeLink(home, "hide"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(claudeLink(home, "keep"))
	assert.NoError(t, err)
}

func TestAddFolderTarget_AndRemove(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Create("my-skill", "A skill created by the facade tests")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "notes")
	require.NoError(t, os.MkdirAll(dir, 0755))

	tgt, err := m.AddFolderTarget(dir)
	require.NoError(t, err)
	assert.Equal(t, "folder-notes", tgt.ID)
	assert.False(t, tgt.AutoDetected)

	// The new target was synced immediately
	_, err = os.Lstat(filepath.Join(dir, "my-skill"))
	assert.NoError(t, err)

	require.NoError(t, m.RemoveTarget(tgt.ID))
	_, err = os.Lstat(filepath.Join(dir, "my-skill"))
	assert.True(t, os.IsNotExist(err))
	_, err = m.Target(tgt.ID)
	assert.Error(t, err)
}

func TestRemoveTarget_RefusesAutoDetected(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.RemoveTarget("claude-code")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTargetBuiltin))
}

func TestValidateOnSync_WithholdsInvalidSkills(t *testing.T) {
	m, home := newTestManager(t)
	s, err := m.Create("soon-broken", "A skill that is about to lose its description")
	require.NoError(t, err)

	_, err = os.Lstat(claudeLink(home, "soon-broken"))
	require.NoError(t, err, "valid skill is linked")

	// Breaking the skill pulls it off every target on the next sync
	broken := "---\nname: soon-broken\n---\n\nbody\n"
	require.NoError(t, os.WriteFile(filepath.Join(s.Path, skill.FileName), []byte(broken), 0644))
	require.NoError(t, m.Refresh())
	m.SyncAll()

	_, err = os.Lstat(claudeLink(home, "soon-broken"))
	assert.True(t, os.IsNotExist(err))
}

func TestImportFromFolder_EndToEnd(t *testing.T) {
	m, home := newTestManager(t)

	src := t.TempDir()
	dir := filepath.Join(src, "incoming")
	require.NoError(t, os.MkdirAll(dir, 0755))
	doc := "---\nname: incoming\ndescription: An external skill for facade tests\n---\n\nbody\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, skill.FileName), []byte(doc), 0644))

	found, err := m.ScanFolderForImport(src)
	require.NoError(t, err)
	require.Len(t, found, 1)

	result, err := m.Import([]importer.Selection{{Discovered: found[0]}})
	require.NoError(t, err)
	assert.Equal(t, []string{"incoming"}, result.Imported)

	// The import landed in the repository and was projected out
	_, err = m.Get("incoming")
	require.NoError(t, err)
	_, err = os.Lstat(claudeLink(home, "incoming"))
	assert.NoError(t, err)
}

func TestSearch(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Create("alpha-sync", "Reconciles repository links for the search tests")
	require.NoError(t, err)
	_, err = m.Create("beta-notes", "Writes reminder notes during the search tests")
	require.NoError(t, err)

	matches := m.Search("sync")
	require.NotEmpty(t, matches)
	assert.Equal(t, "alpha-sync", matches[0].FolderName)

	all := m.Search("")
	assert.Len(t, all, 2)
}

func TestStats(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Create("counted", "A skill that shows up in the statistics")
	require.NoError(t, err)

	stats := m.Stats()
	assert.Equal(t, 1, stats.SkillCount)
	assert.Equal(t, 1, stats.TargetCount)
	assert.Equal(t, 1, stats.EnabledTargets)
	assert.Greater(t, stats.TotalSizeBytes, int64(0))
	// Created skills carry no license, so they land in warnings
	assert.Equal(t, 1, stats.WarningCount)
}

func TestVerify_ReportsDanglingPerTarget(t *testing.T) {
	m, _ := newTestManager(t)
	s, err := m.Create("vanishing", "A skill whose directory is about to disappear")
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(s.Path))

	dangling, err := m.Verify()
	require.NoError(t, err)
	assert.Equal(t, []string{"vanishing"}, dangling["claude-code"])
}
