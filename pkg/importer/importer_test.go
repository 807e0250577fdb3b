// Test Type: Unit Test
// Description: Tests for the importer package - scanning, conflict
// detection and additive copies

package importer_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/agentloom/pkg/importer"
	"github.com/arthur-debert/agentloom/pkg/skill"
	"github.com/arthur-debert/agentloom/pkg/target"
)

// writeExternalSkill creates a skill folder outside the repository.
func writeExternalSkill(t *testing.T, parent, folderName, content string) string {
	t.Helper()
	dir := filepath.Join(parent, folderName)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, skill.FileName), []byte(content), 0644))
	return dir
}

func validDoc(name string) string {
	return "---\nname: " + name + "\ndescription: An external skill for import tests\n---\n\nbody\n"
}

func TestScanFolder_FindsSkills(t *testing.T) {
	repo := t.TempDir()
	src := t.TempDir()
	writeExternalSkill(t, src, "beta", validDoc("beta"))
	writeExternalSkill(t, filepath.Join(src, "nested", "deeper"), "alpha", validDoc("alpha"))
	// A folder with no SKILL.md is not a skill
	require.NoError(t, os.MkdirAll(filepath.Join(src, "not-a-skill"), 0755))

	found, err := importer.New(repo).ScanFolder(src)
	require.NoError(t, err)

	require.Len(t, found, 2)
	assert.Equal(t, "alpha", found[0].FolderName)
	assert.Equal(t, "beta", found[1].FolderName)
	assert.Empty(t, found[0].SourceTarget)
}

func TestScanFolder_SkipsSkillSubdirectories(t *testing.T) {
	repo := t.TempDir()
	src := t.TempDir()
	dir := writeExternalSkill(t, src, "outer", validDoc("outer"))
	// A SKILL.md inside the skill's own resources is not a second skill
	writeExternalSkill(t, dir, "references", validDoc("inner"))

	found, err := importer.New(repo).ScanFolder(src)
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, "outer", found[0].FolderName)
}

func TestScanFolder_SanitizesFolderName(t *testing.T) {
	repo := t.TempDir()
	src := t.TempDir()
	writeExternalSkill(t, src, "My Skill", validDoc("My Skill"))

	found, err := importer.New(repo).ScanFolder(src)
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, "my-skill", found[0].FolderName)
	assert.NotEmpty(t, found[0].Fixes, "the frontmatter name needs fixing too")
}

func TestScanFolder_DetectsConflicts(t *testing.T) {
	repo := t.TempDir()
	_, err := skill.Create(repo, "taken", "The skill already in the repository")
	require.NoError(t, err)

	src := t.TempDir()
	writeExternalSkill(t, src, "taken", validDoc("taken"))
	writeExternalSkill(t, src, "free", validDoc("free"))

	found, err := importer.New(repo).ScanFolder(src)
	require.NoError(t, err)

	require.Len(t, found, 2)
	assert.Nil(t, found[0].Conflict, "free has no conflict")
	require.NotNil(t, found[1].Conflict)
	assert.Equal(t, filepath.Join(repo, "taken"), found[1].Conflict.ExistingPath)
	assert.Equal(t, "The skill already in the repository", found[1].Conflict.ExistingDescription)
}

func TestScanFolder_FixPreview(t *testing.T) {
	repo := t.TempDir()
	src := t.TempDir()
	writeExternalSkill(t, src, "no-description", "---\nname: no-description\n---\n\nbody\n")

	found, err := importer.New(repo).ScanFolder(src)
	require.NoError(t, err)

	require.Len(t, found, 1)
	require.Len(t, found[0].Fixes, 1)
	assert.Contains(t, found[0].Fixes[0], "description")
}

func TestScanFolder_NotADirectory(t *testing.T) {
	repo := t.TempDir()
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := importer.New(repo).ScanFolder(file)
	assert.Error(t, err)
}

func TestScanTargets_SkipsOwnProjections(t *testing.T) {
	repo := t.TempDir()
	repoSkill, err := skill.Create(repo, "projected", "A skill the syncer linked out")
	require.NoError(t, err)

	tgt := &target.Target{
		ID:         "claude-code",
		Name:       "Claude Code",
		SkillsPath: filepath.Join(t.TempDir(), "skills"),
		Enabled:    true,
	}
	require.NoError(t, tgt.EnsureSkillsDir())

	// One of our own links and one genuinely external skill
	require.NoError(t, os.Symlink(repoSkill.Path, tgt.LinkPath("projected")))
	writeExternalSkill(t, tgt.SkillsPath, "external", validDoc("external"))

	found := importer.New(repo).ScanTargets([]*target.Target{tgt})

	require.Len(t, found, 1)
	assert.Equal(t, "external", found[0].FolderName)
	assert.Equal(t, "claude-code", found[0].SourceTarget)
}

func TestScanTargets_SkipsDisabledTargets(t *testing.T) {
	repo := t.TempDir()

	tgt := &target.Target{
		ID:         "codex",
		Name:       "Codex",
		SkillsPath: filepath.Join(t.TempDir(), "skills"),
		Enabled:    false,
	}
	require.NoError(t, tgt.EnsureSkillsDir())
	writeExternalSkill(t, tgt.SkillsPath, "external", validDoc("external"))

	found := importer.New(repo).ScanTargets([]*target.Target{tgt})
	assert.Empty(t, found, "disabled targets are not scanned")
}

func TestImport_IsAdditive(t *testing.T) {
	repo := t.TempDir()
	src := t.TempDir()
	srcDir := writeExternalSkill(t, src, "incoming", validDoc("incoming"))

	im := importer.New(repo)
	found, err := im.ScanFolder(src)
	require.NoError(t, err)

	result := im.Import([]importer.Selection{{Discovered: found[0]}})

	assert.Equal(t, []string{"incoming"}, result.Imported)
	assert.Empty(t, result.Errors)

	// The repository copy exists and the source is untouched
	_, err = skill.Load(filepath.Join(repo, "incoming"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(srcDir, skill.FileName))
	assert.NoError(t, err)
}

func TestImport_CopiesResources(t *testing.T) {
	repo := t.TempDir()
	src := t.TempDir()
	srcDir := writeExternalSkill(t, src, "incoming", validDoc("incoming"))
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "scripts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "scripts", "run.sh"), []byte("echo hi\n"), 0755))

	im := importer.New(repo)
	found, err := im.ScanFolder(src)
	require.NoError(t, err)

	result := im.Import([]importer.Selection{{Discovered: found[0]}})
	require.Empty(t, result.Errors)

	data, err := os.ReadFile(filepath.Join(repo, "incoming", "scripts", "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, "echo hi\n", string(data))
}

func TestImport_AppliesFrontmatterFixes(t *testing.T) {
	repo := t.TempDir()
	src := t.TempDir()
	writeExternalSkill(t, src, "Messy Name", "---\nname: Messy Name\n---\n\nbody\n")

	im := importer.New(repo)
	found, err := im.ScanFolder(src)
	require.NoError(t, err)
	require.Len(t, found, 1)

	result := im.Import([]importer.Selection{{Discovered: found[0]}})
	require.Empty(t, result.Errors)

	imported, err := skill.Load(filepath.Join(repo, "messy-name"))
	require.NoError(t, err)
	assert.Equal(t, "messy-name", imported.Meta.Name)
	assert.NotEmpty(t, imported.Meta.Description)

	// The messy source document was not repaired in place
	raw, err := os.ReadFile(filepath.Join(src, "Messy Name", skill.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Messy Name")
}

func TestImport_SkipFixesKeepsDocumentVerbatim(t *testing.T) {
	repo := t.TempDir()
	src := t.TempDir()
	doc := "---\nname: wrong-name\n---\n\nbody\n"
	writeExternalSkill(t, src, "as-found", doc)

	im := importer.New(repo)
	found, err := im.ScanFolder(src)
	require.NoError(t, err)
	require.Len(t, found, 1)

	result := im.Import([]importer.Selection{{Discovered: found[0], SkipFixes: true}})
	require.Empty(t, result.Errors)

	raw, err := os.ReadFile(filepath.Join(repo, "as-found", skill.FileName))
	require.NoError(t, err)
	assert.Equal(t, doc, string(raw))
}

func TestImport_Resolutions(t *testing.T) {
	repo := t.TempDir()
	_, err := skill.Create(repo, "taken", "Original repository copy")
	require.NoError(t, err)

	src := t.TempDir()
	writeExternalSkill(t, src, "taken", validDoc("taken"))

	im := importer.New(repo)
	found, err := im.ScanFolder(src)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.NotNil(t, found[0].Conflict)

	t.Run("default_import_errors_on_conflict", func(t *testing.T) {
		result := im.Import([]importer.Selection{{Discovered: found[0]}})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "taken", result.Errors[0].Skill)

		s, err := skill.Load(filepath.Join(repo, "taken"))
		require.NoError(t, err)
		assert.Equal(t, "Original repository copy", s.Meta.Description)
	})

	t.Run("skip_leaves_both_sides_alone", func(t *testing.T) {
		result := im.Import([]importer.Selection{{
			Discovered: found[0],
			Resolution: importer.ResolutionSkip,
		}})
		assert.Equal(t, []string{"taken"}, result.Skipped)
		assert.Empty(t, result.Errors)
	})

	t.Run("overwrite_replaces_repository_copy", func(t *testing.T) {
		result := im.Import([]importer.Selection{{
			Discovered: found[0],
			Resolution: importer.ResolutionOverwrite,
		}})
		assert.Equal(t, []string{"taken"}, result.Overwritten)
		assert.Empty(t, result.Errors)

		s, err := skill.Load(filepath.Join(repo, "taken"))
		require.NoError(t, err)
		assert.Equal(t, "An external skill for import tests", s.Meta.Description)
	})
}

func TestImport_BatchErrorsAreIsolated(t *testing.T) {
	repo := t.TempDir()
	_, err := skill.Create(repo, "taken", "Original repository copy")
	require.NoError(t, err)

	src := t.TempDir()
	writeExternalSkill(t, src, "taken", validDoc("taken"))
	writeExternalSkill(t, src, "fine", validDoc("fine"))

	im := importer.New(repo)
	found, err := im.ScanFolder(src)
	require.NoError(t, err)
	require.Len(t, found, 2)

	selections := make([]importer.Selection, len(found))
	for i, d := range found {
		selections[i] = importer.Selection{Discovered: d}
	}
	result := im.Import(selections)

	assert.Equal(t, []string{"fine"}, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "taken", result.Errors[0].Skill)
}

func TestScanFolder_DepthLimit(t *testing.T) {
	repo := t.TempDir()
	src := t.TempDir()

	deep := src
	for i := 0; i < 7; i++ {
		deep = filepath.Join(deep, "level")
	}
	writeExternalSkill(t, filepath.Join(deep, ".."), "too-deep", validDoc("too-deep"))
	writeExternalSkill(t, src, "shallow", validDoc("shallow"))

	found, err := importer.New(repo).ScanFolder(src)
	require.NoError(t, err)

	names := make([]string, 0, len(found))
	for _, d := range found {
		names = append(names, d.FolderName)
	}
	assert.Contains(t, names, "shallow")
	assert.NotContains(t, names, "too-deep")
}

func TestScanFolder_ParseIssuesSurfaced(t *testing.T) {
	repo := t.TempDir()
	src := t.TempDir()
	writeExternalSkill(t, src, "broken", "no frontmatter here\n")

	found, err := importer.New(repo).ScanFolder(src)
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.NotEmpty(t, found[0].ParseIssues)
	assert.True(t, strings.Contains(found[0].Fixes[0], "frontmatter"))
}

func TestFolderScanRoot_IsItselfASkill(t *testing.T) {
	repo := t.TempDir()
	src := t.TempDir()
	dir := writeExternalSkill(t, src, "the-skill", validDoc("the-skill"))

	found, err := importer.New(repo).ScanFolder(dir)
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, "the-skill", found[0].FolderName)
}
