// Package skill implements the skill data model: parsing SKILL.md
// documents with YAML frontmatter, repository discovery, creation and
// frontmatter repair.
//
// A skill is a directory containing a SKILL.md whose content starts
// with a frontmatter block:
//
//	---
//	name: my-skill
//	description: What this skill does
//	---
//
//	Skill content here...
package skill

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/agentloom/pkg/errors"
	"github.com/arthur-debert/agentloom/pkg/logging"
)

// FileName is the primary document looked for in skill directories.
const FileName = "SKILL.md"

// Conventional resource subdirectories probed during parsing.
const (
	ScriptsDir    = "scripts"
	ReferencesDir = "references"
	AssetsDir     = "assets"
)

// Skill is one repository entry.
type Skill struct {
	// FolderName is the directory name on disk, the stable identity
	FolderName string

	// Path is the absolute path of the skill directory
	Path string

	// Meta is the parsed frontmatter
	Meta Meta

	// Body is the markdown content after the frontmatter
	Body string

	// Conventional subdirectory presence, informational only
	HasScripts    bool
	HasReferences bool
	HasAssets     bool

	// LastModified and SizeBytes are recomputed on every discovery pass
	LastModified time.Time
	SizeBytes    int64

	// DocumentLines counts every line of SKILL.md, frontmatter included
	DocumentLines int

	// Status is the validation outcome; NotValidated until a caller
	// runs the validator
	Status ValidationStatus

	// ParseIssues records what lenient loading had to recover from
	ParseIssues []string
}

// Name returns the declared name from the frontmatter.
func (s *Skill) Name() string {
	return s.Meta.Name
}

// Description returns the declared description.
func (s *Skill) Description() string {
	return s.Meta.Description
}

// DocumentPath returns the path of the skill's SKILL.md.
func (s *Skill) DocumentPath() string {
	return filepath.Join(s.Path, FileName)
}

// Load parses the skill stored in dir. The parse is strict: a missing
// document, an unclosed frontmatter block, or a malformed header is an
// error and no Skill is returned.
func Load(dir string) (*Skill, error) {
	docPath := filepath.Join(dir, FileName)

	data, err := os.ReadFile(docPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrSkillFileMissing, "missing "+FileName).
				WithDetail("dir", dir)
		}
		return nil, errors.Wrap(err, errors.ErrFileAccess, "cannot read "+FileName).
			WithDetail("path", docPath)
	}

	header, body, err := splitFrontmatter(string(data))
	if err != nil {
		return nil, err
	}

	meta, err := decodeMeta(header)
	if err != nil {
		return nil, err
	}

	s := &Skill{
		FolderName:    filepath.Base(dir),
		Path:          dir,
		Meta:          meta,
		Body:          body,
		DocumentLines: countLines(string(data)),
	}
	s.refreshDerived()
	return s, nil
}

// LoadLenient always returns a Skill. Read failures and header decode
// failures are recovered best-effort (scalar fields scraped, metadata
// left empty) and recorded in ParseIssues, so broken external content
// stays discoverable for conflict and fix-preview purposes.
func LoadLenient(dir string) *Skill {
	folderName := filepath.Base(dir)
	docPath := filepath.Join(dir, FileName)

	s := &Skill{
		FolderName: folderName,
		Path:       dir,
		Meta:       Meta{Name: folderName, Metadata: NewMetadataMap()},
	}

	data, err := os.ReadFile(docPath)
	if err != nil {
		s.ParseIssues = []string{fmt.Sprintf("cannot read %s: %v", FileName, err)}
		s.Status = Invalid(nil)
		return s
	}

	s.DocumentLines = countLines(string(data))

	header, body, err := splitFrontmatter(string(data))
	if err != nil {
		s.Body = strings.TrimSpace(string(data))
		s.ParseIssues = []string{err.Error()}
		s.refreshDerived()
		return s
	}
	s.Body = body

	meta, err := decodeMeta(header)
	if err != nil {
		s.Meta = decodeMetaLenient(header, folderName)
		s.ParseIssues = []string{err.Error()}
		if result := Normalize(header, folderName); result.Modified {
			s.ParseIssues = append(s.ParseIssues,
				"frontmatter can be auto-fixed: "+strings.Join(result.Fixes, ", "))
		}
	} else {
		s.Meta = meta
	}

	s.refreshDerived()
	return s
}

// refreshDerived recomputes filesystem-derived fields and the presence
// of conventional subdirectories.
func (s *Skill) refreshDerived() {
	s.HasScripts = dirExists(filepath.Join(s.Path, ScriptsDir))
	s.HasReferences = dirExists(filepath.Join(s.Path, ReferencesDir))
	s.HasAssets = dirExists(filepath.Join(s.Path, AssetsDir))

	if info, err := os.Stat(s.DocumentPath()); err == nil {
		s.LastModified = info.ModTime()
	}

	var size int64
	_ = filepath.WalkDir(s.Path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	s.SizeBytes = size
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func countLines(contents string) int {
	if contents == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(contents, "\n"), "\n") + 1
}

// Create writes a new skill directory with a templated SKILL.md under
// root and loads it back.
func Create(root, name, description string) (*Skill, error) {
	dir := filepath.Join(root, name)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, errors.ErrDirCreate, "cannot create skill directory").
			WithDetail("path", dir)
	}

	content := Template(name, description)
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		return nil, errors.Wrap(err, errors.ErrFileWrite, "cannot write "+FileName).
			WithDetail("path", dir)
	}

	return Load(dir)
}

// Template renders the default document for a new skill.
func Template(name, description string) string {
	return fmt.Sprintf(`---
name: %s
description: %s
---

# %s

%s
`, name, description, name, description)
}

// RawContent reads the full SKILL.md back from disk.
func (s *Skill) RawContent() (string, error) {
	data, err := os.ReadFile(s.DocumentPath())
	if err != nil {
		return "", errors.Wrap(err, errors.ErrFileAccess, "cannot read "+FileName).
			WithDetail("path", s.DocumentPath())
	}
	return string(data), nil
}

// SaveContent writes content to SKILL.md and re-parses it. The write
// always happens, even for content whose header no longer parses, so a
// work-in-progress document is never lost; in that case the old Meta is
// kept and the status flips to Invalid.
func (s *Skill) SaveContent(content string) error {
	if err := os.WriteFile(s.DocumentPath(), []byte(content), 0644); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "cannot write "+FileName).
			WithDetail("path", s.DocumentPath())
	}
	s.DocumentLines = countLines(content)

	header, body, err := splitFrontmatter(content)
	if err == nil {
		var meta Meta
		if meta, err = decodeMeta(header); err == nil {
			s.Meta = meta
			s.Body = body
			s.Status = NotValidated()
			s.ParseIssues = nil
			s.refreshDerived()
			return nil
		}
	}

	s.Body = content
	s.Status = Invalid(nil)
	s.ParseIssues = []string{err.Error()}
	s.refreshDerived()
	return nil
}

// FixFrontmatter normalizes the document's header in place and returns
// the fixes applied, or an empty list when nothing needed fixing. An
// unclosed frontmatter block cannot be repaired safely and is left
// untouched.
func (s *Skill) FixFrontmatter() ([]string, error) {
	contents, err := s.RawContent()
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimLeft(contents, " \t\r\n")
	if !strings.HasPrefix(trimmed, Marker) {
		meta := s.Meta
		meta.Name = s.FolderName
		if meta.Description == "" {
			meta.Description = "No description provided"
		}
		rebuilt := fmt.Sprintf("---\n%s\n---\n\n%s", encodeMeta(meta), contents)
		if err := s.SaveContent(rebuilt); err != nil {
			return nil, err
		}
		return []string{"Added missing frontmatter"}, nil
	}

	header, body, err := splitFrontmatter(contents)
	if err != nil {
		return nil, nil
	}

	result := Normalize(header, s.FolderName)
	if !result.Modified {
		return nil, nil
	}

	rebuilt := fmt.Sprintf("---\n%s\n---\n\n%s\n", result.Header, body)
	if err := s.SaveContent(rebuilt); err != nil {
		return nil, err
	}
	return result.Fixes, nil
}

// Discover walks one level of the repository root and lenient-loads
// every subdirectory holding a SKILL.md. A missing root yields an empty
// set. Results are sorted by folder name for deterministic output.
func Discover(root string) ([]*Skill, error) {
	logger := logging.GetLogger("skill.discovery")

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrFileAccess, "cannot read skills root").
			WithDetail("path", root)
	}

	var skills []*Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
			continue
		}

		s := LoadLenient(dir)
		if len(s.ParseIssues) > 0 {
			logger.Warn().Str("skill", s.FolderName).
				Strs("issues", s.ParseIssues).
				Msg("Skill has parse issues")
		}
		skills = append(skills, s)
	}

	sort.Slice(skills, func(i, j int) bool {
		return skills[i].FolderName < skills[j].FolderName
	})

	logger.Debug().Int("count", len(skills)).Str("root", root).Msg("Discovered skills")
	return skills, nil
}
