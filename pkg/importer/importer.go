// Package importer discovers skills living outside the repository, in
// target directories or arbitrary folders, and copies them in.
//
// Importing is additive: the source is never deleted or modified, only
// the repository copy is written (and its frontmatter repaired).
package importer

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/agentloom/pkg/errors"
	"github.com/arthur-debert/agentloom/pkg/logging"
	"github.com/arthur-debert/agentloom/pkg/skill"
	"github.com/arthur-debert/agentloom/pkg/target"
)

// maxScanDepth bounds folder scans so a scan pointed at a home
// directory stays cheap.
const maxScanDepth = 5

// ConflictInfo describes the repository skill an import would collide
// with.
type ConflictInfo struct {
	ExistingPath        string
	ExistingDescription string
}

// Discovered is one importable skill found during a scan.
type Discovered struct {
	// FolderName is the destination folder in the repository, already
	// sanitized to the allowed charset
	FolderName string

	// Name and Description come from the source document's frontmatter
	Name        string
	Description string

	// SourcePath is the directory the skill was found in
	SourcePath string

	// SourceTarget is the target id the skill came from, empty for
	// folder scans
	SourceTarget string

	// Conflict is set when a repository skill already owns FolderName
	Conflict *ConflictInfo

	// Fixes previews the frontmatter repairs an import would apply
	Fixes []string

	// ParseIssues records what lenient parsing had to recover from
	ParseIssues []string
}

// Resolution decides what to do with one discovered skill. The zero
// value imports.
type Resolution int

const (
	ResolutionImport Resolution = iota
	ResolutionSkip
	ResolutionOverwrite
)

// Selection pairs a discovery with its resolution.
type Selection struct {
	Discovered *Discovered
	Resolution Resolution

	// SkipFixes leaves the copied frontmatter exactly as found instead
	// of applying the previewed repairs
	SkipFixes bool
}

// Result summarizes one import batch.
type Result struct {
	Imported    []string
	Skipped     []string
	Overwritten []string
	Errors      []Error
}

// Error is one failed import, attributed to its destination folder.
type Error struct {
	Skill   string
	Message string
}

// Importer scans for external skills and copies them into the
// repository root.
type Importer struct {
	repoRoot string
}

// New creates an Importer rooted at the repository skills directory.
func New(repoRoot string) *Importer {
	root := repoRoot
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Importer{repoRoot: filepath.Clean(root)}
}

// ScanTargets looks one level deep inside each enabled target's skills
// directory. Symlinks pointing back into the repository are our own
// projections and are skipped; everything else holding a SKILL.md is a
// candidate.
func (im *Importer) ScanTargets(targets []*target.Target) []*Discovered {
	logger := logging.GetLogger("importer")

	var found []*Discovered
	for _, t := range targets {
		if !t.Enabled {
			continue
		}
		entries, err := os.ReadDir(t.SkillsPath)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			dir := filepath.Join(t.SkillsPath, entry.Name())
			if im.ownProjection(dir) {
				continue
			}
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(dir, skill.FileName)); err != nil {
				continue
			}
			d := im.describe(dir)
			d.SourceTarget = t.ID
			found = append(found, d)
		}
	}

	sortDiscovered(found)
	logger.Debug().Int("count", len(found)).Msg("Scanned targets for importable skills")
	return found
}

// ScanFolder walks a directory tree looking for skill folders, up to a
// fixed depth. The scan root itself may be a skill folder.
func (im *Importer) ScanFolder(root string) ([]*Discovered, error) {
	logger := logging.GetLogger("importer")

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileAccess, "cannot scan folder").
			WithDetail("path", root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrFileAccess, "scan path is not a directory").
			WithDetail("path", root)
	}

	var found []*Discovered
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if depth(root, path) > maxScanDepth {
			return fs.SkipDir
		}
		if _, err := os.Stat(filepath.Join(path, skill.FileName)); err != nil {
			return nil
		}
		found = append(found, im.describe(path))
		// A skill folder's subdirectories are resources, not skills
		return fs.SkipDir
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileAccess, "folder scan failed").
			WithDetail("path", root)
	}

	sortDiscovered(found)
	logger.Debug().Int("count", len(found)).Str("root", root).Msg("Scanned folder for importable skills")
	return found, nil
}

// Import copies each selected skill into the repository. Items fail
// independently; one bad copy never aborts the batch. Sources are left
// untouched.
func (im *Importer) Import(selections []Selection) Result {
	logger := logging.GetLogger("importer")

	var result Result
	for _, sel := range selections {
		d := sel.Discovered
		dest := filepath.Join(im.repoRoot, d.FolderName)

		switch sel.Resolution {
		case ResolutionSkip:
			result.Skipped = append(result.Skipped, d.FolderName)
			continue
		case ResolutionOverwrite:
			if err := os.RemoveAll(dest); err != nil {
				result.Errors = append(result.Errors, Error{
					Skill:   d.FolderName,
					Message: "cannot replace existing skill: " + err.Error(),
				})
				continue
			}
		default:
			if _, err := os.Stat(dest); err == nil {
				result.Errors = append(result.Errors, Error{
					Skill:   d.FolderName,
					Message: "skill already exists in the repository",
				})
				continue
			}
		}

		if err := copyTree(d.SourcePath, dest); err != nil {
			// Leave no partial copy behind
			_ = os.RemoveAll(dest)
			result.Errors = append(result.Errors, Error{
				Skill:   d.FolderName,
				Message: "copy failed: " + err.Error(),
			})
			continue
		}

		if !sel.SkipFixes {
			imported := skill.LoadLenient(dest)
			if _, err := imported.FixFrontmatter(); err != nil {
				logger.Warn().Str("skill", d.FolderName).Err(err).
					Msg("Imported skill kept unrepaired frontmatter")
			}
		}

		if sel.Resolution == ResolutionOverwrite {
			result.Overwritten = append(result.Overwritten, d.FolderName)
		} else {
			result.Imported = append(result.Imported, d.FolderName)
		}
	}

	logger.Info().
		Int("imported", len(result.Imported)).
		Int("overwritten", len(result.Overwritten)).
		Int("skipped", len(result.Skipped)).
		Int("errors", len(result.Errors)).
		Msg("Import batch complete")
	return result
}

// describe builds the discovery record for one candidate directory.
func (im *Importer) describe(dir string) *Discovered {
	s := skill.LoadLenient(dir)

	folderName := filepath.Base(dir)
	if !skill.IsValidName(folderName) {
		folderName = skill.Slug(folderName)
	}

	d := &Discovered{
		FolderName:  folderName,
		Name:        s.Meta.Name,
		Description: s.Meta.Description,
		SourcePath:  dir,
		ParseIssues: s.ParseIssues,
	}

	if raw, err := s.RawContent(); err == nil {
		if header, _, err := splitForPreview(raw); err == nil {
			if result := skill.Normalize(header, folderName); result.Modified {
				d.Fixes = result.Fixes
			}
		} else {
			d.Fixes = []string{"add missing frontmatter"}
		}
	}

	existing := filepath.Join(im.repoRoot, folderName)
	if info, err := os.Stat(existing); err == nil && info.IsDir() {
		conflict := &ConflictInfo{ExistingPath: existing}
		conflict.ExistingDescription = skill.LoadLenient(existing).Meta.Description
		d.Conflict = conflict
	}

	return d
}

// ownProjection reports whether path is a symlink resolving into the
// repository, i.e. a link the syncer put there.
func (im *Importer) ownProjection(path string) bool {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return false
	}
	raw, err := os.Readlink(path)
	if err != nil {
		return false
	}
	if !filepath.IsAbs(raw) {
		raw = filepath.Join(filepath.Dir(path), raw)
	}
	resolved, err := filepath.EvalSymlinks(raw)
	if err != nil {
		resolved = filepath.Clean(raw)
	}
	rel, err := filepath.Rel(im.repoRoot, resolved)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

// splitForPreview checks whether a document carries a well-formed
// frontmatter block and returns its header for the fix preview.
func splitForPreview(contents string) (string, string, error) {
	trimmed := strings.TrimLeft(contents, " \t\r\n")
	if !strings.HasPrefix(trimmed, skill.Marker) {
		return "", "", errors.New(errors.ErrFrontmatterMissing, "no frontmatter block")
	}
	rest := trimmed[len(skill.Marker):]
	end := strings.Index(rest, "\n"+skill.Marker)
	if end < 0 {
		return "", "", errors.New(errors.ErrFrontmatterOpen, "frontmatter block not closed")
	}
	return strings.TrimSpace(rest[:end]), strings.TrimSpace(rest[end+len(skill.Marker)+1:]), nil
}

// copyTree copies a directory recursively. Symlinks are recreated as
// symlinks; special files are skipped.
func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		outPath := filepath.Join(dest, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			linkTarget, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(linkTarget, outPath)
		case d.IsDir():
			return os.MkdirAll(outPath, 0755)
		case d.Type().IsRegular():
			return copyFile(path, outPath)
		default:
			return nil
		}
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func sortDiscovered(found []*Discovered) {
	sort.Slice(found, func(i, j int) bool {
		if found[i].FolderName != found[j].FolderName {
			return found[i].FolderName < found[j].FolderName
		}
		return found[i].SourcePath < found[j].SourcePath
	})
}
