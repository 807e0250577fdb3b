// Package syncer reconciles the skill repository against target
// directories via symlinks.
//
// The syncer only ever creates or removes managed entries: symlinks
// whose resolved path lies under the repository root. Anything else in
// a target directory (regular files, directories, symlinks pointing
// elsewhere) is not ours and is never touched.
package syncer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/arthur-debert/agentloom/pkg/logging"
	"github.com/arthur-debert/agentloom/pkg/skill"
	"github.com/arthur-debert/agentloom/pkg/target"
)

// Result is the per-target outcome of one reconciliation pass. It is a
// pure report; it never mutates state.
type Result struct {
	TargetID   string
	TargetName string

	// Folder names of links created, removed, and left untouched
	Created   []string
	Removed   []string
	Unchanged []string

	// Errors captured per skill/target; a non-empty list still means
	// every other entry was processed
	Errors []Error
}

// Error is one failed step, attributed to a skill when applicable.
type Error struct {
	// Skill is the folder name, empty for target-level failures
	Skill string

	Message string
}

// Success reports whether the pass completed without errors.
func (r *Result) Success() bool {
	return len(r.Errors) == 0
}

// addError records a failure without aborting the pass.
func (r *Result) addError(skillName, message string) {
	r.Errors = append(r.Errors, Error{Skill: skillName, Message: message})
}

// Syncer reconciles targets against the repository root. It is safe for
// concurrent use: at most one pass runs per target at a time.
type Syncer struct {
	repoRoot string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Syncer for the given repository root. The root is
// canonicalized once so ownership checks are immune to relative link
// targets and path aliasing.
func New(repoRoot string) *Syncer {
	return &Syncer{
		repoRoot: canonicalize(repoRoot),
		locks:    make(map[string]*sync.Mutex),
	}
}

// targetLock returns the mutex serializing passes for one target id.
func (s *Syncer) targetLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// Sync reconciles one target against the desired skill set. The skills
// argument is the repository-enabled set; per-target overrides are
// applied here. Disabled targets return an empty result without any
// filesystem access.
func (s *Syncer) Sync(t *target.Target, skills []*skill.Skill) Result {
	result := Result{TargetID: t.ID, TargetName: t.Name}

	if !t.Enabled {
		return result
	}

	lock := s.targetLock(t.ID)
	lock.Lock()
	defer lock.Unlock()

	logger := logging.GetLogger("syncer")

	if err := t.EnsureSkillsDir(); err != nil {
		result.addError("", err.Error())
		return result
	}

	entries, foreign, err := s.classifyEntries(t)
	if err != nil {
		result.addError("", err.Error())
		return result
	}

	desired := make(map[string]*skill.Skill)
	for _, sk := range skills {
		if t.SkillEnabled(sk.FolderName) {
			desired[sk.FolderName] = sk
		}
	}

	// Create or repair links for desired skills
	names := make([]string, 0, len(desired))
	for name := range desired {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sk := desired[name]
		linkPath := t.LinkPath(name)

		entry, managed := entries[name]
		switch {
		case managed && !entry.dangling && entry.resolved == canonicalize(sk.Path):
			result.Unchanged = append(result.Unchanged, name)
		case managed:
			// Dangling or pointing at the wrong repository entry:
			// ours either way, replace it
			if err := os.Remove(linkPath); err != nil {
				result.addError(name, "failed to replace managed link: "+err.Error())
				continue
			}
			if err := os.Symlink(sk.Path, linkPath); err != nil {
				result.addError(name, "failed to create symlink: "+err.Error())
				continue
			}
			result.Created = append(result.Created, name)
		case foreign[name]:
			result.addError(name, "path exists and is not managed by agentloom: "+linkPath)
		default:
			if err := os.Symlink(sk.Path, linkPath); err != nil {
				result.addError(name, "failed to create symlink: "+err.Error())
				continue
			}
			result.Created = append(result.Created, name)
		}
	}

	// Remove managed links whose skill is no longer desired
	var managedNames []string
	for name := range entries {
		managedNames = append(managedNames, name)
	}
	sort.Strings(managedNames)

	for _, name := range managedNames {
		if _, ok := desired[name]; ok {
			continue
		}
		if err := os.Remove(t.LinkPath(name)); err != nil {
			result.addError(name, "failed to remove stale symlink: "+err.Error())
			continue
		}
		result.Removed = append(result.Removed, name)
	}

	logger.Info().Str("target", t.ID).
		Int("created", len(result.Created)).
		Int("removed", len(result.Removed)).
		Int("unchanged", len(result.Unchanged)).
		Int("errors", len(result.Errors)).
		Msg("Sync pass complete")

	return result
}

// SyncAll reconciles every target independently; one target's failure
// never blocks another.
func (s *Syncer) SyncAll(targets []*target.Target, skills []*skill.Skill) []Result {
	results := make([]Result, 0, len(targets))
	for _, t := range targets {
		results = append(results, s.Sync(t, skills))
	}
	return results
}

// Verify scans a target's managed entries for dangling links without
// mutating anything. Returns the folder names whose link target no
// longer exists.
func (s *Syncer) Verify(t *target.Target) ([]string, error) {
	entries, _, err := s.classifyEntries(t)
	if err != nil {
		return nil, err
	}

	var dangling []string
	for name, entry := range entries {
		if entry.dangling {
			dangling = append(dangling, name)
		}
	}
	sort.Strings(dangling)
	return dangling, nil
}

// RemoveAll unlinks every managed entry on a target, used when a target
// is being disabled or removed. Foreign entries are untouched.
func (s *Syncer) RemoveAll(t *target.Target) ([]string, error) {
	lock := s.targetLock(t.ID)
	lock.Lock()
	defer lock.Unlock()

	if !t.SkillsDirExists() {
		return nil, nil
	}

	entries, _, err := s.classifyEntries(t)
	if err != nil {
		return nil, err
	}

	var removed []string
	for name := range entries {
		if err := os.Remove(t.LinkPath(name)); err != nil {
			return removed, err
		}
		removed = append(removed, name)
	}
	sort.Strings(removed)
	return removed, nil
}

// managedEntry describes one symlink we own in a target directory.
type managedEntry struct {
	// resolved is the canonicalized link destination, empty when
	// dangling
	resolved string

	// dangling means the link destination no longer exists
	dangling bool
}

// classifyEntries lists a target directory and separates managed
// symlinks from foreign entries. A missing directory yields empty maps.
func (s *Syncer) classifyEntries(t *target.Target) (map[string]managedEntry, map[string]bool, error) {
	managed := make(map[string]managedEntry)
	foreign := make(map[string]bool)

	dirEntries, err := os.ReadDir(t.SkillsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return managed, foreign, nil
		}
		return nil, nil, err
	}

	for _, entry := range dirEntries {
		name := entry.Name()
		linkPath := t.LinkPath(name)

		info, err := os.Lstat(linkPath)
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			foreign[name] = true
			continue
		}

		raw, err := os.Readlink(linkPath)
		if err != nil {
			foreign[name] = true
			continue
		}
		if !filepath.IsAbs(raw) {
			raw = filepath.Join(t.SkillsPath, raw)
		}

		resolved, err := filepath.EvalSymlinks(raw)
		if err != nil {
			// Dangling: canonicalize the parent directory and use the
			// cleaned destination for the ownership check
			dir, base := filepath.Split(filepath.Clean(raw))
			if resolvedDir, derr := filepath.EvalSymlinks(filepath.Clean(dir)); derr == nil {
				raw = filepath.Join(resolvedDir, base)
			}
			if isUnder(filepath.Clean(raw), s.repoRoot) {
				managed[name] = managedEntry{dangling: true}
			} else {
				foreign[name] = true
			}
			continue
		}

		if isUnder(resolved, s.repoRoot) {
			managed[name] = managedEntry{resolved: resolved}
		} else {
			foreign[name] = true
		}
	}

	return managed, foreign, nil
}

// canonicalize resolves symlinks and returns a cleaned absolute path.
// Paths that cannot be resolved (not yet existing) are cleaned only.
func canonicalize(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// isUnder reports whether path lies within root. Both arguments must
// already be canonicalized.
func isUnder(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "")
}
