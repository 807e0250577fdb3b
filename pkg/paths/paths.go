// Package paths provides centralized path handling for agentloom.
// All home-derived locations are resolved once, at construction time,
// and passed into the engine explicitly so tests can substitute
// temporary directories without touching the environment.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/arthur-debert/agentloom/pkg/errors"
)

// Environment variable names
const (
	// EnvSkillsRoot overrides the skills repository location
	EnvSkillsRoot = "AGENTLOOM_SKILLS_DIR"

	// EnvAppDir overrides the application directory (config file location)
	EnvAppDir = "AGENTLOOM_DIR"
)

// Default directories and files
const (
	// AppDirName is the directory name for agentloom files under home
	AppDirName = ".agentloom"

	// SkillsDirName is the subdirectory holding the skill repository
	SkillsDirName = "skills"

	// ConfigFileName is the name of the configuration file
	ConfigFileName = "config.toml"

	// LogFileName is the name of the log file
	LogFileName = "agentloom.log"
)

// Paths resolves every filesystem location agentloom cares about.
type Paths struct {
	home       string
	appDir     string
	skillsRoot string

	// rootDefaulted is true when the skills root came from the default
	// location rather than a caller argument or the environment
	rootDefaulted bool
}

// New creates a Paths instance. skillsRoot may be empty, in which case
// it is resolved from AGENTLOOM_SKILLS_DIR or the default under the
// application directory.
func New(skillsRoot string) (*Paths, error) {
	home := xdg.Home
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrFileAccess, "cannot determine home directory")
		}
		home = h
	}

	appDir := os.Getenv(EnvAppDir)
	if appDir == "" {
		appDir = filepath.Join(home, AppDirName)
	}

	if skillsRoot == "" {
		skillsRoot = os.Getenv(EnvSkillsRoot)
	}
	rootDefaulted := skillsRoot == ""
	if rootDefaulted {
		skillsRoot = filepath.Join(appDir, SkillsDirName)
	}

	absRoot, err := filepath.Abs(expandHome(skillsRoot, home))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to resolve skills root %q", skillsRoot)
	}

	return &Paths{
		home:          home,
		appDir:        appDir,
		skillsRoot:    absRoot,
		rootDefaulted: rootDefaulted,
	}, nil
}

// NewWithHome builds Paths from explicit directories, bypassing the
// environment. Tests use this to point everything at temp directories.
func NewWithHome(home, appDir, skillsRoot string) *Paths {
	return &Paths{
		home:       home,
		appDir:     appDir,
		skillsRoot: skillsRoot,
	}
}

// Home returns the user's home directory.
func (p *Paths) Home() string {
	return p.home
}

// AppDir returns the application directory (config file location).
func (p *Paths) AppDir() string {
	return p.appDir
}

// SkillsRoot returns the absolute path of the skill repository root.
func (p *Paths) SkillsRoot() string {
	return p.skillsRoot
}

// SkillsRootDefaulted reports whether the skills root fell back to the
// default location. A root set via flag, argument or environment is
// never defaulted and takes precedence over the configuration file.
func (p *Paths) SkillsRootDefaulted() bool {
	return p.rootDefaulted
}

// WithSkillsRoot returns a copy of p pointing at a different skills
// repository root, keeping the home and application directories.
func (p *Paths) WithSkillsRoot(root string) (*Paths, error) {
	abs, err := filepath.Abs(expandHome(root, p.home))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to resolve skills root %q", root)
	}
	return &Paths{
		home:       p.home,
		appDir:     p.appDir,
		skillsRoot: abs,
	}, nil
}

// SkillPath returns the directory for a skill by folder name.
func (p *Paths) SkillPath(folderName string) string {
	return filepath.Join(p.skillsRoot, folderName)
}

// ConfigFilePath returns the path of the TOML configuration file.
func (p *Paths) ConfigFilePath() string {
	return filepath.Join(p.appDir, ConfigFileName)
}

// LogFilePath returns the log file path under the XDG state directory.
func (p *Paths) LogFilePath() string {
	return filepath.Join(xdg.StateHome, "agentloom", LogFileName)
}

// EnsureSkillsRoot creates the skills repository directory if missing.
func (p *Paths) EnsureSkillsRoot() error {
	if err := os.MkdirAll(p.skillsRoot, 0755); err != nil {
		return errors.Wrap(err, errors.ErrDirCreate, "failed to create skills root").
			WithDetail("path", p.skillsRoot)
	}
	return nil
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) > 1 && path[0] == '~' && path[1] == filepath.Separator {
		return filepath.Join(home, path[2:])
	}
	return path
}
