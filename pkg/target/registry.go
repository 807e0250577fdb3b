package target

import (
	"sort"

	"github.com/arthur-debert/agentloom/pkg/config"
)

// LoadAll builds the effective target list: every auto-detected target
// merged with its config entry, followed by custom targets that only
// exist in config. Custom targets are never dropped by detection.
func LoadAll(cfg *config.Config, home string) []*Target {
	targets := DetectAll(home)

	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		seen[t.ID] = true
		applyConfig(t, cfg.Target(t.ID))
	}

	// Config-only entries: custom folders and manually configured kinds
	var custom []*Target
	for id, tc := range cfg.Targets {
		if seen[id] || tc.SkillsPath == "" {
			continue
		}
		t := &Target{
			ID:         id,
			Name:       tc.Name,
			SkillsPath: tc.SkillsPath,
			Enabled:    tc.Enabled,
		}
		if t.Name == "" {
			if kind, ok := kindByID(id); ok {
				t.Name = kind.DisplayName
			} else {
				t.Name = id
			}
		}
		if len(tc.SkillOverrides) > 0 {
			t.SkillOverrides = cloneOverrides(tc.SkillOverrides)
		}
		custom = append(custom, t)
	}
	sort.Slice(custom, func(i, j int) bool { return custom[i].ID < custom[j].ID })

	return append(targets, custom...)
}

func applyConfig(t *Target, tc config.TargetConfig) {
	t.Enabled = tc.Enabled
	if tc.SkillsPath != "" {
		t.SkillsPath = tc.SkillsPath
	}
	if len(tc.SkillOverrides) > 0 {
		t.SkillOverrides = cloneOverrides(tc.SkillOverrides)
	}
}

func kindByID(id string) (Kind, bool) {
	for _, kind := range KnownKinds() {
		if kind.ID == id {
			return kind, true
		}
	}
	return Kind{}, false
}

func cloneOverrides(src map[string]bool) map[string]bool {
	out := make(map[string]bool, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
