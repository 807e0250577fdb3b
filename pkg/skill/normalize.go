package skill

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// IsValidName reports whether a name satisfies the identifier charset:
// letters, digits, hyphens and underscores only.
func IsValidName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		if !isNameRune(c) {
			return false
		}
	}
	return true
}

func isNameRune(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c == '-' || c == '_'
}

// Slug converts arbitrary text into a conforming kebab-case identifier.
//
//	"Test Skill"    -> "test-skill"
//	"My_Cool_Skill" -> "my-cool-skill"
//	"  Spaces  "    -> "spaces"
func Slug(input string) string {
	var b strings.Builder
	prevSeparator := true

	for _, c := range input {
		switch {
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			b.WriteRune(c)
			prevSeparator = false
		case c >= 'A' && c <= 'Z':
			// camelCase boundaries become hyphens
			if !prevSeparator && b.Len() > 0 {
				last := b.String()[b.Len()-1]
				if last >= 'a' && last <= 'z' {
					b.WriteByte('-')
				}
			}
			b.WriteRune(c - 'A' + 'a')
			prevSeparator = false
		default:
			if !prevSeparator && b.Len() > 0 {
				b.WriteByte('-')
				prevSeparator = true
			}
		}
	}

	result := strings.TrimRight(b.String(), "-")

	if result != "" && result[0] >= '0' && result[0] <= '9' {
		result = "skill-" + result
	}
	if result == "" {
		return "unnamed-skill"
	}
	return result
}

// NormalizeResult reports what a frontmatter auto-fix would change.
type NormalizeResult struct {
	// Header is the normalized frontmatter body
	Header string

	// Fixes lists the fixes that were applied
	Fixes []string

	// Modified is true when any fix was applied
	Modified bool
}

// Normalize rewrites a frontmatter header to fix common issues: a
// missing or mismatched name (the folder name wins), a missing
// description, and non-string metadata values (flattened to strings).
// The input is never written back; callers decide whether to apply the
// result.
func Normalize(header, folderName string) NormalizeResult {
	minimal := func(fix string) NormalizeResult {
		return NormalizeResult{
			Header: fmt.Sprintf("name: %s\ndescription: Skill imported with invalid frontmatter",
				folderName),
			Fixes:    []string{fix},
			Modified: true,
		}
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(header), &root); err != nil {
		return minimal("Replaced unparseable frontmatter with a minimal header")
	}
	mapping := documentMapping(&root)
	if mapping == nil {
		return minimal("Replaced non-mapping frontmatter with a minimal header")
	}

	var fixes []string

	// name: the folder name is the identity, so the field must match it
	if nameNode := mappingValue(mapping, "name"); nameNode == nil {
		appendScalar(mapping, "name", folderName)
		fixes = append(fixes, fmt.Sprintf("Added missing name field: '%s'", folderName))
	} else if nameNode.Kind == yaml.ScalarNode && nameNode.Value != folderName {
		fixes = append(fixes, fmt.Sprintf("Changed name '%s' to '%s' to match the folder", nameNode.Value, folderName))
		nameNode.SetString(folderName)
	}

	// description: ensure present
	if mappingValue(mapping, "description") == nil {
		appendScalar(mapping, "description", "No description provided")
		fixes = append(fixes, "Added missing description field")
	}

	// metadata: flatten non-string values
	if metaNode := mappingValue(mapping, "metadata"); metaNode != nil && metaNode.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(metaNode.Content); i += 2 {
			key, val := metaNode.Content[i], metaNode.Content[i+1]
			if val.Kind == yaml.ScalarNode {
				continue
			}
			flattened := flattenValue(val)
			fixes = append(fixes, fmt.Sprintf("Converted metadata.%s from complex type to string", key.Value))
			val.SetString(flattened)
		}
	}

	if len(fixes) == 0 {
		return NormalizeResult{Header: strings.TrimSpace(header)}
	}

	out, err := yaml.Marshal(mapping)
	if err != nil {
		return minimal("Replaced unserializable frontmatter with a minimal header")
	}

	return NormalizeResult{
		Header:   strings.TrimRight(string(out), "\n"),
		Fixes:    fixes,
		Modified: true,
	}
}

// flattenValue renders a YAML value as a single string. Sequences become
// comma-separated, mappings become "key=value; key=value".
func flattenValue(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Value
	case yaml.SequenceNode:
		parts := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			parts = append(parts, flattenValue(item))
		}
		return strings.Join(parts, ", ")
	case yaml.MappingNode:
		var parts []string
		for i := 0; i+1 < len(node.Content); i += 2 {
			parts = append(parts, node.Content[i].Value+"="+flattenValue(node.Content[i+1]))
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func appendScalar(mapping *yaml.Node, key, value string) {
	keyNode := &yaml.Node{}
	keyNode.SetString(key)
	valNode := &yaml.Node{}
	valNode.SetString(value)
	mapping.Content = append(mapping.Content, keyNode, valNode)
}
