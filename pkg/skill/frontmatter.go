package skill

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/agentloom/pkg/errors"
)

// Marker delimits the frontmatter block at the top of a skill document.
const Marker = "---"

// Meta is the parsed frontmatter of a skill document.
//
// Known keys are decoded into their fields; every other top-level key
// passes through into Metadata so nothing an author wrote is dropped.
type Meta struct {
	Name          string
	Description   string
	License       string
	Compatibility string

	// AllowedTools is the space-delimited pre-approved tool list
	AllowedTools string

	// Tags is an ordered categorization list
	Tags []string

	// Metadata holds the nested metadata map plus passthrough keys,
	// in document order
	Metadata *MetadataMap
}

// MetadataMap is a string-to-string mapping that preserves key order.
type MetadataMap struct {
	keys   []string
	values map[string]string
}

// NewMetadataMap returns an empty ordered map.
func NewMetadataMap() *MetadataMap {
	return &MetadataMap{values: make(map[string]string)}
}

// Set inserts or updates a key, keeping first-insertion order.
func (m *MetadataMap) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key and whether it is present.
func (m *MetadataMap) Get(key string) (string, bool) {
	if m == nil || m.values == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in document order.
func (m *MetadataMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *MetadataMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// splitFrontmatter separates the header block from the document body.
func splitFrontmatter(contents string) (header, body string, err error) {
	trimmed := strings.TrimLeft(contents, " \t\r\n")

	if !strings.HasPrefix(trimmed, Marker) {
		return "", "", errors.New(errors.ErrFrontmatterMissing,
			"document must start with a frontmatter block (---)")
	}

	rest := trimmed[len(Marker):]
	end := strings.Index(rest, "\n"+Marker)
	if end < 0 {
		return "", "", errors.New(errors.ErrFrontmatterOpen,
			"frontmatter block has no closing delimiter (---)")
	}

	header = strings.TrimSpace(rest[:end])
	body = strings.TrimSpace(rest[end+len(Marker)+1:])
	return header, body, nil
}

// decodeMeta parses a frontmatter header body into Meta.
//
// The decode is strict: nested metadata values must be scalars, and the
// root must be a mapping. Callers wanting recovery use decodeMetaLenient.
func decodeMeta(header string) (Meta, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(header), &root); err != nil {
		return Meta{}, errors.Wrap(err, errors.ErrFrontmatterParse, "invalid YAML in frontmatter")
	}

	mapping := documentMapping(&root)
	if mapping == nil {
		return Meta{}, errors.New(errors.ErrFrontmatterParse, "frontmatter is not a key-value mapping")
	}

	meta := Meta{Metadata: NewMetadataMap()}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode, valNode := mapping.Content[i], mapping.Content[i+1]
		key := keyNode.Value

		switch key {
		case "name":
			meta.Name = valNode.Value
		case "description":
			meta.Description = valNode.Value
		case "license":
			meta.License = valNode.Value
		case "compatibility":
			meta.Compatibility = valNode.Value
		case "allowed-tools":
			meta.AllowedTools = valNode.Value
		case "tags":
			tags, err := decodeTags(valNode)
			if err != nil {
				return Meta{}, err
			}
			meta.Tags = tags
		case "metadata":
			if valNode.Kind != yaml.MappingNode {
				return Meta{}, errors.New(errors.ErrFrontmatterParse,
					"metadata must be a key-value mapping")
			}
			for j := 0; j+1 < len(valNode.Content); j += 2 {
				mk, mv := valNode.Content[j], valNode.Content[j+1]
				if mv.Kind != yaml.ScalarNode {
					return Meta{}, errors.Newf(errors.ErrFrontmatterParse,
						"metadata.%s must be a string", mk.Value)
				}
				meta.Metadata.Set(mk.Value, mv.Value)
			}
		default:
			// Unrecognized keys pass through so they survive a rewrite
			if valNode.Kind != yaml.ScalarNode {
				return Meta{}, errors.Newf(errors.ErrFrontmatterParse,
					"%s must be a string", key)
			}
			meta.Metadata.Set(key, valNode.Value)
		}
	}

	return meta, nil
}

// decodeMetaLenient recovers whatever scalar fields it can from a header
// that failed strict decoding. Metadata comes back empty. The returned
// Meta is never nil-mapped and the name falls back to folderName.
func decodeMetaLenient(header, folderName string) Meta {
	meta := Meta{Name: folderName, Metadata: NewMetadataMap()}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(header), &root); err != nil {
		return meta
	}
	mapping := documentMapping(&root)
	if mapping == nil {
		return meta
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode, valNode := mapping.Content[i], mapping.Content[i+1]
		if valNode.Kind != yaml.ScalarNode {
			continue
		}
		switch keyNode.Value {
		case "name":
			if valNode.Value != "" {
				meta.Name = valNode.Value
			}
		case "description":
			meta.Description = valNode.Value
		case "license":
			meta.License = valNode.Value
		case "compatibility":
			meta.Compatibility = valNode.Value
		}
	}

	return meta
}

// decodeTags accepts either a YAML sequence of scalars or a single
// comma-delimited scalar.
func decodeTags(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		tags := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, errors.New(errors.ErrFrontmatterParse, "tags entries must be strings")
			}
			if v := strings.TrimSpace(item.Value); v != "" {
				tags = append(tags, v)
			}
		}
		return tags, nil
	case yaml.ScalarNode:
		var tags []string
		for _, part := range strings.Split(node.Value, ",") {
			if v := strings.TrimSpace(part); v != "" {
				tags = append(tags, v)
			}
		}
		return tags, nil
	default:
		return nil, errors.New(errors.ErrFrontmatterParse, "tags must be a list or comma-delimited string")
	}
}

// encodeMeta serializes Meta back to a frontmatter header body.
// Field order is stable so a parse/serialize round trip is equivalent.
func encodeMeta(meta Meta) string {
	var b strings.Builder

	writeScalar := func(key, value string) {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(quoteIfNeeded(value))
		b.WriteByte('\n')
	}

	writeScalar("name", meta.Name)
	writeScalar("description", meta.Description)
	if meta.License != "" {
		writeScalar("license", meta.License)
	}
	if meta.Compatibility != "" {
		writeScalar("compatibility", meta.Compatibility)
	}
	if meta.AllowedTools != "" {
		writeScalar("allowed-tools", meta.AllowedTools)
	}
	if len(meta.Tags) > 0 {
		b.WriteString("tags:\n")
		for _, tag := range meta.Tags {
			b.WriteString("  - ")
			b.WriteString(quoteIfNeeded(tag))
			b.WriteByte('\n')
		}
	}
	if meta.Metadata.Len() > 0 {
		b.WriteString("metadata:\n")
		for _, key := range meta.Metadata.Keys() {
			value, _ := meta.Metadata.Get(key)
			b.WriteString("  ")
			b.WriteString(key)
			b.WriteString(": ")
			b.WriteString(quoteIfNeeded(value))
			b.WriteByte('\n')
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// quoteIfNeeded wraps a scalar in quotes when bare YAML would mangle it.
func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, ":#{}[]&*?|>'\"%@`") || strings.HasPrefix(s, "- ") ||
		s != strings.TrimSpace(s) {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// documentMapping unwraps a parsed document node down to its root mapping,
// or nil when the document root is not a mapping.
func documentMapping(root *yaml.Node) *yaml.Node {
	node := root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	return node
}
