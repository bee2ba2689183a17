package compose

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Volume Source Patching
// =============================================================================

// DefaultSourceSuffix is the pointer-path convention matched when no mount
// target is given: any volume whose source ends in "/current" is the live
// config mount.
const DefaultSourceSuffix = "/current"

// Match selects which volume entry to patch. When Target is set, entries are
// matched by their container-side mount target; otherwise by the
// SourceSuffix convention (DefaultSourceSuffix when empty).
type Match struct {
	Target       string
	SourceSuffix string
}

func (m Match) suffix() string {
	if m.SourceSuffix != "" {
		return m.SourceSuffix
	}
	return DefaultSourceSuffix
}

// PatchVolumeSource rewrites the source of the first matching volume entry
// in the document to newSource. Services are scanned in document order and
// each service's volume list in list order; the first match anywhere stops
// the scan - later matches in other services are left alone. Both the
// compact "source:target[:mode]" form and the structured mapping form are
// handled, and only the source component changes; everything else in the
// document (ordering, comments, other fields) survives re-serialization.
//
// When nothing matches and a Target is given, a compact entry
// "newSource:target:rw" is appended to the first service. That is a
// fallback default for documents that have not declared the mount yet, not
// a general merge.
//
// Returns the (possibly rewritten) document and whether anything changed.
func PatchVolumeSource(doc []byte, match Match, newSource string) ([]byte, bool, error) {
	if len(strings.TrimSpace(string(doc))) == 0 {
		return nil, false, ErrEmptyInput
	}

	var root yaml.Node
	if err := yaml.Unmarshal(doc, &root); err != nil {
		return nil, false, NewParseError("", err.Error(), ErrInvalidYAML)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, false, NewParseError("", "document has no content", ErrInvalidYAML)
	}

	services := mappingValue(root.Content[0], "services")
	if services == nil || services.Kind != yaml.MappingNode || len(services.Content) == 0 {
		return nil, false, NewParseError("services", "no services mapping", ErrNoServices)
	}

	changed, patched := patchServices(services, match, newSource)
	if !patched {
		if match.Target == "" {
			// Suffix matching has no target to synthesize an entry from.
			return doc, false, nil
		}
		appendVolumeEntry(services, fmt.Sprintf("%s:%s:rw", newSource, match.Target))
		changed = true
	}
	if !changed {
		return doc, false, nil
	}

	out, err := marshalDocument(&root)
	if err != nil {
		return nil, false, NewParseError("", err.Error(), ErrInvalidYAML)
	}
	return out, true, nil
}

// PatchFile applies PatchVolumeSource to the document at path, validating it
// as a loadable compose project first. The file is rewritten only when the
// patch changed something, so untouched documents are never reformatted.
func PatchFile(path string, match Match, newSource string) (bool, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read compose file: %w", err)
	}

	if err := Validate(doc); err != nil {
		return false, err
	}

	out, changed, err := PatchVolumeSource(doc, match, newSource)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat compose file: %w", err)
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write compose file: %w", err)
	}
	return true, nil
}

// =============================================================================
// Node Walking
// =============================================================================

// patchServices scans each service's volume list for the first match.
// Returns (valueChanged, entryMatched): an entry can match but already carry
// the desired source, in which case the document must not be rewritten.
func patchServices(services *yaml.Node, match Match, newSource string) (bool, bool) {
	for i := 1; i < len(services.Content); i += 2 {
		service := services.Content[i]
		volumes := mappingValue(service, "volumes")
		if volumes == nil || volumes.Kind != yaml.SequenceNode {
			continue
		}
		for _, entry := range volumes.Content {
			switch entry.Kind {
			case yaml.ScalarNode:
				if changed, ok := patchCompactEntry(entry, match, newSource); ok {
					return changed, true
				}
			case yaml.MappingNode:
				if changed, ok := patchStructuredEntry(entry, match, newSource); ok {
					return changed, true
				}
			}
		}
	}
	return false, false
}

// patchCompactEntry handles the "source:target[:mode]" string form.
func patchCompactEntry(entry *yaml.Node, match Match, newSource string) (bool, bool) {
	parts := strings.Split(entry.Value, ":")
	if len(parts) < 2 {
		return false, false
	}
	if match.Target != "" {
		if parts[1] != match.Target {
			return false, false
		}
	} else if !strings.HasSuffix(parts[0], match.suffix()) {
		return false, false
	}
	if parts[0] == newSource {
		return false, true // already on the desired source
	}
	parts[0] = newSource
	entry.Value = strings.Join(parts, ":")
	return true, true
}

// patchStructuredEntry handles the {type, source, target, ...} mapping form.
// Only the source value is rewritten; every other key is untouched.
func patchStructuredEntry(entry *yaml.Node, match Match, newSource string) (bool, bool) {
	source := mappingValue(entry, "source")
	target := mappingValue(entry, "target")
	if match.Target != "" {
		if target == nil || target.Value != match.Target {
			return false, false
		}
	} else if source == nil || !strings.HasSuffix(source.Value, match.suffix()) {
		return false, false
	}
	if source == nil {
		entry.Content = append(entry.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "source"},
			&yaml.Node{Kind: yaml.ScalarNode, Value: newSource},
		)
		return true, true
	}
	if source.Value == newSource {
		return false, true
	}
	source.Value = newSource
	return true, true
}

// appendVolumeEntry adds a compact volume string to the first service,
// creating its volumes sequence when absent.
func appendVolumeEntry(services *yaml.Node, value string) {
	first := services.Content[1]
	volumes := mappingValue(first, "volumes")
	if volumes == nil {
		volumes = &yaml.Node{Kind: yaml.SequenceNode}
		first.Content = append(first.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "volumes"},
			volumes,
		)
	}
	volumes.Content = append(volumes.Content, &yaml.Node{
		Kind:  yaml.ScalarNode,
		Style: yaml.DoubleQuotedStyle,
		Value: value,
	})
}

// mappingValue returns the value node for key in a mapping node, or nil.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// marshalDocument serializes a document node with two-space indent.
func marshalDocument(root *yaml.Node) ([]byte, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(root.Content[0]); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}
