package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

// volatileKeys are excluded from fingerprints so that tooling-maintained fields do
// not change the content identity.
var volatileKeys = map[string]bool{
	mdfp.FingerprintField: true,
	"lastmod":             true,
	"last_update":         true,
}

// Fingerprint returns the canonical mdfp fingerprint of a document. Frontmatter is
// serialized with sorted keys and LF newlines so field order does not matter.
func Fingerprint(doc Document) (string, error) {
	fields := make(map[string]any, len(doc.Fields))
	for k, v := range doc.Fields {
		if !volatileKeys[k] {
			fields[k] = v
		}
	}

	fm := ""
	if len(fields) > 0 {
		node, err := mappingNode(fields)
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return "", err
		}
		if err := enc.Close(); err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(buf.String(), "\n")
	}

	body := strings.ReplaceAll(string(doc.Body), "\r\n", "\n")
	return mdfp.CalculateFingerprintFromParts(fm, body), nil
}

func mappingNode(m map[string]any) (*yaml.Node, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		val, err := valueNode(m[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, val)
	}
	return n, nil
}

func valueNode(v any) (*yaml.Node, error) {
	scalar := func(tag, value string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
	}
	switch vv := v.(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case string:
		return scalar("!!str", vv), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(vv)), nil
	case int:
		return scalar("!!int", strconv.Itoa(vv)), nil
	case float64:
		return scalar("!!float", strconv.FormatFloat(vv, 'g', -1, 64)), nil
	case map[string]any:
		return mappingNode(vv)
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range vv {
			node, err := valueNode(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, node)
		}
		return seq, nil
	default:
		var node yaml.Node
		if err := node.Encode(v); err != nil {
			return nil, err
		}
		return &node, nil
	}
}
