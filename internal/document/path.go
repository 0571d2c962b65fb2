// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package document

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Segment is one step of a Path: either an object key or an array index.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key returns an object-key segment.
func Key(k string) Segment { return Segment{key: k} }

// Index returns an array-index segment.
func Index(i int) Segment { return Segment{index: i, isIndex: true} }

// IsIndex reports whether s addresses an array item.
func (s Segment) IsIndex() bool { return s.isIndex }

func (s Segment) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// Path is an ordered sequence of segments addressing a node in a document.
type Path []Segment

// ParsePath parses a dotted path such as "content.blocks.0.id".
// Purely numeric segments become indices.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("document: empty path")
	}
	parts := strings.Split(s, ".")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("document: empty segment in path %q", s)
		}
		if i, err := strconv.Atoi(part); err == nil && i >= 0 {
			p = append(p, Index(i))
			continue
		}
		p = append(p, Key(part))
	}
	return p, nil
}

// MustParsePath is ParsePath that panics on malformed input.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// MarshalYAML renders the path in dotted form.
func (p Path) MarshalYAML() (any, error) {
	return p.String(), nil
}

// UnmarshalYAML accepts a dotted string or a sequence of keys and indices.
func (p *Path) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		parsed, err := ParsePath(node.Value)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	case yaml.SequenceNode:
		out := make(Path, 0, len(node.Content))
		for _, n := range node.Content {
			if n.Kind != yaml.ScalarNode {
				return fmt.Errorf("document: path segment at line %d is not a scalar", n.Line)
			}
			if n.Tag == "!!int" {
				i, err := strconv.Atoi(n.Value)
				if err != nil || i < 0 {
					return fmt.Errorf("document: invalid index %q at line %d", n.Value, n.Line)
				}
				out = append(out, Index(i))
				continue
			}
			out = append(out, Key(n.Value))
		}
		if len(out) == 0 {
			return fmt.Errorf("document: empty path at line %d", node.Line)
		}
		*p = out
		return nil
	default:
		return fmt.Errorf("document: unsupported path node at line %d", node.Line)
	}
}
