package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Vec3 is a YAML-friendly mgl64.Vec3. It decodes from either a sequence
// [x, y, z] or a whitespace separated string "x y z".
type Vec3 mgl64.Vec3

func V(x, y, z float64) Vec3 { return Vec3{x, y, z} }

func (v Vec3) Mgl() mgl64.Vec3 { return mgl64.Vec3(v) }

func (v *Vec3) UnmarshalYAML(n *yaml.Node) error {
	var parts []string
	switch n.Kind {
	case yaml.ScalarNode:
		parts = strings.Fields(n.Value)
	case yaml.SequenceNode:
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: vector component must be a scalar", c.Line)
			}
			parts = append(parts, c.Value)
		}
	default:
		return fmt.Errorf("line %d: vector must be a sequence or a string", n.Line)
	}
	if len(parts) != 3 {
		return fmt.Errorf("line %d: vector needs 3 components, got %d", n.Line, len(parts))
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return fmt.Errorf("line %d: vector component %q: %w", n.Line, p, err)
		}
		v[i] = f
	}
	return nil
}

func (v Vec3) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, f := range v {
		n.Content = append(n.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: strconv.FormatFloat(f, 'g', -1, 64),
		})
	}
	return n, nil
}

func (v Vec3) String() string {
	return fmt.Sprintf("%g %g %g", v[0], v[1], v[2])
}
