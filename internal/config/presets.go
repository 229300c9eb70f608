package config

import (
	"fmt"
	"sort"
)

var Presets = map[string]string{
	"pendulum": `
name: pendulum
physics:
  step_time: 0.005
  update_rate: 200
models:
  - name: pendulum
    bodies:
      - name: arm
        xyz: [1, 0, 0]
        geoms:
          - name: bob
            type: box
            size: [0.2, 0.2, 0.2]
    joints:
      - name: pivot
        type: hinge
        body1: arm
        body2: world
        anchor_offset: [-1, 0, 0]
`,
	"double_pendulum": `
name: double_pendulum
physics:
  step_time: 0.005
  update_rate: 200
models:
  - name: double_pendulum
    bodies:
      - name: upper
        xyz: [0.5, 0, 0]
        geoms:
          - name: upper_link
            type: box
            size: [1, 0.1, 0.1]
      - name: lower
        xyz: [1.5, 0, 0]
        geoms:
          - name: lower_link
            type: box
            size: [1, 0.1, 0.1]
    joints:
      - name: shoulder
        type: hinge
        body1: upper
        body2: world
        anchor_offset: [-0.5, 0, 0]
      - name: elbow
        type: hinge
        body1: lower
        body2: upper
        anchor_offset: [-0.5, 0, 0]
        low_stop: -90
        high_stop: 90
`,
	"ball_chain": `
name: ball_chain
models:
  - name: chain
    bodies:
      - name: link0
        xyz: [0.25, 0, 0]
        geoms:
          - {name: g0, type: box, size: [0.5, 0.05, 0.05]}
      - name: link1
        xyz: [0.75, 0, 0]
        geoms:
          - {name: g1, type: box, size: [0.5, 0.05, 0.05]}
      - name: link2
        xyz: [1.25, 0, 0]
        geoms:
          - {name: g2, type: box, size: [0.5, 0.05, 0.05]}
    joints:
      - {name: j0, type: ball, body1: link0, body2: world, anchor_offset: [-0.25, 0, 0]}
      - {name: j1, type: ball, body1: link1, body2: link0, anchor_offset: [-0.25, 0, 0]}
      - {name: j2, type: ball, body1: link2, body2: link1, anchor_offset: [-0.25, 0, 0]}
`,
	"box_stack": `
name: box_stack
models:
  - name: ground
    static: true
    bodies:
      - name: floor
        geoms:
          - {name: slab, type: box, size: [10, 0.5, 1]}
  - name: stack
    xyz: [0, 0.25, 0]
    bodies:
      - {name: b0, xyz: [0, 0.5, 0], geoms: [{name: g0, type: box, size: [1, 1, 1]}]}
      - {name: b1, xyz: [0, 1.5, 0], geoms: [{name: g1, type: box, size: [1, 1, 1]}]}
      - {name: b2, xyz: [0, 2.5, 0], geoms: [{name: g2, type: box, size: [1, 1, 1], density: 0.5}]}
`,
}

// GetPreset returns a freshly parsed preset world, or nil if name is unknown.
func GetPreset(name string) *World {
	src, ok := Presets[name]
	if !ok {
		return nil
	}
	w, err := Parse([]byte(src))
	if err != nil {
		panic(fmt.Sprintf("config: preset %s: %v", name, err))
	}
	return w
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
