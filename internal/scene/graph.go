// Package scene keeps the entity tree built from a world description. Every
// entity is addressed by a stable xid handle; a handle whose entity has been
// removed resolves to nothing.
package scene

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/xid"
)

type Kind int

const (
	KindModel Kind = iota
	KindBody
	KindGeom
	KindJoint
)

func (k Kind) String() string {
	switch k {
	case KindModel:
		return "model"
	case KindBody:
		return "body"
	case KindGeom:
		return "geom"
	case KindJoint:
		return "joint"
	default:
		return "unknown"
	}
}

type Entity struct {
	ID       xid.ID
	Name     string
	Kind     Kind
	Parent   xid.ID
	Children []xid.ID
	// Object is the backend object: a physics.Body, physics.Shape or
	// physics.Joint. Models have none.
	Object any
	Static bool
	Origin mgl64.Vec3
}

// ScopeSep joins entity names into scoped names, as in "arm::link".
const ScopeSep = "::"

type Graph struct {
	entities map[xid.ID]*Entity
	order    []xid.ID
}

func New() *Graph {
	return &Graph{entities: make(map[xid.ID]*Entity)}
}

// Add inserts an entity under parent. A zero parent makes it a root.
func (g *Graph) Add(name string, kind Kind, parent xid.ID, obj any) *Entity {
	e := &Entity{ID: xid.New(), Name: name, Kind: kind, Parent: parent, Object: obj}
	if p, ok := g.entities[parent]; ok {
		p.Children = append(p.Children, e.ID)
	}
	g.entities[e.ID] = e
	g.order = append(g.order, e.ID)
	return e
}

func (g *Graph) Lookup(id xid.ID) (*Entity, bool) {
	e, ok := g.entities[id]
	return e, ok
}

func (g *Graph) Len() int { return len(g.entities) }

// ScopedName is the entity name prefixed by its ancestors.
func (g *Graph) ScopedName(id xid.ID) string {
	var parts []string
	for e, ok := g.entities[id]; ok; e, ok = g.entities[e.Parent] {
		parts = append([]string{e.Name}, parts...)
	}
	return strings.Join(parts, ScopeSep)
}

// FindByName resolves a scoped name such as "pendulum::arm".
func (g *Graph) FindByName(scoped string) (*Entity, bool) {
	for _, id := range g.order {
		if g.ScopedName(id) == scoped {
			return g.entities[id], true
		}
	}
	return nil, false
}

// ParentOfKind walks from id towards the root and returns the first entity
// of the given kind, the starting entity included.
func (g *Graph) ParentOfKind(id xid.ID, kind Kind) (*Entity, bool) {
	for e, ok := g.entities[id]; ok; e, ok = g.entities[e.Parent] {
		if e.Kind == kind {
			return e, true
		}
	}
	return nil, false
}

// Remove drops the entity and its subtree.
func (g *Graph) Remove(id xid.ID) {
	e, ok := g.entities[id]
	if !ok {
		return
	}
	for _, c := range e.Children {
		g.Remove(c)
	}
	if p, ok := g.entities[e.Parent]; ok {
		for i, c := range p.Children {
			if c == id {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
	}
	delete(g.entities, id)
	for i, o := range g.order {
		if o == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

func (g *Graph) Clear() {
	g.entities = make(map[xid.ID]*Entity)
	g.order = nil
}

// Entities returns the entities in insertion order.
func (g *Graph) Entities() []*Entity {
	out := make([]*Entity, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.entities[id])
	}
	return out
}

func (g *Graph) OfKind(kind Kind) []*Entity {
	var out []*Entity
	for _, id := range g.order {
		if e := g.entities[id]; e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (g *Graph) children(e *Entity, kind Kind) []*Entity {
	var out []*Entity
	for _, id := range e.Children {
		if c := g.entities[id]; c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}
