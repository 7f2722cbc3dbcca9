package integrator

import (
	"github.com/df07/go-mlt/pkg/core"
)

// VertexKind tags the role of a path vertex
type VertexKind uint8

const (
	EyeVertex        VertexKind = iota // Root of an eye subpath, on the lens
	LightVertex                        // Root of a light subpath, on the emitter
	ScatteringVertex                   // Any surface interaction after a root
)

func (k VertexKind) String() string {
	switch k {
	case EyeVertex:
		return "eye"
	case LightVertex:
		return "light"
	default:
		return "scattering"
	}
}

// Vertex is a single vertex in an eye or light subpath
type Vertex struct {
	Kind   VertexKind
	Depth  int   // 0 for the root
	Parent int32 // Arena index of the previous vertex, -1 for roots

	Point      core.Vec3
	Normal     core.Vec3 // Geometric normal; zero for the lens
	Incoming   core.Vec3 // Unit direction toward the parent
	AtInfinity bool      // The ray escaped the scene
	OnLight    bool      // The vertex lies on the emitter
	Delta      bool      // The material scatters through a delta lobe
	FromLight  bool      // Vertex belongs to a light subpath

	Material   core.Material
	Emitted    core.Vec3 // Radiance emitted toward the parent (scattering vertices only)
	Throughput core.Vec3 // Product of sampling weights from the root up to this vertex
	ImagePoint core.Vec2 // Eye roots only
}

// Arena stores the vertices of every subpath traced for the current sample.
// Vertices refer to their parent by index, so the backing slice can be reused
// between samples without allocation.
type Arena struct {
	vertices []Vertex
}

// Reset drops every vertex while keeping capacity
func (a *Arena) Reset() {
	a.vertices = a.vertices[:0]
}

// Len returns the number of stored vertices
func (a *Arena) Len() int {
	return len(a.vertices)
}

func (a *Arena) add(v Vertex) int32 {
	a.vertices = append(a.vertices, v)
	return int32(len(a.vertices) - 1)
}

func (a *Arena) at(i int32) *Vertex {
	return &a.vertices[i]
}

// Node is a handle on a vertex in a tracer's arena. The zero Node is invalid and
// stands for "no vertex". A Node is only meaningful until the arena is reset.
type Node struct {
	tracer *Tracer
	index  int32
}

// Valid reports whether the node refers to a vertex
func (n Node) Valid() bool {
	return n.tracer != nil && n.index >= 0
}

// Vertex returns the underlying vertex
func (n Node) Vertex() *Vertex {
	return n.tracer.arena.at(n.index)
}

// Depth returns the number of edges between the node and its root, or -1 if invalid
func (n Node) Depth() int {
	if !n.Valid() {
		return -1
	}
	return n.Vertex().Depth
}

// Kind returns the vertex kind
func (n Node) Kind() VertexKind {
	return n.Vertex().Kind
}

// Point returns the vertex position
func (n Node) Point() core.Vec3 {
	return n.Vertex().Point
}

// AtInfinity reports whether the vertex marks an escaped ray
func (n Node) AtInfinity() bool {
	return n.Vertex().AtInfinity
}

// Parent returns the previous vertex of the subpath
func (n Node) Parent() (Node, bool) {
	if !n.Valid() {
		return Node{}, false
	}
	p := n.Vertex().Parent
	if p < 0 {
		return Node{}, false
	}
	return Node{tracer: n.tracer, index: p}, true
}

// Ancestor returns the vertex of this subpath at the given depth
func (n Node) Ancestor(depth int) (Node, bool) {
	if !n.Valid() || depth < 0 || depth > n.Depth() {
		return Node{}, false
	}
	cur := n
	for cur.Depth() > depth {
		cur, _ = cur.Parent()
	}
	return cur, true
}

// Root returns the first vertex of the subpath
func (n Node) Root() Node {
	root, _ := n.Ancestor(0)
	return root
}

// Expand samples one more vertex after this one. It fails on absorption,
// Russian roulette termination, the depth limit or a zero-weight sample.
func (n Node) Expand(s core.Sampler) (Node, bool) {
	return n.tracer.expand(n, s)
}

// Project maps a world point onto the sensor, as seen from an eye root.
// It fails for other vertices, points off the film or occluded points.
func (n Node) Project(point core.Vec3) (core.Vec2, bool) {
	if !n.Valid() || n.Kind() != EyeVertex {
		return core.Vec2{}, false
	}
	lens := n.tracer.scene.Lens()
	imagePoint, ok := lens.Project(point)
	if !ok || !n.tracer.scene.Visibility(lens.Position(), point) {
		return core.Vec2{}, false
	}
	return imagePoint, true
}
