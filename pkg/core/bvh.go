package core

import (
	"sort"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox AABB
	Left        *BVHNode
	Right       *BVHNode
	Primitives  []Primitive // Leaf contents (nil for internal nodes)
}

// BVH is a Bounding Volume Hierarchy over primitives. It is itself a Primitive,
// so a scene can use it as its root.
type BVH struct {
	Root *BVHNode
}

// NewBVH constructs a BVH from a slice of primitives
func NewBVH(primitives []Primitive) *BVH {
	if len(primitives) == 0 {
		return &BVH{Root: nil}
	}

	// Sorting happens in place, so work on a copy
	prims := make([]Primitive, len(primitives))
	copy(prims, primitives)

	return &BVH{
		Root: buildBVH(prims),
	}
}

// Leaf threshold: if we have this many or fewer primitives, store them in a leaf node
const leafThreshold = 8

// buildBVH recursively builds the BVH with a median split along the longest axis
func buildBVH(prims []Primitive) *BVHNode {
	boundingBox := prims[0].BoundingBox()
	for i := 1; i < len(prims); i++ {
		boundingBox = boundingBox.Union(prims[i].BoundingBox())
	}

	if len(prims) <= leafThreshold {
		return &BVHNode{
			BoundingBox: boundingBox,
			Primitives:  prims,
		}
	}

	a := boundingBox.LongestAxis()
	sort.Slice(prims, func(i, j int) bool {
		return axis(prims[i].BoundingBox().Center(), a) < axis(prims[j].BoundingBox().Center(), a)
	})

	mid := len(prims) / 2
	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(prims[:mid]),
		Right:       buildBVH(prims[mid:]),
	}
}

// Hit returns the closest intersection in (tMin, tMax)
func (bvh *BVH) Hit(ray Ray, tMin, tMax float64) (*SurfaceInteraction, bool) {
	if bvh.Root == nil {
		return nil, false
	}
	return bvh.hitNode(bvh.Root, ray, tMin, tMax)
}

// BoundingBox returns the bounds of everything in the hierarchy
func (bvh *BVH) BoundingBox() AABB {
	if bvh.Root == nil {
		return AABB{}
	}
	return bvh.Root.BoundingBox
}

func (bvh *BVH) hitNode(node *BVHNode, ray Ray, tMin, tMax float64) (*SurfaceInteraction, bool) {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return nil, false
	}

	var closest *SurfaceInteraction
	closestSoFar := tMax

	if node.Primitives != nil {
		for _, prim := range node.Primitives {
			if hit, ok := prim.Hit(ray, tMin, closestSoFar); ok {
				closestSoFar = hit.T
				closest = hit
			}
		}
		return closest, closest != nil
	}

	for _, child := range []*BVHNode{node.Left, node.Right} {
		if child == nil {
			continue
		}
		if hit, ok := bvh.hitNode(child, ray, tMin, closestSoFar); ok {
			closestSoFar = hit.T
			closest = hit
		}
	}

	return closest, closest != nil
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes      int
	leafNodes       int
	maxDepth        int
	totalPrimitives int
}

// getStats walks the hierarchy and reports its shape
func (bvh *BVH) getStats() bvhStats {
	stats := bvhStats{}
	if bvh.Root != nil {
		collectStats(bvh.Root, 0, &stats)
	}
	return stats
}

func collectStats(node *BVHNode, depth int, stats *bvhStats) {
	stats.totalNodes++
	if depth > stats.maxDepth {
		stats.maxDepth = depth
	}

	if node.Primitives != nil {
		stats.leafNodes++
		stats.totalPrimitives += len(node.Primitives)
		return
	}
	if node.Left != nil {
		collectStats(node.Left, depth+1, stats)
	}
	if node.Right != nil {
		collectStats(node.Right, depth+1, stats)
	}
}
