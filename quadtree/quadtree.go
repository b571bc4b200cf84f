/*
Package quadtree implements a region quadtree over integer points.

The tree stores references to caller-owned entities keyed by their position.
At most one entity per coordinate is kept: inserting at an occupied
coordinate is a no-op. A full leaf splits into four quadrants exactly once;
the entities it already held stay on it and later insertions go to the
children.

A tree is meant to be built, queried and released within a single step by a
single goroutine. It is not safe for concurrent use.
*/
package quadtree

import (
	"errors"
	"fmt"
)

// Quadrant indexes the children of an internal node. The order is also the
// order in which insertion and queries visit them.
type Quadrant int

const (
	NE Quadrant = iota
	NW
	SE
	SW
)

func (q Quadrant) String() string {
	switch q {
	case NE:
		return "NE"
	case NW:
		return "NW"
	case SE:
		return "SE"
	case SW:
		return "SW"
	}
	return fmt.Sprintf("Quadrant(%d)", int(q))
}

// ErrInvalidCapacity is returned by New when capacity is below 1
var ErrInvalidCapacity = errors.New("quadtree: capacity must be at least 1")

// Locatable is anything with a position. Entities stored in the tree must
// not move while the tree is in use.
type Locatable interface {
	Position() Point
}

// QuadTree is a node of the tree. The root is the node returned by New.
type QuadTree[T Locatable] struct {
	boundary Partition
	capacity int
	points   []T
	children [4]*QuadTree[T] // all nil for a leaf
}

// New creates an empty leaf covering boundary
func New[T Locatable](boundary Partition, capacity int) (*QuadTree[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return newNode[T](boundary, capacity), nil
}

func newNode[T Locatable](boundary Partition, capacity int) *QuadTree[T] {
	return &QuadTree[T]{
		boundary: boundary,
		capacity: capacity,
		points:   make([]T, 0, capacity),
	}
}

// Boundary returns the region covered by this node
func (q *QuadTree[T]) Boundary() Partition {
	return q.boundary
}

// Capacity returns the maximum number of entities a leaf holds
func (q *QuadTree[T]) Capacity() int {
	return q.capacity
}

// IsLeaf reports whether the node has not been subdivided
func (q *QuadTree[T]) IsLeaf() bool {
	return q.children[NE] == nil
}

// Child returns one child of an internal node, or nil for a leaf
func (q *QuadTree[T]) Child(quad Quadrant) *QuadTree[T] {
	return q.children[quad]
}

// Children returns the children in NE, NW, SE, SW order, or nil for a leaf
func (q *QuadTree[T]) Children() []*QuadTree[T] {
	if q.IsLeaf() {
		return nil
	}
	return q.children[:]
}

// Points returns a copy of the entities held directly by this node
func (q *QuadTree[T]) Points() []T {
	out := make([]T, len(q.points))
	copy(out, q.points)
	return out
}

// subdivide turns a leaf into an internal node. Calling it on an internal
// node does nothing, so existing children are never replaced.
func (q *QuadTree[T]) subdivide() {
	if !q.IsLeaf() {
		return
	}
	for i, b := range q.boundary.Quadrants() {
		q.children[i] = newNode[T](b, q.capacity)
	}
}

// Insert adds e unless its position is outside the boundary or another
// entity already occupies that exact position. It reports whether e was
// stored.
//
// The duplicate check walks the subtree on every call, so building a tree
// costs more than a plain spatial insert.
func (q *QuadTree[T]) Insert(e T) bool {
	pos := e.Position()
	if !q.boundary.Contains(pos) || q.Contains(pos) {
		return false
	}
	return q.insert(e, pos)
}

// insert skips the duplicate check, which the root already did for the
// whole subtree.
func (q *QuadTree[T]) insert(e T, pos Point) bool {
	if q.IsLeaf() {
		if len(q.points) < q.capacity {
			q.points = append(q.points, e)
			return true
		}
		q.subdivide()
	}
	// First match wins, so a point on a shared edge goes to the earlier
	// quadrant in NE, NW, SE, SW order.
	for _, child := range q.children {
		if child.boundary.Contains(pos) {
			return child.insert(e, pos)
		}
	}
	return false
}

// Contains reports whether an entity at exactly p is stored in the subtree
func (q *QuadTree[T]) Contains(p Point) bool {
	if !q.boundary.Contains(p) {
		return false
	}
	for _, e := range q.points {
		if e.Position() == p {
			return true
		}
	}
	if q.IsLeaf() {
		return false
	}
	return q.children[NE].Contains(p) ||
		q.children[NW].Contains(p) ||
		q.children[SE].Contains(p) ||
		q.children[SW].Contains(p)
}

// Remove deletes the entity at p. If this node holds several entries at p
// the last one goes. When nothing matches locally all four children are
// tried, each rejecting p if it lies outside its boundary.
func (q *QuadTree[T]) Remove(p Point) bool {
	if !q.boundary.Contains(p) {
		return false
	}
	idx := -1
	for i, e := range q.points {
		if e.Position() == p {
			idx = i
		}
	}
	if idx >= 0 {
		var zero T
		copy(q.points[idx:], q.points[idx+1:])
		q.points[len(q.points)-1] = zero
		q.points = q.points[:len(q.points)-1]
		return true
	}
	if q.IsLeaf() {
		return false
	}
	removed := false
	for _, child := range q.children {
		if child.Remove(p) {
			removed = true
		}
	}
	return removed
}

// Query returns every entity whose position lies in region. Entities held
// by a node come before those of its children, and children are visited in
// NE, NW, SE, SW order. A region outside the tree yields nil.
func (q *QuadTree[T]) Query(region Partition) []T {
	return q.QueryInto(region, nil)
}

// QueryInto appends the matches for region to dst and returns the extended
// slice. Reusing dst across calls avoids an allocation per query.
func (q *QuadTree[T]) QueryInto(region Partition, dst []T) []T {
	if !q.boundary.Intersects(region) {
		return dst
	}
	for _, e := range q.points {
		if region.Contains(e.Position()) {
			dst = append(dst, e)
		}
	}
	if q.IsLeaf() {
		return dst
	}
	for _, child := range q.children {
		dst = child.QueryInto(region, dst)
	}
	return dst
}

// Release drops every child and entity reference held by the subtree and
// leaves q as an empty leaf. Entities themselves are untouched; the
// boundary is a value owned by the node and needs no separate release.
func (q *QuadTree[T]) Release() {
	if !q.IsLeaf() {
		for i, child := range q.children {
			child.Release()
			q.children[i] = nil
		}
	}
	var zero T
	for i := range q.points {
		q.points[i] = zero
	}
	q.points = q.points[:0]
}

// Len returns the number of entities stored in the subtree
func (q *QuadTree[T]) Len() int {
	n := len(q.points)
	if !q.IsLeaf() {
		for _, child := range q.children {
			n += child.Len()
		}
	}
	return n
}

// NodeCount returns the number of nodes in the subtree, q included
func (q *QuadTree[T]) NodeCount() int {
	n := 1
	if !q.IsLeaf() {
		for _, child := range q.children {
			n += child.NodeCount()
		}
	}
	return n
}

// Depth returns the number of levels below q. A leaf has depth 0.
func (q *QuadTree[T]) Depth() int {
	if q.IsLeaf() {
		return 0
	}
	d := 0
	for _, child := range q.children {
		d = max(d, child.Depth())
	}
	return d + 1
}
