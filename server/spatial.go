package main

import "contagion-sim/quadtree"

// SpatialIndex is the quadtree of carriers rebuilt every step
type SpatialIndex = quadtree.QuadTree[*Carrier]

// WorldBoundary is the partition covering a width x height world
// anchored at the origin
func WorldBoundary(width, height int) quadtree.Partition {
	return quadtree.NewPartition(quadtree.Point{X: width / 2, Y: height / 2}, width, height)
}

// Reach is the square a carrier can contaminate, centered on it
func Reach(c *Carrier, radius int) quadtree.Partition {
	return quadtree.NewPartition(c.Pos, radius, radius)
}

// BuildIndex inserts every carrier into a fresh index. Carriers outside the
// boundary, or sharing a position with an earlier carrier, are left out.
func BuildIndex(carriers []*Carrier, boundary quadtree.Partition, capacity int) (*SpatialIndex, int, error) {
	idx, err := quadtree.New[*Carrier](boundary, capacity)
	if err != nil {
		return nil, 0, err
	}
	indexed := 0
	for _, c := range carriers {
		if idx.Insert(c) {
			indexed++
		}
	}
	return idx, indexed, nil
}

// QueryBuf appends the carriers within radius of c to buf and returns the
// extended slice. c itself is included when indexed.
func QueryBuf(idx *SpatialIndex, c *Carrier, radius int, buf []*Carrier) []*Carrier {
	return idx.QueryInto(Reach(c, radius), buf)
}
