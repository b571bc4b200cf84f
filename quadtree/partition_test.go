package quadtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartitionContains(t *testing.T) {
	p := NewPartition(Point{10, 10}, 4, 4)

	require.True(t, p.Contains(Point{10, 10}))
	require.True(t, p.Contains(Point{9, 11}))
	// edges belong to the partition
	require.True(t, p.Contains(Point{12, 8}))
	require.True(t, p.Contains(Point{8, 12}))
	require.False(t, p.Contains(Point{13, 10}))
	require.False(t, p.Contains(Point{10, 7}))
}

func TestPartitionOddDimensionsRoundUp(t *testing.T) {
	// width 5 is treated as 6, height 3 as 4
	p := NewPartition(Point{10, 10}, 5, 3)

	minX, minY, maxX, maxY := p.Bounds()
	require.Equal(t, 7, minX)
	require.Equal(t, 13, maxX)
	require.Equal(t, 8, minY)
	require.Equal(t, 12, maxY)

	require.True(t, p.Contains(Point{13, 12}))
	require.True(t, p.Contains(Point{7, 8}))
	require.False(t, p.Contains(Point{14, 10}))
	require.False(t, p.Contains(Point{10, 13}))
}

func TestPartitionWidthOneIsNotEmpty(t *testing.T) {
	p := NewPartition(Point{3, 3}, 1, 1)
	require.True(t, p.Contains(Point{2, 2}))
	require.True(t, p.Contains(Point{4, 4}))
	require.False(t, p.Contains(Point{5, 3}))
}

func TestPartitionIntersects(t *testing.T) {
	a := NewPartition(Point{0, 0}, 4, 4)

	overlapping := NewPartition(Point{1, 1}, 4, 4)
	touching := NewPartition(Point{4, 0}, 4, 4)
	cornerTouching := NewPartition(Point{4, 4}, 4, 4)
	disjoint := NewPartition(Point{5, 0}, 4, 4)
	disjointY := NewPartition(Point{0, -7}, 4, 4)
	inside := NewPartition(Point{0, 0}, 2, 2)

	require.True(t, a.Intersects(overlapping))
	require.True(t, a.Intersects(touching))
	require.True(t, a.Intersects(cornerTouching))
	require.True(t, a.Intersects(inside))
	require.True(t, inside.Intersects(a))
	require.False(t, a.Intersects(disjoint))
	require.False(t, disjoint.Intersects(a))
	require.False(t, a.Intersects(disjointY))
}

func TestPartitionIntersectsUsesRounding(t *testing.T) {
	a := NewPartition(Point{0, 0}, 4, 4)
	// width 3 rounds to 4: spans 3..7, clear of a
	require.False(t, a.Intersects(NewPartition(Point{5, 0}, 3, 3)))
	// width 5 rounds to 6: spans 2..8, touches a
	require.True(t, a.Intersects(NewPartition(Point{5, 0}, 5, 5)))
}

func TestPartitionQuadrants(t *testing.T) {
	p := NewPartition(Point{250, 250}, 500, 500)
	q := p.Quadrants()

	require.Equal(t, NewPartition(Point{125, 125}, 250, 250), q[NE])
	require.Equal(t, NewPartition(Point{375, 125}, 250, 250), q[NW])
	require.Equal(t, NewPartition(Point{125, 375}, 250, 250), q[SE])
	require.Equal(t, NewPartition(Point{375, 375}, 250, 250), q[SW])
}

func TestPartitionQuadrantsCoverParent(t *testing.T) {
	p := NewPartition(Point{50, 40}, 7, 9)
	q := p.Quadrants()

	// 7x9 rounds to 8x10
	require.Equal(t, NewPartition(Point{48, 38}, 4, 5), q[NE])
	require.Equal(t, NewPartition(Point{52, 42}, 4, 5), q[SW])

	minX, minY, maxX, maxY := p.Bounds()
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			pt := Point{x, y}
			covered := false
			for _, c := range q {
				if c.Contains(pt) {
					covered = true
					break
				}
			}
			require.True(t, covered, "point %v not covered by any quadrant", pt)
		}
	}
}
