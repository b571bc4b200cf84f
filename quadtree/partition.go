package quadtree

// Point is an integer position in the plane
type Point struct {
	X int
	Y int
}

// Partition is an axis-aligned rectangle described by its center and size.
//
// Odd dimensions are rounded up to the next even number before halving, so a
// partition of width 5 spans center.X-3 .. center.X+3. Edges are inclusive.
type Partition struct {
	Center Point
	Width  int
	Height int
}

// NewPartition creates a partition. Negative dimensions are not checked.
func NewPartition(center Point, width, height int) Partition {
	return Partition{Center: center, Width: width, Height: height}
}

// halfExtents returns the rounded half width and half height
func (p Partition) halfExtents() (int, int) {
	w := p.Width
	if w&1 != 0 {
		w++
	}
	h := p.Height
	if h&1 != 0 {
		h++
	}
	return w / 2, h / 2
}

// Bounds returns the closed extents of the partition after rounding
func (p Partition) Bounds() (minX, minY, maxX, maxY int) {
	hw, hh := p.halfExtents()
	return p.Center.X - hw, p.Center.Y - hh, p.Center.X + hw, p.Center.Y + hh
}

// Contains reports whether pt lies inside the partition, edges included
func (p Partition) Contains(pt Point) bool {
	hw, hh := p.halfExtents()
	return pt.X >= p.Center.X-hw &&
		pt.X <= p.Center.X+hw &&
		pt.Y >= p.Center.Y-hh &&
		pt.Y <= p.Center.Y+hh
}

// Intersects reports whether two partitions overlap. Touching edges count.
func (p Partition) Intersects(o Partition) bool {
	aw, ah := p.halfExtents()
	bw, bh := o.halfExtents()
	return !(o.Center.X-bw > p.Center.X+aw ||
		o.Center.X+bw < p.Center.X-aw ||
		o.Center.Y-bh > p.Center.Y+ah ||
		o.Center.Y+bh < p.Center.Y-ah)
}

// Quadrants splits the partition into four quarters, in NE, NW, SE, SW order.
// NE is the quarter toward the smaller x and y.
func (p Partition) Quadrants() [4]Partition {
	hw, hh := p.halfExtents()
	w, h := hw*2, hh*2
	cx, cy := p.Center.X, p.Center.Y
	return [4]Partition{
		NewPartition(Point{cx - w/4, cy - h/4}, w/2, h/2),
		NewPartition(Point{cx + w/4, cy - h/4}, w/2, h/2),
		NewPartition(Point{cx - w/4, cy + h/4}, w/2, h/2),
		NewPartition(Point{cx + w/4, cy + h/4}, w/2, h/2),
	}
}
