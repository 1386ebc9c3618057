package world

// Point is a 2D position in room or screen space.
type Point struct {
	X, Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Truncate drops the fractional parts of both coordinates.
func (p Point) Truncate() Point { return Point{X: float64(int(p.X)), Y: float64(int(p.Y))} }

// IsZero reports whether p is the origin.
func (p Point) IsZero() bool { return p.X == 0 && p.Y == 0 }

// Rect is an axis-aligned rectangle with its origin at (X, Y).
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r. The rectangle includes its
// left and top edges and excludes its right and bottom edges.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Translate returns r moved by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{X: r.X + d.X, Y: r.Y + d.Y, W: r.W, H: r.H}
}

// Size is an integer width and height.
type Size struct {
	W, H int
}
