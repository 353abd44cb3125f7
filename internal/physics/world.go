// Package physics holds the static obstacle geometry of the scene and answers
// raycasts against it. Obstacles are infinite-height prisms standing on the
// XZ ground plane, indexed in a chipmunk space where the space's Y axis is
// world Z.
package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"

	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/perception"
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
)

var (
	ErrDuplicateObstacle = errors.New("obstacle id already registered")
	ErrInvalidShape      = errors.New("invalid obstacle shape")
)

// Kind names the footprint of an obstacle.
type Kind string

const (
	KindBox    Kind = "box"
	KindCircle Kind = "circle"
	KindWall   Kind = "wall"
)

// Obstacle describes one static shape.
// Box uses Center and Size (full extents on X and Z), Circle uses Center and
// Radius, Wall runs From -> To with Radius as half thickness.
type Obstacle struct {
	ID     string           `json:"id"`
	Kind   Kind             `json:"kind"`
	Center geometry.Vector3 `json:"center"`
	Size   geometry.Vector3 `json:"size"`
	Radius float64          `json:"radius"`
	From   geometry.Vector3 `json:"from"`
	To     geometry.Vector3 `json:"to"`
	Layer  perception.Layer `json:"layer"`
}

// World is the obstacle index. It is not safe for concurrent use; the
// simulation actor owns it.
type World struct {
	space     *cp.Space
	shapes    map[string]*cp.Shape
	obstacles map[string]Obstacle
	order     []string
}

// NewWorld returns an empty obstacle world.
func NewWorld() *World {
	return &World{
		space:     cp.NewSpace(),
		shapes:    make(map[string]*cp.Shape),
		obstacles: make(map[string]Obstacle),
	}
}

func toCP(v geometry.Vector3) cp.Vector {
	return cp.Vector{X: v.X, Y: v.Z}
}

// Add registers an obstacle. A zero Layer defaults to perception.LayerObstacle.
func (w *World) Add(o Obstacle) error {
	if o.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidShape)
	}
	if _, exists := w.shapes[o.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateObstacle, o.ID)
	}
	if o.Layer == perception.LayerNone {
		o.Layer = perception.LayerObstacle
	}

	body := w.space.StaticBody
	var shape *cp.Shape
	switch o.Kind {
	case KindBox:
		if o.Size.X <= 0 || o.Size.Z <= 0 {
			return fmt.Errorf("%w: box %q needs a positive size", ErrInvalidShape, o.ID)
		}
		hx, hz := o.Size.X/2, o.Size.Z/2
		bb := cp.BB{L: o.Center.X - hx, B: o.Center.Z - hz, R: o.Center.X + hx, T: o.Center.Z + hz}
		shape = cp.NewBox2(body, bb, 0)
	case KindCircle:
		if o.Radius <= 0 {
			return fmt.Errorf("%w: circle %q needs a positive radius", ErrInvalidShape, o.ID)
		}
		shape = cp.NewCircle(body, o.Radius, toCP(o.Center))
	case KindWall:
		if o.From.Flat().Eq(o.To.Flat()) {
			return fmt.Errorf("%w: wall %q has zero length", ErrInvalidShape, o.ID)
		}
		shape = cp.NewSegment(body, toCP(o.From), toCP(o.To), math.Max(o.Radius, 0))
	default:
		return fmt.Errorf("%w: unknown kind %q for %q", ErrInvalidShape, o.Kind, o.ID)
	}

	shape.SetFilter(cp.ShapeFilter{Group: 0, Categories: uint(o.Layer), Mask: ^uint(0)})
	w.space.AddShape(shape)
	w.shapes[o.ID] = shape
	w.obstacles[o.ID] = o
	w.order = append(w.order, o.ID)
	return nil
}

// Obstacles returns the registered obstacles in insertion order.
func (w *World) Obstacles() []Obstacle {
	out := make([]Obstacle, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.obstacles[id])
	}
	return out
}

// Len returns the number of obstacles.
func (w *World) Len() int {
	return len(w.order)
}

// Raycast implements perception.Raycaster. The ray runs on the ground plane at
// the height of origin; the vertical component of direction is ignored.
func (w *World) Raycast(origin, direction geometry.Vector3, maxDistance float64, mask perception.Layer) (perception.Hit, bool) {
	if !(maxDistance > 0) || mask == perception.LayerNone {
		return perception.Hit{}, false
	}
	dir := direction.Flat().Normalize()
	if dir.IsZero() {
		return perception.Hit{}, false
	}
	end := origin.Add(dir.Mul(maxDistance))

	filter := cp.ShapeFilter{Group: 0, Categories: ^uint(0), Mask: uint(mask)}
	info := w.space.SegmentQueryFirst(toCP(origin), toCP(end), 0, filter)
	if info.Shape == nil {
		return perception.Hit{}, false
	}

	distance := maxDistance * info.Alpha
	return perception.Hit{
		Point:    origin.Add(dir.Mul(distance)),
		Distance: distance,
	}, true
}
