package perception

import (
	"math"

	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
)

// CastPoint is where one cone ray stopped, in world space.
type CastPoint struct {
	Point geometry.Vector3
	Hit   bool
}

// Cone is the sampled vision cone of one tick.
// Vertices are in the agent's local frame with Vertices[0] at the origin,
// followed by one vertex per cast point. Triangles is a flat index list, three
// indices per triangle, forming a fan around vertex 0.
type Cone struct {
	Casts     []CastPoint
	Vertices  []geometry.Vector3
	Triangles []int
}

// TriangleCount returns len(Triangles)/3.
func (c Cone) TriangleCount() int {
	return len(c.Triangles) / 3
}

// RayCount returns floor(raysPerDegree * fieldOfView), never negative.
func (p Params) RayCount() int {
	n := math.Floor(p.RaysPerDegree * p.FieldOfView)
	if !(n > 0) || math.IsInf(n, 1) {
		return 0
	}
	return int(n)
}

// ComputeCone casts RayCount()+1 rays evenly across the field of view,
// centered on the heading of forward. Each ray stops at the first obstacle or
// at Radius. With zero rays the cone holds the origin vertex only.
func ComputeCone(position, forward geometry.Vector3, p Params, rc Raycaster) Cone {
	cone := Cone{Vertices: []geometry.Vector3{geometry.Zero}}

	rays := p.RayCount()
	if rays == 0 {
		return cone
	}

	yaw := forward.Yaw()
	degreesPerRay := p.FieldOfView / float64(rays)
	cone.Casts = make([]CastPoint, 0, rays+1)
	for i := 0; i <= rays; i++ {
		angle := yaw - p.FieldOfView/2 + degreesPerRay*float64(i)
		direction := geometry.FromYaw(angle)
		cast := CastPoint{Point: position.Add(direction.Mul(p.Radius))}
		if rc != nil {
			if hit, ok := rc.Raycast(position, direction, p.Radius, p.ObstacleMask); ok {
				cast = CastPoint{Point: hit.Point, Hit: true}
			}
		}
		cone.Casts = append(cone.Casts, cast)
	}

	cone.Vertices = append(cone.Vertices, make([]geometry.Vector3, len(cone.Casts))...)
	for i, cast := range cone.Casts {
		cone.Vertices[i+1] = cast.Point.Sub(position).RotateY(-yaw)
	}
	cone.Triangles = Triangulate(len(cone.Vertices))
	return cone
}

// Triangulate returns the fan over vertexCount vertices: triangle i is
// (0, i+1, i+2), vertexCount-2 triangles in all. Fewer than three vertices
// yield no triangles.
func Triangulate(vertexCount int) []int {
	if vertexCount < 3 {
		return nil
	}
	triangles := make([]int, 0, (vertexCount-2)*3)
	for i := 0; i < vertexCount-2; i++ {
		triangles = append(triangles, 0, i+1, i+2)
	}
	return triangles
}
