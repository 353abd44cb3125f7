package viewer

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/lao-tseu-is-alive/go-fsm-agent/internal/simulation"
	"github.com/lao-tseu-is-alive/go-fsm-agent/pkg/geometry"
)

// Projection maps the XZ ground plane onto a screen viewport, +Z pointing up.
type Projection struct {
	Scale            float64 // pixels per world unit
	OffsetX, OffsetY float64 // top-left corner of the world on screen
	Depth            float64 // world depth, flips Z
}

// NewProjection fits a worldW x worldD world into the viewport, keeping the
// aspect ratio and centering the world in the spare room.
func NewProjection(worldW, worldD, viewX, viewY, viewW, viewH float64) Projection {
	if worldW <= 0 || worldD <= 0 || viewW <= 0 || viewH <= 0 {
		return Projection{Scale: 1, OffsetX: viewX, OffsetY: viewY, Depth: math.Max(worldD, 0)}
	}
	scale := math.Min(viewW/worldW, viewH/worldD)
	return Projection{
		Scale:   scale,
		OffsetX: viewX + (viewW-worldW*scale)/2,
		OffsetY: viewY + (viewH-worldD*scale)/2,
		Depth:   worldD,
	}
}

// ToScreen projects a world point.
func (p Projection) ToScreen(v geometry.Vector3) (float32, float32) {
	return float32(p.OffsetX + v.X*p.Scale), float32(p.OffsetY + (p.Depth-v.Z)*p.Scale)
}

// Length converts a world distance to pixels.
func (p Projection) Length(d float64) float32 {
	return float32(d * p.Scale)
}

// ToWorld is the inverse of ToScreen on the ground plane.
func (p Projection) ToWorld(x, y float64) geometry.Vector3 {
	return geometry.NewVector3((x-p.OffsetX)/p.Scale, 0, p.Depth-(y-p.OffsetY)/p.Scale)
}

// coneMesh turns the local-frame cone of a into screen triangles tinted with clr.
// The vertex list is empty when the cone has no triangles or too many
// vertices for 16 bit indices.
func coneMesh(a simulation.AgentSnapshot, proj Projection, clr color.RGBA) ([]ebiten.Vertex, []uint16) {
	cone := a.Cone
	if cone.TriangleCount() == 0 || len(cone.Vertices) > math.MaxUint16 {
		return nil, nil
	}

	// color.RGBA is alpha premultiplied, like ebiten vertex colors
	r, g, b, al := float32(clr.R)/0xff, float32(clr.G)/0xff, float32(clr.B)/0xff, float32(clr.A)/0xff

	yaw := a.Forward.Yaw()
	vertices := make([]ebiten.Vertex, 0, len(cone.Vertices))
	for _, local := range cone.Vertices {
		x, y := proj.ToScreen(a.Position.Add(local.RotateY(yaw)))
		vertices = append(vertices, ebiten.Vertex{
			DstX: x, DstY: y,
			SrcX: 1, SrcY: 1,
			ColorR: r, ColorG: g, ColorB: b, ColorA: al,
		})
	}

	indices := make([]uint16, 0, len(cone.Triangles))
	for _, i := range cone.Triangles {
		indices = append(indices, uint16(i))
	}
	return vertices, indices
}
