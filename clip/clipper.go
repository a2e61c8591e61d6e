// Package clip provides the polygon boolean and offsetting engine that the
// arc packer and geometry lifter build on. It is the direct descendant of
// GoSlice's clip package: the conversion helpers and PolyTree-walking logic
// are the same shape, retargeted from GoSlice's layer-partitioning use case
// to arbitrary Polygon/MultiPolygon boolean ops and buffering.
package clip

import (
	"fmt"

	clipper "github.com/aligator/go.clipper"

	"ArcOverhang/geom"
)

// Engine is the interface the rest of ArcOverhang uses for every polygon
// boolean operation and every buffer (Minkowski sum with a disk or thin
// strip). It is the equivalent of GoSlice's clip.Clipper interface,
// generalized from layer partitioning to general-purpose region algebra.
type Engine interface {
	// Union merges a and b.
	Union(a, b geom.MultiPolygon) (geom.MultiPolygon, bool)

	// Difference subtracts b from a.
	Difference(a, b geom.MultiPolygon) (geom.MultiPolygon, bool)

	// Intersection returns the overlap of a and b.
	Intersection(a, b geom.MultiPolygon) (geom.MultiPolygon, bool)

	// BufferPolygon grows (or, for a negative distance, shrinks) a closed
	// polygon by distanceMM.
	BufferPolygon(p geom.MultiPolygon, distanceMM float64) geom.MultiPolygon

	// BufferLine grows an open polyline into a polygon by distanceMM on
	// every side with round caps, the equivalent of shapely's
	// LineString.buffer(extend) used to turn an infill stroke into a
	// polygon region.
	BufferLine(path geom.Path, distanceMM float64) geom.MultiPolygon
}

// clipperEngine implements Engine using github.com/aligator/go.clipper,
// exactly the library GoSlice's own clip package wires for the same kind
// of boolean/offset work.
type clipperEngine struct{}

// NewEngine returns a new polygon boolean/offset Engine.
func NewEngine() Engine {
	return clipperEngine{}
}

// clipperPoint converts a geom.Point to the representation used by the
// external clipper library.
func clipperPoint(p geom.Point) *clipper.IntPoint {
	return &clipper.IntPoint{
		X: clipper.CInt(p.X()),
		Y: clipper.CInt(p.Y()),
	}
}

// clipperPath converts a geom.Path to a clipper.Path.
func clipperPath(p geom.Path) clipper.Path {
	var result clipper.Path
	for _, pt := range p {
		result = append(result, clipperPoint(pt))
	}
	return result
}

// clipperPaths converts geom.Paths to clipper.Paths.
func clipperPaths(p geom.Paths) clipper.Paths {
	var result clipper.Paths
	for _, path := range p {
		result = append(result, clipperPath(path))
	}
	return result
}

// geomPoint converts a clipper.IntPoint back to geom.Point.
func geomPoint(p *clipper.IntPoint) geom.Point {
	return geom.NewPoint(geom.Micrometer(p.X), geom.Micrometer(p.Y))
}

// geomPath converts a clipper.Path back to geom.Path.
func geomPath(p clipper.Path) geom.Path {
	var result geom.Path
	for _, pt := range p {
		result = append(result, geomPoint(pt))
	}
	return result
}

// polyTreeToPolygons walks a PolyTree the same way GoSlice's
// polyTreeToLayerParts does (outer contour owns its immediate hole
// children, grandchildren start a new round of outer polygons), producing
// geom.MultiPolygon instead of GoSlice's []data.LayerPart.
func polyTreeToPolygons(tree *clipper.PolyTree) geom.MultiPolygon {
	var result geom.MultiPolygon

	var roundPolys []*clipper.PolyNode
	for _, c := range tree.Childs() {
		roundPolys = append(roundPolys, c)
	}

	for roundPolys != nil {
		thisRound := roundPolys
		roundPolys = nil

		for _, p := range thisRound {
			var holes geom.Paths
			for _, child := range p.Childs() {
				holes = append(holes, geomPath(child.Contour()))
				for _, grandchild := range child.Childs() {
					roundPolys = append(roundPolys, grandchild)
				}
			}
			result = append(result, geom.Polygon{
				Outline: geomPath(p.Contour()),
				Holes:   holes,
			})
		}
	}

	return result
}

func (e clipperEngine) boolOp(op clipper.ClipType, a, b geom.MultiPolygon) (geom.MultiPolygon, bool) {
	c := clipper.NewClipper(clipper.IoNone)
	for _, poly := range a {
		c.AddPaths(clipperPaths(poly.Boundary()), clipper.PtSubject, true)
	}
	for _, poly := range b {
		c.AddPaths(clipperPaths(poly.Boundary()), clipper.PtClip, true)
	}

	tree, ok := c.Execute2(op, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil, false
	}
	return polyTreeToPolygons(tree), true
}

func (e clipperEngine) Union(a, b geom.MultiPolygon) (geom.MultiPolygon, bool) {
	return e.boolOp(clipper.CtUnion, a, b)
}

func (e clipperEngine) Difference(a, b geom.MultiPolygon) (geom.MultiPolygon, bool) {
	if len(b) == 0 {
		return a, true
	}
	return e.boolOp(clipper.CtDifference, a, b)
}

func (e clipperEngine) Intersection(a, b geom.MultiPolygon) (geom.MultiPolygon, bool) {
	if len(a) == 0 || len(b) == 0 {
		return nil, true
	}
	return e.boolOp(clipper.CtIntersection, a, b)
}

func (e clipperEngine) BufferPolygon(p geom.MultiPolygon, distanceMM float64) geom.MultiPolygon {
	if len(p) == 0 {
		return nil
	}
	o := clipper.NewClipperOffset()
	o.MiterLimit = 2
	for _, poly := range p {
		o.AddPaths(clipperPaths(poly.Boundary()), clipper.JtRound, clipper.EtClosedPolygon)
	}
	result := o.Execute2(distanceMM * geom.Scale)
	return polyTreeToPolygons(result)
}

func (e clipperEngine) BufferLine(path geom.Path, distanceMM float64) geom.MultiPolygon {
	if len(path) < 2 {
		return nil
	}
	o := clipper.NewClipperOffset()
	o.MiterLimit = 2
	o.AddPaths(clipper.Paths{clipperPath(path)}, clipper.JtRound, clipper.EtOpenRound)
	result := o.Execute2(distanceMM * geom.Scale)
	return polyTreeToPolygons(result)
}

// DebugString renders a MultiPolygon as a human-readable summary, handy in
// error messages when a boolean op produces an unexpected shape.
func DebugString(mp geom.MultiPolygon) string {
	return fmt.Sprintf("MultiPolygon{%d polygons}", len(mp))
}
