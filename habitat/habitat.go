// SPDX-License-Identifier: MIT

// Package habitat describes the geographic outline that constrains where
// demes and Voronoi seeds may be placed.
//
// A Habitat wraps a closed orb.Ring and answers the three questions the
// rest of the module needs: is a point inside, what is the bounding box,
// and what is the area. Points on the boundary count as inside.
package habitat

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/katalvlaran/eems/tableio"
)

// Sentinel errors for habitat construction.
var (
	// ErrTooFewVertices indicates an outline with fewer than three distinct vertices.
	ErrTooFewVertices = errors.New("habitat: outline needs at least three vertices")

	// ErrZeroArea indicates a degenerate outline.
	ErrZeroArea = errors.New("habitat: outline has zero area")
)

// Habitat is an immutable polygonal habitat outline.
type Habitat struct {
	ring  orb.Ring
	bound orb.Bound
	area  float64
}

// New builds a Habitat from the outline vertices. The ring is closed if
// the last vertex differs from the first.
func New(vertices []orb.Point) (*Habitat, error) {
	ring := make(orb.Ring, len(vertices), len(vertices)+1)
	copy(ring, vertices)
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	if len(ring) < 4 {
		return nil, fmt.Errorf("habitat: %d vertices: %w", len(vertices), ErrTooFewVertices)
	}
	area := math.Abs(planar.Area(ring))
	if area == 0 {
		return nil, ErrZeroArea
	}

	return &Habitat{ring: ring, bound: ring.Bound(), area: area}, nil
}

// Rectangle is a convenience constructor for an axis-aligned habitat.
func Rectangle(xmin, ymin, xmax, ymax float64) (*Habitat, error) {
	return New([]orb.Point{{xmin, ymin}, {xmax, ymin}, {xmax, ymax}, {xmin, ymax}})
}

// Load reads the outline from a two-column table (conventionally <datapath>.outer).
func Load(path string) (*Habitat, error) {
	rows, err := tableio.ReadShape(path, -1, 2)
	if err != nil {
		return nil, fmt.Errorf("habitat: %w", err)
	}
	pts := make([]orb.Point, len(rows))
	for i, r := range rows {
		pts[i] = orb.Point{r[0], r[1]}
	}
	h, err := New(pts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// InPoint reports whether (x,y) lies inside the outline or on its boundary.
func (h *Habitat) InPoint(x, y float64) bool {
	return planar.RingContains(h.ring, orb.Point{x, y})
}

// Bounds returns the bounding extents of the outline.
func (h *Habitat) Bounds() (xmin, xmax, ymin, ymax float64) {
	return h.bound.Min[0], h.bound.Max[0], h.bound.Min[1], h.bound.Max[1]
}

// XSpan is the width of the bounding box.
func (h *Habitat) XSpan() float64 { return h.bound.Max[0] - h.bound.Min[0] }

// YSpan is the height of the bounding box.
func (h *Habitat) YSpan() float64 { return h.bound.Max[1] - h.bound.Min[1] }

// Area is the planar area enclosed by the outline.
func (h *Habitat) Area() float64 { return h.area }

// RandomPoint draws a point uniformly inside the outline by rejection from
// the bounding box. Draws come from rng only.
func (h *Habitat) RandomPoint(rng *rand.Rand) (x, y float64) {
	for {
		x = h.bound.Min[0] + rng.Float64()*h.XSpan()
		y = h.bound.Min[1] + rng.Float64()*h.YSpan()
		if h.InPoint(x, y) {
			return x, y
		}
	}
}

// Outline returns a copy of the closed ring.
func (h *Habitat) Outline() orb.Ring { return h.ring.Clone() }
