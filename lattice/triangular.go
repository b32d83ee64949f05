// SPDX-License-Identifier: MIT
// Package: eems/lattice
//
// triangular.go - procedural triangular lattice clipped to the habitat.
//
// Canonical model:
//   • xDemes×yDemes candidate nodes, row-major raw index alpha = r*xDemes + c.
//   • Odd rows are shifted right by half a column, so each interior node has
//     six neighbours: left, right, and two in each adjacent row.
//   • A node is kept iff it lies inside the habitat; an edge is kept iff both
//     ends are kept. Each edge is emitted once, from the lower raw index.
//
// Determinism:
//   • Demes are numbered in row-major order of the kept candidates.
//   • Edges are emitted per node in neighbour-position order 0..5.

package lattice

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	methodTriangular = "Triangular"
	neighborSlots    = 6
)

// Triangular returns a Constructor for a triangular lattice whose expected
// density matches density demes per unit area.
func Triangular(density int) Constructor {
	return func(h Habitat) (*Lattice, error) {
		if density < 1 {
			return nil, fmt.Errorf("%s: density=%d: %w", methodTriangular, density, ErrBadDensity)
		}
		xmin, xmax, ymin, ymax := h.Bounds()
		xspan, yspan, area := xmax-xmin, ymax-ymin, h.Area()
		nx := int(math.Sqrt(float64(density) * xspan * xspan / area))
		ny := int(math.Sqrt(float64(density) * yspan * yspan / area))
		if nx < 1 || ny < 1 {
			return nil, fmt.Errorf("%s: %dx%d candidate grid: %w", methodTriangular, nx, ny, ErrEmptyLattice)
		}

		// A triangular grid extends half a triangle on the right.
		scalex, scaley := 1.0, 1.0
		if nx > 1 {
			scalex = xspan / (float64(nx) - 0.5)
		}
		if ny > 1 {
			scaley = yspan / (float64(ny) - 1.0)
		}
		point := func(r, c int) r2.Vec {
			return r2.Vec{
				X: xmin + scalex*(float64(c)+0.5*float64(r%2)),
				Y: ymin + scaley*float64(r),
			}
		}

		// Pass 1: number the candidates that fall inside the habitat.
		newIndex := make([]int, nx*ny)
		lat := &Lattice{}
		for r := 0; r < ny; r++ {
			for c := 0; c < nx; c++ {
				alpha := r*nx + c
				p := point(r, c)
				if !h.InPoint(p.X, p.Y) {
					newIndex[alpha] = -1
					continue
				}
				newIndex[alpha] = len(lat.Coords)
				lat.Coords = append(lat.Coords, p)
			}
		}
		if len(lat.Coords) == 0 {
			return nil, fmt.Errorf("%s: %dx%d candidate grid: %w", methodTriangular, nx, ny, ErrEmptyLattice)
		}

		// Pass 2: connect kept neighbours; migration is undirected so each
		// pair is entered once.
		for r := 0; r < ny; r++ {
			for c := 0; c < nx; c++ {
				alpha := r*nx + c
				if newIndex[alpha] < 0 {
					continue
				}
				for pos := 0; pos < neighborSlots; pos++ {
					beta := neighborInGrid(r, c, pos, nx, ny)
					if alpha < beta && newIndex[beta] >= 0 {
						lat.Edges = append(lat.Edges, Edge{A: newIndex[alpha], B: newIndex[beta]})
					}
				}
			}
		}

		return lat, nil
	}
}

// neighborInGrid returns the raw index of neighbour pos (0..5) of node
// (r1,c1) in an nx×ny triangular grid, or -1 if there is none.
//
//	pos 0: left          pos 3: right
//	pos 5: lower-left    pos 4: lower-right
//	pos 1: upper-left    pos 2: upper-right
//
// alpha%nx > 0 means alpha is not first in its row, (alpha+1)%nx > 0 that
// it is not last; the 2*nx variants test the same on odd and even rows,
// where the half-column shift removes one diagonal neighbour.
func neighborInGrid(r1, c1, pos, nx, ny int) int {
	alpha := r1*nx + c1
	rn, cn := -1, -1
	even := (r1 + 1) % 2 // 1 on even rows, 0 on odd rows
	switch {
	case pos == 0 && alpha%nx > 0:
		rn, cn = r1, c1-1
	case pos == 3 && (alpha+1)%nx > 0:
		rn, cn = r1, c1+1
	case pos == 5 && r1 > 0 && alpha%(2*nx) > 0:
		rn, cn = r1-1, c1-even
	case pos == 4 && r1 > 0 && (alpha+1)%(2*nx) > 0:
		rn, cn = r1-1, c1+1-even
	case pos == 1 && r1 < ny-1 && alpha%(2*nx) > 0:
		rn, cn = r1+1, c1-even
	case pos == 2 && r1 < ny-1 && (alpha+1)%(2*nx) > 0:
		rn, cn = r1+1, c1+1-even
	}
	if rn >= 0 && cn >= 0 {
		return nx*rn + cn
	}
	return -1
}
