package mesh

import (
	gomath "math"

	"github.com/Faultbox/lsystree/pkg/math"
)

// Frustum builds a capped cylinder frustum. The local growth axis (Y) is
// mapped through orientation, the base cap sits at base and the top cap at
// base + orientation*(0, height, 0). Only position and normal are filled.
func Frustum(base math.Vec3, orientation math.Mat3, baseRadius, topRadius, height float64, radialSegments int) *Geometry {
	if radialSegments < 3 {
		radialSegments = 3
	}
	n := radialSegments
	vertCount := 2*(n+1) + 2*(n+2)

	positions := make([]float32, 0, vertCount*3)
	normals := make([]float32, 0, vertCount*3)
	indices := make([]uint32, 0, 12*n)

	emit := func(local, normal math.Vec3) uint32 {
		idx := uint32(len(positions) / 3)
		p := base.Add(orientation.MulVec(local)).Float32()
		nn := orientation.MulVec(normal).Float32()
		positions = append(positions, p[0], p[1], p[2])
		normals = append(normals, nn[0], nn[1], nn[2])
		return idx
	}

	// Torso: row 0 is the top ring, row 1 the base ring.
	slope := 0.0
	if height > 0 {
		slope = (baseRadius - topRadius) / height
	}
	var rows [2][]uint32
	for row := 0; row < 2; row++ {
		radius, y := topRadius, height
		if row == 1 {
			radius, y = baseRadius, 0
		}
		rows[row] = make([]uint32, n+1)
		for x := 0; x <= n; x++ {
			theta := float64(x) / float64(n) * 2 * gomath.Pi
			sin, cos := gomath.Sin(theta), gomath.Cos(theta)
			rows[row][x] = emit(
				math.Vec3{X: radius * sin, Y: y, Z: radius * cos},
				math.Vec3{X: sin, Y: slope, Z: cos}.Normalize(),
			)
		}
	}
	for x := 0; x < n; x++ {
		a, b := rows[0][x], rows[1][x]
		c, d := rows[1][x+1], rows[0][x+1]
		indices = append(indices, a, b, d, b, c, d)
	}

	// Caps: a center vertex and a ring with its own normal.
	for _, top := range []bool{true, false} {
		radius, y, sign := baseRadius, 0.0, -1.0
		if top {
			radius, y, sign = topRadius, height, 1.0
		}
		normal := math.Vec3{Y: sign}
		center := emit(math.Vec3{Y: y}, normal)
		ring := make([]uint32, n+1)
		for x := 0; x <= n; x++ {
			theta := float64(x) / float64(n) * 2 * gomath.Pi
			ring[x] = emit(math.Vec3{X: radius * gomath.Sin(theta), Y: y, Z: radius * gomath.Cos(theta)}, normal)
		}
		for x := 0; x < n; x++ {
			if top {
				indices = append(indices, ring[x], ring[x+1], center)
			} else {
				indices = append(indices, ring[x+1], ring[x], center)
			}
		}
	}

	return &Geometry{
		Attributes: []Attribute{
			{Name: AttrPosition, ItemSize: 3, Data: positions},
			{Name: AttrNormal, ItemSize: 3, Data: normals},
		},
		Indices: indices,
	}
}

// Sphere builds a UV sphere around center. Pole rows produce single
// triangles instead of degenerate quads.
func Sphere(center math.Vec3, radius float64, widthSegments, heightSegments int) *Geometry {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}
	w, h := widthSegments, heightSegments
	vertCount := (w + 1) * (h + 1)

	positions := make([]float32, 0, vertCount*3)
	normals := make([]float32, 0, vertCount*3)
	grid := make([][]uint32, h+1)

	for iy := 0; iy <= h; iy++ {
		v := float64(iy) / float64(h)
		grid[iy] = make([]uint32, w+1)
		for ix := 0; ix <= w; ix++ {
			u := float64(ix) / float64(w)
			dir := math.Vec3{
				X: -gomath.Cos(u*2*gomath.Pi) * gomath.Sin(v*gomath.Pi),
				Y: gomath.Cos(v * gomath.Pi),
				Z: gomath.Sin(u*2*gomath.Pi) * gomath.Sin(v*gomath.Pi),
			}
			grid[iy][ix] = uint32(len(positions) / 3)
			p := center.Add(dir.Scale(radius)).Float32()
			nn := dir.Normalize().Float32()
			positions = append(positions, p[0], p[1], p[2])
			normals = append(normals, nn[0], nn[1], nn[2])
		}
	}

	var indices []uint32
	for iy := 0; iy < h; iy++ {
		for ix := 0; ix < w; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			if iy != 0 {
				indices = append(indices, a, b, d)
			}
			if iy != h-1 {
				indices = append(indices, b, c, d)
			}
		}
	}

	return &Geometry{
		Attributes: []Attribute{
			{Name: AttrPosition, ItemSize: 3, Data: positions},
			{Name: AttrNormal, ItemSize: 3, Data: normals},
		},
		Indices: indices,
	}
}
