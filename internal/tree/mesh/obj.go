package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteOBJ writes g as a Wavefront OBJ object with positions, normals and
// triangles. Other attributes have no OBJ equivalent and are skipped. An
// empty geometry gives an empty object.
func WriteOBJ(w io.Writer, g *Geometry, name string) error {
	if err := g.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# lsystree\no %s\n", name)
	pos := g.Attribute(AttrPosition)
	if pos == nil {
		return bw.Flush()
	}
	nrm := g.Attribute(AttrNormal)

	writeVectors(bw, "v", pos.Data)
	if nrm != nil {
		writeVectors(bw, "vn", nrm.Data)
	}
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a, b, c := g.Indices[i]+1, g.Indices[i+1]+1, g.Indices[i+2]+1
		if nrm != nil {
			fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
		} else {
			fmt.Fprintf(bw, "f %d %d %d\n", a, b, c)
		}
	}
	return bw.Flush()
}

func writeVectors(w *bufio.Writer, tag string, data []float32) {
	for i := 0; i+2 < len(data); i += 3 {
		w.WriteString(tag)
		for _, f := range data[i : i+3] {
			w.WriteByte(' ')
			w.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
		}
		w.WriteByte('\n')
	}
}
