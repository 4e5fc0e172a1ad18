package renderer

import (
	"errors"
	"testing"

	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/internal/tree/skeleton"
	"github.com/Faultbox/lsystree/pkg/turtle"
)

func TestBindingsStatic(t *testing.T) {
	g := groundPlane(10)
	if err := g.Validate(); err != nil {
		t.Fatalf("ground plane: %v", err)
	}

	binds, stride, err := bindings(g)
	if err != nil {
		t.Fatalf("bindings: %v", err)
	}
	if stride != 8*4 {
		t.Errorf("stride = %d, want %d", stride, 8*4)
	}
	want := []binding{{0, 3, 0}, {1, 3, 12}, {2, 1, 24}, {3, 1, 28}}
	for i, b := range binds {
		if b != want[i] {
			t.Errorf("binding %d = %+v, want %+v", i, b, want[i])
		}
	}
}

func TestBindingsSkipBoneAttributes(t *testing.T) {
	p := turtle.Params{StartRadius: 1, RadiusReduction: 0.8, BranchLength: 1, AngleDegrees: 30}
	res := turtle.Interpret("f[+f]f", p)
	_, m, err := skeleton.Builder{Assembler: mesh.DefaultAssembler()}.Build(res.Events, p.Position)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	binds, stride, err := bindings(&m.Geometry)
	if err != nil {
		t.Fatalf("bindings: %v", err)
	}
	if len(binds) != 4 {
		t.Errorf("got %d bindings, want 4", len(binds))
	}
	// boneIndex and boneWeight still occupy the interleaved vertex.
	if stride != 10*4 {
		t.Errorf("stride = %d, want %d", stride, 10*4)
	}
}

func TestBindingsRejectIncompleteSchema(t *testing.T) {
	g := &mesh.Geometry{Attributes: []mesh.Attribute{
		{Name: mesh.AttrPosition, ItemSize: 3, Data: []float32{0, 0, 0}},
	}}
	if _, _, err := bindings(g); !errors.Is(err, mesh.ErrAttributeSchemaMismatch) {
		t.Errorf("bindings error = %v, want ErrAttributeSchemaMismatch", err)
	}
}

func TestAspect(t *testing.T) {
	r := &Renderer{config: Config{Width: 1600, Height: 800}}
	if got := r.Aspect(); got != 2 {
		t.Errorf("Aspect() = %v, want 2", got)
	}
	r.config.Height = 0
	if got := r.Aspect(); got != 1 {
		t.Errorf("Aspect() with zero height = %v, want 1", got)
	}
}
