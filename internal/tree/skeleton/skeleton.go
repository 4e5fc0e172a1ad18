// Package skeleton builds a bone hierarchy mirroring the turtle's branch
// structure and a mesh whose vertices are rigidly bound to those bones.
package skeleton

import (
	"errors"
	"fmt"

	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/pkg/math"
	"github.com/Faultbox/lsystree/pkg/turtle"
)

// RootBone is the index of the synthetic root bone.
const RootBone = 0

// ErrInvalidHierarchy is returned by Validate when a parent link is broken.
var ErrInvalidHierarchy = errors.New("invalid bone hierarchy")

// Bone is one joint of the tree. Bone i+1 belongs to segment i.
type Bone struct {
	Index   int
	Parent  int       // -1 for the root
	Segment int       // -1 for the root
	Head    math.Vec3 // rest position in world space (segment base)
	Offset  math.Vec3 // segment direction, top - base
	Radius  float64   // segment base radius
	Depth   int       // 0 for the root
}

// Skeleton is an ordered bone list; parents always precede their children.
type Skeleton struct {
	Bones []Bone
}

// BoneForSegment returns the bone index of a segment (root for -1).
func BoneForSegment(segment int) int {
	return segment + 1
}

// Len returns the number of bones including the root.
func (s *Skeleton) Len() int {
	return len(s.Bones)
}

// Children returns the direct children of bone i.
func (s *Skeleton) Children(i int) []int {
	var out []int
	for _, b := range s.Bones {
		if b.Parent == i {
			out = append(out, b.Index)
		}
	}
	return out
}

// IsDescendant reports whether bone is ancestor itself or lies below it.
func (s *Skeleton) IsDescendant(bone, ancestor int) bool {
	for bone >= 0 {
		if bone == ancestor {
			return true
		}
		bone = s.Bones[bone].Parent
	}
	return false
}

// LocalTranslation returns the rest offset of bone i from its parent's head.
func (s *Skeleton) LocalTranslation(i int) math.Vec3 {
	b := s.Bones[i]
	if b.Parent < 0 {
		return b.Head
	}
	return b.Head.Sub(s.Bones[b.Parent].Head)
}

// Validate checks indices and that every parent precedes its child.
func (s *Skeleton) Validate() error {
	if len(s.Bones) == 0 {
		return fmt.Errorf("%w: no root bone", ErrInvalidHierarchy)
	}
	if s.Bones[RootBone].Parent != -1 {
		return fmt.Errorf("%w: root has parent %d", ErrInvalidHierarchy, s.Bones[RootBone].Parent)
	}
	for i, b := range s.Bones {
		if b.Index != i {
			return fmt.Errorf("%w: bone %d has index %d", ErrInvalidHierarchy, i, b.Index)
		}
		if i > 0 && (b.Parent < 0 || b.Parent >= i) {
			return fmt.Errorf("%w: bone %d has parent %d", ErrInvalidHierarchy, i, b.Parent)
		}
	}
	return nil
}

// Builder produces a skinned mesh and its skeleton from turtle events.
type Builder struct {
	Assembler mesh.Assembler
}

// Build creates the root bone at root, one bone per segment, and the mesh
// with boneIndex/boneWeight attributes (weight 1 to the owning bone).
func (b Builder) Build(events []turtle.Event, root math.Vec3) (*Skeleton, *mesh.Mesh, error) {
	skel := &Skeleton{Bones: []Bone{{Index: RootBone, Parent: -1, Segment: -1, Head: root}}}

	for _, ev := range events {
		seg, ok := ev.(turtle.SegmentPlaced)
		if !ok {
			continue
		}
		parent := BoneForSegment(seg.ParentIndex)
		if parent >= len(skel.Bones) {
			return nil, nil, fmt.Errorf("%w: segment %d references unknown parent %d",
				ErrInvalidHierarchy, seg.Index, seg.ParentIndex)
		}
		skel.Bones = append(skel.Bones, Bone{
			Index:   len(skel.Bones),
			Parent:  parent,
			Segment: seg.Index,
			Head:    seg.Base,
			Offset:  seg.Direction(),
			Radius:  seg.BaseRadius,
			Depth:   skel.Bones[parent].Depth + 1,
		})
	}

	m, err := mesh.Build(events, b.part)
	if err != nil {
		return nil, nil, err
	}
	return skel, m, nil
}

func (b Builder) part(ev turtle.Event) (*mesh.Geometry, mesh.Part, bool) {
	g, p, ok := b.Assembler.Part(ev)
	if !ok {
		return nil, p, false
	}
	g.FillAttribute(mesh.AttrBoneIndex, float32(BoneForSegment(p.Segment)))
	g.FillAttribute(mesh.AttrBoneWeight, 1)
	return g, p, true
}
