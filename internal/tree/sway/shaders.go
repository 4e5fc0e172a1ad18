package sway

import _ "embed"

// VertexShader runs VertexSway on the GPU for static meshes.
//
//go:embed glsl/sway.vert
var VertexShader string

// FragmentShader colours fragments by their normal, or flat with uColor
// when uFlat is set.
//
//go:embed glsl/sway.frag
var FragmentShader string
