package shader

import "fmt"

// ────────────────────────────────── Desktop GL ──────────────────────────────────

// The quad is two triangles in clip space; texture coordinates are derived
// from the position so no second attribute is needed.
const vertexShaderSourceGL = `#version 410 core
layout (location = 0) in vec2 in_vert;
out vec2 %[1]s;
void main() {
    %[1]s = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const copyFragmentShaderSourceGL = `#version 410 core
in vec2 v_texcoord;
out vec4 f_color;
uniform sampler2D tex;
void main() { f_color = vec4(texture(tex, v_texcoord).rgb, 1.0); }
`

// ──────────────────────────────────── GLES ──────────────────────────────────────

const vertexShaderSourceGLES = `#version 300 es
layout (location = 0) in vec2 in_vert;
out vec2 %[1]s;
void main() {
    %[1]s = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const copyFragmentShaderSourceGLES = `#version 300 es
precision highp float;
in vec2 v_texcoord;
out vec4 f_color;
uniform sampler2D tex;
void main() { f_color = vec4(texture(tex, v_texcoord).rgb, 1.0); }
`

// CopyTextureUniform is the sampler name used by the copy pass.
const CopyTextureUniform = "tex"

// ────────────────────────────────── Public API ─────────────────────────────────

// TexcoordVarying is the texture coordinate input every effect routine reads.
const TexcoordVarying = "v_texcoord"

func GenerateVertexShader(isGLES bool) string {
	return GenerateVertexShaderFor(TexcoordVarying, isGLES)
}

// GenerateVertexShaderFor writes the texture coordinate to varying, for
// fragment text whose inputs were renamed by translation.
func GenerateVertexShaderFor(varying string, isGLES bool) string {
	if isGLES {
		return fmt.Sprintf(vertexShaderSourceGLES, varying)
	}
	return fmt.Sprintf(vertexShaderSourceGL, varying)
}

// GetCopyFragmentShader returns the pass-through routine that presents a
// feedback surface's RGB channels.
func GetCopyFragmentShader(isGLES bool) string {
	if isGLES {
		return copyFragmentShaderSourceGLES
	}
	return copyFragmentShaderSourceGL
}
