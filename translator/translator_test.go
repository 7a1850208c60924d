package translator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goartstudio/effects"
	"github.com/richinsley/goartstudio/graphics"
	"github.com/richinsley/goartstudio/translator"
)

func TestTranslateBuiltins(t *testing.T) {
	lib, err := effects.NewLibrary()
	require.NoError(t, err)

	for _, name := range lib.Names() {
		e, err := lib.Get(name)
		require.NoError(t, err)
		for _, gles := range []bool{false, true} {
			frag, err := translator.TranslateFragment(e.Name, e.Source, gles)
			require.NoError(t, err, "%s gles=%v", name, gles)
			assert.NotEmpty(t, frag.Code, name)
			assert.NotEmpty(t, frag.Texcoord, name)
			assert.Equal(t, e.Meta.UsesFeedback, frag.Inputs.Has(graphics.InputPrevFrame), "%s gles=%v", name, gles)
			for _, in := range graphics.AllInputs() {
				_, mapped := frag.Mapped[in]
				assert.Equal(t, frag.Inputs.Has(in), mapped, "%s %s", name, in)
			}
		}
	}
}

func TestTranslateReportsDeclaredInputs(t *testing.T) {
	const src = `#version 300 es
precision highp float;
uniform float time;
uniform vec2 resolution;
// uniform float zoom;
/* uniform vec2 offset; */
uniform sampler2D prev_frame;
in vec2 v_texcoord;
out vec4 f_color;
void main() {
    vec4 prev = texture(prev_frame, v_texcoord * resolution / resolution);
    f_color = vec4(prev.rgb, time);
}
`
	frag, err := translator.TranslateFragment("inputs", src, false)
	require.NoError(t, err)
	assert.True(t, frag.Inputs.Has(graphics.InputTime))
	assert.True(t, frag.Inputs.Has(graphics.InputResolution))
	assert.True(t, frag.Inputs.Has(graphics.InputPrevFrame))
	assert.False(t, frag.Inputs.Has(graphics.InputZoom))
	assert.False(t, frag.Inputs.Has(graphics.InputOffset))
}

func TestTranslateRejectsInvalidSource(t *testing.T) {
	tests := map[string]string{
		"undeclared identifier": "out vec4 c;\nvoid main() { c = vec4(glow); }",
		"type mismatch":         "uniform float time;\nout vec4 c;\nvoid main() { vec2 v = time; c = vec4(v, 0.0, 1.0); }",
		"missing semicolon":     "out vec4 c;\nvoid main() { c = vec4(1.0) }",
		"no version":            "",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			code := "#version 300 es\nprecision highp float;\n" + body
			if body == "" {
				code = "precision highp float;\nout vec4 c;\nvoid main() { c = vec4(1.0); }"
			}
			_, err := translator.TranslateFragment(name, code, false)
			require.Error(t, err)
			var ce *graphics.CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, name, ce.Program)
			assert.NotEmpty(t, ce.Log)
		})
	}
}

func TestTranslateCachesByDialect(t *testing.T) {
	const src = "#version 300 es\nprecision highp float;\nout vec4 c;\nvoid main() { c = vec4(1.0); }\n"
	desktop, err := translator.TranslateFragment("a", src, false)
	require.NoError(t, err)
	again, err := translator.TranslateFragment("b", src, false)
	require.NoError(t, err)
	assert.Same(t, desktop, again)

	es, err := translator.TranslateFragment("a", src, true)
	require.NoError(t, err)
	assert.NotSame(t, desktop, es)
}
