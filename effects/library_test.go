package effects

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goartstudio/graphics"
)

var feedbackEffects = []string{
	"Game of Life", "Smooth Life", "Flame", "Reaction Diffusion", "Slime Mold",
	"Cellular Automata 3D", "GPU Fire", "Smoke / Ink", "Droplet Ripples", "Flow Field Simulation",
}

func newLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := NewLibrary()
	require.NoError(t, err)
	return lib
}

func TestMenuOrder(t *testing.T) {
	names := newLibrary(t).Names()
	require.Len(t, names, 28)
	assert.Equal(t, "Default", names[0])
	assert.Equal(t, "Mandelbrot", names[1])
	assert.Equal(t, "Reaction Diffusion", names[9])
	assert.Equal(t, "Cosmic", names[27])
}

func TestFeedbackClassification(t *testing.T) {
	lib := newLibrary(t)
	var got []string
	for _, name := range lib.Names() {
		if lib.IsFeedback(name) {
			got = append(got, name)
		}
	}
	assert.ElementsMatch(t, feedbackEffects, got)
	assert.False(t, lib.IsFeedback("No Such Effect"))
}

func TestBuiltinSourcesAreESSL300(t *testing.T) {
	lib := newLibrary(t)
	for _, name := range lib.Names() {
		e, err := lib.Get(name)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(e.Source, "#version 300 es"), name)
	}
}

func TestStateChannels(t *testing.T) {
	lib := newLibrary(t)
	tests := map[string]string{
		"Game of Life":         "A",
		"Reaction Diffusion":   "BA",
		"Droplet Ripples":      "BA",
		"Slime Mold":           "BA",
		"Cellular Automata 3D": "RG",
		"Mandelbrot":           "",
	}
	for name, want := range tests {
		e, err := lib.Get(name)
		require.NoError(t, err)
		assert.Equal(t, want, e.Meta.StateChannels.String(), name)
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := newLibrary(t).Get("Plasma")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownEffect))
}

func TestValidate(t *testing.T) {
	const single = "#version 300 es\nprecision highp float;\nuniform float time;\nout vec4 c;\nvoid main() { c = vec4(time); }\n"
	const withPrev = "#version 300 es\nprecision highp float;\nuniform sampler2D prev_frame;\nin vec2 v_texcoord;\nout vec4 c;\nvoid main() { c = texture(prev_frame, v_texcoord); }\n"

	tests := []struct {
		name string
		e    Effect
		want string
	}{
		{"feedback without prev_frame", Effect{Name: "a", Source: single, Meta: feedback(graphics.ChannelA)}, "does not declare prev_frame"},
		{"feedback without state", Effect{Name: "b", Source: withPrev, Meta: Meta{UsesFeedback: true}}, "no state channels"},
		{"single-pass with state", Effect{Name: "c", Source: single, Meta: Meta{StateChannels: graphics.ChannelSet(graphics.ChannelA)}}, "single-pass"},
		{"valid feedback", Effect{Name: "d", Source: withPrev, Meta: feedback(graphics.ChannelA)}, ""},
		{"single-pass may declare prev_frame", Effect{Name: "e", Source: withPrev}, ""},
		{"source does not compile", Effect{Name: "f", Source: "#version 300 es\nprecision highp float;\nout vec4 c;\nvoid main() { c = vec4(glow); }\n"}, "compile failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.e.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "default", Slug("Default"))
	assert.Equal(t, "game_of_life", Slug("Game of Life"))
	assert.Equal(t, "smoke___ink", Slug("Smoke / Ink"))
	assert.Equal(t, "gpu_fire", Slug("GPU Fire"))
}

func TestExportLoadDir(t *testing.T) {
	dir := t.TempDir()
	lib := newLibrary(t)
	require.NoError(t, lib.Export(dir))

	_, err := os.Stat(filepath.Join(dir, "smoke___ink.glsl"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ManifestName))
	require.NoError(t, err)

	other := newLibrary(t)
	require.NoError(t, other.LoadDir(dir))
	assert.Equal(t, lib.Names(), other.Names())
	for _, name := range lib.Names() {
		want, _ := lib.Get(name)
		got, err := other.Get(name)
		require.NoError(t, err)
		assert.Equal(t, want.Source, got.Source, name)
		assert.Equal(t, want.Meta, got.Meta, name)
		assert.Equal(t, want.Kernel != nil, got.Kernel != nil, name)
		assert.Equal(t, filepath.Join(dir, Slug(name)+".glsl"), got.Path)
	}
}

const customFeedback = `#version 300 es
precision highp float;
uniform float time;
uniform sampler2D prev_frame;
in vec2 v_texcoord;
out vec4 f_color;
void main() {
    vec4 prev = texture(prev_frame, v_texcoord);
    f_color = vec4(prev.rgb, prev.a + 1.0);
}
`

func TestLoadDirManifestEffect(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "counter.glsl"), []byte(customFeedback), 0o644))
	manifest := "effects:\n  - name: Counter\n    file: counter.glsl\n    feedback: true\n    state: A\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0o644))

	lib := newLibrary(t)
	require.NoError(t, lib.LoadDir(dir))

	names := lib.Names()
	assert.Equal(t, "Counter", names[len(names)-1])
	assert.True(t, lib.IsFeedback("Counter"))

	e, ok := lib.ByPath(filepath.Join(dir, "counter.glsl"))
	require.True(t, ok)
	assert.Equal(t, "Counter", e.Name)
	assert.Nil(t, e.Kernel)
}

func TestLoadDirUnlistedFileIsSinglePass(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my_effect.glsl"), []byte(customFeedback), 0o644))

	lib := newLibrary(t)
	require.NoError(t, lib.LoadDir(dir))
	_, err := lib.Get("my_effect")
	require.NoError(t, err)
	assert.False(t, lib.IsFeedback("my_effect"))
}

func TestLoadDirIsAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.glsl"), []byte(customFeedback), 0o644))
	// feedback metadata without prev_frame
	broken := "#version 300 es\nprecision highp float;\nout vec4 c;\nvoid main() { c = vec4(1.0); }\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zz.glsl"), []byte(broken), 0o644))
	manifest := "effects:\n  - name: Broken\n    file: zz.glsl\n    feedback: true\n    state: A\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0o644))

	lib := newLibrary(t)
	before, _ := lib.Get("Default")
	require.Error(t, lib.LoadDir(dir))

	after, _ := lib.Get("Default")
	assert.Same(t, before, after)
	assert.Len(t, lib.Names(), 28)
}

func TestLoadDirMissingManifestFile(t *testing.T) {
	dir := t.TempDir()
	manifest := "effects:\n  - name: Ghost\n    feedback: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0o644))

	err := newLibrary(t).LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost.glsl")
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.glsl")
	require.NoError(t, os.WriteFile(path, []byte(customFeedback), 0o644))

	lib := newLibrary(t)
	require.NoError(t, lib.LoadDir(dir))

	edited := strings.Replace(customFeedback, "prev.a + 1.0", "prev.a + 2.0", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	e, err := lib.Reload("Default")
	require.NoError(t, err)
	assert.Contains(t, e.Source, "prev.a + 2.0")
	assert.NotNil(t, e.Kernel)

	_, err = lib.Reload("Mandelbrot")
	assert.Error(t, err)
}

const brokenSource = "#version 300 es\nprecision highp float;\nout vec4 c;\nvoid main() { vec2 v = 1.0; c = vec4(v, 0.0, 1.0); }\n"

func TestLoadDirRejectsSourceThatDoesNotCompile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mandelbrot.glsl"), []byte(brokenSource), 0o644))

	lib := newLibrary(t)
	before, _ := lib.Get("Mandelbrot")
	err := lib.LoadDir(dir)
	require.Error(t, err)
	assert.True(t, graphics.IsCompileError(err))

	after, _ := lib.Get("Mandelbrot")
	assert.Same(t, before, after)
}

func TestReloadRejectsSourceThatDoesNotCompile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.glsl")
	require.NoError(t, os.WriteFile(path, []byte(customFeedback), 0o644))

	lib := newLibrary(t)
	require.NoError(t, lib.LoadDir(dir))
	require.NoError(t, os.WriteFile(path, []byte(brokenSource), 0o644))

	_, err := lib.Reload("Default")
	require.Error(t, err)
	assert.True(t, graphics.IsCompileError(err))

	e, err := lib.Get("Default")
	require.NoError(t, err)
	assert.Equal(t, customFeedback, e.Source)
}
