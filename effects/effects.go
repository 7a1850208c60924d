package effects

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/richinsley/goartstudio/graphics"
	"github.com/richinsley/goartstudio/translator"
)

//go:embed shaders/*.glsl
var builtinShaders embed.FS

var (
	// ErrUnknownEffect is returned when a name is not in the library.
	ErrUnknownEffect = errors.New("unknown effect")
)

// Meta is the metadata record every effect carries. It is validated when the
// library is loaded, never at draw time.
type Meta struct {
	// UsesFeedback selects the ping-pong render path.
	UsesFeedback bool `yaml:"feedback"`
	// StateChannels are the channels of the previous frame the effect reads
	// back as simulation state. Empty for single-pass effects.
	StateChannels graphics.ChannelSet `yaml:"state,omitempty"`
}

// Effect is one entry of the effect menu.
type Effect struct {
	Name   string
	Source string
	Meta   Meta
	// Kernel is the CPU twin used by the software device; nil for GPU-only
	// effects.
	Kernel graphics.Kernel
	// Path is the file the source was read from, empty for built-ins.
	Path string
}

// ProgramSource returns the effect in the form a device compiles.
func (e *Effect) ProgramSource() graphics.Source {
	return graphics.Source{Name: e.Name, Code: e.Source, Kernel: e.Kernel}
}

// Validate compiles the source through the shader translator and checks the
// metadata against the inputs it declares.
func (e *Effect) Validate() error {
	frag, err := translator.TranslateFragment(e.Name, e.Source, true)
	if err != nil {
		return fmt.Errorf("effect %q: %w", e.Name, err)
	}
	inputs := frag.Inputs
	if e.Meta.UsesFeedback {
		if !inputs.Has(graphics.InputPrevFrame) {
			return fmt.Errorf("effect %q: feedback effect does not declare %s", e.Name, graphics.NamePrevFrame)
		}
		if e.Meta.StateChannels.Empty() {
			return fmt.Errorf("effect %q: feedback effect reserves no state channels", e.Name)
		}
		return nil
	}
	if !e.Meta.StateChannels.Empty() {
		return fmt.Errorf("effect %q: single-pass effect reserves state channels %s", e.Name, e.Meta.StateChannels)
	}
	return nil
}

func singlePass() Meta { return Meta{} }

func feedback(ch ...graphics.Channel) Meta {
	var s graphics.ChannelSet
	for _, c := range ch {
		s |= graphics.ChannelSet(c)
	}
	return Meta{UsesFeedback: true, StateChannels: s}
}

// menu is the built-in effect list in display order.
var menu = []struct {
	name string
	meta Meta
}{
	{"Default", singlePass()},
	{"Mandelbrot", singlePass()},
	{"Julia", singlePass()},
	{"Burning Ship", singlePass()},
	{"Orbit Traps", singlePass()},
	{"IFS Morphing", singlePass()},
	{"Tree", singlePass()},
	{"Stacking", singlePass()},
	{"Voronoi", singlePass()},
	{"Reaction Diffusion", feedback(graphics.ChannelB, graphics.ChannelA)},
	{"Slime Mold", feedback(graphics.ChannelB, graphics.ChannelA)},
	{"Cellular Automata 3D", feedback(graphics.ChannelR, graphics.ChannelG)},
	{"Flow Field", singlePass()},
	{"Flow Field Simulation", feedback(graphics.ChannelA)},
	{"Curl Noise Flow", singlePass()},
	{"Magnetic Fields", singlePass()},
	{"Particles", singlePass()},
	{"Game of Life", feedback(graphics.ChannelA)},
	{"Smooth Life", feedback(graphics.ChannelA)},
	{"Flame", feedback(graphics.ChannelA)},
	{"GPU Fire", feedback(graphics.ChannelA)},
	{"Smoke / Ink", feedback(graphics.ChannelA)},
	{"Droplet Ripples", feedback(graphics.ChannelB, graphics.ChannelA)},
	{"Noise", singlePass()},
	{"Kaleidoscope", singlePass()},
	{"Spiral", singlePass()},
	{"Geometric", singlePass()},
	{"Cosmic", singlePass()},
}

var kernels = map[string]graphics.Kernel{}

func registerKernel(name string, k graphics.Kernel) {
	kernels[name] = k
}

// Slug is the file stem an effect is stored under: lower case with spaces
// and slashes replaced by underscores.
func Slug(name string) string {
	r := strings.NewReplacer(" ", "_", "/", "_")
	return r.Replace(strings.ToLower(name))
}

func builtin(name string, meta Meta) (*Effect, error) {
	data, err := builtinShaders.ReadFile("shaders/" + Slug(name) + ".glsl")
	if err != nil {
		return nil, fmt.Errorf("effect %q: %w", name, err)
	}
	return &Effect{
		Name:   name,
		Source: string(data),
		Meta:   meta,
		Kernel: kernels[name],
	}, nil
}
