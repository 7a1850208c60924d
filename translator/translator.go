package translator

import (
	"context"
	"fmt"
	"sync"

	"github.com/richinsley/goartstudio/graphics"
	"github.com/richinsley/goartstudio/shader"
	gst "github.com/richinsley/goshadertranslator"
)

var (
	translator     *gst.ShaderTranslator
	translatorErr  error
	translatorOnce sync.Once

	// mu serializes calls into the translator and guards cache.
	mu    sync.Mutex
	cache = map[cacheKey]*Fragment{}
)

type cacheKey struct {
	code string
	gles bool
}

// GetTranslator returns the process-wide translator, creating it on first use.
func GetTranslator() (*gst.ShaderTranslator, error) {
	translatorOnce.Do(func() {
		translator, translatorErr = gst.NewShaderTranslator(context.Background())
	})
	return translator, translatorErr
}

// Fragment is an effect routine rewritten into the dialect of the running
// context, with the names the driver has to use for its uniforms.
type Fragment struct {
	Code string
	// Inputs lists the recognized named inputs the routine declares.
	Inputs graphics.InputSet
	// Mapped maps each declared named input to its name in Code.
	Mapped map[graphics.Input]string
	// Texcoord is the name of the v_texcoord input in Code.
	Texcoord string
}

// TranslateFragment validates WebGL2 (ESSL 3.00) fragment text and converts it
// to GLSL 4.10, or ESSL when gles is set. Validation failures are returned as
// *graphics.CompileError so callers can surface the log unchanged. Successful
// translations are cached by source text; the result must not be modified.
func TranslateFragment(name, code string, gles bool) (*Fragment, error) {
	mu.Lock()
	defer mu.Unlock()
	key := cacheKey{code: code, gles: gles}
	if frag, ok := cache[key]; ok {
		return frag, nil
	}

	t, err := GetTranslator()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader translator: %w", err)
	}

	outputFormat := gst.OutputFormatGLSL410
	if gles {
		outputFormat = gst.OutputFormatESSL
	}
	fsShader, err := t.TranslateShader(code, "fragment", gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return nil, &graphics.CompileError{Program: name, Log: err.Error()}
	}

	frag := &Fragment{
		Code:     fsShader.Code,
		Mapped:   make(map[graphics.Input]string),
		Texcoord: shader.TexcoordVarying,
	}
	if v, ok := fsShader.Variables[shader.TexcoordVarying]; ok {
		frag.Texcoord = v.MappedName
	}
	for _, in := range graphics.AllInputs() {
		if v, ok := fsShader.Variables[in.String()]; ok {
			frag.Inputs = frag.Inputs.With(in)
			frag.Mapped[in] = v.MappedName
		}
	}
	cache[key] = frag
	return frag, nil
}
