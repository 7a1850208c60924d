package effects

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ManifestName is the optional metadata file read by LoadDir and written by
// Export.
const ManifestName = "effects.yaml"

type manifest struct {
	Effects []manifestEntry `yaml:"effects"`
}

type manifestEntry struct {
	Name string `yaml:"name"`
	File string `yaml:"file,omitempty"`
	Meta `yaml:",inline"`
}

// Library holds the effect menu. It is owned by the render thread.
type Library struct {
	logger  *zap.Logger
	order   []string
	effects map[string]*Effect
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets the logger used for load and reload messages.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// NewLibrary returns the built-in effects, validated.
func NewLibrary(opts ...Option) (*Library, error) {
	l := &Library{
		logger:  zap.NewNop(),
		effects: make(map[string]*Effect, len(menu)),
	}
	for _, opt := range opts {
		opt(l)
	}
	for _, m := range menu {
		e, err := builtin(m.name, m.meta)
		if err != nil {
			return nil, err
		}
		l.add(e)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Library) add(e *Effect) {
	if _, ok := l.effects[e.Name]; !ok {
		l.order = append(l.order, e.Name)
	}
	l.effects[e.Name] = e
}

// Names returns the effect names in menu order.
func (l *Library) Names() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Get returns the named effect or ErrUnknownEffect.
func (l *Library) Get(name string) (*Effect, error) {
	e, ok := l.effects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
	}
	return e, nil
}

// IsFeedback reports whether the named effect runs in feedback mode. Unknown
// names are single-pass.
func (l *Library) IsFeedback(name string) bool {
	e, ok := l.effects[name]
	return ok && e.Meta.UsesFeedback
}

// Validate checks every effect's metadata.
func (l *Library) Validate() error {
	var errs []error
	for _, name := range l.order {
		if err := l.effects[name].Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Export writes every effect to dir as <slug>.glsl together with a manifest
// carrying the metadata.
func (l *Library) Export(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	var m manifest
	for _, name := range l.order {
		e := l.effects[name]
		file := Slug(name) + ".glsl"
		if err := os.WriteFile(filepath.Join(dir, file), []byte(e.Source), 0o644); err != nil {
			return fmt.Errorf("failed to export %q: %w", name, err)
		}
		m.Effects = append(m.Effects, manifestEntry{Name: name, File: file, Meta: e.Meta})
		l.logger.Debug("exported effect", zap.String("name", name), zap.String("file", file))
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func readManifest(dir string) (map[string]manifestEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	byFile := make(map[string]manifestEntry, len(m.Effects))
	for _, entry := range m.Effects {
		if entry.Name == "" {
			return nil, errors.New("manifest entry without a name")
		}
		if entry.File == "" {
			entry.File = Slug(entry.Name) + ".glsl"
		}
		byFile[entry.File] = entry
	}
	return byFile, nil
}

// LoadDir reads *.glsl files from dir. A file whose stem matches a known
// effect replaces that effect's source and keeps its metadata and kernel.
// Other files are added as new effects, described by the manifest when it
// lists them and single-pass otherwise. Nothing is applied unless every file
// loads and validates.
func (l *Library) LoadDir(dir string) error {
	entries, err := readManifest(dir)
	if err != nil {
		return err
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.glsl"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	bySlug := make(map[string]*Effect, len(l.effects))
	for _, e := range l.effects {
		bySlug[Slug(e.Name)] = e
	}

	var loaded []*Effect
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		base := filepath.Base(path)
		e := &Effect{Source: string(data), Path: path}

		if entry, ok := entries[base]; ok {
			e.Name = entry.Name
			e.Meta = entry.Meta
			if prev, ok := l.effects[entry.Name]; ok {
				e.Kernel = prev.Kernel
			}
			delete(entries, base)
		} else if prev, ok := bySlug[strings.TrimSuffix(base, ".glsl")]; ok {
			e.Name = prev.Name
			e.Meta = prev.Meta
			e.Kernel = prev.Kernel
		} else {
			e.Name = strings.TrimSuffix(base, ".glsl")
		}

		if err := e.Validate(); err != nil {
			return err
		}
		loaded = append(loaded, e)
	}
	if len(entries) > 0 {
		missing := make([]string, 0, len(entries))
		for file := range entries {
			missing = append(missing, file)
		}
		sort.Strings(missing)
		return fmt.Errorf("manifest lists files missing from %s: %s", dir, strings.Join(missing, ", "))
	}

	for _, e := range loaded {
		l.add(e)
		l.logger.Debug("loaded effect", zap.String("name", e.Name), zap.String("path", e.Path))
	}
	l.logger.Info("effects directory loaded", zap.String("dir", dir), zap.Int("files", len(loaded)))
	return nil
}

// ByPath returns the effect whose source was loaded from path.
func (l *Library) ByPath(path string) (*Effect, bool) {
	path = filepath.Clean(path)
	for _, name := range l.order {
		if e := l.effects[name]; e.Path != "" && filepath.Clean(e.Path) == path {
			return e, true
		}
	}
	return nil, false
}

// Reload rereads the source of an effect loaded from disk. On failure the
// effect keeps its previous source.
func (l *Library) Reload(name string) (*Effect, error) {
	e, err := l.Get(name)
	if err != nil {
		return nil, err
	}
	if e.Path == "" {
		return nil, fmt.Errorf("effect %q is built in", name)
	}
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.Path, err)
	}
	next := *e
	next.Source = string(data)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	l.effects[name] = &next
	l.logger.Debug("reloaded effect", zap.String("name", name), zap.String("path", e.Path))
	return &next, nil
}
