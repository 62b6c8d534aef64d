package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the prefix of environment overrides.
const DefaultEnvPrefix = "HABBO_"

// Layer names a configuration source. Later layers win.
type Layer string

const (
	LayerDefaults  Layer = "defaults"
	LayerFile      Layer = "file"
	LayerEnv       Layer = "env"
	LayerOverrides Layer = "overrides"
)

// Loader merges defaults, a YAML file, the environment and explicit
// overrides into a koanf-tagged struct. Every Load starts from scratch,
// so a Loader can be reused to reload after the file changed.
type Loader struct {
	envPrefix string
	filePath  string
	defaults  map[string]any
	overrides map[string]any

	origin map[string]Layer
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile sets the YAML file. An empty path skips the file layer.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithDefaults sets flat "section.key" defaults. Their keys also decide
// how environment names map back to keys.
func WithDefaults(defaults map[string]any) Option {
	return func(l *Loader) { l.defaults = defaults }
}

// WithOverrides sets values applied over every other layer, typically
// command-line flags. Keys may be flat or nested.
func WithOverrides(overrides map[string]any) Option {
	return func(l *Loader) { l.overrides = overrides }
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load merges every layer and unmarshals the result into target.
func (l *Loader) Load(target any) error {
	k := koanf.New(".")
	origin := make(map[string]Layer)

	layers := []struct {
		layer Layer
		load  func(*koanf.Koanf) error
	}{
		{LayerDefaults, func(k *koanf.Koanf) error { return loadMap(k, l.defaults) }},
		{LayerFile, l.loadFile},
		{LayerEnv, l.loadEnv},
		{LayerOverrides, func(k *koanf.Koanf) error { return loadMap(k, l.overrides) }},
	}
	for _, ly := range layers {
		sub := koanf.New(".")
		if err := ly.load(sub); err != nil {
			return fmt.Errorf("load %s: %w", ly.layer, err)
		}
		for _, key := range sub.Keys() {
			origin[key] = ly.layer
		}
		if err := k.Merge(sub); err != nil {
			return fmt.Errorf("merge %s: %w", ly.layer, err)
		}
	}

	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	l.origin = origin
	return nil
}

// Origin returns the layer that supplied key in the last Load.
func (l *Loader) Origin(key string) (Layer, bool) {
	ly, ok := l.origin[key]
	return ly, ok
}

// FilePath returns the configured file, or "".
func (l *Loader) FilePath() string {
	return l.filePath
}

func (l *Loader) loadFile(k *koanf.Koanf) error {
	if l.filePath == "" {
		return nil
	}
	if err := k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
		return fmt.Errorf("%s: %w", l.filePath, err)
	}
	return nil
}

func (l *Loader) loadEnv(k *koanf.Koanf) error {
	return k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil)
}

func loadMap(k *koanf.Koanf, m map[string]any) error {
	if len(m) == 0 {
		return nil
	}
	return k.Load(mapProvider(m), nil)
}

// envKey maps HABBO_SERVER_CONNECT_TIMEOUT to server.connect_timeout when
// that key has a default, and to server.connect.timeout otherwise.
func (l *Loader) envKey(name string) string {
	bare := strings.TrimPrefix(name, l.envPrefix)
	for key := range l.defaults {
		if strings.EqualFold(EnvName("", key), bare) {
			return key
		}
	}
	return strings.ReplaceAll(strings.ToLower(bare), "_", ".")
}

// EnvName returns the environment variable that sets key.
func EnvName(prefix, key string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
