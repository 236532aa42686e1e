package common

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

// ConfigPathEnv names the environment variable pointing at a config file
const ConfigPathEnv = "HAZARDKIT_CONFIG_PATH"

//go:embed config.default.yaml
var defaultConfig []byte

// ConfigManager loads layered configuration: embedded defaults, then an
// optional YAML or JSON file.
type ConfigManager[T any] struct {
	kf     *koanf.Koanf
	config T
}

type configOptions struct {
	path string
}

// ConfigOption customizes NewConfigManager
type ConfigOption func(*configOptions)

// WithConfigPath loads path on top of the defaults. An empty path falls
// back to $HAZARDKIT_CONFIG_PATH.
func WithConfigPath(path string) ConfigOption {
	return func(o *configOptions) {
		o.path = path
	}
}

func NewConfigManager[T any](opts ...ConfigOption) (*ConfigManager[T], error) {
	o := configOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.path == "" {
		o.path = os.Getenv(ConfigPathEnv)
	}

	cm := &ConfigManager[T]{kf: koanf.New(".")}

	if err := cm.kf.Load(rawbytes.Provider(defaultConfig), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load default config: %w", err)
	}

	if o.path != "" {
		if err := cm.loadFile(o.path); err != nil {
			return nil, err
		}
		log.Debug().Str("path", o.path).Msg("loaded config file")
	}

	if err := cm.unmarshal(); err != nil {
		return nil, err
	}

	return cm, nil
}

func (cm *ConfigManager[T]) loadFile(path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		parser = json.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	default:
		return fmt.Errorf("config file %s: unsupported extension", path)
	}

	if err := cm.kf.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}
	return nil
}

func (cm *ConfigManager[T]) unmarshal() error {
	var config T
	err := cm.kf.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "key",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &config,
			WeaklyTypedInput: true,
			TagName:          "key",
		},
	})
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	cm.config = config
	return nil
}

// GetConfig returns the decoded configuration
func (cm *ConfigManager[T]) GetConfig() T {
	return cm.config
}

// Set overrides a single dotted key (e.g. "source.dir") and re-decodes
func (cm *ConfigManager[T]) Set(key string, value interface{}) error {
	if err := cm.kf.Set(key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return cm.unmarshal()
}
