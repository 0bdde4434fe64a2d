package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "PLATEFUL_"

// Load builds the configuration in three layers with increasing
// precedence: built-in defaults, an optional YAML file, then
// environment variables.
//
// Environment variables use a double underscore as the nesting
// delimiter so single underscores survive inside key names:
//
//	PLATEFUL_HTTP__PORT=9090                       -> http.port
//	PLATEFUL_ENGINE__TRUST__DIRECT_WEIGHT=0.8      -> engine.trust.direct_weight
//	PLATEFUL_STORE__BACKEND=badger                 -> store.backend
//
// The file path is taken from PLATEFUL_CONFIG, falling back to
// ./config.yaml when that file exists.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load config defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("load config environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func envTransform(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func findConfigFile() string {
	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}
