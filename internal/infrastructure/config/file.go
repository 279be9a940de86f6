package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// ApplyFile reads a YAML or TOML file of environment settings, for example
//
//	FRAME_VERSION: "2410031234567"
//	CACHE_TTL: 90m
//	FETCH_ALLOWED_HOSTS: [publisher.example, news.example]
//
// and exports every key the environment does not already set, so a following
// Load sees them. Lists become comma-separated values. It returns the keys it
// applied, sorted.
func ApplyFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	values := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &values)
	case ".toml":
		err = toml.Unmarshal(data, &values)
	default:
		return nil, fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	var applied []string
	for key, raw := range values {
		key = strings.ToUpper(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		value, err := envValue(raw)
		if err != nil {
			return nil, fmt.Errorf("config file key %s: %w", key, err)
		}
		if err := os.Setenv(key, value); err != nil {
			return nil, fmt.Errorf("config file key %s: %w", key, err)
		}
		applied = append(applied, key)
	}
	sort.Strings(applied)
	return applied, nil
}

func envValue(raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, err := envValue(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	case map[string]any:
		return "", fmt.Errorf("nested tables are not supported")
	default:
		return fmt.Sprint(v), nil
	}
}
