package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order
// of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"~/.config/fastanime/config.yaml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "FASTANIME_CONFIG_PATH"

var validate = validator.New()

// Load loads configuration using the layered Koanf v2 sources: struct
// defaults, an optional YAML file, then FASTANIME_-prefixed environment
// variables (highest priority). It expands a leading "~/" in path fields
// and validates the result before returning it.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("FASTANIME_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("processing slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	expandPaths(cfg)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(expandHome(envPath)); err == nil {
			return expandHome(envPath)
		}
	}

	for _, path := range DefaultConfigPaths {
		expanded := expandHome(path)
		if _, err := os.Stat(expanded); err == nil {
			return expanded
		}
	}

	return ""
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func expandPaths(cfg *Config) {
	cfg.Paths.Data = expandHome(cfg.Paths.Data)
	cfg.Paths.Cache = expandHome(cfg.Paths.Cache)
	cfg.Downloader.Path = expandHome(cfg.Downloader.Path)
}

// sliceConfigPaths lists koanf paths that arrive as comma-separated
// strings from the environment but must unmarshal as []string.
var sliceConfigPaths = []string{
	"player.args",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("setting %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps a (prefix-stripped) environment variable name to
// its koanf config path. Unmapped keys return "" and are skipped, so
// unrelated environment variables never pollute the config tree.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, "FASTANIME_")
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"paths_data":  "paths.data",
		"paths_cache": "paths.cache",

		"session_autosave_interval": "session.autosave_interval",
		"session_max_stack_depth":   "session.max_stack_depth",

		"registry_cache_size":        "registry.cache_size",
		"registry_cache_ttl":         "registry.cache_ttl",
		"registry_repair_on_startup": "registry.repair_on_startup",

		"worker_pool_size":           "worker_pool.size",
		"worker_pool_queue_capacity": "worker_pool.queue_capacity",

		"preview_workers": "preview.workers",
		"preview_ttl":     "preview.ttl",

		"media_api_base_url":               "media_api.base_url",
		"media_api_timeout":                "media_api.timeout",
		"media_api_rate_limit_per_second":  "media_api.rate_limit_per_second",
		"media_api_rate_limit_burst":       "media_api.rate_limit_burst",
		"media_api_circuit_breaker_name":   "media_api.circuit_breaker_name",

		"provider_name":                 "provider.name",
		"provider_timeout":              "provider.timeout",
		"provider_rate_limit_per_second": "provider.rate_limit_per_second",
		"provider_rate_limit_burst":     "provider.rate_limit_burst",

		"player_command": "player.command",
		"player_args":    "player.args",

		"selector_command": "selector.command",

		"downloader_path":        "downloader.path",
		"downloader_concurrency": "downloader.concurrency",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		"metrics_addr": "metrics.addr",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// GetKoanfInstance returns a fresh Koanf instance for advanced usage such
// as CONFIG_EDIT's reload path.
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}
