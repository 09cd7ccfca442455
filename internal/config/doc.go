/*
Package config provides layered configuration loading for the session
engine, registry, worker pool, preview cache, and every external
collaborator client.

# Configuration sources

Configuration loads from, in increasing priority:
  - Built-in defaults (DefaultConfig)
  - An optional YAML file (config.yaml, or FASTANIME_CONFIG_PATH)
  - FASTANIME_-prefixed environment variables

# Configuration structure

  - PathsConfig: data and cache root directories
  - SessionConfig: navigation stack persistence tuning
  - RegistryConfig: MediaRecord store cache and repair behavior
  - WorkerPoolConfig: concurrent task dispatcher sizing
  - PreviewConfig: preview cache worker sizing and TTL
  - MediaAPIConfig / ProviderConfig: external collaborator clients
  - PlayerConfig / SelectorConfig: external process collaborators
  - DownloaderConfig: badger-backed download queue
  - LoggingConfig / MetricsConfig: ambient observability

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("failed to load configuration")
	}

# Credential encryption

internal/config also provides CredentialEncryptor, an AES-256-GCM cipher
keyed via HKDF-SHA256 from a machine-local secret (LoadOrCreateMachineSecret),
used to encrypt provider/player auth tokens before they touch disk.
*/
package config
