package config

// Environment identifies the runtime environment where the portal operates.
type Environment string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

// CacheBackend selects the key-value cache implementation.
type CacheBackend string

const (
	// CacheMemory keeps cached state in process memory only.
	CacheMemory CacheBackend = "memory"
	// CacheSQLite persists cached state to a local SQLite file.
	CacheSQLite CacheBackend = "sqlite"
)
