package config

// Config aggregates every configuration concern the bridge needs.
type Config interface {
	EnvConfig
	BridgeConfig
	CorsConfig
}

// EnvConfig covers process-level settings.
type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

// BridgeConfig covers the bridge's external collaborators.
type BridgeConfig interface {
	// GetBrokerURL is the fixed WebSocket endpoint of the message broker.
	GetBrokerURL() string

	// GetNotificationAPIURL is the base URL of the notification REST service.
	GetNotificationAPIURL() string

	// GetActivityURL is the session-tracking sink endpoint. Empty disables
	// telemetry.
	GetActivityURL() string

	// GetRedisAddr is the Redis address for the shared session store. Empty
	// selects the in-memory store.
	GetRedisAddr() string

	// GetSessionKeyPrefix namespaces the Redis session keys.
	GetSessionKeyPrefix() string

	// GetLandingPath is the canonical authenticated path the handoff
	// receiver rewrites to.
	GetLandingPath() string
}

type mainConfig struct {
	EnvVars
	Cors
}

// New returns the environment-variable backed configuration.
func New() Config {
	return mainConfig{}
}
