package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar = "PORT"
	appNameVar = "APP_NAME"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}
var _ BridgeConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "UniHelp Admin Bridge")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetBrokerURL implements BridgeConfig.
func (EnvVars) GetBrokerURL() string {
	return GetEnv("BROKER_URL", "ws://localhost:15674/ws")
}

// GetNotificationAPIURL implements BridgeConfig.
func (EnvVars) GetNotificationAPIURL() string {
	return GetEnv("NOTIFICATION_API_URL", "http://localhost:8081")
}

// GetActivityURL implements BridgeConfig.
func (EnvVars) GetActivityURL() string {
	return GetEnv("ACTIVITY_URL", "")
}

// GetRedisAddr implements BridgeConfig.
func (EnvVars) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}

// GetSessionKeyPrefix implements BridgeConfig.
func (EnvVars) GetSessionKeyPrefix() string {
	return GetEnv("SESSION_KEY_PREFIX", "admin-bridge:session")
}

// GetLandingPath implements BridgeConfig.
func (EnvVars) GetLandingPath() string {
	return GetEnv("LANDING_PATH", "/admin/dashboard")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
