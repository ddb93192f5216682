package config

import "strings"

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type Cors struct{}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

// ParseAllowedOrigins builds the origin set from a comma-separated list.
func ParseAllowedOrigins(raw string) AllowedOrigins {
	origins := AllowedOrigins{}
	for _, origin := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins[trimmed] = nullValue{}
		}
	}
	return origins
}

func (Cors) GetAllowedOrigins() AllowedOrigins {
	return ParseAllowedOrigins(GetEnv("ALLOWED_ORIGINS", "*"))
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, PUT, PATCH, DELETE"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}
