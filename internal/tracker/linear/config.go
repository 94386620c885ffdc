package linear

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variable names are part of the external contract.
const (
	EnvEndpoint = "LINEAR_GRAPHQL_ENDPOINT"
	EnvToken    = "LINEAR_API_TOKEN"
	EnvKey      = "LINEAR_API_KEY"
	EnvTimeout  = "LINEAR_HTTP_TIMEOUT_SECS"

	// DefaultEndpoint is Linear's public GraphQL endpoint.
	DefaultEndpoint = "https://api.linear.app/graphql"

	defaultTimeout = 30 * time.Second
)

// Config holds everything the adapter needs. The credential is captured at
// construction and never read from the environment at call time.
type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration

	// RequestsPerSecond caps outbound request rate. Linear's documented
	// budget is ~1500 requests/hour; the default of 5/s with burst keeps a
	// busy sync well under it while letting small plans run unthrottled.
	RequestsPerSecond float64

	// MaxConcurrent bounds in-flight requests across goroutines, so
	// concurrent MCP sync calls don't stampede the API.
	MaxConcurrent int
}

// ConfigFromEnv builds a Config from the environment. LINEAR_API_TOKEN is
// preferred; LINEAR_API_KEY is accepted as an alias. One of them is
// required.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Endpoint:          DefaultEndpoint,
		Timeout:           defaultTimeout,
		RequestsPerSecond: 5,
		MaxConcurrent:     4,
	}

	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Endpoint = v
	}

	cfg.Token = os.Getenv(EnvToken)
	if cfg.Token == "" {
		cfg.Token = os.Getenv(EnvKey)
	}
	if cfg.Token == "" {
		return Config{}, fmt.Errorf("linear credential missing: set %s or %s", EnvToken, EnvKey)
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return Config{}, fmt.Errorf("invalid %s value %q: want a positive integer", EnvTimeout, v)
		}
		cfg.Timeout = time.Duration(secs) * time.Second
	}

	return cfg, nil
}
