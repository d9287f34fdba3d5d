package config

import "github.com/kelseyhightower/envconfig"

// Database holds libsql database configuration. A plain file path (or
// ":memory:") works for local development; a Turso URL plus auth token is
// the expected production setup.
type Database struct {
	URL       string `envconfig:"EFFORTMAP_DATABASE_URL" required:"true"`
	AuthToken string `envconfig:"EFFORTMAP_DATABASE_AUTH_TOKEN"`
}

// Slack holds the credentials for the Slack app. Constructed once at process
// start and passed explicitly into the Slack handlers so nothing reads the
// environment ad hoc.
type Slack struct {
	BotToken      string `envconfig:"SLACK_BOT_TOKEN"`
	SigningSecret string `envconfig:"SLACK_SIGNING_SECRET"`
	ClientID      string `envconfig:"SLACK_CLIENT_ID"`
	ClientSecret  string `envconfig:"SLACK_CLIENT_SECRET"`
}

// Charts holds chart rendering and caching configuration.
type Charts struct {
	// Dir is the root of the blob store for rendered chart images.
	Dir string `envconfig:"EFFORTMAP_CHARTS_DIR" default:"charts"`
	// BrowserBin optionally pins the Chromium binary used for screenshots.
	BrowserBin string `envconfig:"EFFORTMAP_BROWSER_BIN"`
}

// Metrics holds the OTLP exporter configuration. Metrics are disabled when
// the endpoint is empty.
type Metrics struct {
	Endpoint string `envconfig:"EFFORTMAP_OTEL_ENDPOINT"`
	Insecure bool   `envconfig:"EFFORTMAP_OTEL_INSECURE" default:"true"`
}

// Server holds configuration for the HTTP server.
type Server struct {
	Database Database
	Slack    Slack
	Charts   Charts
	Metrics  Metrics

	Port  int  `envconfig:"EFFORTMAP_PORT" default:"8080"`
	Debug bool `envconfig:"EFFORTMAP_DEBUG"`
	// BaseURL is the externally reachable origin, used for OAuth redirect
	// URIs, share links and the chart URLs embedded in Slack messages.
	BaseURL string `envconfig:"EFFORTMAP_BASE_URL" default:"http://localhost:8080"`
}

// LoadServer loads server configuration from environment variables.
func LoadServer() (*Server, error) {
	var cfg Server
	if err := envconfig.Process("", &cfg.Database); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Slack); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Charts); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Metrics); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
