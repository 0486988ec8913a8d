package types

import (
	"fmt"
	"time"
)

// ErrorType classifies failures surfaced by the server.
type ErrorType string

const (
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	ErrorTypeUpstream        ErrorType = "upstream"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeConfiguration   ErrorType = "configuration"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeRateLimit       ErrorType = "rate_limit"
	ErrorTypeAuthentication  ErrorType = "authentication"
	ErrorTypeUnknown         ErrorType = "unknown"
)

// ResultItem is one entry returned by an Exa search or similarity query,
// reduced to the fields the cache and resource projections need.
type ResultItem struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Snippet       string  `json:"snippet,omitempty"`
	Score         float64 `json:"score,omitempty"`
	PublishedDate string  `json:"published_date,omitempty"`
	Author        string  `json:"author,omitempty"`
}

// RecordKind distinguishes which tool produced a cached record.
type RecordKind string

const (
	RecordKindSearch      RecordKind = "search"
	RecordKindFindSimilar RecordKind = "find_similar"
)

// SearchRecord is one cached outcome of a search or find_similar call.
// Records are immutable after creation. The ID exists for log correlation
// only; resource addressing remains positional.
type SearchRecord struct {
	ID         string       `json:"id"`
	Kind       RecordKind   `json:"kind"`
	QueryOrURL string       `json:"query_or_url"`
	Timestamp  time.Time    `json:"timestamp"`
	RequestID  string       `json:"request_id,omitempty"`
	Results    []ResultItem `json:"results"`
}

// Config represents the server configuration, resolved from environment
// variables by internal/config.Load.
type Config struct {
	// Exa API configuration
	ExaAPIKey          string        `json:"-" env:"EXA_API_KEY,required=true"`
	ExaBaseURL         string        `json:"exa_base_url" env:"EXA_BASE_URL,default=https://api.exa.ai"`
	ExaTimeout         time.Duration `json:"exa_timeout" env:"EXA_TIMEOUT,default=30s"`
	ExaRateLimit       float64       `json:"exa_rate_limit" env:"EXA_RATE_LIMIT,default=5.0"`
	ExaRateBurst       int           `json:"exa_rate_burst" env:"EXA_RATE_BURST,default=10"`
	ExaMaxIdleConns    int           `json:"exa_max_idle_conns" env:"EXA_MAX_IDLE_CONNS,default=10"`
	ExaIdleConnTimeout time.Duration `json:"exa_idle_conn_timeout" env:"EXA_IDLE_CONN_TIMEOUT,default=90s"`

	// Result cache configuration
	CacheSize int `json:"cache_size" env:"EXA_CACHE_SIZE,default=50"`

	// HTTP server configuration (http and sse transports)
	ServerHost            string        `json:"server_host" env:"MCP_SERVER_HOST,default=localhost"`
	ServerPort            int           `json:"server_port" env:"MCP_SERVER_PORT,default=8000"`
	ServerReadTimeout     time.Duration `json:"server_read_timeout" env:"MCP_SERVER_READ_TIMEOUT,default=30s"`
	ServerWriteTimeout    time.Duration `json:"server_write_timeout" env:"MCP_SERVER_WRITE_TIMEOUT,default=30s"`
	ServerIdleTimeout     time.Duration `json:"server_idle_timeout" env:"MCP_SERVER_IDLE_TIMEOUT,default=120s"`
	ServerShutdownTimeout time.Duration `json:"server_shutdown_timeout" env:"MCP_SERVER_SHUTDOWN_TIMEOUT,default=30s"`
	ServerMaxHeaderBytes  int           `json:"server_max_header_bytes" env:"MCP_SERVER_MAX_HEADER_BYTES,default=1048576"`

	// IP authentication (http and sse transports only)
	IPAuthEnabled bool     `json:"ip_auth_enabled" env:"MCP_IP_AUTH_ENABLED,default=false"`
	AllowedIPsStr string   `json:"-" env:"MCP_ALLOWED_IPS,default="`
	AllowedIPs    []string `json:"allowed_ips"`

	// Access logging
	AccessLogEnabled bool `json:"access_log_enabled" env:"MCP_ACCESS_LOG_ENABLED,default=true"`

	// Invocation metrics store. Empty means ~/.exa-mcp-server/stats.db.
	MetricsDBPath string `json:"metrics_db_path" env:"METRICS_DB_PATH,default="`

	// OpenTelemetry configuration
	OTelEnabled              bool    `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string  `json:"otel_service_name" env:"OTEL_SERVICE_NAME,default=exa-mcp-server"`
	OTelExporterOTLPEndpoint string  `json:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT,default="`
	OTelExporterOTLPProtocol string  `json:"otel_exporter_otlp_protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL,default=http/protobuf"`
	OTelResourceAttributes   string  `json:"otel_resource_attributes" env:"OTEL_RESOURCE_ATTRIBUTES_EXTRA,default="`
	OTelTracesSampler        string  `json:"otel_traces_sampler" env:"OTEL_TRACES_SAMPLER,default=always_on"`
	OTelTracesSamplerArg     float64 `json:"otel_traces_sampler_arg" env:"OTEL_TRACES_SAMPLER_ARG,default=1.0"`
}

// ServerAddress returns the host:port the HTTP transports bind to.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
