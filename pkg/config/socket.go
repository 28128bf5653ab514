package config

// SocketConfig describes the connection the client adapter opens.
// Example YAML:
// socket:
//   url: "ws://localhost:8080/echo"
//   transport: coder        # coder | gorilla
//   protocols: ["json.v1"]
//   headers:
//     Authorization: "Bearer ..."
//   codec: json             # json | cbor | proto | yaml | json+snappy
//   handshake_timeout_ms: 5000
//   read_limit: 1048576
//   error_policy: terminate # terminate | deliver
//   typed_as_text: true
//   buffer: 16
//   send_rate: 50           # frames per second, 0 disables shaping
//   send_burst: 10
type SocketConfig struct {
	URL                string            `mapstructure:"url"`
	Transport          string            `mapstructure:"transport"`
	Protocols          []string          `mapstructure:"protocols"`
	Headers            map[string]string `mapstructure:"headers"`
	Codec              string            `mapstructure:"codec"`
	HandshakeTimeoutMS int               `mapstructure:"handshake_timeout_ms"`
	ReadLimit          int64             `mapstructure:"read_limit"`
	Compression        bool              `mapstructure:"compression"`
	ErrorPolicy        string            `mapstructure:"error_policy"`
	TypedAsText        bool              `mapstructure:"typed_as_text"`
	// Buffer is the outcome channel size between the pump and the consumer.
	Buffer int `mapstructure:"buffer"`
	// SendRate limits outbound frames per second; zero means unlimited.
	SendRate  float64 `mapstructure:"send_rate"`
	SendBurst int     `mapstructure:"send_burst"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Listen string `mapstructure:"listen"`
}

// ServerConfig controls the echo server binary.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
	Path   string `mapstructure:"path"`
}
