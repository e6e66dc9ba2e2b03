package centrifuge

import "time"

// ProtocolType selects the wire codec used to talk to the server.
type ProtocolType string

const (
	ProtocolTypeJSON     ProtocolType = "json"
	ProtocolTypeProtobuf ProtocolType = "protobuf"
)

// ConnectionTokenGetFunc returns a fresh connection token, invoked whenever
// the client needs to (re)authenticate the session.
type ConnectionTokenGetFunc func(ctx TokenContext) (string, error)

// SubscriptionTokenGetFunc returns a fresh subscription token for a private
// channel, invoked by the owning Subscription.
type SubscriptionTokenGetFunc func(ctx SubscriptionTokenContext) (string, error)

// TokenContext carries the information a ConnectionTokenGetFunc may need to
// produce a token.
type TokenContext struct{}

// SubscriptionTokenContext carries the information a
// SubscriptionTokenGetFunc may need to produce a token.
type SubscriptionTokenContext struct {
	Channel string
}

// Config contains Client configuration options (spec.md §6).
type Config struct {
	// Token authenticates every connect attempt while GetToken is nil. When
	// GetToken is set, its result is sent instead and Token is ignored.
	Token string
	// Data is arbitrary payload attached to the connect command.
	Data []byte
	// Protocol selects the wire codec. Defaults to ProtocolTypeJSON.
	Protocol ProtocolType
	// Debug enables the optional metrics snapshot exporter (see
	// metrics.go). It does not change what is logged; that is set by
	// LogLevel.
	Debug bool
	// Name identifies the application to the server (diagnostics only).
	Name string
	// Version identifies the application version (diagnostics only).
	Version string
	// PrivateChannelPrefix marks channels that require a subscription
	// token. Defaults to "$".
	PrivateChannelPrefix string

	// MinReconnectDelay is the lower bound of the reconnect backoff.
	MinReconnectDelay time.Duration
	// MaxReconnectDelay is the upper bound of the reconnect backoff.
	MaxReconnectDelay time.Duration

	// Timeout bounds every request/reply command. Commands issued while the
	// session is not CONNECTED do not wait for it: they fail at once with
	// ErrDisconnected.
	Timeout time.Duration

	// PingInterval is the client-driven ping period, used only when the
	// server does not advertise its own ping interval (spec.md §4.9).
	PingInterval time.Duration
	// PongWaitTimeout is filled from DefaultConfig but not read by the
	// client: a client-driven ping is bounded by Timeout like any other
	// command, and a ping that gets no reply does not close the transport.
	PongWaitTimeout time.Duration
	// MaxServerPingDelay is the extra grace period added to the server's
	// advertised ping interval before the keepalive watchdog fires.
	MaxServerPingDelay time.Duration

	// GetToken supplies a fresh connection token on (re)connect and refresh.
	GetToken ConnectionTokenGetFunc
	// GetSubscriptionToken supplies a fresh token for private-channel
	// subscriptions.
	GetSubscriptionToken SubscriptionTokenGetFunc
	// SubscriptionTokenCache optionally caches subscription tokens across
	// calls to GetSubscriptionToken (see package tokencache).
	SubscriptionTokenCache SubscriptionTokenCache

	// LogLevel is the minimum level that reaches LogHandler. Defaults to
	// LogLevelNone (nothing logged).
	LogLevel LogLevel
	// LogHandler receives log entries at or above LogLevel.
	LogHandler LogHandler

	// EmulationEndpoints lists candidate transports. When non-empty, every
	// connect attempt uses the first entry; later entries are not tried.
	// When empty the client uses a single transport from NewTransport.
	EmulationEndpoints []EmulationEndpoint
	// NewTransport constructs the transport used for a single,
	// non-emulated connection attempt. Required unless EmulationEndpoints
	// is set.
	NewTransport TransportFactory

	// MetricsNamespace overrides the default "centrifuge_client" prometheus
	// namespace (see metrics.go).
	MetricsNamespace string
}

// EmulationEndpoint pairs a transport factory with the endpoint it dials.
// Only the first entry of Config.EmulationEndpoints is ever dialed.
type EmulationEndpoint struct {
	Endpoint  string
	Transport TransportFactory
}

// TransportFactory constructs a Transport for a connection attempt.
type TransportFactory func(endpoint string) Transport

// Validate returns an error if the config is not usable, matching the
// teacher's Config.Validate idiom.
func (c *Config) Validate() error {
	if c.NewTransport == nil && len(c.EmulationEndpoints) == 0 {
		return newError(ErrorCodeProtocol, "config: NewTransport or EmulationEndpoints must be set")
	}
	return nil
}

// DefaultConfig is Config initialized with default values for every field,
// mirroring the teacher's package-level DefaultConfig.
var DefaultConfig = Config{
	Protocol:             ProtocolTypeJSON,
	PrivateChannelPrefix: "$",
	MinReconnectDelay:    500 * time.Millisecond,
	MaxReconnectDelay:    20 * time.Second,
	Timeout:              5 * time.Second,
	PingInterval:         25 * time.Second,
	PongWaitTimeout:      10 * time.Second,
	MaxServerPingDelay:   10 * time.Second,
	MetricsNamespace:     "centrifuge_client",
}

// mergeConfig fills zero-valued fields of c from DefaultConfig, the way
// NewClient prepares configuration before validating it.
func mergeConfig(c Config) Config {
	if c.Protocol == "" {
		c.Protocol = DefaultConfig.Protocol
	}
	if c.PrivateChannelPrefix == "" {
		c.PrivateChannelPrefix = DefaultConfig.PrivateChannelPrefix
	}
	if c.MinReconnectDelay == 0 {
		c.MinReconnectDelay = DefaultConfig.MinReconnectDelay
	}
	if c.MaxReconnectDelay == 0 {
		c.MaxReconnectDelay = DefaultConfig.MaxReconnectDelay
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultConfig.Timeout
	}
	if c.PingInterval == 0 {
		c.PingInterval = DefaultConfig.PingInterval
	}
	if c.PongWaitTimeout == 0 {
		c.PongWaitTimeout = DefaultConfig.PongWaitTimeout
	}
	if c.MaxServerPingDelay == 0 {
		c.MaxServerPingDelay = DefaultConfig.MaxServerPingDelay
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = DefaultConfig.MetricsNamespace
	}
	return c
}
