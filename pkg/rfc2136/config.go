package rfc2136

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Default configuration values.
const (
	// DefaultPort is the standard DNS port.
	DefaultPort = 53

	// DefaultTimeout matches the network timeout used by BIND-style
	// dynamic update tooling.
	DefaultTimeout = 45 * time.Second

	// DefaultTTL is the TTL applied to challenge TXT records when the
	// caller does not specify one.
	DefaultTTL = 120
)

// Depth bounds CNAME chasing. It is a tagged value: either unlimited
// ("auto" in configuration) or a fixed number of hops. The zero value is
// not valid; use UnlimitedDepth, MaxHops, or ParseDepth.
type Depth struct {
	unlimited bool
	hops      int
}

// UnlimitedDepth returns a Depth that never bounds chasing; loop detection
// is the only limit.
func UnlimitedDepth() Depth {
	return Depth{unlimited: true}
}

// MaxHops returns a Depth permitting at most n CNAME hops. n must be >= 1;
// smaller values are rejected by ParseDepth and Config.Validate.
func MaxHops(n int) Depth {
	return Depth{hops: n}
}

// ParseDepth parses a configuration value: "auto" means unlimited,
// otherwise an integer >= 1.
func ParseDepth(s string) (Depth, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "auto") {
		return UnlimitedDepth(), nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return Depth{}, fmt.Errorf("invalid cname depth %q: must be an integer or \"auto\"", s)
	}
	if n < 1 {
		return Depth{}, fmt.Errorf("cname depth must be >= 1 or \"auto\"")
	}

	return MaxHops(n), nil
}

// IsUnlimited reports whether chasing is bounded only by loop detection.
func (d Depth) IsUnlimited() bool { return d.unlimited }

// Exceeded reports whether the given hop count is over the limit.
func (d Depth) Exceeded(hops int) bool {
	return !d.unlimited && hops > d.hops
}

// Hops returns the configured hop limit, or 0 for unlimited.
func (d Depth) Hops() int {
	if d.unlimited {
		return 0
	}
	return d.hops
}

func (d Depth) String() string {
	if d.unlimited {
		return "auto"
	}
	return strconv.Itoa(d.hops)
}

// Config holds RFC 2136 dynamic update client configuration. It is built
// once from validated credentials and treated as immutable afterwards.
type Config struct {
	// Server is the target DNS server as an IPv4 or IPv6 literal (required).
	// Hostnames are rejected: the update target of a TSIG-signed channel
	// must not depend on a name lookup.
	Server string

	// Port is the DNS port on the server (default: 53).
	Port int

	// TSIGKeyName is the TSIG key name (required).
	TSIGKeyName string

	// TSIGSecret is the base64-encoded TSIG shared secret (required).
	TSIGSecret string

	// TSIGAlgorithm selects the HMAC variant (default: hmac-md5).
	// Supported: hmac-md5, hmac-sha1, hmac-sha224, hmac-sha256,
	// hmac-sha384, hmac-sha512.
	TSIGAlgorithm string

	// SignQuery signs SOA probe queries in addition to updates.
	SignQuery bool

	// FollowCNAME chases CNAME records from the requested name before
	// resolving the authoritative zone.
	FollowCNAME bool

	// Depth bounds CNAME chasing. Ignored unless FollowCNAME is set.
	// The zero value defaults to a single hop.
	Depth Depth

	// Timeout is the per-exchange network timeout (default: 45s).
	Timeout time.Duration
}

// Validate checks that all required configuration is present and valid.
// It is called before any network exchange.
func (c *Config) Validate() error {
	var errs []string

	if c.Server == "" {
		errs = append(errs, "server is required")
	} else if net.ParseIP(c.Server) == nil {
		errs = append(errs, fmt.Sprintf("the configured target DNS server (%s) is not a valid IPv4 or IPv6 address; a hostname is not allowed", c.Server))
	}

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d", c.Port))
	}

	if c.TSIGKeyName == "" {
		errs = append(errs, "tsig key name is required")
	}
	if c.TSIGSecret == "" {
		errs = append(errs, "tsig secret is required")
	}

	if c.TSIGAlgorithm != "" {
		if !isValidAlgorithm(normalizeAlgorithm(c.TSIGAlgorithm)) {
			errs = append(errs, fmt.Sprintf("unknown algorithm: %s", c.TSIGAlgorithm))
		}
	}

	if c.Timeout < 0 {
		errs = append(errs, "timeout must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("rfc2136 config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetAddr returns the server address in host:port form, bracketing IPv6
// literals as needed.
func (c *Config) GetAddr() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Server, strconv.Itoa(port))
}

// GetTimeout returns the configured timeout or the default.
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// GetAlgorithm returns the TSIG algorithm in miekg/dns wire format.
func (c *Config) GetAlgorithm() string {
	return normalizeAlgorithm(c.TSIGAlgorithm)
}

// GetDepth returns the configured depth, defaulting to a single hop as the
// original credentials format did.
func (c *Config) GetDepth() Depth {
	if c.Depth == (Depth{}) {
		return MaxHops(1)
	}
	return c.Depth
}
