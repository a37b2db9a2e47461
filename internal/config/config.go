// Package config handles loading and validation of txtweaver configuration
// from environment variables and an optional credentials file.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/txtweaver/pkg/rfc2136"
)

// EnvPrefix is the prefix for all txtweaver environment variables.
const EnvPrefix = "TXTWEAVER_"

// Default values.
const (
	DefaultListenAddr = ":8053"
	DefaultTTL        = rfc2136.DefaultTTL
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
)

// Config holds the application configuration. Credential fields mirror the
// rfc2136 client configuration; ToRFC2136 converts and validates them.
type Config struct {
	// Logging
	LogLevel  string
	LogFormat string

	// ListenAddr is the bind address for serve mode.
	ListenAddr string

	// TTL applied to challenge TXT records.
	TTL int

	// Target DNS server (IP literal) and port.
	Server string
	Port   int

	// TSIG credentials.
	TSIGKeyName   string
	TSIGSecret    string
	TSIGAlgorithm string

	// SignQuery signs SOA probe queries as well as updates.
	SignQuery bool

	// FollowCNAME chases CNAME records before zone resolution.
	FollowCNAME bool

	// Depth is the raw CNAME depth setting: an integer >= 1 or "auto".
	Depth string

	// Timeout for each DNS exchange.
	Timeout time.Duration
}

// Load builds the configuration from the optional credentials file named
// by path (or the TXTWEAVER_CREDENTIALS env var when path is empty) with
// environment variables taking precedence. Validation is fail-fast: all
// problems are reported at once, before any network call.
func Load(path string) (*Config, error) {
	cfg := &Config{
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
		ListenAddr: DefaultListenAddr,
		TTL:        DefaultTTL,
	}

	if path == "" {
		path = getEnv("CREDENTIALS")
	}
	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading credentials file: %w", err)
		}
		fileCfg.applyTo(cfg)
	}

	var errs []string
	errs = append(errs, cfg.applyEnv()...)

	if cfg.TTL < 1 {
		errs = append(errs, "ttl must be >= 1")
	}

	// Credential-level validation happens in rfc2136.Config.Validate, but
	// the depth syntax is checked here so a bad value fails at startup.
	if cfg.Depth != "" {
		if _, err := rfc2136.ParseDepth(cfg.Depth); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration invalid: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// applyEnv overlays TXTWEAVER_* environment variables onto the config.
// Returns parse errors; unset variables leave existing values alone.
func (c *Config) applyEnv() []string {
	var errs []string

	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.ListenAddr, "LISTEN")
	setString(&c.Server, "DNS_SERVER")
	setString(&c.TSIGKeyName, "TSIG_KEY_NAME")
	setString(&c.TSIGAlgorithm, "TSIG_ALGORITHM")
	setString(&c.Depth, "CNAME_DEPTH")

	if v := getEnvOrFile("TSIG_SECRET", "TSIG_SECRET_FILE"); v != "" {
		c.TSIGSecret = v
	}

	if v := getEnv("TTL"); v != "" {
		ttl, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %sTTL value %q", EnvPrefix, v))
		} else {
			c.TTL = ttl
		}
	}

	if v := getEnv("DNS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %sDNS_PORT value %q", EnvPrefix, v))
		} else {
			c.Port = port
		}
	}

	if v := getEnv("TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %sTIMEOUT value %q", EnvPrefix, v))
		} else {
			c.Timeout = time.Duration(secs) * time.Second
		}
	}

	if v := getEnv("SIGN_QUERY"); v != "" {
		c.SignQuery = parseBool(v, c.SignQuery)
	}
	if v := getEnv("FOLLOW_CNAME"); v != "" {
		c.FollowCNAME = parseBool(v, c.FollowCNAME)
	}

	return errs
}

// ToRFC2136 converts the credential fields to an rfc2136 client
// configuration, parsing the depth setting once.
func (c *Config) ToRFC2136() (*rfc2136.Config, error) {
	out := &rfc2136.Config{
		Server:        c.Server,
		Port:          c.Port,
		TSIGKeyName:   c.TSIGKeyName,
		TSIGSecret:    c.TSIGSecret,
		TSIGAlgorithm: c.TSIGAlgorithm,
		SignQuery:     c.SignQuery,
		FollowCNAME:   c.FollowCNAME,
		Timeout:       c.Timeout,
	}

	if c.Depth != "" {
		depth, err := rfc2136.ParseDepth(c.Depth)
		if err != nil {
			return nil, err
		}
		out.Depth = depth
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}

	return out, nil
}

// setString overlays an env value onto dst when the variable is set.
func setString(dst *string, key string) {
	if v := getEnv(key); v != "" {
		*dst = v
	}
}
