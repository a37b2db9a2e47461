package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileConfig is the credentials file structure. Both YAML and TOML are
// accepted; the decoder is chosen by file extension. Pointer fields
// distinguish unset from zero so file values only override what they name.
type FileConfig struct {
	Logging *FileLoggingConfig `yaml:"logging,omitempty" toml:"logging,omitempty"`

	// Listen is the serve-mode bind address (e.g. ":8053").
	Listen string `yaml:"listen,omitempty" toml:"listen,omitempty"`

	// TTL for challenge TXT records.
	TTL *int `yaml:"ttl,omitempty" toml:"ttl,omitempty"`

	DNS *FileDNSConfig `yaml:"dns,omitempty" toml:"dns,omitempty"`
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level,omitempty"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" toml:"format,omitempty"` // json, text
}

// FileDNSConfig holds the RFC 2136 credentials.
type FileDNSConfig struct {
	Server         string `yaml:"server,omitempty" toml:"server,omitempty"`
	Port           *int   `yaml:"port,omitempty" toml:"port,omitempty"`
	TSIGKeyName    string `yaml:"tsig_key_name,omitempty" toml:"tsig_key_name,omitempty"`
	TSIGSecret     string `yaml:"tsig_secret,omitempty" toml:"tsig_secret,omitempty"`
	TSIGSecretFile string `yaml:"tsig_secret_file,omitempty" toml:"tsig_secret_file,omitempty"`
	TSIGAlgorithm  string `yaml:"tsig_algorithm,omitempty" toml:"tsig_algorithm,omitempty"`
	SignQuery      *bool  `yaml:"sign_query,omitempty" toml:"sign_query,omitempty"`
	FollowCNAME    *bool  `yaml:"follow_cname,omitempty" toml:"follow_cname,omitempty"`
	CNAMEDepth     string `yaml:"cname_depth,omitempty" toml:"cname_depth,omitempty"`
	TimeoutSecs    *int   `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// LoadFile reads and decodes a credentials file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported credentials file extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}

	return cfg, nil
}

// applyTo overlays the file values onto a runtime config.
func (f *FileConfig) applyTo(cfg *Config) {
	if f.Logging != nil {
		if f.Logging.Level != "" {
			cfg.LogLevel = f.Logging.Level
		}
		if f.Logging.Format != "" {
			cfg.LogFormat = f.Logging.Format
		}
	}

	if f.Listen != "" {
		cfg.ListenAddr = f.Listen
	}
	if f.TTL != nil {
		cfg.TTL = *f.TTL
	}

	if f.DNS == nil {
		return
	}
	dns := f.DNS

	if dns.Server != "" {
		cfg.Server = dns.Server
	}
	if dns.Port != nil {
		cfg.Port = *dns.Port
	}
	if dns.TSIGKeyName != "" {
		cfg.TSIGKeyName = dns.TSIGKeyName
	}
	if dns.TSIGSecret != "" {
		cfg.TSIGSecret = dns.TSIGSecret
	}
	if dns.TSIGSecretFile != "" {
		if content, err := os.ReadFile(dns.TSIGSecretFile); err == nil {
			cfg.TSIGSecret = strings.TrimSpace(string(content))
		}
	}
	if dns.TSIGAlgorithm != "" {
		cfg.TSIGAlgorithm = dns.TSIGAlgorithm
	}
	if dns.SignQuery != nil {
		cfg.SignQuery = *dns.SignQuery
	}
	if dns.FollowCNAME != nil {
		cfg.FollowCNAME = *dns.FollowCNAME
	}
	if dns.CNAMEDepth != "" {
		cfg.Depth = dns.CNAMEDepth
	}
	if dns.TimeoutSecs != nil {
		cfg.Timeout = time.Duration(*dns.TimeoutSecs) * time.Second
	}
}
