// Package acme adapts the rfc2136 update client to the go-acme/lego
// challenge.Provider interface, so lego-based issuers can fulfill DNS-01
// challenges through a BIND-style dynamic update server.
package acme

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-acme/lego/v4/challenge"
	"github.com/go-acme/lego/v4/challenge/dns01"

	"gitlab.bluewillows.net/root/txtweaver/pkg/rfc2136"
)

// Default propagation window reported to lego.
const (
	DefaultPropagationTimeout = 2 * time.Minute
	DefaultPollingInterval    = 5 * time.Second
)

// updater is the subset of the rfc2136 client the provider needs.
type updater interface {
	AddTXTRecord(ctx context.Context, recordName, content string, ttl uint32) error
	DeleteTXTRecord(ctx context.Context, recordName, content string) error
}

// Provider fulfills ACME DNS-01 challenges via RFC 2136 dynamic updates.
type Provider struct {
	client   updater
	ttl      uint32
	timeout  time.Duration
	interval time.Duration
	logger   *slog.Logger
}

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTTL sets the TTL for challenge TXT records.
func WithTTL(ttl uint32) Option {
	return func(p *Provider) {
		p.ttl = ttl
	}
}

// WithPropagation overrides the propagation timeout and polling interval
// reported to lego.
func WithPropagation(timeout, interval time.Duration) Option {
	return func(p *Provider) {
		p.timeout = timeout
		p.interval = interval
	}
}

// New creates a challenge provider backed by an rfc2136 client built from
// the given configuration.
func New(config *rfc2136.Config, opts ...Option) (*Provider, error) {
	p := &Provider{
		ttl:      rfc2136.DefaultTTL,
		timeout:  DefaultPropagationTimeout,
		interval: DefaultPollingInterval,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	client, err := rfc2136.NewClient(config, rfc2136.WithLogger(p.logger))
	if err != nil {
		return nil, fmt.Errorf("creating rfc2136 client: %w", err)
	}
	p.client = client

	return p, nil
}

// Present writes the validation TXT record for a DNS-01 challenge.
func (p *Provider) Present(domain, token, keyAuth string) error {
	info := dns01.GetChallengeInfo(domain, keyAuth)

	p.logger.Debug("presenting dns-01 challenge",
		slog.String("domain", domain),
		slog.String("fqdn", info.EffectiveFQDN),
	)

	if err := p.client.AddTXTRecord(context.Background(), info.EffectiveFQDN, info.Value, p.ttl); err != nil {
		return fmt.Errorf("rfc2136: adding challenge record for %s: %w", domain, err)
	}
	return nil
}

// CleanUp removes the validation TXT record after the challenge.
func (p *Provider) CleanUp(domain, token, keyAuth string) error {
	info := dns01.GetChallengeInfo(domain, keyAuth)

	p.logger.Debug("cleaning up dns-01 challenge",
		slog.String("domain", domain),
		slog.String("fqdn", info.EffectiveFQDN),
	)

	if err := p.client.DeleteTXTRecord(context.Background(), info.EffectiveFQDN, info.Value); err != nil {
		return fmt.Errorf("rfc2136: removing challenge record for %s: %w", domain, err)
	}
	return nil
}

// Timeout returns the propagation window lego should allow before
// validating the record.
func (p *Provider) Timeout() (timeout, interval time.Duration) {
	return p.timeout, p.interval
}

// Verify interface compliance at compile time.
var (
	_ challenge.Provider        = (*Provider)(nil)
	_ challenge.ProviderTimeout = (*Provider)(nil)
)
