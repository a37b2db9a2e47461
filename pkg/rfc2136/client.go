package rfc2136

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/miekg/dns"
)

// Client performs authenticated RFC 2136 dynamic updates for one TXT
// record at a time. Each call re-resolves the authoritative zone from
// scratch; nothing is cached, so concurrent calls for different names are
// independent and safe.
type Client struct {
	config *Config
	tsig   *TSIG
	logger *slog.Logger

	exchange    exchangeFunc
	lookupCNAME cnameLookupFunc
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithLogger sets a custom logger for the client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a dynamic update client from a validated configuration.
func NewClient(config *Config, opts ...ClientOption) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	tsig, err := TSIGFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("invalid TSIG configuration: %w", err)
	}

	c := &Client{
		config: config,
		tsig:   tsig,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.exchange = c.netExchange
	c.lookupCNAME = c.systemCNAMELookup

	c.logger.Debug("rfc2136 client initialized",
		slog.String("server", config.GetAddr()),
		slog.String("key", tsig.Name),
		slog.String("algorithm", tsig.Algorithm),
		slog.Bool("sign_query", config.SignQuery),
		slog.Bool("follow_cname", config.FollowCNAME),
		slog.String("depth", config.GetDepth().String()),
	)

	return c, nil
}

// Resolution is the outcome of locating where a record must be written:
// the authoritative zone and the effective (possibly CNAME-chased) record
// name, both in FQDN form. The name always lies within the zone.
type Resolution struct {
	Zone string
	Name string
}

// Resolve chases CNAMEs from recordName when enabled, then finds the
// zone that answers authoritatively for the result. Resolution is
// performed fresh on every call; repeating it for the same name must be
// idempotent so that cleanup targets the same zone as setup.
func (c *Client) Resolve(ctx context.Context, recordName string) (Resolution, error) {
	name := recordName

	if c.config.FollowCNAME {
		chased, err := c.followCNAMEs(ctx, name)
		if err != nil {
			return Resolution{}, err
		}
		name = chased
	}

	zone, err := c.findZone(ctx, name)
	if err != nil {
		return Resolution{}, err
	}

	zoneFQDN := dns.Fqdn(zone)
	nameFQDN := dns.Fqdn(name)

	// The effective name must be relativizable to the zone. Anything else
	// means resolution went wrong; fail rather than write elsewhere.
	if !dns.IsSubDomain(zoneFQDN, nameFQDN) {
		return Resolution{}, fmt.Errorf("%w: %s is not within %s", ErrZoneMismatch, nameFQDN, zoneFQDN)
	}

	return Resolution{Zone: zoneFQDN, Name: nameFQDN}, nil
}

// AddTXTRecord inserts a TXT record with the given content and TTL at
// recordName, locating the zone first.
func (c *Client) AddTXTRecord(ctx context.Context, recordName, content string, ttl uint32) error {
	res, err := c.Resolve(ctx, recordName)
	if err != nil {
		return err
	}

	rr := &dns.TXT{
		Hdr: dns.RR_Header{
			Name:   res.Name,
			Rrtype: dns.TypeTXT,
			Class:  dns.ClassINET,
			Ttl:    ttl,
		},
		Txt: []string{content},
	}

	msg := new(dns.Msg)
	msg.SetUpdate(res.Zone)
	msg.Insert([]dns.RR{rr})

	if err := c.sendUpdate(ctx, "add", msg); err != nil {
		return err
	}

	c.logger.Info("txt record added",
		slog.String("name", res.Name),
		slog.String("zone", res.Zone),
		slog.Uint64("ttl", uint64(ttl)),
	)
	return nil
}

// DeleteTXTRecord removes the TXT record with exactly the given content at
// recordName. Other TXT records at the same name are left alone.
func (c *Client) DeleteTXTRecord(ctx context.Context, recordName, content string) error {
	res, err := c.Resolve(ctx, recordName)
	if err != nil {
		return err
	}

	rr := &dns.TXT{
		Hdr: dns.RR_Header{
			Name:   res.Name,
			Rrtype: dns.TypeTXT,
			Class:  dns.ClassINET,
		},
		Txt: []string{content},
	}

	msg := new(dns.Msg)
	msg.SetUpdate(res.Zone)
	msg.Remove([]dns.RR{rr})

	if err := c.sendUpdate(ctx, "delete", msg); err != nil {
		return err
	}

	c.logger.Info("txt record deleted",
		slog.String("name", res.Name),
		slog.String("zone", res.Zone),
	)
	return nil
}

// sendUpdate signs and delivers a dynamic update. Updates always carry a
// TSIG and travel over TCP only; a silently truncated or dropped update is
// worse than a failed one, so there is no UDP fallback here.
func (c *Client) sendUpdate(ctx context.Context, op string, msg *dns.Msg) error {
	c.tsig.SignMessage(msg)

	resp, err := c.exchange(ctx, msg, "tcp")
	if err != nil {
		return fmt.Errorf("%w during %s: %v", ErrUpdateFailed, op, err)
	}

	if resp.Rcode != dns.RcodeSuccess {
		return &RcodeError{Op: op, Rcode: resp.Rcode}
	}

	return nil
}

// Server returns the configured server address with port.
func (c *Client) Server() string {
	return c.config.GetAddr()
}
