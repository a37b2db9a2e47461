package rfc2136

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/miekg/dns"
)

// exchangeFunc sends one DNS message over the given network ("tcp" or
// "udp") and returns the response. Injected so tests can run without a
// server.
type exchangeFunc func(ctx context.Context, msg *dns.Msg, network string) (*dns.Msg, error)

// netExchange is the production exchangeFunc. A fresh dns.Client is built
// per exchange since probes and updates alternate between transports.
func (c *Client) netExchange(ctx context.Context, msg *dns.Msg, network string) (*dns.Msg, error) {
	client := &dns.Client{
		Net:     network,
		Timeout: c.config.GetTimeout(),
	}
	c.tsig.ApplyToClient(client)

	resp, rtt, err := client.ExchangeContext(ctx, msg, c.config.GetAddr())
	if err != nil {
		return nil, err
	}

	c.logger.Debug("dns exchange complete",
		slog.String("server", c.config.GetAddr()),
		slog.String("net", network),
		slog.Duration("rtt", rtt),
		slog.String("rcode", dns.RcodeToString[resp.Rcode]),
	)

	return resp, nil
}

// probeExchange sends a query over TCP and falls back to UDP once if the
// TCP attempt fails at the transport level. A DNS-level error response
// (SERVFAIL, NXDOMAIN, ...) is a definitive answer and never triggers the
// fallback. Updates must not use this path; they are TCP only.
func (c *Client) probeExchange(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
	resp, tcpErr := c.exchange(ctx, msg, "tcp")
	if tcpErr == nil {
		return resp, nil
	}

	c.logger.Debug("tcp query failed, falling back to udp",
		slog.String("server", c.config.GetAddr()),
		slog.String("error", tcpErr.Error()),
	)

	resp, udpErr := c.exchange(ctx, msg, "udp")
	if udpErr != nil {
		return nil, fmt.Errorf("tcp: %v; udp: %w", tcpErr, udpErr)
	}

	return resp, nil
}
