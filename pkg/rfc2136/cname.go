package rfc2136

import (
	"context"
	"log/slog"
	"net"
	"strings"

	"github.com/miekg/dns"
)

// resolvConfPath is a variable so tests can point the system lookup at a
// fixture.
var resolvConfPath = "/etc/resolv.conf"

// cnameOutcome classifies a single CNAME lookup.
type cnameOutcome int

const (
	// cnameFound means the name has a CNAME record; the chase continues.
	cnameFound cnameOutcome = iota

	// cnameNotFound means the name has no CNAME record (including
	// NXDOMAIN). This is the chain terminus, not an error.
	cnameNotFound

	// cnameTransient means the lookup itself failed (timeout, unreachable
	// resolver). Treated as chain terminus as well: absence of evidence of
	// a further CNAME ends the chase.
	cnameTransient
)

// cnameResult is the explicit outcome of one CNAME hop lookup.
type cnameResult struct {
	outcome cnameOutcome
	target  string // set when outcome == cnameFound
	err     error  // underlying cause when outcome == cnameTransient
}

// cnameLookupFunc resolves one CNAME hop. Injected so the chaser is
// testable without a recursive resolver.
type cnameLookupFunc func(ctx context.Context, name string) cnameResult

// systemCNAMELookup queries the platform's recursive resolvers (from
// resolv.conf) for a CNAME at name. Unlike SOA probes, which go straight
// to the configured authoritative server, chasing may legitimately use
// recursion.
func (c *Client) systemCNAMELookup(ctx context.Context, name string) cnameResult {
	conf, err := dns.ClientConfigFromFile(resolvConfPath)
	if err != nil {
		return cnameResult{outcome: cnameTransient, err: err}
	}
	if len(conf.Servers) == 0 {
		return cnameResult{outcome: cnameTransient}
	}

	fqdn := dns.Fqdn(name)
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, dns.TypeCNAME)

	client := &dns.Client{Timeout: c.config.GetTimeout()}

	var lastErr error
	for _, server := range conf.Servers {
		resp, _, err := client.ExchangeContext(ctx, msg, net.JoinHostPort(server, conf.Port))
		if err != nil {
			lastErr = err
			continue
		}

		if resp.Rcode != dns.RcodeSuccess {
			return cnameResult{outcome: cnameNotFound}
		}

		for _, rr := range resp.Answer {
			cname, ok := rr.(*dns.CNAME)
			if ok && strings.EqualFold(cname.Hdr.Name, fqdn) {
				return cnameResult{outcome: cnameFound, target: cname.Target}
			}
		}
		return cnameResult{outcome: cnameNotFound}
	}

	return cnameResult{outcome: cnameTransient, err: lastErr}
}

// followCNAMEs chases CNAME records from name until a non-CNAME name is
// reached. Every visited name is remembered for loop detection; the hop
// count is checked against the configured depth after each hop. A failed
// or empty lookup ends the chase successfully with the current name.
func (c *Client) followCNAMEs(ctx context.Context, name string) (string, error) {
	depth := c.config.GetDepth()
	visited := make(map[string]struct{})
	hops := 0

	for {
		key := strings.ToLower(strings.TrimSuffix(name, "."))
		if _, seen := visited[key]; seen {
			return "", &CNAMELoopError{Name: name}
		}
		visited[key] = struct{}{}

		res := c.lookupCNAME(ctx, name)
		switch res.outcome {
		case cnameFound:
			target := strings.TrimSuffix(res.target, ".")
			c.logger.Debug("following cname",
				slog.String("from", name),
				slog.String("to", target),
			)
			name = target
			hops++
			if depth.Exceeded(hops) {
				return "", &CNAMEDepthError{Depth: depth.Hops()}
			}

		case cnameTransient:
			if res.err != nil {
				c.logger.Debug("cname lookup failed, treating as chain terminus",
					slog.String("name", name),
					slog.String("error", res.err.Error()),
				)
			}
			return name, nil

		default: // cnameNotFound
			c.logger.Debug("no further cname, proceeding to find base domain",
				slog.String("name", name),
			)
			return name, nil
		}
	}
}
