package rfc2136

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/txtweaver/internal/metrics"
)

// DomainGuesses returns the candidate base domains for a record name, most
// specific first: every suffix obtained by progressively stripping the
// leftmost label, down to the TLD.
func DomainGuesses(name string) []string {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")
	if name == "" {
		return nil
	}

	labels := strings.Split(name, ".")
	guesses := make([]string, 0, len(labels))
	for i := range labels {
		guesses = append(guesses, strings.Join(labels[i:], "."))
	}
	return guesses
}

// findZone walks the candidate base domains of recordName, probing each
// for an authoritative SOA answer. Guesses are tried strictly in order and
// the first authoritative match wins; a less specific zone is never
// preferred over a more specific one.
func (c *Client) findZone(ctx context.Context, recordName string) (string, error) {
	guesses := DomainGuesses(recordName)

	for _, guess := range guesses {
		ok, err := c.probeAuthoritative(ctx, guess)
		if err != nil {
			return "", err
		}
		if ok {
			c.logger.Debug("authoritative zone found",
				slog.String("record", recordName),
				slog.String("zone", guess),
			)
			return guess, nil
		}
	}

	return "", &ZoneNotFoundError{Record: recordName, Guesses: guesses}
}

// probeAuthoritative queries domain for an SOA record directly against the
// configured server. Recursion-Desired is cleared: the probe asks the
// server what it is authoritative for, not what it can resolve. Returns
// true only for a NOERROR answer carrying an SOA for exactly this domain
// with the AA flag set. A well-formed negative or non-authoritative
// response is (false, nil); a transport failure on both TCP and UDP is an
// error.
func (c *Client) probeAuthoritative(ctx context.Context, domain string) (bool, error) {
	fqdn := dns.Fqdn(domain)

	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, dns.TypeSOA)
	msg.RecursionDesired = false
	if c.config.SignQuery {
		c.tsig.SignMessage(msg)
	}

	resp, err := c.probeExchange(ctx, msg)
	if err != nil {
		metrics.ZoneProbesTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("%w for %s: %v", ErrProbeFailed, domain, err)
	}

	if resp.Rcode != dns.RcodeSuccess || !resp.Authoritative {
		metrics.ZoneProbesTotal.WithLabelValues("not_authoritative").Inc()
		c.logger.Debug("no authoritative soa answer",
			slog.String("domain", domain),
			slog.String("rcode", dns.RcodeToString[resp.Rcode]),
			slog.Bool("aa", resp.Authoritative),
		)
		return false, nil
	}

	for _, rr := range resp.Answer {
		soa, ok := rr.(*dns.SOA)
		if ok && strings.EqualFold(soa.Hdr.Name, fqdn) {
			c.logger.Debug("received authoritative soa response",
				slog.String("domain", domain),
			)
			metrics.ZoneProbesTotal.WithLabelValues("authoritative").Inc()
			return true, nil
		}
	}

	metrics.ZoneProbesTotal.WithLabelValues("not_authoritative").Inc()
	return false, nil
}
