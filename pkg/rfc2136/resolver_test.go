package rfc2136

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/miekg/dns"
)

func TestDomainGuesses(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "deep record name",
			input: "a.b.c.example.com",
			want:  []string{"a.b.c.example.com", "b.c.example.com", "c.example.com", "example.com", "com"},
		},
		{
			name:  "acme challenge name",
			input: "_acme-challenge.example.com",
			want:  []string{"_acme-challenge.example.com", "example.com", "com"},
		},
		{
			name:  "trailing dot stripped",
			input: "example.com.",
			want:  []string{"example.com", "com"},
		},
		{
			name:  "single label",
			input: "com",
			want:  []string{"com"},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DomainGuesses(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DomainGuesses(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindZoneFirstAuthoritativeWins(t *testing.T) {
	client := newTestClient(t, nil)

	var probed []string
	client.exchange = func(ctx context.Context, msg *dns.Msg, network string) (*dns.Msg, error) {
		name := msg.Question[0].Name
		probed = append(probed, name)
		return soaResponse(msg, name, name == "example.com."), nil
	}

	zone, err := client.findZone(context.Background(), "_acme-challenge.www.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if zone != "example.com" {
		t.Errorf("zone = %q, want example.com", zone)
	}

	// Guesses must be probed most specific first, stopping at the match.
	want := []string{"_acme-challenge.www.example.com.", "www.example.com.", "example.com."}
	if !reflect.DeepEqual(probed, want) {
		t.Errorf("probe order = %v, want %v", probed, want)
	}
}

func TestFindZoneMostSpecificPreferred(t *testing.T) {
	client := newTestClient(t, nil)

	// Both sub.example.com and example.com are authoritative; the more
	// specific zone must win.
	client.exchange = func(ctx context.Context, msg *dns.Msg, network string) (*dns.Msg, error) {
		name := msg.Question[0].Name
		auth := name == "sub.example.com." || name == "example.com."
		return soaResponse(msg, name, auth), nil
	}

	zone, err := client.findZone(context.Background(), "_acme-challenge.sub.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if zone != "sub.example.com" {
		t.Errorf("zone = %q, want sub.example.com", zone)
	}
}

func TestFindZoneNotFound(t *testing.T) {
	client := newTestClient(t, nil)

	client.exchange = func(ctx context.Context, msg *dns.Msg, network string) (*dns.Msg, error) {
		return soaResponse(msg, msg.Question[0].Name, false), nil
	}

	_, err := client.findZone(context.Background(), "_acme-challenge.example.com")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("error %v is not ErrZoneNotFound", err)
	}

	var znf *ZoneNotFoundError
	if !errors.As(err, &znf) {
		t.Fatalf("error %v is not a *ZoneNotFoundError", err)
	}
	if znf.Record != "_acme-challenge.example.com" {
		t.Errorf("Record = %q", znf.Record)
	}
	want := []string{"_acme-challenge.example.com", "example.com", "com"}
	if !reflect.DeepEqual(znf.Guesses, want) {
		t.Errorf("Guesses = %v, want %v", znf.Guesses, want)
	}
}

func TestProbeAuthoritative(t *testing.T) {
	tests := []struct {
		name     string
		response func(msg *dns.Msg) *dns.Msg
		want     bool
	}{
		{
			name: "authoritative soa",
			response: func(msg *dns.Msg) *dns.Msg {
				return soaResponse(msg, "example.com.", true)
			},
			want: true,
		},
		{
			name: "aa flag missing",
			response: func(msg *dns.Msg) *dns.Msg {
				return soaResponse(msg, "example.com.", false)
			},
			want: false,
		},
		{
			name: "soa for different name",
			response: func(msg *dns.Msg) *dns.Msg {
				resp := soaResponse(msg, "other.com.", true)
				return resp
			},
			want: false,
		},
		{
			name: "nxdomain",
			response: func(msg *dns.Msg) *dns.Msg {
				resp := new(dns.Msg)
				resp.SetRcode(msg, dns.RcodeNameError)
				return resp
			},
			want: false,
		},
		{
			name: "servfail is a definitive answer",
			response: func(msg *dns.Msg) *dns.Msg {
				resp := new(dns.Msg)
				resp.SetRcode(msg, dns.RcodeServerFailure)
				return resp
			},
			want: false,
		},
		{
			name: "empty answer with aa",
			response: func(msg *dns.Msg) *dns.Msg {
				resp := new(dns.Msg)
				resp.SetReply(msg)
				resp.Authoritative = true
				return resp
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, nil)
			client.exchange = func(ctx context.Context, msg *dns.Msg, network string) (*dns.Msg, error) {
				return tt.response(msg), nil
			}

			got, err := client.probeAuthoritative(context.Background(), "example.com")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("probeAuthoritative() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProbeClearsRecursionDesired(t *testing.T) {
	client := newTestClient(t, nil)

	var sawRD bool
	client.exchange = func(ctx context.Context, msg *dns.Msg, network string) (*dns.Msg, error) {
		sawRD = msg.RecursionDesired
		return soaResponse(msg, msg.Question[0].Name, true), nil
	}

	if _, err := client.probeAuthoritative(context.Background(), "example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawRD {
		t.Error("probe query has Recursion-Desired set; probes must query authoritatively")
	}
}

func TestProbeSignsQueryWhenConfigured(t *testing.T) {
	cfg := validConfig()
	cfg.SignQuery = true
	client := newTestClient(t, cfg)

	var signed bool
	client.exchange = func(ctx context.Context, msg *dns.Msg, network string) (*dns.Msg, error) {
		signed = msg.IsTsig() != nil
		return soaResponse(msg, msg.Question[0].Name, true), nil
	}

	if _, err := client.probeAuthoritative(context.Background(), "example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !signed {
		t.Error("probe query was not TSIG-signed despite sign_query")
	}
}

func TestProbeFallsBackToUDPOnTransportError(t *testing.T) {
	client := newTestClient(t, nil)

	var networks []string
	client.exchange = func(ctx context.Context, msg *dns.Msg, network string) (*dns.Msg, error) {
		networks = append(networks, network)
		if network == "tcp" {
			return nil, fmt.Errorf("connection refused")
		}
		return soaResponse(msg, msg.Question[0].Name, true), nil
	}

	ok, err := client.probeAuthoritative(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected authoritative result via UDP fallback")
	}
	if !reflect.DeepEqual(networks, []string{"tcp", "udp"}) {
		t.Errorf("networks = %v, want [tcp udp]", networks)
	}
}

func TestProbeNoFallbackOnDNSError(t *testing.T) {
	client := newTestClient(t, nil)

	// SERVFAIL over TCP is response content, not a transport failure: the
	// probe must accept it as a definitive non-authoritative answer.
	var networks []string
	client.exchange = func(ctx context.Context, msg *dns.Msg, network string) (*dns.Msg, error) {
		networks = append(networks, network)
		resp := new(dns.Msg)
		resp.SetRcode(msg, dns.RcodeServerFailure)
		return resp, nil
	}

	ok, err := client.probeAuthoritative(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("SERVFAIL must not count as authoritative")
	}
	if !reflect.DeepEqual(networks, []string{"tcp"}) {
		t.Errorf("networks = %v, want [tcp] only", networks)
	}
}

func TestProbeHardFailureOnBothTransports(t *testing.T) {
	client := newTestClient(t, nil)

	client.exchange = func(ctx context.Context, msg *dns.Msg, network string) (*dns.Msg, error) {
		return nil, fmt.Errorf("%s: network unreachable", network)
	}

	_, err := client.probeAuthoritative(context.Background(), "example.com")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrProbeFailed) {
		t.Errorf("error %v is not ErrProbeFailed", err)
	}
	if !strings.Contains(err.Error(), "example.com") {
		t.Errorf("error %q does not name the probed domain", err)
	}
}
