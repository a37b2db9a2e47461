package rfc2136

import (
	"errors"
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// Sentinel errors for RFC 2136 operations.
var (
	// ErrUpdateFailed is returned when a dynamic update could not be
	// delivered or was rejected by the server.
	ErrUpdateFailed = errors.New("dns update failed")

	// ErrProbeFailed is returned when an SOA probe fails on both TCP and UDP.
	ErrProbeFailed = errors.New("soa probe failed")

	// ErrZoneNotFound is returned when no candidate zone answers authoritatively.
	ErrZoneNotFound = errors.New("authoritative zone not found")

	// ErrCNAMELoop is returned when CNAME chasing detects a cycle.
	ErrCNAMELoop = errors.New("cname loop detected")

	// ErrCNAMEDepth is returned when CNAME chasing exceeds the configured depth.
	ErrCNAMEDepth = errors.New("maximum cname depth reached")

	// ErrZoneMismatch is returned when the effective record name is not
	// contained in the resolved zone. This indicates a resolution bug and
	// the operation fails rather than writing into the wrong zone.
	ErrZoneMismatch = errors.New("record name not within resolved zone")
)

// ZoneNotFoundError reports a failed zone resolution, including every
// candidate base domain that was probed.
type ZoneNotFoundError struct {
	Record  string
	Guesses []string
}

func (e *ZoneNotFoundError) Error() string {
	return fmt.Sprintf("unable to determine base domain for %s using names: %s",
		e.Record, strings.Join(e.Guesses, ", "))
}

func (e *ZoneNotFoundError) Unwrap() error { return ErrZoneNotFound }

// CNAMELoopError reports a cycle detected while chasing CNAME records.
type CNAMELoopError struct {
	Name string
}

func (e *CNAMELoopError) Error() string {
	return fmt.Sprintf("cname loop detected at %s", e.Name)
}

func (e *CNAMELoopError) Unwrap() error { return ErrCNAMELoop }

// CNAMEDepthError reports that the configured hop limit was exceeded.
type CNAMEDepthError struct {
	Depth int
}

func (e *CNAMEDepthError) Error() string {
	return fmt.Sprintf("reached maximum cname depth (%d)", e.Depth)
}

func (e *CNAMEDepthError) Unwrap() error { return ErrCNAMEDepth }

// RcodeError reports a non-NOERROR response code from the server for a
// dynamic update.
type RcodeError struct {
	Op    string // "add" or "delete"
	Rcode int
}

func (e *RcodeError) Error() string {
	return fmt.Sprintf("received response from server: %s (rcode %d) during %s",
		dns.RcodeToString[e.Rcode], e.Rcode, e.Op)
}

func (e *RcodeError) Unwrap() error { return ErrUpdateFailed }
