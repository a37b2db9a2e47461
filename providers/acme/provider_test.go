package acme

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"gitlab.bluewillows.net/root/txtweaver/pkg/rfc2136"
)

func newTestProvider(client updater) *Provider {
	return &Provider{
		client: client,
		ttl:    120,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

type fakeUpdater struct {
	added   []recordCall
	deleted []recordCall
	err     error
}

type recordCall struct {
	name    string
	content string
	ttl     uint32
}

func (f *fakeUpdater) AddTXTRecord(ctx context.Context, name, content string, ttl uint32) error {
	f.added = append(f.added, recordCall{name, content, ttl})
	return f.err
}

func (f *fakeUpdater) DeleteTXTRecord(ctx context.Context, name, content string) error {
	f.deleted = append(f.deleted, recordCall{name: name, content: content})
	return f.err
}

func TestNew(t *testing.T) {
	config := &rfc2136.Config{
		Server:      "192.0.2.1",
		TSIGKeyName: "a-tsig-key.",
		TSIGSecret:  "c2VjcmV0",
	}

	p, err := New(config, WithTTL(60), WithPropagation(time.Minute, time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	timeout, interval := p.Timeout()
	if timeout != time.Minute || interval != time.Second {
		t.Errorf("Timeout() = (%v, %v), want (1m, 1s)", timeout, interval)
	}
	if p.ttl != 60 {
		t.Errorf("ttl = %d, want 60", p.ttl)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	config := &rfc2136.Config{
		Server:      "ns1.example.com", // hostname, rejected
		TSIGKeyName: "a-tsig-key.",
		TSIGSecret:  "c2VjcmV0",
	}

	if _, err := New(config); err == nil {
		t.Error("expected error for hostname server, got nil")
	}
}

func TestPresent(t *testing.T) {
	fake := &fakeUpdater{}
	p := newTestProvider(fake)

	err := p.Present("example.com", "token", "key-auth")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.added) != 1 {
		t.Fatalf("adds = %d, want 1", len(fake.added))
	}
	call := fake.added[0]
	if call.name != "_acme-challenge.example.com." {
		t.Errorf("record name = %q, want _acme-challenge.example.com.", call.name)
	}
	if call.content == "" {
		t.Error("record content is empty; expected the digest of the key authorization")
	}
	if call.ttl != 120 {
		t.Errorf("ttl = %d, want 120", call.ttl)
	}
}

func TestCleanUpMatchesPresent(t *testing.T) {
	fake := &fakeUpdater{}
	p := newTestProvider(fake)

	if err := p.Present("example.com", "token", "key-auth"); err != nil {
		t.Fatalf("present: %v", err)
	}
	if err := p.CleanUp("example.com", "token", "key-auth"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if len(fake.deleted) != 1 {
		t.Fatalf("deletes = %d, want 1", len(fake.deleted))
	}
	if fake.deleted[0].name != fake.added[0].name {
		t.Errorf("cleanup targeted %q but present wrote %q", fake.deleted[0].name, fake.added[0].name)
	}
	if fake.deleted[0].content != fake.added[0].content {
		t.Errorf("cleanup content %q differs from presented content %q",
			fake.deleted[0].content, fake.added[0].content)
	}
}

func TestPresentError(t *testing.T) {
	fake := &fakeUpdater{err: fmt.Errorf("update refused")}
	p := newTestProvider(fake)

	if err := p.Present("example.com", "token", "key-auth"); err == nil {
		t.Error("expected error, got nil")
	}
}
