package rfc2136

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DefaultAlgorithm is used when no algorithm is configured. HMAC-MD5 is
// the historical default of BIND's dynamic update tooling and is kept for
// compatibility with existing credentials.
const DefaultAlgorithm = dns.HmacMD5

// TSIG holds the transaction signature key used to authenticate updates
// and, optionally, SOA probe queries. It is never mutated after
// construction.
type TSIG struct {
	// Name is the key name in FQDN form (trailing dot).
	Name string

	// Secret is the base64-encoded shared secret.
	Secret string

	// Algorithm is the HMAC algorithm in miekg/dns wire format.
	Algorithm string
}

// NewTSIG creates a TSIG keyring entry from the given parameters.
// The secret must be valid base64.
func NewTSIG(name, secret, algorithm string) (*TSIG, error) {
	if name == "" {
		return nil, fmt.Errorf("tsig key name is required")
	}
	name = dns.Fqdn(name)

	if _, err := base64.StdEncoding.DecodeString(secret); err != nil {
		return nil, fmt.Errorf("tsig secret is not valid base64: %w", err)
	}

	alg := normalizeAlgorithm(algorithm)
	if !isValidAlgorithm(alg) {
		return nil, fmt.Errorf("unknown algorithm: %s", algorithm)
	}

	return &TSIG{
		Name:      name,
		Secret:    secret,
		Algorithm: alg,
	}, nil
}

// TSIGFromConfig creates the keyring from a Config. Unlike plain zone
// transfers, dynamic updates are always authenticated, so the key is
// mandatory.
func TSIGFromConfig(config *Config) (*TSIG, error) {
	return NewTSIG(config.TSIGKeyName, config.TSIGSecret, config.TSIGAlgorithm)
}

// ApplyToClient installs the shared secret on a dns.Client so outgoing
// messages carrying a TSIG record are signed and signed responses are
// verified.
func (t *TSIG) ApplyToClient(client *dns.Client) {
	client.TsigSecret = map[string]string{t.Name: t.Secret}
}

// SignMessage attaches a TSIG record to a fully constructed message.
func (t *TSIG) SignMessage(msg *dns.Msg) {
	msg.SetTsig(t.Name, t.Algorithm, 300, time.Now().Unix())
}

// normalizeAlgorithm maps user-facing algorithm names to miekg/dns wire
// format. Unknown values pass through for Validate to reject.
func normalizeAlgorithm(alg string) string {
	if alg == "" {
		return DefaultAlgorithm
	}

	switch strings.ToLower(strings.TrimSpace(alg)) {
	case "hmac-md5", "md5", "hmac-md5.sig-alg.reg.int.":
		return dns.HmacMD5
	case "hmac-sha1", "sha1":
		return dns.HmacSHA1
	case "hmac-sha224", "sha224":
		return dns.HmacSHA224
	case "hmac-sha256", "sha256":
		return dns.HmacSHA256
	case "hmac-sha384", "sha384":
		return dns.HmacSHA384
	case "hmac-sha512", "sha512":
		return dns.HmacSHA512
	default:
		return alg
	}
}

// isValidAlgorithm checks the algorithm against the supported HMAC set.
func isValidAlgorithm(alg string) bool {
	switch alg {
	case dns.HmacMD5, dns.HmacSHA1, dns.HmacSHA224,
		dns.HmacSHA256, dns.HmacSHA384, dns.HmacSHA512:
		return true
	default:
		return false
	}
}

// SupportedAlgorithms returns the user-facing algorithm names accepted in
// configuration.
func SupportedAlgorithms() []string {
	return []string{
		"hmac-md5",
		"hmac-sha1",
		"hmac-sha224",
		"hmac-sha256",
		"hmac-sha384",
		"hmac-sha512",
	}
}
