// Package rfc2136 implements the dynamic update client at the heart of
// txtweaver: it locates the authoritative zone for a record name and adds
// or removes a single TXT record there via TSIG-signed RFC 2136 updates.
//
// The flow for every add or delete is the same:
//
//  1. Optionally chase CNAME records from the requested name until a
//     non-CNAME name is reached (loop detection, configurable hop limit).
//  2. Walk the parent-domain guesses of the resulting name, probing each
//     with a recursion-cleared SOA query until one answers authoritatively.
//  3. Build a signed UPDATE for that zone inserting or removing the TXT
//     record and deliver it over TCP.
//
// SOA probes go to the configured server over TCP, falling back to UDP
// once on a transport failure only; updates never fall back. CNAME hops,
// by contrast, may use the platform's recursive resolvers.
//
// The target server must be an IP literal: the client refuses to perform a
// hostname lookup for the endpoint of an authenticated update channel.
//
//	client, err := rfc2136.NewClient(&rfc2136.Config{
//	    Server:        "192.0.2.1",
//	    TSIGKeyName:   "acme-key.",
//	    TSIGSecret:    "c2VjcmV0",
//	    TSIGAlgorithm: "hmac-sha256",
//	    FollowCNAME:   true,
//	    Depth:         rfc2136.UnlimitedDepth(),
//	})
//	if err != nil {
//	    return err
//	}
//	err = client.AddTXTRecord(ctx, "_acme-challenge.example.com", token, 120)
//
// Nothing is cached between calls: cleanup re-resolves the same name and,
// by construction, lands in the same zone as setup.
package rfc2136
