package domain

import "strconv"

// TLSProfile is an opaque identifier for a TLS method/version selection
// (e.g. "tlsv12-client", "tls-client"). A non-nil profile makes the
// adapter layer wrap the connection in TLS; the *tls.Config it builds is
// the same for every profile (SNI name plus a TLS 1.2 minimum) and does
// not read Name or ID. The core only ever treats the profile as a label
// distinguishing one destination key from another.
type TLSProfile struct {
	Name string
	// ID distinguishes TLS profiles that would otherwise canonicalise to
	// the same key, matching the source design's "sslN" suffix.
	ID int
}

// Destination identifies a (host, port, tls-profile) triple that a pool
// routes requests to. Two Destinations are routed to the same client set
// iff their Key() strings are equal.
type Destination struct {
	Host string
	Port string
	TLS  *TLSProfile
}

// Key canonicalises the destination to "host[:port][:sslN]", matching
// spec.md §3 and the source's http_client_pool::enqueue key construction.
func (d Destination) Key() string {
	key := d.Host
	if d.Port != "" {
		key += ":" + d.Port
	}
	if d.TLS != nil {
		key += ":ssl" + strconv.Itoa(d.TLS.ID)
	}
	return key
}

// HostnameForSNI returns the "host[:port]" string used as the SNI name
// during a TLS handshake, or "" when the destination is plaintext.
func (d Destination) HostnameForSNI() string {
	if d.TLS == nil {
		return ""
	}
	if d.Port == "" {
		return d.Host
	}
	return d.Host + ":" + d.Port
}
