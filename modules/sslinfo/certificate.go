// MIT License
//
// Copyright (c) 2023-2026 Emberd Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package sslinfo

import (
	"fmt"
	"strings"
)

// Certificate describes the TLS client certificate of a connection as far
// as the daemon cares about it: validation flags, fingerprint, subject,
// issuer, and the validation error when the peer presented something
// unusable. Cryptographic validation itself happens in the TLS layer; this
// type only carries its result around as an attribute value.
type Certificate struct {
	Invalid       bool
	Trusted       bool
	Revoked       bool
	UnknownSigner bool

	Fingerprint string
	DN          string
	Issuer      string
	Error       string
}

// IsCAVerified reports whether the certificate chained to a trusted CA and
// was not otherwise rejected.
func (c *Certificate) IsCAVerified() bool {
	return c.Trusted && !c.Invalid && !c.Revoked && !c.UnknownSigner
}

// MetaLine renders the replication encoding of the certificate: a token of
// flag characters (v=invalid, T=trusted, R=revoked, s=unknown signer),
// then either E plus the validation error running to end of line, or the
// fingerprint, distinguished name and issuer, the issuer running to end of
// line. ParseMetaLine reverses it field for field.
func (c *Certificate) MetaLine() string {
	var b strings.Builder
	if c.Invalid {
		b.WriteByte('v')
	}
	if c.Trusted {
		b.WriteByte('T')
	}
	if c.Revoked {
		b.WriteByte('R')
	}
	if c.UnknownSigner {
		b.WriteByte('s')
	}
	if c.Error != "" {
		b.WriteByte('E')
		b.WriteByte(' ')
		b.WriteString(c.Error)
		return b.String()
	}
	b.WriteByte(' ')
	b.WriteString(c.Fingerprint)
	b.WriteByte(' ')
	b.WriteString(c.DN)
	b.WriteByte(' ')
	b.WriteString(c.Issuer)
	return b.String()
}

// ParseMetaLine reconstructs a certificate from its replication encoding.
// It never fails outright: text that carries neither an error form nor a
// fingerprint yields a present certificate marked invalid, with the parse
// problem recorded in its Error field, and a diagnostic error alongside.
// Tolerating garbled remote metadata this way keeps a misbehaving peer
// from desynchronizing the entity model.
func ParseMetaLine(text string) (*Certificate, error) {
	cert := new(Certificate)
	flags, rest, _ := strings.Cut(text, " ")
	cert.Invalid = strings.ContainsRune(flags, 'v')
	cert.Trusted = strings.ContainsRune(flags, 'T')
	cert.Revoked = strings.ContainsRune(flags, 'R')
	cert.UnknownSigner = strings.ContainsRune(flags, 's')

	if strings.ContainsRune(flags, 'E') {
		cert.Error = rest
		return cert, nil
	}

	cert.Fingerprint, rest, _ = strings.Cut(rest, " ")
	cert.DN, cert.Issuer, _ = strings.Cut(rest, " ")

	if cert.Fingerprint == "" {
		cert.Invalid = true
		cert.Error = "malformed certificate metadata"
		return cert, fmt.Errorf("certificate metadata %q has no fingerprint", text)
	}
	return cert, nil
}
