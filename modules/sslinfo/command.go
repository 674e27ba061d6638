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

	"github.com/emberchat/emberd/entity"
)

// SSLInfo handles the SSLINFO command: it returns the notice lines to send
// to source about target's TLS client certificate, and whether the lookup
// was permitted. Target resolution and delivery belong to the command
// layer.
func (m *Module) SSLInfo(source, target *entity.User) ([]string, bool) {
	if m.operOnly() && !source.IsOper() && target != source {
		return []string{"*** You cannot view TLS client certificate information for other users"}, false
	}

	cert := m.GetCertificate(target)
	switch {
	case cert == nil:
		return []string{fmt.Sprintf("*** %s is not connected using TLS.", target.Nick)}, true
	case cert.Error != "":
		return []string{fmt.Sprintf("*** %s is connected using TLS but has not specified a valid client certificate (%s).", target.Nick, cert.Error)}, true
	default:
		return []string{
			"*** Distinguished Name: " + cert.DN,
			"*** Issuer:             " + cert.Issuer,
			"*** Key Fingerprint:    " + cert.Fingerprint,
		}, true
	}
}
