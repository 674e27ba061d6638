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
	"github.com/emberchat/emberd/extension"
)

// CertRef is the value the certificate slot stores: a shared reference to
// one certificate. The same certificate may be referenced by several
// holders at once (the slot binding plus whoever produced it), so the slot
// releaser drops a reference instead of destroying the payload.
type CertRef = *extension.Shared[*Certificate]

// metaCodec is the certificate slot's wire codec.
type metaCodec struct{}

var _ extension.Codec[CertRef] = metaCodec{}

func (metaCodec) Encode(ref CertRef) string {
	return ref.Value().MetaLine()
}

func (metaCodec) Decode(text string) (CertRef, error) {
	cert, err := ParseMetaLine(text)
	return extension.NewShared(cert, nil), err
}
