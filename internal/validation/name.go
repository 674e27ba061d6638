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

package validation

// namePattern is the rule every slot and module identifier must satisfy:
// it starts with an alphanumeric character and contains only alphanumeric
// characters, hyphens or underscores thereafter.
const namePattern = "^[a-zA-Z0-9][a-zA-Z0-9-_]*$"

// maxNameLength is the identifier length cap.
const maxNameLength = 255

// nameValidator validates slot and module identifiers.
type nameValidator struct {
	name      string
	customErr error
}

var _ Validator = (*nameValidator)(nil)

// NewNameValidator creates an identifier validator returning the given
// error on violation.
func NewNameValidator(name string, customErr error) Validator {
	return &nameValidator{name: name, customErr: customErr}
}

// Validate executes the validation
func (x *nameValidator) Validate() error {
	if len(x.name) > maxNameLength {
		return x.customErr
	}
	return NewPatternValidator(namePattern, x.name, x.customErr).Validate()
}
