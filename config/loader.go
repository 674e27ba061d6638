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

package config

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML configuration document from r. The document maps each
// tag name to a list of tags, each tag being a map of keys to scalar
// values:
//
//	sslinfo:
//	  - operonly: yes
//	oper:
//	  - name: sadie
//	    fingerprint: ab12cd34
//	    autologin: yes
func Load(r io.Reader, source string) (*Config, error) {
	raw := make(map[string][]map[string]any)
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&raw); err != nil {
		if err == io.EOF {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to parse configuration %s: %w", source, err)
	}

	cfg := New()
	for name, occurrences := range raw {
		for n, keys := range occurrences {
			tag := NewTag(name, source, n+1)
			ordered := make([]string, 0, len(keys))
			for key := range keys {
				ordered = append(ordered, key)
			}
			sort.Strings(ordered)
			for _, key := range ordered {
				tag.Add(key, scalarString(keys[key]))
			}
			cfg.Add(tag)
		}
	}
	return cfg, nil
}

// LoadFile reads a YAML configuration document from the named file.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, path)
}

func scalarString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		if value {
			return "yes"
		}
		return "no"
	case nil:
		return ""
	default:
		return fmt.Sprint(value)
	}
}
