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

// Package config implements the configuration-tag collaborator the core and
// feature modules read policy from. A configuration is a multimap of tag
// names to tags; each tag is an ordered list of key/value pairs with typed
// accessors and declared defaults. Tags with the same name may occur more
// than once (oper blocks, connect classes).
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyVal is a configuration key and value pair
type KeyVal struct {
	Key   string
	Value string
}

// Tag is one configuration tag: its name, its key/value items in source
// order, and where it was defined. When a key occurs more than once the
// first occurrence wins.
type Tag struct {
	name  string
	items []KeyVal
	file  string
	line  int
}

// NewTag creates a tag defined at the given source location.
func NewTag(name, file string, line int) *Tag {
	return &Tag{name: name, file: file, line: line}
}

// Name returns the tag name.
func (t *Tag) Name() string {
	return t.name
}

// Add appends a key/value item and returns the tag for chaining.
func (t *Tag) Add(key, value string) *Tag {
	t.items = append(t.items, KeyVal{Key: key, Value: value})
	return t
}

// Items returns the key/value items in source order.
func (t *Tag) Items() []KeyVal {
	return t.items
}

// ReadString looks up key and reports whether it was present.
func (t *Tag) ReadString(key string) (string, bool) {
	for _, item := range t.items {
		if item.Key == key {
			return item.Value, true
		}
	}
	return "", false
}

// GetString returns the value of key, or def when absent.
func (t *Tag) GetString(key, def string) string {
	if value, ok := t.ReadString(key); ok {
		return value
	}
	return def
}

// GetInt returns the value of key parsed as an integer, or def when absent
// or unparsable.
func (t *Tag) GetInt(key string, def int64) int64 {
	value, ok := t.ReadString(key)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

// GetFloat returns the value of key parsed as a float, or def when absent
// or unparsable.
func (t *Tag) GetFloat(key string, def float64) float64 {
	value, ok := t.ReadString(key)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return def
	}
	return parsed
}

// GetBool returns the value of key parsed as a boolean, or def when absent.
// The forms yes/true/on/1 are true and no/false/off/0 are false; anything
// else falls back to def.
func (t *Tag) GetBool(key string, def bool) bool {
	value, ok := t.ReadString(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "on", "1":
		return true
	case "no", "false", "off", "0":
		return false
	default:
		return def
	}
}

// Location returns the source position the tag was defined at.
func (t *Tag) Location() string {
	return fmt.Sprintf("%s:%d", t.file, t.line)
}

// Config holds every tag of one loaded configuration.
type Config struct {
	tags map[string][]*Tag
}

// New creates an empty configuration.
func New() *Config {
	return &Config{tags: make(map[string][]*Tag)}
}

// Add appends a tag under its name.
func (c *Config) Add(tag *Tag) *Config {
	c.tags[tag.name] = append(c.tags[tag.name], tag)
	return c
}

// Value returns the first tag with the given name. A missing tag yields an
// empty tag so callers can chain typed getters with their defaults.
func (c *Config) Value(name string) *Tag {
	if tags := c.tags[name]; len(tags) > 0 {
		return tags[0]
	}
	return NewTag(name, "<missing>", 0)
}

// ValueAt returns the nth occurrence of the named tag.
func (c *Config) ValueAt(name string, n int) (*Tag, bool) {
	tags := c.tags[name]
	if n < 0 || n >= len(tags) {
		return nil, false
	}
	return tags[n], true
}

// Values returns every occurrence of the named tag, in definition order.
func (c *Config) Values(name string) []*Tag {
	return c.tags[name]
}
