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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTag(t *testing.T) {
	t.Run("With typed getters and defaults", func(t *testing.T) {
		tag := NewTag("sslinfo", "emberd.yml", 3).
			Add("operonly", "yes").
			Add("maxlines", "25").
			Add("weight", "0.5").
			Add("motd", "hello there")

		assert.True(t, tag.GetBool("operonly", false))
		assert.EqualValues(t, 25, tag.GetInt("maxlines", 0))
		assert.InDelta(t, 0.5, tag.GetFloat("weight", 0), 1e-9)
		assert.Equal(t, "hello there", tag.GetString("motd", ""))

		assert.False(t, tag.GetBool("missing", false))
		assert.True(t, tag.GetBool("missing", true))
		assert.EqualValues(t, 42, tag.GetInt("missing", 42))
		assert.InDelta(t, 1.5, tag.GetFloat("missing", 1.5), 1e-9)
		assert.Equal(t, "def", tag.GetString("missing", "def"))
	})
	t.Run("With every boolean form", func(t *testing.T) {
		tag := NewTag("flags", "emberd.yml", 1).
			Add("a", "yes").Add("b", "TRUE").Add("c", "on").Add("d", "1").
			Add("e", "no").Add("f", "False").Add("g", "off").Add("h", "0").
			Add("i", "maybe")
		for _, key := range []string{"a", "b", "c", "d"} {
			assert.True(t, tag.GetBool(key, false), "key=%s", key)
		}
		for _, key := range []string{"e", "f", "g", "h"} {
			assert.False(t, tag.GetBool(key, true), "key=%s", key)
		}
		// unparsable values fall back to the default
		assert.True(t, tag.GetBool("i", true))
	})
	t.Run("With the first occurrence of a duplicate key winning", func(t *testing.T) {
		tag := NewTag("oper", "emberd.yml", 1).
			Add("name", "sadie").
			Add("name", "attila")
		assert.Equal(t, "sadie", tag.GetString("name", ""))
	})
	t.Run("With ReadString reporting presence", func(t *testing.T) {
		tag := NewTag("oper", "emberd.yml", 1).Add("fingerprint", "")
		value, ok := tag.ReadString("fingerprint")
		assert.True(t, ok)
		assert.Empty(t, value)
		_, ok = tag.ReadString("missing")
		assert.False(t, ok)
	})
	t.Run("With the source location", func(t *testing.T) {
		tag := NewTag("oper", "emberd.yml", 7)
		assert.Equal(t, "emberd.yml:7", tag.Location())
	})
}

func TestConfig(t *testing.T) {
	t.Run("With multiple occurrences of a tag", func(t *testing.T) {
		cfg := New().
			Add(NewTag("oper", "emberd.yml", 1).Add("name", "sadie")).
			Add(NewTag("oper", "emberd.yml", 5).Add("name", "attila"))

		assert.Equal(t, "sadie", cfg.Value("oper").GetString("name", ""))

		second, ok := cfg.ValueAt("oper", 1)
		require.True(t, ok)
		assert.Equal(t, "attila", second.GetString("name", ""))

		_, ok = cfg.ValueAt("oper", 2)
		assert.False(t, ok)

		assert.Len(t, cfg.Values("oper"), 2)
	})
	t.Run("With a missing tag yielding an empty tag", func(t *testing.T) {
		cfg := New()
		tag := cfg.Value("sslinfo")
		require.NotNil(t, tag)
		assert.False(t, tag.GetBool("operonly", false))
		assert.Equal(t, "fallback", tag.GetString("anything", "fallback"))
	})
}

func TestLoad(t *testing.T) {
	t.Run("With a document of tags", func(t *testing.T) {
		document := `
sslinfo:
  - operonly: yes
oper:
  - name: sadie
    fingerprint: ab12cd34
    autologin: yes
  - name: attila
    sslonly: true
connect:
  - name: secure
    requiressl: trusted
    limit: 10
`
		cfg, err := Load(strings.NewReader(document), "emberd.yml")
		require.NoError(t, err)

		assert.True(t, cfg.Value("sslinfo").GetBool("operonly", false))
		require.Len(t, cfg.Values("oper"), 2)
		assert.Equal(t, "ab12cd34", cfg.Value("oper").GetString("fingerprint", ""))
		assert.True(t, cfg.Value("oper").GetBool("autologin", false))
		assert.Equal(t, "trusted", cfg.Value("connect").GetString("requiressl", ""))
		assert.EqualValues(t, 10, cfg.Value("connect").GetInt("limit", 0))
	})
	t.Run("With an empty document", func(t *testing.T) {
		cfg, err := Load(strings.NewReader(""), "emberd.yml")
		require.NoError(t, err)
		assert.Empty(t, cfg.Values("anything"))
	})
	t.Run("With an invalid document", func(t *testing.T) {
		_, err := Load(strings.NewReader("not: [valid"), "emberd.yml")
		assert.Error(t, err)
	})
}
