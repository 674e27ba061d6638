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

package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberchat/emberd/extension"
	"github.com/emberchat/emberd/log"
)

func TestUser(t *testing.T) {
	t.Run("With identity and masks", func(t *testing.T) {
		user := NewUser("sadie", "services", "witchery.example")
		assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", user.ID.String())
		assert.Equal(t, "sadie!services@witchery.example", user.FullHost())
		assert.Equal(t, extension.KindUser, user.Kind())
		assert.True(t, user.Local)
	})
	t.Run("With oper status", func(t *testing.T) {
		user := NewUser("sadie", "services", "witchery.example")
		require.False(t, user.IsOper())
		user.Oper("netadmin")
		assert.True(t, user.IsOper())
		assert.Equal(t, "netadmin", user.OperName())
	})
	t.Run("With destruction releasing attached values", func(t *testing.T) {
		registry := extension.NewRegistry(extension.WithLogger(log.DiscardLogger))
		released := 0
		slot, err := extension.Register(registry, "away-reason", extension.KindUser, "away",
			extension.WithReleaser(func(string) { released++ }))
		require.NoError(t, err)

		user := NewUser("sadie", "services", "witchery.example")
		slot.Set(&user.Extensible, "brb")

		user.Destroy(registry)
		assert.Equal(t, 1, released)
		_, ok := slot.Get(&user.Extensible)
		assert.False(t, ok)
		assert.True(t, user.Destroyed())
	})
}

func TestMembership(t *testing.T) {
	t.Run("With its own extension storage", func(t *testing.T) {
		user := NewUser("sadie", "services", "witchery.example")
		channel := NewChannel("#ops")
		membership := NewMembership(user, channel)

		assert.Equal(t, extension.KindMembership, membership.Kind())
		assert.Equal(t, extension.KindChannel, channel.Kind())
		assert.Same(t, user, membership.User)
		assert.Same(t, channel, membership.Channel)
	})
}

func TestServer(t *testing.T) {
	t.Run("With destruction", func(t *testing.T) {
		registry := extension.NewRegistry(extension.WithLogger(log.DiscardLogger))
		server := NewServer("hub.example", "The hub")
		assert.Equal(t, extension.KindServer, server.Kind())
		server.Destroy(registry)
		assert.True(t, server.Destroyed())
	})
}
