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

// Package entity defines the long-lived core entities feature modules
// attach extension data to: users, channels, channel memberships and
// servers. The core creates an entity when a session begins and destroys it
// through its destruction hook, which releases every remaining extension
// value before the entity is dropped.
package entity

import (
	"github.com/google/uuid"

	"github.com/emberchat/emberd/extension"
)

// User is a connected client, local or remote.
type User struct {
	extension.Extensible

	ID       uuid.UUID
	Nick     string
	Ident    string
	Host     string
	Realname string

	// Local is true when the user is attached to this server rather than
	// learned over a server link.
	Local bool

	// Class is the name of the connect class the user was placed in.
	Class string

	operName string
}

// NewUser creates a local user entity.
func NewUser(nick, ident, host string) *User {
	return &User{
		Extensible: extension.NewExtensible(extension.KindUser),
		ID:         uuid.New(),
		Nick:       nick,
		Ident:      ident,
		Host:       host,
		Local:      true,
	}
}

// IsOper reports whether the user holds operator status.
func (u *User) IsOper() bool {
	return u.operName != ""
}

// Oper grants the user operator status under the named oper block.
func (u *User) Oper(name string) {
	u.operName = name
}

// OperName returns the oper block name the user logged in with, if any.
func (u *User) OperName() string {
	return u.operName
}

// FullHost returns the nick!ident@host mask of the user.
func (u *User) FullHost() string {
	return u.Nick + "!" + u.Ident + "@" + u.Host
}

// Destroy runs the extension release pass and marks the user inert. The
// core calls it exactly once, before dropping the entity.
func (u *User) Destroy(reg *extension.Registry) {
	reg.FreeAll(&u.Extensible)
}

// Channel is a named multi-party conversation.
type Channel struct {
	extension.Extensible

	Name  string
	Topic string
}

// NewChannel creates a channel entity.
func NewChannel(name string) *Channel {
	return &Channel{
		Extensible: extension.NewExtensible(extension.KindChannel),
		Name:       name,
	}
}

// Destroy runs the extension release pass and marks the channel inert.
func (c *Channel) Destroy(reg *extension.Registry) {
	reg.FreeAll(&c.Extensible)
}

// Membership ties one user to one channel for as long as they are joined.
type Membership struct {
	extension.Extensible

	User    *User
	Channel *Channel
}

// NewMembership creates the membership of user in channel.
func NewMembership(user *User, channel *Channel) *Membership {
	return &Membership{
		Extensible: extension.NewExtensible(extension.KindMembership),
		User:       user,
		Channel:    channel,
	}
}

// Destroy runs the extension release pass and marks the membership inert.
func (m *Membership) Destroy(reg *extension.Registry) {
	reg.FreeAll(&m.Extensible)
}

// Server is a linked peer server.
type Server struct {
	extension.Extensible

	ID          uuid.UUID
	Name        string
	Description string
}

// NewServer creates a server entity.
func NewServer(name, description string) *Server {
	return &Server{
		Extensible:  extension.NewExtensible(extension.KindServer),
		ID:          uuid.New(),
		Name:        name,
		Description: description,
	}
}

// Destroy runs the extension release pass and marks the server inert.
func (s *Server) Destroy(reg *extension.Registry) {
	reg.FreeAll(&s.Extensible)
}
