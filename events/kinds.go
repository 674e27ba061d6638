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

package events

import (
	"github.com/emberchat/emberd/config"
	"github.com/emberchat/emberd/entity"
)

// The event kinds the core raises. Feature modules subscribe to these;
// the payload of each kind is mutable in place, and mutating it is
// independent of voting.
var (
	// AuthAttempt is raised for a connection authentication attempt, such
	// as an OPER command, before the core acts on it. Vetoable.
	AuthAttempt = NewKind[AuthAttemptEvent]("connection-auth-attempt")

	// PostConnect is raised once a connection has fully registered.
	PostConnect = NewAdvisoryKind[PostConnectEvent]("post-connect")

	// Whois is raised while building a WHOIS reply; listeners append
	// decoration lines to the payload.
	Whois = NewAdvisoryKind[WhoisEvent]("whois-lookup")

	// WhoLine is raised for every line of a WHO reply; listeners may append
	// flag characters into the requested flags field. Vetoable: a Deny
	// suppresses the line.
	WhoLine = NewKind[WhoLineEvent]("who-query-line")

	// ConnectClass is raised when a connect class is about to be assigned
	// to a user; a Deny rejects the class as unsuitable. Vetoable.
	ConnectClass = NewKind[ConnectClassEvent]("connect-class-selection")

	// GatewayFlags is raised when a trusted gateway announces connection
	// flags for a user it is forwarding.
	GatewayFlags = NewAdvisoryKind[GatewayFlagsEvent]("gateway-flag-announcement")
)

// AuthAttemptEvent is the payload of AuthAttempt. Listeners that deny the
// attempt queue their user notices, operator alerts and flood penalty on
// the payload; the command layer delivers them.
type AuthAttemptEvent struct {
	User      *entity.User
	Command   string
	Params    []string
	Validated bool

	Notices      []string
	OperAlerts   []string
	FloodPenalty int
}

// Notice queues a notice line for the user.
func (e *AuthAttemptEvent) Notice(text string) {
	e.Notices = append(e.Notices, text)
}

// OperAlert queues a global operator alert.
func (e *AuthAttemptEvent) OperAlert(text string) {
	e.OperAlerts = append(e.OperAlerts, text)
}

// PostConnectEvent is the payload of PostConnect.
type PostConnectEvent struct {
	User    *entity.User
	Notices []string
}

// Notice queues a notice line for the user.
func (e *PostConnectEvent) Notice(text string) {
	e.Notices = append(e.Notices, text)
}

// WhoisLine is one decoration line appended to a WHOIS reply.
type WhoisLine struct {
	Numeric uint16
	Text    string
}

// WhoisEvent is the payload of Whois.
type WhoisEvent struct {
	Source *entity.User
	Target *entity.User
	Lines  []WhoisLine
}

// SendLine appends a numbered decoration line to the reply.
func (e *WhoisEvent) SendLine(numeric uint16, text string) {
	e.Lines = append(e.Lines, WhoisLine{Numeric: numeric, Text: text})
}

// SelfWhois reports whether the user is looking themself up.
func (e *WhoisEvent) SelfWhois() bool {
	return e.Source == e.Target
}

// WhoLineEvent is the payload of WhoLine. Fields holds the field characters
// the query requested; Params holds the reply parameters aligned with it.
type WhoLineEvent struct {
	Source     *entity.User
	Target     *entity.User
	Membership *entity.Membership
	Fields     string
	Params     []string
}

// FieldIndex returns the parameter index of the requested field character.
func (e *WhoLineEvent) FieldIndex(field byte) (int, bool) {
	for i := 0; i < len(e.Fields); i++ {
		if e.Fields[i] == field {
			return i, i < len(e.Params)
		}
	}
	return 0, false
}

// ConnectClassEvent is the payload of ConnectClass.
type ConnectClassEvent struct {
	User        *entity.User
	ClassName   string
	ClassConfig *config.Tag
}

// GatewayFlagsEvent is the payload of GatewayFlags. A nil Flags map means
// the gateway announced no connection flags.
type GatewayFlagsEvent struct {
	User  *entity.User
	Flags map[string]string
}
