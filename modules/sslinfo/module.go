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

// Package sslinfo adds user facing TLS information to the daemon: the
// SSLINFO lookup, WHOIS and WHO decoration, certificate requirements on
// oper logins and connect classes, and certificate handling for users
// forwarded by trusted gateways. It is built entirely on the two core
// mechanisms: a network-synchronized certificate slot on user entities plus
// listeners on the core event kinds.
package sslinfo

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/multierr"

	"github.com/emberchat/emberd/config"
	"github.com/emberchat/emberd/entity"
	"github.com/emberchat/emberd/events"
	"github.com/emberchat/emberd/extension"
	"github.com/emberchat/emberd/log"
)

const (
	// RPLWhoisCertFP decorates a WHOIS reply with a certificate fingerprint.
	RPLWhoisCertFP uint16 = 276
	// RPLWhoisSecure decorates a WHOIS reply with connection security.
	RPLWhoisSecure uint16 = 671

	// ModuleName owns the slots this module registers.
	ModuleName = "sslinfo"

	// certSlotName is replicated across server links.
	certSlotName = "ssl_cert"
	// noCertSlotName marks local users known to have no usable certificate,
	// so the TLS layer is not asked again.
	noCertSlotName = "no_ssl_cert"

	defaultPriority = 50
)

// Session exposes what the module needs from the TLS layer of a local
// connection. The socket and handshake machinery is an external
// collaborator; a nil Session means the connection is not using TLS.
type Session interface {
	// Certificate returns the validated client certificate, or nil when the
	// peer presented none.
	Certificate() *Certificate
	// Ciphersuite returns the negotiated cipher suite name.
	Ciphersuite() string
	// ServerName returns the SNI name the client connected with, if any.
	ServerName() string
}

// SessionLookup resolves the TLS session of a local user.
type SessionLookup func(*entity.User) Session

// Module is the sslinfo feature module.
type Module struct {
	registry   *extension.Registry
	dispatcher *events.Dispatcher
	conf       *config.Config
	logger     log.Logger
	sessions   SessionLookup

	certSlot   *extension.Slot[CertRef]
	noCertSlot *extension.Slot[int]
	subs       []*events.Subscription
}

// Option configures the module at creation time.
type Option func(*Module)

// WithLogger sets the module logger.
func WithLogger(logger log.Logger) Option {
	return func(m *Module) { m.logger = logger }
}

// WithSessionLookup wires the TLS layer collaborator.
func WithSessionLookup(lookup SessionLookup) Option {
	return func(m *Module) { m.sessions = lookup }
}

// New activates the module: it registers the certificate slots and
// subscribes the listeners. A slot registration conflict is a programming
// error and blocks activation.
func New(registry *extension.Registry, dispatcher *events.Dispatcher, conf *config.Config, opts ...Option) (*Module, error) {
	m := &Module{
		registry:   registry,
		dispatcher: dispatcher,
		conf:       conf,
		logger:     log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(m)
	}

	var err error
	m.certSlot, err = extension.Register(registry, certSlotName, extension.KindUser, ModuleName,
		extension.WithNetworkSync[CertRef](metaCodec{}),
		extension.WithReleaser(func(ref CertRef) { ref.Release() }))
	if err != nil {
		return nil, err
	}
	m.noCertSlot, err = extension.Register[int](registry, noCertSlotName, extension.KindUser, ModuleName)
	if err != nil {
		return nil, err
	}

	m.subs = []*events.Subscription{
		events.Observe(dispatcher, events.Whois, defaultPriority, m.onWhois),
		events.Subscribe(dispatcher, events.WhoLine, defaultPriority, m.onWhoLine),
		events.Subscribe(dispatcher, events.AuthAttempt, defaultPriority, m.onAuthAttempt),
		events.Observe(dispatcher, events.PostConnect, defaultPriority, m.onPostConnect),
		events.Subscribe(dispatcher, events.ConnectClass, defaultPriority, m.onConnectClass),
		events.Observe(dispatcher, events.GatewayFlags, defaultPriority, m.onGatewayFlags),
	}
	return m, nil
}

// Unload tears the module down: every listener is unsubscribed and both
// slots are unregistered, releasing the values still attached to live
// entities.
func (m *Module) Unload() error {
	for _, sub := range m.subs {
		m.dispatcher.Unsubscribe(sub)
	}
	m.subs = nil
	return multierr.Combine(
		m.registry.Unregister(certSlotName, extension.KindUser),
		m.registry.Unregister(noCertSlotName, extension.KindUser),
	)
}

// GetCertificate returns the certificate attached to user, pulling it from
// the TLS layer on first use for a local user that is not marked
// certificate-less. It returns nil when the user has no certificate.
func (m *Module) GetCertificate(user *entity.User) *Certificate {
	if ref, ok := m.certSlot.Get(&user.Extensible); ok {
		return ref.Value()
	}
	if !user.Local {
		return nil
	}
	if _, marked := m.noCertSlot.Get(&user.Extensible); marked {
		return nil
	}
	session := m.session(user)
	if session == nil {
		return nil
	}
	cert := session.Certificate()
	if cert == nil {
		return nil
	}

	ref := extension.NewShared(cert, nil)
	m.SetCertificate(user, ref)
	ref.Release()
	return cert
}

// SetCertificate attaches ref to user, taking its own reference; the
// caller keeps the one it holds.
func (m *Module) SetCertificate(user *entity.User, ref CertRef) {
	m.logger.Debugf("setting TLS client certificate for %s: %s", user.FullHost(), ref.Value().MetaLine())
	m.certSlot.Set(&user.Extensible, ref.Retain())
}

func (m *Module) session(user *entity.User) Session {
	if m.sessions == nil {
		return nil
	}
	return m.sessions(user)
}

// operOnly reports whether fingerprints are restricted to operators.
func (m *Module) operOnly() bool {
	return m.conf.Value("sslinfo").GetBool("operonly", false)
}

// operBlock finds the oper block with the given login name.
func (m *Module) operBlock(name string) *config.Tag {
	for _, tag := range m.conf.Values("oper") {
		if tag.GetString("name", "") == name {
			return tag
		}
	}
	return nil
}

// matchFingerprint reports whether the certificate fingerprint occurs in
// the space-separated fingerprint list.
func matchFingerprint(cert *Certificate, list string) bool {
	accepted := mapset.NewThreadUnsafeSet(strings.Fields(list)...)
	return accepted.Contains(cert.Fingerprint)
}

func (m *Module) onWhois(e *events.WhoisEvent) {
	cert := m.GetCertificate(e.Target)
	if cert == nil {
		return
	}
	e.SendLine(RPLWhoisSecure, "is using a secure connection")
	if (!m.operOnly() || e.SelfWhois() || e.Source.IsOper()) && cert.Fingerprint != "" {
		e.SendLine(RPLWhoisCertFP, fmt.Sprintf("has TLS client certificate fingerprint %s", cert.Fingerprint))
	}
}

func (m *Module) onWhoLine(e *events.WhoLineEvent) events.Outcome {
	index, ok := e.FieldIndex('f')
	if !ok {
		return events.PassThrough
	}
	if m.GetCertificate(e.Target) != nil {
		e.Params[index] += "s"
	}
	return events.PassThrough
}

func (m *Module) onAuthAttempt(e *events.AuthAttemptEvent) events.Outcome {
	if e.Command != "OPER" || !e.Validated || len(e.Params) == 0 {
		return events.PassThrough
	}
	block := m.operBlock(e.Params[0])
	if block == nil {
		return events.PassThrough
	}

	cert := m.GetCertificate(e.User)
	if block.GetBool("sslonly", false) && cert == nil {
		e.Notice("Invalid oper credentials")
		e.FloodPenalty += 10000
		e.OperAlert(fmt.Sprintf("WARNING! Failed oper attempt by %s using login '%s': a secure connection is required.", e.User.FullHost(), e.Params[0]))
		return events.Deny
	}

	if list, ok := block.ReadString("fingerprint"); ok && (cert == nil || !matchFingerprint(cert, list)) {
		e.Notice("Invalid oper credentials")
		e.FloodPenalty += 10000
		e.OperAlert(fmt.Sprintf("WARNING! Failed oper attempt by %s using login '%s': their TLS client certificate fingerprint does not match.", e.User.FullHost(), e.Params[0]))
		return events.Deny
	}

	// let core handle the rest of the checks
	return events.PassThrough
}

func (m *Module) onPostConnect(e *events.PostConnectEvent) {
	user := e.User
	if !user.Local {
		return
	}
	session := m.session(user)
	if session == nil {
		return
	}
	if _, marked := m.noCertSlot.Get(&user.Extensible); marked {
		return
	}

	cert := m.GetCertificate(user)

	var text strings.Builder
	text.WriteString("*** You are connected to ")
	if name := session.ServerName(); name != "" {
		text.WriteString(name)
	} else {
		text.WriteString(m.conf.Value("server").GetString("name", "emberd"))
	}
	text.WriteString(" using TLS cipher '")
	text.WriteString(session.Ciphersuite())
	text.WriteByte('\'')
	if cert != nil && cert.Fingerprint != "" {
		text.WriteString(" and your TLS client certificate fingerprint is ")
		text.WriteString(cert.Fingerprint)
	}
	e.Notice(text.String())

	if cert == nil {
		return
	}

	// find an auto-oper block for this user
	for _, block := range m.conf.Values("oper") {
		if matchFingerprint(cert, block.GetString("fingerprint", "")) && block.GetBool("autologin", false) {
			user.Oper(block.GetString("name", ""))
		}
	}
}

func (m *Module) onConnectClass(e *events.ConnectClassEvent) events.Outcome {
	cert := m.GetCertificate(e.User)
	var missing string
	requiressl := e.ClassConfig.GetString("requiressl", "")
	if strings.EqualFold(requiressl, "trusted") {
		if cert == nil || !cert.IsCAVerified() {
			missing = "a trusted TLS client certificate"
		}
	} else if e.ClassConfig.GetBool("requiressl", false) {
		if cert == nil {
			missing = "a TLS connection"
		}
	}

	if missing != "" {
		m.logger.Debugf("the %s connect class is not suitable as it requires %s", e.ClassName, missing)
		return events.Deny
	}
	return events.PassThrough
}

func (m *Module) onGatewayFlags(e *events.GatewayFlagsEvent) {
	// only connection flags matter here; nothing to do when the gateway
	// announced none
	if e.Flags == nil {
		return
	}

	// the tls connection flag is only meaningful when the hop between the
	// gateway and this server is itself secure
	if m.GetCertificate(e.User) == nil {
		return
	}

	if _, secure := e.Flags["secure"]; !secure {
		// the client-to-gateway hop is plaintext
		m.noCertSlot.Set(&e.User.Extensible, 1)
		m.certSlot.Clear(&e.User.Extensible)
		return
	}

	ref := extension.NewShared(&Certificate{
		Invalid:       true,
		Revoked:       true,
		UnknownSigner: true,
		Error:         "WebIRC users can not specify valid certs yet",
	}, nil)
	m.SetCertificate(e.User, ref)
	ref.Release()
}
