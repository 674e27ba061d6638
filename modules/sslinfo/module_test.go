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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberchat/emberd/config"
	"github.com/emberchat/emberd/entity"
	"github.com/emberchat/emberd/events"
	"github.com/emberchat/emberd/extension"
	"github.com/emberchat/emberd/log"
)

type fakeSession struct {
	cert       *Certificate
	cipher     string
	serverName string
}

func (s *fakeSession) Certificate() *Certificate { return s.cert }
func (s *fakeSession) Ciphersuite() string       { return s.cipher }
func (s *fakeSession) ServerName() string        { return s.serverName }

type fixture struct {
	registry   *extension.Registry
	dispatcher *events.Dispatcher
	module     *Module
	sessions   map[*entity.User]Session
}

func newFixture(t *testing.T, conf *config.Config) *fixture {
	t.Helper()
	f := &fixture{
		registry:   extension.NewRegistry(extension.WithLogger(log.DiscardLogger)),
		dispatcher: events.NewDispatcher(events.WithLogger(log.DiscardLogger)),
		sessions:   make(map[*entity.User]Session),
	}
	module, err := New(f.registry, f.dispatcher, conf,
		WithLogger(log.DiscardLogger),
		WithSessionLookup(func(user *entity.User) Session { return f.sessions[user] }))
	require.NoError(t, err)
	f.module = module
	return f
}

func trustedCert() *Certificate {
	return &Certificate{
		Trusted:     true,
		Fingerprint: "ab12",
		DN:          "/CN=sadie",
		Issuer:      "Example CA",
	}
}

func TestModule(t *testing.T) {
	t.Run("With activation registering both slots", func(t *testing.T) {
		f := newFixture(t, config.New())
		assert.Equal(t, 1, f.dispatcher.Listeners(events.Whois.Name()))
		assert.Equal(t, 1, f.dispatcher.Listeners(events.AuthAttempt.Name()))

		// a second module claiming the certificate slot must not activate
		_, err := extension.Register[string](f.registry, "ssl_cert", extension.KindUser, "impostor")
		assert.Error(t, err)
	})
	t.Run("With unload releasing live certificates", func(t *testing.T) {
		f := newFixture(t, config.New())
		user := entity.NewUser("sadie", "s", "example.org")

		finalized := 0
		ref := extension.NewShared(trustedCert(), func(*Certificate) { finalized++ })
		f.module.SetCertificate(user, ref)
		ref.Release()

		require.NoError(t, f.module.Unload())
		assert.Equal(t, 1, finalized)
		assert.Nil(t, f.module.GetCertificate(user))
		assert.Zero(t, f.dispatcher.Listeners(events.Whois.Name()))
	})
}

func TestGetCertificate(t *testing.T) {
	t.Run("With a certificate pulled from the TLS layer once", func(t *testing.T) {
		f := newFixture(t, config.New())
		user := entity.NewUser("sadie", "s", "example.org")
		f.sessions[user] = &fakeSession{cert: trustedCert(), cipher: "TLS_AES_256_GCM_SHA384"}

		cert := f.module.GetCertificate(user)
		require.NotNil(t, cert)
		assert.Equal(t, "ab12", cert.Fingerprint)

		// now attached; the TLS layer is not needed anymore
		delete(f.sessions, user)
		assert.Same(t, cert, f.module.GetCertificate(user))
	})
	t.Run("With a plaintext user", func(t *testing.T) {
		f := newFixture(t, config.New())
		user := entity.NewUser("sadie", "s", "example.org")
		assert.Nil(t, f.module.GetCertificate(user))
	})
	t.Run("With a remote user never queried locally", func(t *testing.T) {
		f := newFixture(t, config.New())
		user := entity.NewUser("sadie", "s", "example.org")
		user.Local = false
		f.sessions[user] = &fakeSession{cert: trustedCert()}
		assert.Nil(t, f.module.GetCertificate(user))
	})
}

func TestReplication(t *testing.T) {
	t.Run("With certificate metadata round tripping between users", func(t *testing.T) {
		f := newFixture(t, config.New())
		user := entity.NewUser("sadie", "s", "example.org")
		ref := extension.NewShared(trustedCert(), nil)
		f.module.SetCertificate(user, ref)
		ref.Release()

		items := f.registry.CollectMetadata(&user.Extensible)
		require.Len(t, items, 1)
		assert.Equal(t, "ssl_cert", items[0].Name)
		assert.Equal(t, "T ab12 /CN=sadie Example CA", items[0].Value)

		remote := entity.NewUser("sadie", "s", "example.org")
		remote.Local = false
		f.registry.ApplyMetadata(&remote.Extensible, items...)

		cert := f.module.GetCertificate(remote)
		require.NotNil(t, cert)
		assert.True(t, cert.Trusted)
		assert.Equal(t, "ab12", cert.Fingerprint)
	})
	t.Run("With garbled metadata degrading to an invalid certificate", func(t *testing.T) {
		f := newFixture(t, config.New())
		remote := entity.NewUser("sadie", "s", "example.org")
		remote.Local = false

		f.registry.ApplyMetadata(&remote.Extensible, extension.Metadata{Name: "ssl_cert", Value: "T"})
		cert := f.module.GetCertificate(remote)
		require.NotNil(t, cert)
		assert.True(t, cert.Invalid)
	})
}

func TestWhoisDecoration(t *testing.T) {
	conf := func(operonly bool) *config.Config {
		c := config.New()
		if operonly {
			c.Add(config.NewTag("sslinfo", "test", 1).Add("operonly", "yes"))
		}
		return c
	}
	t.Run("With a secure target", func(t *testing.T) {
		f := newFixture(t, conf(false))
		source := entity.NewUser("observer", "o", "example.org")
		target := entity.NewUser("sadie", "s", "example.org")
		f.sessions[target] = &fakeSession{cert: trustedCert()}

		payload := &events.WhoisEvent{Source: source, Target: target}
		events.Dispatch(f.dispatcher, events.Whois, payload)

		require.Len(t, payload.Lines, 2)
		assert.Equal(t, RPLWhoisSecure, payload.Lines[0].Numeric)
		assert.Equal(t, "is using a secure connection", payload.Lines[0].Text)
		assert.Equal(t, RPLWhoisCertFP, payload.Lines[1].Numeric)
		assert.Contains(t, payload.Lines[1].Text, "ab12")
	})
	t.Run("With operonly hiding the fingerprint from others", func(t *testing.T) {
		f := newFixture(t, conf(true))
		source := entity.NewUser("observer", "o", "example.org")
		target := entity.NewUser("sadie", "s", "example.org")
		f.sessions[target] = &fakeSession{cert: trustedCert()}

		payload := &events.WhoisEvent{Source: source, Target: target}
		events.Dispatch(f.dispatcher, events.Whois, payload)
		require.Len(t, payload.Lines, 1)

		// a self whois still sees it
		self := &events.WhoisEvent{Source: target, Target: target}
		events.Dispatch(f.dispatcher, events.Whois, self)
		require.Len(t, self.Lines, 2)

		// and so does an oper
		source.Oper("netadmin")
		oper := &events.WhoisEvent{Source: source, Target: target}
		events.Dispatch(f.dispatcher, events.Whois, oper)
		require.Len(t, oper.Lines, 2)
	})
	t.Run("With a plaintext target", func(t *testing.T) {
		f := newFixture(t, conf(false))
		payload := &events.WhoisEvent{
			Source: entity.NewUser("observer", "o", "example.org"),
			Target: entity.NewUser("sadie", "s", "example.org"),
		}
		events.Dispatch(f.dispatcher, events.Whois, payload)
		assert.Empty(t, payload.Lines)
	})
}

func TestWhoLineFlag(t *testing.T) {
	t.Run("With the flags field gaining the secure marker", func(t *testing.T) {
		f := newFixture(t, config.New())
		target := entity.NewUser("sadie", "s", "example.org")
		f.sessions[target] = &fakeSession{cert: trustedCert()}

		payload := &events.WhoLineEvent{
			Source: entity.NewUser("observer", "o", "example.org"),
			Target: target,
			Fields: "nf",
			Params: []string{"sadie", "H"},
		}
		outcome := events.Dispatch(f.dispatcher, events.WhoLine, payload)
		assert.Equal(t, events.PassThrough, outcome)
		assert.Equal(t, "Hs", payload.Params[1])
	})
	t.Run("With no flags field requested", func(t *testing.T) {
		f := newFixture(t, config.New())
		target := entity.NewUser("sadie", "s", "example.org")
		f.sessions[target] = &fakeSession{cert: trustedCert()}

		payload := &events.WhoLineEvent{
			Source: entity.NewUser("observer", "o", "example.org"),
			Target: target,
			Fields: "n",
			Params: []string{"sadie"},
		}
		events.Dispatch(f.dispatcher, events.WhoLine, payload)
		assert.Equal(t, []string{"sadie"}, payload.Params)
	})
}

func TestOperGate(t *testing.T) {
	operConf := func() *config.Config {
		return config.New().
			Add(config.NewTag("oper", "test", 1).
				Add("name", "secureadmin").
				Add("sslonly", "yes")).
			Add(config.NewTag("oper", "test", 5).
				Add("name", "pinned").
				Add("fingerprint", "ab12 cd34"))
	}
	t.Run("With sslonly denying a plaintext login", func(t *testing.T) {
		f := newFixture(t, operConf())
		user := entity.NewUser("sadie", "s", "example.org")

		payload := &events.AuthAttemptEvent{
			User:      user,
			Command:   "OPER",
			Params:    []string{"secureadmin", "password"},
			Validated: true,
		}
		outcome := events.Dispatch(f.dispatcher, events.AuthAttempt, payload)
		assert.Equal(t, events.Deny, outcome)
		assert.Equal(t, []string{"Invalid oper credentials"}, payload.Notices)
		assert.Equal(t, 10000, payload.FloodPenalty)
		require.Len(t, payload.OperAlerts, 1)
		assert.Contains(t, payload.OperAlerts[0], "a secure connection is required")
	})
	t.Run("With a matching fingerprint passing through", func(t *testing.T) {
		f := newFixture(t, operConf())
		user := entity.NewUser("sadie", "s", "example.org")
		f.sessions[user] = &fakeSession{cert: trustedCert()}

		payload := &events.AuthAttemptEvent{
			User:      user,
			Command:   "OPER",
			Params:    []string{"pinned", "password"},
			Validated: true,
		}
		outcome := events.Dispatch(f.dispatcher, events.AuthAttempt, payload)
		assert.Equal(t, events.PassThrough, outcome)
		assert.Empty(t, payload.Notices)
	})
	t.Run("With a mismatched fingerprint denied", func(t *testing.T) {
		f := newFixture(t, operConf())
		user := entity.NewUser("sadie", "s", "example.org")
		cert := trustedCert()
		cert.Fingerprint = "badbeef"
		f.sessions[user] = &fakeSession{cert: cert}

		payload := &events.AuthAttemptEvent{
			User:      user,
			Command:   "OPER",
			Params:    []string{"pinned", "password"},
			Validated: true,
		}
		outcome := events.Dispatch(f.dispatcher, events.AuthAttempt, payload)
		assert.Equal(t, events.Deny, outcome)
		require.Len(t, payload.OperAlerts, 1)
		assert.Contains(t, payload.OperAlerts[0], "fingerprint does not match")
	})
	t.Run("With unrelated commands ignored", func(t *testing.T) {
		f := newFixture(t, operConf())
		payload := &events.AuthAttemptEvent{
			User:      entity.NewUser("sadie", "s", "example.org"),
			Command:   "NICK",
			Params:    []string{"sadie2"},
			Validated: true,
		}
		assert.Equal(t, events.PassThrough, events.Dispatch(f.dispatcher, events.AuthAttempt, payload))
	})
	t.Run("With an unvalidated command ignored", func(t *testing.T) {
		f := newFixture(t, operConf())
		payload := &events.AuthAttemptEvent{
			User:    entity.NewUser("sadie", "s", "example.org"),
			Command: "OPER",
			Params:  []string{"secureadmin", "password"},
		}
		assert.Equal(t, events.PassThrough, events.Dispatch(f.dispatcher, events.AuthAttempt, payload))
	})
}

func TestPostConnect(t *testing.T) {
	conf := func() *config.Config {
		return config.New().
			Add(config.NewTag("server", "test", 1).Add("name", "irc.example.org")).
			Add(config.NewTag("oper", "test", 3).
				Add("name", "autoadmin").
				Add("fingerprint", "ab12").
				Add("autologin", "yes"))
	}
	t.Run("With the connection notice and auto oper", func(t *testing.T) {
		f := newFixture(t, conf())
		user := entity.NewUser("sadie", "s", "example.org")
		f.sessions[user] = &fakeSession{cert: trustedCert(), cipher: "TLS_AES_256_GCM_SHA384"}

		payload := &events.PostConnectEvent{User: user}
		events.Dispatch(f.dispatcher, events.PostConnect, payload)

		require.Len(t, payload.Notices, 1)
		assert.Equal(t, "*** You are connected to irc.example.org using TLS cipher 'TLS_AES_256_GCM_SHA384' and your TLS client certificate fingerprint is ab12", payload.Notices[0])
		assert.True(t, user.IsOper())
		assert.Equal(t, "autoadmin", user.OperName())
	})
	t.Run("With the SNI name preferred", func(t *testing.T) {
		f := newFixture(t, conf())
		user := entity.NewUser("sadie", "s", "example.org")
		f.sessions[user] = &fakeSession{cipher: "TLS_AES_128_GCM_SHA256", serverName: "irc.alias.example"}

		payload := &events.PostConnectEvent{User: user}
		events.Dispatch(f.dispatcher, events.PostConnect, payload)

		require.Len(t, payload.Notices, 1)
		assert.Equal(t, "*** You are connected to irc.alias.example using TLS cipher 'TLS_AES_128_GCM_SHA256'", payload.Notices[0])
		assert.False(t, user.IsOper())
	})
	t.Run("With a plaintext connection silent", func(t *testing.T) {
		f := newFixture(t, conf())
		payload := &events.PostConnectEvent{User: entity.NewUser("sadie", "s", "example.org")}
		events.Dispatch(f.dispatcher, events.PostConnect, payload)
		assert.Empty(t, payload.Notices)
	})
}

func TestConnectClassSelection(t *testing.T) {
	t.Run("With a trusted certificate required and absent", func(t *testing.T) {
		f := newFixture(t, config.New())
		payload := &events.ConnectClassEvent{
			User:        entity.NewUser("sadie", "s", "example.org"),
			ClassName:   "secure",
			ClassConfig: config.NewTag("connect", "test", 1).Add("requiressl", "trusted"),
		}
		assert.Equal(t, events.Deny, events.Dispatch(f.dispatcher, events.ConnectClass, payload))
	})
	t.Run("With a trusted certificate required and present", func(t *testing.T) {
		f := newFixture(t, config.New())
		user := entity.NewUser("sadie", "s", "example.org")
		f.sessions[user] = &fakeSession{cert: trustedCert()}
		payload := &events.ConnectClassEvent{
			User:        user,
			ClassName:   "secure",
			ClassConfig: config.NewTag("connect", "test", 1).Add("requiressl", "trusted"),
		}
		assert.Equal(t, events.PassThrough, events.Dispatch(f.dispatcher, events.ConnectClass, payload))
	})
	t.Run("With an untrusted certificate where trust is required", func(t *testing.T) {
		f := newFixture(t, config.New())
		user := entity.NewUser("sadie", "s", "example.org")
		cert := trustedCert()
		cert.UnknownSigner = true
		f.sessions[user] = &fakeSession{cert: cert}
		payload := &events.ConnectClassEvent{
			User:        user,
			ClassName:   "secure",
			ClassConfig: config.NewTag("connect", "test", 1).Add("requiressl", "trusted"),
		}
		assert.Equal(t, events.Deny, events.Dispatch(f.dispatcher, events.ConnectClass, payload))
	})
	t.Run("With any TLS connection required", func(t *testing.T) {
		f := newFixture(t, config.New())
		tag := config.NewTag("connect", "test", 1).Add("requiressl", "yes")

		plain := &events.ConnectClassEvent{
			User:        entity.NewUser("sadie", "s", "example.org"),
			ClassName:   "tlsonly",
			ClassConfig: tag,
		}
		assert.Equal(t, events.Deny, events.Dispatch(f.dispatcher, events.ConnectClass, plain))

		user := entity.NewUser("attila", "a", "example.org")
		f.sessions[user] = &fakeSession{cert: trustedCert()}
		secured := &events.ConnectClassEvent{User: user, ClassName: "tlsonly", ClassConfig: tag}
		assert.Equal(t, events.PassThrough, events.Dispatch(f.dispatcher, events.ConnectClass, secured))
	})
	t.Run("With no requirement", func(t *testing.T) {
		f := newFixture(t, config.New())
		payload := &events.ConnectClassEvent{
			User:        entity.NewUser("sadie", "s", "example.org"),
			ClassName:   "default",
			ClassConfig: config.NewTag("connect", "test", 1),
		}
		assert.Equal(t, events.PassThrough, events.Dispatch(f.dispatcher, events.ConnectClass, payload))
	})
}

func TestGatewayFlags(t *testing.T) {
	t.Run("With no flags announced", func(t *testing.T) {
		f := newFixture(t, config.New())
		user := entity.NewUser("sadie", "gateway", "example.org")
		f.sessions[user] = &fakeSession{cert: trustedCert()}

		events.Dispatch(f.dispatcher, events.GatewayFlags, &events.GatewayFlagsEvent{User: user})
		assert.NotNil(t, f.module.GetCertificate(user))
	})
	t.Run("With an insecure client hop clearing the certificate", func(t *testing.T) {
		f := newFixture(t, config.New())
		user := entity.NewUser("sadie", "gateway", "example.org")
		f.sessions[user] = &fakeSession{cert: trustedCert()}

		events.Dispatch(f.dispatcher, events.GatewayFlags, &events.GatewayFlagsEvent{
			User:  user,
			Flags: map[string]string{"ip": "198.51.100.7"},
		})
		assert.Nil(t, f.module.GetCertificate(user))
	})
	t.Run("With a secure client hop attaching the placeholder certificate", func(t *testing.T) {
		f := newFixture(t, config.New())
		user := entity.NewUser("sadie", "gateway", "example.org")
		f.sessions[user] = &fakeSession{cert: trustedCert()}

		events.Dispatch(f.dispatcher, events.GatewayFlags, &events.GatewayFlagsEvent{
			User:  user,
			Flags: map[string]string{"secure": ""},
		})
		cert := f.module.GetCertificate(user)
		require.NotNil(t, cert)
		assert.True(t, cert.Invalid)
		assert.True(t, cert.Revoked)
		assert.True(t, cert.UnknownSigner)
		assert.NotEmpty(t, cert.Error)
	})
	t.Run("With a plaintext gateway hop ignored", func(t *testing.T) {
		f := newFixture(t, config.New())
		user := entity.NewUser("sadie", "gateway", "example.org")

		events.Dispatch(f.dispatcher, events.GatewayFlags, &events.GatewayFlagsEvent{
			User:  user,
			Flags: map[string]string{"secure": ""},
		})
		assert.Nil(t, f.module.GetCertificate(user))
	})
}

func TestSSLInfoCommand(t *testing.T) {
	t.Run("With a valid certificate", func(t *testing.T) {
		f := newFixture(t, config.New())
		source := entity.NewUser("observer", "o", "example.org")
		target := entity.NewUser("sadie", "s", "example.org")
		f.sessions[target] = &fakeSession{cert: trustedCert()}

		lines, ok := f.module.SSLInfo(source, target)
		require.True(t, ok)
		require.Len(t, lines, 3)
		assert.Equal(t, "*** Distinguished Name: /CN=sadie", lines[0])
		assert.Equal(t, "*** Issuer:             Example CA", lines[1])
		assert.Equal(t, "*** Key Fingerprint:    ab12", lines[2])
	})
	t.Run("With a plaintext target", func(t *testing.T) {
		f := newFixture(t, config.New())
		source := entity.NewUser("observer", "o", "example.org")
		target := entity.NewUser("sadie", "s", "example.org")

		lines, ok := f.module.SSLInfo(source, target)
		require.True(t, ok)
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "not connected using TLS")
	})
	t.Run("With an invalid certificate", func(t *testing.T) {
		f := newFixture(t, config.New())
		source := entity.NewUser("observer", "o", "example.org")
		target := entity.NewUser("sadie", "s", "example.org")
		f.sessions[target] = &fakeSession{cert: &Certificate{Invalid: true, Error: "self signed certificate"}}

		lines, ok := f.module.SSLInfo(source, target)
		require.True(t, ok)
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "self signed certificate")
	})
	t.Run("With operonly restricting lookups of others", func(t *testing.T) {
		conf := config.New().Add(config.NewTag("sslinfo", "test", 1).Add("operonly", "yes"))
		f := newFixture(t, conf)
		source := entity.NewUser("observer", "o", "example.org")
		target := entity.NewUser("sadie", "s", "example.org")

		lines, ok := f.module.SSLInfo(source, target)
		assert.False(t, ok)
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "cannot view")

		// self lookup still allowed
		_, ok = f.module.SSLInfo(source, source)
		assert.True(t, ok)

		// opers see everything
		source.Oper("netadmin")
		_, ok = f.module.SSLInfo(source, target)
		assert.True(t, ok)
	})
}
