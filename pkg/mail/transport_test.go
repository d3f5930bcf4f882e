package mail

import (
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settings(s MailSettings) SettingsProvider {
	return SettingsFunc(func() MailSettings { return s })
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		settings     MailSettings
		enabled      bool
		port         string
		tlsPort      string
		implicitTLS  bool
		authRequired bool
	}{
		{
			name:     "plain relay without auth",
			settings: MailSettings{Host: "smtp.example.com", ReplyTo: "ops@example.com"},
			enabled:  true,
			port:     "25",
		},
		{
			name:     "explicit port",
			settings: MailSettings{Host: "smtp.example.com", Port: "587", ReplyTo: "ops@example.com"},
			enabled:  true,
			port:     "587",
		},
		{
			name:        "ssl without port",
			settings:    MailSettings{Host: "smtp.example.com", UseSSL: true, ReplyTo: "ops@example.com"},
			enabled:     true,
			port:        "465",
			tlsPort:     "465",
			implicitTLS: true,
		},
		{
			name:        "ssl with explicit port",
			settings:    MailSettings{Host: "smtp.example.com", Port: "2465", UseSSL: true, ReplyTo: "ops@example.com"},
			enabled:     true,
			port:        "2465",
			tlsPort:     "2465",
			implicitTLS: true,
		},
		{
			name:         "authenticated",
			settings:     MailSettings{Host: "smtp.example.com", AuthUser: "mailer", AuthPassword: "s3cret", ReplyTo: "ops@example.com"},
			enabled:      true,
			port:         "25",
			authRequired: true,
		},
		{
			name:     "missing host",
			settings: MailSettings{ReplyTo: "ops@example.com", Port: "25"},
		},
		{
			name:     "missing reply-to",
			settings: MailSettings{Host: "smtp.example.com"},
		},
		{
			name: "nothing configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := Resolve(settings(tt.settings))

			assert.Equal(t, tt.enabled, tc.Enabled())
			assert.Equal(t, tt.settings.Host, tc.Host())
			assert.Equal(t, tt.settings.Port, tc.Port(), "configured port is kept verbatim")
			assert.Equal(t, tt.settings.ReplyTo, tc.ReplyTo())
			assert.Equal(t, tt.settings.UseSSL, tc.UseSSL())
			assert.Equal(t, tt.settings.AuthUser, tc.AuthUser())

			if !tt.enabled {
				assert.Nil(t, tc.Session(), "no session without mail configuration")
				return
			}

			s := tc.Session()
			require.NotNil(t, s)
			assert.Equal(t, tt.settings.Host, s.Host)
			assert.Equal(t, tt.port, s.Port)
			assert.Equal(t, tt.tlsPort, s.TLSPort)
			assert.Equal(t, tt.implicitTLS, s.ImplicitTLS)
			assert.False(t, s.TLSFallback)
			assert.Equal(t, tt.authRequired, s.AuthRequired)
			assert.Equal(t, 60*time.Second, s.ConnectTimeout)
			assert.Equal(t, 60*time.Second, s.ReadTimeout)
			if tt.authRequired {
				require.NotNil(t, s.Authenticator)
			} else {
				assert.Nil(t, s.Authenticator)
			}
		})
	}
}

func TestResolveReadsProviderOnce(t *testing.T) {
	calls := 0
	provider := SettingsFunc(func() MailSettings {
		calls++
		return MailSettings{Host: "smtp.example.com", ReplyTo: "ops@example.com"}
	})

	tc := Resolve(provider)
	_ = tc.Enabled()
	_ = tc.Session()

	assert.Equal(t, 1, calls)
}

func TestResolveBuildsFreshSession(t *testing.T) {
	current := MailSettings{Host: "smtp.example.com", ReplyTo: "ops@example.com"}
	provider := SettingsFunc(func() MailSettings { return current })

	first := Resolve(provider)
	current.Port = "2525"
	second := Resolve(provider)

	assert.NotSame(t, first.Session(), second.Session())
	assert.Equal(t, "25", first.Session().Port, "an existing session is never changed by a later resolve")
	assert.Equal(t, "2525", second.Session().Port)
}

func TestAuthenticator(t *testing.T) {
	assert.Nil(t, NewAuthenticator("", "ignored"))

	a := NewAuthenticator("mailer", "s3cret")
	require.NotNil(t, a)
	for i := 0; i < 3; i++ {
		user, password := a.Credentials()
		assert.Equal(t, "mailer", user)
		assert.Equal(t, "s3cret", password)
	}
}

func TestResolveTLSSettings(t *testing.T) {
	pool := x509.NewCertPool()

	t.Run("custom roots", func(t *testing.T) {
		tc := Resolve(settings(MailSettings{Host: "smtp.example.com", ReplyTo: "ops@example.com", RootCAs: pool}))
		s := tc.Session()
		require.NotNil(t, s.TLSConfig)
		assert.Same(t, pool, s.TLSConfig.RootCAs)
		assert.Equal(t, "smtp.example.com", s.TLSConfig.ServerName)
		assert.False(t, s.TLSConfig.InsecureSkipVerify)
		assert.False(t, tc.Info().InsecureSkipVerify)
	})

	t.Run("insecure", func(t *testing.T) {
		tc := Resolve(settings(MailSettings{Host: "smtp.example.com", ReplyTo: "ops@example.com", InsecureSkipVerify: true}))
		require.NotNil(t, tc.Session().TLSConfig)
		assert.True(t, tc.Session().TLSConfig.InsecureSkipVerify)
		assert.True(t, tc.Info().InsecureSkipVerify)
	})

	t.Run("system roots", func(t *testing.T) {
		s := Resolve(settings(MailSettings{Host: "smtp.example.com", ReplyTo: "ops@example.com"})).Session()
		assert.Nil(t, s.TLSConfig)
		assert.Equal(t, "smtp.example.com", s.tlsConfig().ServerName)
	})
}

func TestNilTransportConfig(t *testing.T) {
	var tc *TransportConfig
	assert.False(t, tc.Enabled())
	assert.Nil(t, tc.Session())
}

func TestTransportConfigInfo(t *testing.T) {
	t.Run("ssl default port", func(t *testing.T) {
		tc := Resolve(settings(MailSettings{
			Host:         "smtp.example.com",
			AuthUser:     "mailer",
			AuthPassword: "s3cret",
			UseSSL:       true,
			ReplyTo:      "ops@example.com",
		}))

		assert.Equal(t, TransportInfo{
			Enabled:     true,
			Host:        "smtp.example.com",
			Port:        DefaultSSLPort,
			SSL:         true,
			AuthUser:    "mailer",
			PasswordSet: true,
			ReplyTo:     "ops@example.com",
		}, tc.Info())
	})

	t.Run("disabled keeps configured port", func(t *testing.T) {
		tc := Resolve(settings(MailSettings{Host: "smtp.example.com", Port: "2525"}))
		info := tc.Info()
		assert.False(t, info.Enabled)
		assert.Equal(t, "2525", info.Port)
		assert.False(t, info.PasswordSet)
	})

	t.Run("nil", func(t *testing.T) {
		var tc *TransportConfig
		assert.Equal(t, TransportInfo{}, tc.Info())
	})
}
