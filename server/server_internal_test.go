package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainsToHTTPSAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		domains  []string
		expected string
	}{
		{
			name:     "single domain",
			domains:  []string{"example.com"},
			expected: "https://example.com",
		},
		{
			name:     "multiple domains",
			domains:  []string{"example.com", "www.example.com"},
			expected: "https://example.com, https://www.example.com",
		},
		{
			name:     "no domains",
			domains:  []string{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := domainsToHTTPSAddress(tt.domains)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestServer_Address(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ":8080", (&Server{}).address())
	assert.Equal(t, "127.0.0.1:9000", (&Server{Host: "127.0.0.1", Port: "9000"}).address())
}

func TestServer_UnknownTLSMode(t *testing.T) {
	t.Parallel()

	s := &Server{TLS: ServerTLS{Enabled: true, Mode: "bogus"}}

	err := s.Run(t.Context(), http.NotFoundHandler())
	require.Error(t, err)

	unknownTLSModeErr := &UnknownTLSModeError{}
	require.ErrorAs(t, err, &unknownTLSModeErr)
	assert.Equal(t, "bogus", unknownTLSModeErr.Mode)
}

func TestServer_AutoCertWithoutDomains(t *testing.T) {
	t.Parallel()

	s := &Server{TLS: ServerTLS{Enabled: true, Mode: TLSModeAutoCert, AutoCert: &ServerTLSAutoCert{}}}

	err := s.Run(t.Context(), http.NotFoundHandler())
	require.Error(t, err)
}

func TestServer_RunShutdown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())

	s := &Server{Host: "127.0.0.1", Port: "0"}

	done := make(chan error, 1)

	go func() {
		done <- s.Run(ctx, http.NotFoundHandler())
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
