package casbin_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/nasermirzaei89/mypet/authorization"
	"github.com/nasermirzaei89/mypet/authorization/casbin"
	"github.com/stretchr/testify/require"
)

func newFileProvider(t *testing.T) *casbin.AuthorizationProvider {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), "policy.csv")

	err := os.WriteFile(tmpFile, nil, 0o600)
	require.NoError(t, err)

	provider, err := casbin.NewAuthorizationProvider(fileadapter.NewAdapter(tmpFile))
	require.NoError(t, err)

	return provider
}

func TestNewAuthorizationProvider_NilAdapter(t *testing.T) {
	t.Parallel()

	_, err := casbin.NewAuthorizationProvider(nil)
	require.Error(t, err)
}

func TestAuthorizationProvider_AddPolicyFromCSV(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	provider := newFileProvider(t)

	err := provider.AddPolicyFromCSV(ctx, `
# guests
g, system:anonymous, system:unauthenticated

p, system:unauthenticated, blog, *, list
  p ,  editors , blog , * , write
`)
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     authorization.CheckAccessRequest
		allowed bool
	}{
		{
			name:    "grouped subject inherits policy",
			req:     authorization.CheckAccessRequest{Subject: "system:anonymous", Domain: "blog", Object: "post-1", Action: "list"},
			allowed: true,
		},
		{
			name:    "empty object matches wildcard",
			req:     authorization.CheckAccessRequest{Subject: "system:anonymous", Domain: "blog", Action: "list"},
			allowed: true,
		},
		{
			name:    "padded fields are trimmed",
			req:     authorization.CheckAccessRequest{Subject: "editors", Domain: "blog", Object: "post-1", Action: "write"},
			allowed: true,
		},
		{
			name:    "other domain is denied",
			req:     authorization.CheckAccessRequest{Subject: "system:anonymous", Domain: "shop", Object: "post-1", Action: "list"},
			allowed: false,
		},
		{
			name:    "other action is denied",
			req:     authorization.CheckAccessRequest{Subject: "system:anonymous", Domain: "blog", Object: "post-1", Action: "write"},
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := provider.CheckAccess(ctx, tt.req)
			require.NoError(t, err)
			require.Equal(t, tt.allowed, res.Allowed)
		})
	}

	t.Run("loading the same policy twice is a no-op", func(t *testing.T) {
		err := provider.AddPolicyFromCSV(ctx, "p, editors, blog, *, write")
		require.NoError(t, err)
	})
}

func TestAuthorizationProvider_AddPolicyFromCSV_UnknownType(t *testing.T) {
	t.Parallel()

	provider := newFileProvider(t)

	err := provider.AddPolicyFromCSV(context.Background(), "x, alice, blog, *, list")
	require.Error(t, err)

	unknownPolicyTypeErr := &casbin.UnknownPolicyTypeError{}
	require.ErrorAs(t, err, &unknownPolicyTypeErr)
	require.Equal(t, "x", unknownPolicyTypeErr.PolicyType)
}
