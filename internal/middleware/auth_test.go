package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/model"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/errorx"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/testutil"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

func Test_AuthVerifier_BearerHeader(t *testing.T) {
	ctx := testutil.MockContext()

	token, err := xcontext.TokenEngine(ctx).Generate(
		xcontext.Configs(ctx).Auth.AccessToken.Expiration,
		model.AccessToken{ID: "user-id", Name: "user-name"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/getMe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	ctx = xcontext.WithHTTPRequest(ctx, req)

	newCtx, err := NewAuthVerifier().WithAccessToken().Middleware()(ctx)
	require.NoError(t, err)
	require.Equal(t, "user-id", xcontext.RequestUserID(newCtx))
}

func Test_AuthVerifier_Cookie(t *testing.T) {
	ctx := testutil.MockContext()

	token, err := xcontext.TokenEngine(ctx).Generate(
		xcontext.Configs(ctx).Auth.AccessToken.Expiration,
		model.AccessToken{ID: "user-id"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/getMe", nil)
	req.AddCookie(&http.Cookie{
		Name:  xcontext.Configs(ctx).Auth.AccessToken.Name,
		Value: token,
	})
	ctx = xcontext.WithHTTPRequest(ctx, req)

	newCtx, err := NewAuthVerifier().WithAccessToken().Middleware()(ctx)
	require.NoError(t, err)
	require.Equal(t, "user-id", xcontext.RequestUserID(newCtx))
}

func Test_AuthVerifier_Failed(t *testing.T) {
	ctx := testutil.MockContext()

	t.Run("no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/getMe", nil)
		reqCtx := xcontext.WithHTTPRequest(ctx, req)

		_, err := NewAuthVerifier().WithAccessToken().Middleware()(reqCtx)
		require.Error(t, err)
		require.Equal(t, errorx.New(errorx.Unauthenticated, "You need to authenticate before"), err)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/getMe", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		reqCtx := xcontext.WithHTTPRequest(ctx, req)

		_, err := NewAuthVerifier().WithAccessToken().Middleware()(reqCtx)
		require.Error(t, err)
		require.Equal(t, errorx.New(errorx.TokenExpired, "Invalid or expired token"), err)
	})
}
