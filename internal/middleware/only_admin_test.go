package middleware

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/repository"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/errorx"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/testutil"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

func Test_OnlyAdmin_Middleware(t *testing.T) {
	ctx := testutil.MockContext()

	admin, err := testutil.SampleUser(ctx, &entity.User{Role: entity.AdminRole})
	require.NoError(t, err)

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	onlyAdmin := NewOnlyAdmin(repository.NewUserRepository())

	_, err = onlyAdmin.Middleware()(xcontext.WithRequestUserID(ctx, admin.ID))
	require.NoError(t, err)

	_, err = onlyAdmin.Middleware()(xcontext.WithRequestUserID(ctx, user.ID))
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.PermissionDenied, "Permission denied"), err)

	// Without an authenticated user there is nothing to verify.
	_, err = onlyAdmin.Middleware()(ctx)
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.PermissionDenied, "Permission denied"), err)
}
