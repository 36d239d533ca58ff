package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/model"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/repository"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/errorx"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/testutil"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

func Test_userDomain_GetMe(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	userDomain := NewUserDomain(repository.NewUserRepository())

	resp, err := userDomain.GetMe(xcontext.WithRequestUserID(ctx, user.ID), &model.GetMeRequest{})
	require.NoError(t, err)
	require.Equal(t, user.ID, resp.User.ID)
	require.Equal(t, user.Name, resp.User.Name)
	require.Equal(t, user.WalletAddress, resp.User.WalletAddress)
}

func Test_userDomain_GetUser(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	userDomain := NewUserDomain(repository.NewUserRepository())

	resp, err := userDomain.GetUser(ctx, &model.GetUserRequest{UserID: user.ID})
	require.NoError(t, err)
	require.Equal(t, user.Name, resp.User.Name)

	_, err = userDomain.GetUser(ctx, &model.GetUserRequest{UserID: "unknown"})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.NotFound, "Not found user"), err)

	_, err = userDomain.GetUser(ctx, &model.GetUserRequest{})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.BadRequest, "Not allow an empty user id"), err)
}

func Test_userDomain_Update(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	_, err = testutil.SampleUser(ctx, &entity.User{Name: "taken-name"})
	require.NoError(t, err)

	userDomain := NewUserDomain(repository.NewUserRepository())
	userCtx := xcontext.WithRequestUserID(ctx, user.ID)

	type args struct {
		req *model.UpdateUserRequest
	}
	tests := []struct {
		name    string
		args    args
		wantErr error
	}{
		{
			name:    "empty name",
			args:    args{req: &model.UpdateUserRequest{}},
			wantErr: errorx.New(errorx.BadRequest, "Not allow an empty name"),
		},
		{
			name:    "too short name",
			args:    args{req: &model.UpdateUserRequest{Name: "abc"}},
			wantErr: errorx.New(errorx.BadRequest, "The name must be from 4 to 32 characters"),
		},
		{
			name:    "taken name",
			args:    args{req: &model.UpdateUserRequest{Name: "taken-name"}},
			wantErr: errorx.New(errorx.AlreadyExists, "This username is already taken"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := userDomain.Update(userCtx, tt.args.req)
			require.Error(t, err)
			require.Equal(t, tt.wantErr, err)
		})
	}

	resp, err := userDomain.Update(userCtx, &model.UpdateUserRequest{Name: "brand-new-name"})
	require.NoError(t, err)
	require.Equal(t, "brand-new-name", resp.User.Name)

	var result entity.User
	require.NoError(t, xcontext.DB(ctx).Take(&result, "id=?", user.ID).Error)
	require.Equal(t, "brand-new-name", result.Name)
}
