package domain

import (
	"context"
	"errors"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/common"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/model"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/repository"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/authenticator"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/crypto"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/errorx"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/siwe"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xredis"
)

type AuthDomain interface {
	WalletLogin(context.Context, *model.WalletLoginRequest) (*model.WalletLoginResponse, error)
	WalletVerify(context.Context, *model.WalletVerifyRequest) (*model.WalletVerifyResponse, error)
	Refresh(context.Context, *model.RefreshTokenRequest) (*model.RefreshTokenResponse, error)
}

type authDomain struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository

	redisClient        xredis.Client
	refreshTokenEngine authenticator.TokenEngine[model.RefreshToken]
}

func NewAuthDomain(
	ctx context.Context,
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	redisClient xredis.Client,
) AuthDomain {
	return &authDomain{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		redisClient:      redisClient,
		refreshTokenEngine: authenticator.NewTokenEngine[model.RefreshToken](
			xcontext.Configs(ctx).Auth.TokenSecret),
	}
}

func (d *authDomain) WalletLogin(
	ctx context.Context, req *model.WalletLoginRequest,
) (*model.WalletLoginResponse, error) {
	if !ethcommon.IsHexAddress(req.Address) {
		return nil, errorx.New(errorx.BadRequest, "Invalid wallet address")
	}

	nonce, err := crypto.GenerateRandomString()
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate random string: %v", err)
		return nil, errorx.Unknown
	}

	address := ethcommon.HexToAddress(req.Address).Hex()
	siweCfg := xcontext.Configs(ctx).Auth.SIWE

	if d.redisClient != nil {
		err := d.redisClient.Set(ctx,
			common.RedisKeySIWENonce(nonce), address, siweCfg.NonceExpiration)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot store nonce: %v", err)
			return nil, errorx.Unknown
		}
	}

	now := time.Now()
	msg := siwe.Message{
		Domain:         siweCfg.Domain,
		Address:        address,
		Statement:      "Sign in to create and complete quests",
		URI:            "https://" + siweCfg.Domain,
		Version:        "1",
		ChainID:        siweCfg.ChainID,
		Nonce:          nonce,
		IssuedAt:       now,
		ExpirationTime: now.Add(siweCfg.MessageTimeout),
	}

	return &model.WalletLoginResponse{
		Message: msg.String(),
		Nonce:   nonce,
		Address: address,
	}, nil
}

func (d *authDomain) WalletVerify(
	ctx context.Context, req *model.WalletVerifyRequest,
) (*model.WalletVerifyResponse, error) {
	msg, err := siwe.Verify(req.Message, req.Signature)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot verify signed message: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid message or signature")
	}

	siweCfg := xcontext.Configs(ctx).Auth.SIWE
	if err := msg.Validate(siweCfg.Domain, time.Now(), siweCfg.MessageTimeout); err != nil {
		xcontext.Logger(ctx).Debugf("Invalid signed message: %v", err)
		return nil, errorx.New(errorx.BadRequest, "The signed message is not acceptable")
	}

	if err := d.verifyNonce(ctx, msg, req.SessionNonce, req.SessionAddress); err != nil {
		return nil, err
	}

	address := ethcommon.HexToAddress(msg.Address).Hex()
	user, err := d.userRepo.GetByWalletAddress(ctx, address)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get user by wallet address: %v", err)
			return nil, errorx.Unknown
		}

		user = &entity.User{
			Base:          entity.Base{ID: uuid.NewString()},
			WalletAddress: address,
			Name:          address,
			Role:          entity.UserRole,
		}

		if err := d.userRepo.Create(ctx, user); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create user: %v", err)
			return nil, errorx.Unknown
		}
	}

	refreshToken, err := d.generateRefreshToken(ctx, user.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate refresh token: %v", err)
		return nil, errorx.Unknown
	}

	accessToken, err := xcontext.TokenEngine(ctx).Generate(
		xcontext.Configs(ctx).Auth.AccessToken.Expiration,
		model.AccessToken{
			ID:      user.ID,
			Name:    user.Name,
			Address: user.WalletAddress,
		})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate access token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.WalletVerifyResponse{
		User:         model.ConvertUser(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (d *authDomain) Refresh(
	ctx context.Context, req *model.RefreshTokenRequest,
) (*model.RefreshTokenResponse, error) {
	// Verify the refresh token from client.
	refreshToken, err := d.refreshTokenEngine.Verify(req.RefreshToken)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Failed to verify refresh token: %v", err)
		return nil, errorx.New(errorx.TokenExpired, "Your refresh token is invalid or expired")
	}

	// Load the storage refresh token from database.
	hashedFamily := crypto.SHA256([]byte(refreshToken.Family))
	storageToken, err := d.refreshTokenRepo.Get(ctx, hashedFamily)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get refresh token family: %v", err)
		return nil, errorx.Unknown
	}

	// Check the expiration of storage refresh token.
	if storageToken.Expiration.Before(time.Now()) {
		return nil, errorx.New(errorx.TokenExpired, "Your refresh token is expired")
	}

	// Check if refresh token is stolen or invalid.
	// NOTE: DO NOT create transaction here. The delete and rotate query is independent.
	if refreshToken.Counter != storageToken.Counter {
		err = d.refreshTokenRepo.Delete(ctx, hashedFamily)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot delete refresh token: %v", err)
			return nil, errorx.Unknown
		}

		return nil, errorx.New(errorx.StolenDetected,
			"Your refresh token will be revoked because it is detected as stolen")
	}

	// Rotate the refresh token by increasing counter by 1.
	err = d.refreshTokenRepo.Rotate(ctx, hashedFamily)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot rotate the refresh token: %v", err)
		return nil, errorx.Unknown
	}

	// Everything is ok, generate refresh token and access token.
	newRefreshToken, err := d.refreshTokenEngine.Generate(
		xcontext.Configs(ctx).Auth.RefreshToken.Expiration,
		model.RefreshToken{
			Family:  refreshToken.Family,
			Counter: refreshToken.Counter + 1,
		})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate refresh token: %v", err)
		return nil, errorx.Unknown
	}

	user, err := d.userRepo.GetByID(ctx, storageToken.UserID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	newAccessToken, err := xcontext.TokenEngine(ctx).Generate(
		xcontext.Configs(ctx).Auth.AccessToken.Expiration,
		model.AccessToken{
			ID:      user.ID,
			Name:    user.Name,
			Address: user.WalletAddress,
		})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate access token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RefreshTokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

func (d *authDomain) generateRefreshToken(ctx context.Context, userID string) (string, error) {
	refreshTokenFamily, err := crypto.GenerateRandomString()
	if err != nil {
		return "", err
	}

	refreshToken, err := d.refreshTokenEngine.Generate(
		xcontext.Configs(ctx).Auth.RefreshToken.Expiration,
		model.RefreshToken{
			Family:  refreshTokenFamily,
			Counter: 0,
		})
	if err != nil {
		return "", err
	}

	err = d.refreshTokenRepo.Create(ctx, &entity.RefreshToken{
		Family:     crypto.SHA256([]byte(refreshTokenFamily)),
		UserID:     userID,
		Counter:    0,
		Expiration: time.Now().Add(xcontext.Configs(ctx).Auth.RefreshToken.Expiration),
	})
	if err != nil {
		return "", err
	}

	return refreshToken, nil
}

// verifyNonce consumes the login nonce. Redis is the source of truth when it
// is configured; the cookie session is the fallback for single-node setups.
func (d *authDomain) verifyNonce(
	ctx context.Context, msg *siwe.Message, sessionNonce, sessionAddress string,
) error {
	if d.redisClient != nil {
		address, err := d.redisClient.GetDel(ctx, common.RedisKeySIWENonce(msg.Nonce))
		if err != nil {
			if xredis.IsNil(err) {
				return errorx.New(errorx.BadRequest, "Unknown or already used nonce")
			}

			xcontext.Logger(ctx).Errorf("Cannot get nonce: %v", err)
			return errorx.Unknown
		}

		if ethcommon.HexToAddress(address) != ethcommon.HexToAddress(msg.Address) {
			return errorx.New(errorx.BadRequest, "Mismatched address")
		}

		return nil
	}

	if sessionNonce == "" || sessionNonce != msg.Nonce {
		return errorx.New(errorx.BadRequest, "Unknown or already used nonce")
	}

	if ethcommon.HexToAddress(sessionAddress) != ethcommon.HexToAddress(msg.Address) {
		return errorx.New(errorx.BadRequest, "Mismatched address")
	}

	return nil
}
