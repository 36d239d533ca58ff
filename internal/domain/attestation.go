package domain

import (
	"context"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/model"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/repository"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/errorx"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/primus"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xredis"
)

// Version is stamped into health responses. Overridden at build time.
var Version = "development"

type AttestationDomain interface {
	Sign(context.Context, *model.SignAttestationRequest) (*model.SignAttestationResponse, error)
	Validate(context.Context, *model.ValidateAttestationRequest) (*model.ValidateAttestationResponse, error)
	Health(context.Context, *model.HealthRequest) (*model.HealthResponse, error)
}

type attestationDomain struct {
	userRepo     repository.UserRepository
	primusClient *primus.Client
	redisClient  xredis.Client
}

func NewAttestationDomain(
	userRepo repository.UserRepository,
	primusClient *primus.Client,
	redisClient xredis.Client,
) AttestationDomain {
	return &attestationDomain{
		userRepo:     userRepo,
		primusClient: primusClient,
		redisClient:  redisClient,
	}
}

func (d *attestationDomain) Sign(
	ctx context.Context, req *model.SignAttestationRequest,
) (*model.SignAttestationResponse, error) {
	if req.AttTemplateID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty attestation template")
	}

	user, err := d.userRepo.GetByID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	userAddress := req.UserAddress
	if userAddress == "" {
		userAddress = user.WalletAddress
	}

	if ethcommon.HexToAddress(userAddress) != ethcommon.HexToAddress(user.WalletAddress) {
		return nil, errorx.New(errorx.PermissionDenied,
			"Cannot sign an attestation request for another wallet")
	}

	signRequest := &primus.SignRequest{
		AttTemplateID:  req.AttTemplateID,
		UserAddress:    ethcommon.HexToAddress(userAddress).Hex(),
		Timestamp:      time.Now().UnixMilli(),
		AdditionParams: req.AdditionParams,
	}

	signature, err := d.primusClient.Sign(signRequest)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot sign attestation request: %v", err)
		return nil, errorx.Unknown
	}

	return &model.SignAttestationResponse{
		AppID:     d.primusClient.AppID(),
		Timestamp: signRequest.Timestamp,
		Signature: signature,
	}, nil
}

func (d *attestationDomain) Validate(
	ctx context.Context, req *model.ValidateAttestationRequest,
) (*model.ValidateAttestationResponse, error) {
	attestation := model.ConvertAttestation(req.Attestation)
	if _, err := d.primusClient.VerifyAttestation(&attestation); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot verify attestation: %v", err)
		return &model.ValidateAttestationResponse{Valid: false}, nil
	}

	if len(attestation.Attestors) == 0 {
		return &model.ValidateAttestationResponse{Valid: true}, nil
	}

	return &model.ValidateAttestationResponse{
		Valid:    true,
		Attestor: attestation.Attestors[0].AttestorAddr,
	}, nil
}

func (d *attestationDomain) Health(
	ctx context.Context, req *model.HealthRequest,
) (*model.HealthResponse, error) {
	resp := &model.HealthResponse{
		Status:    "ok",
		Version:   Version,
		Timestamp: time.Now().Unix(),
		Database:  "ok",
		Redis:     "not_configured",
	}

	sqlDB, err := xcontext.DB(ctx).DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		resp.Status = "degraded"
		resp.Database = "unavailable"
	}

	if d.redisClient != nil {
		resp.Redis = "ok"
		if err := d.redisClient.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Redis = "unavailable"
		}
	}

	return resp, nil
}
