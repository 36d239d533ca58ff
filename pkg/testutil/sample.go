package testutil

import (
	"context"
	"reflect"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/repository"
)

// SampleUser creates a new user in database with many fields are randomized.
// The sample user can be overwritten by non-zero fields of init.
//
// This function returns the sample user.
func SampleUser(ctx context.Context, init *entity.User) (entity.User, error) {
	sample := &entity.User{
		Base:          entity.Base{ID: uuid.NewString()},
		WalletAddress: randomWalletAddress(),
		Name:          uuid.NewString(),
		Role:          entity.UserRole,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := repository.NewUserRepository().Create(ctx, sample); err != nil {
		return *sample, err
	}

	return *sample, nil
}

func SampleQuest(ctx context.Context, init *entity.Quest) (entity.Quest, error) {
	sample := &entity.Quest{
		Base:      entity.Base{ID: uuid.NewString()},
		CreatedBy: uuid.NewString(),
		Type:      entity.QuestTwitterFollow,
		Status:    entity.QuestActive,
		Title:     uuid.NewString(),
		ValidationData: entity.Map{
			"twitter_handle": "proofquest",
		},
		RewardToken:     "USDT",
		TotalReward:     1000,
		RewardPerUser:   10,
		MaxParticipants: 100,
		StartTime:       time.Now().Add(-time.Hour),
		EndTime:         time.Now().Add(time.Hour),
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := repository.NewQuestRepository().Create(ctx, sample); err != nil {
		return *sample, err
	}

	return *sample, nil
}

func SampleParticipation(ctx context.Context, init *entity.Participation) (entity.Participation, error) {
	sample := &entity.Participation{
		Base:    entity.Base{ID: uuid.NewString()},
		QuestID: uuid.NewString(),
		UserID:  uuid.NewString(),
		Status:  entity.ParticipationPending,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := repository.NewParticipationRepository().Create(ctx, sample); err != nil {
		return *sample, err
	}

	return *sample, nil
}

// randomWalletAddress returns a checksummed address, the form the production
// code stores after ethcommon.HexToAddress(...).Hex().
func randomWalletAddress() string {
	hex := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	return ethcommon.HexToAddress("0x" + hex[:40]).Hex()
}

func overwriteFields[T any](origin *T, overwrite T) {
	originValue := reflect.ValueOf(origin).Elem()
	overwriteValue := reflect.ValueOf(overwrite)

	// IsZero instead of an interface comparison, entities carry slice and
	// map fields which are not comparable.
	for i := 0; i < overwriteValue.NumField(); i++ {
		overwriteField := overwriteValue.Field(i)
		if !overwriteField.IsZero() {
			originValue.Field(i).Set(overwriteField)
		}
	}
}
