package migration

import (
	"context"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

func migrate0001(ctx context.Context) error {
	if err := xcontext.DB(ctx).Migrator().AddColumn(&entity.Participation{}, "ClaimedTxHash"); err != nil {
		return err
	}

	return xcontext.DB(ctx).Migrator().AddColumn(&entity.Participation{}, "ClaimedAt")
}
