package questverify

import (
	"context"
	"fmt"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
)

// Verifier Factory. Set needParse to true when the validation data comes from
// the client and must be fully checked.
func New(ctx context.Context, t entity.QuestType, data map[string]any, needParse bool) (Verifier, error) {
	var verifier Verifier
	var err error
	switch t {
	case entity.QuestTwitterFollow:
		verifier, err = newTwitterFollowVerifier(ctx, data, needParse)

	case entity.QuestTwitterInteraction:
		verifier, err = newTwitterInteractionVerifier(ctx, data, needParse)

	default:
		return nil, fmt.Errorf("invalid quest type %s", t)
	}

	if err != nil {
		return nil, err
	}

	return verifier, nil
}
