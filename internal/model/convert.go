package model

import (
	"time"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/primus"
)

func ConvertUser(user *entity.User) User {
	if user == nil {
		return User{}
	}

	return User{
		ID:            user.ID,
		WalletAddress: user.WalletAddress,
		Name:          user.Name,
		Role:          user.Role,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339Nano),
	}
}

func ConvertQuest(quest *entity.Quest, participants int64) Quest {
	if quest == nil {
		return Quest{}
	}

	onChainID := int64(-1)
	if quest.OnChainQuestID.Valid {
		onChainID = quest.OnChainQuestID.Int64
	}

	return Quest{
		ID:              quest.ID,
		Creator:         ConvertUser(&quest.Creator),
		Type:            string(quest.Type),
		Status:          string(quest.Status),
		Title:           quest.Title,
		Description:     string(quest.Description),
		ValidationData:  quest.ValidationData,
		RewardToken:     quest.RewardToken,
		TotalReward:     quest.TotalReward,
		RewardPerUser:   quest.RewardPerUser,
		MaxParticipants: quest.MaxParticipants,
		Participants:    participants,
		StartTime:       quest.StartTime.Format(time.RFC3339Nano),
		EndTime:         quest.EndTime.Format(time.RFC3339Nano),
		OnChainQuestID:  onChainID,
		FundingTxHash:   quest.FundingTxHash,
		CreatedAt:       quest.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:       quest.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func ConvertParticipation(p *entity.Participation, quest Quest, user User) Participation {
	if p == nil {
		return Participation{}
	}

	attestedAt := ""
	if !p.AttestedAt.IsZero() {
		attestedAt = p.AttestedAt.Format(time.RFC3339Nano)
	}

	claimedAt := ""
	if !p.ClaimedAt.IsZero() {
		claimedAt = p.ClaimedAt.Format(time.RFC3339Nano)
	}

	return Participation{
		ID:            p.ID,
		Quest:         quest,
		User:          user,
		Status:        string(p.Status),
		AttestedAt:    attestedAt,
		RewardAmount:  p.RewardAmount,
		ClaimedTxHash: p.ClaimedTxHash,
		ClaimedAt:     claimedAt,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339Nano),
	}
}

// ConvertAttestation maps the wire attestation onto the SDK type used for
// signature verification.
func ConvertAttestation(att Attestation) primus.Attestation {
	resolve := make([]primus.ResponseResolve, 0, len(att.ResponseResolve))
	for _, r := range att.ResponseResolve {
		resolve = append(resolve, primus.ResponseResolve{
			KeyName:   r.KeyName,
			ParseType: r.ParseType,
			ParsePath: r.ParsePath,
		})
	}

	attestors := make([]primus.Attestor, 0, len(att.Attestors))
	for _, a := range att.Attestors {
		attestors = append(attestors, primus.Attestor{
			AttestorAddr: a.AttestorAddr,
			URL:          a.URL,
		})
	}

	return primus.Attestation{
		Recipient: att.Recipient,
		Request: primus.NetworkRequest{
			URL:    att.Request.URL,
			Header: att.Request.Header,
			Method: att.Request.Method,
			Body:   att.Request.Body,
		},
		ResponseResolve: resolve,
		Data:            att.Data,
		AttConditions:   att.AttConditions,
		Timestamp:       att.Timestamp,
		AdditionParams:  att.AdditionParams,
		Attestors:       attestors,
		Signatures:      att.Signatures,
	}
}
