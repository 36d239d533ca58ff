package model

type Participation struct {
	ID     string `json:"id"`
	Quest  Quest  `json:"quest"`
	User   User   `json:"user"`
	Status string `json:"status"`

	AttestedAt    string `json:"attested_at"`
	RewardAmount  uint64 `json:"reward_amount"`
	ClaimedTxHash string `json:"claimed_tx_hash"`
	ClaimedAt     string `json:"claimed_at"`

	CreatedAt string `json:"created_at"`
}

type ParticipateRequest struct {
	QuestID string `json:"quest_id"`
}

type ParticipateResponse struct {
	ID string `json:"id"`
}

type SubmitProofRequest struct {
	QuestID     string      `json:"quest_id"`
	Attestation Attestation `json:"attestation"`
}

type SubmitProofResponse struct {
	Status string `json:"status"`
}

type GetParticipationRequest struct {
	QuestID string `json:"quest_id"`
}

type GetParticipationResponse struct {
	Participation
}

type GetListParticipationRequest struct {
	QuestID string `json:"quest_id"`
	UserID  string `json:"user_id"`
	Status  string `json:"status"`
	Offset  int    `json:"offset"`
	Limit   int    `json:"limit"`
}

type GetListParticipationResponse struct {
	Participations []Participation `json:"participations"`
}
