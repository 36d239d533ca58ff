package model

type Quest struct {
	ID             string         `json:"id"`
	Creator        User           `json:"creator"`
	Type           string         `json:"type"`
	Status         string         `json:"status"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	ValidationData map[string]any `json:"validation_data"`

	RewardToken     string `json:"reward_token"`
	TotalReward     uint64 `json:"total_reward"`
	RewardPerUser   uint64 `json:"reward_per_user"`
	MaxParticipants int    `json:"max_participants"`
	Participants    int64  `json:"participants"`

	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	OnChainQuestID int64  `json:"on_chain_quest_id"`
	FundingTxHash  string `json:"funding_tx_hash"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type CreateQuestRequest struct {
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	ValidationData map[string]any `json:"validation_data"`

	RewardToken     string `json:"reward_token"`
	TotalReward     uint64 `json:"total_reward"`
	RewardPerUser   uint64 `json:"reward_per_user"`
	MaxParticipants int    `json:"max_participants"`

	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type CreateQuestResponse struct {
	ID string `json:"id"`
}

type GetQuestRequest struct {
	ID string `json:"id"`
}

type GetQuestResponse struct {
	Quest
}

type GetListQuestRequest struct {
	Q         string `json:"q"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	CreatedBy string `json:"created_by"`
	Offset    int    `json:"offset"`
	Limit     int    `json:"limit"`
}

type GetListQuestResponse struct {
	Quests []Quest `json:"quests"`
}

type UpdateQuestRequest struct {
	ID             string         `json:"id"`
	Status         string         `json:"status"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	ValidationData map[string]any `json:"validation_data"`

	RewardToken     string `json:"reward_token"`
	TotalReward     uint64 `json:"total_reward"`
	RewardPerUser   uint64 `json:"reward_per_user"`
	MaxParticipants int    `json:"max_participants"`

	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	FundingTxHash string `json:"funding_tx_hash"`
}

type UpdateQuestResponse struct{}

type DeleteQuestRequest struct {
	ID string `json:"id"`
}

type DeleteQuestResponse struct{}

type CloseQuestRequest struct {
	ID string `json:"id"`
}

type CloseQuestResponse struct{}
