package model

type UserStatistic struct {
	User           User   `json:"user"`
	Value          uint64 `json:"value"`
	CurrentRank    uint64 `json:"current_rank"`
	PreviousRank   uint64 `json:"previous_rank"`
	PreviousPeriod string `json:"previous_period,omitempty"`
}

type GetLeaderBoardRequest struct {
	Period    string `json:"period"`
	OrderedBy string `json:"ordered_by"`
	Offset    int    `json:"offset"`
	Limit     int    `json:"limit"`
}

type GetLeaderBoardResponse struct {
	LeaderBoard []UserStatistic `json:"leaderboard"`
}
