// Package questfactory binds the events of the QuestFactory contract. The
// factory escrows quest rewards and pays them out when users claim with a
// valid attestation.
package questfactory

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

const ABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "uint256", "name": "questId", "type": "uint256"},
			{"indexed": true, "internalType": "address", "name": "creator", "type": "address"},
			{"indexed": false, "internalType": "address", "name": "rewardToken", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "totalReward", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "rewardPerUser", "type": "uint256"}
		],
		"name": "QuestCreated",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "uint256", "name": "questId", "type": "uint256"},
			{"indexed": true, "internalType": "address", "name": "recipient", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"}
		],
		"name": "RewardClaimed",
		"type": "event"
	}
]`

var (
	parsedABI = mustParseABI()

	QuestCreatedTopic  = parsedABI.Events["QuestCreated"].ID
	RewardClaimedTopic = parsedABI.Events["RewardClaimed"].ID
)

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(ABI))
	if err != nil {
		panic(err)
	}

	return parsed
}

type QuestCreatedEvent struct {
	QuestID       *big.Int
	Creator       common.Address
	RewardToken   common.Address
	TotalReward   *big.Int
	RewardPerUser *big.Int

	Raw ethtypes.Log
}

func ParseQuestCreated(log ethtypes.Log) (*QuestCreatedEvent, error) {
	if len(log.Topics) != 3 || log.Topics[0] != QuestCreatedTopic {
		return nil, fmt.Errorf("log is not a QuestCreated event")
	}

	values, err := parsedABI.Unpack("QuestCreated", log.Data)
	if err != nil {
		return nil, err
	}

	return &QuestCreatedEvent{
		QuestID:       log.Topics[1].Big(),
		Creator:       common.BytesToAddress(log.Topics[2].Bytes()),
		RewardToken:   values[0].(common.Address),
		TotalReward:   values[1].(*big.Int),
		RewardPerUser: values[2].(*big.Int),
		Raw:           log,
	}, nil
}

type RewardClaimedEvent struct {
	QuestID   *big.Int
	Recipient common.Address
	Amount    *big.Int

	Raw ethtypes.Log
}

func ParseRewardClaimed(log ethtypes.Log) (*RewardClaimedEvent, error) {
	if len(log.Topics) != 3 || log.Topics[0] != RewardClaimedTopic {
		return nil, fmt.Errorf("log is not a RewardClaimed event")
	}

	values, err := parsedABI.Unpack("RewardClaimed", log.Data)
	if err != nil {
		return nil, err
	}

	return &RewardClaimedEvent{
		QuestID:   log.Topics[1].Big(),
		Recipient: common.BytesToAddress(log.Topics[2].Bytes()),
		Amount:    values[0].(*big.Int),
		Raw:       log,
	}, nil
}
