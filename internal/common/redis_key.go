package common

import "fmt"

func RedisKeyLeaderBoard(orderedBy, period string) string {
	return fmt.Sprintf("leaderboard:%s:%s", orderedBy, period)
}

func RedisKeySIWENonce(nonce string) string {
	return fmt.Sprintf("siwenonce:%s", nonce)
}
