package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	FollowingIDsKeyPrefix = "following:ids:%d"
	WSTicketKeyPrefix     = "ws:ticket:%s"
	UserChannelPrefix     = "notifications:user:%d"
)

const (
	WSTicketTTL = 60 * time.Second
)

func FollowingIDsKey(userID uint) string {
	return fmt.Sprintf(FollowingIDsKeyPrefix, userID)
}

func WSTicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketKeyPrefix, ticket)
}

// UserChannel is the pub/sub channel carrying realtime events for one user.
func UserChannel(userID uint) string {
	return fmt.Sprintf(UserChannelPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateFollowing(ctx context.Context, userID uint) {
	Invalidate(ctx, FollowingIDsKey(userID))
}
