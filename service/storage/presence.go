package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	redisx "EduChat/service/storage/redis"
)

// presence key: im:presence:<user>
// Value: gateway node id; TTL bounds staleness if a node dies without
// cleaning up.
func presenceKey(user string) string { return "im:presence:" + user }

// PresenceOnline marks the user online on the given node and renews the TTL.
func PresenceOnline(ctx context.Context, user, nodeID string, ttl time.Duration) error {
	rdb := redisx.Client()
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(user), nodeID, ttl).Err()
}

// PresenceOffline removes the user's presence key.
func PresenceOffline(ctx context.Context, user string) error {
	rdb := redisx.Client()
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// PresenceLookup reports whether the user is online anywhere, and on which
// node.
func PresenceLookup(ctx context.Context, user string) (nodeID string, online bool, err error) {
	rdb := redisx.Client()
	if rdb == nil {
		return "", false, errors.New("redis not initialized")
	}
	val, err := rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
