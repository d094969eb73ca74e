package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ConnectRedis returns nil when REDIS_URL is empty or the server is not
// reachable; callers treat a nil client as "feature disabled".
func ConnectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		logrus.Warn("REDIS_URL is not set, session events and token revocation are disabled")
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		logrus.WithError(err).Error("invalid REDIS_URL")
		return nil
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Error("failed to connect to redis")
		_ = rdb.Close()
		return nil
	}

	logrus.Info("redis connected")
	return rdb
}
