package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

var rdb *goredis.Client

func InitRedis(c Config) error {
	rdb = goredis.NewClient(&goredis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	return rdb.Ping(context.Background()).Err()
}

// Client returns the shared client, nil before InitRedis.
func Client() *goredis.Client { return rdb }
