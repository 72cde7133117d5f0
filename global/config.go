package global

import (
	"os"
	"strconv"
	"strings"

	ids "EduChat/tools/ids"
)

// Process configuration, resolved once from the environment. Every knob has
// a default that works against a local docker-compose stack.

type HTTPConfig struct {
	Addr string // listen address for REST + /ws
}

type MongoConfig struct {
	URI         string
	Database    string
	Username    string
	Password    string
	MaxPoolSize int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type NatsConfig struct {
	Servers []string // empty disables the cross-node relay
}

type GatewayConfig struct {
	NodeID        string // identifies this gateway instance in relayed frames
	SendQueueSize int    // per-connection outbound buffer
}

type AppConfig struct {
	HTTP    HTTPConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Nats    NatsConfig
	Gateway GatewayConfig
}

var Conf AppConfig

// ConfigAll resolves the environment and seeds the id generator. Call once
// at the top of main.
func ConfigAll() {
	Conf = AppConfig{
		HTTP: HTTPConfig{
			Addr: envStr("EDUCHAT_HTTP_ADDR", ":8080"),
		},
		Mongo: MongoConfig{
			URI:         envStr("EDUCHAT_MONGO_URI", "mongodb://localhost:27017"),
			Database:    envStr("EDUCHAT_MONGO_DB", "educhat"),
			Username:    envStr("EDUCHAT_MONGO_USER", ""),
			Password:    envStr("EDUCHAT_MONGO_PASSWORD", ""),
			MaxPoolSize: envInt("EDUCHAT_MONGO_POOL", 20),
		},
		Redis: RedisConfig{
			Addr:     envStr("EDUCHAT_REDIS_ADDR", "127.0.0.1:6379"),
			Password: envStr("EDUCHAT_REDIS_PASSWORD", ""),
			DB:       envInt("EDUCHAT_REDIS_DB", 0),
		},
		Nats: NatsConfig{
			Servers: envList("EDUCHAT_NATS_SERVERS"),
		},
		Gateway: GatewayConfig{
			NodeID:        envStr("EDUCHAT_NODE_ID", "gw-1"),
			SendQueueSize: envInt("EDUCHAT_SEND_QUEUE", 256),
		},
	}
	ids.SetNodeID(int64(envInt("EDUCHAT_SNOW_NODE", 1)))
}

// GetJwtSecret returns the HMAC key shared with the auth collaborator.
func GetJwtSecret() []byte {
	return []byte(envStr("EDUCHAT_JWT_SECRET", "dev-secret-change-me"))
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envList(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
