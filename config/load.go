package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Load builds Configs from environment variables. Blockchain settings can
// additionally be given as a TOML file through CHAIN_CONFIG; the file wins
// over the per-field env variables.
func Load() (Configs, error) {
	cfg := Configs{
		Env: getEnv("ENV", "local"),
		Database: DatabaseConfigs{
			Driver:     getEnv("DB_DRIVER", "mysql"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "3306"),
			Database:   getEnv("DB_DATABASE", "proofquest"),
			User:       getEnv("DB_USER", "root"),
			Password:   getEnv("DB_PASSWORD", ""),
			SQLiteFile: getEnv("DB_SQLITE_FILE", "proofquest.db"),
		},
		ApiServer: APIServerConfigs{
			ServerConfigs: ServerConfigs{
				Host: getEnv("API_HOST", ""),
				Port: getEnv("API_PORT", "8080"),
				Cert: getEnv("API_CERT", ""),
				Key:  getEnv("API_KEY", ""),
			},
			MaxLimit:       getInt("API_MAX_LIMIT", 50),
			DefaultLimit:   getInt("API_DEFAULT_LIMIT", 10),
			MaxConnections: getInt("API_MAX_CONNECTIONS", 0),
			AllowedOrigins: getList("API_ALLOWED_ORIGINS", []string{"*"}),
		},
		Auth: AuthConfigs{
			TokenSecret: getEnv("TOKEN_SECRET", "token-secret"),
			AccessToken: TokenConfigs{
				Name:       "access_token",
				Expiration: getDuration("ACCESS_TOKEN_DURATION", time.Hour),
			},
			RefreshToken: TokenConfigs{
				Name:       "refresh_token",
				Expiration: getDuration("REFRESH_TOKEN_DURATION", 14*24*time.Hour),
			},
			SIWE: SIWEConfigs{
				Domain:          getEnv("SIWE_DOMAIN", "proofquest.xyz"),
				ChainID:         getInt("SIWE_CHAIN_ID", 1),
				NonceExpiration: getDuration("SIWE_NONCE_DURATION", 10*time.Minute),
				MessageTimeout:  getDuration("SIWE_MESSAGE_TIMEOUT", 10*time.Minute),
			},
		},
		Session: SessionConfigs{
			Secret: getEnv("SESSION_SECRET", "session-secret"),
			Name:   getEnv("SESSION_NAME", "proofquest_session"),
		},
		Redis: RedisConfigs{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Attestation: AttestationConfigs{
			AppID:             getEnv("PRIMUS_APP_ID", ""),
			AppSecretKey:      getEnv("PRIMUS_APP_SECRET", ""),
			AttestorAddresses: getList("PRIMUS_ATTESTORS", nil),
			RequestTimeout:    getDuration("PRIMUS_REQUEST_TIMEOUT", 30*time.Second),
		},
		Blockchain: BlockchainConfigs{
			Chain:               getEnv("CHAIN", "eth-sepolia"),
			Rpcs:                getList("CHAIN_RPCS", nil),
			QuestFactoryAddress: getEnv("QUEST_FACTORY_ADDRESS", ""),
			StartBlock:          uint64(getInt("CHAIN_START_BLOCK", 0)),
			Confirmations:       uint64(getInt("CHAIN_CONFIRMATIONS", 6)),
			ScanInterval:        getDuration("CHAIN_SCAN_INTERVAL", 15*time.Second),
			BatchSize:           uint64(getInt("CHAIN_BATCH_SIZE", 2000)),
		},
	}

	if path := os.Getenv("CHAIN_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg.Blockchain); err != nil {
			return Configs{}, err
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
