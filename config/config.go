package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	Database    DatabaseConfigs
	ApiServer   APIServerConfigs
	Auth        AuthConfigs
	Session     SessionConfigs
	Redis       RedisConfigs
	Attestation AttestationConfigs
	Blockchain  BlockchainConfigs
}

type DatabaseConfigs struct {
	Driver   string
	Host     string
	Port     string
	Database string
	User     string
	Password string

	// SQLiteFile is used when Driver is sqlite. The value ":memory:" gives
	// an in-memory database.
	SQLiteFile string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
	Cert string
	Key  string
}

func (s *ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type APIServerConfigs struct {
	ServerConfigs

	MaxLimit     int
	DefaultLimit int

	// MaxConnections limits concurrent accepted connections. Zero means no
	// limit.
	MaxConnections int

	AllowedOrigins []string
}

type AuthConfigs struct {
	TokenSecret  string
	AccessToken  TokenConfigs
	RefreshToken TokenConfigs

	SIWE SIWEConfigs
}

type TokenConfigs struct {
	Name       string
	Expiration time.Duration
}

type SIWEConfigs struct {
	// Domain is the RFC 4501 authority the signed message must be bound to.
	Domain string

	// ChainID is advertised in login messages.
	ChainID int

	NonceExpiration time.Duration

	// MessageTimeout rejects messages whose issued-at is older than this.
	MessageTimeout time.Duration
}

type SessionConfigs struct {
	Secret string
	Name   string
}

type RedisConfigs struct {
	Addr string
}

type AttestationConfigs struct {
	AppID string

	// AppSecretKey is the hex-encoded secp256k1 private key used to sign
	// attestation requests on behalf of the application.
	AppSecretKey string

	// AttestorAddresses is the allow-list of attestor signing addresses.
	AttestorAddresses []string

	RequestTimeout time.Duration
}

type BlockchainConfigs struct {
	Chain string   `toml:"chain"`
	Rpcs  []string `toml:"rpcs"`

	QuestFactoryAddress string `toml:"quest_factory_address"`
	StartBlock          uint64 `toml:"start_block"`

	// Confirmations holds back scanning from the chain head to survive
	// short reorgs.
	Confirmations uint64        `toml:"confirmations"`
	ScanInterval  time.Duration `toml:"scan_interval"`
	BatchSize     uint64        `toml:"batch_size"`
}
