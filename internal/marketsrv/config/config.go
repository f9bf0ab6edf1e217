package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type ServerConfig struct {
	Port       string `toml:"port"`
	HandleCORS bool   `toml:"handle_cors"`
	CORSOrigin string `toml:"cors_origin"`
	AuthSecret string `toml:"auth_secret"`
	Debug      bool   `toml:"debug"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Name     string `toml:"name"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	SSLMode  string `toml:"sslmode"`
	Migrate  bool   `toml:"migrate"`
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type StorageConfig struct {
	// Mode selects the store implementation: "pin" (remote pinning service)
	// or "memory" (in-process, local development only).
	Mode        string `toml:"mode"`
	PinEndpoint string `toml:"pin_endpoint"`
	PinAPIKey   string `toml:"pin_api_key"`
	PinSecret   string `toml:"pin_secret"`
}

type LedgerConfig struct {
	GatewayURL      string `toml:"gateway_url"`
	ContractAddress string `toml:"contract_address"`
	WalletBridgeURL string `toml:"wallet_bridge_url"`
	// Anchoring can be disabled globally; individual requests may still opt
	// out when it is enabled.
	AnchoringEnabled bool   `toml:"anchoring_enabled"`
	WalletTimeout    string `toml:"wallet_timeout"`
	ConfirmTimeout   string `toml:"confirm_timeout"`
	PollInterval     string `toml:"poll_interval"`
}

type ReconcileConfig struct {
	Enabled  bool   `toml:"enabled"`
	Interval string `toml:"interval"`
}

type ConfigParam struct {
	Server    ServerConfig    `toml:"server"`
	DB        DBConfig        `toml:"db"`
	Storage   StorageConfig   `toml:"storage"`
	Ledger    LedgerConfig    `toml:"ledger"`
	Reconcile ReconcileConfig `toml:"reconcile"`
}

var cfg *ConfigParam

func Config() *ConfigParam {
	return cfg
}

func LoadConfig(filename string) error {
	if filename == "" {
		cfg = defaultConfig()
		return nil
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}
	cp := defaultConfig()
	if _, err := toml.Decode(string(content), cp); err != nil {
		return fmt.Errorf("error parsing config file: %v", err)
	}
	cfg = cp
	return nil
}

func defaultConfig() *ConfigParam {
	return &ConfigParam{
		Server: ServerConfig{
			Port:       "8480",
			HandleCORS: true,
			CORSOrigin: "http://localhost:3000",
			AuthSecret: "dev-only-secret",
		},
		DB: DBConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "market_api",
			Name:    "veristream",
			SSLMode: "disable",
		},
		Storage: StorageConfig{
			Mode: "memory",
		},
		Ledger: LedgerConfig{
			AnchoringEnabled: true,
			WalletTimeout:    "3m",
			ConfirmTimeout:   "5m",
			PollInterval:     "3s",
		},
		Reconcile: ReconcileConfig{
			Enabled:  true,
			Interval: "10m",
		},
	}
}

// Duration parses a config duration, falling back to def when the value is
// empty or malformed.
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func init() {
	if err := LoadConfig(""); err != nil {
		panic(err)
	}
}
