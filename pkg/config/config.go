package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig     `mapstructure:"app"`
	Wallet WalletConfig  `mapstructure:"wallet"`
	Chains []ChainConfig `mapstructure:"chains"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type WalletConfig struct {
	KeystorePath string `mapstructure:"keystore_path"` // 本地 Keystore 文件路径
	Password     string `mapstructure:"password"`      // Keystore 密码 (通常通过环境变量 WALLET_PASSWORD 传入)
	Account      uint32 `mapstructure:"account"`       // 默认 BIP-44 account
}

// ChainConfig 描述一条需要注册到 Registry 的链。
type ChainConfig struct {
	ID       string `mapstructure:"id"`        // Registry 中的链标识, 如 ethereum / tron / solana / bitcoin
	Family   string `mapstructure:"family"`    // evm / tron / solana / bitcoin
	ChainID  uint64 `mapstructure:"chain_id"`  // EVM EIP-155 chain id
	Network  string `mapstructure:"network"`   // bitcoin: mainnet / testnet3 / regtest / signet
	CoinType uint32 `mapstructure:"coin_type"` // BIP-44 coin type, 0 表示使用 family 默认值
}

var Global Config

// Init 读取配置到 Global。
func Init() error {
	cfg, err := load(viper.GetViper())
	if err != nil {
		return err
	}
	Global = cfg
	return nil
}

// Load 使用独立的 viper 实例读取配置; paths 为空时按默认目录查找。
func Load(paths ...string) (Config, error) {
	return load(viper.New(), paths...)
}

func load(v *viper.Viper, paths ...string) (Config, error) {
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// 环境变量设置
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 未找到配置文件时使用默认值与环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 检查链配置的完整性。
func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Chains))
	for i, ch := range c.Chains {
		if ch.ID == "" {
			return fmt.Errorf("chains[%d]: id 不能为空", i)
		}
		if _, dup := seen[ch.ID]; dup {
			return fmt.Errorf("chains[%d]: 重复的链标识 %q", i, ch.ID)
		}
		seen[ch.ID] = struct{}{}
		switch ch.Family {
		case "evm", "tron", "solana", "bitcoin":
		default:
			return fmt.Errorf("chains[%d]: 未知的 family %q", i, ch.Family)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "")

	v.SetDefault("wallet.keystore_path", "wallet.json")
	v.SetDefault("wallet.account", 0)

	v.SetDefault("chains", []map[string]any{
		{"id": "ethereum", "family": "evm", "chain_id": 1},
		{"id": "sepolia", "family": "evm", "chain_id": 11155111},
		{"id": "bsc", "family": "evm", "chain_id": 56},
		{"id": "polygon", "family": "evm", "chain_id": 137},
		{"id": "tron", "family": "tron"},
		{"id": "solana", "family": "solana"},
		{"id": "bitcoin", "family": "bitcoin", "network": "mainnet"},
		{"id": "bitcoin-testnet", "family": "bitcoin", "network": "testnet3", "coin_type": 1},
	})
}
