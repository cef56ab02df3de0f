package wallet

import (
	"github.com/btcsuite/btcd/chaincfg"

	"wallet-sdk/pkg/chain"
	"wallet-sdk/pkg/chain/bitcoin"
	"wallet-sdk/pkg/chain/evm"
	"wallet-sdk/pkg/chain/solana"
	"wallet-sdk/pkg/chain/tron"
	"wallet-sdk/pkg/config"
	"wallet-sdk/pkg/errno"
)

// BIP-44 coin type
const (
	CoinTypeBitcoin  uint32 = 0
	CoinTypeTestnet  uint32 = 1
	CoinTypeEthereum uint32 = 60
	CoinTypeTron     uint32 = 195
	CoinTypeSolana   uint32 = 501
)

// NewAdapter 按配置创建链适配器
func NewAdapter(c config.ChainConfig) (chain.ChainAdapter, error) {
	switch c.Family {
	case "evm":
		return evm.NewAdapter(c.ID, c.ChainID), nil
	case "tron":
		return tron.NewAdapter(c.ID), nil
	case "solana":
		return solana.NewAdapter(c.ID), nil
	case "bitcoin":
		params, err := BitcoinParams(c.Network)
		if err != nil {
			return nil, err
		}
		return bitcoin.NewAdapter(c.ID, params), nil
	default:
		return nil, errno.Newf(errno.ErrUnsupportedChain, "%s: unknown family %q", c.ID, c.Family)
	}
}

// RegisterDefaults 为每条配置的链注册适配器，已存在的同名链被覆盖
func RegisterDefaults(reg *chain.Registry, chains []config.ChainConfig) error {
	for _, c := range chains {
		adapter, err := NewAdapter(c)
		if err != nil {
			return err
		}
		if err := reg.Register(adapter); err != nil {
			return err
		}
	}
	return nil
}

// BitcoinParams 空字符串表示主网
func BitcoinParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet3", "testnet":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, errno.Newf(errno.ErrInvalidInput, "unknown bitcoin network %q", network)
	}
}

// coinType 配置未指定时按链族取默认值
func coinType(c config.ChainConfig) uint32 {
	if c.CoinType != 0 {
		return c.CoinType
	}
	switch c.Family {
	case "evm":
		return CoinTypeEthereum
	case "tron":
		return CoinTypeTron
	case "solana":
		return CoinTypeSolana
	default:
		if c.Network != "" && c.Network != "mainnet" {
			return CoinTypeTestnet
		}
		return CoinTypeBitcoin
	}
}
