package bip32

import "wallet-sdk/pkg/signature"

// HDWallet 定义了分层确定性钱包的基本行为
type HDWallet interface {
	// Scheme 返回主密钥所在曲线
	Scheme() signature.Scheme
	// MasterKey 返回主扩展密钥
	MasterKey() *ExtendedKey
	// DerivePath 根据路径 (如 "m/44'/0'/0'/0/0") 派生密钥，调用方负责销毁返回值
	DerivePath(path string) (*ExtendedKey, error)
	// Destroy 销毁主密钥
	Destroy()
}

var _ HDWallet = (*Wallet)(nil)
