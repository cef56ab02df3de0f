package bip32

import (
	"wallet-sdk/pkg/signature"
)

// Wallet 实现 HDWallet 接口，持有一条曲线上的主密钥
type Wallet struct {
	master *ExtendedKey
}

// NewMasterKeyFromSeed 使用 BIP-39 种子生成 secp256k1 主密钥
func NewMasterKeyFromSeed(seed []byte) (*Wallet, error) {
	return NewWallet(signature.SchemeSecp256k1, seed)
}

// NewWallet 使用 BIP-39 种子生成指定曲线的主密钥
func NewWallet(scheme signature.Scheme, seed []byte) (*Wallet, error) {
	master, err := NewMasterKey(scheme, seed)
	if err != nil {
		return nil, err
	}
	return &Wallet{master: master}, nil
}

func (w *Wallet) Scheme() signature.Scheme {
	return w.master.Scheme()
}

func (w *Wallet) MasterKey() *ExtendedKey {
	return w.master
}

// DerivePath 解析路径并派生密钥
// 支持格式: m/44'/0'/0'/0/0 或 m/44h/0h/0h/0/0
func (w *Wallet) DerivePath(path string) (*ExtendedKey, error) {
	return DerivePath(w.master, path)
}

// Destroy 销毁主密钥
func (w *Wallet) Destroy() {
	w.master.Destroy()
}
