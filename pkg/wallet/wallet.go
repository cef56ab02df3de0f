// Package wallet 是面向调用方的 HD 钱包门面: 每次操作按链与路径派生临时私钥，
// 用完立即销毁，主密钥只在 Wallet 生命周期内存在。
package wallet

import (
	"fmt"
	"sync"
	"time"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/bip32"
	"wallet-sdk/pkg/bip39"
	"wallet-sdk/pkg/cache"
	"wallet-sdk/pkg/chain"
	"wallet-sdk/pkg/config"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/kms"
	"wallet-sdk/pkg/safe_random"
	"wallet-sdk/pkg/signature"
	"wallet-sdk/pkg/signer"
)

type Wallet struct {
	mu       sync.RWMutex
	registry *chain.Registry
	chains   map[string]config.ChainConfig
	account  uint32
	masters  map[signature.Scheme]*bip32.Wallet
	addrs    *cache.AddressCache
	closed   bool
}

type Option func(*Wallet)

// WithRegistry 使用已注册好适配器的 Registry，不再按配置注册
func WithRegistry(reg *chain.Registry) Option {
	return func(w *Wallet) { w.registry = reg }
}

// WithAddressCacheTTL 设置地址缓存的有效期，0 表示不过期
func WithAddressCacheTTL(ttl time.Duration) Option {
	return func(w *Wallet) { w.addrs = cache.NewAddressCache(ttl, time.Minute) }
}

// New 由 BIP-39 种子创建钱包，secp256k1 与 Ed25519 主密钥同时生成。
// 调用方负责擦除 seed。
func New(seed []byte, cfg config.Config, opts ...Option) (*Wallet, error) {
	w := &Wallet{
		chains:  make(map[string]config.ChainConfig, len(cfg.Chains)),
		account: cfg.Wallet.Account,
		masters: make(map[signature.Scheme]*bip32.Wallet, 2),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.addrs == nil {
		w.addrs = cache.NewAddressCache(0, time.Minute)
	}
	for _, c := range cfg.Chains {
		w.chains[c.ID] = c
	}
	if w.registry == nil {
		w.registry = chain.NewRegistry()
		if err := RegisterDefaults(w.registry, cfg.Chains); err != nil {
			return nil, err
		}
	}

	for _, scheme := range []signature.Scheme{signature.SchemeSecp256k1, signature.SchemeEd25519} {
		master, err := bip32.NewWallet(scheme, seed)
		if err != nil {
			w.Destroy()
			return nil, err
		}
		w.masters[scheme] = master
	}
	return w, nil
}

// FromMnemonic 校验助记词后创建钱包
func FromMnemonic(mnemonic, passphrase string, cfg config.Config, opts ...Option) (*Wallet, error) {
	seed, err := bip39.NewMnemonicService().MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer safe_random.Wipe(seed)
	return New(seed, cfg, opts...)
}

func (w *Wallet) Registry() *chain.Registry { return w.registry }

// DefaultPath 链的默认派生路径:
// EVM/TRON m/44'/coin'/account'/0/index，比特币 (P2WPKH) m/84'/coin'/account'/0/index，
// Solana 只支持硬化派生 m/44'/501'/account'/index'
func (w *Wallet) DefaultPath(chainID string, index uint32) (string, error) {
	adapter, err := w.registry.Get(chainID)
	if err != nil {
		return "", err
	}
	c, ok := w.chains[chainID]
	if !ok {
		c = config.ChainConfig{ID: chainID, Family: string(adapter.Family())}
	}
	coin := coinType(c)
	switch adapter.Family() {
	case address.FamilySolana:
		return fmt.Sprintf("m/44'/%d'/%d'/%d'", coin, w.account, index), nil
	case address.FamilyBitcoin:
		return fmt.Sprintf("m/84'/%d'/%d'/0/%d", coin, w.account, index), nil
	default:
		return fmt.Sprintf("m/44'/%d'/%d'/0/%d", coin, w.account, index), nil
	}
}

// withChild 派生 chainID 在 path 上的子密钥并交给 fn，返回前销毁
func (w *Wallet) withChild(chainID, path string, fn func(chain.ChainAdapter, *bip32.ExtendedKey) error) error {
	adapter, err := w.registry.Get(chainID)
	if err != nil {
		return err
	}
	if path == "" {
		if path, err = w.DefaultPath(chainID, 0); err != nil {
			return err
		}
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errno.ErrKeyDestroyed
	}
	master, ok := w.masters[adapter.Scheme()]
	if !ok {
		return errno.Newf(errno.ErrSchemeMismatch, "no %s master key", adapter.Scheme())
	}
	child, err := master.DerivePath(path)
	if err != nil {
		return err
	}
	defer child.Destroy()
	return fn(adapter, child)
}

// withKey 派生临时签名密钥并交给 fn，返回前销毁派生出的所有密钥
func (w *Wallet) withKey(chainID, path string, fn func(chain.ChainAdapter, signer.Signer) error) error {
	return w.withChild(chainID, path, func(adapter chain.ChainAdapter, child *bip32.ExtendedKey) error {
		return child.WithSigningKey(func(key *signer.SigningKey) error {
			return fn(adapter, key)
		})
	})
}

// ImportToKMS 把链在 path 上的子私钥交给 km 托管并返回 KeyID。
// 之后可通过 km.Signer(keyID) 签名，不再需要 Wallet 的主密钥。
func (w *Wallet) ImportToKMS(km kms.KeyManager, chainID, path string) (string, error) {
	if km == nil {
		return "", errno.Newf(errno.ErrInvalidInput, "nil key manager")
	}
	var keyID string
	err := w.withChild(chainID, path, func(_ chain.ChainAdapter, child *bip32.ExtendedKey) error {
		key, err := child.SigningKey()
		if err != nil {
			return err
		}
		if keyID, err = km.AdoptKey(key); err != nil {
			key.Destroy()
		}
		return err
	})
	return keyID, err
}

// Address 返回链在指定路径 (为空时为默认路径) 上的地址，结果按 (链, 路径) 缓存
func (w *Wallet) Address(chainID, path string) (address.Address, error) {
	if path == "" {
		var err error
		if path, err = w.DefaultPath(chainID, 0); err != nil {
			return address.Address{}, err
		}
	}
	w.mu.RLock()
	closed := w.closed
	w.mu.RUnlock()
	if closed {
		return address.Address{}, errno.ErrKeyDestroyed
	}
	if addr, ok := w.addrs.Get(chainID, path); ok {
		return addr, nil
	}

	var addr address.Address
	err := w.withKey(chainID, path, func(adapter chain.ChainAdapter, key signer.Signer) error {
		var err error
		if addr, err = adapter.Address(key); err != nil {
			return err
		}
		// 在读锁内写入，Destroy 的 Flush 之后不会再有新条目
		w.addrs.Set(chainID, path, addr)
		return nil
	})
	return addr, err
}

func (w *Wallet) SignTransaction(chainID, path string, tx chain.RawTransaction) (*chain.SignedTransaction, error) {
	var st *chain.SignedTransaction
	err := w.withKey(chainID, path, func(adapter chain.ChainAdapter, key signer.Signer) error {
		var err error
		st, err = adapter.SignTransaction(tx, key)
		return err
	})
	return st, err
}

func (w *Wallet) SignMessage(chainID, path string, msg []byte) (*signature.Signature, error) {
	var sig *signature.Signature
	err := w.withKey(chainID, path, func(adapter chain.ChainAdapter, key signer.Signer) error {
		var err error
		sig, err = adapter.SignMessage(msg, key)
		return err
	})
	return sig, err
}

// Destroy 销毁主密钥，之后所有操作返回 KeyDestroyed
func (w *Wallet) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range w.masters {
		m.Destroy()
	}
	if w.addrs != nil {
		w.addrs.Flush()
	}
	w.closed = true
}
