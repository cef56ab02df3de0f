package bip32

import (
	"bytes"
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"

	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/safe_random"
	"wallet-sdk/pkg/signature"
	"wallet-sdk/pkg/signer"
)

// ExtendedKey 是扩展私钥: 32 字节私钥 + 32 字节链码 + 派生路径。
// 满足 len(path) == Depth()。私钥与链码不对外暴露，Destroy 后被清除。
type ExtendedKey struct {
	mu        sync.RWMutex
	scheme    signature.Scheme
	key       []byte
	chainCode []byte
	path      []uint32
	destroyed bool
}

func newExtendedKey(scheme signature.Scheme, key, chainCode []byte, path []uint32) *ExtendedKey {
	return &ExtendedKey{
		scheme:    scheme,
		key:       bytes.Clone(key),
		chainCode: bytes.Clone(chainCode),
		path:      path,
	}
}

func (k *ExtendedKey) Scheme() signature.Scheme { return k.scheme }

// Depth 等于路径长度，主密钥为 0
func (k *ExtendedKey) Depth() int { return len(k.path) }

// Path 返回派生路径的拷贝
func (k *ExtendedKey) Path() []uint32 {
	return append([]uint32(nil), k.path...)
}

func (k *ExtendedKey) PathString() string { return FormatPath(k.path) }

// PublicKey 返回该节点的公钥
func (k *ExtendedKey) PublicKey() (signature.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.destroyed {
		return signature.PublicKey{}, errno.ErrKeyDestroyed
	}
	switch k.scheme {
	case signature.SchemeSecp256k1:
		priv, pub := btcec.PrivKeyFromBytes(k.key)
		defer priv.Zero()
		return signature.NewPublicKey(k.scheme, pub.SerializeCompressed())
	default:
		sk, err := signer.New(k.scheme, k.key)
		if err != nil {
			return signature.PublicKey{}, err
		}
		defer sk.Destroy()
		return sk.PublicKey()
	}
}

// SigningKey 返回私钥的临时拷贝，调用方负责 Destroy。
func (k *ExtendedKey) SigningKey() (*signer.SigningKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.destroyed {
		return nil, errno.ErrKeyDestroyed
	}
	return signer.New(k.scheme, k.key)
}

// WithSigningKey 在 fn 执行期间提供临时签名密钥，结束后 (包括出错与 panic) 销毁。
func (k *ExtendedKey) WithSigningKey(fn func(*signer.SigningKey) error) error {
	sk, err := k.SigningKey()
	if err != nil {
		return err
	}
	defer sk.Destroy()
	return fn(sk)
}

// Equal 常量时间比较私钥、链码与路径
func (k *ExtendedKey) Equal(o *ExtendedKey) bool {
	if k == o {
		return true
	}
	if k.scheme != o.scheme || FormatPath(k.path) != FormatPath(o.path) {
		return false
	}
	// 先复制一方，避免同时持有两把锁
	k.mu.RLock()
	if k.destroyed {
		k.mu.RUnlock()
		return false
	}
	snapshot := append(bytes.Clone(k.key), k.chainCode...)
	k.mu.RUnlock()
	defer safe_random.Wipe(snapshot)

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.destroyed {
		return false
	}
	return subtle.ConstantTimeCompare(snapshot[:len(o.key)], o.key) == 1 &&
		subtle.ConstantTimeCompare(snapshot[len(o.key):], o.chainCode) == 1
}

// Destroy 清除私钥与链码，可重复调用
func (k *ExtendedKey) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return
	}
	safe_random.WipeAll(k.key, k.chainCode)
	k.key, k.chainCode = nil, nil
	k.destroyed = true
}

func (k *ExtendedKey) Destroyed() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.destroyed
}

func (k *ExtendedKey) String() string {
	return fmt.Sprintf("ExtendedKey(%s, %s)", k.scheme, k.PathString())
}

func (k *ExtendedKey) GoString() string { return k.String() }
