package signer

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/monitor"
	"wallet-sdk/pkg/safe_random"
	"wallet-sdk/pkg/signature"
)

// KeyLength 私钥 (secp256k1 标量 / ed25519 种子) 长度
const KeyLength = 32

// Signer 是签名能力: 可签名、可取公钥，但不暴露私钥字节。
type Signer interface {
	Scheme() signature.Scheme
	PublicKey() (signature.PublicKey, error)
	// Sign 对摘要签名。secp256k1 要求 32 字节摘要; ed25519 直接签名原始消息。
	Sign(digest []byte) (*signature.Signature, error)
}

// SigningKey 独占持有私钥字节。
// Destroy 之后所有操作返回 errno.ErrKeyDestroyed，私钥缓冲区被随机覆盖后清零。
type SigningKey struct {
	mu        sync.RWMutex
	scheme    signature.Scheme
	key       []byte
	pub       signature.PublicKey
	destroyed bool
}

var _ Signer = (*SigningKey)(nil)

// New 拷贝 raw 创建签名密钥，调用方负责销毁自己持有的 raw。
func New(scheme signature.Scheme, raw []byte) (*SigningKey, error) {
	if len(raw) != KeyLength {
		return nil, errno.Newf(errno.ErrInvalidInput, "private key must be %d bytes, got %d", KeyLength, len(raw))
	}

	key := make([]byte, KeyLength)
	copy(key, raw)

	var (
		pub signature.PublicKey
		err error
	)
	switch scheme {
	case signature.SchemeSecp256k1:
		pub, err = secp256k1PublicKey(key)
	case signature.SchemeEd25519:
		pub, err = ed25519PublicKey(key)
	default:
		err = errno.Newf(errno.ErrInvalidInput, "unknown scheme %d", scheme)
	}
	if err != nil {
		safe_random.Wipe(key)
		return nil, err
	}
	return &SigningKey{scheme: scheme, key: key, pub: pub}, nil
}

// Generate 使用安全随机源生成新密钥。
func Generate(scheme signature.Scheme) (*SigningKey, error) {
	switch scheme {
	case signature.SchemeSecp256k1:
		priv, err := btcec.NewPrivateKey()
		if err != nil {
			return nil, fmt.Errorf("生成 secp256k1 私钥失败: %w", err)
		}
		defer priv.Zero()
		raw := priv.Serialize()
		defer safe_random.Wipe(raw)
		return New(scheme, raw)
	case signature.SchemeEd25519:
		raw, err := safe_random.GenerateRandomBytes(ed25519.SeedSize)
		if err != nil {
			return nil, err
		}
		defer safe_random.Wipe(raw)
		return New(scheme, raw)
	default:
		return nil, errno.Newf(errno.ErrInvalidInput, "unknown scheme %d", scheme)
	}
}

// WithKey 以 raw 创建临时密钥执行 fn，任何退出路径都会销毁该密钥。
func WithKey(scheme signature.Scheme, raw []byte, fn func(*SigningKey) error) error {
	key, err := New(scheme, raw)
	if err != nil {
		return err
	}
	defer key.Destroy()
	return fn(key)
}

func (k *SigningKey) Scheme() signature.Scheme { return k.scheme }

func (k *SigningKey) PublicKey() (signature.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.destroyed {
		return signature.PublicKey{}, errno.ErrKeyDestroyed
	}
	return k.pub, nil
}

func (k *SigningKey) Sign(digest []byte) (*signature.Signature, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.destroyed {
		return nil, errno.ErrKeyDestroyed
	}

	switch k.scheme {
	case signature.SchemeSecp256k1:
		if len(digest) != 32 {
			return nil, errno.Newf(errno.ErrInvalidInput, "digest must be 32 bytes, got %d", len(digest))
		}
		priv, _ := btcec.PrivKeyFromBytes(k.key)
		defer priv.Zero()
		// 首字节为 27+recId，RFC6979 确定性 nonce，low-S
		compact := ecdsa.SignCompact(priv, digest, false)
		return signature.NewECDSA(compact[1:33], compact[33:65], uint64(compact[0]-27))
	case signature.SchemeEd25519:
		priv := ed25519.NewKeyFromSeed(k.key)
		defer safe_random.Wipe(priv)
		return signature.NewEd25519(ed25519.Sign(priv, digest))
	default:
		return nil, errno.Newf(errno.ErrInvalidInput, "unknown scheme %d", k.scheme)
	}
}

// Verify 使用本密钥的公钥校验签名。
func (k *SigningKey) Verify(digest []byte, sig *signature.Signature) (bool, error) {
	pub, err := k.PublicKey()
	if err != nil {
		return false, err
	}
	if sig == nil {
		return false, errno.Newf(errno.ErrInvalidInput, "nil signature")
	}
	return sig.Verify(pub, digest), nil
}

// Destroy 销毁私钥，可重复调用。
func (k *SigningKey) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return
	}
	safe_random.Wipe(k.key)
	k.key = nil
	k.destroyed = true
	monitor.KeysDestroyedTotal.Inc()
}

func (k *SigningKey) Destroyed() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.destroyed
}

func (k *SigningKey) String() string {
	return fmt.Sprintf("SigningKey(%s, destroyed=%t)", k.scheme, k.Destroyed())
}

func (k *SigningKey) GoString() string { return k.String() }

// MarshalJSON 拒绝序列化私钥。
func (k *SigningKey) MarshalJSON() ([]byte, error) {
	return nil, errors.New("signing key cannot be serialized")
}

func secp256k1PublicKey(key []byte) (signature.PublicKey, error) {
	var scalar btcec.ModNScalar
	overflow := scalar.SetByteSlice(key)
	zero := scalar.IsZero()
	scalar.Zero()
	if overflow || zero {
		return signature.PublicKey{}, errno.Newf(errno.ErrInvalidInput, "secp256k1 private key out of range")
	}
	priv, pub := btcec.PrivKeyFromBytes(key)
	defer priv.Zero()
	return signature.NewPublicKey(signature.SchemeSecp256k1, pub.SerializeCompressed())
}

func ed25519PublicKey(seed []byte) (signature.PublicKey, error) {
	priv := ed25519.NewKeyFromSeed(seed)
	defer safe_random.Wipe(priv)
	return signature.NewPublicKey(signature.SchemeEd25519, priv.Public().(ed25519.PublicKey))
}
