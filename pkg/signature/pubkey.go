package signature

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"

	"wallet-sdk/pkg/errno"
)

// Scheme 签名算法
type Scheme uint8

const (
	SchemeSecp256k1 Scheme = iota + 1
	SchemeEd25519
)

func (s Scheme) String() string {
	switch s {
	case SchemeSecp256k1:
		return "secp256k1"
	case SchemeEd25519:
		return "ed25519"
	default:
		return "unknown"
	}
}

// PublicKey 是与签名算法绑定的公钥值，不可变。
type PublicKey struct {
	scheme Scheme
	key    []byte // secp256k1: 33 字节压缩格式; ed25519: 32 字节
	full   []byte // secp256k1: 65 字节非压缩格式
}

// NewPublicKey 解析公钥。secp256k1 接受 33 或 65 字节格式，ed25519 要求 32 字节。
func NewPublicKey(scheme Scheme, b []byte) (PublicKey, error) {
	switch scheme {
	case SchemeSecp256k1:
		pk, err := btcec.ParsePubKey(b)
		if err != nil {
			return PublicKey{}, errno.Newf(errno.ErrInvalidInput, "secp256k1 public key: %v", err)
		}
		return PublicKey{scheme: scheme, key: pk.SerializeCompressed(), full: pk.SerializeUncompressed()}, nil
	case SchemeEd25519:
		if len(b) != ed25519.PublicKeySize {
			return PublicKey{}, errno.Newf(errno.ErrInvalidInput, "ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(b))
		}
		return PublicKey{scheme: scheme, key: bytes.Clone(b)}, nil
	default:
		return PublicKey{}, errno.Newf(errno.ErrInvalidInput, "unknown scheme %d", scheme)
	}
}

func (p PublicKey) Scheme() Scheme { return p.scheme }

// Bytes 返回压缩公钥 (secp256k1) 或原始 32 字节公钥 (ed25519) 的拷贝。
func (p PublicKey) Bytes() []byte { return bytes.Clone(p.key) }

// Uncompressed 返回 65 字节 0x04 前缀的非压缩公钥; ed25519 返回原始公钥。
func (p PublicKey) Uncompressed() []byte {
	if p.scheme == SchemeSecp256k1 {
		return bytes.Clone(p.full)
	}
	return bytes.Clone(p.key)
}

func (p PublicKey) Equal(o PublicKey) bool {
	return p.scheme == o.scheme && bytes.Equal(p.key, o.key)
}

func (p PublicKey) IsZero() bool { return len(p.key) == 0 }

func (p PublicKey) Hex() string { return hex.EncodeToString(p.key) }

func (p PublicKey) String() string { return p.scheme.String() + ":" + p.Hex() }

func (p PublicKey) ecPubKey() (*btcec.PublicKey, error) {
	if p.scheme != SchemeSecp256k1 {
		return nil, errno.Newf(errno.ErrSchemeMismatch, "public key is %s", p.scheme)
	}
	return btcec.ParsePubKey(p.key)
}
