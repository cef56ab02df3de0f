package signature

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"math"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"wallet-sdk/pkg/errno"
)

const (
	// CompactLength r(32) || s(32) || v(1)
	CompactLength = 65
	// Ed25519Length 原始 Ed25519 签名长度
	Ed25519Length = ed25519.SignatureSize

	legacyBase = 27
	eip155Base = 35
)

// Signature 是 ECDSA (r, s, v) 或 64 字节 Ed25519 签名，不可变。
//
// v 可能是恢复 ID (0/1)、传统值 (27/28) 或 EIP-155 值 (chainId*2+35+recId)，
// 后者可能超过一个字节。
type Signature struct {
	scheme Scheme
	r, s   [32]byte
	v      uint64
	ed     [Ed25519Length]byte
}

// NewECDSA 由 r、s (不超过 32 字节，大端) 和 v 构造签名。
func NewECDSA(r, s []byte, v uint64) (*Signature, error) {
	if len(r) == 0 || len(r) > 32 || len(s) == 0 || len(s) > 32 {
		return nil, errno.Newf(errno.ErrInvalidSignature, "r/s must be 1..32 bytes, got %d/%d", len(r), len(s))
	}
	sig := &Signature{scheme: SchemeSecp256k1, v: v}
	copy(sig.r[32-len(r):], r)
	copy(sig.s[32-len(s):], s)
	if sig.r == [32]byte{} || sig.s == [32]byte{} {
		return nil, errno.Newf(errno.ErrInvalidSignature, "r and s must be non-zero")
	}
	return sig, nil
}

// NewEd25519 包装 64 字节 Ed25519 签名。
func NewEd25519(b []byte) (*Signature, error) {
	if len(b) != Ed25519Length {
		return nil, errno.Newf(errno.ErrInvalidSignature, "ed25519 signature must be %d bytes, got %d", Ed25519Length, len(b))
	}
	sig := &Signature{scheme: SchemeEd25519}
	copy(sig.ed[:], b)
	return sig, nil
}

// FromCompact 从 65 字节 r||s||v 或 64 字节 Ed25519 形式还原签名。
func FromCompact(b []byte) (*Signature, error) {
	switch len(b) {
	case CompactLength:
		return NewECDSA(b[:32], b[32:64], uint64(b[64]))
	case Ed25519Length:
		return NewEd25519(b)
	default:
		return nil, errno.Newf(errno.ErrInvalidSignature, "unexpected signature length %d", len(b))
	}
}

func (sig *Signature) Scheme() Scheme { return sig.scheme }

func (sig *Signature) R() []byte { return bytes.Clone(sig.r[:]) }

func (sig *Signature) S() []byte { return bytes.Clone(sig.s[:]) }

func (sig *Signature) V() uint64 { return sig.v }

// RecoveryID 从 v 推导恢复 ID:
// 0/1 原样返回; 27/28 减 27; >=35 按 EIP-155 取 (v-35) mod 2。
func (sig *Signature) RecoveryID() (byte, error) {
	if sig.scheme != SchemeSecp256k1 {
		return 0, errno.Newf(errno.ErrSchemeMismatch, "%s signatures carry no recovery id", sig.scheme)
	}
	switch {
	case sig.v == 0 || sig.v == 1:
		return byte(sig.v), nil
	case sig.v == legacyBase || sig.v == legacyBase+1:
		return byte(sig.v - legacyBase), nil
	case sig.v >= eip155Base:
		return byte((sig.v - eip155Base) % 2), nil
	default:
		return 0, errno.Newf(errno.ErrInvalidSignature, "cannot derive recovery id from v=%d", sig.v)
	}
}

// ChainID 返回 EIP-155 签名中编码的链 ID。
func (sig *Signature) ChainID() (uint64, bool) {
	if sig.scheme != SchemeSecp256k1 || sig.v < eip155Base {
		return 0, false
	}
	rid := (sig.v - eip155Base) % 2
	return (sig.v - eip155Base - rid) / 2, true
}

// ToEip155 返回 v = chainId*2+35+recId 的新签名。
func (sig *Signature) ToEip155(chainID uint64) (*Signature, error) {
	rid, err := sig.RecoveryID()
	if err != nil {
		return nil, err
	}
	if chainID == 0 || chainID > (math.MaxUint64-eip155Base-1)/2 {
		return nil, errno.Newf(errno.ErrInvalidInput, "chain id %d out of range", chainID)
	}
	out := *sig
	out.v = chainID*2 + eip155Base + uint64(rid)
	return &out, nil
}

// ToLegacy 返回 v = 27+recId 的新签名。
func (sig *Signature) ToLegacy() (*Signature, error) {
	return sig.withV(legacyBase)
}

// ToRecoveryID 返回 v = recId (0/1) 的新签名，用于 EIP-1559 y-parity。
func (sig *Signature) ToRecoveryID() (*Signature, error) {
	return sig.withV(0)
}

func (sig *Signature) withV(base uint64) (*Signature, error) {
	rid, err := sig.RecoveryID()
	if err != nil {
		return nil, err
	}
	out := *sig
	out.v = base + uint64(rid)
	return &out, nil
}

// Bytes 返回规范紧凑形式: ECDSA 为 r||s||v (65 字节)，Ed25519 为 64 字节。
// v 超过一个字节 (EIP-155 大链 ID) 时写入 27+recId。
func (sig *Signature) Bytes() []byte {
	if sig.scheme == SchemeEd25519 {
		return bytes.Clone(sig.ed[:])
	}
	out := make([]byte, CompactLength)
	copy(out, sig.r[:])
	copy(out[32:], sig.s[:])
	if sig.v <= math.MaxUint8 {
		out[64] = byte(sig.v)
	} else {
		rid, _ := sig.RecoveryID()
		out[64] = legacyBase + rid
	}
	return out
}

func (sig *Signature) Hex() string { return hex.EncodeToString(sig.Bytes()) }

func (sig *Signature) Equal(o *Signature) bool {
	if sig == nil || o == nil {
		return sig == o
	}
	return *sig == *o
}

// Recover 从签名与 32 字节摘要恢复 secp256k1 公钥。
func (sig *Signature) Recover(digest []byte) (PublicKey, error) {
	if sig.scheme != SchemeSecp256k1 {
		return PublicKey{}, errno.Newf(errno.ErrRecoveryFailed, "%s signatures are not recoverable", sig.scheme)
	}
	if len(digest) != 32 {
		return PublicKey{}, errno.Newf(errno.ErrInvalidInput, "digest must be 32 bytes, got %d", len(digest))
	}
	rid, err := sig.RecoveryID()
	if err != nil {
		return PublicKey{}, errno.Newf(errno.ErrRecoveryFailed, "%v", err)
	}
	compact := make([]byte, CompactLength)
	compact[0] = legacyBase + rid
	copy(compact[1:], sig.r[:])
	copy(compact[33:], sig.s[:])

	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return PublicKey{}, errno.Newf(errno.ErrRecoveryFailed, "%v", err)
	}
	return PublicKey{scheme: SchemeSecp256k1, key: pub.SerializeCompressed(), full: pub.SerializeUncompressed()}, nil
}

// Verify 校验签名。secp256k1 的 msg 为 32 字节摘要，ed25519 为原始消息。
func (sig *Signature) Verify(pub PublicKey, msg []byte) bool {
	if sig.scheme != pub.scheme {
		return false
	}
	if sig.scheme == SchemeEd25519 {
		return ed25519.Verify(ed25519.PublicKey(pub.key), msg, sig.ed[:])
	}
	ecSig, err := sig.toECDSA()
	if err != nil {
		return false
	}
	pk, err := pub.ecPubKey()
	if err != nil {
		return false
	}
	return ecSig.Verify(msg, pk)
}

// DER 返回比特币脚本使用的 DER 编码 (不含 sighash 类型字节)。
func (sig *Signature) DER() ([]byte, error) {
	ecSig, err := sig.toECDSA()
	if err != nil {
		return nil, err
	}
	return ecSig.Serialize(), nil
}

func (sig *Signature) toECDSA() (*ecdsa.Signature, error) {
	if sig.scheme != SchemeSecp256k1 {
		return nil, errno.Newf(errno.ErrSchemeMismatch, "not an ecdsa signature")
	}
	var r, s btcec.ModNScalar
	if r.SetByteSlice(sig.r[:]) || s.SetByteSlice(sig.s[:]) {
		return nil, errno.Newf(errno.ErrInvalidSignature, "r or s overflows the curve order")
	}
	return ecdsa.NewSignature(&r, &s), nil
}
