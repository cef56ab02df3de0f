package bip32

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"go.uber.org/zap"

	"wallet-sdk/pkg/crypto_util"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/logger"
	"wallet-sdk/pkg/monitor"
	"wallet-sdk/pkg/safe_random"
	"wallet-sdk/pkg/signature"
)

// MaxDeriveAttempts 子密钥无效时最多尝试的索引个数。
// 单次命中概率低于 2^-127，超出即视为派生失败。
const MaxDeriveAttempts = 8

var (
	ed25519SeedKey = []byte("ed25519 seed")

	hmacSHA512 = crypto_util.HMACSHA512

	// 测试中可替换以构造无效主密钥或无效子密钥
	newHDMaster = hdkeychain.NewMaster
	deriveHD    = (*hdkeychain.ExtendedKey).Derive
)

// MasterKeyFromSeed 按 BIP-32 生成 secp256k1 主密钥。
func MasterKeyFromSeed(seed []byte) (*ExtendedKey, error) {
	return NewMasterKey(signature.SchemeSecp256k1, seed)
}

// Ed25519MasterKeyFromSeed 按 SLIP-10 生成 Ed25519 主密钥。
func Ed25519MasterKeyFromSeed(seed []byte) (*ExtendedKey, error) {
	return NewMasterKey(signature.SchemeEd25519, seed)
}

// NewMasterKey 由 BIP-39 种子 (16~64 字节) 生成主密钥。
func NewMasterKey(scheme signature.Scheme, seed []byte) (*ExtendedKey, error) {
	if len(seed) < 16 || len(seed) > 64 {
		return nil, errno.Newf(errno.ErrInvalidInput, "seed must be 16..64 bytes, got %d", len(seed))
	}

	switch scheme {
	case signature.SchemeSecp256k1:
		return secp256k1Master(seed)
	case signature.SchemeEd25519:
		I := hmacSHA512(ed25519SeedKey, seed)
		defer safe_random.Wipe(I)
		return newExtendedKey(scheme, I[:32], I[32:], []uint32{}), nil
	default:
		return nil, errno.Newf(errno.ErrInvalidInput, "unknown scheme %d", scheme)
	}
}

func secp256k1Master(seed []byte) (*ExtendedKey, error) {
	hd, err := newHDMaster(seed, &chaincfg.MainNetParams)
	switch {
	case errors.Is(err, hdkeychain.ErrUnusableSeed):
		return nil, errno.ErrInvalidMasterKey
	case err != nil:
		return nil, errno.Newf(errno.ErrInvalidInput, "%v", err)
	}
	defer hd.Zero()
	return fromHD(hd, []uint32{})
}

// fromHD 拷贝 hdkeychain 私钥与链码，私钥左补零到 32 字节
func fromHD(hd *hdkeychain.ExtendedKey, path []uint32) (*ExtendedKey, error) {
	priv, err := hd.ECPrivKey()
	if err != nil {
		return nil, errno.Newf(errno.ErrDerivationFailure, "%v", err)
	}
	defer priv.Zero()
	if priv.Key.IsZero() {
		return nil, hdkeychain.ErrInvalidChild
	}
	key := priv.Key.Bytes()
	defer safe_random.Wipe(key[:])
	chainCode := hd.ChainCode()
	defer safe_random.Wipe(chainCode)
	return newExtendedKey(signature.SchemeSecp256k1, key[:], chainCode, path), nil
}

// DeriveChild 派生子密钥，不会销毁 parent。
func DeriveChild(parent *ExtendedKey, index uint32) (*ExtendedKey, error) {
	return parent.Derive(index)
}

// Derive 派生索引为 index 的子密钥。
// secp256k1: IL >= n 或子密钥为 0 时改用 index+1 重试，返回密钥的路径记录实际使用的索引。
// ed25519: 仅支持硬化派生。
func (k *ExtendedKey) Derive(index uint32) (*ExtendedKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.destroyed {
		return nil, errno.ErrKeyDestroyed
	}

	switch k.scheme {
	case signature.SchemeSecp256k1:
		return k.deriveSecp256k1(index)
	case signature.SchemeEd25519:
		return k.deriveEd25519(index)
	default:
		return nil, errno.Newf(errno.ErrDerivationFailure, "unknown scheme %d", k.scheme)
	}
}

func (k *ExtendedKey) deriveSecp256k1(index uint32) (*ExtendedKey, error) {
	// 深度与父指纹不参与私钥派生，路径由 ExtendedKey 自行记录
	parent := hdkeychain.NewExtendedKey(chaincfg.MainNetParams.HDPrivateKeyID[:],
		bytes.Clone(k.key), bytes.Clone(k.chainCode), []byte{0, 0, 0, 0}, 0, 0, true)
	defer parent.Zero()

	for attempt := 0; attempt < MaxDeriveAttempts; attempt++ {
		if attempt > 0 {
			next := index + 1
			// 不允许跨越硬化边界或溢出
			if next == 0 || IsHardened(next) != IsHardened(index) {
				break
			}
			index = next
		}

		child, err := deriveHD(parent, index)
		var out *ExtendedKey
		if err == nil {
			out, err = fromHD(child, k.childPath(index))
			child.Zero()
		}
		if errors.Is(err, hdkeychain.ErrInvalidChild) {
			monitor.DerivationRetriesTotal.Inc()
			logger.Warn("bip32 child key invalid, retrying at next index",
				zap.String("parent", k.PathString()), zap.Uint32("index", index))
			continue
		}
		if err != nil {
			return nil, errno.Newf(errno.ErrDerivationFailure, "%v", err)
		}
		return out, nil
	}
	return nil, errno.Newf(errno.ErrDerivationFailure, "no valid child key near index %d of %s", index, k.PathString())
}

func (k *ExtendedKey) deriveEd25519(index uint32) (*ExtendedKey, error) {
	if !IsHardened(index) {
		return nil, errno.Newf(errno.ErrHardenedOnly, "ed25519 index %d is not hardened", index)
	}
	data := make([]byte, 37)
	defer safe_random.Wipe(data)
	copy(data[1:33], k.key)
	binary.BigEndian.PutUint32(data[33:], index)

	I := hmacSHA512(k.chainCode, data)
	defer safe_random.Wipe(I)
	return newExtendedKey(k.scheme, I[:32], I[32:], k.childPath(index)), nil
}

func (k *ExtendedKey) childPath(index uint32) []uint32 {
	path := make([]uint32, len(k.path), len(k.path)+1)
	copy(path, k.path)
	return append(path, index)
}

// DerivePath 从 master 按路径派生，中间节点在使用后销毁，master 保持不变。
func DerivePath(master *ExtendedKey, path string) (*ExtendedKey, error) {
	indexes, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return DeriveIndexes(master, indexes)
}

// DeriveIndexes 按索引序列派生。
func DeriveIndexes(master *ExtendedKey, indexes []uint32) (*ExtendedKey, error) {
	if len(indexes) == 0 {
		master.mu.RLock()
		defer master.mu.RUnlock()
		if master.destroyed {
			return nil, errno.ErrKeyDestroyed
		}
		return newExtendedKey(master.scheme, master.key, master.chainCode, master.Path()), nil
	}

	current := master
	for _, index := range indexes {
		next, err := current.Derive(index)
		if current != master {
			current.Destroy()
		}
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}
