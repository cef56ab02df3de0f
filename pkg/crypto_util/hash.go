package crypto_util

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"golang.org/x/crypto/sha3"
)

// 签名消息前缀
const (
	EthereumMessagePrefix = "\x19Ethereum Signed Message:\n"
	TronMessagePrefix     = "\x19TRON Signed Message:\n"
)

// SHA256 计算多段输入拼接后的 SHA256 哈希值。
func SHA256(data ...[]byte) []byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// DoubleSHA256 即 SHA256(SHA256(data))，用于 Base58Check 校验和与比特币交易 ID。
func DoubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}

// Keccak256 计算输入的 Keccak256 哈希值。
// 这是以太坊使用的哈希算法 (非 NIST SHA3-256)。
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// HMACSHA512 是 BIP-32 / SLIP-10 的派生原语。
func HMACSHA512(key, data []byte) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// Hash160 即 RIPEMD160(SHA256(data))。
func Hash160(data []byte) []byte {
	return btcutil.Hash160(data)
}

// PrefixedMessage 按 prefix + 十进制长度 + 消息 拼接待签名消息。
func PrefixedMessage(prefix string, msg []byte) []byte {
	out := make([]byte, 0, len(prefix)+8+len(msg))
	out = append(out, prefix...)
	out = strconv.AppendInt(out, int64(len(msg)), 10)
	return append(out, msg...)
}

// CalculateSHA256 返回 SHA256 的 Hex 字符串。
func CalculateSHA256(data []byte) string {
	return hex.EncodeToString(SHA256(data))
}

// CalculateKeccak256 返回 Keccak256 的 Hex 字符串。
func CalculateKeccak256(data []byte) string {
	return hex.EncodeToString(Keccak256(data))
}
