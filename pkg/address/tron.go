package address

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"

	"wallet-sdk/pkg/crypto_util"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signature"
)

const (
	// TronAddressVersion 主网地址版本字节
	TronAddressVersion byte = 0x41
	// TronAddressLength 版本字节 + 20 字节账户哈希
	TronAddressLength = 21
)

// TronCodec TRON 地址: Base58Check(0x41 || Keccak256(pub)[12:])
type TronCodec struct{}

func NewTronCodec() *TronCodec {
	return &TronCodec{}
}

func (c *TronCodec) Family() Family { return FamilyTron }

func (c *TronCodec) Encode(pub signature.PublicKey) (Address, error) {
	if pub.Scheme() != signature.SchemeSecp256k1 {
		return Address{}, errno.Newf(errno.ErrSchemeMismatch, "tron address requires secp256k1 key, got %s", pub.Scheme())
	}
	full := pub.Uncompressed()
	hash := crypto_util.Keccak256(full[1:])
	return c.FromHash(hash[12:])
}

// FromHash 由 20 字节账户哈希构造
func (c *TronCodec) FromHash(hash []byte) (Address, error) {
	if len(hash) != 20 {
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "tron account hash must be 20 bytes, got %d", len(hash))
	}
	payload := append([]byte{TronAddressVersion}, hash...)
	return newAddress(FamilyTron, TypeAccount, payload, base58.CheckEncode(hash, TronAddressVersion)), nil
}

// FromPayload 由 21 字节 version||hash 构造
func (c *TronCodec) FromPayload(b []byte) (Address, error) {
	if len(b) != TronAddressLength || b[0] != TronAddressVersion {
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "tron payload must be 0x41 followed by 20 bytes")
	}
	return c.FromHash(b[1:])
}

// Parse 接受 Base58Check ("T..." ) 或 21 字节十六进制 ("41..." / "0x41...")
func (c *TronCodec) Parse(s string) (Address, error) {
	if raw, ok := parseTronHex(s); ok {
		return c.FromHash(raw[1:])
	}
	hash, version, err := base58.CheckDecode(s)
	if err != nil {
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "base58check %q: %v", s, err)
	}
	if version != TronAddressVersion {
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "tron address %q has version 0x%02x", s, version)
	}
	return c.FromHash(hash)
}

func (c *TronCodec) IsValid(s string) bool {
	_, err := c.Parse(s)
	return err == nil
}

// TronHex 返回节点 API 使用的 41 开头十六进制形式
func TronHex(a Address) string {
	return hex.EncodeToString(a.payload)
}

func parseTronHex(s string) ([]byte, bool) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*TronAddressLength {
		return nil, false
	}
	raw, err := hex.DecodeString(s)
	if err != nil || raw[0] != TronAddressVersion {
		return nil, false
	}
	return raw, true
}
