package address

import (
	"encoding/hex"
	"strings"

	"wallet-sdk/pkg/crypto_util"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signature"
)

// EVMAddressLength EVM 地址字节数
const EVMAddressLength = 20

// EVMCodec 以太坊及兼容链地址编解码 (EIP-55)
type EVMCodec struct{}

func NewEVMCodec() *EVMCodec {
	return &EVMCodec{}
}

func (c *EVMCodec) Family() Family { return FamilyEVM }

// Encode 取 Keccak256(非压缩公钥去掉 0x04 前缀) 的后 20 字节
func (c *EVMCodec) Encode(pub signature.PublicKey) (Address, error) {
	if pub.Scheme() != signature.SchemeSecp256k1 {
		return Address{}, errno.Newf(errno.ErrSchemeMismatch, "evm address requires secp256k1 key, got %s", pub.Scheme())
	}
	full := pub.Uncompressed()
	hash := crypto_util.Keccak256(full[1:])
	return c.FromPayload(hash[12:])
}

// FromPayload 由 20 字节地址构造
func (c *EVMCodec) FromPayload(b []byte) (Address, error) {
	if len(b) != EVMAddressLength {
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "evm address must be %d bytes, got %d", EVMAddressLength, len(b))
	}
	return newAddress(FamilyEVM, TypeAccount, b, "0x"+toChecksumAddress(hex.EncodeToString(b))), nil
}

// Parse 接受全小写/全大写 (无校验和) 或 EIP-55 校验和正确的混合大小写地址
func (c *EVMCodec) Parse(s string) (Address, error) {
	body, ok := trimHexPrefix(s)
	if !ok || len(body) != 2*EVMAddressLength {
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "evm address %q must be 0x + 40 hex chars", s)
	}
	raw, err := hex.DecodeString(body)
	if err != nil {
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "evm address %q: %v", s, err)
	}
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && !VerifyChecksum(s) {
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "evm address %q has invalid EIP-55 checksum", s)
	}
	return c.FromPayload(raw)
}

func (c *EVMCodec) IsValid(s string) bool {
	_, err := c.Parse(s)
	return err == nil
}

// ChecksumHex 对 40 位十六进制地址 (可带 0x) 应用 EIP-55，返回带 0x 前缀的结果
func ChecksumHex(s string) (string, error) {
	body, ok := trimHexPrefix(s)
	if !ok || len(body) != 2*EVMAddressLength {
		return "", errno.Newf(errno.ErrInvalidAddress, "evm address %q must be 40 hex chars", s)
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", errno.Newf(errno.ErrInvalidAddress, "evm address %q: %v", s, err)
	}
	return "0x" + toChecksumAddress(body), nil
}

// VerifyChecksum 重新计算 EIP-55 并要求大小写完全一致
func VerifyChecksum(s string) bool {
	body, ok := trimHexPrefix(s)
	if !ok || len(body) != 2*EVMAddressLength {
		return false
	}
	if _, err := hex.DecodeString(body); err != nil {
		return false
	}
	return toChecksumAddress(body) == body
}

func trimHexPrefix(s string) (string, bool) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:], true
	}
	return s, len(s) == 2*EVMAddressLength
}

// toChecksumAddress 实现 EIP-55 混合大小写校验
func toChecksumAddress(address string) string {
	address = strings.ToLower(address)
	hash := crypto_util.Keccak256([]byte(address))
	hexHash := hex.EncodeToString(hash)

	var sb strings.Builder
	sb.Grow(len(address))
	for i := 0; i < len(address); i++ {
		char := address[i]
		// 字母位: hash 对应半字节 >= 8 时大写
		if char >= 'a' && char <= 'f' && hexCharToInt(hexHash[i]) >= 8 {
			sb.WriteByte(char - 'a' + 'A')
		} else {
			sb.WriteByte(char)
		}
	}
	return sb.String()
}

func hexCharToInt(c byte) byte {
	if c >= '0' && c <= '9' {
		return c - '0'
	}
	if c >= 'a' && c <= 'f' {
		return c - 'a' + 10
	}
	return 0
}
