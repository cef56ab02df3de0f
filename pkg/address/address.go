package address

import (
	"bytes"

	"wallet-sdk/pkg/signature"
)

// Family 地址族，决定编码方式
type Family string

const (
	FamilyEVM     Family = "evm"
	FamilyBitcoin Family = "bitcoin"
	FamilyTron    Family = "tron"
	FamilySolana  Family = "solana"
)

// Type 地址类型。账户模型链统一为 TypeAccount。
type Type uint8

const (
	TypeAccount Type = iota
	TypeP2PKH
	TypeP2SH
	TypeP2WPKH
	TypeP2WSH
	TypeP2TR
)

func (t Type) String() string {
	switch t {
	case TypeAccount:
		return "account"
	case TypeP2PKH:
		return "p2pkh"
	case TypeP2SH:
		return "p2sh"
	case TypeP2WPKH:
		return "p2wpkh"
	case TypeP2WSH:
		return "p2wsh"
	case TypeP2TR:
		return "p2tr"
	default:
		return "unknown"
	}
}

// Address 是不可变的地址值: 原始负载 + 规范字符串。
//
// 负载: EVM 20 字节; TRON 与比特币 Base58 地址为 版本字节||20 字节哈希;
// SegWit/Taproot 为见证程序; Solana 为 32 字节公钥。
type Address struct {
	family  Family
	kind    Type
	payload []byte
	text    string
}

func newAddress(family Family, kind Type, payload []byte, text string) Address {
	return Address{family: family, kind: kind, payload: bytes.Clone(payload), text: text}
}

func (a Address) Family() Family { return a.family }

func (a Address) Type() Type { return a.kind }

// Bytes 返回负载的拷贝
func (a Address) Bytes() []byte { return bytes.Clone(a.payload) }

func (a Address) String() string { return a.text }

func (a Address) IsZero() bool { return len(a.payload) == 0 }

// Equal 按地址族、类型与负载字节比较
func (a Address) Equal(b Address) bool {
	return a.family == b.family && a.kind == b.kind && bytes.Equal(a.payload, b.payload)
}

// MarshalText 输出规范字符串
func (a Address) MarshalText() ([]byte, error) { return []byte(a.text), nil }

// Codec 是单个地址族的编解码契约
type Codec interface {
	Family() Family
	// Encode 由公钥生成地址
	Encode(pub signature.PublicKey) (Address, error)
	// Parse 解析并校验地址字符串
	Parse(s string) (Address, error)
	// IsValid 等价于 Parse 不返回错误
	IsValid(s string) bool
}
