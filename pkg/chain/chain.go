package chain

import (
	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/signature"
	"wallet-sdk/pkg/signer"
)

// RawTransaction 是各链不可变的未签名交易
type RawTransaction interface {
	Family() address.Family
}

// ChainAdapter 把链标识绑定到该链的编码、哈希与签名规则上，无状态，可并发共享
type ChainAdapter interface {
	// ChainID Registry 中的链标识，例如 ethereum / tron / solana / bitcoin
	ChainID() string
	Family() address.Family
	// Scheme 该链要求的签名曲线
	Scheme() signature.Scheme
	AddressCodec() address.Codec

	// Address 由签名者公钥推导发送方地址
	Address(key signer.Signer) (address.Address, error)
	// SignTransaction 执行 编码 → 哈希 → 签名 → 组装
	SignTransaction(tx RawTransaction, keys ...signer.Signer) (*SignedTransaction, error)
	// MessageHash 链定义的离线消息哈希
	MessageHash(msg []byte) []byte
	// SignMessage 对离线消息签名
	SignMessage(msg []byte, key signer.Signer) (*signature.Signature, error)
}
