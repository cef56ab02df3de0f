// Package tron TRON 适配器: protobuf 交易编码，SHA256(raw) 签名，TRON 消息签名。
package tron

import (
	"encoding/hex"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/chain"
	"wallet-sdk/pkg/crypto_util"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signature"
	"wallet-sdk/pkg/signer"
)

type Adapter struct {
	id       string
	codec    *address.TronCodec
	pipeline *chain.Pipeline[*Transaction]
}

var _ chain.ChainAdapter = (*Adapter)(nil)

func NewAdapter(id string) *Adapter {
	a := &Adapter{id: id, codec: address.NewTronCodec()}
	a.pipeline = &chain.Pipeline[*Transaction]{
		Chain:  id,
		Scheme: signature.SchemeSecp256k1,
		Codec:  a.codec,
		Encode: func(tx *Transaction, pubs []signature.PublicKey) ([][]byte, error) {
			if err := a.checkOwner(tx, pubs[0]); err != nil {
				return nil, err
			}
			return [][]byte{tx.RawData()}, nil
		},
		Hash: func(raw []byte) []byte { return crypto_util.SHA256(raw) },
		Normalize: func(_ *Transaction, sig *signature.Signature) (*signature.Signature, error) {
			return sig.ToLegacy()
		},
		Assemble: func(tx *Transaction, sigs []*signature.Signature, _ []signature.PublicKey) ([]byte, error) {
			return SignedPayload(tx, sigs)
		},
		// 交易哈希取 raw 而不是完整签名字节
		TxHash: func(tx *Transaction, _ []byte, _ []*signature.Signature) ([]byte, error) {
			return tx.TxID(), nil
		},
		FormatID: hex.EncodeToString,
	}
	return a
}

func (a *Adapter) ChainID() string { return a.id }

func (a *Adapter) Family() address.Family { return address.FamilyTron }

func (a *Adapter) Scheme() signature.Scheme { return signature.SchemeSecp256k1 }

func (a *Adapter) AddressCodec() address.Codec { return a.codec }

func (a *Adapter) Address(key signer.Signer) (address.Address, error) {
	return chain.SenderAddress(a.id, signature.SchemeSecp256k1, a.codec, key)
}

// SignTransaction 多个签名者时按顺序追加签名 (多重签名权限)，
// 第一个签名者必须是合约 owner
func (a *Adapter) SignTransaction(raw chain.RawTransaction, keys ...signer.Signer) (*chain.SignedTransaction, error) {
	tx, ok := raw.(*Transaction)
	if !ok || tx == nil {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "%s: expected *tron.Transaction, got %T", a.id, raw)
	}
	return a.pipeline.Run(tx, keys...)
}

func (a *Adapter) checkOwner(tx *Transaction, pub signature.PublicKey) error {
	owner, err := a.codec.Encode(pub)
	if err != nil {
		return err
	}
	if !owner.Equal(tx.contract.Owner()) {
		return errno.Newf(errno.ErrInvalidTransaction, "%s: signer %s is not the contract owner %s", a.id, owner, tx.contract.Owner())
	}
	return nil
}

// MessageHash SHA256("\x19TRON Signed Message:\n" + len + msg)
func (a *Adapter) MessageHash(msg []byte) []byte {
	return MessageHash(msg)
}

// SignMessage 返回 v 为 27/28 的签名
func (a *Adapter) SignMessage(msg []byte, key signer.Signer) (*signature.Signature, error) {
	sig, err := chain.SignDigest(a.id, signature.SchemeSecp256k1, key, MessageHash(msg))
	if err != nil {
		return nil, err
	}
	return sig.ToLegacy()
}

func MessageHash(msg []byte) []byte {
	return crypto_util.SHA256(crypto_util.PrefixedMessage(crypto_util.TronMessagePrefix, msg))
}

// RecoverSigner 从 SHA256 摘要与签名恢复 TRON 地址
func RecoverSigner(digest []byte, sig *signature.Signature) (address.Address, error) {
	pub, err := sig.Recover(digest)
	if err != nil {
		return address.Address{}, err
	}
	return address.NewTronCodec().Encode(pub)
}
