// Package solana Solana 适配器: legacy 消息编译，Ed25519 直接对消息字节签名。
package solana

import (
	"bytes"

	solanago "github.com/gagliardetto/solana-go"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/chain"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signature"
	"wallet-sdk/pkg/signer"
)

type Adapter struct {
	id       string
	codec    *address.SolanaCodec
	pipeline *chain.Pipeline[*Transaction]
}

var _ chain.ChainAdapter = (*Adapter)(nil)

func NewAdapter(id string) *Adapter {
	a := &Adapter{id: id, codec: address.NewSolanaCodec()}
	a.pipeline = &chain.Pipeline[*Transaction]{
		Chain:  id,
		Scheme: signature.SchemeEd25519,
		Codec:  a.codec,
		Encode: func(tx *Transaction, pubs []signature.PublicKey) ([][]byte, error) {
			if _, err := a.signerOrder(tx, pubs); err != nil {
				return nil, err
			}
			return [][]byte{tx.MessageBytes()}, nil
		},
		Assemble: func(tx *Transaction, sigs []*signature.Signature, pubs []signature.PublicKey) ([]byte, error) {
			order, err := a.signerOrder(tx, pubs)
			if err != nil {
				return nil, err
			}
			ordered := make([]*signature.Signature, len(order))
			for slot, key := range order {
				ordered[slot] = sigs[key]
			}
			return SignedPayload(tx, ordered)
		},
		// 交易 ID 是费用支付者的签名
		TxHash: func(_ *Transaction, _ []byte, sigs []*signature.Signature) ([]byte, error) {
			return sigs[0].Bytes(), nil
		},
		FormatID: func(h []byte) string {
			return solanago.SignatureFromBytes(h).String()
		},
	}
	return a
}

func (a *Adapter) ChainID() string { return a.id }

func (a *Adapter) Family() address.Family { return address.FamilySolana }

func (a *Adapter) Scheme() signature.Scheme { return signature.SchemeEd25519 }

func (a *Adapter) AddressCodec() address.Codec { return a.codec }

func (a *Adapter) Address(key signer.Signer) (address.Address, error) {
	return chain.SenderAddress(a.id, signature.SchemeEd25519, a.codec, key)
}

// SignTransaction 第一个密钥必须是费用支付者，其余密钥可任意顺序，
// 组装时按消息中的签名者顺序排列
func (a *Adapter) SignTransaction(raw chain.RawTransaction, keys ...signer.Signer) (*chain.SignedTransaction, error) {
	tx, ok := raw.(*Transaction)
	if !ok || tx == nil {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "%s: expected *solana.Transaction, got %T", a.id, raw)
	}
	return a.pipeline.Run(tx, keys...)
}

// signerOrder 返回每个签名槽位对应的密钥下标
func (a *Adapter) signerOrder(tx *Transaction, pubs []signature.PublicKey) ([]int, error) {
	required := tx.message.Signers()
	if len(pubs) != len(required) {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "%s: transaction requires %d signers, got %d keys", a.id, len(required), len(pubs))
	}
	if !bytes.Equal(pubs[0].Bytes(), tx.feePayer[:]) {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "%s: first key must be the fee payer %s", a.id, tx.feePayer)
	}
	order := make([]int, len(required))
	used := make([]bool, len(pubs))
	for slot, want := range required {
		found := -1
		for i, pub := range pubs {
			if !used[i] && bytes.Equal(pub.Bytes(), want[:]) {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, errno.Newf(errno.ErrInvalidTransaction, "%s: missing key for signer %s", a.id, want)
		}
		used[found] = true
		order[slot] = found
	}
	return order, nil
}

// MessageHash Ed25519 对原始消息签名，不做哈希
func (a *Adapter) MessageHash(msg []byte) []byte {
	return bytes.Clone(msg)
}

func (a *Adapter) SignMessage(msg []byte, key signer.Signer) (*signature.Signature, error) {
	return chain.SignDigest(a.id, signature.SchemeEd25519, key, msg)
}

// VerifyMessage 用地址中的公钥校验链下消息签名
func VerifyMessage(addr address.Address, msg []byte, sig *signature.Signature) (bool, error) {
	if addr.Family() != address.FamilySolana {
		return false, errno.Newf(errno.ErrInvalidAddress, "not a solana address: %s", addr)
	}
	pub, err := signature.NewPublicKey(signature.SchemeEd25519, addr.Bytes())
	if err != nil {
		return false, err
	}
	if sig == nil {
		return false, errno.Newf(errno.ErrInvalidSignature, "nil signature")
	}
	return sig.Verify(pub, msg), nil
}
