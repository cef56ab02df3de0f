package solana

import (
	"bytes"

	solanago "github.com/gagliardetto/solana-go"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/codec/compact"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signature"
)

// Transaction 不可变的 Solana 未签名交易，构造时即完成消息编译
type Transaction struct {
	feePayer     solanago.PublicKey
	blockhash    solanago.Hash
	instructions []Instruction
	message      *Message
	payload      []byte
}

func (tx *Transaction) Family() address.Family { return address.FamilySolana }

func (tx *Transaction) FeePayer() solanago.PublicKey { return tx.feePayer }

func (tx *Transaction) RecentBlockhash() solanago.Hash { return tx.blockhash }

func (tx *Transaction) Instructions() []Instruction {
	out := make([]Instruction, len(tx.instructions))
	for i, in := range tx.instructions {
		out[i] = in.clone()
	}
	return out
}

func (tx *Transaction) Header() MessageHeader { return tx.message.Header }

func (tx *Transaction) AccountKeys() []solanago.PublicKey {
	return append([]solanago.PublicKey(nil), tx.message.AccountKeys...)
}

// Signers 按签名顺序返回需要签名的账户
func (tx *Transaction) Signers() []solanago.PublicKey {
	return append([]solanago.PublicKey(nil), tx.message.Signers()...)
}

// MessageBytes 签名原像
func (tx *Transaction) MessageBytes() []byte { return bytes.Clone(tx.payload) }

// SignedPayload compact 签名数组 || 消息
func SignedPayload(tx *Transaction, sigs []*signature.Signature) ([]byte, error) {
	if len(sigs) != int(tx.message.Header.NumRequiredSignatures) {
		return nil, errno.Newf(errno.ErrInvalidSignature, "expected %d signatures, got %d",
			tx.message.Header.NumRequiredSignatures, len(sigs))
	}
	out, err := compact.AppendArray(nil, len(sigs), func(dst []byte, i int) ([]byte, error) {
		if sigs[i] == nil || sigs[i].Scheme() != signature.SchemeEd25519 {
			return nil, errno.Newf(errno.ErrInvalidSignature, "solana transactions require ed25519 signatures")
		}
		return append(dst, sigs[i].Bytes()...), nil
	})
	if err != nil {
		return nil, err
	}
	return append(out, tx.payload...), nil
}

type Builder struct {
	tx  Transaction
	err error
}

func NewBuilder() *Builder {
	return &Builder{}
}

// FeePayer 费用支付者，同时是第一个签名者
func (b *Builder) FeePayer(a address.Address) *Builder {
	if b.err != nil {
		return b
	}
	b.tx.feePayer, b.err = publicKey("fee payer", a)
	return b
}

func (b *Builder) RecentBlockhash(h solanago.Hash) *Builder {
	b.tx.blockhash = h
	return b
}

// RecentBlockhashBase58 解析 RPC 返回的 Base58 块哈希
func (b *Builder) RecentBlockhashBase58(s string) *Builder {
	if b.err != nil {
		return b
	}
	h, err := solanago.HashFromBase58(s)
	if err != nil {
		b.err = errno.Newf(errno.ErrInvalidTransaction, "recent blockhash %q: %v", s, err)
		return b
	}
	b.tx.blockhash = h
	return b
}

func (b *Builder) Add(instructions ...Instruction) *Builder {
	for _, in := range instructions {
		b.tx.instructions = append(b.tx.instructions, in.clone())
	}
	return b
}

func (b *Builder) Build() (*Transaction, error) {
	if b.err != nil {
		return nil, b.err
	}
	tx := b.tx
	if tx.feePayer.IsZero() {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "fee payer is required")
	}
	if tx.blockhash.IsZero() {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "recent blockhash is required")
	}
	if len(tx.instructions) == 0 {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "at least one instruction is required")
	}
	for i, in := range tx.instructions {
		if in.ProgramID.Equals(tx.feePayer) {
			return nil, errno.Newf(errno.ErrInvalidTransaction, "instruction %d: fee payer cannot be the program", i)
		}
	}
	tx.instructions = append([]Instruction(nil), tx.instructions...)

	msg, err := compileMessage(tx.feePayer, tx.blockhash, tx.instructions)
	if err != nil {
		return nil, err
	}
	payload, err := msg.Marshal()
	if err != nil {
		return nil, err
	}
	tx.message, tx.payload = msg, payload
	return &tx, nil
}
