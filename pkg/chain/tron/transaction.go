package tron

import (
	"bytes"
	"encoding/binary"
	"time"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/codec/protobuf"
	"wallet-sdk/pkg/crypto_util"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signature"
)

// DefaultExpiration 节点默认的交易有效期
const DefaultExpiration = 60 * time.Second

// RefBlock TaPoS 引用块: 块高的第 6、7 字节与块哈希的第 8..15 字节
type RefBlock struct {
	Bytes []byte // 2 字节
	Hash  []byte // 8 字节
}

// RefBlockFromHeader 由块高与 32 字节块哈希计算引用块
func RefBlockFromHeader(number int64, blockHash []byte) (RefBlock, error) {
	if len(blockHash) != 32 {
		return RefBlock{}, errno.Newf(errno.ErrInvalidInput, "block hash must be 32 bytes, got %d", len(blockHash))
	}
	if number < 0 {
		return RefBlock{}, errno.Newf(errno.ErrInvalidInput, "block number must not be negative")
	}
	var num [8]byte
	binary.BigEndian.PutUint64(num[:], uint64(number))
	return RefBlock{
		Bytes: bytes.Clone(num[6:8]),
		Hash:  bytes.Clone(blockHash[8:16]),
	}, nil
}

// Transaction 不可变的 TRON 未签名交易 (protocol.Transaction.raw)
type Transaction struct {
	refBlock   RefBlock
	expiration int64 // 毫秒
	timestamp  int64 // 毫秒
	feeLimit   int64
	memo       []byte
	contract   Contract
}

func (tx *Transaction) Family() address.Family { return address.FamilyTron }

func (tx *Transaction) Contract() Contract { return tx.contract }

func (tx *Transaction) Expiration() time.Time { return time.UnixMilli(tx.expiration) }

func (tx *Transaction) FeeLimit() int64 { return tx.feeLimit }

// RawData 编码 raw: ref_block_bytes=1, ref_block_hash=4, expiration=8, data=10,
// contract=11, timestamp=14, fee_limit=18。默认值字段省略。
func (tx *Transaction) RawData() []byte {
	return protobuf.NewMessage().
		Bytes(1, tx.refBlock.Bytes).
		Bytes(4, tx.refBlock.Hash).
		Int(8, tx.expiration).
		Bytes(10, tx.memo).
		Message(11, contractMessage(tx.contract)).
		Int(14, tx.timestamp).
		Int(18, tx.feeLimit).
		Marshal()
}

// TxID SHA256(raw)，即签名摘要
func (tx *Transaction) TxID() []byte {
	return crypto_util.SHA256(tx.RawData())
}

// SignedPayload 编码 Transaction{raw_data=1, signature=2 (repeated)}
func SignedPayload(tx *Transaction, sigs []*signature.Signature) ([]byte, error) {
	if len(sigs) == 0 {
		return nil, errno.Newf(errno.ErrInvalidSignature, "tron transaction requires at least one signature")
	}
	m := protobuf.NewMessage().Bytes(1, tx.RawData())
	for _, sig := range sigs {
		if sig == nil || sig.Scheme() != signature.SchemeSecp256k1 {
			return nil, errno.Newf(errno.ErrInvalidSignature, "tron transactions require secp256k1 signatures")
		}
		m.Bytes(2, sig.Bytes())
	}
	return m.Marshal(), nil
}

// Builder 构造 TRON 交易
type Builder struct {
	tx  Transaction
	err error
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) RefBlock(ref RefBlock) *Builder {
	b.tx.refBlock = RefBlock{Bytes: bytes.Clone(ref.Bytes), Hash: bytes.Clone(ref.Hash)}
	return b
}

// Timestamp 设置创建时间; Expiration 未设置时为 Timestamp + DefaultExpiration
func (b *Builder) Timestamp(t time.Time) *Builder {
	b.tx.timestamp = t.UnixMilli()
	return b
}

func (b *Builder) Expiration(t time.Time) *Builder {
	b.tx.expiration = t.UnixMilli()
	return b
}

// FeeLimit 单位 sun，合约调用必填
func (b *Builder) FeeLimit(sun int64) *Builder {
	b.tx.feeLimit = sun
	return b
}

// Memo 写入 raw.data
func (b *Builder) Memo(memo []byte) *Builder {
	b.tx.memo = bytes.Clone(memo)
	return b
}

func (b *Builder) Contract(c Contract) *Builder {
	b.tx.contract = c
	return b
}

func (b *Builder) Build() (*Transaction, error) {
	if b.err != nil {
		return nil, b.err
	}
	tx := b.tx
	if len(tx.refBlock.Bytes) != 2 || len(tx.refBlock.Hash) != 8 {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "reference block is required (2 + 8 bytes)")
	}
	if tx.contract == nil {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "contract is required")
	}
	if err := tx.contract.validate(); err != nil {
		return nil, err
	}
	if tx.expiration == 0 {
		if tx.timestamp == 0 {
			return nil, errno.Newf(errno.ErrInvalidTransaction, "expiration or timestamp is required")
		}
		tx.expiration = tx.timestamp + DefaultExpiration.Milliseconds()
	}
	if tx.timestamp != 0 && tx.expiration <= tx.timestamp {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "expiration must be after timestamp")
	}
	if tx.feeLimit < 0 {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "fee limit must not be negative")
	}
	if tx.contract.Type() == TriggerSmartContractType && tx.feeLimit == 0 {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "smart contract calls require a fee limit")
	}
	return &tx, nil
}
