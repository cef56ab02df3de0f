package chain

import (
	"bytes"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"wallet-sdk/pkg/signature"
)

// SignedTransaction 已签名交易。
// 最终字节与交易哈希只计算一次并缓存，重复调用 Encode/Hash 返回相同结果。
type SignedTransaction struct {
	raw    RawTransaction
	sigs   []*signature.Signature
	sender string

	assemble func() ([]byte, error)
	txHash   func(encoded []byte) ([]byte, error)
	formatID func(hash []byte) string

	once    sync.Once
	encoded []byte
	hash    []byte
	err     error
}

// NewSignedTransaction 由流水线或各链适配器调用。formatID 为 nil 时 ID 使用 0x 十六进制。
func NewSignedTransaction(
	raw RawTransaction,
	sigs []*signature.Signature,
	sender string,
	assemble func() ([]byte, error),
	txHash func(encoded []byte) ([]byte, error),
	formatID func(hash []byte) string,
) *SignedTransaction {
	if formatID == nil {
		formatID = hexutil.Encode
	}
	return &SignedTransaction{
		raw:      raw,
		sigs:     sigs,
		sender:   sender,
		assemble: assemble,
		txHash:   txHash,
		formatID: formatID,
	}
}

func (st *SignedTransaction) Raw() RawTransaction { return st.raw }

// Signature 返回第一个签名
func (st *SignedTransaction) Signature() *signature.Signature {
	if len(st.sigs) == 0 {
		return nil
	}
	return st.sigs[0]
}

func (st *SignedTransaction) Signatures() []*signature.Signature {
	out := make([]*signature.Signature, len(st.sigs))
	copy(out, st.sigs)
	return out
}

// Sender 发送方地址字符串
func (st *SignedTransaction) Sender() string { return st.sender }

func (st *SignedTransaction) compute() {
	st.once.Do(func() {
		encoded, err := st.assemble()
		if err != nil {
			st.err = err
			return
		}
		hash, err := st.txHash(encoded)
		if err != nil {
			st.err = err
			return
		}
		st.encoded, st.hash = encoded, hash
	})
}

// Encode 返回可广播的最终字节
func (st *SignedTransaction) Encode() ([]byte, error) {
	st.compute()
	if st.err != nil {
		return nil, st.err
	}
	return bytes.Clone(st.encoded), nil
}

// Hash 返回链定义的交易哈希
func (st *SignedTransaction) Hash() ([]byte, error) {
	st.compute()
	if st.err != nil {
		return nil, st.err
	}
	return bytes.Clone(st.hash), nil
}

// ID 交易哈希的链上展示形式
func (st *SignedTransaction) ID() string {
	hash, err := st.Hash()
	if err != nil {
		return ""
	}
	return st.formatID(hash)
}

// EncodeHex 最终字节的 0x 十六进制形式
func (st *SignedTransaction) EncodeHex() (string, error) {
	b, err := st.Encode()
	if err != nil {
		return "", err
	}
	return hexutil.Encode(b), nil
}
