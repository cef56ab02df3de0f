// Package rlp 在 go-ethereum 的 rlp.EncoderBuffer 之上提供按值构造的 RLP 编码 (只编码)。
//
// 规则:
//   - 单字节且 < 0x80 时编码为其本身
//   - 0..55 字节的字符串: 0x80+len 前缀
//   - 更长的字符串: 0xB7+len(len) 前缀，后接大端长度
//   - 列表同理，使用 0xC0 / 0xF7
//   - 整数按最小大端字节编码，0 为空字符串，负数报错
package rlp

import (
	"math/big"

	gethrlp "github.com/ethereum/go-ethereum/rlp"

	"wallet-sdk/pkg/errno"
)

// Item 是可编码的 RLP 值
type Item interface {
	encode(w gethrlp.EncoderBuffer) error
}

// Bytes 字节串
type Bytes []byte

// String 文本串，按 UTF-8 字节编码
type String string

// Uint 无符号整数
type Uint uint64

// List 列表，元素递归编码
type List []Item

// Raw 已编码的 RLP 片段，原样拼接
type Raw []byte

// BigInt 任意精度非负整数，nil 视为 0
func BigInt(v *big.Int) Item { return bigItem{v} }

type bigItem struct{ v *big.Int }

// Encode 编码单个值
func Encode(item Item) ([]byte, error) {
	if item == nil {
		return nil, errno.Newf(errno.ErrEncodingFailure, "rlp: nil item")
	}
	w := gethrlp.NewEncoderBuffer(nil)
	defer w.Flush()
	if err := item.encode(w); err != nil {
		return nil, err
	}
	return w.ToBytes(), nil
}

// EncodeList 编码列表，等价于 Encode(List(items))
func EncodeList(items ...Item) ([]byte, error) {
	return Encode(List(items))
}

// EncodeBytes 直接编码字节串，不会失败
func EncodeBytes(b []byte) []byte {
	out, _ := Encode(Bytes(b))
	return out
}

// EncodeUint 直接编码无符号整数
func EncodeUint(v uint64) []byte {
	out, _ := Encode(Uint(v))
	return out
}

func (b Bytes) encode(w gethrlp.EncoderBuffer) error {
	w.WriteBytes(b)
	return nil
}

func (s String) encode(w gethrlp.EncoderBuffer) error {
	w.WriteString(string(s))
	return nil
}

func (u Uint) encode(w gethrlp.EncoderBuffer) error {
	w.WriteUint64(uint64(u))
	return nil
}

func (r Raw) encode(w gethrlp.EncoderBuffer) error {
	if len(r) == 0 {
		return errno.Newf(errno.ErrEncodingFailure, "rlp: empty raw item")
	}
	_, err := w.Write(r)
	return err
}

func (b bigItem) encode(w gethrlp.EncoderBuffer) error {
	if b.v == nil {
		w.WriteBytes(nil)
		return nil
	}
	// WriteBigInt 忽略符号
	if b.v.Sign() < 0 {
		return errno.Newf(errno.ErrEncodingFailure, "rlp: negative integer %s", b.v)
	}
	w.WriteBigInt(b.v)
	return nil
}

func (l List) encode(w gethrlp.EncoderBuffer) error {
	idx := w.List()
	for i, item := range l {
		if item == nil {
			return errno.Newf(errno.ErrEncodingFailure, "rlp: nil list element %d", i)
		}
		if err := item.encode(w); err != nil {
			return err
		}
	}
	w.ListEnd(idx)
	return nil
}
