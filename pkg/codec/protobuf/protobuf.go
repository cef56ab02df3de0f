// Package protobuf 手工构造受限的 protobuf 消息 (只用 varint 与 length-delimited 两种线型)，
// 用于 TRON 交易。零值整数与空字节字段按 proto3 规则省略。
package protobuf

import (
	"google.golang.org/protobuf/encoding/protowire"

	"wallet-sdk/pkg/errno"
)

// Message 按调用顺序追加字段。调用方负责按字段号升序写入。
type Message struct {
	buf []byte
}

func NewMessage() *Message {
	return &Message{}
}

// Uint 写入 varint 字段，0 省略
func (m *Message) Uint(field protowire.Number, v uint64) *Message {
	if v == 0 {
		return m
	}
	m.buf = protowire.AppendTag(m.buf, field, protowire.VarintType)
	m.buf = protowire.AppendVarint(m.buf, v)
	return m
}

// Int 写入 int64 字段 (负数为 10 字节补码 varint)，0 省略
func (m *Message) Int(field protowire.Number, v int64) *Message {
	return m.Uint(field, uint64(v))
}

// Bool 写入 bool 字段，false 省略
func (m *Message) Bool(field protowire.Number, v bool) *Message {
	if !v {
		return m
	}
	return m.Uint(field, 1)
}

// Bytes 写入 length-delimited 字段，空值省略
func (m *Message) Bytes(field protowire.Number, b []byte) *Message {
	if len(b) == 0 {
		return m
	}
	m.buf = protowire.AppendTag(m.buf, field, protowire.BytesType)
	m.buf = protowire.AppendBytes(m.buf, b)
	return m
}

// Text 写入字符串字段，空串省略
func (m *Message) Text(field protowire.Number, s string) *Message {
	return m.Bytes(field, []byte(s))
}

// Message 写入嵌套消息，nil 省略; 非 nil 的空消息写为零长度
func (m *Message) Message(field protowire.Number, sub *Message) *Message {
	if sub == nil {
		return m
	}
	m.buf = protowire.AppendTag(m.buf, field, protowire.BytesType)
	m.buf = protowire.AppendBytes(m.buf, sub.buf)
	return m
}

// Marshal 返回编码结果的拷贝
func (m *Message) Marshal() []byte {
	out := make([]byte, len(m.buf))
	copy(out, m.buf)
	return out
}

func (m *Message) Len() int { return len(m.buf) }

// Field 解码后的单个字段
type Field struct {
	Number protowire.Number
	Type   protowire.Type
	Varint uint64
	Bytes  []byte
}

// Decode 按顺序解出顶层字段，只接受 varint 与 length-delimited
func Decode(b []byte) ([]Field, error) {
	var fields []Field
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errno.Newf(errno.ErrEncodingFailure, "protobuf tag: %v", protowire.ParseError(n))
		}
		b = b[n:]

		f := Field{Number: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errno.Newf(errno.ErrEncodingFailure, "protobuf field %d: %v", num, protowire.ParseError(n))
			}
			f.Varint, b = v, b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errno.Newf(errno.ErrEncodingFailure, "protobuf field %d: %v", num, protowire.ParseError(n))
			}
			f.Bytes, b = v, b[n:]
		default:
			return nil, errno.Newf(errno.ErrEncodingFailure, "protobuf field %d: unsupported wire type %d", num, typ)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// Lookup 返回第一个匹配字段号的字段
func Lookup(fields []Field, num protowire.Number) (Field, bool) {
	for _, f := range fields {
		if f.Number == num {
			return f, true
		}
	}
	return Field{}, false
}
