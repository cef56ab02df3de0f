// Package compact 实现 Solana 的 compact-u16 变长整数与紧凑数组编码。
package compact

import (
	bin "github.com/gagliardetto/binary"

	"wallet-sdk/pkg/errno"
)

// MaxU16 compact-u16 能表示的最大值，最多 3 字节
const MaxU16 = 0xFFFF

// AppendU16 每字节低 7 位承载数据，最高位表示后续还有字节
func AppendU16(dst []byte, v int) ([]byte, error) {
	if err := bin.EncodeCompactU16Length(&dst, v); err != nil {
		return nil, errno.Newf(errno.ErrEncodingFailure, "compact-u16: %v", err)
	}
	return dst, nil
}

// DecodeU16 返回值与消耗的字节数，拒绝截断、溢出与非最短编码
func DecodeU16(b []byte) (int, int, error) {
	v, n, err := bin.DecodeCompactU16(b)
	if err != nil {
		return 0, 0, errno.Newf(errno.ErrEncodingFailure, "compact-u16: %v", err)
	}
	return v, n, nil
}

// AppendBytes 写入长度前缀后接原始字节
func AppendBytes(dst, b []byte) ([]byte, error) {
	dst, err := AppendU16(dst, len(b))
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}

// AppendArray 写入元素个数，再依次调用 each 追加每个元素
func AppendArray(dst []byte, n int, each func(dst []byte, i int) ([]byte, error)) ([]byte, error) {
	dst, err := AppendU16(dst, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if dst, err = each(dst, i); err != nil {
			return nil, err
		}
	}
	return dst, nil
}
