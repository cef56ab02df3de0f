package bip32

import (
	"strconv"
	"strings"

	"wallet-sdk/pkg/errno"
)

// HardenedKeyStart 硬化索引起点 (2^31)
const HardenedKeyStart uint32 = 0x80000000

// ParsePath 解析派生路径。
// 支持格式: m/44'/60'/0'/0/0、m/44H/60H/0H/0/0 或 m/44h/0h; 前缀 "m" 可省略，仅 "m" 表示主密钥。
func ParsePath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errno.Newf(errno.ErrInvalidPath, "empty path")
	}
	if path == "m" || path == "M" {
		return []uint32{}, nil
	}
	if strings.HasPrefix(path, "m/") || strings.HasPrefix(path, "M/") {
		path = path[2:]
	}

	segments := strings.Split(path, "/")
	indexes := make([]uint32, 0, len(segments))
	for _, segment := range segments {
		raw := segment
		hardened := false
		if n := len(segment); n > 0 {
			switch segment[n-1] {
			case '\'', 'H', 'h':
				hardened = true
				segment = segment[:n-1]
			}
		}
		if segment == "" {
			return nil, errno.Newf(errno.ErrInvalidPath, "empty path component in %q", path)
		}
		// ParseUint 会接受 "+1" 之类的前缀，这里只允许纯数字
		for i := 0; i < len(segment); i++ {
			if segment[i] < '0' || segment[i] > '9' {
				return nil, errno.Newf(errno.ErrInvalidPath, "invalid path segment %q", raw)
			}
		}
		val, err := strconv.ParseUint(segment, 10, 32)
		if err != nil || uint32(val) >= HardenedKeyStart {
			return nil, errno.Newf(errno.ErrInvalidPath, "path segment %q out of range", raw)
		}
		index := uint32(val)
		if hardened {
			index += HardenedKeyStart
		}
		indexes = append(indexes, index)
	}
	return indexes, nil
}

// FormatPath 将索引序列格式化为 m/44'/0'/... 形式。
func FormatPath(indexes []uint32) string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, idx := range indexes {
		sb.WriteByte('/')
		if idx >= HardenedKeyStart {
			sb.WriteString(strconv.FormatUint(uint64(idx-HardenedKeyStart), 10))
			sb.WriteByte('\'')
		} else {
			sb.WriteString(strconv.FormatUint(uint64(idx), 10))
		}
	}
	return sb.String()
}

// IsHardened 判断索引是否为硬化索引
func IsHardened(index uint32) bool {
	return index >= HardenedKeyStart
}
