package safe_random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"runtime"
)

// GenerateRandomBytes 生成指定长度的安全随机字节切片。
// 如果系统的安全随机数生成器失败，将返回错误。
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	// 注意：只有读取了 len(b) 个字节，err 才为 nil。
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, fmt.Errorf("生成随机字节失败: %w", err)
	}
	return b, nil
}

// GenerateRandomHexString 生成 n 字节随机数的 Hex 字符串，长度为 2n。
func GenerateRandomHexString(n int) (string, error) {
	b, err := GenerateRandomBytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Wipe 先用随机字节覆盖 b，再清零。
// 用于私钥、链码、种子等敏感缓冲区的销毁。
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	// 随机源失败时仍然清零
	_, _ = io.ReadFull(Reader, b)
	clear(b)
	runtime.KeepAlive(b)
}

// WipeAll 依次销毁多个缓冲区。
func WipeAll(bufs ...[]byte) {
	for _, b := range bufs {
		Wipe(b)
	}
}

// Reader 是一个全局共享的加密安全随机数生成器实例。
// 默认为 crypto/rand.Reader。
var Reader io.Reader = rand.Reader
