// Package mpc 用 Shamir 秘密分享备份种子或助记词: N 份中任意 M 份即可恢复。
package mpc

import (
	"encoding/hex"
	"strings"

	"github.com/hashicorp/vault/shamir"

	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/safe_random"
)

// Split 将秘密切分为 parts 份，至少需要 threshold 份才能恢复。
// 每份编码为 Hex，最后一个字节是 X 坐标。
func Split(secret []byte, parts, threshold int) ([]string, error) {
	if len(secret) == 0 {
		return nil, errno.Newf(errno.ErrInvalidInput, "secret must not be empty")
	}
	if threshold < 2 || parts < threshold || parts > 255 {
		return nil, errno.Newf(errno.ErrInvalidInput, "invalid threshold %d of %d", threshold, parts)
	}

	sharesBytes, err := shamir.Split(secret, parts, threshold)
	if err != nil {
		return nil, errno.Newf(errno.ErrInvalidInput, "shamir split: %v", err)
	}

	shares := make([]string, 0, len(sharesBytes))
	for _, share := range sharesBytes {
		shares = append(shares, hex.EncodeToString(share))
		safe_random.Wipe(share)
	}
	return shares, nil
}

// Recover 从至少 threshold 份中恢复秘密。份数不足时得到的是错误的秘密而不是错误，
// 调用方应校验结果 (例如助记词校验和)。
func Recover(sharesHex []string) ([]byte, error) {
	if len(sharesHex) < 2 {
		return nil, errno.Newf(errno.ErrInvalidInput, "at least two shares are required")
	}
	sharesBytes := make([][]byte, 0, len(sharesHex))
	defer func() { safe_random.WipeAll(sharesBytes...) }()
	for i, s := range sharesHex {
		b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
		if err != nil {
			return nil, errno.Newf(errno.ErrInvalidInput, "share %d: invalid hex: %v", i, err)
		}
		sharesBytes = append(sharesBytes, b)
	}

	secret, err := shamir.Combine(sharesBytes)
	if err != nil {
		return nil, errno.Newf(errno.ErrInvalidInput, "shamir combine: %v", err)
	}
	return secret, nil
}
