package address

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"wallet-sdk/pkg/errno"
)

// SegwitCodec 编解码见证程序地址 (BIP-173 / BIP-350)。
// 位打包与校验和由外部实现负责。
type SegwitCodec interface {
	Encode(hrp string, version byte, program []byte) (string, error)
	Decode(hrp, addr string) (version byte, program []byte, err error)
}

// Bech32Codec 基于 btcutil/bech32 的实现: v0 使用 Bech32，v1+ 使用 Bech32m
type Bech32Codec struct{}

func (Bech32Codec) Encode(hrp string, version byte, program []byte) (string, error) {
	if err := validateWitnessProgram(version, program); err != nil {
		return "", err
	}
	conv, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", errno.Newf(errno.ErrEncodingFailure, "bech32 convert: %v", err)
	}
	data := append([]byte{version}, conv...)

	var out string
	if version == 0 {
		out, err = bech32.Encode(hrp, data)
	} else {
		out, err = bech32.EncodeM(hrp, data)
	}
	if err != nil {
		return "", errno.Newf(errno.ErrEncodingFailure, "bech32 encode: %v", err)
	}
	return out, nil
}

func (Bech32Codec) Decode(hrp, addr string) (byte, []byte, error) {
	gotHRP, data, bechVersion, err := bech32.DecodeGeneric(addr)
	if err != nil {
		return 0, nil, errno.Newf(errno.ErrInvalidAddress, "bech32 decode %q: %v", addr, err)
	}
	if gotHRP != strings.ToLower(hrp) {
		return 0, nil, errno.Newf(errno.ErrInvalidAddress, "address %q has hrp %q, want %q", addr, gotHRP, hrp)
	}
	if len(data) < 1 {
		return 0, nil, errno.Newf(errno.ErrInvalidAddress, "address %q has empty data", addr)
	}

	version := data[0]
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return 0, nil, errno.Newf(errno.ErrInvalidAddress, "bech32 convert %q: %v", addr, err)
	}
	if err := validateWitnessProgram(version, program); err != nil {
		return 0, nil, err
	}
	// v0 必须是 Bech32，v1+ 必须是 Bech32m
	if (version == 0 && bechVersion != bech32.Version0) || (version != 0 && bechVersion != bech32.VersionM) {
		return 0, nil, errno.Newf(errno.ErrInvalidAddress, "address %q uses wrong checksum variant for witness v%d", addr, version)
	}
	return version, program, nil
}

func validateWitnessProgram(version byte, program []byte) error {
	if version > 16 {
		return errno.Newf(errno.ErrInvalidAddress, "witness version %d out of range", version)
	}
	if len(program) < 2 || len(program) > 40 {
		return errno.Newf(errno.ErrInvalidAddress, "witness program length %d out of range", len(program))
	}
	if version == 0 && len(program) != 20 && len(program) != 32 {
		return errno.Newf(errno.ErrInvalidAddress, "witness v0 program must be 20 or 32 bytes, got %d", len(program))
	}
	return nil
}
