package address

import (
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"wallet-sdk/pkg/crypto_util"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signature"
)

// BitcoinCodec 比特币地址编解码: Base58Check (P2PKH/P2SH) 与 SegWit (P2WPKH/P2WSH/P2TR)
type BitcoinCodec struct {
	network     *chaincfg.Params
	segwit      SegwitCodec
	defaultType Type
}

// BitcoinOption 配置 BitcoinCodec
type BitcoinOption func(*BitcoinCodec)

// WithDefaultType 设置 Encode 生成的地址类型，默认 P2WPKH
func WithDefaultType(t Type) BitcoinOption {
	return func(c *BitcoinCodec) { c.defaultType = t }
}

// WithSegwitCodec 替换 Bech32 实现
func WithSegwitCodec(s SegwitCodec) BitcoinOption {
	return func(c *BitcoinCodec) { c.segwit = s }
}

// NewBitcoinCodec network 为 nil 时使用主网参数
func NewBitcoinCodec(network *chaincfg.Params, opts ...BitcoinOption) *BitcoinCodec {
	if network == nil {
		network = &chaincfg.MainNetParams
	}
	c := &BitcoinCodec{network: network, segwit: Bech32Codec{}, defaultType: TypeP2WPKH}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *BitcoinCodec) Family() Family { return FamilyBitcoin }

func (c *BitcoinCodec) Network() *chaincfg.Params { return c.network }

func (c *BitcoinCodec) Encode(pub signature.PublicKey) (Address, error) {
	return c.EncodeAs(pub, c.defaultType)
}

// EncodeAs 按指定类型由公钥生成地址 (P2PKH / P2WPKH / P2TR)
func (c *BitcoinCodec) EncodeAs(pub signature.PublicKey, t Type) (Address, error) {
	if pub.Scheme() != signature.SchemeSecp256k1 {
		return Address{}, errno.Newf(errno.ErrSchemeMismatch, "bitcoin address requires secp256k1 key, got %s", pub.Scheme())
	}
	switch t {
	case TypeP2PKH, TypeP2WPKH:
		return c.FromHash(t, crypto_util.Hash160(pub.Bytes()))
	case TypeP2TR:
		internal, err := btcec.ParsePubKey(pub.Bytes())
		if err != nil {
			return Address{}, errno.Newf(errno.ErrInvalidInput, "public key: %v", err)
		}
		// BIP-86: 无脚本路径的 taproot 输出密钥
		output := txscript.ComputeTaprootKeyNoScript(internal)
		return c.FromHash(TypeP2TR, schnorr.SerializePubKey(output))
	default:
		return Address{}, errno.Newf(errno.ErrInvalidInput, "cannot derive %s address from a public key", t)
	}
}

// FromHash 由哈希或见证程序构造地址:
// P2PKH/P2SH/P2WPKH 为 20 字节，P2WSH/P2TR 为 32 字节
func (c *BitcoinCodec) FromHash(t Type, hash []byte) (Address, error) {
	switch t {
	case TypeP2PKH, TypeP2SH:
		if len(hash) != 20 {
			return Address{}, errno.Newf(errno.ErrInvalidAddress, "%s hash must be 20 bytes, got %d", t, len(hash))
		}
		version := c.network.PubKeyHashAddrID
		if t == TypeP2SH {
			version = c.network.ScriptHashAddrID
		}
		payload := append([]byte{version}, hash...)
		return newAddress(FamilyBitcoin, t, payload, base58.CheckEncode(hash, version)), nil
	case TypeP2WPKH, TypeP2WSH, TypeP2TR:
		version, size := byte(0), 20
		switch t {
		case TypeP2WSH:
			size = 32
		case TypeP2TR:
			version, size = 1, 32
		}
		if len(hash) != size {
			return Address{}, errno.Newf(errno.ErrInvalidAddress, "%s program must be %d bytes, got %d", t, size, len(hash))
		}
		text, err := c.segwit.Encode(c.network.Bech32HRPSegwit, version, hash)
		if err != nil {
			return Address{}, err
		}
		return newAddress(FamilyBitcoin, t, hash, text), nil
	default:
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "unsupported bitcoin address type %s", t)
	}
}

// FromPayload 由 Address.Bytes() 的形式还原: 21 字节 version||hash 或 20 字节 P2WPKH 程序。
// 32 字节程序无法区分 P2WSH 与 P2TR，需使用 FromHash。
func (c *BitcoinCodec) FromPayload(b []byte) (Address, error) {
	switch len(b) {
	case 21:
		switch b[0] {
		case c.network.PubKeyHashAddrID:
			return c.FromHash(TypeP2PKH, b[1:])
		case c.network.ScriptHashAddrID:
			return c.FromHash(TypeP2SH, b[1:])
		}
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "version 0x%02x not valid for %s", b[0], c.network.Name)
	case 20:
		return c.FromHash(TypeP2WPKH, b)
	default:
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "ambiguous bitcoin payload of %d bytes", len(b))
	}
}

// Parse 根据前缀/版本字节识别地址类型
func (c *BitcoinCodec) Parse(s string) (Address, error) {
	hrp := c.network.Bech32HRPSegwit
	if strings.HasPrefix(strings.ToLower(s), hrp+"1") {
		version, program, err := c.segwit.Decode(hrp, s)
		if err != nil {
			return Address{}, err
		}
		switch {
		case version == 0 && len(program) == 20:
			return c.FromHash(TypeP2WPKH, program)
		case version == 0 && len(program) == 32:
			return c.FromHash(TypeP2WSH, program)
		case version == 1 && len(program) == 32:
			return c.FromHash(TypeP2TR, program)
		default:
			return Address{}, errno.Newf(errno.ErrInvalidAddress, "unsupported witness v%d program of %d bytes", version, len(program))
		}
	}

	hash, version, err := base58.CheckDecode(s)
	if err != nil {
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "base58check %q: %v", s, err)
	}
	switch version {
	case c.network.PubKeyHashAddrID:
		return c.FromHash(TypeP2PKH, hash)
	case c.network.ScriptHashAddrID:
		return c.FromHash(TypeP2SH, hash)
	default:
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "address %q has version 0x%02x not valid for %s", s, version, c.network.Name)
	}
}

func (c *BitcoinCodec) IsValid(s string) bool {
	_, err := c.Parse(s)
	return err == nil
}

// Hash 返回地址中的 20 字节哈希或见证程序 (去掉版本字节)
func (a Address) Hash() []byte {
	if a.family == FamilyBitcoin && (a.kind == TypeP2PKH || a.kind == TypeP2SH) ||
		a.family == FamilyTron {
		return a.Bytes()[1:]
	}
	return a.Bytes()
}
