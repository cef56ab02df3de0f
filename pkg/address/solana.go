package address

import (
	solana "github.com/gagliardetto/solana-go"

	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signature"
)

// SolanaCodec Solana 地址即 32 字节 Ed25519 公钥的 Base58 编码
type SolanaCodec struct{}

func NewSolanaCodec() *SolanaCodec {
	return &SolanaCodec{}
}

func (c *SolanaCodec) Family() Family { return FamilySolana }

func (c *SolanaCodec) Encode(pub signature.PublicKey) (Address, error) {
	if pub.Scheme() != signature.SchemeEd25519 {
		return Address{}, errno.Newf(errno.ErrSchemeMismatch, "solana address requires ed25519 key, got %s", pub.Scheme())
	}
	return c.FromPayload(pub.Bytes())
}

// FromPayload 由 32 字节公钥 (或程序地址) 构造
func (c *SolanaCodec) FromPayload(b []byte) (Address, error) {
	if len(b) != solana.PublicKeyLength {
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "solana address must be %d bytes, got %d", solana.PublicKeyLength, len(b))
	}
	pk := solana.PublicKeyFromBytes(b)
	return newAddress(FamilySolana, TypeAccount, pk[:], pk.String()), nil
}

func (c *SolanaCodec) Parse(s string) (Address, error) {
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return Address{}, errno.Newf(errno.ErrInvalidAddress, "solana address %q: %v", s, err)
	}
	return c.FromPayload(pk[:])
}

func (c *SolanaCodec) IsValid(s string) bool {
	_, err := c.Parse(s)
	return err == nil
}
