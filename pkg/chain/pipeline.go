package chain

import (
	"time"

	"go.uber.org/zap"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/logger"
	"wallet-sdk/pkg/monitor"
	"wallet-sdk/pkg/signature"
	"wallet-sdk/pkg/signer"
)

// Pipeline 是一条链的签名流水线: 编码 → 哈希 → 签名 → 组装。
//
// Encode 返回一个或多个签名原像 (比特币每个输入一个)。每个签名者依次对每个原像签名，
// 签名按 签名者优先 的顺序传给 Assemble。
type Pipeline[T RawTransaction] struct {
	Chain  string
	Scheme signature.Scheme
	Codec  address.Codec

	Encode func(tx T, pubs []signature.PublicKey) ([][]byte, error)
	// Hash 为 nil 时直接对原像签名 (Ed25519)
	Hash func(preimage []byte) []byte
	// Normalize 把曲线原始签名转换为链上形式，例如 EIP-155 的 v
	Normalize func(tx T, sig *signature.Signature) (*signature.Signature, error)
	Assemble  func(tx T, sigs []*signature.Signature, pubs []signature.PublicKey) ([]byte, error)
	// TxHash 由最终字节 (以及原交易) 计算交易哈希
	TxHash   func(tx T, encoded []byte, sigs []*signature.Signature) ([]byte, error)
	FormatID func(hash []byte) string
}

// Run 执行流水线。曲线不匹配时在任何编码工作之前失败。
func (p *Pipeline[T]) Run(tx T, keys ...signer.Signer) (st *SignedTransaction, err error) {
	start := time.Now()
	defer func() {
		monitor.ObserveSign(p.Chain, time.Since(start).Seconds(), err)
	}()

	if len(keys) == 0 {
		return nil, errno.Newf(errno.ErrInvalidInput, "%s: no signing key", p.Chain)
	}
	for _, key := range keys {
		if err := CheckScheme(p.Chain, p.Scheme, key); err != nil {
			return nil, err
		}
	}

	pubs := make([]signature.PublicKey, len(keys))
	for i, key := range keys {
		if pubs[i], err = key.PublicKey(); err != nil {
			return nil, err
		}
	}
	sender, err := p.Codec.Encode(pubs[0])
	if err != nil {
		return nil, err
	}

	preimages, err := p.Encode(tx, pubs)
	if err != nil {
		return nil, err
	}
	if len(preimages) == 0 {
		return nil, errno.Newf(errno.ErrEncodingFailure, "%s: nothing to sign", p.Chain)
	}

	sigs := make([]*signature.Signature, 0, len(keys)*len(preimages))
	for _, key := range keys {
		for _, preimage := range preimages {
			digest := preimage
			if p.Hash != nil {
				digest = p.Hash(preimage)
			}
			sig, err := key.Sign(digest)
			if err != nil {
				return nil, err
			}
			if p.Normalize != nil {
				if sig, err = p.Normalize(tx, sig); err != nil {
					return nil, err
				}
			}
			sigs = append(sigs, sig)
		}
	}

	st = NewSignedTransaction(tx, sigs, sender.String(),
		func() ([]byte, error) { return p.Assemble(tx, sigs, pubs) },
		func(encoded []byte) ([]byte, error) { return p.TxHash(tx, encoded, sigs) },
		p.FormatID,
	)
	// 立即组装，组装失败时整个调用失败
	if _, err = st.Hash(); err != nil {
		return nil, err
	}

	logger.Debug("transaction signed",
		zap.String("chain", p.Chain),
		zap.String("sender", st.Sender()),
		zap.String("tx_id", st.ID()),
	)
	return st, nil
}

// CheckScheme 校验签名者曲线与链要求一致
func CheckScheme(chainID string, want signature.Scheme, key signer.Signer) error {
	if key == nil {
		return errno.Newf(errno.ErrInvalidInput, "%s: nil signing key", chainID)
	}
	if key.Scheme() != want {
		return errno.Newf(errno.ErrSchemeMismatch, "%s requires %s key, got %s", chainID, want, key.Scheme())
	}
	return nil
}

// SignDigest 校验曲线后签名消息摘要，供各链 SignMessage 使用
func SignDigest(chainID string, want signature.Scheme, key signer.Signer, digest []byte) (sig *signature.Signature, err error) {
	start := time.Now()
	defer func() {
		monitor.ObserveSign(chainID, time.Since(start).Seconds(), err)
	}()
	if err = CheckScheme(chainID, want, key); err != nil {
		return nil, err
	}
	return key.Sign(digest)
}

// SenderAddress 由签名者公钥推导地址
func SenderAddress(chainID string, want signature.Scheme, codec address.Codec, key signer.Signer) (address.Address, error) {
	if err := CheckScheme(chainID, want, key); err != nil {
		return address.Address{}, err
	}
	pub, err := key.PublicKey()
	if err != nil {
		return address.Address{}, err
	}
	return codec.Encode(pub)
}
