// Package evm 以太坊及 EVM 兼容链的适配器: legacy / EIP-155 与 EIP-1559 交易，EIP-191 消息签名。
package evm

import (
	"math/big"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/chain"
	"wallet-sdk/pkg/crypto_util"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signature"
	"wallet-sdk/pkg/signer"
)

// Adapter 绑定一个 EVM 链 ID
type Adapter struct {
	id       string
	chainID  *big.Int
	codec    *address.EVMCodec
	pipeline *chain.Pipeline[*Transaction]
}

var _ chain.ChainAdapter = (*Adapter)(nil)

// NewAdapter id 为 Registry 中的链标识，chainID 为 EIP-155 链 ID
func NewAdapter(id string, chainID uint64) *Adapter {
	a := &Adapter{
		id:      id,
		chainID: new(big.Int).SetUint64(chainID),
		codec:   address.NewEVMCodec(),
	}
	a.pipeline = &chain.Pipeline[*Transaction]{
		Chain:  id,
		Scheme: signature.SchemeSecp256k1,
		Codec:  a.codec,
		Encode: func(tx *Transaction, _ []signature.PublicKey) ([][]byte, error) {
			payload, err := SigningPayload(tx)
			if err != nil {
				return nil, err
			}
			return [][]byte{payload}, nil
		},
		Hash:      func(b []byte) []byte { return crypto_util.Keccak256(b) },
		Normalize: normalizeV,
		Assemble: func(tx *Transaction, sigs []*signature.Signature, _ []signature.PublicKey) ([]byte, error) {
			return SignedPayload(tx, sigs[0])
		},
		TxHash: func(_ *Transaction, encoded []byte, _ []*signature.Signature) ([]byte, error) {
			return crypto_util.Keccak256(encoded), nil
		},
	}
	return a
}

func (a *Adapter) ChainID() string { return a.id }

// NetworkID EIP-155 链 ID
func (a *Adapter) NetworkID() *big.Int { return new(big.Int).Set(a.chainID) }

func (a *Adapter) Family() address.Family { return address.FamilyEVM }

func (a *Adapter) Scheme() signature.Scheme { return signature.SchemeSecp256k1 }

func (a *Adapter) AddressCodec() address.Codec { return a.codec }

func (a *Adapter) Address(key signer.Signer) (address.Address, error) {
	return chain.SenderAddress(a.id, signature.SchemeSecp256k1, a.codec, key)
}

// SignTransaction 交易未设置链 ID 时使用适配器的链 ID; 已设置但不一致时拒绝
func (a *Adapter) SignTransaction(raw chain.RawTransaction, keys ...signer.Signer) (*chain.SignedTransaction, error) {
	tx, ok := raw.(*Transaction)
	if !ok || tx == nil {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "%s: expected *evm.Transaction, got %T", a.id, raw)
	}
	if len(keys) != 1 {
		return nil, errno.Newf(errno.ErrInvalidInput, "%s: exactly one signer required, got %d", a.id, len(keys))
	}
	switch {
	case tx.chainID.Sign() == 0 && a.chainID.Sign() > 0:
		tx = tx.withChainID(a.chainID)
	case tx.chainID.Sign() > 0 && tx.chainID.Cmp(a.chainID) != 0:
		return nil, errno.Newf(errno.ErrInvalidTransaction, "%s: transaction chain id %s, adapter chain id %s", a.id, tx.chainID, a.chainID)
	}
	return a.pipeline.Run(tx, keys[0])
}

// MessageHash EIP-191: Keccak256("\x19Ethereum Signed Message:\n" + len + msg)
func (a *Adapter) MessageHash(msg []byte) []byte {
	return MessageHash(msg)
}

// SignMessage 返回 v 为 27/28 的签名
func (a *Adapter) SignMessage(msg []byte, key signer.Signer) (*signature.Signature, error) {
	sig, err := chain.SignDigest(a.id, signature.SchemeSecp256k1, key, MessageHash(msg))
	if err != nil {
		return nil, err
	}
	return sig.ToLegacy()
}

func MessageHash(msg []byte) []byte {
	return crypto_util.Keccak256(crypto_util.PrefixedMessage(crypto_util.EthereumMessagePrefix, msg))
}

// RecoverMessageSigner 从 EIP-191 签名恢复签名者地址
func RecoverMessageSigner(msg []byte, sig *signature.Signature) (address.Address, error) {
	pub, err := sig.Recover(MessageHash(msg))
	if err != nil {
		return address.Address{}, err
	}
	return address.NewEVMCodec().Encode(pub)
}

// RecoverSender 由交易与链上形式的签名恢复发送方地址
func RecoverSender(tx *Transaction, sig *signature.Signature) (address.Address, error) {
	payload, err := SigningPayload(tx)
	if err != nil {
		return address.Address{}, err
	}
	pub, err := sig.Recover(crypto_util.Keccak256(payload))
	if err != nil {
		return address.Address{}, err
	}
	return address.NewEVMCodec().Encode(pub)
}

// normalizeV legacy 且有链 ID 时 v = chainId*2+35+recId; 无链 ID 时 27+recId; EIP-1559 为 y-parity
func normalizeV(tx *Transaction, sig *signature.Signature) (*signature.Signature, error) {
	switch {
	case tx.txType == DynamicFeeTxType:
		return sig.ToRecoveryID()
	case tx.chainID.Sign() > 0:
		if !tx.chainID.IsUint64() {
			return nil, errno.Newf(errno.ErrInvalidTransaction, "chain id %s too large", tx.chainID)
		}
		return sig.ToEip155(tx.chainID.Uint64())
	default:
		return sig.ToLegacy()
	}
}
