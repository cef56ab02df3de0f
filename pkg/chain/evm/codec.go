package evm

import (
	"math/big"

	"wallet-sdk/pkg/codec/rlp"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signature"
)

// SigningPayload 返回签名前的字节:
// legacy 为 rlp([nonce, gasPrice, gas, to, value, data]) (chainId > 0 时追加 chainId, "", "");
// EIP-1559 为 0x02 || rlp([chainId, nonce, tip, feeCap, gas, to, value, data, accessList])。
func SigningPayload(tx *Transaction) ([]byte, error) {
	fields := baseFields(tx)
	switch tx.txType {
	case LegacyTxType:
		if tx.chainID.Sign() > 0 {
			fields = append(fields, rlp.BigInt(tx.chainID), rlp.Bytes(nil), rlp.Bytes(nil))
		}
		return rlp.EncodeList(fields...)
	case DynamicFeeTxType:
		return typedEnvelope(tx.txType, fields)
	default:
		return nil, errno.Newf(errno.ErrEncodingFailure, "unknown tx type %d", tx.txType)
	}
}

// SignedPayload 用 [v, r, s] 组装可广播的最终字节
func SignedPayload(tx *Transaction, sig *signature.Signature) ([]byte, error) {
	if sig == nil || sig.Scheme() != signature.SchemeSecp256k1 {
		return nil, errno.Newf(errno.ErrInvalidSignature, "evm transactions require a secp256k1 signature")
	}
	fields := append(baseFields(tx),
		rlp.Uint(sig.V()),
		rlp.BigInt(new(big.Int).SetBytes(sig.R())),
		rlp.BigInt(new(big.Int).SetBytes(sig.S())),
	)
	switch tx.txType {
	case LegacyTxType:
		return rlp.EncodeList(fields...)
	case DynamicFeeTxType:
		return typedEnvelope(tx.txType, fields)
	default:
		return nil, errno.Newf(errno.ErrEncodingFailure, "unknown tx type %d", tx.txType)
	}
}

func baseFields(tx *Transaction) []rlp.Item {
	var to rlp.Item = rlp.Bytes(nil)
	if tx.to != nil {
		to = rlp.Bytes(tx.to[:])
	}
	if tx.txType == DynamicFeeTxType {
		return []rlp.Item{
			rlp.BigInt(tx.chainID),
			rlp.Uint(tx.nonce),
			rlp.BigInt(tx.gasTipCap),
			rlp.BigInt(tx.gasFeeCap),
			rlp.Uint(tx.gas),
			to,
			rlp.BigInt(tx.value),
			rlp.Bytes(tx.data),
			accessListItem(tx.accessList),
		}
	}
	return []rlp.Item{
		rlp.Uint(tx.nonce),
		rlp.BigInt(tx.gasPrice),
		rlp.Uint(tx.gas),
		to,
		rlp.BigInt(tx.value),
		rlp.Bytes(tx.data),
	}
}

func accessListItem(list []AccessTuple) rlp.Item {
	out := make(rlp.List, 0, len(list))
	for _, t := range list {
		keys := make(rlp.List, 0, len(t.StorageKeys))
		for _, k := range t.StorageKeys {
			keys = append(keys, rlp.Bytes(k[:]))
		}
		out = append(out, rlp.List{rlp.Bytes(t.Address[:]), keys})
	}
	return out
}

func typedEnvelope(t TxType, fields []rlp.Item) ([]byte, error) {
	body, err := rlp.EncodeList(fields...)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(t)}, body...), nil
}
