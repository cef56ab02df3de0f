package bitcoin

import (
	"github.com/btcsuite/btcd/txscript"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/errno"
)

// PayToAddrScript 生成向地址付款的锁定脚本
func PayToAddrScript(a address.Address) ([]byte, error) {
	if a.Family() != address.FamilyBitcoin {
		return nil, errno.Newf(errno.ErrInvalidAddress, "not a bitcoin address: %s", a)
	}
	hash := a.Hash()
	b := txscript.NewScriptBuilder()
	switch a.Type() {
	case address.TypeP2PKH:
		b.AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160).AddData(hash).
			AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG)
	case address.TypeP2SH:
		b.AddOp(txscript.OP_HASH160).AddData(hash).AddOp(txscript.OP_EQUAL)
	case address.TypeP2WPKH, address.TypeP2WSH:
		b.AddOp(txscript.OP_0).AddData(hash)
	case address.TypeP2TR:
		b.AddOp(txscript.OP_1).AddData(hash)
	default:
		return nil, errno.Newf(errno.ErrInvalidAddress, "unsupported bitcoin address type %s", a.Type())
	}
	script, err := b.Script()
	if err != nil {
		return nil, errno.Newf(errno.ErrEncodingFailure, "script: %v", err)
	}
	return script, nil
}

// p2pkhScriptCode P2WPKH 花费时 BIP-143 使用的 scriptCode
func p2pkhScriptCode(pubKeyHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160).AddData(pubKeyHash).
		AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG).
		Script()
}
