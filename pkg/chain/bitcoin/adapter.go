// Package bitcoin 比特币适配器。签名哈希委托给 btcd txscript:
// P2PKH 使用传统 sighash，P2WPKH 使用 BIP-143。
package bitcoin

import (
	"bytes"
	"encoding/base64"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/chain"
	"wallet-sdk/pkg/crypto_util"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signature"
	"wallet-sdk/pkg/signer"
)

// MessagePrefix 比特币签名消息前缀
const MessagePrefix = "Bitcoin Signed Message:\n"

// compressedHeader 压缩公钥消息签名的首字节基数
const compressedHeader = 27 + 4

type Adapter struct {
	id       string
	codec    *address.BitcoinCodec
	pipeline *chain.Pipeline[*Transaction]
}

var _ chain.ChainAdapter = (*Adapter)(nil)

// NewAdapter network 为 nil 时使用主网
func NewAdapter(id string, network *chaincfg.Params, opts ...address.BitcoinOption) *Adapter {
	a := &Adapter{id: id, codec: address.NewBitcoinCodec(network, opts...)}
	a.pipeline = &chain.Pipeline[*Transaction]{
		Chain:  id,
		Scheme: signature.SchemeSecp256k1,
		Codec:  a.codec,
		// 每个输入一个摘要，已由 txscript 完成双 SHA256
		Encode: func(tx *Transaction, pubs []signature.PublicKey) ([][]byte, error) {
			return a.sigHashes(tx, pubs[0])
		},
		Assemble: func(tx *Transaction, sigs []*signature.Signature, pubs []signature.PublicKey) ([]byte, error) {
			return SignedPayload(tx, sigs, pubs[0])
		},
		TxHash: func(_ *Transaction, encoded []byte, _ []*signature.Signature) ([]byte, error) {
			var msg wire.MsgTx
			if err := msg.Deserialize(bytes.NewReader(encoded)); err != nil {
				return nil, errno.Newf(errno.ErrEncodingFailure, "decode signed transaction: %v", err)
			}
			h := msg.TxHash()
			return h[:], nil
		},
		// txid 按反序十六进制展示
		FormatID: func(h []byte) string {
			hash, err := chainhash.NewHash(h)
			if err != nil {
				return ""
			}
			return hash.String()
		},
	}
	return a
}

func (a *Adapter) ChainID() string { return a.id }

func (a *Adapter) Family() address.Family { return address.FamilyBitcoin }

func (a *Adapter) Scheme() signature.Scheme { return signature.SchemeSecp256k1 }

func (a *Adapter) AddressCodec() address.Codec { return a.codec }

func (a *Adapter) Network() *chaincfg.Params { return a.codec.Network() }

// Address 返回编解码器默认类型的地址 (P2WPKH)
func (a *Adapter) Address(key signer.Signer) (address.Address, error) {
	return chain.SenderAddress(a.id, signature.SchemeSecp256k1, a.codec, key)
}

// AddressAs 返回指定类型的地址
func (a *Adapter) AddressAs(key signer.Signer, t address.Type) (address.Address, error) {
	if err := chain.CheckScheme(a.id, signature.SchemeSecp256k1, key); err != nil {
		return address.Address{}, err
	}
	pub, err := key.PublicKey()
	if err != nil {
		return address.Address{}, err
	}
	return a.codec.EncodeAs(pub, t)
}

// SignTransaction 所有输入必须属于同一个密钥
func (a *Adapter) SignTransaction(raw chain.RawTransaction, keys ...signer.Signer) (*chain.SignedTransaction, error) {
	tx, ok := raw.(*Transaction)
	if !ok || tx == nil {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "%s: expected *bitcoin.Transaction, got %T", a.id, raw)
	}
	if len(keys) != 1 {
		return nil, errno.Newf(errno.ErrInvalidInput, "%s: expected exactly one signing key, got %d", a.id, len(keys))
	}
	return a.pipeline.Run(tx, keys...)
}

func (a *Adapter) sigHashes(tx *Transaction, pub signature.PublicKey) ([][]byte, error) {
	pkh := crypto_util.Hash160(pub.Bytes())
	msg := tx.MsgTx()
	hashes := txscript.NewTxSigHashes(msg, tx.prevOutFetcher())

	digests := make([][]byte, len(tx.inputs))
	for i, in := range tx.inputs {
		if !bytes.Equal(in.Address.Hash(), pkh) {
			return nil, errno.Newf(errno.ErrInvalidTransaction, "%s: input %d (%s) is not owned by the signing key", a.id, i, in.Address)
		}
		var (
			digest []byte
			err    error
		)
		switch in.Address.Type() {
		case address.TypeP2PKH:
			digest, err = txscript.CalcSignatureHash(in.pkScript, txscript.SigHashAll, msg, i)
		case address.TypeP2WPKH:
			var scriptCode []byte
			if scriptCode, err = p2pkhScriptCode(pkh); err == nil {
				digest, err = txscript.CalcWitnessSigHash(scriptCode, hashes, txscript.SigHashAll, msg, i, in.Amount)
			}
		default:
			err = errno.Newf(errno.ErrInvalidTransaction, "input %d: unsupported type %s", i, in.Address.Type())
		}
		if err != nil {
			return nil, errno.Newf(errno.ErrEncodingFailure, "%s: sighash input %d: %v", a.id, i, err)
		}
		digests[i] = digest
	}
	return digests, nil
}

// SignedPayload 填入 scriptSig / witness 后按 BIP-144 序列化
func SignedPayload(tx *Transaction, sigs []*signature.Signature, pub signature.PublicKey) ([]byte, error) {
	if len(sigs) != len(tx.inputs) {
		return nil, errno.Newf(errno.ErrInvalidSignature, "expected %d signatures, got %d", len(tx.inputs), len(sigs))
	}
	msg := tx.MsgTx()
	pubBytes := pub.Bytes()
	for i, in := range tx.inputs {
		der, err := sigs[i].DER()
		if err != nil {
			return nil, err
		}
		der = append(der, byte(txscript.SigHashAll))
		switch in.Address.Type() {
		case address.TypeP2PKH:
			script, err := txscript.NewScriptBuilder().AddData(der).AddData(pubBytes).Script()
			if err != nil {
				return nil, errno.Newf(errno.ErrEncodingFailure, "signature script: %v", err)
			}
			msg.TxIn[i].SignatureScript = script
		case address.TypeP2WPKH:
			msg.TxIn[i].Witness = wire.TxWitness{der, pubBytes}
		}
	}
	var buf bytes.Buffer
	buf.Grow(msg.SerializeSize())
	if err := msg.Serialize(&buf); err != nil {
		return nil, errno.Newf(errno.ErrEncodingFailure, "serialize: %v", err)
	}
	return buf.Bytes(), nil
}

// MessageHash 双 SHA256(varstr(prefix) || varstr(msg))
func (a *Adapter) MessageHash(msg []byte) []byte {
	return MessageHash(msg)
}

func MessageHash(msg []byte) []byte {
	var buf bytes.Buffer
	_ = wire.WriteVarString(&buf, 0, MessagePrefix)
	_ = wire.WriteVarString(&buf, 0, string(msg))
	return crypto_util.DoubleSHA256(buf.Bytes())
}

// SignMessage 返回 v 为恢复 ID 的签名，用 EncodeMessageSignature 转成钱包通用的 Base64 形式
func (a *Adapter) SignMessage(msg []byte, key signer.Signer) (*signature.Signature, error) {
	return chain.SignDigest(a.id, signature.SchemeSecp256k1, key, MessageHash(msg))
}

// EncodeMessageSignature Base64(header || r || s)，header = 31 + recId (压缩公钥)
func EncodeMessageSignature(sig *signature.Signature) (string, error) {
	rid, err := sig.RecoveryID()
	if err != nil {
		return "", err
	}
	out := make([]byte, 0, signature.CompactLength)
	out = append(out, compressedHeader+rid)
	out = append(out, sig.R()...)
	out = append(out, sig.S()...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// VerifyMessage 从 Base64 签名恢复公钥并与地址比对 (支持 P2PKH / P2WPKH)
func (a *Adapter) VerifyMessage(addr address.Address, msg []byte, encoded string) (bool, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != signature.CompactLength {
		return false, errno.Newf(errno.ErrInvalidSignature, "malformed message signature")
	}
	header := raw[0]
	if header < 27 || header > 42 {
		return false, errno.Newf(errno.ErrInvalidSignature, "invalid signature header %d", header)
	}
	sig, err := signature.NewECDSA(raw[1:33], raw[33:65], uint64((header-27)&3))
	if err != nil {
		return false, err
	}
	pub, err := sig.Recover(MessageHash(msg))
	if err != nil {
		return false, err
	}
	if addr.Type() == address.TypeP2PKH || addr.Type() == address.TypeP2WPKH {
		return bytes.Equal(addr.Hash(), crypto_util.Hash160(pub.Bytes())), nil
	}
	return false, errno.Newf(errno.ErrInvalidAddress, "message verification supports p2pkh and p2wpkh only, got %s", addr.Type())
}
