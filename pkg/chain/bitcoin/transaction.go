package bitcoin

import (
	"bytes"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/errno"
)

// Input 待花费的 UTXO。Address 为该输出的所属地址，决定解锁方式 (P2PKH 或 P2WPKH)
type Input struct {
	TxID     string // 区块浏览器展示的反序十六进制
	Vout     uint32
	Amount   int64 // satoshi
	Address  address.Address
	Sequence uint32 // 0 表示 0xffffffff
}

type Output struct {
	Address address.Address
	Amount  int64
}

type input struct {
	Input
	outpoint wire.OutPoint
	pkScript []byte
}

type output struct {
	Output
	pkScript []byte
}

// Transaction 不可变的比特币未签名交易
type Transaction struct {
	version  int32
	lockTime uint32
	inputs   []input
	outputs  []output
}

func (tx *Transaction) Family() address.Family { return address.FamilyBitcoin }

func (tx *Transaction) Inputs() []Input {
	out := make([]Input, len(tx.inputs))
	for i, in := range tx.inputs {
		out[i] = in.Input
	}
	return out
}

func (tx *Transaction) Outputs() []Output {
	out := make([]Output, len(tx.outputs))
	for i, o := range tx.outputs {
		out[i] = o.Output
	}
	return out
}

// Fee 输入总额减输出总额
func (tx *Transaction) Fee() btcutil.Amount {
	var fee int64
	for _, in := range tx.inputs {
		fee += in.Amount
	}
	for _, o := range tx.outputs {
		fee -= o.Amount
	}
	return btcutil.Amount(fee)
}

// MsgTx 返回未签名的 wire 交易副本
func (tx *Transaction) MsgTx() *wire.MsgTx {
	msg := wire.NewMsgTx(tx.version)
	msg.LockTime = tx.lockTime
	for _, in := range tx.inputs {
		op := in.outpoint
		txIn := wire.NewTxIn(&op, nil, nil)
		txIn.Sequence = in.Sequence
		msg.AddTxIn(txIn)
	}
	for _, o := range tx.outputs {
		msg.AddTxOut(wire.NewTxOut(o.Amount, bytes.Clone(o.pkScript)))
	}
	return msg
}

// prevOutFetcher BIP-143/341 签名哈希需要被花费输出的金额与脚本
func (tx *Transaction) prevOutFetcher() *txscript.MultiPrevOutFetcher {
	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for _, in := range tx.inputs {
		fetcher.AddPrevOut(in.outpoint, wire.NewTxOut(in.Amount, in.pkScript))
	}
	return fetcher
}

type Builder struct {
	tx  Transaction
	err error
}

func NewBuilder() *Builder {
	return &Builder{tx: Transaction{version: wire.TxVersion}}
}

func (b *Builder) Version(v int32) *Builder {
	b.tx.version = v
	return b
}

func (b *Builder) LockTime(t uint32) *Builder {
	b.tx.lockTime = t
	return b
}

func (b *Builder) AddInput(in Input) *Builder {
	if b.err != nil {
		return b
	}
	hash, err := chainhash.NewHashFromStr(in.TxID)
	if err != nil || len(in.TxID) != chainhash.MaxHashStringSize {
		b.err = errno.Newf(errno.ErrInvalidTransaction, "input txid %q is not a 32-byte hash", in.TxID)
		return b
	}
	if t := in.Address.Type(); in.Address.Family() != address.FamilyBitcoin || (t != address.TypeP2PKH && t != address.TypeP2WPKH) {
		b.err = errno.Newf(errno.ErrInvalidTransaction, "input %s:%d: only p2pkh and p2wpkh outputs can be spent", in.TxID, in.Vout)
		return b
	}
	if in.Amount <= 0 || in.Amount > btcutil.MaxSatoshi {
		b.err = errno.Newf(errno.ErrInvalidTransaction, "input %s:%d: amount %d out of range", in.TxID, in.Vout, in.Amount)
		return b
	}
	pkScript, err := PayToAddrScript(in.Address)
	if err != nil {
		b.err = err
		return b
	}
	if in.Sequence == 0 {
		in.Sequence = wire.MaxTxInSequenceNum
	}
	b.tx.inputs = append(b.tx.inputs, input{
		Input:    in,
		outpoint: *wire.NewOutPoint(hash, in.Vout),
		pkScript: pkScript,
	})
	return b
}

func (b *Builder) AddOutput(o Output) *Builder {
	if b.err != nil {
		return b
	}
	if o.Amount <= 0 || o.Amount > btcutil.MaxSatoshi {
		b.err = errno.Newf(errno.ErrInvalidTransaction, "output amount %d out of range", o.Amount)
		return b
	}
	pkScript, err := PayToAddrScript(o.Address)
	if err != nil {
		b.err = err
		return b
	}
	b.tx.outputs = append(b.tx.outputs, output{Output: o, pkScript: pkScript})
	return b
}

func (b *Builder) Build() (*Transaction, error) {
	if b.err != nil {
		return nil, b.err
	}
	tx := b.tx
	if len(tx.inputs) == 0 {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "at least one input is required")
	}
	if len(tx.outputs) == 0 {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "at least one output is required")
	}
	seen := make(map[wire.OutPoint]bool, len(tx.inputs))
	for _, in := range tx.inputs {
		if seen[in.outpoint] {
			return nil, errno.Newf(errno.ErrInvalidTransaction, "duplicate input %s", in.outpoint)
		}
		seen[in.outpoint] = true
	}
	if tx.Fee() < 0 {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "outputs exceed inputs by %s", -tx.Fee())
	}
	tx.inputs = append([]input(nil), tx.inputs...)
	tx.outputs = append([]output(nil), tx.outputs...)
	return &tx, nil
}
