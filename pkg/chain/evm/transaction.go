package evm

import (
	"bytes"
	"math/big"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/errno"
)

// TxType 交易信封类型
type TxType uint8

const (
	LegacyTxType     TxType = 0x00
	DynamicFeeTxType TxType = 0x02
)

// AccessTuple EIP-2930 访问列表条目
type AccessTuple struct {
	Address     [20]byte
	StorageKeys [][32]byte
}

// Transaction 不可变的 EVM 未签名交易，只能通过 Builder 构造
type Transaction struct {
	txType     TxType
	chainID    *big.Int
	nonce      uint64
	gasPrice   *big.Int // legacy
	gasTipCap  *big.Int // EIP-1559 maxPriorityFeePerGas
	gasFeeCap  *big.Int // EIP-1559 maxFeePerGas
	gas        uint64
	to         *[20]byte // nil 表示合约创建
	value      *big.Int
	data       []byte
	accessList []AccessTuple
}

func (tx *Transaction) Family() address.Family { return address.FamilyEVM }

func (tx *Transaction) Type() TxType { return tx.txType }

func (tx *Transaction) ChainID() *big.Int { return new(big.Int).Set(tx.chainID) }

func (tx *Transaction) Nonce() uint64 { return tx.nonce }

func (tx *Transaction) Gas() uint64 { return tx.gas }

func (tx *Transaction) GasPrice() *big.Int { return cloneBig(tx.gasPrice) }

func (tx *Transaction) GasTipCap() *big.Int { return cloneBig(tx.gasTipCap) }

func (tx *Transaction) GasFeeCap() *big.Int { return cloneBig(tx.gasFeeCap) }

func (tx *Transaction) Value() *big.Int { return cloneBig(tx.value) }

func (tx *Transaction) Data() []byte { return bytes.Clone(tx.data) }

// To 返回接收方，合约创建时 ok 为 false
func (tx *Transaction) To() (to [20]byte, ok bool) {
	if tx.to == nil {
		return to, false
	}
	return *tx.to, true
}

func (tx *Transaction) AccessList() []AccessTuple {
	out := make([]AccessTuple, len(tx.accessList))
	for i, t := range tx.accessList {
		out[i] = AccessTuple{Address: t.Address, StorageKeys: append([][32]byte(nil), t.StorageKeys...)}
	}
	return out
}

// withChainID 返回替换了链 ID 的拷贝
func (tx *Transaction) withChainID(id *big.Int) *Transaction {
	cp := *tx
	cp.chainID = new(big.Int).Set(id)
	return &cp
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// Builder 校验必填字段后构造 Transaction。第一个错误会被保留并在 Build 时返回。
type Builder struct {
	tx     Transaction
	hasGas bool
	err    error
}

// NewLegacyTx 创建 legacy / EIP-155 交易构造器
func NewLegacyTx() *Builder {
	return &Builder{tx: Transaction{txType: LegacyTxType, chainID: new(big.Int)}}
}

// NewDynamicFeeTx 创建 EIP-1559 交易构造器
func NewDynamicFeeTx() *Builder {
	return &Builder{tx: Transaction{txType: DynamicFeeTxType, chainID: new(big.Int)}}
}

func (b *Builder) fail(format string, args ...any) *Builder {
	if b.err == nil {
		b.err = errno.Newf(errno.ErrInvalidTransaction, format, args...)
	}
	return b
}

func (b *Builder) ChainID(id uint64) *Builder {
	b.tx.chainID = new(big.Int).SetUint64(id)
	return b
}

func (b *Builder) Nonce(n uint64) *Builder {
	b.tx.nonce = n
	return b
}

func (b *Builder) GasLimit(gas uint64) *Builder {
	b.tx.gas = gas
	b.hasGas = true
	return b
}

func (b *Builder) GasPrice(price *big.Int) *Builder {
	if b.tx.txType != LegacyTxType {
		return b.fail("gasPrice is only valid for legacy transactions")
	}
	b.tx.gasPrice = cloneBig(price)
	return b
}

// DynamicFee 设置 maxPriorityFeePerGas 与 maxFeePerGas
func (b *Builder) DynamicFee(tipCap, feeCap *big.Int) *Builder {
	if b.tx.txType != DynamicFeeTxType {
		return b.fail("dynamic fee is only valid for EIP-1559 transactions")
	}
	b.tx.gasTipCap, b.tx.gasFeeCap = cloneBig(tipCap), cloneBig(feeCap)
	return b
}

// To 接受 EIP-55 或无校验和的十六进制地址
func (b *Builder) To(addr string) *Builder {
	parsed, err := address.NewEVMCodec().Parse(addr)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	return b.ToAddress(parsed)
}

func (b *Builder) ToAddress(addr address.Address) *Builder {
	if addr.Family() != address.FamilyEVM {
		return b.fail("recipient must be an evm address, got %s", addr.Family())
	}
	var to [20]byte
	copy(to[:], addr.Bytes())
	b.tx.to = &to
	return b
}

func (b *Builder) Value(v *big.Int) *Builder {
	b.tx.value = cloneBig(v)
	return b
}

func (b *Builder) Data(data []byte) *Builder {
	b.tx.data = bytes.Clone(data)
	return b
}

func (b *Builder) AccessList(list []AccessTuple) *Builder {
	if b.tx.txType != DynamicFeeTxType {
		return b.fail("access list is only valid for EIP-1559 transactions")
	}
	b.tx.accessList = append([]AccessTuple(nil), list...)
	return b
}

// Build 返回不可变交易
func (b *Builder) Build() (*Transaction, error) {
	if b.err != nil {
		return nil, b.err
	}
	tx := b.tx
	if !b.hasGas || tx.gas == 0 {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "gas limit is required")
	}
	if tx.value == nil {
		tx.value = new(big.Int)
	}
	if tx.to == nil && len(tx.data) == 0 {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "contract creation requires init code")
	}
	for name, v := range map[string]*big.Int{"value": tx.value, "gasPrice": tx.gasPrice, "gasTipCap": tx.gasTipCap, "gasFeeCap": tx.gasFeeCap} {
		if v != nil && v.Sign() < 0 {
			return nil, errno.Newf(errno.ErrInvalidTransaction, "%s must not be negative", name)
		}
	}

	switch tx.txType {
	case LegacyTxType:
		if tx.gasPrice == nil {
			return nil, errno.Newf(errno.ErrInvalidTransaction, "gasPrice is required")
		}
	case DynamicFeeTxType:
		if tx.chainID.Sign() == 0 {
			return nil, errno.Newf(errno.ErrInvalidTransaction, "EIP-1559 transactions require a chain id")
		}
		if tx.gasTipCap == nil || tx.gasFeeCap == nil {
			return nil, errno.Newf(errno.ErrInvalidTransaction, "maxPriorityFeePerGas and maxFeePerGas are required")
		}
		if tx.gasTipCap.Cmp(tx.gasFeeCap) > 0 {
			return nil, errno.Newf(errno.ErrInvalidTransaction, "maxPriorityFeePerGas %s exceeds maxFeePerGas %s", tx.gasTipCap, tx.gasFeeCap)
		}
	}
	return &tx, nil
}
