package wallet

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/chain"
	"wallet-sdk/pkg/chain/bitcoin"
	"wallet-sdk/pkg/chain/evm"
	"wallet-sdk/pkg/chain/solana"
	"wallet-sdk/pkg/chain/tron"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signer"
	"wallet-sdk/pkg/validator"
	"wallet-sdk/pkg/wallet/types"
)

// Decimals 链原生币的精度
func Decimals(f address.Family) int32 {
	switch f {
	case address.FamilyEVM:
		return 18
	case address.FamilyTron:
		return 6
	case address.FamilySolana:
		return 9
	default:
		return 8
	}
}

// ToBaseUnits 把展示单位金额换算为最小单位，小数位超过精度时报错
func ToBaseUnits(amount string, decimals int32) (*big.Int, error) {
	if amount == "" {
		return new(big.Int), nil
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errno.Newf(errno.ErrInvalidInput, "amount %q: %v", amount, err)
	}
	if d.IsNegative() {
		return nil, errno.Newf(errno.ErrInvalidInput, "amount %q must not be negative", amount)
	}
	base := d.Shift(decimals)
	if !base.IsInteger() {
		return nil, errno.Newf(errno.ErrInvalidInput, "amount %q has more than %d decimal places", amount, decimals)
	}
	return base.BigInt(), nil
}

// FromBaseUnits ToBaseUnits 的逆运算，用于展示
func FromBaseUnits(v *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(v, -decimals).String()
}

func toInt64(amount string, decimals int32) (int64, error) {
	v, err := ToBaseUnits(amount, decimals)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, errno.Newf(errno.ErrInvalidInput, "amount %q overflows int64", amount)
	}
	return v.Int64(), nil
}

// wei 以最小单位给出的整数
func wei(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return ToBaseUnits(s, 0)
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, errno.Newf(errno.ErrInvalidInput, "hex %q: %v", s, err)
	}
	return b, nil
}

// BuildTransaction 把交易意图转换为链的未签名交易。sender 为签名密钥对应的地址。
func BuildTransaction(adapter chain.ChainAdapter, in *types.UnsignedTransaction, sender address.Address) (chain.RawTransaction, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	switch adapter.Family() {
	case address.FamilyEVM:
		return buildEVM(adapter, in)
	case address.FamilyTron:
		return buildTron(adapter, in, sender)
	case address.FamilySolana:
		return buildSolana(adapter, in, sender)
	case address.FamilyBitcoin:
		return buildBitcoin(adapter, in)
	default:
		return nil, errno.Newf(errno.ErrUnsupportedChain, "%s", adapter.ChainID())
	}
}

func buildEVM(adapter chain.ChainAdapter, in *types.UnsignedTransaction) (chain.RawTransaction, error) {
	f := in.EVM
	if f == nil {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "evm fields are required")
	}
	value, err := ToBaseUnits(in.Amount, Decimals(address.FamilyEVM))
	if err != nil {
		return nil, err
	}
	data, err := decodeHex(f.Data)
	if err != nil {
		return nil, err
	}
	gasPrice, err := wei(f.GasPrice)
	if err != nil {
		return nil, err
	}
	feeCap, err := wei(f.MaxFeePerGas)
	if err != nil {
		return nil, err
	}
	tipCap, err := wei(f.MaxPriorityFeePerGas)
	if err != nil {
		return nil, err
	}

	chainID := f.ChainID
	if a, ok := adapter.(*evm.Adapter); ok && chainID == 0 {
		chainID = a.NetworkID().Uint64()
	}

	var b *evm.Builder
	if feeCap != nil {
		if tipCap == nil {
			tipCap = new(big.Int)
		}
		b = evm.NewDynamicFeeTx().DynamicFee(tipCap, feeCap)
	} else {
		b = evm.NewLegacyTx().GasPrice(gasPrice)
	}
	b = b.ChainID(chainID).Nonce(f.Nonce).GasLimit(f.GasLimit).Value(value).Data(data)
	if in.To != "" {
		b = b.To(in.To)
	}
	return b.Build()
}

func buildTron(adapter chain.ChainAdapter, in *types.UnsignedTransaction, sender address.Address) (chain.RawTransaction, error) {
	f := in.Tron
	if f == nil {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "tron fields are required")
	}
	codec := adapter.AddressCodec()
	amount, err := toInt64(in.Amount, Decimals(address.FamilyTron))
	if err != nil {
		return nil, err
	}
	refBytes, err := decodeHex(f.RefBlockBytes)
	if err != nil {
		return nil, err
	}
	refHash, err := decodeHex(f.RefBlockHash)
	if err != nil {
		return nil, err
	}

	var contract tron.Contract
	if f.Contract != "" {
		target, err := codec.Parse(f.Contract)
		if err != nil {
			return nil, err
		}
		data, err := decodeHex(f.Data)
		if err != nil {
			return nil, err
		}
		contract = tron.TriggerSmartContract{OwnerAddress: sender, ContractAddress: target, CallValue: amount, Data: data}
	} else {
		to, err := codec.Parse(in.To)
		if err != nil {
			return nil, err
		}
		contract = tron.TransferContract{OwnerAddress: sender, ToAddress: to, Amount: amount}
	}

	b := tron.NewBuilder().
		RefBlock(tron.RefBlock{Bytes: refBytes, Hash: refHash}).
		Timestamp(time.UnixMilli(f.Timestamp)).
		FeeLimit(f.FeeLimit).
		Contract(contract)
	if f.Expiration > 0 {
		b = b.Expiration(time.UnixMilli(f.Expiration))
	}
	if f.Memo != "" {
		b = b.Memo([]byte(f.Memo))
	}
	return b.Build()
}

func buildSolana(adapter chain.ChainAdapter, in *types.UnsignedTransaction, sender address.Address) (chain.RawTransaction, error) {
	f := in.Solana
	if f == nil {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "solana fields are required")
	}
	to, err := adapter.AddressCodec().Parse(in.To)
	if err != nil {
		return nil, err
	}
	lamports, err := ToBaseUnits(in.Amount, Decimals(address.FamilySolana))
	if err != nil {
		return nil, err
	}
	if !lamports.IsUint64() {
		return nil, errno.Newf(errno.ErrInvalidInput, "amount %q overflows u64", in.Amount)
	}
	transfer, err := solana.SystemTransfer(sender, to, lamports.Uint64())
	if err != nil {
		return nil, err
	}
	return solana.NewBuilder().
		FeePayer(sender).
		RecentBlockhashBase58(f.RecentBlockhash).
		Add(transfer).
		Build()
}

func buildBitcoin(adapter chain.ChainAdapter, in *types.UnsignedTransaction) (chain.RawTransaction, error) {
	f := in.Bitcoin
	if f == nil {
		return nil, errno.Newf(errno.ErrInvalidTransaction, "bitcoin fields are required")
	}
	codec := adapter.AddressCodec()
	decimals := Decimals(address.FamilyBitcoin)
	b := bitcoin.NewBuilder()
	for _, u := range f.Inputs {
		owner, err := codec.Parse(u.Address)
		if err != nil {
			return nil, err
		}
		amount, err := toInt64(u.Amount, decimals)
		if err != nil {
			return nil, err
		}
		b = b.AddInput(bitcoin.Input{TxID: u.TxID, Vout: u.Vout, Amount: amount, Address: owner})
	}
	for _, o := range f.Outputs {
		to, err := codec.Parse(o.Address)
		if err != nil {
			return nil, err
		}
		amount, err := toInt64(o.Amount, decimals)
		if err != nil {
			return nil, err
		}
		b = b.AddOutput(bitcoin.Output{Address: to, Amount: amount})
	}
	return b.Build()
}

// checkFrom 核对意图中的发送方与签名密钥一致。比特币只比较公钥哈希，
// 同一密钥的 P2PKH 与 P2WPKH 地址视为同一发送方。
func checkFrom(adapter chain.ChainAdapter, from string, sender address.Address) error {
	if from == "" {
		return nil
	}
	want, err := adapter.AddressCodec().Parse(from)
	if err != nil {
		return err
	}
	same := want.Equal(sender)
	if adapter.Family() == address.FamilyBitcoin {
		same = bytes.Equal(want.Hash(), sender.Hash())
	}
	if !same {
		return errno.Newf(errno.ErrInvalidTransaction, "from %s does not match signing key address %s", from, sender)
	}
	return nil
}

// SignIntent 按意图构造并签名交易
func (w *Wallet) SignIntent(in *types.UnsignedTransaction) (*types.SignedTransaction, error) {
	if in == nil {
		return nil, errno.Newf(errno.ErrInvalidInput, "nil transaction intent")
	}
	var out *types.SignedTransaction
	err := w.withKey(in.Chain, in.DerivationPath, func(adapter chain.ChainAdapter, key signer.Signer) error {
		var err error
		out, err = signIntent(adapter, key, in)
		return err
	})
	return out, err
}

// SignIntentWith 使用外部签名句柄 (如 KMS) 签名意图，in.DerivationPath 被忽略
func SignIntentWith(reg *chain.Registry, key signer.Signer, in *types.UnsignedTransaction) (*types.SignedTransaction, error) {
	if in == nil || key == nil {
		return nil, errno.Newf(errno.ErrInvalidInput, "nil transaction intent or signer")
	}
	adapter, err := reg.Get(in.Chain)
	if err != nil {
		return nil, err
	}
	return signIntent(adapter, key, in)
}

func signIntent(adapter chain.ChainAdapter, key signer.Signer, in *types.UnsignedTransaction) (*types.SignedTransaction, error) {
	sender, err := adapter.Address(key)
	if err != nil {
		return nil, err
	}
	if err := checkFrom(adapter, in.From, sender); err != nil {
		return nil, err
	}
	raw, err := BuildTransaction(adapter, in, sender)
	if err != nil {
		return nil, err
	}
	st, err := adapter.SignTransaction(raw, key)
	if err != nil {
		return nil, err
	}
	encoded, err := st.Encode()
	if err != nil {
		return nil, err
	}
	return &types.SignedTransaction{
		Chain:  in.Chain,
		From:   st.Sender(),
		TxHash: st.ID(),
		RawTx:  hexutil.Encode(encoded),
	}, nil
}

// SignMessageIntent 签名离线消息并返回展示结构
func (w *Wallet) SignMessageIntent(chainID, path string, msg []byte) (*types.SignedMessage, error) {
	var out *types.SignedMessage
	err := w.withKey(chainID, path, func(adapter chain.ChainAdapter, key signer.Signer) error {
		addr, err := adapter.Address(key)
		if err != nil {
			return err
		}
		sig, err := adapter.SignMessage(msg, key)
		if err != nil {
			return err
		}
		out = &types.SignedMessage{
			Chain:     chainID,
			Address:   addr.String(),
			Message:   string(msg),
			Signature: hexutil.Encode(sig.Bytes()),
		}
		return nil
	})
	return out, err
}
