package wallet

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/chain"
	"wallet-sdk/pkg/chain/evm"
	"wallet-sdk/pkg/config"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/kms"
	"wallet-sdk/pkg/wallet/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testConfig() config.Config {
	return config.Config{
		Chains: []config.ChainConfig{
			{ID: "ethereum", Family: "evm", ChainID: 1},
			{ID: "sepolia", Family: "evm", ChainID: 11155111},
			{ID: "tron", Family: "tron"},
			{ID: "solana", Family: "solana"},
			{ID: "bitcoin", Family: "bitcoin", Network: "mainnet"},
			{ID: "bitcoin-testnet", Family: "bitcoin", Network: "testnet3"},
		},
	}
}

func newTestWallet(t *testing.T) *Wallet {
	t.Helper()
	w, err := FromMnemonic(testMnemonic, "", testConfig())
	if err != nil {
		t.Fatalf("创建钱包失败: %v", err)
	}
	t.Cleanup(w.Destroy)
	return w
}

func TestDefaultPath(t *testing.T) {
	w := newTestWallet(t)
	cases := map[string]string{
		"ethereum":        "m/44'/60'/0'/0/3",
		"tron":            "m/44'/195'/0'/0/3",
		"solana":          "m/44'/501'/0'/3'",
		"bitcoin":         "m/84'/0'/0'/0/3",
		"bitcoin-testnet": "m/84'/1'/0'/0/3",
	}
	for id, want := range cases {
		got, err := w.DefaultPath(id, 3)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}

	_, err := w.DefaultPath("dogecoin", 0)
	assert.ErrorIs(t, err, errno.ErrUnsupportedChain)
}

func TestDefaultAddresses(t *testing.T) {
	w := newTestWallet(t)
	cases := []struct {
		chain string
		want  string
	}{
		{"ethereum", "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"},
		{"bitcoin", "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"},
		{"solana", "HAgk14JpMQLgt6rVgv7cBQFJWFto5Dqxi472uT3DKpqk"},
	}
	for _, c := range cases {
		addr, err := w.Address(c.chain, "")
		if err != nil {
			t.Fatalf("%s 地址派生失败: %v", c.chain, err)
		}
		assert.Equal(t, c.want, addr.String(), c.chain)
	}
}

func TestTronAddressSharesEVMKeyHash(t *testing.T) {
	w := newTestWallet(t)
	path := "m/44'/60'/0'/0/0"
	eth, err := w.Address("ethereum", path)
	require.NoError(t, err)
	trx, err := w.Address("tron", path)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(trx.String(), "T"))
	payload := trx.Bytes()
	require.Len(t, payload, 21)
	assert.Equal(t, byte(0x41), payload[0])
	assert.Equal(t, eth.Bytes(), payload[1:])
}

func TestSignIntentEVM(t *testing.T) {
	w := newTestWallet(t)
	in := &types.UnsignedTransaction{
		Chain:  "ethereum",
		From:   "0x9858effd232b4033e47d90003d41ec34ecaeda94",
		To:     "0x3535353535353535353535353535353535353535",
		Amount: "0.5",
		EVM: &types.EVMFields{
			Nonce:    9,
			GasLimit: 21000,
			GasPrice: "20000000000",
		},
	}
	out, err := w.SignIntent(in)
	if err != nil {
		t.Fatalf("签名失败: %v", err)
	}
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", out.From)

	raw, err := hexutil.Decode(out.RawTx)
	require.NoError(t, err)
	var decoded gethtypes.Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	assert.Equal(t, decoded.Hash().Hex(), out.TxHash)
	assert.Equal(t, uint64(1), decoded.ChainId().Uint64(), "chain_id 为 0 时取适配器的网络 ID")
	assert.Equal(t, "500000000000000000", decoded.Value().String())

	from, err := gethtypes.Sender(gethtypes.NewEIP155Signer(big.NewInt(1)), &decoded)
	require.NoError(t, err)
	assert.Equal(t, out.From, from.Hex())
}

func TestSignIntentEVMDynamicFee(t *testing.T) {
	w := newTestWallet(t)
	out, err := w.SignIntent(&types.UnsignedTransaction{
		Chain:  "sepolia",
		To:     "0x3535353535353535353535353535353535353535",
		Amount: "1",
		EVM: &types.EVMFields{
			GasLimit:             60000,
			MaxFeePerGas:         "30000000000",
			MaxPriorityFeePerGas: "1000000000",
			Data:                 "0xa9059cbb",
		},
	})
	require.NoError(t, err)

	raw, err := hexutil.Decode(out.RawTx)
	require.NoError(t, err)
	var decoded gethtypes.Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	assert.Equal(t, uint8(gethtypes.DynamicFeeTxType), decoded.Type())
	assert.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, decoded.Data())

	from, err := gethtypes.Sender(gethtypes.NewLondonSigner(big.NewInt(11155111)), &decoded)
	require.NoError(t, err)
	assert.Equal(t, out.From, from.Hex())
}

func TestSignIntentTron(t *testing.T) {
	w := newTestWallet(t)
	to, err := w.Address("tron", "m/44'/195'/0'/0/1")
	require.NoError(t, err)

	out, err := w.SignIntent(&types.UnsignedTransaction{
		Chain:  "tron",
		To:     to.String(),
		Amount: "1.5",
		Tron: &types.TronFields{
			RefBlockBytes: "ab12",
			RefBlockHash:  "0102030405060708",
			Timestamp:     1_700_000_000_000,
			FeeLimit:      0,
		},
	})
	require.NoError(t, err)

	sender, err := w.Address("tron", "")
	require.NoError(t, err)
	assert.Equal(t, sender.String(), out.From)
	assert.Len(t, out.TxHash, 64)
	raw, err := hexutil.Decode(out.RawTx)
	require.NoError(t, err)
	// 1.5 TRX = 1500000 sun 的 varint 出现在 raw_data 中
	assert.True(t, bytes.Contains(raw, []byte{0x18, 0xe0, 0xc6, 0x5b}))
}

func TestSignIntentSolana(t *testing.T) {
	w := newTestWallet(t)
	to, err := w.Address("solana", "m/44'/501'/1'/0'")
	require.NoError(t, err)

	out, err := w.SignIntent(&types.UnsignedTransaction{
		Chain:  "solana",
		From:   "HAgk14JpMQLgt6rVgv7cBQFJWFto5Dqxi472uT3DKpqk",
		To:     to.String(),
		Amount: "0.25",
		Solana: &types.SolanaFields{
			RecentBlockhash: solanago.HashFromBytes(bytes.Repeat([]byte{9}, 32)).String(),
		},
	})
	require.NoError(t, err)

	raw, err := hexutil.Decode(out.RawTx)
	require.NoError(t, err)
	decoded, err := solanago.TransactionFromBytes(raw)
	require.NoError(t, err)
	require.NoError(t, decoded.VerifySignatures())
	assert.Equal(t, decoded.Signatures[0].String(), out.TxHash)
	assert.Equal(t, "HAgk14JpMQLgt6rVgv7cBQFJWFto5Dqxi472uT3DKpqk", decoded.Message.AccountKeys[0].String())
}

func TestSignIntentBitcoin(t *testing.T) {
	w := newTestWallet(t)
	sender, err := w.Address("bitcoin", "")
	require.NoError(t, err)

	out, err := w.SignIntent(&types.UnsignedTransaction{
		Chain: "bitcoin",
		From:  sender.String(),
		Bitcoin: &types.BitcoinFields{
			Inputs: []types.UTXO{{
				TxID:    strings.Repeat("ab", 32),
				Vout:    1,
				Amount:  "0.001",
				Address: sender.String(),
			}},
			Outputs: []types.Output{
				{Address: "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", Amount: "0.0005"},
				{Address: sender.String(), Amount: "0.00049"},
			},
		},
	})
	require.NoError(t, err)

	raw, err := hexutil.Decode(out.RawTx)
	require.NoError(t, err)
	var msg wire.MsgTx
	require.NoError(t, msg.Deserialize(bytes.NewReader(raw)))
	assert.Equal(t, msg.TxHash().String(), out.TxHash)
	require.Len(t, msg.TxIn, 1)
	assert.Len(t, msg.TxIn[0].Witness, 2, "P2WPKH 输入使用见证签名")
	assert.Equal(t, int64(50000), msg.TxOut[0].Value)
	assert.Equal(t, int64(49000), msg.TxOut[1].Value)
}

func TestSignIntentRejects(t *testing.T) {
	w := newTestWallet(t)
	evmFields := &types.EVMFields{GasLimit: 21000, GasPrice: "1"}
	cases := []struct {
		name string
		in   *types.UnsignedTransaction
		kind errno.Errno
	}{
		{"发送方不匹配", &types.UnsignedTransaction{
			Chain: "ethereum", From: "0x3535353535353535353535353535353535353535",
			To: "0x3535353535353535353535353535353535353535", EVM: evmFields,
		}, errno.ErrInvalidTransaction},
		{"缺少链字段", &types.UnsignedTransaction{
			Chain: "ethereum", To: "0x3535353535353535353535353535353535353535",
		}, errno.ErrInvalidTransaction},
		{"精度超出", &types.UnsignedTransaction{
			Chain: "tron", To: "TLyqzVGLV1srkB7dToTAEqgDSfPtXRJZYH", Amount: "0.0000001",
			Tron: &types.TronFields{RefBlockBytes: "ab12", RefBlockHash: "0102030405060708", Timestamp: 1},
		}, errno.ErrInvalidInput},
		{"非法金额", &types.UnsignedTransaction{
			Chain: "ethereum", Amount: "-1", EVM: evmFields,
		}, errno.ErrInvalidInput},
		{"未知链", &types.UnsignedTransaction{Chain: "dogecoin"}, errno.ErrUnsupportedChain},
		{"缺少链标识", &types.UnsignedTransaction{}, errno.ErrUnsupportedChain},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := w.SignIntent(c.in)
			if !errors.Is(err, c.kind) {
				t.Fatalf("期望 %v, 实际 %v", c.kind, err)
			}
		})
	}
}

func TestToBaseUnits(t *testing.T) {
	cases := []struct {
		amount   string
		decimals int32
		want     string
		ok       bool
	}{
		{"1", 18, "1000000000000000000", true},
		{"0.000000000000000001", 18, "1", true},
		{"1.5", 6, "1500000", true},
		{"21000000", 8, "2100000000000000", true},
		{"", 8, "0", true},
		{"0.123456789", 8, "", false},
		{"-1", 8, "", false},
		{"abc", 8, "", false},
	}
	for _, c := range cases {
		v, err := ToBaseUnits(c.amount, c.decimals)
		if !c.ok {
			assert.ErrorIs(t, err, errno.ErrInvalidInput, c.amount)
			continue
		}
		require.NoError(t, err, c.amount)
		assert.Equal(t, c.want, v.String(), c.amount)
		if c.amount != "" {
			assert.Equal(t, c.amount, FromBaseUnits(v, c.decimals))
		}
	}
}

func TestSignMessageIntent(t *testing.T) {
	w := newTestWallet(t)
	out, err := w.SignMessageIntent("ethereum", "", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", out.Address)

	sigBytes, err := hexutil.Decode(out.Signature)
	require.NoError(t, err)
	require.Len(t, sigBytes, 65)

	sig, err := w.SignMessage("ethereum", "", []byte("hello"))
	require.NoError(t, err)
	signer, err := evm.RecoverMessageSigner([]byte("hello"), sig)
	require.NoError(t, err)
	assert.Equal(t, out.Address, signer.String())
}

func TestWithRegistry(t *testing.T) {
	reg := chain.NewRegistry()
	require.NoError(t, reg.Register(evm.NewAdapter("local", 1337)))

	w, err := FromMnemonic(testMnemonic, "", config.Config{}, WithRegistry(reg))
	require.NoError(t, err)
	defer w.Destroy()

	addr, err := w.Address("local", "")
	require.NoError(t, err)
	assert.Equal(t, address.FamilyEVM, addr.Family())
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", addr.String())

	_, err = w.Address("ethereum", "")
	assert.ErrorIs(t, err, errno.ErrUnsupportedChain)
}

func TestRegisterDefaults(t *testing.T) {
	reg := chain.NewRegistry()
	require.NoError(t, RegisterDefaults(reg, testConfig().Chains))
	assert.ElementsMatch(t,
		[]string{"ethereum", "sepolia", "tron", "solana", "bitcoin", "bitcoin-testnet"},
		reg.Chains())

	err := RegisterDefaults(reg, []config.ChainConfig{{ID: "x", Family: "cosmos"}})
	assert.ErrorIs(t, err, errno.ErrUnsupportedChain)

	_, err = BitcoinParams("mainnet2")
	assert.ErrorIs(t, err, errno.ErrInvalidInput)
}

func TestDestroy(t *testing.T) {
	w, err := FromMnemonic(testMnemonic, "", testConfig())
	require.NoError(t, err)
	w.Destroy()

	_, err = w.Address("ethereum", "")
	assert.ErrorIs(t, err, errno.ErrKeyDestroyed)
	_, err = w.SignMessage("solana", "", []byte("x"))
	assert.ErrorIs(t, err, errno.ErrKeyDestroyed)
}

func TestFromMnemonicInvalid(t *testing.T) {
	_, err := FromMnemonic("abandon abandon", "", testConfig())
	assert.Error(t, err)
}

func TestAddressCached(t *testing.T) {
	w := newTestWallet(t)
	first, err := w.Address("ethereum", "")
	require.NoError(t, err)
	second, err := w.Address("ethereum", "m/44'/60'/0'/0/0")
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
	assert.Equal(t, 1, w.addrs.Len(), "默认路径与显式路径共用一个缓存条目")

	w.Destroy()
	assert.Equal(t, 0, w.addrs.Len())
	_, err = w.Address("ethereum", "")
	assert.ErrorIs(t, err, errno.ErrKeyDestroyed)
}

func TestImportToKMSAndSignWith(t *testing.T) {
	w := newTestWallet(t)
	km := kms.NewLocalKMS()
	defer km.Close()

	keyID, err := w.ImportToKMS(km, "ethereum", "")
	require.NoError(t, err)
	meta, err := km.Metadata(keyID)
	require.NoError(t, err)
	assert.True(t, meta.Enabled)

	in := &types.UnsignedTransaction{
		Chain:  "ethereum",
		From:   "0x9858EfFD232B4033E47d90003D41EC34EcaEda94",
		To:     "0x3535353535353535353535353535353535353535",
		Amount: "0.5",
		EVM:    &types.EVMFields{Nonce: 9, GasLimit: 21000, GasPrice: "20000000000"},
	}
	want, err := w.SignIntent(in)
	require.NoError(t, err)

	// 主密钥销毁后仍可通过 KMS 句柄签名
	w.Destroy()
	handle, err := km.Signer(keyID)
	require.NoError(t, err)
	got, err := SignIntentWith(w.Registry(), handle, in)
	if err != nil {
		t.Fatalf("KMS 句柄签名失败: %v", err)
	}
	assert.Equal(t, want.RawTx, got.RawTx, "RFC 6979 确定性签名应与直接签名一致")
	assert.Equal(t, want.TxHash, got.TxHash)

	_, err = w.ImportToKMS(km, "ethereum", "")
	assert.ErrorIs(t, err, errno.ErrKeyDestroyed)
	_, err = w.ImportToKMS(nil, "ethereum", "")
	assert.ErrorIs(t, err, errno.ErrInvalidInput)
}

func TestImportToKMSEd25519(t *testing.T) {
	w := newTestWallet(t)
	km := kms.NewLocalKMS()
	defer km.Close()

	keyID, err := w.ImportToKMS(km, "solana", "")
	require.NoError(t, err)
	handle, err := km.Signer(keyID)
	require.NoError(t, err)

	adapter, err := w.Registry().Get("solana")
	require.NoError(t, err)
	addr, err := adapter.Address(handle)
	require.NoError(t, err)
	assert.Equal(t, "HAgk14JpMQLgt6rVgv7cBQFJWFto5Dqxi472uT3DKpqk", addr.String())

	require.NoError(t, km.DestroyKey(keyID))
	_, err = adapter.Address(handle)
	assert.ErrorIs(t, err, kms.ErrKeyNotFound)
}
