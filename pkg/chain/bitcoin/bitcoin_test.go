package bitcoin_test

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/chain/bitcoin"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signature"
	"wallet-sdk/pkg/signer"
)

const (
	prevTxA = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
	prevTxB = "0e3e2357e806b6cdb1f70b54c3a3a17b6714ee1f0e68bebb44a74b1efd512098"
)

func keyOne(t *testing.T) *signer.SigningKey {
	t.Helper()
	raw := make([]byte, 32)
	raw[31] = 1
	k, err := signer.New(signature.SchemeSecp256k1, raw)
	require.NoError(t, err)
	t.Cleanup(k.Destroy)
	return k
}

func mustParse(t *testing.T, s string) address.Address {
	t.Helper()
	a, err := address.NewBitcoinCodec(nil).Parse(s)
	require.NoError(t, err)
	return a
}

func TestPayToAddrScriptMatchesTxscript(t *testing.T) {
	for _, s := range []string{
		"1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH",
		"3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy",
		"bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		"bc1qrp33g0q5c5txsp9arysrx4k6zdkfs4nce4xj0gdcccefvpysxf3qccfmv3",
		"bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqzk5jj0",
	} {
		got, err := bitcoin.PayToAddrScript(mustParse(t, s))
		require.NoError(t, err, s)

		ref, err := btcutil.DecodeAddress(s, &chaincfg.MainNetParams)
		require.NoError(t, err, s)
		want, err := txscript.PayToAddrScript(ref)
		require.NoError(t, err, s)
		if !bytes.Equal(got, want) {
			t.Fatalf("%s 锁定脚本错误: got %x want %x", s, got, want)
		}
	}
}

func TestSignAndExecuteScripts(t *testing.T) {
	key := keyOne(t)
	adapter := bitcoin.NewAdapter("bitcoin", &chaincfg.MainNetParams)

	segwit, err := adapter.Address(key)
	require.NoError(t, err)
	assert.Equal(t, "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", segwit.String())
	legacy, err := adapter.AddressAs(key, address.TypeP2PKH)
	require.NoError(t, err)
	assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", legacy.String())

	inputs := []bitcoin.Input{
		{TxID: prevTxA, Vout: 0, Amount: 100_000, Address: segwit},
		{TxID: prevTxB, Vout: 3, Amount: 50_000, Address: legacy},
	}
	tx, err := bitcoin.NewBuilder().
		AddInput(inputs[0]).
		AddInput(inputs[1]).
		AddOutput(bitcoin.Output{Address: mustParse(t, "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"), Amount: 120_000}).
		AddOutput(bitcoin.Output{Address: segwit, Amount: 29_000}).
		Build()
	require.NoError(t, err)
	assert.Equal(t, btcutil.Amount(1_000), tx.Fee())

	st, err := adapter.SignTransaction(tx, key)
	require.NoError(t, err)
	require.Len(t, st.Signatures(), 2, "每个输入一个签名")
	assert.Equal(t, segwit.String(), st.Sender())

	encoded, err := st.Encode()
	require.NoError(t, err)
	var signed wire.MsgTx
	require.NoError(t, signed.Deserialize(bytes.NewReader(encoded)))
	require.True(t, signed.HasWitness())
	assert.Len(t, signed.TxIn[0].Witness, 2)
	assert.Empty(t, signed.TxIn[0].SignatureScript)
	assert.NotEmpty(t, signed.TxIn[1].SignatureScript)
	assert.Equal(t, signed.TxHash().String(), st.ID())

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, in := range inputs {
		script, err := bitcoin.PayToAddrScript(in.Address)
		require.NoError(t, err)
		fetcher.AddPrevOut(signed.TxIn[i].PreviousOutPoint, wire.NewTxOut(in.Amount, script))
	}
	sigHashes := txscript.NewTxSigHashes(&signed, fetcher)
	for i, in := range inputs {
		script, _ := bitcoin.PayToAddrScript(in.Address)
		vm, err := txscript.NewEngine(script, &signed, i, txscript.StandardVerifyFlags, nil, sigHashes, in.Amount, fetcher)
		require.NoError(t, err)
		if err := vm.Execute(); err != nil {
			t.Fatalf("输入 %d 脚本验证失败: %v", i, err)
		}
	}
}

func TestSignTransactionRejects(t *testing.T) {
	key := keyOne(t)
	adapter := bitcoin.NewAdapter("bitcoin", nil)

	other, err := signer.Generate(signature.SchemeSecp256k1)
	require.NoError(t, err)
	defer other.Destroy()
	otherAddr, err := adapter.Address(other)
	require.NoError(t, err)

	tx, err := bitcoin.NewBuilder().
		AddInput(bitcoin.Input{TxID: prevTxA, Amount: 10_000, Address: otherAddr}).
		AddOutput(bitcoin.Output{Address: otherAddr, Amount: 9_000}).
		Build()
	require.NoError(t, err)

	_, err = adapter.SignTransaction(tx, key)
	assert.ErrorIs(t, err, errno.ErrInvalidTransaction, "输入不属于签名密钥")

	_, err = adapter.SignTransaction(tx, other, key)
	assert.ErrorIs(t, err, errno.ErrInvalidInput)

	edKey, err := signer.Generate(signature.SchemeEd25519)
	require.NoError(t, err)
	defer edKey.Destroy()
	_, err = adapter.SignTransaction(tx, edKey)
	assert.ErrorIs(t, err, errno.ErrSchemeMismatch)
}

func TestBuilderValidation(t *testing.T) {
	segwit := mustParse(t, "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4")
	p2sh := mustParse(t, "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy")
	in := bitcoin.Input{TxID: prevTxA, Amount: 1_000, Address: segwit}
	out := bitcoin.Output{Address: p2sh, Amount: 500}

	cases := map[string]*bitcoin.Builder{
		"缺少输入":     bitcoin.NewBuilder().AddOutput(out),
		"缺少输出":     bitcoin.NewBuilder().AddInput(in),
		"非法 txid":  bitcoin.NewBuilder().AddInput(bitcoin.Input{TxID: "abcd", Amount: 1, Address: segwit}).AddOutput(out),
		"不支持的输入类型": bitcoin.NewBuilder().AddInput(bitcoin.Input{TxID: prevTxA, Amount: 1_000, Address: p2sh}).AddOutput(out),
		"重复输入":     bitcoin.NewBuilder().AddInput(in).AddInput(in).AddOutput(out),
		"输出超过输入":   bitcoin.NewBuilder().AddInput(in).AddOutput(bitcoin.Output{Address: p2sh, Amount: 2_000}),
		"零金额输出":    bitcoin.NewBuilder().AddInput(in).AddOutput(bitcoin.Output{Address: p2sh}),
	}
	for name, b := range cases {
		_, err := b.Build()
		assert.ErrorIs(t, err, errno.ErrInvalidInput, name)
	}
}

func TestSignMessage(t *testing.T) {
	key := keyOne(t)
	adapter := bitcoin.NewAdapter("bitcoin", nil)
	msg := []byte("hello")

	sig, err := adapter.SignMessage(msg, key)
	require.NoError(t, err)
	encoded, err := bitcoin.EncodeMessageSignature(sig)
	require.NoError(t, err)

	raw := make([]byte, 32)
	raw[31] = 1
	priv, _ := btcec.PrivKeyFromBytes(raw)
	ref := ecdsa.SignCompact(priv, adapter.MessageHash(msg), true)
	assert.Equal(t, base64.StdEncoding.EncodeToString(ref), encoded)

	for _, s := range []string{"1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"} {
		ok, err := adapter.VerifyMessage(mustParse(t, s), msg, encoded)
		require.NoError(t, err)
		assert.True(t, ok, s)
	}
	ok, err := adapter.VerifyMessage(mustParse(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"), []byte("bye"), encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}
