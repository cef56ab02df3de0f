package cmd

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-sdk/pkg/chain"
	"wallet-sdk/pkg/config"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/keystore"
	"wallet-sdk/pkg/wallet"
	"wallet-sdk/pkg/wallet/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// setupKeystore 写入测试 Keystore 并返回带 --keystore 参数的命令
func setupKeystore(t *testing.T) *cobra.Command {
	t.Helper()
	cfg = config.Config{
		Wallet: config.WalletConfig{Password: "correct horse"},
		Chains: []config.ChainConfig{{ID: "ethereum", Family: "evm", ChainID: 1}},
	}
	require.NoError(t, wallet.RegisterDefaults(chain.Default(), cfg.Chains))

	path := filepath.Join(t.TempDir(), "keystore.json")
	encrypted, err := keystore.EncryptMnemonic(testMnemonic, cfg.Wallet.Password, keystore.WithScrypt(keystore.LightScrypt))
	require.NoError(t, err)
	require.NoError(t, encrypted.SaveToFile(path))

	c := &cobra.Command{Use: "test"}
	addKeystoreFlags(c)
	require.NoError(t, c.Flags().Set("keystore", path))
	return c
}

func TestWithWalletDestroysOnError(t *testing.T) {
	c := setupKeystore(t)
	boom := errors.New("boom")

	var opened *wallet.Wallet
	err := withWallet(c, func(w *wallet.Wallet) error {
		opened = w
		_, err := w.Address("ethereum", "")
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, opened)

	_, err = opened.Address("ethereum", "")
	if !errors.Is(err, errno.ErrKeyDestroyed) {
		t.Fatalf("出错返回后主密钥应已销毁, got %v", err)
	}
	assert.Same(t, chain.Default(), opened.Registry(), "CLI 使用进程级 Registry")
}

func TestWithWalletWrongPassword(t *testing.T) {
	c := setupKeystore(t)
	cfg.Wallet.Password = "wrong"

	called := false
	err := withWallet(c, func(*wallet.Wallet) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestSignViaKMS(t *testing.T) {
	c := setupKeystore(t)
	in := &types.UnsignedTransaction{
		Chain:  "ethereum",
		From:   "0x9858EfFD232B4033E47d90003D41EC34EcaEda94",
		To:     "0x3535353535353535353535353535353535353535",
		Amount: "0.5",
		EVM:    &types.EVMFields{Nonce: 9, GasLimit: 21000, GasPrice: "20000000000"},
	}

	var direct, viaKMS *types.SignedTransaction
	require.NoError(t, withWallet(c, func(w *wallet.Wallet) error {
		var err error
		direct, err = w.SignIntent(in)
		return err
	}))
	require.NoError(t, withWallet(c, func(w *wallet.Wallet) error {
		var err error
		viaKMS, err = signViaKMS(w, in)
		if err != nil {
			return err
		}
		// 签名前主密钥已销毁
		_, err = w.Address("ethereum", "")
		assert.ErrorIs(t, err, errno.ErrKeyDestroyed)
		return nil
	}))
	assert.Equal(t, direct.RawTx, viaKMS.RawTx)
	assert.Equal(t, direct.From, viaKMS.From)
}
