package signature

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-sdk/pkg/errno"
)

func testKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	raw := sha256.Sum256([]byte("signature test key"))
	priv, _ := btcec.PrivKeyFromBytes(raw[:])
	return priv
}

func signCompact(t *testing.T, priv *btcec.PrivateKey, digest []byte) *Signature {
	t.Helper()
	compact := ecdsa.SignCompact(priv, digest, false)
	sig, err := NewECDSA(compact[1:33], compact[33:], uint64(compact[0]-27))
	require.NoError(t, err)
	return sig
}

func TestRecoveryIDFromV(t *testing.T) {
	r := bytes.Repeat([]byte{1}, 32)
	cases := []struct {
		v       uint64
		rid     byte
		chainID uint64
		eip155  bool
		wantErr bool
	}{
		{v: 0, rid: 0},
		{v: 1, rid: 1},
		{v: 27, rid: 0},
		{v: 28, rid: 1},
		{v: 37, rid: 0, chainID: 1, eip155: true},
		{v: 38, rid: 1, chainID: 1, eip155: true},
		{v: 147, rid: 0, chainID: 56, eip155: true},
		{v: 310, rid: 1, chainID: 137, eip155: true},
		{v: 2, wantErr: true},
		{v: 29, wantErr: true},
		{v: 34, wantErr: true},
	}
	for _, c := range cases {
		sig, err := NewECDSA(r, r, c.v)
		require.NoError(t, err)

		rid, err := sig.RecoveryID()
		if c.wantErr {
			assert.Error(t, err, "v=%d", c.v)
			assert.True(t, errors.Is(err, errno.ErrInvalidInput))
			continue
		}
		require.NoError(t, err, "v=%d", c.v)
		assert.Equal(t, c.rid, rid, "v=%d", c.v)

		chainID, ok := sig.ChainID()
		assert.Equal(t, c.eip155, ok, "v=%d", c.v)
		assert.Equal(t, c.chainID, chainID, "v=%d", c.v)
	}
}

func TestToEip155(t *testing.T) {
	r := bytes.Repeat([]byte{2}, 32)
	for _, rid := range []uint64{0, 1} {
		sig, err := NewECDSA(r, r, 27+rid)
		require.NoError(t, err)

		out, err := sig.ToEip155(1)
		require.NoError(t, err)
		assert.Equal(t, 2*1+35+rid, out.V())
		// 原签名不可变
		assert.Equal(t, 27+rid, sig.V())

		back, err := out.ToLegacy()
		require.NoError(t, err)
		assert.Equal(t, 27+rid, back.V())

		parity, err := out.ToRecoveryID()
		require.NoError(t, err)
		assert.Equal(t, rid, parity.V())
	}

	sig, _ := NewECDSA(r, r, 0)
	_, err := sig.ToEip155(0)
	assert.True(t, errors.Is(err, errno.ErrInvalidInput))
}

func TestRecover(t *testing.T) {
	priv := testKey(t)
	digest := sha256.Sum256([]byte("recover me"))
	sig := signCompact(t, priv, digest[:])

	// 任意 v 形式都应恢复同一个公钥
	for _, chainID := range []uint64{1, 56, 137, 11155111} {
		eip, err := sig.ToEip155(chainID)
		require.NoError(t, err)

		pub, err := eip.Recover(digest[:])
		require.NoError(t, err)
		assert.Equal(t, priv.PubKey().SerializeCompressed(), pub.Bytes())
		assert.Equal(t, priv.PubKey().SerializeUncompressed(), pub.Uncompressed())
		assert.True(t, eip.Verify(pub, digest[:]))
	}

	other := sha256.Sum256([]byte("different"))
	pub, err := sig.Recover(other[:])
	if err == nil {
		assert.NotEqual(t, priv.PubKey().SerializeCompressed(), pub.Bytes())
	} else {
		assert.True(t, errors.Is(err, errno.ErrRecoveryFailed))
	}

	_, err = sig.Recover([]byte{1, 2, 3})
	assert.True(t, errors.Is(err, errno.ErrInvalidInput))
}

func TestRecoverInvalidV(t *testing.T) {
	r := bytes.Repeat([]byte{3}, 32)
	sig, _ := NewECDSA(r, r, 5)
	digest := sha256.Sum256(nil)
	_, err := sig.Recover(digest[:])
	assert.True(t, errors.Is(err, errno.ErrRecoveryFailed))
}

func TestCompactRoundTrip(t *testing.T) {
	priv := testKey(t)
	digest := sha256.Sum256([]byte("compact"))
	sig := signCompact(t, priv, digest[:])
	legacy, _ := sig.ToLegacy()

	compact := legacy.Bytes()
	require.Len(t, compact, CompactLength)

	parsed, err := FromCompact(compact)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(legacy))

	// v 超过一个字节时写入 27+recId
	big, _ := sig.ToEip155(137)
	b := big.Bytes()
	rid, _ := sig.RecoveryID()
	assert.Equal(t, byte(27)+rid, b[64])

	_, err = FromCompact(make([]byte, 10))
	assert.True(t, errors.Is(err, errno.ErrInvalidSignature))
}

func TestDER(t *testing.T) {
	priv := testKey(t)
	digest := sha256.Sum256([]byte("der"))
	sig := signCompact(t, priv, digest[:])

	der, err := sig.DER()
	require.NoError(t, err)
	parsed, err := ecdsa.ParseDERSignature(der)
	require.NoError(t, err)
	assert.True(t, parsed.Verify(digest[:], priv.PubKey()))
}

func TestEd25519(t *testing.T) {
	seed := sha256.Sum256([]byte("ed25519 seed"))
	priv := ed25519.NewKeyFromSeed(seed[:])
	msg := []byte("solana message")
	raw := ed25519.Sign(priv, msg)

	sig, err := FromCompact(raw)
	require.NoError(t, err)
	assert.Equal(t, SchemeEd25519, sig.Scheme())
	assert.Equal(t, raw, sig.Bytes())

	pub, err := NewPublicKey(SchemeEd25519, priv.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	assert.True(t, sig.Verify(pub, msg))
	assert.False(t, sig.Verify(pub, []byte("tampered")))

	_, err = sig.Recover(msg)
	assert.True(t, errors.Is(err, errno.ErrRecoveryFailed))

	_, err = sig.RecoveryID()
	assert.True(t, errors.Is(err, errno.ErrSchemeMismatch))

	_, err = sig.DER()
	assert.Error(t, err)
}

func TestNewPublicKey(t *testing.T) {
	priv := testKey(t)
	fromFull, err := NewPublicKey(SchemeSecp256k1, priv.PubKey().SerializeUncompressed())
	require.NoError(t, err)
	fromCompressed, err := NewPublicKey(SchemeSecp256k1, priv.PubKey().SerializeCompressed())
	require.NoError(t, err)
	assert.True(t, fromFull.Equal(fromCompressed))
	assert.Len(t, fromFull.Bytes(), 33)
	assert.Len(t, fromFull.Uncompressed(), 65)

	_, err = NewPublicKey(SchemeSecp256k1, []byte{0x02, 0x01})
	assert.True(t, errors.Is(err, errno.ErrInvalidInput))
	_, err = NewPublicKey(SchemeEd25519, make([]byte, 31))
	assert.True(t, errors.Is(err, errno.ErrInvalidInput))
}

func TestNewECDSARejectsZero(t *testing.T) {
	_, err := NewECDSA(make([]byte, 32), bytes.Repeat([]byte{1}, 32), 0)
	assert.True(t, errors.Is(err, errno.ErrInvalidSignature))
	_, err = NewECDSA(make([]byte, 33), bytes.Repeat([]byte{1}, 32), 0)
	assert.True(t, errors.Is(err, errno.ErrInvalidSignature))
}
