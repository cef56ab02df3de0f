package chain_test

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/chain"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/monitor"
	"wallet-sdk/pkg/signature"
	"wallet-sdk/pkg/signer"
)

type memoTx struct {
	memo string
}

func (memoTx) Family() address.Family { return address.FamilyEVM }

type counters struct {
	encode, assemble int
}

func memoPipeline(name string, c *counters) *chain.Pipeline[memoTx] {
	return &chain.Pipeline[memoTx]{
		Chain:  name,
		Scheme: signature.SchemeSecp256k1,
		Codec:  address.NewEVMCodec(),
		Encode: func(tx memoTx, _ []signature.PublicKey) ([][]byte, error) {
			c.encode++
			if tx.memo == "" {
				return nil, errno.Newf(errno.ErrInvalidTransaction, "empty memo")
			}
			return [][]byte{[]byte(tx.memo)}, nil
		},
		Hash: func(b []byte) []byte {
			h := sha256.Sum256(b)
			return h[:]
		},
		Assemble: func(tx memoTx, sigs []*signature.Signature, _ []signature.PublicKey) ([]byte, error) {
			c.assemble++
			return append([]byte(tx.memo), sigs[0].Bytes()...), nil
		},
		TxHash: func(_ memoTx, encoded []byte, _ []*signature.Signature) ([]byte, error) {
			h := sha256.Sum256(encoded)
			return h[:], nil
		},
	}
}

func newKey(t *testing.T, scheme signature.Scheme) *signer.SigningKey {
	t.Helper()
	k, err := signer.Generate(scheme)
	require.NoError(t, err)
	t.Cleanup(k.Destroy)
	return k
}

func TestPipelineRun(t *testing.T) {
	var c counters
	p := memoPipeline("memo-ok", &c)
	key := newKey(t, signature.SchemeSecp256k1)

	st, err := p.Run(memoTx{memo: "hello"}, key)
	require.NoError(t, err)

	pub, err := key.PublicKey()
	require.NoError(t, err)
	sender, err := address.NewEVMCodec().Encode(pub)
	require.NoError(t, err)
	assert.Equal(t, sender.String(), st.Sender())

	// 签名可恢复出签名者
	digest := sha256.Sum256([]byte("hello"))
	recovered, err := st.Signature().Recover(digest[:])
	require.NoError(t, err)
	assert.True(t, recovered.Equal(pub))

	first, err := st.Encode()
	require.NoError(t, err)
	second, err := st.Encode()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	h1, _ := st.Hash()
	h2, _ := st.Hash()
	assert.Equal(t, h1, h2)
	if c.assemble != 1 {
		t.Fatalf("组装应只执行一次, 实际 %d 次", c.assemble)
	}
	assert.Equal(t, "0x", st.ID()[:2])
	assert.Len(t, st.Signatures(), 1)
}

func TestPipelineSchemeMismatchFailsFast(t *testing.T) {
	var c counters
	p := memoPipeline("memo-mismatch", &c)

	_, err := p.Run(memoTx{memo: "hello"}, newKey(t, signature.SchemeEd25519))
	assert.ErrorIs(t, err, errno.ErrSchemeMismatch)
	assert.ErrorIs(t, err, errno.ErrUnsupportedChain)
	if c.encode != 0 {
		t.Fatalf("曲线不匹配时不应进行编码")
	}

	_, err = p.Run(memoTx{memo: "hello"})
	assert.ErrorIs(t, err, errno.ErrInvalidInput)
}

func TestPipelineFailures(t *testing.T) {
	var c counters
	p := memoPipeline("memo-fail", &c)

	before := testutil.ToFloat64(monitor.SignRequestsTotal.WithLabelValues("memo-fail", "error"))
	_, err := p.Run(memoTx{}, newKey(t, signature.SchemeSecp256k1))
	assert.ErrorIs(t, err, errno.ErrInvalidTransaction)
	after := testutil.ToFloat64(monitor.SignRequestsTotal.WithLabelValues("memo-fail", "error"))
	assert.Equal(t, before+1, after)

	destroyed := newKey(t, signature.SchemeSecp256k1)
	destroyed.Destroy()
	_, err = p.Run(memoTx{memo: "x"}, destroyed)
	assert.ErrorIs(t, err, errno.ErrKeyDestroyed)

	p.Assemble = func(memoTx, []*signature.Signature, []signature.PublicKey) ([]byte, error) {
		return nil, errno.Newf(errno.ErrEncodingFailure, "boom")
	}
	_, err = p.Run(memoTx{memo: "x"}, newKey(t, signature.SchemeSecp256k1))
	assert.ErrorIs(t, err, errno.ErrEncodingFailure)
}

func TestPipelineMetricsExported(t *testing.T) {
	var c counters
	p := memoPipeline("memo-gathered", &c)
	_, err := p.Run(memoTx{memo: "hello"}, newKey(t, signature.SchemeSecp256k1))
	require.NoError(t, err)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if f.GetName() != "wallet_sign_requests_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "chain" && l.GetValue() == "memo-gathered" {
					found = m.GetCounter().GetValue() >= 1
				}
			}
		}
	}
	if !found {
		t.Fatalf("默认 Registry 未导出 memo-gathered 的签名计数")
	}
}

func TestSignDigest(t *testing.T) {
	key := newKey(t, signature.SchemeSecp256k1)
	digest := sha256.Sum256([]byte("msg"))

	sig, err := chain.SignDigest("memo", signature.SchemeSecp256k1, key, digest[:])
	require.NoError(t, err)
	ok, err := key.Verify(digest[:], sig)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = chain.SignDigest("memo", signature.SchemeEd25519, key, digest[:])
	assert.ErrorIs(t, err, errno.ErrSchemeMismatch)
	_, err = chain.SignDigest("memo", signature.SchemeEd25519, nil, digest[:])
	assert.ErrorIs(t, err, errno.ErrInvalidInput)
}

type stubAdapter struct {
	chain.ChainAdapter
	id string
}

func (s stubAdapter) ChainID() string { return s.id }

func TestRegistry(t *testing.T) {
	reg := chain.NewRegistry()

	_, err := reg.Get("ethereum")
	assert.ErrorIs(t, err, errno.ErrUnsupportedChain)

	require.NoError(t, reg.Register(stubAdapter{id: "tron"}))
	require.NoError(t, reg.Register(stubAdapter{id: "ethereum"}))
	assert.Equal(t, []string{"ethereum", "tron"}, reg.Chains())
	assert.True(t, reg.IsSupported("tron"))

	// 覆盖已有条目
	replacement := stubAdapter{id: "tron"}
	require.NoError(t, reg.Register(replacement))
	got, err := reg.Get("tron")
	require.NoError(t, err)
	assert.Equal(t, replacement, got)
	assert.Len(t, reg.Chains(), 2)

	err = reg.Register(stubAdapter{})
	assert.ErrorIs(t, err, errno.ErrInvalidInput)
	err = reg.Register(nil)
	assert.ErrorIs(t, err, errno.ErrInvalidInput)

	assert.Same(t, chain.Default(), chain.Default())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := chain.NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = reg.Register(stubAdapter{id: fmt.Sprintf("chain-%d", i%4)})
		}(i)
		go func(i int) {
			defer wg.Done()
			if _, err := reg.Get(fmt.Sprintf("chain-%d", i%4)); err != nil && !errors.Is(err, errno.ErrUnsupportedChain) {
				t.Errorf("意外错误: %v", err)
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, reg.Chains(), 4)
}
