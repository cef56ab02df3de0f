package rlp

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	gethrlp "github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-sdk/pkg/errno"
)

func TestEncodeVectors(t *testing.T) {
	lorem := "Lorem ipsum dolor sit amet, consectetur adipisicing elit"
	cases := []struct {
		name string
		item Item
		want string
	}{
		{"空串", Bytes(nil), "80"},
		{"零", Uint(0), "80"},
		{"单字节", Bytes{0x00}, "00"},
		{"单字节 0x7f", Bytes{0x7f}, "7f"},
		{"单字节 0x80", Bytes{0x80}, "8180"},
		{"15", Uint(15), "0f"},
		{"1024", Uint(1024), "820400"},
		{"dog", String("dog"), "83646f67"},
		{"空列表", List{}, "c0"},
		{"cat dog", List{String("cat"), String("dog")}, "c88363617483646f67"},
		{"集合论表示", List{List{}, List{List{}}, List{List{}, List{List{}}}}, "c7c0c1c0c3c0c1c0"},
		{"56 字节字符串", String(lorem), "b838" + hex.EncodeToString([]byte(lorem))},
		{"大整数", BigInt(new(big.Int).Lsh(big.NewInt(1), 64)), "89010000000000000000"},
		{"nil 大整数", BigInt(nil), "80"},
		{"原始片段", List{Raw{0x83, 'd', 'o', 'g'}}, "c483646f67"},
	}
	for _, c := range cases {
		got, err := Encode(c.item)
		require.NoError(t, err, c.name)
		if hex.EncodeToString(got) != c.want {
			t.Fatalf("%s: 编码错误 got %x want %s", c.name, got, c.want)
		}
	}
}

func TestLongList(t *testing.T) {
	items := make(List, 0, 20)
	for i := 0; i < 20; i++ {
		items = append(items, String("abc"))
	}
	got, err := Encode(items)
	require.NoError(t, err)
	// 20 * 4 = 80 字节负载
	assert.Equal(t, []byte{0xf8, 80}, got[:2])
	assert.Len(t, got, 82)
}

func TestNegativeIntegerFails(t *testing.T) {
	_, err := Encode(BigInt(big.NewInt(-1)))
	assert.ErrorIs(t, err, errno.ErrEncodingFailure)

	_, err = EncodeList(Uint(1), BigInt(big.NewInt(-5)))
	assert.ErrorIs(t, err, errno.ErrEncodingFailure)

	_, err = Encode(nil)
	assert.ErrorIs(t, err, errno.ErrEncodingFailure)
}

func TestMatchesGethRLP(t *testing.T) {
	gasPrice, _ := new(big.Int).SetString("20000000000", 10)
	huge, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	long := bytes.Repeat([]byte{0xab}, 1024)

	ours, err := EncodeList(
		Uint(1),
		BigInt(gasPrice),
		Uint(21000),
		Bytes(long),
		BigInt(huge),
		List{Bytes{0x01}, Uint(0), List{String("nested")}},
	)
	require.NoError(t, err)

	theirs, err := gethrlp.EncodeToBytes([]interface{}{
		uint64(1),
		gasPrice,
		uint64(21000),
		long,
		huge,
		[]interface{}{[]byte{0x01}, uint64(0), []interface{}{"nested"}},
	})
	require.NoError(t, err)

	if !bytes.Equal(ours, theirs) {
		t.Fatalf("与 go-ethereum rlp 不一致:\n ours=%x\n geth=%x", ours, theirs)
	}
}

func TestNilListElementFails(t *testing.T) {
	_, err := EncodeList(Uint(1), nil)
	assert.ErrorIs(t, err, errno.ErrEncodingFailure)

	_, err = Encode(List{Raw{}})
	assert.ErrorIs(t, err, errno.ErrEncodingFailure)

	// 失败后缓冲区已归还，再次编码不受影响
	got, err := EncodeList(String("cat"), String("dog"))
	require.NoError(t, err)
	assert.Equal(t, "c88363617483646f67", hex.EncodeToString(got))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, []byte{0x80}, EncodeUint(0))
	assert.Equal(t, []byte{0x82, 0x52, 0x08}, EncodeUint(21000))
	assert.Equal(t, []byte{0x83, 'd', 'o', 'g'}, EncodeBytes([]byte("dog")))
}
