package crypto_util

import (
	"encoding/hex"
	"testing"
)

func TestKeccak256Empty(t *testing.T) {
	got := CalculateKeccak256(nil)
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got != want {
		t.Errorf("Keccak256(\"\") = %s, 期望 %s", got, want)
	}
}

func TestSHA256(t *testing.T) {
	got := CalculateSHA256([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("SHA256(abc) = %s, 期望 %s", got, want)
	}

	// 多段输入等价于拼接
	if hex.EncodeToString(SHA256([]byte("a"), []byte("bc"))) != want {
		t.Errorf("SHA256 多段输入结果不一致")
	}
}

func TestDoubleSHA256(t *testing.T) {
	got := hex.EncodeToString(DoubleSHA256([]byte("hello")))
	want := "9595c9df90075148eb06860365df33584b75bff782a510c6cd4883a419833d50"
	if got != want {
		t.Errorf("DoubleSHA256(hello) = %s, 期望 %s", got, want)
	}
}

func TestHMACSHA512(t *testing.T) {
	// RFC 4231 test case 2
	got := hex.EncodeToString(HMACSHA512([]byte("Jefe"), []byte("what do ya want for nothing?")))
	want := "164b7a7bfcf819e2e395fbe73b56e0a387bd64222e831fd610270cd7ea2505549758bf75c05a994a6d034f65f8f0e6fdcaeab1a34d4a6b4b636e070a38bce737"
	if got != want {
		t.Errorf("HMACSHA512 = %s, 期望 %s", got, want)
	}
}

func TestHash160(t *testing.T) {
	if len(Hash160([]byte("x"))) != 20 {
		t.Errorf("Hash160 长度应为 20")
	}
}

func TestPrefixedMessage(t *testing.T) {
	got := string(PrefixedMessage(EthereumMessagePrefix, []byte("hello")))
	if got != "\x19Ethereum Signed Message:\n5hello" {
		t.Errorf("PrefixedMessage = %q", got)
	}

	got = string(PrefixedMessage(TronMessagePrefix, make([]byte, 12)))
	if got[:len(TronMessagePrefix)+2] != "\x19TRON Signed Message:\n12" {
		t.Errorf("PrefixedMessage 长度前缀错误: %q", got)
	}
}
