package crypto_util

import (
	"bytes"
	"testing"
)

func TestAESGCM(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef") // 32 字节用于 AES-256
	plaintext := []byte("这是一条用于 AES-GCM 测试的秘密消息")
	aad := []byte("keystore-id")

	ciphertext, err := EncryptAESGCM(key, plaintext, aad)
	if err != nil {
		t.Fatalf("EncryptAESGCM 失败: %v", err)
	}

	decrypted, err := DecryptAESGCM(key, ciphertext, aad)
	if err != nil {
		t.Fatalf("DecryptAESGCM 失败: %v", err)
	}

	if !bytes.Equal(plaintext, decrypted) {
		t.Errorf("解密后的消息与明文不匹配。\n得到: %s\n期望: %s", decrypted, plaintext)
	}

	// 附加数据不一致时必须认证失败
	if _, err := DecryptAESGCM(key, ciphertext, []byte("other")); err == nil {
		t.Errorf("AAD 不一致时应解密失败")
	}

	// 密文被篡改
	ciphertext[len(ciphertext)-1] ^= 0x01
	if _, err := DecryptAESGCM(key, ciphertext, aad); err == nil {
		t.Errorf("篡改的密文应解密失败")
	}

	if _, err := DecryptAESGCM(key, []byte{1, 2}, aad); err == nil {
		t.Errorf("过短的密文应返回错误")
	}
}
