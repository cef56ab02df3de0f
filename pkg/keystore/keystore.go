package keystore

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"

	"wallet-sdk/pkg/crypto_util"
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/safe_random"
)

// EncryptedKeyJSON 遵循 Ethereum Keystore V3 的结构风格，
// 但存储的是助记词而不是单个私钥
type EncryptedKeyJSON struct {
	Crypto  CryptoJSON `json:"crypto"`
	Id      string     `json:"id"`      // UUID
	Version int        `json:"version"` // 3
}

type CryptoJSON struct {
	Cipher     string    `json:"cipher"`     // "aes-256-gcm"
	CipherText string    `json:"ciphertext"` // Hex，nonce || 密文 || tag
	KDF        string    `json:"kdf"`        // "scrypt"
	KDFParams  KDFParams `json:"kdfparams"`
}

type KDFParams struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	Salt  string `json:"salt"` // Hex
}

const (
	version     = 3
	cipherName  = "aes-256-gcm"
	kdfName     = "scrypt"
	scryptDKLen = 32
)

// StandardScrypt 与 geth 的标准参数一致
var StandardScrypt = KDFParams{N: 1 << 18, R: 8, P: 1, DKLen: scryptDKLen}

// LightScrypt 用于测试与低配设备
var LightScrypt = KDFParams{N: 1 << 12, R: 8, P: 6, DKLen: scryptDKLen}

// Option 配置加密参数
type Option func(*KDFParams)

func WithScrypt(p KDFParams) Option {
	return func(dst *KDFParams) {
		dst.N, dst.R, dst.P = p.N, p.R, p.P
	}
}

// EncryptMnemonic 将助记词使用密码加密。
// GCM 的附加认证数据为 keystore ID，密文不能被挪到另一个文件里解密。
func EncryptMnemonic(mnemonic, password string, opts ...Option) (*EncryptedKeyJSON, error) {
	params := StandardScrypt
	for _, opt := range opts {
		opt(&params)
	}

	salt, err := safe_random.GenerateRandomBytes(32)
	if err != nil {
		return nil, err
	}
	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, scryptDKLen)
	if err != nil {
		return nil, errno.Newf(errno.ErrInvalidInput, "scrypt: %v", err)
	}
	defer safe_random.Wipe(derivedKey)

	id := uuid.New().String()
	plaintext := []byte(mnemonic)
	defer safe_random.Wipe(plaintext)
	ciphertext, err := crypto_util.EncryptAESGCM(derivedKey, plaintext, []byte(id))
	if err != nil {
		return nil, errno.Newf(errno.ErrEncodingFailure, "encrypt: %v", err)
	}

	params.DKLen = scryptDKLen
	params.Salt = hex.EncodeToString(salt)
	return &EncryptedKeyJSON{
		Version: version,
		Id:      id,
		Crypto: CryptoJSON{
			Cipher:     cipherName,
			CipherText: hex.EncodeToString(ciphertext),
			KDF:        kdfName,
			KDFParams:  params,
		},
	}, nil
}

// DecryptMnemonic 解密 Keystore 获取助记词。密码错误与数据损坏不可区分。
func DecryptMnemonic(keyJSON *EncryptedKeyJSON, password string) (string, error) {
	if keyJSON == nil || keyJSON.Version != version {
		return "", errno.Newf(errno.ErrInvalidInput, "unsupported keystore version")
	}
	c := keyJSON.Crypto
	if c.Cipher != cipherName || c.KDF != kdfName {
		return "", errno.Newf(errno.ErrInvalidInput, "unsupported cipher %q / kdf %q", c.Cipher, c.KDF)
	}
	salt, err := hex.DecodeString(c.KDFParams.Salt)
	if err != nil {
		return "", errno.Newf(errno.ErrInvalidInput, "invalid salt: %v", err)
	}
	ciphertext, err := hex.DecodeString(c.CipherText)
	if err != nil {
		return "", errno.Newf(errno.ErrInvalidInput, "invalid ciphertext: %v", err)
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, c.KDFParams.N, c.KDFParams.R, c.KDFParams.P, c.KDFParams.DKLen)
	if err != nil {
		return "", errno.Newf(errno.ErrInvalidInput, "scrypt: %v", err)
	}
	defer safe_random.Wipe(derivedKey)

	plaintext, err := crypto_util.DecryptAESGCM(derivedKey, ciphertext, []byte(keyJSON.Id))
	if err != nil {
		return "", errno.Newf(errno.ErrInvalidInput, "invalid password or corrupted keystore")
	}
	defer safe_random.Wipe(plaintext)
	return string(plaintext), nil
}

// SaveToFile 保存到文件，权限 0600
func (k *EncryptedKeyJSON) SaveToFile(filename string) error {
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return os.WriteFile(filename, data, 0600)
}

// LoadFromFile 从文件加载
func LoadFromFile(filename string) (*EncryptedKeyJSON, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var k EncryptedKeyJSON
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, errno.Newf(errno.ErrInvalidInput, "parse keystore %s: %v", filename, err)
	}
	return &k, nil
}
