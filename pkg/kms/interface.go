package kms

import (
	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/signature"
	"wallet-sdk/pkg/signer"
)

// KeyMetadata 包含密钥的元数据，不包含敏感的私钥信息
type KeyMetadata struct {
	KeyID     string           `json:"key_id"`
	Scheme    signature.Scheme `json:"scheme"`
	PublicKey string           `json:"public_key"` // Hex
	CreatedAt int64            `json:"created_at"`
	Enabled   bool             `json:"enabled"`
}

// KeyManager 定义了密钥托管的核心行为。
// 私钥永远不会离开 KMS 的安全边界，调用方只拿到 signer.Signer 句柄。
type KeyManager interface {
	// CreateKey 生成新密钥并返回其 ID
	CreateKey(scheme signature.Scheme) (string, error)

	// ImportKey 拷贝 raw 导入密钥，调用方负责擦除自己的 raw
	ImportKey(scheme signature.Scheme, raw []byte) (string, error)

	// AdoptKey 接管 key，之后由 KMS 负责销毁，调用方不得再使用它
	AdoptKey(key *signer.SigningKey) (string, error)

	GetPublicKey(keyID string) (signature.PublicKey, error)

	Metadata(keyID string) (KeyMetadata, error)

	// Signer 返回可交给 ChainAdapter 的签名句柄，每次签名都会重新检查密钥状态
	Signer(keyID string) (signer.Signer, error)

	Sign(keyID string, digest []byte) (*signature.Signature, error)

	Verify(keyID string, digest []byte, sig *signature.Signature) error

	// Disable 暂停使用，密钥仍保留
	Disable(keyID string) error

	// DestroyKey 擦除私钥并移除记录
	DestroyKey(keyID string) error
}

var (
	ErrKeyNotFound = errno.Errno{Code: 30105, Message: "密钥未找到"}
	ErrKeyDisabled = errno.Errno{Code: 30106, Message: "密钥已禁用"}
)
