package kms

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/logger"
	"wallet-sdk/pkg/safe_random"
	"wallet-sdk/pkg/signature"
	"wallet-sdk/pkg/signer"
)

// keyEntry 是内部存储结构，包含签名密钥（敏感数据）和元数据
type keyEntry struct {
	Metadata KeyMetadata
	Key      *signer.SigningKey
}

// LocalKMS 是 KeyManager 接口的本地内存实现。
// 它模拟了一个硬件安全模块 (HSM)，私钥存储在内存中，不直接暴露给外部。
type LocalKMS struct {
	mu   sync.RWMutex
	keys map[string]*keyEntry
}

var _ KeyManager = (*LocalKMS)(nil)

// NewLocalKMS 创建一个新的 LocalKMS 实例。
func NewLocalKMS() *LocalKMS {
	return &LocalKMS{
		keys: make(map[string]*keyEntry),
	}
}

// CreateKey 创建一个新的密钥，并返回其 ID。
func (kms *LocalKMS) CreateKey(scheme signature.Scheme) (string, error) {
	key, err := signer.Generate(scheme)
	if err != nil {
		return "", err
	}
	return kms.store(key)
}

// ImportKey 导入已有私钥，例如由 HD 钱包派生出的子私钥。
func (kms *LocalKMS) ImportKey(scheme signature.Scheme, raw []byte) (string, error) {
	key, err := signer.New(scheme, raw)
	if err != nil {
		return "", err
	}
	return kms.store(key)
}

// AdoptKey 接管调用方已持有的签名密钥，例如 HD 钱包派生出的子密钥。
func (kms *LocalKMS) AdoptKey(key *signer.SigningKey) (string, error) {
	if key == nil {
		return "", errno.Newf(errno.ErrInvalidInput, "nil signing key")
	}
	if key.Destroyed() {
		return "", errno.ErrKeyDestroyed
	}
	return kms.store(key)
}

func (kms *LocalKMS) store(key *signer.SigningKey) (string, error) {
	pub, err := key.PublicKey()
	if err != nil {
		key.Destroy()
		return "", err
	}

	// 生成一个随机 Key ID
	keyID, err := safe_random.GenerateRandomHexString(16)
	if err != nil {
		key.Destroy()
		return "", fmt.Errorf("生成 KeyID 失败: %w", err)
	}

	kms.mu.Lock()
	kms.keys[keyID] = &keyEntry{
		Metadata: KeyMetadata{
			KeyID:     keyID,
			Scheme:    key.Scheme(),
			PublicKey: pub.Hex(),
			CreatedAt: time.Now().Unix(),
			Enabled:   true,
		},
		Key: key,
	}
	kms.mu.Unlock()

	logger.Info("kms key created", zap.String("key_id", keyID), zap.Stringer("scheme", key.Scheme()))
	return keyID, nil
}

// lookup 在读锁下取出可用的密钥
func (kms *LocalKMS) lookup(keyID string) (*keyEntry, error) {
	kms.mu.RLock()
	defer kms.mu.RUnlock()

	entry, exists := kms.keys[keyID]
	if !exists {
		return nil, errno.Newf(ErrKeyNotFound, "%s", keyID)
	}
	if !entry.Metadata.Enabled {
		return nil, errno.Newf(ErrKeyDisabled, "%s", keyID)
	}
	return entry, nil
}

// GetPublicKey 获取指定密钥 ID 的公钥。
func (kms *LocalKMS) GetPublicKey(keyID string) (signature.PublicKey, error) {
	entry, err := kms.lookup(keyID)
	if err != nil {
		return signature.PublicKey{}, err
	}
	return entry.Key.PublicKey()
}

func (kms *LocalKMS) Metadata(keyID string) (KeyMetadata, error) {
	kms.mu.RLock()
	defer kms.mu.RUnlock()

	entry, exists := kms.keys[keyID]
	if !exists {
		return KeyMetadata{}, errno.Newf(ErrKeyNotFound, "%s", keyID)
	}
	return entry.Metadata, nil
}

// Signer 返回签名句柄。句柄不持有私钥，密钥被禁用或销毁后句柄随之失效。
func (kms *LocalKMS) Signer(keyID string) (signer.Signer, error) {
	entry, err := kms.lookup(keyID)
	if err != nil {
		return nil, err
	}
	return &handle{kms: kms, id: keyID, scheme: entry.Metadata.Scheme}, nil
}

// Sign 使用指定的密钥对摘要进行签名。
func (kms *LocalKMS) Sign(keyID string, digest []byte) (*signature.Signature, error) {
	entry, err := kms.lookup(keyID)
	if err != nil {
		return nil, err
	}
	return entry.Key.Sign(digest)
}

// Verify 验证签名是否有效。
func (kms *LocalKMS) Verify(keyID string, digest []byte, sig *signature.Signature) error {
	entry, err := kms.lookup(keyID)
	if err != nil {
		return err
	}
	ok, err := entry.Key.Verify(digest, sig)
	if err != nil {
		return err
	}
	if !ok {
		return errno.Newf(errno.ErrInvalidSignature, "key %s", keyID)
	}
	return nil
}

func (kms *LocalKMS) Disable(keyID string) error {
	kms.mu.Lock()
	defer kms.mu.Unlock()

	entry, exists := kms.keys[keyID]
	if !exists {
		return errno.Newf(ErrKeyNotFound, "%s", keyID)
	}
	entry.Metadata.Enabled = false
	logger.Info("kms key disabled", zap.String("key_id", keyID))
	return nil
}

// DestroyKey 擦除私钥。已发出的句柄之后返回 ErrKeyNotFound。
func (kms *LocalKMS) DestroyKey(keyID string) error {
	kms.mu.Lock()
	entry, exists := kms.keys[keyID]
	delete(kms.keys, keyID)
	kms.mu.Unlock()

	if !exists {
		return errno.Newf(ErrKeyNotFound, "%s", keyID)
	}
	entry.Key.Destroy()
	logger.Info("kms key destroyed", zap.String("key_id", keyID))
	return nil
}

// Close 销毁全部密钥
func (kms *LocalKMS) Close() {
	kms.mu.Lock()
	defer kms.mu.Unlock()
	for id, entry := range kms.keys {
		entry.Key.Destroy()
		delete(kms.keys, id)
	}
}

type handle struct {
	kms    *LocalKMS
	id     string
	scheme signature.Scheme
}

func (h *handle) Scheme() signature.Scheme { return h.scheme }

func (h *handle) PublicKey() (signature.PublicKey, error) { return h.kms.GetPublicKey(h.id) }

func (h *handle) Sign(digest []byte) (*signature.Signature, error) { return h.kms.Sign(h.id, digest) }

func (h *handle) String() string { return "kms:" + h.id }
