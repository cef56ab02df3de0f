package bip39

import (
	"strings"

	"github.com/tyler-smith/go-bip39"

	"wallet-sdk/pkg/errno"
	"wallet-sdk/pkg/safe_random"
)

// MnemonicService 是助记词到种子的外部协作者
type MnemonicService struct{}

// NewMnemonicService 创建一个新的助记词服务实例
func NewMnemonicService() *MnemonicService {
	return &MnemonicService{}
}

// GenerateMnemonic 生成一个新的随机助记词 (BIP-39)。
// bitSize: 熵的位数，128 (12 个单词) 到 256 (24 个单词)，须为 32 的倍数。
func (s *MnemonicService) GenerateMnemonic(bitSize int) (string, error) {
	entropy, err := safe_random.GenerateRandomBytes(bitSize / 8)
	if err != nil {
		return "", err
	}
	defer safe_random.Wipe(entropy)

	// NewMnemonic 负责校验熵长度
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errno.Newf(errno.ErrInvalidInput, "生成助记词失败: %v", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic 验证助记词是否有效。
func (s *MnemonicService) ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalize(mnemonic))
}

// MnemonicToSeed 将助记词转换为 64 字节种子，调用方负责销毁返回值。
// passphrase: 可选密码 ("第 25 个单词")，不需要时传 ""。
func (s *MnemonicService) MnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	seed, err := bip39.NewSeedWithErrorChecking(normalize(mnemonic), passphrase)
	if err != nil {
		return nil, errno.Newf(errno.ErrInvalidInput, "无效的助记词: %v", err)
	}
	return seed, nil
}

// WordCount 返回助记词单词数
func WordCount(mnemonic string) int {
	return len(strings.Fields(mnemonic))
}

func normalize(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}
