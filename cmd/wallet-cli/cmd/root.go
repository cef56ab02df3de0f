package cmd

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wallet-sdk/pkg/chain"
	"wallet-sdk/pkg/config"
	"wallet-sdk/pkg/keystore"
	"wallet-sdk/pkg/logger"
	"wallet-sdk/pkg/wallet"
)

var (
	configDir string
	logLevel  string

	// cfg 在 PersistentPreRunE 中加载
	cfg config.Config
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "wallet-cli",
	Short: "多链冷钱包命令行工具",
	Long: `离线签名工具: 生成并加密保存 BIP-39 助记词，按 BIP-44 路径派生
EVM / TRON / Solana / Bitcoin 地址，构造并签名交易与消息。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var paths []string
		if configDir != "" {
			paths = append(paths, configDir)
		}
		loaded, err := config.Load(paths...)
		if err != nil {
			return err
		}
		cfg = loaded
		if logLevel == "" {
			logLevel = cfg.App.LogLevel
		}
		if err := logger.Init(cfg.App.Env, logLevel); err != nil {
			return err
		}
		// 进程级 Registry 只在启动时填充一次
		return wallet.RegisterDefaults(chain.Default(), cfg.Chains)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config.yaml 所在目录 (默认 . 与 ./config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 debug/info/warn/error")
}

// readPassword 优先使用配置 (环境变量 WALLET_PASSWORD)，否则从终端读取
func readPassword(prompt string) (string, error) {
	if cfg.Wallet.Password != "" {
		return cfg.Wallet.Password, nil
	}
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}
	return string(b), nil
}

func keystorePath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("keystore"); p != "" {
		return p
	}
	return cfg.Wallet.KeystorePath
}

// loadMnemonic 读取并解密 Keystore 中的助记词
func loadMnemonic(cmd *cobra.Command) (string, error) {
	encryptedKey, err := keystore.LoadFromFile(keystorePath(cmd))
	if err != nil {
		return "", fmt.Errorf("加载 Keystore 失败: %w", err)
	}
	password, err := readPassword("请输入 Keystore 密码: ")
	if err != nil {
		return "", err
	}
	mnemonic, err := keystore.DecryptMnemonic(encryptedKey, password)
	if err != nil {
		return "", fmt.Errorf("解密失败 (密码错误?): %w", err)
	}
	return mnemonic, nil
}

// openWallet 解密 Keystore 并恢复 HD 钱包，调用方负责 Destroy
func openWallet(cmd *cobra.Command) (*wallet.Wallet, error) {
	mnemonic, err := loadMnemonic(cmd)
	if err != nil {
		return nil, err
	}
	passphrase, _ := cmd.Flags().GetString("passphrase")
	w, err := wallet.FromMnemonic(mnemonic, passphrase, cfg, wallet.WithRegistry(chain.Default()))
	if err != nil {
		return nil, fmt.Errorf("恢复钱包失败: %w", err)
	}
	return w, nil
}

// withWallet 打开钱包执行 fn，无论成功与否返回前都会销毁主密钥
func withWallet(cmd *cobra.Command, fn func(w *wallet.Wallet) error) error {
	w, err := openWallet(cmd)
	if err != nil {
		return err
	}
	defer w.Destroy()
	return fn(w)
}

func addKeystoreFlags(c *cobra.Command) {
	c.Flags().StringP("keystore", "k", "", "Keystore 文件路径 (默认取配置 wallet.keystore_path)")
	c.Flags().String("passphrase", "", "BIP-39 passphrase (第 25 个单词)")
}
