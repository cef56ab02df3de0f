package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"wallet-sdk/pkg/bip39"
	"wallet-sdk/pkg/keystore"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "初始化一个新的钱包 (生成或导入助记词并加密保存)",
	Long:  `生成新的 BIP-39 助记词 (或通过 --import 导入)，使用密码加密后保存为 Keystore 文件。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile := keystorePath(cmd)
		if _, err := os.Stat(outputFile); err == nil {
			return fmt.Errorf("错误: 文件 %s 已存在。请先删除或指定其他文件名。", outputFile)
		}

		fmt.Println("正在初始化新钱包...")
		fmt.Println("请设置一个强密码来保护您的助记词。")

		password, err := readPassword("输入密码: ")
		if err != nil {
			return err
		}
		if cfg.Wallet.Password == "" {
			confirm, err := readPassword("确认密码: ")
			if err != nil {
				return err
			}
			if confirm != password {
				return errors.New("两次输入的密码不一致！")
			}
		}
		if len(password) < 6 {
			return errors.New("密码长度至少需要 6 位。")
		}

		service := bip39.NewMnemonicService()
		imported, _ := cmd.Flags().GetBool("import")
		var mnemonic string
		if imported {
			fmt.Print("请输入助记词: ")
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			mnemonic = strings.TrimSpace(line)
			if !service.ValidateMnemonic(mnemonic) {
				return errors.New("助记词无效")
			}
		} else {
			words, _ := cmd.Flags().GetInt("words")
			if mnemonic, err = service.GenerateMnemonic(words / 3 * 32); err != nil {
				return fmt.Errorf("生成助记词失败: %w", err)
			}
		}

		var opts []keystore.Option
		if light, _ := cmd.Flags().GetBool("light"); light {
			opts = append(opts, keystore.WithScrypt(keystore.LightScrypt))
		}
		encryptedKey, err := keystore.EncryptMnemonic(mnemonic, password, opts...)
		if err != nil {
			return fmt.Errorf("加密失败: %w", err)
		}
		if err := encryptedKey.SaveToFile(outputFile); err != nil {
			return fmt.Errorf("保存文件失败: %w", err)
		}

		fmt.Printf("\n✅ 钱包已初始化！\n")
		fmt.Printf("文件位置: %s\n", outputFile)
		fmt.Printf("您的 ID: %s\n", encryptedKey.Id)
		fmt.Println("\n⚠️  警告: 请务必记住您的密码！如果丢失密码，您将无法恢复钱包。")

		if imported {
			return nil
		}
		fmt.Print("\n是否需要现在显示助记词以便备份? (y/N): ")
		input, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))
		if input == "y" || input == "yes" {
			fmt.Println("\n---------------------------------------------------")
			fmt.Println("助记词 (请抄写在纸上并安全保管):")
			fmt.Println(mnemonic)
			fmt.Println("---------------------------------------------------")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("keystore", "k", "", "输出的 Keystore 文件 (默认取配置 wallet.keystore_path)")
	initCmd.Flags().Int("words", 12, "助记词单词数 12/15/18/21/24")
	initCmd.Flags().Bool("import", false, "导入已有助记词而不是生成")
	initCmd.Flags().Bool("light", false, "使用轻量 scrypt 参数 (低配设备)")
}
