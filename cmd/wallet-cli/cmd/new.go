package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet-sdk/pkg/bip39"
	"wallet-sdk/pkg/chain"
	"wallet-sdk/pkg/wallet"
)

// newCmd 代表 new 命令
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "生成一个新的助记词并显示各链默认地址",
	Long:  `生成一个新的随机 BIP-39 助记词，并显示配置中每条链在默认路径上的地址。不写入任何文件。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("正在生成新钱包...")
		fmt.Println("---------------------------------------------------")

		words, _ := cmd.Flags().GetInt("words")
		mnemonic, err := bip39.NewMnemonicService().GenerateMnemonic(words / 3 * 32)
		if err != nil {
			return fmt.Errorf("生成助记词失败: %w", err)
		}
		fmt.Printf("助记词 (Mnemonic): \n%s\n", mnemonic)
		fmt.Println("---------------------------------------------------")

		w, err := wallet.FromMnemonic(mnemonic, "", cfg, wallet.WithRegistry(chain.Default()))
		if err != nil {
			return fmt.Errorf("生成主密钥失败: %w", err)
		}
		defer w.Destroy()

		for _, c := range cfg.Chains {
			path, err := w.DefaultPath(c.ID, 0)
			if err != nil {
				fmt.Printf("%s 路径错误: %v\n", c.ID, err)
				continue
			}
			addr, err := w.Address(c.ID, path)
			if err != nil {
				fmt.Printf("%s 派生失败: %v\n", c.ID, err)
				continue
			}
			fmt.Printf("%-16s [%s]: %s\n", c.ID, path, addr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().Int("words", 24, "助记词单词数 12/15/18/21/24")
}
