package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet-sdk/pkg/wallet"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "显示 Keystore 中钱包在指定链上的地址",
	RunE: func(cmd *cobra.Command, args []string) error {
		chainID, _ := cmd.Flags().GetString("chain")
		path, _ := cmd.Flags().GetString("path")
		index, _ := cmd.Flags().GetUint32("index")
		count, _ := cmd.Flags().GetUint32("count")

		return withWallet(cmd, func(w *wallet.Wallet) error {
			if path != "" {
				addr, err := w.Address(chainID, path)
				if err != nil {
					return fmt.Errorf("派生失败: %w", err)
				}
				fmt.Printf("[%s]: %s\n", path, addr)
				return nil
			}
			for i := index; i < index+count; i++ {
				p, err := w.DefaultPath(chainID, i)
				if err != nil {
					return err
				}
				addr, err := w.Address(chainID, p)
				if err != nil {
					return fmt.Errorf("派生失败: %w", err)
				}
				fmt.Printf("[%s]: %s\n", p, addr)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(addressCmd)
	addKeystoreFlags(addressCmd)
	addressCmd.Flags().StringP("chain", "c", "ethereum", "链标识 (见配置 chains)")
	addressCmd.Flags().String("path", "", "派生路径，为空时使用链的默认路径")
	addressCmd.Flags().Uint32("index", 0, "默认路径的起始地址索引")
	addressCmd.Flags().Uint32("count", 1, "显示的地址数量")
}
