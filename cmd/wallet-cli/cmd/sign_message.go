package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"wallet-sdk/pkg/wallet"
)

var signMessageCmd = &cobra.Command{
	Use:   "sign-message",
	Short: "离线签名消息 (EIP-191 / TRON / Solana / Bitcoin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		chainID, _ := cmd.Flags().GetString("chain")
		path, _ := cmd.Flags().GetString("path")
		message, _ := cmd.Flags().GetString("message")

		return withWallet(cmd, func(w *wallet.Wallet) error {
			signed, err := w.SignMessageIntent(chainID, path, []byte(message))
			if err != nil {
				return fmt.Errorf("签名失败: %w", err)
			}
			out, _ := json.MarshalIndent(signed, "", "  ")
			fmt.Println(string(out))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(signMessageCmd)
	addKeystoreFlags(signMessageCmd)
	signMessageCmd.Flags().StringP("chain", "c", "ethereum", "链标识")
	signMessageCmd.Flags().String("path", "", "派生路径，为空时使用链的默认路径")
	signMessageCmd.Flags().StringP("message", "m", "", "待签名消息")
	_ = signMessageCmd.MarkFlagRequired("message")
}
