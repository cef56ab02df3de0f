package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wallet-sdk/pkg/chain"
	"wallet-sdk/pkg/kms"
	"wallet-sdk/pkg/logger"
	"wallet-sdk/pkg/wallet"
	"wallet-sdk/pkg/wallet/types"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "离线签名交易 (Offline Signing)",
	Long: `读取未签名的交易 JSON 文件，使用 Keystore 进行签名，并输出已签名的交易 (Raw Tx)。
使用 --kms 时子私钥先导入内存 KMS，主密钥随即销毁，签名通过 KMS 句柄完成。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile, _ := cmd.Flags().GetString("input")
		outputFile, _ := cmd.Flags().GetString("output")

		data, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("读取输入文件失败: %w", err)
		}
		var unsignedTx types.UnsignedTransaction
		if err := json.Unmarshal(data, &unsignedTx); err != nil {
			return fmt.Errorf("解析交易文件失败: %w", err)
		}

		// 显示交易详情供用户确认 (Verify on Screen)
		fmt.Println("\n================ 待签名交易 ================")
		fmt.Printf("Chain:      %s\n", unsignedTx.Chain)
		fmt.Printf("From:       %s\n", unsignedTx.From)
		fmt.Printf("To:         %s\n", unsignedTx.To)
		fmt.Printf("Amount:     %s\n", unsignedTx.Amount)
		if btc := unsignedTx.Bitcoin; btc != nil {
			for _, o := range btc.Outputs {
				fmt.Printf("Output:     %s %s\n", o.Address, o.Amount)
			}
		}
		fmt.Printf("Path:       %s\n", unsignedTx.DerivationPath)
		fmt.Println("============================================")

		var signedTx *types.SignedTransaction
		err = withWallet(cmd, func(w *wallet.Wallet) error {
			var err error
			if viaKMS, _ := cmd.Flags().GetBool("kms"); viaKMS {
				signedTx, err = signViaKMS(w, &unsignedTx)
			} else {
				signedTx, err = w.SignIntent(&unsignedTx)
			}
			return err
		})
		if err != nil {
			logger.Error("sign transaction failed", zap.String("chain", unsignedTx.Chain), zap.Error(err))
			return fmt.Errorf("签名失败: %w", err)
		}

		outputData, _ := json.MarshalIndent(signedTx, "", "  ")
		if err := os.WriteFile(outputFile, outputData, 0644); err != nil {
			return fmt.Errorf("保存结果失败: %w", err)
		}

		fmt.Printf("\n✅ 签名成功!\n")
		fmt.Printf("From:   %s\n", signedTx.From)
		fmt.Printf("TxHash: %s\n", signedTx.TxHash)
		fmt.Printf("已保存到: %s\n", outputFile)
		return nil
	},
}

// signViaKMS 把子私钥交给 LocalKMS 后立即销毁钱包，签名只经过 KMS 句柄
func signViaKMS(w *wallet.Wallet, in *types.UnsignedTransaction) (*types.SignedTransaction, error) {
	km := kms.NewLocalKMS()
	defer km.Close()

	keyID, err := w.ImportToKMS(km, in.Chain, in.DerivationPath)
	w.Destroy()
	if err != nil {
		return nil, err
	}
	handle, err := km.Signer(keyID)
	if err != nil {
		return nil, err
	}
	logger.Debug("signing through kms handle", zap.String("key_id", keyID), zap.String("chain", in.Chain))
	return wallet.SignIntentWith(chain.Default(), handle, in)
}

func init() {
	rootCmd.AddCommand(signCmd)
	addKeystoreFlags(signCmd)
	signCmd.Flags().StringP("input", "i", "unsigned.json", "未签名的交易文件路径")
	signCmd.Flags().StringP("output", "o", "signed.json", "签名后的输出文件路径")
	signCmd.Flags().Bool("kms", false, "通过内存 KMS 句柄签名，主密钥在签名前销毁")
}
