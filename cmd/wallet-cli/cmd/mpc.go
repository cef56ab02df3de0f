package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wallet-sdk/pkg/bip39"
	"wallet-sdk/pkg/mpc"
	"wallet-sdk/pkg/safe_random"
)

var (
	secretHex string
	parts     int
	threshold int
	shares    []string
)

func init() {
	rootCmd.AddCommand(mpcCmd)

	mpcCmd.AddCommand(splitCmd)
	addKeystoreFlags(splitCmd)
	splitCmd.Flags().StringVarP(&secretHex, "secret", "s", "", "秘密 (Hex)，为空时切分 Keystore 中的助记词")
	splitCmd.Flags().IntVarP(&parts, "parts", "n", 3, "份数 (N)")
	splitCmd.Flags().IntVarP(&threshold, "threshold", "t", 2, "恢复门限 (M)")

	mpcCmd.AddCommand(recoverCmd)
	recoverCmd.Flags().StringSliceVarP(&shares, "shares", "S", nil, "分片列表 (逗号分隔)")
	recoverCmd.Flags().Bool("mnemonic", false, "恢复结果按助记词输出并校验")
	_ = recoverCmd.MarkFlagRequired("shares")
}

var mpcCmd = &cobra.Command{
	Use:   "mpc",
	Short: "Shamir 秘密分享备份工具",
	Long:  `把助记词或私钥切分为 N 份，任意 M 份即可恢复。`,
}

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "把秘密切分为 N 份",
	RunE: func(cmd *cobra.Command, args []string) error {
		var secret []byte
		if secretHex != "" {
			b, err := hex.DecodeString(strings.TrimPrefix(secretHex, "0x"))
			if err != nil {
				return fmt.Errorf("secret 不是合法十六进制: %w", err)
			}
			secret = b
		} else {
			mnemonic, err := loadMnemonic(cmd)
			if err != nil {
				return err
			}
			secret = []byte(mnemonic)
		}
		defer safe_random.Wipe(secret)

		res, err := mpc.Split(secret, parts, threshold)
		if err != nil {
			return fmt.Errorf("切分失败: %w", err)
		}
		fmt.Printf("🔐 秘密已切分为 %d 份 (门限 %d):\n", parts, threshold)
		for i, share := range res {
			fmt.Printf("Share %d: %s\n", i+1, share)
		}
		return nil
	},
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "由 M 份恢复秘密",
	RunE: func(cmd *cobra.Command, args []string) error {
		recovered, err := mpc.Recover(shares)
		if err != nil {
			return fmt.Errorf("恢复失败: %w", err)
		}
		defer safe_random.Wipe(recovered)

		if asMnemonic, _ := cmd.Flags().GetBool("mnemonic"); asMnemonic {
			mnemonic := string(recovered)
			if !bip39.NewMnemonicService().ValidateMnemonic(mnemonic) {
				return errors.New("恢复结果不是有效助记词，分片不足或有误")
			}
			fmt.Printf("🔑 助记词: %s\n", mnemonic)
			return nil
		}
		fmt.Printf("🔑 秘密: %s\n", hex.EncodeToString(recovered))
		return nil
	},
}
