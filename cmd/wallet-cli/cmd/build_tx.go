package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wallet-sdk/pkg/config"
	"wallet-sdk/pkg/validator"
	"wallet-sdk/pkg/wallet/types"
)

// buildTxCmd 模拟 Online 端的 "构造交易"
var buildTxCmd = &cobra.Command{
	Use:   "build-tx",
	Short: "构造未签名交易意图 (Online)",
	Long: `在线端构造交易意图，输出 unsigned.json，交给离线端 sign 命令签名。
金额使用展示单位 (ETH / TRX / SOL / BTC)。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		chainID, _ := cmd.Flags().GetString("chain")
		chainCfg, ok := findChain(chainID)
		if !ok {
			return fmt.Errorf("未配置的链: %s", chainID)
		}

		tx := types.UnsignedTransaction{Chain: chainID}
		tx.From, _ = cmd.Flags().GetString("from")
		tx.To, _ = cmd.Flags().GetString("to")
		tx.Amount, _ = cmd.Flags().GetString("amount")
		tx.DerivationPath, _ = cmd.Flags().GetString("path")

		var err error
		switch chainCfg.Family {
		case "evm":
			tx.EVM = evmFields(cmd, chainCfg)
		case "tron":
			tx.Tron, err = tronFields(cmd)
		case "solana":
			blockhash, _ := cmd.Flags().GetString("blockhash")
			tx.Solana = &types.SolanaFields{RecentBlockhash: blockhash}
		case "bitcoin":
			tx.Amount = ""
			tx.Bitcoin, err = bitcoinFields(cmd)
		}
		if err != nil {
			return fmt.Errorf("参数错误: %w", err)
		}
		if err := validator.Struct(&tx); err != nil {
			return fmt.Errorf("交易校验失败: %w", err)
		}

		outputFile, _ := cmd.Flags().GetString("output")
		data, _ := json.MarshalIndent(tx, "", "  ")
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("保存失败: %w", err)
		}
		fmt.Printf("✅ 未签名交易已构造!\n文件: %s\n", outputFile)
		return nil
	},
}

func findChain(id string) (config.ChainConfig, bool) {
	for _, c := range cfg.Chains {
		if c.ID == id {
			return c, true
		}
	}
	return config.ChainConfig{}, false
}

func evmFields(cmd *cobra.Command, c config.ChainConfig) *types.EVMFields {
	f := &types.EVMFields{ChainID: c.ChainID}
	if id, _ := cmd.Flags().GetUint64("chain-id"); id != 0 {
		f.ChainID = id
	}
	f.Nonce, _ = cmd.Flags().GetUint64("nonce")
	f.GasLimit, _ = cmd.Flags().GetUint64("gas-limit")
	f.GasPrice, _ = cmd.Flags().GetString("gas-price")
	f.MaxFeePerGas, _ = cmd.Flags().GetString("max-fee")
	f.MaxPriorityFeePerGas, _ = cmd.Flags().GetString("tip")
	f.Data, _ = cmd.Flags().GetString("data")
	if f.MaxFeePerGas != "" {
		f.GasPrice = ""
	}
	return f
}

func tronFields(cmd *cobra.Command) (*types.TronFields, error) {
	f := &types.TronFields{}
	f.RefBlockBytes, _ = cmd.Flags().GetString("ref-block-bytes")
	f.RefBlockHash, _ = cmd.Flags().GetString("ref-block-hash")
	f.FeeLimit, _ = cmd.Flags().GetInt64("fee-limit")
	f.Memo, _ = cmd.Flags().GetString("memo")
	f.Contract, _ = cmd.Flags().GetString("contract")
	f.Data, _ = cmd.Flags().GetString("data")
	f.Timestamp = time.Now().UnixMilli()
	if ttl, _ := cmd.Flags().GetDuration("ttl"); ttl > 0 {
		f.Expiration = f.Timestamp + ttl.Milliseconds()
	}
	return f, nil
}

// bitcoinFields 解析 --utxo txid:vout:amount:address 与 --output address:amount
func bitcoinFields(cmd *cobra.Command) (*types.BitcoinFields, error) {
	f := &types.BitcoinFields{}
	utxos, _ := cmd.Flags().GetStringArray("utxo")
	for _, s := range utxos {
		parts := strings.Split(s, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("utxo %q 格式应为 txid:vout:amount:address", s)
		}
		vout, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("utxo %q vout: %w", s, err)
		}
		f.Inputs = append(f.Inputs, types.UTXO{TxID: parts[0], Vout: uint32(vout), Amount: parts[2], Address: parts[3]})
	}
	outputs, _ := cmd.Flags().GetStringArray("output-to")
	for _, s := range outputs {
		addr, amount, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("output %q 格式应为 address:amount", s)
		}
		f.Outputs = append(f.Outputs, types.Output{Address: addr, Amount: amount})
	}
	return f, nil
}

func init() {
	rootCmd.AddCommand(buildTxCmd)

	flags := buildTxCmd.Flags()
	flags.StringP("chain", "c", "ethereum", "链标识 (见配置 chains)")
	flags.String("from", "", "期望的发送方地址，签名前核对")
	flags.String("to", "", "接收方地址")
	flags.String("amount", "0", "金额 (展示单位)")
	flags.String("path", "", "私钥派生路径，为空时使用链的默认路径")
	flags.StringP("output", "o", "unsigned.json", "输出文件")

	// EVM
	flags.Uint64("chain-id", 0, "EIP-155 chain id，0 表示取配置")
	flags.Uint64("nonce", 0, "Nonce")
	flags.Uint64("gas-limit", 21000, "Gas limit")
	flags.String("gas-price", "20000000000", "Gas price (wei)")
	flags.String("max-fee", "", "EIP-1559 max fee per gas (wei)，设置后构造 type 2 交易")
	flags.String("tip", "", "EIP-1559 max priority fee per gas (wei)")
	flags.String("data", "", "调用数据 (hex)")

	// TRON
	flags.String("ref-block-bytes", "", "引用块高低 2 字节 (hex)")
	flags.String("ref-block-hash", "", "引用块哈希第 8..16 字节 (hex)")
	flags.Int64("fee-limit", 0, "TRC-20 调用的 fee limit (sun)")
	flags.String("memo", "", "交易备注")
	flags.String("contract", "", "TRC-20 合约地址")
	flags.Duration("ttl", time.Minute, "交易有效期")

	// Solana
	flags.String("blockhash", "", "recent blockhash (base58)")

	// Bitcoin
	flags.StringArray("utxo", nil, "输入 txid:vout:amount:address，可重复")
	flags.StringArray("output-to", nil, "输出 address:amount，可重复")
}
