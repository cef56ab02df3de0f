package types

// UnsignedTransaction 冷钱包签名的交易意图。
// 金额使用展示单位 (ETH、BTC、TRX、SOL)，按链的精度换算为最小单位。
type UnsignedTransaction struct {
	Chain  string `json:"chain" validate:"required"`
	From   string `json:"from,omitempty"` // 期望的发送方，用于签名前核对
	To     string `json:"to,omitempty"`
	Amount string `json:"amount" validate:"omitempty,amount"`

	// DerivationPath 为空时使用链的默认 BIP-44 路径
	// e.g., "m/44'/60'/0'/0/0"
	DerivationPath string `json:"derivation_path,omitempty"`

	EVM     *EVMFields     `json:"evm,omitempty"`
	Tron    *TronFields    `json:"tron,omitempty"`
	Solana  *SolanaFields  `json:"solana,omitempty"`
	Bitcoin *BitcoinFields `json:"bitcoin,omitempty"`
}

type EVMFields struct {
	ChainID  uint64 `json:"chain_id"`
	Nonce    uint64 `json:"nonce"`
	GasLimit uint64 `json:"gas_limit" validate:"required"`
	// GasPrice 以 wei 计; 设置 MaxFeePerGas 时构造 EIP-1559 交易
	GasPrice             string `json:"gas_price,omitempty" validate:"omitempty,amount"`
	MaxFeePerGas         string `json:"max_fee_per_gas,omitempty" validate:"omitempty,amount"`
	MaxPriorityFeePerGas string `json:"max_priority_fee_per_gas,omitempty" validate:"omitempty,amount"`
	Data                 string `json:"data,omitempty" validate:"omitempty,hexdata"`
}

type TronFields struct {
	RefBlockBytes string `json:"ref_block_bytes" validate:"required,hexdata,len=4"`
	RefBlockHash  string `json:"ref_block_hash" validate:"required,hexdata,len=16"`
	Timestamp     int64  `json:"timestamp" validate:"required"` // 毫秒
	Expiration    int64  `json:"expiration,omitempty"`
	FeeLimit      int64  `json:"fee_limit,omitempty" validate:"min=0"`
	Memo          string `json:"memo,omitempty"`
	// Contract 为 TRC-20 等合约地址，Data 为已编码的调用数据
	Contract string `json:"contract,omitempty"`
	Data     string `json:"data,omitempty" validate:"omitempty,hexdata"`
}

type SolanaFields struct {
	RecentBlockhash string `json:"recent_blockhash" validate:"required"`
}

type BitcoinFields struct {
	Inputs  []UTXO   `json:"inputs" validate:"required,min=1,dive"`
	Outputs []Output `json:"outputs" validate:"required,min=1,dive"`
}

type UTXO struct {
	TxID    string `json:"txid" validate:"required,hexdata,len=64"`
	Vout    uint32 `json:"vout"`
	Amount  string `json:"amount" validate:"required,amount"`
	Address string `json:"address" validate:"required"`
}

type Output struct {
	Address string `json:"address" validate:"required"`
	Amount  string `json:"amount" validate:"required,amount"`
}

// SignedTransaction represents the result of the signing process.
type SignedTransaction struct {
	Chain  string `json:"chain"`
	From   string `json:"from"`
	TxHash string `json:"tx_hash"`
	RawTx  string `json:"raw_tx"` // Hex，可直接广播
}

// SignedMessage 离线消息签名结果
type SignedMessage struct {
	Chain     string `json:"chain"`
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"` // Hex r||s||v 或 Ed25519
}
