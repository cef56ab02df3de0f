package tron

import (
	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/codec/protobuf"
	"wallet-sdk/pkg/errno"
)

// ContractType 对应 protocol.Transaction.Contract.ContractType
type ContractType int32

const (
	TransferContractType      ContractType = 1
	TransferAssetContractType ContractType = 2
	TriggerSmartContractType  ContractType = 31
)

const typeURLPrefix = "type.googleapis.com/protocol."

// Contract 是交易携带的唯一合约调用
type Contract interface {
	Type() ContractType
	TypeURL() string
	Owner() address.Address
	validate() error
	message() *protobuf.Message
}

// TransferContract TRX 转账
type TransferContract struct {
	OwnerAddress address.Address
	ToAddress    address.Address
	Amount       int64 // sun
}

func (c TransferContract) Type() ContractType { return TransferContractType }

func (c TransferContract) TypeURL() string { return typeURLPrefix + "TransferContract" }

func (c TransferContract) Owner() address.Address { return c.OwnerAddress }

func (c TransferContract) validate() error {
	if err := requireTron("owner", c.OwnerAddress); err != nil {
		return err
	}
	if err := requireTron("to", c.ToAddress); err != nil {
		return err
	}
	if c.OwnerAddress.Equal(c.ToAddress) {
		return errno.Newf(errno.ErrInvalidTransaction, "cannot transfer to self")
	}
	if c.Amount <= 0 {
		return errno.Newf(errno.ErrInvalidTransaction, "amount must be positive, got %d", c.Amount)
	}
	return nil
}

func (c TransferContract) message() *protobuf.Message {
	return protobuf.NewMessage().
		Bytes(1, c.OwnerAddress.Bytes()).
		Bytes(2, c.ToAddress.Bytes()).
		Int(3, c.Amount)
}

// TransferAssetContract TRC-10 转账
type TransferAssetContract struct {
	AssetName    string
	OwnerAddress address.Address
	ToAddress    address.Address
	Amount       int64
}

func (c TransferAssetContract) Type() ContractType { return TransferAssetContractType }

func (c TransferAssetContract) TypeURL() string { return typeURLPrefix + "TransferAssetContract" }

func (c TransferAssetContract) Owner() address.Address { return c.OwnerAddress }

func (c TransferAssetContract) validate() error {
	if c.AssetName == "" {
		return errno.Newf(errno.ErrInvalidTransaction, "asset name is required")
	}
	if err := requireTron("owner", c.OwnerAddress); err != nil {
		return err
	}
	if err := requireTron("to", c.ToAddress); err != nil {
		return err
	}
	if c.Amount <= 0 {
		return errno.Newf(errno.ErrInvalidTransaction, "amount must be positive, got %d", c.Amount)
	}
	return nil
}

func (c TransferAssetContract) message() *protobuf.Message {
	return protobuf.NewMessage().
		Text(1, c.AssetName).
		Bytes(2, c.OwnerAddress.Bytes()).
		Bytes(3, c.ToAddress.Bytes()).
		Int(4, c.Amount)
}

// TriggerSmartContract 合约调用，Data 为已编码的 ABI 调用数据
type TriggerSmartContract struct {
	OwnerAddress    address.Address
	ContractAddress address.Address
	CallValue       int64
	Data            []byte
	CallTokenValue  int64
	TokenID         int64
}

func (c TriggerSmartContract) Type() ContractType { return TriggerSmartContractType }

func (c TriggerSmartContract) TypeURL() string { return typeURLPrefix + "TriggerSmartContract" }

func (c TriggerSmartContract) Owner() address.Address { return c.OwnerAddress }

func (c TriggerSmartContract) validate() error {
	if err := requireTron("owner", c.OwnerAddress); err != nil {
		return err
	}
	if err := requireTron("contract", c.ContractAddress); err != nil {
		return err
	}
	if c.CallValue < 0 || c.CallTokenValue < 0 || c.TokenID < 0 {
		return errno.Newf(errno.ErrInvalidTransaction, "call values must not be negative")
	}
	return nil
}

func (c TriggerSmartContract) message() *protobuf.Message {
	return protobuf.NewMessage().
		Bytes(1, c.OwnerAddress.Bytes()).
		Bytes(2, c.ContractAddress.Bytes()).
		Int(3, c.CallValue).
		Bytes(4, c.Data).
		Int(5, c.CallTokenValue).
		Int(6, c.TokenID)
}

func requireTron(field string, a address.Address) error {
	if a.IsZero() || a.Family() != address.FamilyTron {
		return errno.Newf(errno.ErrInvalidAddress, "%s address must be a tron address", field)
	}
	return nil
}

// contractMessage 编码 Contract{type=1, parameter=2 (Any{type_url=1, value=2})}
func contractMessage(c Contract) *protobuf.Message {
	param := protobuf.NewMessage().
		Text(1, c.TypeURL()).
		Bytes(2, c.message().Marshal())
	return protobuf.NewMessage().
		Int(1, int64(c.Type())).
		Message(2, param)
}
