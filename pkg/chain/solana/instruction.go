package solana

import (
	"bytes"
	"encoding/binary"

	solanago "github.com/gagliardetto/solana-go"

	"wallet-sdk/pkg/address"
	"wallet-sdk/pkg/errno"
)

// SystemProgramID 32 字节全零
var SystemProgramID = solanago.SystemProgramID

// systemTransferIndex System Program 指令枚举中 Transfer 的序号
const systemTransferIndex uint32 = 2

type AccountMeta struct {
	PublicKey  solanago.PublicKey
	IsSigner   bool
	IsWritable bool
}

// Instruction 一条程序调用，Data 由调用方按程序格式编码
type Instruction struct {
	ProgramID solanago.PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// SystemTransfer 构造 System Program 转账指令: data = u32 LE(2) || u64 LE(lamports)
func SystemTransfer(from, to address.Address, lamports uint64) (Instruction, error) {
	fromKey, err := publicKey("from", from)
	if err != nil {
		return Instruction{}, err
	}
	toKey, err := publicKey("to", to)
	if err != nil {
		return Instruction{}, err
	}
	if lamports == 0 {
		return Instruction{}, errno.Newf(errno.ErrInvalidTransaction, "lamports must be positive")
	}

	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[:4], systemTransferIndex)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{PublicKey: fromKey, IsSigner: true, IsWritable: true},
			{PublicKey: toKey, IsWritable: true},
		},
		Data: data,
	}, nil
}

func (in Instruction) clone() Instruction {
	accounts := make([]AccountMeta, len(in.Accounts))
	copy(accounts, in.Accounts)
	return Instruction{ProgramID: in.ProgramID, Accounts: accounts, Data: bytes.Clone(in.Data)}
}

func publicKey(field string, a address.Address) (solanago.PublicKey, error) {
	if a.IsZero() || a.Family() != address.FamilySolana {
		return solanago.PublicKey{}, errno.Newf(errno.ErrInvalidAddress, "%s must be a solana address", field)
	}
	return solanago.PublicKeyFromBytes(a.Bytes()), nil
}
