package solana

import (
	"sort"

	solanago "github.com/gagliardetto/solana-go"

	"wallet-sdk/pkg/codec/compact"
	"wallet-sdk/pkg/errno"
)

// maxAccounts 账户索引为单字节
const maxAccounts = 256

type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
}

// Message legacy 消息: header、账户表、最近块哈希、编译后的指令
type Message struct {
	Header          MessageHeader
	AccountKeys     []solanago.PublicKey
	RecentBlockhash solanago.Hash
	Instructions    []CompiledInstruction
}

// compileMessage 生成账户表，顺序与 solana-go 的 NewTransaction 一致:
// 费用支付者在首位，全部账户引用先按 可写签名者、只读签名者、可写非签名者、只读非签名者
// 稳定排序，再去重保留首次出现的位置，权限取并集。
func compileMessage(feePayer solanago.PublicKey, blockhash solanago.Hash, instructions []Instruction) (*Message, error) {
	refs := []AccountMeta{{PublicKey: feePayer, IsSigner: true, IsWritable: true}}
	for _, in := range instructions {
		refs = append(refs, in.Accounts...)
	}
	for _, in := range instructions {
		refs = append(refs, AccountMeta{PublicKey: in.ProgramID})
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return accountRank(&refs[i]) < accountRank(&refs[j])
	})

	var metas []*AccountMeta
	index := make(map[solanago.PublicKey]*AccountMeta, len(refs))
	for _, ref := range refs {
		if existing, ok := index[ref.PublicKey]; ok {
			existing.IsSigner = existing.IsSigner || ref.IsSigner
			existing.IsWritable = existing.IsWritable || ref.IsWritable
			continue
		}
		meta := ref
		index[ref.PublicKey] = &meta
		metas = append(metas, &meta)
	}
	if len(metas) > maxAccounts {
		return nil, errno.Newf(errno.ErrEncodingFailure, "too many accounts: %d > %d", len(metas), maxAccounts)
	}
	// 只读签名者被升级为可写时需要回到正确的分组，header 依赖分组连续
	sort.SliceStable(metas, func(i, j int) bool {
		return accountRank(metas[i]) < accountRank(metas[j])
	})

	msg := &Message{RecentBlockhash: blockhash}
	position := make(map[solanago.PublicKey]uint8, len(metas))
	for i, m := range metas {
		position[m.PublicKey] = uint8(i)
		msg.AccountKeys = append(msg.AccountKeys, m.PublicKey)
		switch {
		case m.IsSigner:
			msg.Header.NumRequiredSignatures++
			if !m.IsWritable {
				msg.Header.NumReadonlySignedAccounts++
			}
		case !m.IsWritable:
			msg.Header.NumReadonlyUnsignedAccounts++
		}
	}

	for _, in := range instructions {
		ci := CompiledInstruction{
			ProgramIDIndex: position[in.ProgramID],
			Accounts:       make([]uint8, len(in.Accounts)),
			Data:           in.Data,
		}
		for i, acc := range in.Accounts {
			ci.Accounts[i] = position[acc.PublicKey]
		}
		msg.Instructions = append(msg.Instructions, ci)
	}
	return msg, nil
}

func accountRank(m *AccountMeta) int {
	switch {
	case m.IsSigner && m.IsWritable:
		return 0
	case m.IsSigner:
		return 1
	case m.IsWritable:
		return 2
	default:
		return 3
	}
}

// Signers 需要签名的账户，顺序即签名顺序
func (m *Message) Signers() []solanago.PublicKey {
	return m.AccountKeys[:m.Header.NumRequiredSignatures]
}

// Marshal 序列化为签名原像
func (m *Message) Marshal() ([]byte, error) {
	out := []byte{
		m.Header.NumRequiredSignatures,
		m.Header.NumReadonlySignedAccounts,
		m.Header.NumReadonlyUnsignedAccounts,
	}
	out, err := compact.AppendArray(out, len(m.AccountKeys), func(dst []byte, i int) ([]byte, error) {
		return append(dst, m.AccountKeys[i][:]...), nil
	})
	if err != nil {
		return nil, err
	}
	out = append(out, m.RecentBlockhash[:]...)
	return compact.AppendArray(out, len(m.Instructions), func(dst []byte, i int) ([]byte, error) {
		in := m.Instructions[i]
		dst = append(dst, in.ProgramIDIndex)
		dst, err := compact.AppendBytes(dst, in.Accounts)
		if err != nil {
			return nil, err
		}
		return compact.AppendBytes(dst, in.Data)
	})
}
