package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"wallet-sdk/pkg/errno"
)

type sample struct {
	Chain  string `json:"chain" validate:"required"`
	Amount string `json:"amount" validate:"omitempty,amount"`
	Data   string `json:"data" validate:"omitempty,hexdata"`
}

func TestStruct(t *testing.T) {
	cases := []struct {
		name string
		in   sample
		ok   bool
		msg  string
	}{
		{"合法", sample{Chain: "ethereum", Amount: "1.25", Data: "0xa9059cbb"}, true, ""},
		{"缺少链", sample{Amount: "1"}, false, "Chain 不能为空"},
		{"负数金额", sample{Chain: "tron", Amount: "-0.1"}, false, "Amount 不是合法金额"},
		{"非数字金额", sample{Chain: "tron", Amount: "1e"}, false, "Amount 不是合法金额"},
		{"奇数长度十六进制", sample{Chain: "evm", Data: "0xabc"}, false, "十六进制"},
		{"非十六进制字符", sample{Chain: "evm", Data: "zz"}, false, "十六进制"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Struct(&c.in)
			if c.ok {
				if err != nil {
					t.Fatalf("期望通过, 实际 %v", err)
				}
				return
			}
			assert.ErrorIs(t, err, errno.ErrInvalidInput)
			assert.True(t, strings.Contains(err.Error(), c.msg), err.Error())
		})
	}
}
