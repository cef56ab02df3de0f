package validator

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"wallet-sdk/pkg/errno"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Init 创建校验器并注册自定义规则，可重复调用
func Init() {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// amount: 非负十进制数
		_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			return err == nil && !d.IsNegative()
		})
		// hexdata: 可选 0x 前缀的偶数长度十六进制
		_ = v.RegisterValidation("hexdata", func(fl validator.FieldLevel) bool {
			s := strings.TrimPrefix(fl.Field().String(), "0x")
			if len(s)%2 != 0 {
				return false
			}
			for _, c := range s {
				if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
					return false
				}
			}
			return true
		})
		validate = v
	})
}

// Struct 校验结构体，失败时返回 errno.ErrInvalidInput
func Struct(s any) error {
	Init()
	if err := validate.Struct(s); err != nil {
		return errno.Newf(errno.ErrInvalidInput, "%s", GetErrorMsg(err))
	}
	return nil
}

// GetErrorMsg translates validation errors into user-friendly messages
func GetErrorMsg(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var errMsgs []string
		for _, e := range validationErrors {
			field := e.Namespace()
			tag := e.Tag()
			param := e.Param()

			switch tag {
			case "required", "required_if":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不能为空", field))
			case "min":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 至少为 %s", field, param))
			case "max":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不能超过 %s", field, param))
			case "oneof":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 必须是 [%s] 之一", field, param))
			case "amount":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不是合法金额", field))
			case "hexdata":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不是合法十六进制", field))
			default:
				errMsgs = append(errMsgs, fmt.Sprintf("%s 校验失败 (%s)", field, tag))
			}
		}
		return strings.Join(errMsgs, "; ")
	}
	return "请求参数错误"
}
