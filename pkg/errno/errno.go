package errno

import (
	"errors"
	"fmt"
)

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Is 让 errors.Is 支持按类别匹配: 类别码 (末两位为 0) 匹配其下所有子类。
func (e Errno) Is(target error) bool {
	var t Errno
	switch typed := target.(type) {
	case Errno:
		t = typed
	case *Errno:
		if typed == nil {
			return false
		}
		t = *typed
	default:
		return false
	}
	if e.Code == t.Code {
		return true
	}
	return t.Code >= 30000 && t.Code%100 == 0 && e.Code/100 == t.Code/100
}

// Kind returns the category an error code belongs to.
func (e Errno) Kind() Errno {
	if e.Code < 30000 {
		return e
	}
	if k, ok := kinds[e.Code/100*100]; ok {
		return k
	}
	return e
}

// Newf wraps kind with a formatted detail message.
func Newf(kind Errno, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var typed Errno
	if errors.As(err, &typed) {
		return typed.Code, err.Error()
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, err.Error()
	}
	return InternalServerError.Code, err.Error()
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
)

// Crypto engine errors (30000+)
var (
	ErrInvalidInput       = Errno{Code: 30100, Message: "invalid input"}
	ErrInvalidPath        = Errno{Code: 30101, Message: "invalid derivation path"}
	ErrInvalidAddress     = Errno{Code: 30102, Message: "invalid address"}
	ErrInvalidSignature   = Errno{Code: 30103, Message: "invalid signature"}
	ErrInvalidTransaction = Errno{Code: 30104, Message: "incomplete transaction"}

	ErrUnsupportedChain = Errno{Code: 30200, Message: "unsupported chain"}
	ErrSchemeMismatch   = Errno{Code: 30201, Message: "signature scheme mismatch"}

	ErrKeyDestroyed = Errno{Code: 30300, Message: "key destroyed"}

	ErrDerivationFailure = Errno{Code: 30400, Message: "derivation failure"}
	ErrInvalidMasterKey  = Errno{Code: 30401, Message: "invalid master key"}
	ErrHardenedOnly      = Errno{Code: 30402, Message: "only hardened derivation is supported"}

	ErrRecoveryFailed = Errno{Code: 30500, Message: "public key recovery failed"}

	ErrEncodingFailure = Errno{Code: 30600, Message: "encoding failure"}
)

var kinds = map[int]Errno{
	ErrInvalidInput.Code:      ErrInvalidInput,
	ErrUnsupportedChain.Code:  ErrUnsupportedChain,
	ErrKeyDestroyed.Code:      ErrKeyDestroyed,
	ErrDerivationFailure.Code: ErrDerivationFailure,
	ErrRecoveryFailed.Code:    ErrRecoveryFailed,
	ErrEncodingFailure.Code:   ErrEncodingFailure,
}
