package errcode

import "fmt"

// Outcome is the result of a business-rule check. Rejections are routine and
// callers branch on OK; Go errors are kept for infrastructure failures.
type Outcome struct {
	OK      bool   `json:"ok"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Accept returns a successful outcome.
func Accept(message string) Outcome {
	return Outcome{OK: true, Code: ErrSuccess, Message: message}
}

// Reject returns a failed outcome carrying code and a formatted reason.
func Reject(code int, format string, args ...interface{}) Outcome {
	return Outcome{Code: code, Message: fmt.Sprintf(format, args...)}
}
