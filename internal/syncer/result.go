package syncer

import "github.com/mousetail/mousetail/internal/errcode"

// Hints attached to failures.
const (
	HintAuthentication  = "Please check your username and password"
	HintNetwork         = "Please check your internet connection and endpoint URL"
	HintSync            = "Check for conflicts or try syncing from Anki desktop first"
	RequiredCredentials = "Provide username and password, or save credentials first with save_sync_credentials"
)

// Result is the outcome of one sync attempt. When Success is true only
// Message and Output are set; otherwise Error and Code are set, with Hint
// or Required when there is remediation to suggest.
type Result struct {
	Success bool

	Message string
	Output  string

	Error    string
	Code     errcode.Code
	Hint     string
	Required string
}

func succeeded(message, output string) Result {
	return Result{Success: true, Message: message, Output: output}
}

func failed(code errcode.Code, msg, hint string) Result {
	return Result{Code: code, Error: msg, Hint: hint}
}
