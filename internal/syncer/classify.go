package syncer

import (
	"strings"

	"github.com/mousetail/mousetail/internal/errcode"
)

// classifyLogin maps a sync login failure to a code, a message and a hint by
// case-insensitive substring match on the collaborator's message.
func classifyLogin(err error) Result {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "authentication") || strings.Contains(lower, "invalid"):
		return failed(errcode.AuthenticationFailed, "Authentication failed: "+msg, HintAuthentication)
	case strings.Contains(lower, "network") || strings.Contains(lower, "connection"):
		return failed(errcode.NetworkError, "Network error: "+msg, HintNetwork)
	default:
		return failed(errcode.LoginFailed, "Login failed: "+msg, "")
	}
}
