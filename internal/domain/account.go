package domain

import (
	"fmt"
	"strings"
)

type NodeID string

type Account struct {
	Name       string
	Token      string
	NodeID     NodeID
	HardwareID string
	// Proxy is the raw outbound proxy URL; empty means a direct connection.
	Proxy string
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Token) == "" {
		return fmt.Errorf("%w: token is required", ErrMalformedCredential)
	}
	if strings.TrimSpace(string(a.NodeID)) == "" {
		return fmt.Errorf("%w: node id is required", ErrMalformedCredential)
	}
	if strings.TrimSpace(a.HardwareID) == "" {
		return fmt.Errorf("%w: hardware id is required", ErrMalformedCredential)
	}

	return nil
}

// Short renders the node id as first9...last4 for log lines.
func (id NodeID) Short() string {
	s := string(id)
	if len(s) <= 13 {
		return s
	}

	return s[:9] + "..." + s[len(s)-4:]
}

func MaskToken(token string) string {
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}

	return token[:6] + "..." + token[len(token)-4:]
}
