package domain

import (
	"fmt"
	"strings"
)

var quoteStripper = strings.NewReplacer(`"`, "", `'`, "")

// ParseCredentialLine reads one "token|nodeId:hardwareId|proxy" entry. The
// proxy segment is optional.
func ParseCredentialLine(line string) (Account, error) {
	cleaned := quoteStripper.Replace(strings.TrimSpace(line))
	if cleaned == "" {
		return Account{}, fmt.Errorf("%w: empty line", ErrMalformedCredential)
	}

	parts := strings.Split(cleaned, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return Account{}, fmt.Errorf("%w: expected token|nodeId:hardwareId|proxy", ErrMalformedCredential)
	}

	nodeID, hardwareID, ok := strings.Cut(parts[1], ":")
	if !ok {
		return Account{}, fmt.Errorf("%w: expected nodeId:hardwareId, got %q", ErrMalformedCredential, parts[1])
	}

	account := Account{
		Token:      strings.TrimSpace(parts[0]),
		NodeID:     NodeID(strings.TrimSpace(nodeID)),
		HardwareID: strings.TrimSpace(hardwareID),
	}
	if len(parts) == 3 {
		account.Proxy = strings.TrimSpace(parts[2])
	}

	if err := account.Validate(); err != nil {
		return Account{}, err
	}

	return account, nil
}
