package domain

import (
	"fmt"
	"strings"
)

type PingKind int

const (
	PingSkipped PingKind = iota
	PingSuccess
	PingFirstContact
	PingSoftFailure
	PingTransportFailure
)

func (k PingKind) String() string {
	switch k {
	case PingSkipped:
		return "skipped"
	case PingSuccess:
		return "ok"
	case PingFirstContact:
		return "first-contact"
	case PingSoftFailure:
		return "soft-failure"
	case PingTransportFailure:
		return "transport-failure"
	default:
		return fmt.Sprintf("PingKind(%d)", int(k))
	}
}

// PingOutcome is the classified result of one ping attempt. Reason carries
// the reported status for soft failures and Err the cause for transport
// failures.
type PingOutcome struct {
	Kind   PingKind
	Reason string
	Err    error
}

// ClassifyPingStatus maps the status field of a ping response body. A nil
// or empty status means the gateway has no prior state for the node.
func ClassifyPingStatus(status *string) PingOutcome {
	switch {
	case status == nil || *status == "":
		return PingOutcome{Kind: PingFirstContact}
	case strings.EqualFold(*status, "ok"):
		return PingOutcome{Kind: PingSuccess}
	default:
		return PingOutcome{Kind: PingSoftFailure, Reason: *status}
	}
}

func (o PingOutcome) Succeeded() bool {
	return o.Kind == PingSuccess || o.Kind == PingFirstContact
}
