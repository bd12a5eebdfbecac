package compliance

import "strings"

// RegistrationGate enforces A2P 10DLC readiness before automated replies go
// out on US-domestic routes. An agent whose brand/campaign is not approved
// gets the reply suppressed rather than carrier-filtered mid-conversation.
type RegistrationGate struct{}

// GateDecision is the outcome of a registration check.
type GateDecision struct {
	Allowed bool
	Note    string
}

// Check returns whether an automated reply may be sent on the given route.
func (RegistrationGate) Check(ready bool, from, to string) GateDecision {
	if !isUSDomestic(from, to) {
		return GateDecision{Allowed: true}
	}
	if !ready {
		return GateDecision{Allowed: false, Note: "a2p registration not ready, automated reply suppressed"}
	}
	return GateDecision{Allowed: true}
}

func isUSDomestic(from, to string) bool {
	return hasUSPrefix(from) && hasUSPrefix(to)
}

func hasUSPrefix(number string) bool {
	number = strings.TrimSpace(number)
	return strings.HasPrefix(number, "+1") && len(number) == 12
}
