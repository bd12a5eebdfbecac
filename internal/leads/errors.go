package leads

import "errors"

var (
	// ErrLeadNotFound indicates no lead matched the lookup.
	ErrLeadNotFound = errors.New("leads: lead not found")
	// ErrMissingAgentID indicates a repository call without tenant scope.
	ErrMissingAgentID = errors.New("leads: agent id is required")
	// ErrMissingPhone indicates a lead without any phone number.
	ErrMissingPhone = errors.New("leads: phone is required")
)
