package issuance

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// ItemStatus is the workflow status of a single AWR line item.
type ItemStatus int

const (
	StatusUnknown ItemStatus = iota
	StatusDraft
	StatusPendingIssuance
	StatusIssued
	StatusReceived
	StatusVoided
	StatusComplete
	StatusRejectedByQa
)

// statusEntry is one row of the status mapping table.
type statusEntry struct {
	status  ItemStatus
	name    string   // in-memory / API name
	code    string   // persisted code
	aliases []string // legacy persisted codes accepted when reading
	display string   // report and queue display name
}

// statusTable is the only place where status names, stored codes and display
// names are defined. Every query and transition goes through it.
var statusTable = []statusEntry{
	{StatusDraft, "Draft", "Draft", nil, "Draft"},
	{StatusPendingIssuance, "PendingIssuance", "PendingIssuance", nil, "Pending Approval"},
	{StatusIssued, "Issued", "Issued", nil, "Approved"},
	{StatusReceived, "Received", "InUse", []string{"Received"}, "Completed"},
	{StatusVoided, "Voided", "Voided", []string{"Returned"}, "Voided"},
	{StatusComplete, "Complete", "Complete", nil, "Complete"},
	{StatusRejectedByQa, "RejectedByQa", "RejectedByQa", nil, "Rejected"},
}

var (
	statusByValue = make(map[ItemStatus]statusEntry, len(statusTable))
	statusByCode  = make(map[string]ItemStatus, len(statusTable)*2)
	statusByName  = make(map[string]ItemStatus, len(statusTable))
)

func init() {
	for _, e := range statusTable {
		statusByValue[e.status] = e
		statusByCode[e.code] = e.status
		for _, a := range e.aliases {
			statusByCode[a] = e.status
		}
		statusByName[strings.ToLower(e.name)] = e.status
	}
}

// ActiveStatuses are the statuses that still represent live work. Duplicate
// reference detection only considers items in one of these.
var ActiveStatuses = []ItemStatus{StatusPendingIssuance, StatusIssued, StatusReceived}

// Queue status sets
var (
	IssuanceQueueStatuses = []ItemStatus{StatusPendingIssuance}
	ReceiptQueueStatuses  = []ItemStatus{StatusIssued}
	ReturnQueueStatuses   = []ItemStatus{StatusReceived, StatusVoided}
)

// transitions lists the legal target statuses for each source status
var transitions = map[ItemStatus][]ItemStatus{
	StatusPendingIssuance: {StatusIssued, StatusRejectedByQa},
	StatusIssued:          {StatusReceived, StatusVoided},
}

// IsValid checks if the status is a known value
func (s ItemStatus) IsValid() bool {
	_, ok := statusByValue[s]
	return ok
}

// String returns the in-memory name of the status
func (s ItemStatus) String() string {
	if e, ok := statusByValue[s]; ok {
		return e.name
	}
	return "Unknown"
}

// Code returns the persisted representation of the status
func (s ItemStatus) Code() string {
	if e, ok := statusByValue[s]; ok {
		return e.code
	}
	return ""
}

// DisplayName returns the label shown in queues and reports
func (s ItemStatus) DisplayName() string {
	if e, ok := statusByValue[s]; ok {
		return e.display
	}
	return "Unknown"
}

// IsActive reports whether the item still counts as live work
func (s ItemStatus) IsActive() bool {
	for _, a := range ActiveStatuses {
		if a == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s ItemStatus) IsTerminal() bool {
	return s == StatusVoided || s == StatusComplete || s == StatusRejectedByQa
}

// CanTransitionTo checks if transitioning to target status is allowed
func (s ItemStatus) CanTransitionTo(target ItemStatus) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ParseStatusCode converts a persisted code (including legacy aliases) into an ItemStatus
func ParseStatusCode(code string) (ItemStatus, error) {
	if s, ok := statusByCode[strings.TrimSpace(code)]; ok {
		return s, nil
	}
	return StatusUnknown, fmt.Errorf("unknown item status code %q", code)
}

// ParseItemStatus accepts either the in-memory name or a persisted code, case-insensitively
func ParseItemStatus(value string) (ItemStatus, error) {
	v := strings.TrimSpace(value)
	if s, ok := statusByName[strings.ToLower(v)]; ok {
		return s, nil
	}
	for code, s := range statusByCode {
		if strings.EqualFold(code, v) {
			return s, nil
		}
	}
	return StatusUnknown, fmt.Errorf("unknown item status %q", value)
}

// StatusCodes returns the persisted codes for the given statuses, for use in
// IN (...) clauses. Legacy aliases follow the current code so older rows match.
func StatusCodes(statuses []ItemStatus) []string {
	codes := make([]string, 0, len(statuses))
	for _, s := range statuses {
		e, ok := statusByValue[s]
		if !ok {
			continue
		}
		codes = append(codes, e.code)
		codes = append(codes, e.aliases...)
	}
	return codes
}

// Value implements driver.Valuer so statuses are always written as their persisted code
func (s ItemStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("cannot persist invalid item status %d", int(s))
	}
	return s.Code(), nil
}

// Scan implements sql.Scanner
func (s *ItemStatus) Scan(value any) error {
	var code string
	switch v := value.(type) {
	case string:
		code = v
	case []byte:
		code = string(v)
	case nil:
		*s = StatusUnknown
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ItemStatus", value)
	}
	parsed, err := ParseStatusCode(code)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText renders the in-memory name for JSON and query strings
func (s ItemStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name or code
func (s *ItemStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseItemStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// AggregateStatus derives the request header status from its items.
// Live work wins over closed work; a request whose items all closed the same
// way takes that status, and a mixed closed request is Complete.
func AggregateStatus(items []ItemStatus) ItemStatus {
	if len(items) == 0 {
		return StatusUnknown
	}
	for _, live := range ActiveStatuses {
		for _, s := range items {
			if s == live {
				return live
			}
		}
	}
	first := items[0]
	for _, s := range items[1:] {
		if s != first {
			return StatusComplete
		}
	}
	return first
}
