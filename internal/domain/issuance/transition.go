package issuance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Action is one of the four workflow actions that mutate an item
type Action string

const (
	ActionIssue   Action = "ISSUE"
	ActionReceive Action = "RECEIVE"
	ActionVoid    Action = "VOID"
	ActionReject  Action = "REJECT"
)

// actionRule fixes the single legal source and target status of an action
type actionRule struct {
	from ItemStatus
	to   ItemStatus
}

var actionRules = map[Action]actionRule{
	ActionIssue:   {StatusPendingIssuance, StatusIssued},
	ActionReceive: {StatusIssued, StatusReceived},
	ActionVoid:    {StatusIssued, StatusVoided},
	ActionReject:  {StatusPendingIssuance, StatusRejectedByQa},
}

// Verb returns the lowercase verb used in messages
func (a Action) Verb() string {
	return strings.ToLower(string(a))
}

// From returns the status an item must be in for the action to apply
func (a Action) From() ItemStatus {
	return actionRules[a].from
}

// To returns the status the action moves an item into
func (a Action) To() ItemStatus {
	return actionRules[a].to
}

// Transition is a validated, single-item state change. The store applies it as
// a conditional update guarded by From.
type Transition struct {
	Action    Action
	From      ItemStatus
	To        ItemStatus
	Actor     string
	At        time.Time
	QtyIssued decimal.Decimal
	Remark    string
}

func newTransition(action Action, actor string, at time.Time) (Transition, error) {
	rule, ok := actionRules[action]
	if !ok {
		return Transition{}, NewValidationError("unknown action " + string(action))
	}
	if !rule.from.CanTransitionTo(rule.to) {
		return Transition{}, NewValidationError("illegal transition for " + string(action))
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return Transition{}, NewValidationError("actor is required")
	}
	return Transition{
		Action: action,
		From:   rule.from,
		To:     rule.to,
		Actor:  actor,
		At:     at,
	}, nil
}

// NewIssueTransition approves an item for the given quantity
func NewIssueTransition(qty decimal.Decimal, actor string, at time.Time) (Transition, error) {
	if !qty.IsPositive() {
		return Transition{}, NewValidationError("quantity issued must be greater than zero")
	}
	t, err := newTransition(ActionIssue, actor, at)
	if err != nil {
		return Transition{}, err
	}
	t.QtyIssued = qty
	return t, nil
}

// NewReceiveTransition confirms printing and receipt of an issued copy
func NewReceiveTransition(actor string, at time.Time) (Transition, error) {
	return newTransition(ActionReceive, actor, at)
}

// NewVoidTransition cancels an issued item. A remark is mandatory.
func NewVoidTransition(actor, remark string, at time.Time) (Transition, error) {
	remark = strings.TrimSpace(remark)
	if remark == "" {
		return Transition{}, NewValidationError("a remark is required to void an item")
	}
	t, err := newTransition(ActionVoid, actor, at)
	if err != nil {
		return Transition{}, err
	}
	t.Remark = remark
	return t, nil
}

// NewRejectTransition rejects a pending item. A comment is mandatory.
func NewRejectTransition(actor, comment string, at time.Time) (Transition, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return Transition{}, NewValidationError("a comment is required to reject an item")
	}
	t, err := newTransition(ActionReject, actor, at)
	if err != nil {
		return Transition{}, err
	}
	t.Remark = comment
	return t, nil
}

// RequiresApprover reports whether only QA or Admin may perform the action
func (a Action) RequiresApprover() bool {
	return a == ActionIssue || a == ActionReject
}
