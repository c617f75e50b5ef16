package model

import "github.com/jask/calendarspent/internal/date"

// RefKind tells a stored transaction from a generated occurrence.
type RefKind string

const (
	KindRule       RefKind = "rule"
	KindOccurrence RefKind = "occurrence"
)

// Ref addresses an expanded entry. It is built once at expansion time and
// carried to consumers, so occurrence ids are never parsed back apart.
type Ref struct {
	Kind   RefKind   `json:"kind"`
	ID     string    `json:"id,omitempty"`
	RuleID string    `json:"ruleId,omitempty"`
	Date   date.Date `json:"date,omitzero"`
}

// RuleRef addresses a stored transaction (recurring or not).
func RuleRef(id string) Ref { return Ref{Kind: KindRule, ID: id} }

// OccurrenceRef addresses the occurrence of rule ruleID on day.
func OccurrenceRef(ruleID string, day date.Date) Ref {
	return Ref{Kind: KindOccurrence, RuleID: ruleID, Date: day}
}

// IsOccurrence reports whether r addresses a generated occurrence.
func (r Ref) IsOccurrence() bool { return r.Kind == KindOccurrence }

// Owner returns the id of the stored transaction behind r.
func (r Ref) Owner() string {
	if r.Kind == KindOccurrence {
		return r.RuleID
	}
	return r.ID
}

// Key renders the display/storage id: the transaction id for rules,
// "{ruleId}-{date}" for occurrences.
func (r Ref) Key() string {
	if r.Kind == KindOccurrence {
		return r.RuleID + "-" + r.Date.String()
	}
	return r.ID
}
