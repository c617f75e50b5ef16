// Package model defines the records owned by the expense engine.
//
// All timestamps are epoch milliseconds; zero means unset. Records carrying a
// non-zero DeletedAt are tombstones: they stay in storage for sync convergence
// and are filtered out by the Active* views.
package model

import (
	"github.com/shopspring/decimal"

	"github.com/jask/calendarspent/internal/date"
)

// Recurrence is the cadence of a recurring rule.
type Recurrence string

const (
	Daily   Recurrence = "daily"
	Weekly  Recurrence = "weekly"
	Monthly Recurrence = "monthly"
	Yearly  Recurrence = "yearly"
)

// Valid reports whether r is a known cadence.
func (r Recurrence) Valid() bool {
	switch r {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Transaction is a stored expense. With IsRecurring set it is a rule: the
// base occurrence from which virtual occurrences are generated.
type Transaction struct {
	ID             string          `json:"id"`
	Vendor         string          `json:"vendor"`
	Amount         decimal.Decimal `json:"amount"`
	Category       string          `json:"category"`
	Date           date.Date       `json:"date"`
	Note           string          `json:"note,omitempty"`
	PhotoURL       string          `json:"photoUrl,omitempty"`
	IsRecurring    bool            `json:"isRecurring,omitempty"`
	RecurrenceType Recurrence      `json:"recurrenceType,omitempty"`
	EndDate        *date.Date      `json:"endDate,omitempty"`
	IsActive       *bool           `json:"isActive,omitempty"`
	EndedAt        *date.Date      `json:"endedAt,omitempty"`
	UpdatedAt      int64           `json:"updatedAt,omitempty"`
	DeletedAt      int64           `json:"deletedAt,omitempty"`
}

// Active reports whether a rule still generates occurrences. A missing flag
// counts as active.
func (t Transaction) Active() bool { return t.IsActive == nil || *t.IsActive }

// IsRule reports whether t generates occurrences.
func (t Transaction) IsRule() bool { return t.IsRecurring && t.RecurrenceType.Valid() }

func (t Transaction) Key() string { return t.ID }
func (t Transaction) Version() int64 { return version(t.UpdatedAt, t.DeletedAt) }
func (t Transaction) Tombstoned() bool { return t.DeletedAt != 0 }

// Entry is one row of the expanded transaction list: either a stored
// transaction or a virtual occurrence of a rule. Only entries carry the
// skip fields, so a stored transaction can never be marked skipped.
type Entry struct {
	Transaction
	Ref       Ref    `json:"ref"`
	IsVirtual bool   `json:"isVirtual,omitempty"`
	IsSkipped bool   `json:"isSkipped,omitempty"`
	SkipNote  string `json:"skipNote,omitempty"`
}

// RecurringException overrides a single occurrence of a rule. Unskipping
// tombstones the record instead of removing it.
type RecurringException struct {
	ID        string    `json:"id"`
	RuleID    string    `json:"ruleId"`
	Date      date.Date `json:"date"`
	Skipped   bool      `json:"skipped"`
	Note      string    `json:"note,omitempty"`
	UpdatedAt int64     `json:"updatedAt,omitempty"`
	DeletedAt int64     `json:"deletedAt,omitempty"`
}

// ExceptionID is the storage key of the exception for (ruleID, day).
func ExceptionID(ruleID string, day date.Date) string {
	return OccurrenceRef(ruleID, day).Key()
}

func (e RecurringException) Key() string { return e.ID }
func (e RecurringException) Version() int64 { return version(e.UpdatedAt, e.DeletedAt) }
func (e RecurringException) Tombstoned() bool { return e.DeletedAt != 0 }

// Group is one of the canonical category groups.
type Group string

// Icon is a symbolic icon identifier from a closed set.
type Icon string

// Category classifies transactions.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Icon      Icon   `json:"icon"`
	Color     string `json:"color"`
	Group     Group  `json:"group"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
	DeletedAt int64  `json:"deletedAt,omitempty"`
}

func (c Category) Key() string { return c.ID }
func (c Category) Version() int64 { return version(c.UpdatedAt, c.DeletedAt) }
func (c Category) Tombstoned() bool { return c.DeletedAt != 0 }

// RuleSource tells user rules from the built-in table.
type RuleSource string

const (
	SourceUser    RuleSource = "user"
	SourcePremade RuleSource = "premade"
)

// VendorRule maps vendors containing a pattern to a category.
type VendorRule struct {
	ID             string     `json:"id"`
	VendorContains string     `json:"vendorContains"`
	CategoryID     string     `json:"categoryId"`
	Source         RuleSource `json:"source,omitempty"`
	CreatedAt      int64      `json:"createdAt,omitempty"`
	UpdatedAt      int64      `json:"updatedAt,omitempty"`
	DeletedAt      int64      `json:"deletedAt,omitempty"`

	// LegacyVendor is the pre-rename name of VendorContains; migration
	// moves it over and clears it.
	LegacyVendor string `json:"vendor,omitempty"`
}

func (r VendorRule) Key() string { return r.ID }
func (r VendorRule) Version() int64 { return version(r.UpdatedAt, r.DeletedAt) }
func (r VendorRule) Tombstoned() bool { return r.DeletedAt != 0 }

// Budget is the monthly spending limit of a category.
type Budget struct {
	CategoryID   string          `json:"categoryId"`
	MonthlyLimit decimal.Decimal `json:"monthlyLimit"`
	UpdatedAt    int64           `json:"updatedAt,omitempty"`
	DeletedAt    int64           `json:"deletedAt,omitempty"`
}

func (b Budget) Key() string { return b.CategoryID }
func (b Budget) Version() int64 { return version(b.UpdatedAt, b.DeletedAt) }
func (b Budget) Tombstoned() bool { return b.DeletedAt != 0 }

func version(updated, deleted int64) int64 {
	if deleted > updated {
		return deleted
	}
	return updated
}
