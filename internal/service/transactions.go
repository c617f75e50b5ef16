package service

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/recurrence"
)

func (e *Engine) findTransaction(id string) int {
	for i, t := range e.state.Transactions {
		if t.ID == id && !t.Tombstoned() {
			return i
		}
	}
	return -1
}

func (e *Engine) categoryExists(id string) bool {
	for _, c := range model.ActiveCategories(e.state.Categories) {
		if c.ID == id {
			return true
		}
	}
	return false
}

// checkTransaction validates t and fills in the category when it is empty.
func (e *Engine) checkTransaction(t *model.Transaction) error {
	t.Vendor = strings.TrimSpace(t.Vendor)
	switch {
	case t.Vendor == "":
		return ErrEmptyVendor
	case t.Amount.IsNegative():
		return ErrInvalidAmount
	case t.Date.IsZero():
		return ErrInvalidDate
	case t.IsRecurring && !t.RecurrenceType.Valid():
		return ErrInvalidRecurrence
	}
	if !t.IsRecurring {
		t.RecurrenceType = ""
		t.EndDate = nil
		t.IsActive = nil
		t.EndedAt = nil
	}
	if t.Category == "" {
		t.Category = e.categorize(t.Vendor)
		return nil
	}
	if !e.categoryExists(t.Category) {
		return ErrUnknownCategory
	}
	return nil
}

// AddTransaction stores t. An empty ID gets a fresh one and an empty
// category is inferred from the vendor.
func (e *Engine) AddTransaction(t model.Transaction) (model.Transaction, error) {
	err := e.mutate(func(now int64) error {
		if err := e.checkTransaction(&t); err != nil {
			return err
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.UpdatedAt, t.DeletedAt = now, 0
		if i := e.indexOf(t.ID); i >= 0 {
			e.state.Transactions[i] = t
		} else {
			e.state.Transactions = append(e.state.Transactions, t)
		}
		e.putTransaction(t)
		return nil
	})
	return t, err
}

// indexOf finds id among all stored transactions, tombstones included.
func (e *Engine) indexOf(id string) int {
	for i, t := range e.state.Transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// UpdateTransaction replaces the editable fields of the stored transaction
// t.ID. Editing a recurring rule that started before today leaves its past
// alone: the rule is ended yesterday and a new rule carrying the edit takes
// over from today, keeping the cadence of the edited date along with the
// skips already set on upcoming occurrences. The returned transaction is the
// one holding the edit.
func (e *Engine) UpdateTransaction(t model.Transaction) (model.Transaction, error) {
	err := e.mutate(func(now int64) error {
		i := e.findTransaction(t.ID)
		if i < 0 {
			return ErrNotFound
		}
		if err := e.checkTransaction(&t); err != nil {
			return err
		}
		old := e.state.Transactions[i]
		today := e.today()

		if !old.IsRule() || !old.Date.Before(today) {
			t.UpdatedAt, t.DeletedAt = now, 0
			e.state.Transactions[i] = t
			e.putTransaction(t)
			return nil
		}

		yesterday := today.AddDays(-1)
		if old.EndedAt == nil || old.EndedAt.After(yesterday) {
			old.EndedAt = &yesterday
		}
		old.UpdatedAt = now
		e.state.Transactions[i] = old
		e.putTransaction(old)

		t.ID = uuid.NewString()
		t.Date = resume(t, today)
		t.EndedAt = nil
		t.UpdatedAt, t.DeletedAt = now, 0
		e.state.Transactions = append(e.state.Transactions, t)
		e.putTransaction(t)
		e.moveExceptions(old.ID, t, today, now)
		return nil
	})
	return t, err
}

// resume returns the first day on or after today in the cadence of t, so a
// split rule keeps its day of the month. It falls back to today when the
// series has already ended.
func resume(t model.Transaction, today date.Date) date.Date {
	if !t.Date.Before(today) {
		return t.Date
	}
	if !t.IsRule() {
		return today
	}
	d := t.Date
	for n := 1; d.Before(today); n++ {
		d = recurrence.Nth(t.Date, t.RecurrenceType, n)
	}
	if t.EndDate != nil && d.After(*t.EndDate) {
		return today
	}
	return d
}

// moveExceptions re-files the live exceptions of rule oldID dated today or
// later under rule next, dropping those that are not occurrences of next.
func (e *Engine) moveExceptions(oldID string, next model.Transaction, today date.Date, now int64) {
	for i, x := range e.state.Exceptions {
		if x.RuleID != oldID || x.Tombstoned() || x.Date.Before(today) {
			continue
		}
		if len(recurrence.Occurrences(next, x.Date, x.Date)) > 0 {
			moved := x
			moved.ID = model.ExceptionID(next.ID, x.Date)
			moved.RuleID = next.ID
			moved.UpdatedAt, moved.DeletedAt = now, 0
			e.state.Exceptions = append(e.state.Exceptions, moved)
			e.putException(moved)
		}
		x.DeletedAt = now
		e.state.Exceptions[i] = x
		e.putException(x)
	}
}

// DeleteTransaction tombstones the transaction behind ref. Deleting a single
// occurrence skips it instead; deleting a rule removes its exceptions too.
func (e *Engine) DeleteTransaction(ref model.Ref) error {
	if ref.IsOccurrence() {
		return e.SkipOccurrence(ref, "")
	}
	return e.mutate(func(now int64) error {
		i := e.findTransaction(ref.ID)
		if i < 0 {
			return ErrNotFound
		}
		t := e.state.Transactions[i]
		t.DeletedAt = now
		e.state.Transactions[i] = t
		e.putTransaction(t)

		for j, x := range e.state.Exceptions {
			if x.RuleID == t.ID && !x.Tombstoned() {
				x.DeletedAt = now
				e.state.Exceptions[j] = x
				e.putException(x)
			}
		}
		return nil
	})
}

// StopRecurring deactivates rule id; occurrences up to yesterday remain.
func (e *Engine) StopRecurring(id string) error {
	return e.mutate(func(now int64) error {
		i := e.findTransaction(id)
		if i < 0 {
			return ErrNotFound
		}
		t := e.state.Transactions[i]
		if !t.IsRule() {
			return ErrNotRecurring
		}
		inactive := false
		yesterday := e.today().AddDays(-1)
		t.IsActive = &inactive
		if t.EndedAt == nil || t.EndedAt.After(yesterday) {
			t.EndedAt = &yesterday
		}
		t.UpdatedAt = now
		e.state.Transactions[i] = t
		e.putTransaction(t)
		return nil
	})
}

func (e *Engine) ruleFor(ref model.Ref) (model.Transaction, error) {
	if !ref.IsOccurrence() {
		return model.Transaction{}, ErrNotAnOccurrence
	}
	i := e.findTransaction(ref.RuleID)
	if i < 0 {
		return model.Transaction{}, ErrNotFound
	}
	rule := e.state.Transactions[i]
	if !rule.IsRule() {
		return model.Transaction{}, ErrNotRecurring
	}
	return rule, nil
}

func (e *Engine) findException(id string) int {
	for i, x := range e.state.Exceptions {
		if x.ID == id {
			return i
		}
	}
	return -1
}

// SkipOccurrence hides one occurrence of a rule from lists and totals.
func (e *Engine) SkipOccurrence(ref model.Ref, note string) error {
	return e.mutate(func(now int64) error {
		rule, err := e.ruleFor(ref)
		if err != nil {
			return err
		}
		if len(recurrence.Occurrences(rule, ref.Date, ref.Date)) == 0 {
			return ErrNotFound
		}
		x := model.RecurringException{
			ID:        model.ExceptionID(rule.ID, ref.Date),
			RuleID:    rule.ID,
			Date:      ref.Date,
			Skipped:   true,
			Note:      strings.TrimSpace(note),
			UpdatedAt: now,
		}
		if i := e.findException(x.ID); i >= 0 {
			e.state.Exceptions[i] = x
		} else {
			e.state.Exceptions = append(e.state.Exceptions, x)
		}
		e.putException(x)
		return nil
	})
}

// UnskipOccurrence restores a skipped occurrence. Unskipping one that is not
// skipped does nothing.
func (e *Engine) UnskipOccurrence(ref model.Ref) error {
	return e.mutate(func(now int64) error {
		if _, err := e.ruleFor(ref); err != nil {
			return err
		}
		i := e.findException(model.ExceptionID(ref.RuleID, ref.Date))
		if i < 0 || e.state.Exceptions[i].Tombstoned() {
			return nil
		}
		x := e.state.Exceptions[i]
		x.DeletedAt = now
		e.state.Exceptions[i] = x
		e.putException(x)
		return nil
	})
}
