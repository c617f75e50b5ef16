package service

import (
	"bufio"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/vendor"
)

// IngestResult summarizes a CSV import.
type IngestResult struct {
	Imported int
	Skipped  int
	Errors   []error
}

// ImportCSV adds one-off expenses from CSV rows of date, vendor, amount and
// an optional note. Dates are yyyy-MM-dd; amounts may carry a currency
// sign, thousands separators or a minus sign, which is dropped. A header
// row starting with "date" is ignored. Rows matching a live expense on
// date, amount and vendor are skipped.
func (e *Engine) ImportCSV(r io.Reader) (IngestResult, error) {
	res := IngestResult{}
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	var rows []model.Transaction
	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "date") {
			continue
		}
		if len(rec) < 3 {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: expected 3 columns (date, vendor, amount)", line))
			continue
		}
		day, err := date.Parse(strings.TrimSpace(rec[0]))
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d date: %w", line, err))
			continue
		}
		amount, err := parseAmount(rec[2])
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d amount: %w", line, err))
			continue
		}
		t := model.Transaction{
			ID:     uuid.NewString(),
			Vendor: strings.TrimSpace(rec[1]),
			Amount: amount,
			Date:   day,
		}
		if len(rec) > 3 {
			t.Note = strings.TrimSpace(rec[3])
		}
		rows = append(rows, t)
	}

	err := e.mutate(func(now int64) error {
		seen := map[string]bool{}
		for _, t := range model.ActiveTransactions(e.state.Transactions) {
			if !t.IsRecurring {
				seen[sourceHash(t)] = true
			}
		}
		for _, t := range rows {
			h := sourceHash(t)
			if seen[h] {
				res.Skipped++
				continue
			}
			if err := e.checkTransaction(&t); err != nil {
				res.Errors = append(res.Errors, fmt.Errorf("%s %s: %w", t.Date, t.Vendor, err))
				continue
			}
			seen[h] = true
			t.UpdatedAt = now
			e.state.Transactions = append(e.state.Transactions, t)
			e.putTransaction(t)
			res.Imported++
		}
		return nil
	})
	return res, err
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", "$", "", "€", "", "£", "").Replace(s)
	if s == "" {
		return decimal.Decimal{}, errors.New("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return d.Abs(), nil
}

// sourceHash identifies an expense by what a bank export would repeat.
func sourceHash(t model.Transaction) string {
	joined := strings.Join([]string{t.Date.String(), t.Amount.StringFixed(2), vendor.Normalize(t.Vendor)}, "|")
	sum := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("%x", sum[:])
}
