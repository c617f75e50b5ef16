// Package backup reads and writes the JSON backup file.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/schema"
)

// ErrMalformed is returned for files that are not backups.
var ErrMalformed = errors.New("malformed backup file")

// Document is the backup file. Version is the schema version of the data.
type Document struct {
	Version             int                        `json:"version"`
	ExportedAt          time.Time                  `json:"exportedAt"`
	Expenses            []model.Transaction        `json:"expenses"`
	Categories          []model.Category           `json:"categories"`
	VendorRules         []model.VendorRule         `json:"vendorRules"`
	Settings            *model.Settings            `json:"settings,omitempty"`
	RecurringExceptions []model.RecurringException `json:"recurringExceptions"`
	Budgets             []model.Budget             `json:"budgets,omitempty"`
}

// New captures s. Empty collections are written as [] rather than null.
func New(s model.Snapshot, exportedAt time.Time) Document {
	c := s.Clone()
	return Document{
		Version:             schema.CurrentVersion,
		ExportedAt:          exportedAt.UTC(),
		Expenses:            nonNil(c.Transactions),
		Categories:          nonNil(c.Categories),
		VendorRules:         nonNil(c.VendorRules),
		Settings:            c.Settings,
		RecurringExceptions: nonNil(c.Exceptions),
		Budgets:             nonNil(c.Budgets),
	}
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// Snapshot returns the collections of d.
func (d Document) Snapshot() model.Snapshot {
	return model.Snapshot{
		Transactions: d.Expenses,
		Categories:   d.Categories,
		VendorRules:  d.VendorRules,
		Exceptions:   d.RecurringExceptions,
		Budgets:      d.Budgets,
		Settings:     d.Settings,
	}.Clone()
}

// Encode writes d as indented JSON.
func Encode(w io.Writer, d Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Decode reads a backup. Anything that is not a JSON object with a
// positive version is ErrMalformed.
func Decode(r io.Reader) (Document, error) {
	var header struct {
		Version *int `json:"version"`
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if header.Version == nil || *header.Version < 1 {
		return Document{}, fmt.Errorf("%w: missing version", ErrMalformed)
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return d, nil
}

// WriteFile writes d to path atomically.
func WriteFile(path string, d Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := Encode(f, d); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// ReadFile reads the backup at path.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	return Decode(f)
}
