package backup

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/calendarspent/internal/catalog"
	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/schema"
)

func sample() model.Snapshot {
	st := model.DefaultSettings()
	st.Currency = "EUR"
	return model.Snapshot{
		Transactions: []model.Transaction{{
			ID: "t1", Vendor: "Cafe", Amount: decimal.RequireFromString("3.20"),
			Category: catalog.Coffee, Date: date.MustParse("2024-04-02"), UpdatedAt: 7,
		}},
		Categories:  catalog.SystemCategories(),
		VendorRules: []model.VendorRule{{ID: "r1", VendorContains: "cafe", CategoryID: catalog.Coffee, Source: model.SourceUser, CreatedAt: 1}},
		Exceptions:  []model.RecurringException{},
		Budgets:     []model.Budget{{CategoryID: catalog.Coffee, MonthlyLimit: decimal.NewFromInt(40), UpdatedAt: 2}},
		Settings:    &st,
	}
}

func TestFileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exports", "backup.json")
	exported := time.Date(2024, 4, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, WriteFile(path, New(sample(), exported)))

	d, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, schema.CurrentVersion, d.Version)
	require.True(t, exported.Equal(d.ExportedAt))

	got := d.Snapshot()
	want := sample()
	require.Len(t, got.Transactions, 1)
	require.True(t, want.Transactions[0].Amount.Equal(got.Transactions[0].Amount))
	require.Equal(t, want.Transactions[0].Date, got.Transactions[0].Date)
	require.Equal(t, want.Categories, got.Categories)
	require.Equal(t, want.VendorRules, got.VendorRules)
	require.Equal(t, "EUR", got.Settings.Currency)
	require.Len(t, got.Budgets, 1)
}

func TestEncodeUsesDocumentedKeys(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	require.NoError(t, Encode(&sb, New(model.Snapshot{}, time.Now())))
	for _, key := range []string{`"version"`, `"exportedAt"`, `"expenses": []`, `"categories": []`, `"vendorRules": []`, `"recurringExceptions": []`} {
		require.Contains(t, sb.String(), key)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	t.Parallel()

	for name, in := range map[string]string{
		"not json":        "{nope",
		"no version":      `{"expenses": []}`,
		"zero version":    `{"version": 0}`,
		"array":           `[]`,
		"wrong type":      `{"version": 1, "expenses": {}}`,
		"version as text": `{"version": "1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(strings.NewReader(in))
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeLegacyShapes(t *testing.T) {
	t.Parallel()

	in := `{"version": 1, "expenses": [{"id": "a", "vendor": "x", "amount": 2.5, "category": "food", "date": "2024-01-02T00:00:00.000Z"}],
	"vendorRules": [{"id": "r", "vendor": "petco", "categoryId": "pets"}]}`
	d, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, date.MustParse("2024-01-02"), d.Expenses[0].Date)
	require.Equal(t, "petco", d.VendorRules[0].LegacyVendor)
	require.Nil(t, d.Settings)
}
