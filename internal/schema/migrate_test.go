package schema

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/calendarspent/internal/catalog"
	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
)

func legacyFixture() ([]model.Category, []model.Transaction, []model.VendorRule) {
	cats := []model.Category{
		{ID: "c-food", Name: "Food", Icon: catalog.IconUtensils, Color: "#fff"},
		{ID: "c-pets", Name: "Pets", Icon: catalog.IconPaw, Color: "#123456"},
		{ID: "c-pets-2", Name: " pets! ", Icon: catalog.IconPaw, Color: "#123456", Group: catalog.GroupPersonal},
		{ID: "c-gifts", Name: "Gifts", Icon: catalog.IconGift, Color: "#abc", Group: "personal"},
		{ID: "c-old", Name: "Old", Icon: catalog.IconTag, Color: "#abc", Group: catalog.GroupOther, DeletedAt: 5},
	}
	day := date.MustParse("2024-03-01")
	txs := []model.Transaction{
		{ID: "t1", Vendor: "Cafe", Amount: decimal.RequireFromString("4.5"), Category: "c-food", Date: day, UpdatedAt: 10},
		{ID: "t2", Vendor: "Vet", Amount: decimal.RequireFromString("80"), Category: "c-pets-2", Date: day, UpdatedAt: 10},
		{ID: "t3", Vendor: "Mart", Amount: decimal.RequireFromString("12"), Category: "food", Date: day, UpdatedAt: 10},
		{ID: "t4", Vendor: "???", Amount: decimal.RequireFromString("1"), Category: "gone", Date: day, UpdatedAt: 10},
		{ID: "t5", Vendor: "Deleted", Amount: decimal.RequireFromString("1"), Category: "gone", Date: day, DeletedAt: 9},
	}
	rules := []model.VendorRule{
		{ID: "r1", LegacyVendor: "petco", CategoryID: "c-pets-2", UpdatedAt: 7},
		{ID: "r2", VendorContains: "bakery", CategoryID: "c-food", Source: model.SourceUser, CreatedAt: 3},
	}
	return cats, txs, rules
}

func TestMigrateRemapsLegacyAndDuplicateCategories(t *testing.T) {
	t.Parallel()

	cats, txs, rules := legacyFixture()
	res := Migrate(cats, txs, rules)
	require.True(t, res.Changed)

	system := catalog.SystemCategories()
	require.Len(t, res.Categories, len(system)+3)
	for i, c := range system {
		require.Equal(t, c.ID, res.Categories[i].ID, "system categories come first")
	}

	byID := map[string]model.Category{}
	for _, c := range res.Categories {
		byID[c.ID] = c
	}
	require.NotContains(t, byID, "c-food")
	require.NotContains(t, byID, "c-pets-2")
	require.Equal(t, catalog.GroupOther, byID["c-pets"].Group)
	require.Equal(t, catalog.GroupPersonal, byID["c-gifts"].Group)
	require.NotZero(t, byID["c-old"].DeletedAt)

	require.Equal(t, catalog.Dining, res.Remap["c-food"])
	require.Equal(t, "c-pets", res.Remap["c-pets-2"])

	require.Equal(t, catalog.Dining, res.Transactions[0].Category)
	require.Equal(t, "c-pets", res.Transactions[1].Category)
	require.Equal(t, catalog.Dining, res.Transactions[2].Category, "legacy label used as id")
	require.Equal(t, catalog.Uncategorized, res.Transactions[3].Category)
	require.Equal(t, "gone", res.Transactions[4].Category, "tombstones are not rewritten")

	// inputs are untouched
	require.Equal(t, "c-food", txs[0].Category)
	require.Equal(t, "petco", rules[0].LegacyVendor)
}

func TestMigrateBackfillsVendorRules(t *testing.T) {
	t.Parallel()

	cats, txs, rules := legacyFixture()
	res := Migrate(cats, txs, rules)

	r1 := res.VendorRules[0]
	require.Equal(t, "petco", r1.VendorContains)
	require.Empty(t, r1.LegacyVendor)
	require.Equal(t, model.SourceUser, r1.Source)
	require.Equal(t, int64(7), r1.CreatedAt)
	require.Equal(t, "c-pets", r1.CategoryID)

	r2 := res.VendorRules[1]
	require.Equal(t, int64(3), r2.CreatedAt)
	require.Equal(t, catalog.Dining, r2.CategoryID)
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	cats, txs, rules := legacyFixture()
	first := Migrate(cats, txs, rules)
	second := Migrate(first.Categories, first.Transactions, first.VendorRules)

	require.False(t, second.Changed)
	require.Empty(t, second.Remap)
	require.Equal(t, first.Categories, second.Categories)
	require.Equal(t, first.Transactions, second.Transactions)
	require.Equal(t, first.VendorRules, second.VendorRules)
}

func TestMigrateEmptyInputYieldsSystemCategories(t *testing.T) {
	t.Parallel()

	res := Migrate(nil, nil, nil)
	require.True(t, res.Changed)
	require.Equal(t, catalog.SystemCategories(), res.Categories)

	again := Migrate(res.Categories, nil, nil)
	require.False(t, again.Changed)
}

func TestMigrateKeepsSystemCategoryEdits(t *testing.T) {
	t.Parallel()

	edited := catalog.SystemCategories()[3]
	edited.Color = "#000"
	edited.Group = "food & drink"
	edited.DeletedAt = 99

	res := Migrate([]model.Category{edited}, nil, nil)
	got := res.Categories[3]
	require.Equal(t, "#000", got.Color)
	require.Equal(t, catalog.GroupFood, got.Group)
	require.Zero(t, got.DeletedAt, "system categories cannot stay deleted")
}

func TestMigrateReferentialIntegrity(t *testing.T) {
	t.Parallel()

	cats, txs, rules := legacyFixture()
	res := Migrate(cats, txs, rules)

	live := map[string]bool{}
	for _, c := range model.ActiveCategories(res.Categories) {
		live[c.ID] = true
	}
	for _, tx := range model.ActiveTransactions(res.Transactions) {
		require.True(t, live[tx.Category], "transaction %s -> %s", tx.ID, tx.Category)
	}
	for _, r := range model.ActiveRules(res.VendorRules) {
		require.True(t, live[r.CategoryID], "rule %s -> %s", r.ID, r.CategoryID)
	}
}

func TestApplyMovesBudgets(t *testing.T) {
	t.Parallel()

	cats, txs, rules := legacyFixture()
	s := &model.Snapshot{
		Categories:   cats,
		Transactions: txs,
		VendorRules:  rules,
		Budgets: []model.Budget{
			{CategoryID: "c-food", MonthlyLimit: decimal.NewFromInt(200), UpdatedAt: 4},
			{CategoryID: "gone", MonthlyLimit: decimal.NewFromInt(50), UpdatedAt: 4},
			{CategoryID: "c-pets", MonthlyLimit: decimal.NewFromInt(30), UpdatedAt: 4},
		},
	}
	require.True(t, Apply(s))

	require.Equal(t, catalog.Dining, s.Budgets[0].CategoryID)
	require.Zero(t, s.Budgets[0].DeletedAt)
	require.Equal(t, int64(4), s.Budgets[1].DeletedAt)
	require.Equal(t, "c-pets", s.Budgets[2].CategoryID)
	require.False(t, Apply(s))
}

func TestUpgradeRunsChainOnce(t *testing.T) {
	t.Parallel()

	cats, txs, rules := legacyFixture()
	day := date.MustParse("2024-03-01")
	s := &model.Snapshot{
		Categories:   cats,
		Transactions: txs,
		VendorRules:  rules,
		Exceptions: []model.RecurringException{
			{ID: model.ExceptionID("t1", day), RuleID: "t1", Date: day, Skipped: true, UpdatedAt: 20},
			{ID: model.ExceptionID("t1", day.AddDays(1)), RuleID: "t1", Date: day.AddDays(1), UpdatedAt: 21},
		},
		Settings: &model.Settings{Currency: "EUR"},
	}

	v, changed := Upgrade(s, 0)
	require.Equal(t, CurrentVersion, v)
	require.True(t, changed)

	require.Zero(t, s.Exceptions[0].DeletedAt)
	require.Equal(t, int64(21), s.Exceptions[1].DeletedAt)
	require.Equal(t, int64(1), s.Settings.UpdatedAt)
	for _, c := range s.Categories {
		require.NotZero(t, c.UpdatedAt, c.ID)
	}
	require.Equal(t, int64(1), s.Transactions[4].UpdatedAt)

	v, changed = Upgrade(s, v)
	require.Equal(t, CurrentVersion, v)
	require.False(t, changed)
}

func TestUpgradeLeavesNewerDataAlone(t *testing.T) {
	t.Parallel()

	s := &model.Snapshot{}
	v, changed := Upgrade(s, CurrentVersion+2)
	require.Equal(t, CurrentVersion+2, v)
	require.False(t, changed)
	require.Empty(t, s.Categories)
}
