package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/calendarspent/internal/catalog"
	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
)

func TestAddCategoryValidation(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	_, err := e.AddCategory(model.Category{Name: "  Coffee  "})
	require.ErrorIs(t, err, ErrDuplicateName)
	_, err = e.AddCategory(model.Category{Name: "coffee!"})
	require.ErrorIs(t, err, ErrDuplicateName)
	_, err = e.AddCategory(model.Category{Name: " !! "})
	require.ErrorIs(t, err, ErrEmptyName)
	_, err = e.AddCategory(model.Category{Name: "Pets", Group: "Animals"})
	require.ErrorIs(t, err, ErrInvalidGroup)
	_, err = e.AddCategory(model.Category{Name: "Pets", Icon: "dragon"})
	require.ErrorIs(t, err, ErrInvalidIcon)
	_, err = e.AddCategory(model.Category{Name: "Pets", Color: "red"})
	require.ErrorIs(t, err, ErrInvalidColor)
	require.Len(t, e.Categories(), len(catalog.SystemCategories()))

	c, err := e.AddCategory(model.Category{Name: " Pets ", Group: "personal", Icon: catalog.IconPaw})
	require.NoError(t, err)
	require.Equal(t, "Pets", c.Name)
	require.Equal(t, catalog.GroupPersonal, c.Group)
	require.Equal(t, "#9ca3af", c.Color)
	require.Len(t, e.Categories(), len(catalog.SystemCategories())+1)
}

func TestAddCategoryRejectsReservedNames(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	for _, name := range []string{"Gas", "food", "Cafe", "MISC", "Other", "Bills", "Medical", "Dining Out"} {
		_, err := e.AddCategory(model.Category{Name: name})
		require.ErrorIs(t, err, ErrDuplicateName, name)
	}

	fuel := e.Categories()[5]
	require.Equal(t, catalog.Fuel, fuel.ID)
	fuel.Name = "Petrol"
	_, err := e.UpdateCategory(fuel)
	require.NoError(t, err)
	_, err = e.AddCategory(model.Category{Name: "Fuel"})
	require.ErrorIs(t, err, ErrDuplicateName)

	pets, err := e.AddCategory(model.Category{Name: "Pets"})
	require.NoError(t, err)
	pets.Name = "Gas"
	_, err = e.UpdateCategory(pets)
	require.ErrorIs(t, err, ErrDuplicateName)
	require.Len(t, e.Categories(), len(catalog.SystemCategories())+1)
}

func TestCategoriesSurviveReload(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	e, _ := newEngine(t, store, Options{})

	station, err := e.AddCategory(model.Category{Name: "Gas Station"})
	require.NoError(t, err)
	tx, err := e.AddTransaction(model.Transaction{Vendor: "Corner Kiosk", Amount: dec("12"), Date: date.MustParse("2024-05-03"), Category: station.ID})
	require.NoError(t, err)

	fuel := e.Categories()[5]
	fuel.Name = "Gas"
	_, err = e.UpdateCategory(fuel)
	require.NoError(t, err)
	require.NoError(t, e.Flush(context.Background()))

	reloaded, _ := newEngine(t, store, Options{})
	names := model.CategoryNames(reloaded.Categories())
	require.Equal(t, "Gas Station", names[station.ID])
	require.Equal(t, "Gas", names[catalog.Fuel])
	snap := reloaded.Snapshot()
	require.Len(t, snap.Transactions, 1)
	require.Equal(t, tx.ID, snap.Transactions[0].ID)
	require.Equal(t, station.ID, snap.Transactions[0].Category)
}

func TestUpdateCategory(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	coffee := e.Categories()[3]
	require.Equal(t, catalog.Coffee, coffee.ID)
	coffee.Name = "Caffeine"
	got, err := e.UpdateCategory(coffee)
	require.NoError(t, err)
	require.Equal(t, "Caffeine", got.Name)

	got.Name = "Groceries"
	_, err = e.UpdateCategory(got)
	require.ErrorIs(t, err, ErrDuplicateName)

	// renaming to its own name is not a duplicate
	got.Name = "caffeine"
	_, err = e.UpdateCategory(got)
	require.NoError(t, err)
}

func TestDeleteCategoryRemapsReferences(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	pets, err := e.AddCategory(model.Category{Name: "Pets"})
	require.NoError(t, err)
	tx, err := e.AddTransaction(model.Transaction{Vendor: "Vet", Amount: dec("80"), Date: date.MustParse("2024-05-02"), Category: pets.ID})
	require.NoError(t, err)
	r, err := e.AddVendorRule("petco", pets.ID)
	require.NoError(t, err)
	_, err = e.SetBudget(pets.ID, dec("50"))
	require.NoError(t, err)

	require.NoError(t, e.DeleteCategory(pets.ID))

	snap := e.Snapshot()
	require.Equal(t, catalog.Uncategorized, snap.Transactions[0].Category)
	require.Equal(t, tx.ID, snap.Transactions[0].ID)
	require.Equal(t, catalog.Uncategorized, snap.VendorRules[0].CategoryID)
	require.Equal(t, r.ID, snap.VendorRules[0].ID)

	budgets := model.ActiveBudgets(snap.Budgets)
	require.Len(t, budgets, 1)
	require.Equal(t, catalog.Uncategorized, budgets[0].CategoryID)
	require.True(t, dec("50").Equal(budgets[0].MonthlyLimit))

	for _, c := range e.Categories() {
		require.NotEqual(t, pets.ID, c.ID)
	}
	require.ErrorIs(t, e.DeleteCategory(pets.ID), ErrNotFound)

	err = e.DeleteCategory(catalog.Coffee)
	require.ErrorIs(t, err, ErrSystemCategory)
	require.ErrorIs(t, err, ErrValidation)
}

func TestVendorRules(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	r, err := e.AddVendorRule("Blue Door Cafe", catalog.Dining)
	require.NoError(t, err)
	require.Equal(t, model.SourceUser, r.Source)

	again, err := e.AddVendorRule("blue door cafe!", catalog.Coffee)
	require.NoError(t, err)
	require.Equal(t, r.ID, again.ID)
	require.Len(t, e.VendorRules(), 1)

	m, ok := e.CategorizeVendor("Blue Door Cafe")
	require.True(t, ok)
	require.Equal(t, catalog.Coffee, m.CategoryID)
	require.Equal(t, r.ID, m.RuleID)

	_, err = e.AddVendorRule(" ", catalog.Coffee)
	require.ErrorIs(t, err, ErrEmptyVendor)
	_, err = e.AddVendorRule("x", "nope")
	require.ErrorIs(t, err, ErrUnknownCategory)

	r.VendorContains, r.CategoryID = "Green Door", catalog.Dining
	_, err = e.UpdateVendorRule(r)
	require.NoError(t, err)
	_, ok = e.CategorizeVendor("Blue Door Cafe")
	require.False(t, ok)

	_, err = e.AddTransaction(model.Transaction{Vendor: "Somewhere", Amount: dec("3"), Date: date.MustParse("2024-05-01")})
	require.NoError(t, err)
	_, err = e.AddVendorRule("somewhere", catalog.Personal)
	require.NoError(t, err)
	n, err := e.ApplyVendorRules()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, e.DeleteVendorRule(r.ID))
	require.Len(t, e.VendorRules(), 1)
	require.ErrorIs(t, e.DeleteVendorRule(r.ID), ErrNotFound)
}

func TestBudgets(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	_, err := e.SetBudget(catalog.Coffee, dec("0"))
	require.ErrorIs(t, err, ErrInvalidBudgetLimit)
	_, err = e.SetBudget("nope", dec("10"))
	require.ErrorIs(t, err, ErrUnknownCategory)

	_, err = e.SetBudget(catalog.Coffee, dec("20"))
	require.NoError(t, err)
	_, err = e.AddTransaction(model.Transaction{Vendor: "Starbucks", Amount: dec("12.50"), Date: date.MustParse("2024-05-03")})
	require.NoError(t, err)
	_, err = e.AddTransaction(model.Transaction{Vendor: "Starbucks", Amount: dec("9"), Date: date.MustParse("2024-04-30")})
	require.NoError(t, err)

	lines := e.BudgetStatus(date.MustParse("2024-05-01"))
	require.Len(t, lines, 1)
	require.True(t, dec("12.50").Equal(lines[0].Spent))
	require.True(t, dec("7.50").Equal(lines[0].Remaining))
	require.False(t, lines[0].Over)

	require.NoError(t, e.RemoveBudget(catalog.Coffee))
	require.Empty(t, e.BudgetStatus(date.MustParse("2024-05-01")))
	require.ErrorIs(t, e.RemoveBudget(catalog.Coffee), ErrNotFound)
}

func TestUpdateSettings(t *testing.T) {
	t.Parallel()
	e, c := testEngine(t)
	before := e.Settings().UpdatedAt

	bad := "NOPE"
	_, err := e.UpdateSettings(model.SettingsPatch{Currency: &bad})
	require.ErrorIs(t, err, ErrInvalidCurrency)

	c.Advance(time.Second)
	eur := " eur "
	off := false
	st, err := e.UpdateSettings(model.SettingsPatch{Currency: &eur, NotificationsEnabled: &off})
	require.NoError(t, err)
	require.Equal(t, "EUR", st.Currency)
	require.False(t, st.NotificationsEnabled)
	require.Greater(t, st.UpdatedAt, before)

	filter := []string{catalog.Coffee, catalog.Dining}
	_, err = e.UpdateSettings(model.SettingsPatch{DefaultCategoryFilter: &filter})
	require.NoError(t, err)
	require.Equal(t, filter, e.DefaultQuery().CategoryIDs)

	unknown := []string{"nope"}
	_, err = e.UpdateSettings(model.SettingsPatch{DefaultCategoryFilter: &unknown})
	require.ErrorIs(t, err, ErrUnknownCategory)
}
