package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/calendarspent/internal/model"
)

func pickerKey(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func pickerPress(t *testing.T, m pickerModel, key string) (pickerModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(pickerKey(key))
	got, ok := next.(pickerModel)
	require.True(t, ok, "Update returned %T", next)
	return got, cmd
}

func pickerType(t *testing.T, m pickerModel, input string) pickerModel {
	t.Helper()
	for _, r := range input {
		m, _ = pickerPress(t, m, string(r))
	}
	return m
}

func labels(items []pickerItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func TestVendorPickerRerankEveryKeystroke(t *testing.T) {
	t.Parallel()
	var queries []string
	suggest := func(q string, limit int) []string {
		queries = append(queries, q)
		require.Equal(t, 3, limit)
		var out []string
		for _, v := range []string{"Starbucks", "Shell", "Stop & Shop"} {
			if q != "" && strings.HasPrefix(strings.ToLower(v), strings.ToLower(q)) {
				out = append(out, v)
			}
		}
		return out
	}
	meta := func(v string) string {
		if v == "Shell" {
			return "Fuel"
		}
		return ""
	}
	p := newSourcePicker("Vendor", "", vendorSource(suggest, 3, meta), "Use")
	m := pickerType(t, pickerModel{picker: p}, "sh")

	require.Equal(t, []string{"", "s", "sh"}, queries)
	require.Equal(t, []string{"Shell"}, labels(p.filtered))
	require.Equal(t, "Fuel", p.filtered[0].Meta)
	require.Contains(t, m.View(), "Shell")

	m, cmd := pickerPress(t, m, "enter")
	require.NotNil(t, cmd)
	require.Equal(t, pickerActionSelected, m.result.Action)
	require.Equal(t, "Shell", m.result.ItemLabel)
}

func TestVendorPickerKeepsTypedVendor(t *testing.T) {
	t.Parallel()
	suggest := func(q string, _ int) []string {
		if q == "" {
			return nil
		}
		return []string{"Zara"}
	}
	p := newSourcePicker("Vendor", "Zar", vendorSource(suggest, 8, func(string) string { return "" }), "Use")
	m := pickerModel{picker: p}
	require.True(t, p.shouldShowCreate())
	require.Contains(t, m.View(), `Use "Zar"`)

	m, _ = pickerPress(t, m, "down")
	m, _ = pickerPress(t, m, "enter")
	require.Equal(t, pickerActionCreate, m.result.Action)
	require.Equal(t, "Zar", m.result.CreatedQuery)

	p.SetQuery("zara")
	require.False(t, p.shouldShowCreate(), "an exact match hides the create row")
}

func TestCategoryPickerFiltersAndFocuses(t *testing.T) {
	t.Parallel()
	cats := []model.Category{
		{ID: "groceries", Name: "Groceries", Group: "Food"},
		{ID: "dining", Name: "Dining", Group: "Food"},
		{ID: "fuel", Name: "Fuel", Group: "Transport"},
		{ID: "gifts", Name: "Gifts", Group: "Personal"},
	}
	p := newPicker("Category", categoryItems(cats), "")
	p.Focus("fuel")
	require.Equal(t, 2, p.cursor)

	m := pickerType(t, pickerModel{picker: p}, "i")
	require.Equal(t, []string{"Groceries", "Dining", "Gifts"}, labels(p.filtered), "contains matches keep their order")

	m = pickerType(t, m, "n")
	require.Equal(t, []string{"Dining"}, labels(p.filtered))
	require.Equal(t, 0, p.cursor, "cursor is clamped to the shorter list")

	m, _ = pickerPress(t, m, "backspace")
	m, _ = pickerPress(t, m, "backspace")
	m = pickerType(t, m, "g")
	require.Equal(t, []string{"Groceries", "Gifts", "Dining"}, labels(p.filtered), "prefix matches first")

	m, _ = pickerPress(t, m, "down")
	m, _ = pickerPress(t, m, "enter")
	require.Equal(t, "gifts", m.result.ItemID)
	require.False(t, p.shouldShowCreate())
}

func TestPickerCancel(t *testing.T) {
	t.Parallel()
	p := newPicker("Category", nil, "")
	m, cmd := pickerPress(t, pickerModel{picker: p}, "esc")
	require.NotNil(t, cmd)
	require.Equal(t, pickerActionCancelled, m.result.Action)

	require.Equal(t, pickerActionNone, p.HandleKey("enter").Action, "nothing to select")
	require.Contains(t, renderPicker(p, 40), "no matches")
}

func TestPickerLettersGoToQuery(t *testing.T) {
	t.Parallel()
	p := newPicker("Category", categoryItems([]model.Category{{ID: "a", Name: "Jk"}, {ID: "b", Name: "Jkl"}}), "")
	for _, k := range []string{"j", "k", " ", "é"} {
		require.Equal(t, pickerActionNone, p.HandleKey(k).Action)
	}
	require.Equal(t, "jk é", p.query)
	require.Equal(t, 0, p.cursor)
	require.Equal(t, pickerActionNone, p.HandleKey("ctrl+x").Action)
	require.Equal(t, "jk é", p.query)

	p.HandleKey("backspace")
	require.Equal(t, "jk ", p.query)
}
