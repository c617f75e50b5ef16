package main

import (
	"errors"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/calendarspent/internal/model"
)

var errPickerCancelled = errors.New("cancelled")

var (
	pickerCursorStyle = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("#313244"))
	pickerCreateStyle = lipgloss.NewStyle().Foreground(colorPeach)
)

type pickerItem struct {
	ID    string
	Label string
	Color string
	Meta  string
}

// pickerState is a single-select list narrowed by a typed query. With a
// source set the rows are recomputed from the query on every change instead
// of filtered from items.
type pickerState struct {
	items       []pickerItem
	filtered    []pickerItem
	query       string
	cursor      int
	title       string
	createLabel string
	source      func(query string) []pickerItem
}

type pickerAction int

const (
	pickerActionNone pickerAction = iota
	pickerActionMoved
	pickerActionSelected
	pickerActionCreate
	pickerActionCancelled
)

type pickerResult struct {
	Action       pickerAction
	ItemID       string
	ItemLabel    string
	CreatedQuery string
}

func newPicker(title string, items []pickerItem, createLabel string) *pickerState {
	p := &pickerState{title: title, createLabel: strings.TrimSpace(createLabel)}
	p.SetItems(items)
	return p
}

// newSourcePicker starts a picker whose rows come from source, seeded with
// query.
func newSourcePicker(title, query string, source func(string) []pickerItem, createLabel string) *pickerState {
	p := &pickerState{title: title, createLabel: strings.TrimSpace(createLabel), source: source}
	p.SetQuery(query)
	return p
}

func (p *pickerState) SetItems(items []pickerItem) {
	p.items = append([]pickerItem(nil), items...)
	p.rebuildFiltered()
}

func (p *pickerState) SetQuery(q string) {
	p.query = q
	p.rebuildFiltered()
}

// Focus puts the cursor on the row with id, if it is shown.
func (p *pickerState) Focus(id string) {
	for i, it := range p.filtered {
		if it.ID == id {
			p.cursor = i
			return
		}
	}
}

func (p *pickerState) CursorUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

func (p *pickerState) CursorDown() {
	if p.cursor < p.maxCursorIndex() {
		p.cursor++
	}
}

// HandleKey applies a key, named the way tea.KeyMsg.String names it. Letters
// always go to the query, so only arrows and ctrl keys move the cursor.
func (p *pickerState) HandleKey(keyName string) pickerResult {
	switch keyName {
	case "up", "ctrl+p", "shift+tab":
		before := p.cursor
		p.CursorUp()
		if p.cursor != before {
			return pickerResult{Action: pickerActionMoved}
		}
		return pickerResult{Action: pickerActionNone}
	case "down", "ctrl+n", "tab":
		before := p.cursor
		p.CursorDown()
		if p.cursor != before {
			return pickerResult{Action: pickerActionMoved}
		}
		return pickerResult{Action: pickerActionNone}
	case "enter":
		if p.cursor < len(p.filtered) {
			it := p.filtered[p.cursor]
			return pickerResult{Action: pickerActionSelected, ItemID: it.ID, ItemLabel: it.Label}
		}
		if p.shouldShowCreate() {
			return pickerResult{Action: pickerActionCreate, CreatedQuery: strings.TrimSpace(p.query)}
		}
		return pickerResult{Action: pickerActionNone}
	case "esc", "ctrl+c":
		return pickerResult{Action: pickerActionCancelled}
	case "backspace":
		if p.query != "" {
			_, size := utf8.DecodeLastRuneInString(p.query)
			p.SetQuery(p.query[:len(p.query)-size])
		}
		return pickerResult{Action: pickerActionNone}
	default:
		if isPrintableKey(keyName) {
			p.SetQuery(p.query + keyName)
		}
		return pickerResult{Action: pickerActionNone}
	}
}

func isPrintableKey(keyName string) bool {
	r, size := utf8.DecodeRuneInString(keyName)
	return size > 0 && size == len(keyName) && unicode.IsPrint(r)
}

func (p *pickerState) shouldShowCreate() bool {
	q := strings.TrimSpace(p.query)
	if p.createLabel == "" || q == "" {
		return false
	}
	for _, it := range p.filtered {
		if strings.EqualFold(it.Label, q) {
			return false
		}
	}
	return true
}

func (p *pickerState) maxCursorIndex() int {
	n := len(p.filtered) - 1
	if p.shouldShowCreate() {
		n++
	}
	return n
}

// rebuildFiltered keeps the items whose label contains the query, prefix
// matches first, and clamps the cursor.
func (p *pickerState) rebuildFiltered() {
	if p.source != nil {
		p.filtered = p.source(p.query)
	} else {
		q := strings.ToLower(strings.TrimSpace(p.query))
		type scored struct {
			item  pickerItem
			score int
		}
		var hits []scored
		for _, it := range p.items {
			label := strings.ToLower(it.Label)
			switch {
			case q == "" || strings.HasPrefix(label, q):
				hits = append(hits, scored{it, 2})
			case strings.Contains(label, q):
				hits = append(hits, scored{it, 1})
			}
		}
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
		p.filtered = make([]pickerItem, len(hits))
		for i, h := range hits {
			p.filtered[i] = h.item
		}
	}

	if maxIdx := p.maxCursorIndex(); p.cursor > maxIdx {
		p.cursor = maxIdx
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func renderPicker(p *pickerState, width int) string {
	lines := []string{titleStyle.Render(p.title)}
	query := dimStyle.Render("(type to filter)")
	if q := strings.TrimSpace(p.query); q != "" {
		query = q
	}
	lines = append(lines, metaStyle.Render("Filter: ")+query)

	for i, it := range p.filtered {
		label := it.Label
		if it.Color != "" {
			label = lipgloss.NewStyle().Foreground(lipgloss.Color(it.Color)).Render(label)
		}
		if it.Meta != "" {
			label += metaStyle.Render(" - " + it.Meta)
		}
		lines = append(lines, stylePickerRow("  "+label, i == p.cursor, width))
	}
	if p.shouldShowCreate() {
		label := pickerCreateStyle.Render(p.createLabel + ` "` + strings.TrimSpace(p.query) + `"`)
		lines = append(lines, stylePickerRow("  "+label, p.cursor == len(p.filtered), width))
	}
	if len(p.filtered) == 0 && !p.shouldShowCreate() {
		lines = append(lines, dimStyle.Render("  no matches"))
	}
	lines = append(lines, "", dimStyle.Render("up/down navigate  enter select  esc cancel"))
	return strings.Join(lines, "\n") + "\n"
}

func stylePickerRow(content string, isCursor bool, width int) string {
	if !isCursor {
		return content
	}
	return pickerCursorStyle.Render(padStyledLine(content, width))
}

func padStyledLine(s string, width int) string {
	w := lipgloss.Width(s)
	if width <= 0 || w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// pickerModel runs one picker as a bubbletea program.
type pickerModel struct {
	picker *pickerState
	result pickerResult
	width  int
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		res := m.picker.HandleKey(msg.String())
		switch res.Action {
		case pickerActionSelected, pickerActionCreate, pickerActionCancelled:
			m.result = res
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string { return renderPicker(m.picker, m.width) }

// runPicker shows p on the terminal until a row is chosen. Output goes to
// stderr so stdout stays scriptable.
func runPicker(p *pickerState) (pickerResult, error) {
	final, err := tea.NewProgram(pickerModel{picker: p}, tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return pickerResult{}, err
	}
	res := final.(pickerModel).result
	if res.Action == pickerActionCancelled {
		return res, errPickerCancelled
	}
	return res, nil
}

// vendorSource re-ranks vendor suggestions for every query. meta labels a
// suggestion with the category it would be filed under.
func vendorSource(suggest func(string, int) []string, limit int, meta func(string) string) func(string) []pickerItem {
	return func(query string) []pickerItem {
		names := suggest(query, limit)
		items := make([]pickerItem, len(names))
		for i, n := range names {
			items[i] = pickerItem{ID: n, Label: n, Meta: meta(n)}
		}
		return items
	}
}

func categoryItems(cats []model.Category) []pickerItem {
	items := make([]pickerItem, len(cats))
	for i, c := range cats {
		items[i] = pickerItem{ID: c.ID, Label: c.Name, Color: c.Color, Meta: string(c.Group)}
	}
	return items
}

// pickVendor lets the user choose a suggested vendor or keep what they typed.
func (a *app) pickVendor(query string) (string, error) {
	names := model.CategoryNames(a.engine.Categories())
	meta := func(v string) string {
		if m, ok := a.engine.CategorizeVendor(v); ok {
			return categoryName(names, m.CategoryID)
		}
		return ""
	}
	p := newSourcePicker("Vendor", query, vendorSource(a.engine.SuggestVendors, 8, meta), "Use")
	res, err := runPicker(p)
	if err != nil {
		return "", err
	}
	if res.Action == pickerActionCreate {
		return res.CreatedQuery, nil
	}
	return res.ItemLabel, nil
}

// pickCategory lets the user choose a category, starting on the one the
// vendor rules pick for vendorText.
func (a *app) pickCategory(vendorText string) (string, error) {
	p := newPicker("Category", categoryItems(a.engine.Categories()), "")
	if m, ok := a.engine.CategorizeVendor(vendorText); ok {
		p.Focus(m.CategoryID)
	}
	res, err := runPicker(p)
	if err != nil {
		return "", err
	}
	return res.ItemID, nil
}
