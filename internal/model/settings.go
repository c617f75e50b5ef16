package model

// DefaultCurrency is used until the user picks one.
const DefaultCurrency = "USD"

// Settings is the process-wide preferences record.
type Settings struct {
	NotificationsEnabled  bool     `json:"notificationsEnabled"`
	DailyReminder         bool     `json:"dailyReminder"`
	BudgetAlerts          bool     `json:"budgetAlerts"`
	CalendarSyncEnabled   bool     `json:"calendarSyncEnabled"`
	CalendarAutoSync      bool     `json:"calendarAutoSync"`
	DefaultCategoryFilter []string `json:"defaultCategoryFilter,omitempty"`
	Currency              string   `json:"currency"`
	LastSyncAt            int64    `json:"lastSyncAt,omitempty"`
	LastSyncError         string   `json:"lastSyncError,omitempty"`
	LastCalendarSyncAt    int64    `json:"lastCalendarSyncAt,omitempty"`
	LastCalendarSyncError string   `json:"lastCalendarSyncError,omitempty"`
	SuppressDemoData      bool     `json:"suppressDemoData"`
	UpdatedAt             int64    `json:"updatedAt,omitempty"`
}

// DefaultSettings is the record created on first run.
func DefaultSettings() Settings {
	return Settings{
		NotificationsEnabled: true,
		BudgetAlerts:         true,
		Currency:             DefaultCurrency,
	}
}

// SettingsPatch is a partial update; nil fields are left alone.
type SettingsPatch struct {
	NotificationsEnabled  *bool
	DailyReminder         *bool
	BudgetAlerts          *bool
	CalendarSyncEnabled   *bool
	CalendarAutoSync      *bool
	DefaultCategoryFilter *[]string
	Currency              *string
	SuppressDemoData      *bool
}

// Apply merges p into s and reports whether anything changed.
func (p SettingsPatch) Apply(s *Settings) bool {
	changed := false
	setBool := func(dst *bool, v *bool) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}
	setBool(&s.NotificationsEnabled, p.NotificationsEnabled)
	setBool(&s.DailyReminder, p.DailyReminder)
	setBool(&s.BudgetAlerts, p.BudgetAlerts)
	setBool(&s.CalendarSyncEnabled, p.CalendarSyncEnabled)
	setBool(&s.CalendarAutoSync, p.CalendarAutoSync)
	setBool(&s.SuppressDemoData, p.SuppressDemoData)
	if p.Currency != nil && *p.Currency != s.Currency {
		s.Currency = *p.Currency
		changed = true
	}
	if p.DefaultCategoryFilter != nil && !equalStrings(*p.DefaultCategoryFilter, s.DefaultCategoryFilter) {
		s.DefaultCategoryFilter = append([]string(nil), *p.DefaultCategoryFilter...)
		changed = true
	}
	return changed
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
