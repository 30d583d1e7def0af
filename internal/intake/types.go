package intake

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Environment selects which remote collector receives synced records.
type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

// Valid reports whether e is one of the known environments.
func (e Environment) Valid() bool {
	return e == EnvDev || e == EnvProd
}

const (
	// DefaultAmountMl is the amount recorded by a single drink action.
	DefaultAmountMl = 300

	// DefaultReminderInterval is the reminder interval used when settings
	// carry no usable value.
	DefaultReminderInterval = 2 * time.Hour
)

// Record is one logged intake event.
type Record struct {
	ID         string    `json:"id"`
	AmountMl   int       `json:"amountMl"`
	OccurredAt time.Time `json:"occurredAt"`
	CreatedAt  time.Time `json:"createdAt"`
	Synced     bool      `json:"synced"`
}

// Settings holds the user-editable preferences.
//
// Environment is the stored preference. The value actually used at runtime
// is computed by EffectiveEnvironment and never written back.
type Settings struct {
	UserID             string      `json:"userId"`
	Environment        Environment `json:"environment"`
	ReminderEnabled    bool        `json:"reminderEnabled"`
	ReminderIntervalMs int64       `json:"reminderIntervalMs"`
	ReminderContent    string      `json:"reminderContent"`
	MinimizeToTray     bool        `json:"minimizeToTray"`
	AutoLaunch         bool        `json:"autoLaunch"`
}

// ReminderInterval returns the reminder interval as a duration.
func (s Settings) ReminderInterval() time.Duration {
	return time.Duration(s.ReminderIntervalMs) * time.Millisecond
}

// Document is the persisted state of one installation.
type Document struct {
	Records       []Record `json:"records"`
	Settings      Settings `json:"settings"`
	LastSyncError string   `json:"lastSyncError"`
}

// Clone returns a deep copy of d. Records are copied so the clone can be
// handed to persistence without sharing the backing array.
func (d Document) Clone() Document {
	out := d
	out.Records = make([]Record, len(d.Records))
	copy(out.Records, d.Records)
	return out
}

// DefaultSettings returns the settings of a fresh installation.
func DefaultSettings() Settings {
	return Settings{
		UserID:             "",
		Environment:        EnvDev,
		ReminderEnabled:    true,
		ReminderIntervalMs: DefaultReminderInterval.Milliseconds(),
		ReminderContent:    "",
		MinimizeToTray:     true,
		AutoLaunch:         false,
	}
}

// DefaultDocument returns an empty document with default settings.
func DefaultDocument() Document {
	return Document{
		Records:  []Record{},
		Settings: DefaultSettings(),
	}
}

// SettingsPatch carries optional settings fields. Nil fields are left
// untouched by Apply; it is also the shape a persisted settings object is
// decoded into before defaulting.
type SettingsPatch struct {
	UserID             *string      `json:"userId,omitempty"`
	Environment        *Environment `json:"environment,omitempty"`
	ReminderEnabled    *bool        `json:"reminderEnabled,omitempty"`
	ReminderIntervalMs *int64       `json:"reminderIntervalMs,omitempty"`
	ReminderContent    *string      `json:"reminderContent,omitempty"`
	MinimizeToTray     *bool        `json:"minimizeToTray,omitempty"`
	AutoLaunch         *bool        `json:"autoLaunch,omitempty"`
}

// Apply overlays the non-nil fields of p onto base and normalizes the result.
//
// Field rules:
//   - userId: trimmed and NFC-normalized
//   - environment: values other than dev/prod keep the base value
//   - reminderIntervalMs: non-positive values keep the base value
//   - reminderContent: trimmed
//   - booleans: copied as given
func (p SettingsPatch) Apply(base Settings) Settings {
	out := base
	if p.UserID != nil {
		out.UserID = *p.UserID
	}
	if p.Environment != nil && p.Environment.Valid() {
		out.Environment = *p.Environment
	}
	if p.ReminderEnabled != nil {
		out.ReminderEnabled = *p.ReminderEnabled
	}
	if p.ReminderIntervalMs != nil && *p.ReminderIntervalMs > 0 {
		out.ReminderIntervalMs = *p.ReminderIntervalMs
	}
	if p.ReminderContent != nil {
		out.ReminderContent = *p.ReminderContent
	}
	if p.MinimizeToTray != nil {
		out.MinimizeToTray = *p.MinimizeToTray
	}
	if p.AutoLaunch != nil {
		out.AutoLaunch = *p.AutoLaunch
	}
	return NormalizeSettings(out)
}

// NormalizeSettings coerces every field of s into its valid range, falling
// back to the DefaultSettings value where a field is unusable.
func NormalizeSettings(s Settings) Settings {
	def := DefaultSettings()
	s.UserID = NormalizeUserID(s.UserID)
	if !s.Environment.Valid() {
		s.Environment = def.Environment
	}
	if s.ReminderIntervalMs <= 0 {
		s.ReminderIntervalMs = def.ReminderIntervalMs
	}
	s.ReminderContent = strings.TrimSpace(s.ReminderContent)
	return s
}

// NormalizeUserID trims whitespace and applies Unicode NFC so that the same
// visible identifier always produces the same idempotency key.
func NormalizeUserID(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}

// EffectiveEnvironment returns the environment used at runtime. Packaged
// builds always talk to prod regardless of the stored preference.
func EffectiveEnvironment(stored Environment, packaged bool) Environment {
	if packaged {
		return EnvProd
	}
	if !stored.Valid() {
		return EnvDev
	}
	return stored
}
