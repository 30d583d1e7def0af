package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines one timeline to run against the engine.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the fake clock's initial instant (RFC 3339). All step offsets
	// are relative to it. Local dates are computed in UTC.
	Start string `yaml:"start"`

	// Settings are applied before the first step.
	Settings *SettingsStep `yaml:"settings,omitempty"`

	// Collector configures the in-process collector.
	Collector CollectorConfig `yaml:"collector,omitempty"`

	// Steps run in order. Offsets must not decrease.
	Steps []Step `yaml:"steps"`

	// Assertions validate the run as a whole.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// CollectorConfig scripts the collector's answers.
type CollectorConfig struct {
	// FailRequests lists 1-based request numbers answered with FailStatus.
	FailRequests []int `yaml:"fail_requests,omitempty"`

	// FailStatus is the status for failed requests. Default: 503.
	FailStatus int `yaml:"fail_status,omitempty"`
}

// Step is one action on the timeline.
type Step struct {
	// At is the offset from Start, as a Go duration ("0s", "3h1m").
	At string `yaml:"at"`

	// Do names the action. See the Action constants.
	Do string `yaml:"do"`

	// Settings is the patch for set_settings steps.
	Settings *SettingsStep `yaml:"settings,omitempty"`

	// Expect checks the step's outcome.
	Expect *Expect `yaml:"expect,omitempty"`

	offset time.Duration
}

// Step actions.
const (
	ActionDrink         = "drink"
	ActionCheckReminder = "check_reminder"
	ActionSync          = "sync"
	ActionStatus        = "status"
	ActionSetSettings   = "set_settings"
	ActionReset         = "reset"
)

var validActions = map[string]bool{
	ActionDrink:         true,
	ActionCheckReminder: true,
	ActionSync:          true,
	ActionStatus:        true,
	ActionSetSettings:   true,
	ActionReset:         true,
}

// SettingsStep is a settings patch in scenario form.
type SettingsStep struct {
	UserID          *string  `yaml:"user_id,omitempty"`
	Environment     *string  `yaml:"environment,omitempty"`
	ReminderEnabled *bool    `yaml:"reminder_enabled,omitempty"`
	IntervalHours   *float64 `yaml:"interval_hours,omitempty"`
	ReminderContent *string  `yaml:"reminder_content,omitempty"`
}

// Expect is a subset match on a step's outcome. Nil fields are not checked.
type Expect struct {
	// Fired is checked by check_reminder.
	Fired *bool `yaml:"fired,omitempty"`

	// Error is the sync error code ("" for success), checked by sync.
	Error *string `yaml:"error,omitempty"`

	// Status fields, checked by status.
	TodayTotalMl  *int    `yaml:"today_total_ml,omitempty"`
	PendingCount  *int    `yaml:"pending,omitempty"`
	RecordCount   *int    `yaml:"records,omitempty"`
	LastSyncError *string `yaml:"last_sync_error,omitempty"`
}

// Assertion validates the whole run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "notification_count": exactly Count notifications were shown
	// - "request_count": exactly Count upserts reached the collector
	// - "record_synced": record Record has synced == Synced
	Type string `yaml:"type"`

	Count  int    `yaml:"count,omitempty"`
	Record string `yaml:"record,omitempty"`
	Synced bool   `yaml:"synced,omitempty"`
}

// Assertion type constants.
const (
	AssertNotificationCount = "notification_count"
	AssertRequestCount      = "request_count"
	AssertRecordSynced      = "record_synced"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// startTime parses Start.
func (s *Scenario) startTime() (time.Time, error) {
	return time.Parse(time.RFC3339, s.Start)
}

// validateScenario checks that required fields are present and valid,
// and resolves step offsets.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := s.startTime(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	var prev time.Duration
	for i := range s.Steps {
		step := &s.Steps[i]
		if !validActions[step.Do] {
			return fmt.Errorf("step %d: unknown action %q", i, step.Do)
		}
		d, err := time.ParseDuration(step.At)
		if err != nil {
			return fmt.Errorf("step %d: at: %w", i, err)
		}
		if d < prev {
			return fmt.Errorf("step %d: offset %s is before previous step %s", i, d, prev)
		}
		if step.Do == ActionSetSettings && step.Settings == nil {
			return fmt.Errorf("step %d: set_settings requires settings", i)
		}
		step.offset = d
		prev = d
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertNotificationCount, AssertRequestCount:
		case AssertRecordSynced:
			if a.Record == "" {
				return fmt.Errorf("assertion %d: record is required", i)
			}
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}
	return nil
}
