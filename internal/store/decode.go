package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/hydrate/internal/intake"
)

// rawDocument mirrors intake.Document with optional fields so that absent
// keys can be told apart from zero values.
type rawDocument struct {
	Records       []intake.Record       `json:"records"`
	Settings      *intake.SettingsPatch `json:"settings"`
	LastSyncError *string               `json:"lastSyncError"`
}

// decodeDocument parses data and merges it onto intake.DefaultDocument().
func decodeDocument(data []byte) (intake.Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return intake.Document{}, fmt.Errorf("decode document: %w", err)
	}

	doc := intake.DefaultDocument()
	if raw.Records != nil {
		doc.Records = raw.Records
	}
	if raw.Settings != nil {
		doc.Settings = raw.Settings.Apply(doc.Settings)
	}
	if raw.LastSyncError != nil {
		doc.LastSyncError = *raw.LastSyncError
	}
	return doc, nil
}

// decodeSettings parses a settings object and merges it onto defaults.
func decodeSettings(data []byte) (intake.Settings, error) {
	var patch intake.SettingsPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		return intake.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return patch.Apply(intake.DefaultSettings()), nil
}
