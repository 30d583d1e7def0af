package syncer

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/roach88/hydrate/internal/intake"
)

// UpsertPath is the collector endpoint, relative to the base URL.
const UpsertPath = "/api/ReportRecordProject/receive_report_db"

// IndexField names the document field the collector deduplicates on.
const IndexField = "userid_drinktime"

// upsertRequest is the request body. Field order is part of the wire format.
type upsertRequest struct {
	AppKey     string      `json:"app_key"`
	IndexField string      `json:"index_field"`
	Docs       []upsertDoc `json:"docs"`
}

type upsertDoc struct {
	UserIDDrinkTime string `json:"userid_drinktime"`
	UserID          string `json:"user_id"`
	Water           int    `json:"water"`
	DrinkTime       string `json:"drink_time"`
}

// EncodeUpsert builds the request body for one record.
//
// HTML escaping is disabled so user ids containing <, > or & are sent as-is,
// and the encoder's trailing newline is stripped.
func EncodeUpsert(appKey, userID string, rec intake.Record, loc *time.Location) ([]byte, error) {
	drinkTime := intake.FormatLocalDateTime(rec.OccurredAt, loc)
	req := upsertRequest{
		AppKey:     appKey,
		IndexField: IndexField,
		Docs: []upsertDoc{{
			UserIDDrinkTime: intake.IdempotencyKey(userID, rec.OccurredAt, loc),
			UserID:          userID,
			Water:           rec.AmountMl,
			DrinkTime:       drinkTime,
		}},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
