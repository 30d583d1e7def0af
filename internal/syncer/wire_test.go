package syncer

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hydrate/internal/intake"
)

func goldenFor(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestEncodeUpsert_Golden(t *testing.T) {
	rec := intake.Record{
		ID:         "rec-1",
		AmountMl:   300,
		OccurredAt: time.Date(2026, 3, 4, 9, 5, 7, 999_000_000, time.UTC),
	}

	body, err := EncodeUpsert("test-key", "alice", rec, time.UTC)
	require.NoError(t, err)

	goldenFor(t).Assert(t, "upsert_body", body)
}

func TestEncodeUpsert_NoHTMLEscaping(t *testing.T) {
	rec := intake.Record{
		ID:         "rec-1",
		AmountMl:   250,
		OccurredAt: time.Date(2026, 3, 4, 9, 5, 7, 0, time.UTC),
	}

	body, err := EncodeUpsert("test-key", "a<b>&c", rec, time.UTC)
	require.NoError(t, err)

	goldenFor(t).Assert(t, "upsert_body_unescaped", body)
}

func TestEncodeUpsert_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	rec := intake.Record{
		ID:         "rec-1",
		AmountMl:   300,
		OccurredAt: time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC),
	}

	body, err := EncodeUpsert("k", "alice", rec, loc)
	require.NoError(t, err)
	require.Contains(t, string(body), `"drink_time":"2026-03-05 04:00:00"`)
	require.Contains(t, string(body), `"userid_drinktime":"alice_2026-03-05 04:00:00"`)
}
