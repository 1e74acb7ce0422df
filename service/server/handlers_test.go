package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnetlabs/burnwatch/service/config"
	"github.com/xnetlabs/burnwatch/service/db"
	"github.com/xnetlabs/burnwatch/service/temporal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestStore(t *testing.T) *db.TestStore {
	t.Helper()
	db.SkipIfNoTestDB(t)
	ts := db.NewTestStore(t)
	ts.Cleanup(t)
	t.Cleanup(func() {
		ts.Cleanup(t)
		ts.Close()
	})
	return ts
}

func insertTestBurn(t *testing.T, ts *db.TestStore, signature string, timestamp time.Time, amount string) {
	t.Helper()
	owner := "B9SXrTyCZzrdEbwe25n2TPRpiU5C8sPu9QpngRSk8Nta"
	_, err := ts.InsertBurnEvent(context.Background(), db.InsertBurnEventParams{
		Signature:   signature,
		Timestamp:   timestamp,
		Action:      "Burn",
		FromAddress: &owner,
		Amount:      amount,
		Token:       "XNET",
		ScrapeTime:  time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		raw      string
		decimals int
		want     string
	}{
		{"0", 9, "0"},
		{"", 9, "0"},
		{"not-a-number", 9, "0"},
		{"1000000000", 9, "1"},
		{"1500000000", 9, "1.5"},
		{"123456789", 9, "0.123456789"},
		{"1234567890123456789", 9, "1,234,567,890.123456789"},
		{"5000000000000", 9, "5,000"},
		{"42", 0, "42"},
		{"1234", 0, "1,234"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAmount(tt.raw, tt.decimals))
		})
	}
}

func TestParsePageParams(t *testing.T) {
	page, limit, err := parsePageParams("", "")
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, defaultPageLimit, limit)

	page, limit, err = parsePageParams("3", "25")
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, limit)

	_, _, err = parsePageParams("0", "")
	assert.Error(t, err)

	_, _, err = parsePageParams("abc", "")
	assert.Error(t, err)

	_, _, err = parsePageParams("1", "1001")
	assert.Error(t, err)
}

func TestParseDateRange(t *testing.T) {
	start, end, err := parseDateRange("2024-06-01", "2024-06-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), start)
	// End date is inclusive: the bound extends past the whole day.
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, err = parseDateRange("06/01/2024", "")
	assert.Error(t, err)

	_, _, err = parseDateRange("", "yesterday")
	assert.Error(t, err)

	start, end, err = parseDateRange("", "")
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.False(t, end.IsZero())
}

func TestValidateSignature(t *testing.T) {
	assert.NoError(t, validateSignature("5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7"))
	assert.Error(t, validateSignature(""))
	assert.Error(t, validateSignature("contains spaces"))
	assert.Error(t, validateSignature("0OIl"))
	assert.Error(t, validateSignature("sig'; DROP TABLE burn_events;--"))
}

func TestListBurnsHandler(t *testing.T) {
	ts := setupTestStore(t)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertTestBurn(t, ts, signatureFixture(i), base.Add(time.Duration(i)*time.Hour), "1000000000")
	}

	handler := handleListBurns(ts.Store, 9, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/burns?page=1&limit=2", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp listBurnsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, int64(5), resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, int64(3), resp.TotalPages)
	require.Len(t, resp.Data, 2)
	// Newest first.
	assert.Equal(t, signatureFixture(4), resp.Data[0].Signature)
	assert.Equal(t, signatureFixture(3), resp.Data[1].Signature)
	assert.Equal(t, "1", resp.Data[0].AmountFormatted)
}

func TestListBurnsHandlerBadParams(t *testing.T) {
	ts := setupTestStore(t)
	handler := handleListBurns(ts.Store, 9, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/burns?page=-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLatestBurnHandler(t *testing.T) {
	ts := setupTestStore(t)

	handler := handleGetLatestBurn(ts.Store, 9, testLogger())

	// Empty table yields 404.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/burns/latest", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	insertTestBurn(t, ts, signatureFixture(0), base, "1000000000")
	insertTestBurn(t, ts, signatureFixture(1), base.Add(time.Hour), "2500000000")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/burns/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp burnEventResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, signatureFixture(1), resp.Signature)
	assert.Equal(t, "2.5", resp.AmountFormatted)
}

func TestBurnHistoryHandler(t *testing.T) {
	ts := setupTestStore(t)

	insertTestBurn(t, ts, signatureFixture(0), time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC), "1000000000")
	insertTestBurn(t, ts, signatureFixture(1), time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC), "1000000000")
	insertTestBurn(t, ts, signatureFixture(2), time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC), "1000000000")
	insertTestBurn(t, ts, signatureFixture(3), time.Date(2024, 7, 1, 1, 0, 0, 0, time.UTC), "1000000000")

	handler := handleBurnHistory(ts.Store, 9, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/burns/history?start=2024-06-01&end=2024-06-30", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp historyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	// The late June 30 event is inside the range; July 1 is not.
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, signatureFixture(2), resp.Data[0].Signature)
	assert.Equal(t, signatureFixture(1), resp.Data[1].Signature)
}

func TestBurnHistoryHandlerBadDates(t *testing.T) {
	ts := setupTestStore(t)
	handler := handleBurnHistory(ts.Store, 9, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/burns/history?start=junk", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBurnHandler(t *testing.T) {
	ts := setupTestStore(t)

	sig := signatureFixture(0)
	insertTestBurn(t, ts, sig, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "1000000000")

	handler := handleGetBurn(ts.Store, 9, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/burns/"+sig, nil)
	req.SetPathValue("signature", sig)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp burnEventResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, sig, resp.Signature)

	// Unknown signature yields 404.
	missing := signatureFixture(9)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/burns/"+missing, nil)
	req.SetPathValue("signature", missing)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed signature yields 400 before touching the store.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/burns/bad", nil)
	req.SetPathValue("signature", "not base58!!")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRunsHandler(t *testing.T) {
	ts := setupTestStore(t)

	errText := "listing failed"
	_, err := ts.InsertRunLog(context.Background(), db.InsertRunLogParams{
		TotalChecked: 100, NewBurns: 2, Success: true, ExecutionTimeMs: 1500,
	})
	require.NoError(t, err)
	_, err = ts.InsertRunLog(context.Background(), db.InsertRunLogParams{
		Success: false, ErrorText: &errText, ExecutionTimeMs: 300,
	})
	require.NoError(t, err)

	handler := handleListRuns(ts.Store, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int               `json:"count"`
		Data  []*runLogResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 2, resp.Count)
	// Newest first: the failed run was inserted last.
	assert.False(t, resp.Data[0].Success)
	require.NotNil(t, resp.Data[0].ErrorText)
	assert.Equal(t, "listing failed", *resp.Data[0].ErrorText)
	assert.True(t, resp.Data[1].Success)
	assert.Equal(t, 100, resp.Data[1].TotalChecked)
}

func TestTriggerRunHandler(t *testing.T) {
	scheduler := temporal.NewMockScheduler()
	cfg := &config.Config{TokenSymbol: "XNET", TrackInterval: 5 * time.Minute}
	require.NoError(t, scheduler.CreateTrackSchedule(context.Background(), "wallet", "XNET", cfg.TrackInterval))

	handler := handleTriggerRun(scheduler, cfg, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule/trigger", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, scheduler.TriggerCount("XNET"))
}

func TestCORSMiddleware(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/burns", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/burns", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// signatureFixture returns a distinct valid-looking base58 signature per index.
func signatureFixture(i int) string {
	base := "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia"
	suffixes := "123456789ABCDEFGHJKLMN"
	return base + string(suffixes[i%len(suffixes)])
}
