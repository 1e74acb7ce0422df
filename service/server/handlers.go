package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xnetlabs/burnwatch/service/config"
	"github.com/xnetlabs/burnwatch/service/db"
	"github.com/xnetlabs/burnwatch/service/temporal"
)

const (
	defaultPageLimit    = 50
	defaultHistoryLimit = 100
	maxLimit            = 1000
	maxSignatureLength  = 100 // base58 signatures are 87-88 chars, give buffer
)

// Valid base58 characters (no 0, O, I, l).
var validSignatureRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)

// burnEventResponse is the API representation of a burn event.
type burnEventResponse struct {
	Signature       string    `json:"signature"`
	Timestamp       time.Time `json:"timestamp"`
	Action          string    `json:"action"`
	FromAddress     *string   `json:"from_address"`
	ToAddress       *string   `json:"to_address"`
	Amount          string    `json:"amount"`
	AmountFormatted string    `json:"amount_formatted"`
	Token           string    `json:"token"`
	ScrapeTime      time.Time `json:"scrape_time"`
}

// runLogResponse is the API representation of a run audit record.
type runLogResponse struct {
	ID              int64     `json:"id"`
	TotalChecked    int       `json:"total_checked"`
	NewBurns        int       `json:"new_burns"`
	Success         bool      `json:"success"`
	ErrorText       *string   `json:"error_text,omitempty"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// listBurnsResponse is the paginated burn list payload.
type listBurnsResponse struct {
	Count      int                  `json:"count"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int64                `json:"total_pages"`
	Data       []*burnEventResponse `json:"data"`
}

// historyResponse is the time-ranged burn list payload.
type historyResponse struct {
	Count int                  `json:"count"`
	Data  []*burnEventResponse `json:"data"`
}

func burnEventToResponse(event *db.BurnEvent, decimals int) *burnEventResponse {
	return &burnEventResponse{
		Signature:       event.Signature,
		Timestamp:       event.Timestamp,
		Action:          event.Action,
		FromAddress:     event.FromAddress,
		ToAddress:       event.ToAddress,
		Amount:          event.Amount,
		AmountFormatted: formatAmount(event.Amount, decimals),
		Token:           event.Token,
		ScrapeTime:      event.ScrapeTime,
	}
}

func burnEventsToResponse(events []*db.BurnEvent, decimals int) []*burnEventResponse {
	resp := make([]*burnEventResponse, len(events))
	for i, event := range events {
		resp[i] = burnEventToResponse(event, decimals)
	}
	return resp
}

// handleListBurns returns a handler serving the paginated burn event list,
// newest first.
// GET /api/v1/burns?page={page}&limit={limit}
func handleListBurns(store *db.Store, decimals int, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, limit, err := parsePageParams(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		total, err := store.CountBurnEvents(r.Context())
		if err != nil {
			logger.Error("failed to count burn events", "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		events, err := store.ListBurnEvents(r.Context(), db.ListBurnEventsParams{
			Limit:  int32(limit),
			Offset: int32((page - 1) * limit),
		})
		if err != nil {
			logger.Error("failed to list burn events", "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		data := burnEventsToResponse(events, decimals)
		writeJSON(w, listBurnsResponse{
			Count:      len(data),
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + int64(limit) - 1) / int64(limit),
			Data:       data,
		}, http.StatusOK)
	})
}

// handleGetLatestBurn returns a handler serving the most recent burn event.
// GET /api/v1/burns/latest
func handleGetLatestBurn(store *db.Store, decimals int, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		event, err := store.GetLatestBurnEvent(r.Context())
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				writeError(w, "no burn events found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get latest burn event", "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, burnEventToResponse(event, decimals), http.StatusOK)
	})
}

// handleBurnHistory returns a handler serving burns inside a date range,
// newest first. The end date is inclusive: the filter extends to the end of
// that day.
// GET /api/v1/burns/history?limit={limit}&start={YYYY-MM-DD}&end={YYYY-MM-DD}
func handleBurnHistory(store *db.Store, decimals int, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r.URL.Query().Get("limit"), defaultHistoryLimit)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		start, end, err := parseDateRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		events, err := store.ListBurnEventsByTimeRange(r.Context(), db.ListBurnEventsByTimeRangeParams{
			StartTime: start,
			EndTime:   end,
			Limit:     int32(limit),
		})
		if err != nil {
			logger.Error("failed to list burn events by time range", "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		data := burnEventsToResponse(events, decimals)
		writeJSON(w, historyResponse{
			Count: len(data),
			Data:  data,
		}, http.StatusOK)
	})
}

// handleGetBurn returns a handler serving a single burn event by signature.
// GET /api/v1/burns/{signature}
func handleGetBurn(store *db.Store, decimals int, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature := r.PathValue("signature")
		if err := validateSignature(signature); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		event, err := store.GetBurnEvent(r.Context(), signature)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				writeError(w, "burn event not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get burn event", "signature", signature, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, burnEventToResponse(event, decimals), http.StatusOK)
	})
}

// handleListRuns returns a handler serving recent run audit records, newest
// first.
// GET /api/v1/runs?limit={limit}
func handleListRuns(store *db.Store, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r.URL.Query().Get("limit"), defaultPageLimit)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		runs, err := store.ListRunLogs(r.Context(), int32(limit))
		if err != nil {
			logger.Error("failed to list run logs", "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		resp := make([]*runLogResponse, len(runs))
		for i, run := range runs {
			resp[i] = &runLogResponse{
				ID:              run.ID,
				TotalChecked:    run.TotalChecked,
				NewBurns:        run.NewBurns,
				Success:         run.Success,
				ErrorText:       run.ErrorText,
				ExecutionTimeMs: run.ExecutionTimeMs,
				CreatedAt:       run.CreatedAt,
			}
		}

		writeJSON(w, map[string]interface{}{
			"count": len(resp),
			"data":  resp,
		}, http.StatusOK)
	})
}

// handleTriggerRun returns a handler that requests an immediate tracking run
// through the schedule, outside the regular interval.
// POST /api/v1/schedule/trigger
func handleTriggerRun(scheduler temporal.Scheduler, cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := scheduler.TriggerTrackRun(r.Context(), cfg.TokenSymbol); err != nil {
			logger.Error("failed to trigger tracking run", "token", cfg.TokenSymbol, "error", err)
			writeError(w, "failed to trigger tracking run", http.StatusInternalServerError)
			return
		}

		logger.Info("tracking run triggered", "token", cfg.TokenSymbol)
		writeJSON(w, map[string]string{"status": "triggered"}, http.StatusAccepted)
	})
}

// parsePageParams parses and validates page/limit query parameters.
func parsePageParams(pageStr, limitStr string) (page, limit int, err error) {
	page = 1
	if pageStr != "" {
		page, err = strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return 0, 0, fmt.Errorf("invalid page parameter: must be >= 1")
		}
	}

	limit, err = parseLimit(limitStr, defaultPageLimit)
	if err != nil {
		return 0, 0, err
	}

	return page, limit, nil
}

// parseLimit parses and validates a limit query parameter.
func parseLimit(limitStr string, defaultLimit int) (int, error) {
	if limitStr == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, fmt.Errorf("invalid limit parameter: must be between 1 and %d", maxLimit)
	}
	return limit, nil
}

// parseDateRange parses optional start/end date filters in YYYY-MM-DD form.
// A missing start means the beginning of time; a missing end means now. The
// end bound is advanced by one day so the whole end date is included.
func parseDateRange(startStr, endStr string) (start, end time.Time, err error) {
	end = time.Now().UTC().Add(time.Second)

	if startStr != "" {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date format: use YYYY-MM-DD")
		}
	}

	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date format: use YYYY-MM-DD")
		}
		end = end.AddDate(0, 0, 1)
	}

	return start, end, nil
}

// validateSignature validates a transaction signature path parameter.
func validateSignature(signature string) error {
	if signature == "" {
		return fmt.Errorf("signature is required")
	}
	if len(signature) > maxSignatureLength {
		return fmt.Errorf("signature too long: maximum length is %d characters", maxSignatureLength)
	}
	if !validSignatureRegex.MatchString(signature) {
		return fmt.Errorf("invalid signature: must be base58")
	}
	return nil
}

// formatAmount renders a base-unit amount as a human readable token amount,
// grouping the whole part with commas and trimming trailing fractional zeros.
func formatAmount(raw string, decimals int) string {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return "0"
	}

	scale := uint64(1)
	for i := 0; i < decimals; i++ {
		scale *= 10
	}

	whole := v / scale
	frac := v % scale

	out := groupThousands(strconv.FormatUint(whole, 10))
	if frac > 0 {
		fracStr := fmt.Sprintf("%0*d", decimals, frac)
		fracStr = strings.TrimRight(fracStr, "0")
		out += "." + fracStr
	}
	return out
}

// groupThousands inserts commas into a decimal digit string.
func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
