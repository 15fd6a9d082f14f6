package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"validprompt/internal/logging"
	"validprompt/internal/middleware"
	"validprompt/internal/ratelimit"
	"validprompt/internal/utils"
)

const maxGenerateBodyBytes = 64 << 10

type generateRequest struct {
	Input string `json:"input"`
}

type generateResponse struct {
	Result string `json:"result"`
}

// handleGenerate expands a short user idea into a prompt.
//
// Flow:
//  1. Method check (origin and preflight are handled by OriginGuard)
//  2. Decode and validate body
//  3. Consume one unit of the client's daily quota
//  4. Call the generator
//  5. Respond and enqueue the audit record
//
// Quota is consumed before the upstream call and is not refunded when
// the call fails.
func (d *Dependencies) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()
	start := time.Now()
	now := d.now()

	ip, ok := middleware.GetClientIP(ctx)
	if !ok {
		ip = middleware.ClientIP(r)
	}

	rec := &logging.GenerationRecord{
		Timestamp: now.UTC(),
		RequestID: newRequestID(),
		ClientIP:  ip,
		Day:       ratelimit.Day(now),
	}
	defer func() {
		rec.GatewayMs = time.Since(start).Milliseconds()
		if err := d.Logger.Enqueue(rec); err != nil {
			logging.Warningf("request %s: audit record dropped: %v", rec.RequestID, err)
		}
	}()

	var req generateRequest
	if err := utils.DecodeJSONBody(w, r, maxGenerateBodyBytes, &req); err != nil || strings.TrimSpace(req.Input) == "" {
		d.fail(w, rec, &ValidationError{Message: "Input required"})
		return
	}
	rec.InputChars = utf8.RuneCountInString(req.Input)

	decision, err := d.Ledger.TryConsume(ctx, rec.ClientIP, rec.Day, d.DailyLimit)
	if err != nil {
		d.fail(w, rec, &InternalError{Err: err})
		return
	}
	rec.UsageCount = decision.Count
	if !decision.Allowed {
		d.fail(w, rec, &QuotaExceededError{Limit: d.DailyLimit})
		return
	}

	completion, err := d.Generator.Generate(ctx, req.Input)
	if err != nil {
		d.fail(w, rec, err)
		return
	}

	rec.Model = completion.Model
	rec.InputTokens = completion.InputTokens
	rec.OutputTokens = completion.OutputTokens
	rec.UpstreamMs = completion.ProviderLatency.Milliseconds()
	rec.StatusCode = http.StatusOK

	logging.Debugf("request %s: generated for %s (%d/%d today)", rec.RequestID, rec.ClientIP, rec.UsageCount, d.DailyLimit)
	utils.RespondWithJSON(w, http.StatusOK, generateResponse{Result: completion.Text})
}

// fail writes the error response and records the outcome on rec.
func (d *Dependencies) fail(w http.ResponseWriter, rec *logging.GenerationRecord, err error) {
	status := writeError(w, err)
	rec.StatusCode = status
	rec.Error = err.Error()
	if rec.Model == "" {
		rec.Model = d.Model
	}

	var quotaErr *QuotaExceededError
	var validationErr *ValidationError
	switch {
	case errors.As(err, &quotaErr), errors.As(err, &validationErr):
		logging.Debugf("request %s: %d %v", rec.RequestID, status, err)
	default:
		logging.Errorf("request %s: %v", rec.RequestID, err)
	}
}

// newRequestID returns a UUID request ID for tracing
func newRequestID() string {
	return uuid.New().String()
}
