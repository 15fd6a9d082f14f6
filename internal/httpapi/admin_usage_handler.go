package httpapi

import (
	"net/http"
	"strings"

	"validprompt/internal/logging"
	"validprompt/internal/middleware"
	"validprompt/internal/models"
	"validprompt/internal/ratelimit"
	"validprompt/internal/utils"
)

type usageEntry struct {
	IP        string `json:"ip"`
	Count     int    `json:"count"`
	Remaining int    `json:"remaining"`
}

type usageResponse struct {
	Date    string       `json:"date"`
	Limit   int          `json:"limit"`
	Records []usageEntry `json:"records"`
}

// handleAdminUsage serves GET /admin/usage?date=YYYY-MM-DD[&ip=...].
func (d *Dependencies) handleAdminUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()
	query := r.URL.Query()

	day := ratelimit.Day(d.now())
	if raw := strings.TrimSpace(query.Get("date")); raw != "" {
		parsed, err := ratelimit.ParseDay(raw)
		if err != nil {
			writeError(w, &ValidationError{Message: "Invalid date, expected YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	var records []models.UsageRecord
	if ip := strings.TrimSpace(query.Get("ip")); ip != "" {
		count, err := d.Ledger.Usage(ctx, ip, day)
		if err != nil {
			logging.Errorf("Failed to read usage for %s on %s: %v", ip, day, err)
			writeError(w, &InternalError{Err: err})
			return
		}
		records = []models.UsageRecord{{IP: ip, Date: day, Count: count}}
	} else {
		list, err := d.Ledger.List(ctx, day)
		if err != nil {
			logging.Errorf("Failed to list usage for %s: %v", day, err)
			writeError(w, &InternalError{Err: err})
			return
		}
		records = list
	}

	if sub, ok := middleware.GetAdminSubject(ctx); ok {
		logging.Debugf("Admin %s read usage for %s", sub, day)
	}

	resp := usageResponse{
		Date:    day,
		Limit:   d.DailyLimit,
		Records: make([]usageEntry, 0, len(records)),
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, usageEntry{
			IP:        rec.IP,
			Count:     rec.Count,
			Remaining: rec.Remaining(d.DailyLimit),
		})
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}
