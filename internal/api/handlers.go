package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zapponejosh/lunisolar-api/internal/config"
	"github.com/zapponejosh/lunisolar-api/internal/database"
	"github.com/zapponejosh/lunisolar-api/internal/feed"
	"github.com/zapponejosh/lunisolar-api/internal/ganzhi"
	"github.com/zapponejosh/lunisolar-api/internal/lunisolar"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	maxOffsetSeconds = 18 * 3600
	maxBodyBytes     = 1 << 20
)

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	svc      *lunisolar.Service
	db       *database.DB // nil when the event store is disabled
	cfg      *config.Config
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *lunisolar.Service, db *database.DB, cfg *config.Config, logger *slog.Logger) *Handlers {
	return &Handlers{
		svc:      svc,
		db:       db,
		cfg:      cfg,
		validate: newValidator(),
		logger:   logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.db != nil {
		if err := h.db.Health(ctx); err != nil {
			h.logger.Warn("health check failed", slog.Any("error", err))
			WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
			return
		}
	}

	WriteSuccess(w, map[string]any{
		"status":      "healthy",
		"store":       h.db != nil,
		"cachedYears": h.svc.Events.CachedYears(),
	})
}

// convertParams are the query parameters of GET /api/v1/convert.
type convertParams struct {
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time   string `json:"time" validate:"omitempty,datetime=15:04"`
	TZ     string `json:"tz" validate:"omitempty,timezone"`
	TS     string `json:"ts" validate:"omitempty,numeric"`
	Offset string `json:"offset" validate:"omitempty,numeric"`
}

// convertResponse is one conversion with the zone it was read in.
type convertResponse struct {
	lunisolar.ConversionRecord
	Timezone string `json:"timezone,omitempty"`
}

// Convert handles GET /api/v1/convert?date=&time=&tz= or ?ts=&offset=
func (h *Handlers) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := convertParams{
		Date:   q.Get("date"),
		Time:   q.Get("time"),
		TZ:     q.Get("tz"),
		TS:     q.Get("ts"),
		Offset: q.Get("offset"),
	}
	if err := h.validate.Struct(params); err != nil {
		WriteBadRequest(w, validationMessage(err))
		return
	}

	query, zone, err := h.resolveQuery(params)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	conv, err := h.svc.Convert(r.Context(), query.Instant, query.OffsetSeconds)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, convertResponse{
		ConversionRecord: conv.Record(scriptFor(q.Get("lang"), r.Header.Get("Accept-Language"))),
		Timezone:         zone,
	})
}

// resolveQuery turns validated parameters into an instant and offset. It
// also returns the zone name used, empty for an explicit offset.
func (h *Handlers) resolveQuery(p convertParams) (lunisolar.Query, string, error) {
	switch {
	case p.Date != "" && p.TS != "":
		return lunisolar.Query{}, "", fmt.Errorf("use either date or ts, not both")
	case p.Date == "" && p.TS == "":
		return lunisolar.Query{}, "", fmt.Errorf("date or ts is required")
	case p.Offset != "" && p.TZ != "":
		return lunisolar.Query{}, "", fmt.Errorf("use either tz or offset, not both")
	case p.Offset != "" && p.TS == "":
		return lunisolar.Query{}, "", fmt.Errorf("offset requires ts")
	}

	loc, zone := h.cfg.Location(), h.cfg.DefaultTimezone
	if p.TZ != "" {
		l, err := time.LoadLocation(p.TZ)
		if err != nil {
			return lunisolar.Query{}, "", fmt.Errorf("unknown timezone %q", p.TZ)
		}
		loc, zone = l, p.TZ
	}

	if p.Date != "" {
		t, err := parseLocal(p.Date, p.Time, loc)
		if err != nil {
			return lunisolar.Query{}, "", err
		}
		_, off := t.Zone()
		return lunisolar.Query{Instant: t, OffsetSeconds: off}, zone, nil
	}

	ms, err := strconv.ParseInt(p.TS, 10, 64)
	if err != nil {
		return lunisolar.Query{}, "", fmt.Errorf("ts must be integer milliseconds")
	}
	t := time.UnixMilli(ms).UTC()

	if p.Offset == "" {
		_, off := t.In(loc).Zone()
		return lunisolar.Query{Instant: t, OffsetSeconds: off}, zone, nil
	}
	off, err := strconv.Atoi(p.Offset)
	if err != nil {
		return lunisolar.Query{}, "", fmt.Errorf("offset must be integer seconds")
	}
	if err := h.validate.Var(off, fmt.Sprintf("min=%d,max=%d", -maxOffsetSeconds, maxOffsetSeconds)); err != nil {
		return lunisolar.Query{}, "", fmt.Errorf("offset must be within ±%d seconds", maxOffsetSeconds)
	}
	return lunisolar.Query{Instant: t, OffsetSeconds: off}, "", nil
}

// parseLocal reads a wall date and optional HH:MM in loc. A missing time
// means midnight.
func parseLocal(date, clock string, loc *time.Location) (time.Time, error) {
	if clock == "" {
		clock = "00:00"
	}
	t, err := time.ParseInLocation(dateLayout+" "+clockLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date or time: %s %s", date, clock)
	}
	return t, nil
}

// batchRequest is the body of POST /api/v1/convert/batch.
type batchRequest struct {
	Timezone string      `json:"timezone" validate:"omitempty,timezone"`
	Dates    []batchDate `json:"dates" validate:"required,min=1,dive"`
}

type batchDate struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"omitempty,datetime=15:04"`
}

// ConvertBatch handles POST /api/v1/convert/batch
func (h *Handlers) ConvertBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteBadRequest(w, validationMessage(err))
		return
	}
	if len(req.Dates) > h.cfg.MaxBatchSize {
		WriteBadRequest(w, fmt.Sprintf("At most %d dates per batch", h.cfg.MaxBatchSize))
		return
	}

	loc, zone := h.cfg.Location(), h.cfg.DefaultTimezone
	if req.Timezone != "" {
		l, err := time.LoadLocation(req.Timezone)
		if err != nil {
			WriteBadRequest(w, fmt.Sprintf("unknown timezone %q", req.Timezone))
			return
		}
		loc, zone = l, req.Timezone
	}

	queries := make([]lunisolar.Query, len(req.Dates))
	for i, d := range req.Dates {
		t, err := parseLocal(d.Date, d.Time, loc)
		if err != nil {
			WriteBadRequest(w, fmt.Sprintf("dates[%d]: %v", i, err))
			return
		}
		_, off := t.Zone()
		queries[i] = lunisolar.Query{Instant: t, OffsetSeconds: off}
	}

	convs, err := h.svc.ConvertBatch(r.Context(), queries)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	script := scriptFor(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
	results := make([]lunisolar.ConversionRecord, len(convs))
	for i, c := range convs {
		results[i] = c.Record(script)
	}

	WriteSuccess(w, map[string]any{
		"timezone": zone,
		"count":    len(results),
		"results":  results,
	})
}

// monthJSON is one row of GET /api/v1/years/{year}/months.
type monthJSON struct {
	LunarYear        int    `json:"lunarYear"`
	Month            int    `json:"month"`
	IsLeap           bool   `json:"isLeap"`
	Days             int    `json:"days"`
	StartDate        string `json:"startDate"`
	NewMoon          string `json:"newMoon"`
	MonthStem        string `json:"monthStem"`
	MonthBranch      string `json:"monthBranch"`
	MonthCycle       int    `json:"monthCycle"`
	HasPrincipalTerm bool   `json:"hasPrincipalTerm"`
}

// termJSON is one row of GET /api/v1/years/{year}/terms.
type termJSON struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Longitude int    `json:"longitude"`
	Principal bool   `json:"principal"`
	Instant   string `json:"instant"`
	Date      string `json:"date"`
}

// YearMonths handles GET /api/v1/years/{year}/months
func (h *Handlers) YearMonths(w http.ResponseWriter, r *http.Request) {
	table, ok := h.yearTable(w, r)
	if !ok {
		return
	}
	script := scriptFor(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))

	months := make([]monthJSON, len(table.Months))
	for i, m := range table.Months {
		months[i] = monthJSON{
			LunarYear:        m.LunarYear,
			Month:            m.Month,
			IsLeap:           m.IsLeap,
			Days:             m.Days,
			StartDate:        m.StartDate.String(),
			NewMoon:          m.NewMoon.UTC().Format(time.RFC3339),
			MonthStem:        m.Pillar.StemName(script),
			MonthBranch:      m.Pillar.BranchName(script),
			MonthCycle:       m.Pillar.Cycle,
			HasPrincipalTerm: m.HasPrincipalTerm,
		}
	}

	WriteSuccess(w, map[string]any{
		"year":   table.Year,
		"months": months,
	})
}

// YearTerms handles GET /api/v1/years/{year}/terms
func (h *Handlers) YearTerms(w http.ResponseWriter, r *http.Request) {
	table, ok := h.yearTable(w, r)
	if !ok {
		return
	}
	script := scriptFor(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))

	terms := make([]termJSON, len(table.Terms))
	for i, t := range table.Terms {
		name := t.Hanzi
		if script == ganzhi.Pinyin {
			name = t.Pinyin
		}
		terms[i] = termJSON{
			Index:     t.Index,
			Name:      name,
			Longitude: t.Longitude,
			Principal: t.Principal(),
			Instant:   t.Instant.UTC().Format(time.RFC3339),
			Date:      t.Date.String(),
		}
	}

	WriteSuccess(w, map[string]any{
		"year":  table.Year,
		"terms": terms,
	})
}

// YearCalendar handles GET /api/v1/years/{year}/calendar.ics
func (h *Handlers) YearCalendar(w http.ResponseWriter, r *http.Request) {
	table, ok := h.yearTable(w, r)
	if !ok {
		return
	}
	script := scriptFor(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))

	var buf bytes.Buffer
	if err := feed.Encode(&buf, table, script, h.svc.Now()); err != nil {
		h.logger.Error("failed to encode calendar", slog.Int("year", table.Year), slog.Any("error", err))
		WriteInternalError(w, "Failed to build calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=lunisolar-%d.ics", table.Year))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("failed to write calendar", slog.Any("error", err))
	}
}

// yearTable reads the {year} path parameter and builds its table. It
// writes the error response itself and reports whether to continue.
func (h *Handlers) yearTable(w http.ResponseWriter, r *http.Request) (*lunisolar.YearTable, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		WriteBadRequest(w, "Year must be an integer")
		return nil, false
	}
	if err := h.validate.Var(year, fmt.Sprintf("min=%d,max=%d", lunisolar.MinYear, lunisolar.MaxYear)); err != nil {
		WriteBadRequest(w, fmt.Sprintf("Year must be between %d and %d", lunisolar.MinYear, lunisolar.MaxYear))
		return nil, false
	}

	table, err := h.svc.YearTable(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return table, true
}

// yearRange is the query of the admin event endpoints.
type yearRange struct {
	Start int `json:"start" validate:"min=1,max=9998"`
	End   int `json:"end" validate:"min=1,max=9998,gtefield=Start"`
}

// PrecomputeEvents handles POST /api/v1/admin/events?start=&end=
func (h *Handlers) PrecomputeEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err1 := strconv.Atoi(q.Get("start"))
	end, err2 := strconv.Atoi(q.Get("end"))
	if err1 != nil || err2 != nil {
		WriteBadRequest(w, "start and end must be integer years")
		return
	}
	rng := yearRange{Start: start, End: end}
	if err := h.validate.Struct(rng); err != nil {
		WriteBadRequest(w, validationMessage(err))
		return
	}

	set, err := h.svc.Precompute(r.Context(), rng.Start, rng.End)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, map[string]any{
		"start":      set.StartYear,
		"end":        set.EndYear,
		"newMoons":   len(set.NewMoons),
		"solarTerms": len(set.SolarTerms),
		"stored":     h.db != nil,
	})
}

// coverageJSON is one stored year of GET /api/v1/admin/events.
type coverageJSON struct {
	database.YearCoverage
	Complete bool `json:"complete"`
}

// EventCoverage handles GET /api/v1/admin/events
func (h *Handlers) EventCoverage(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"cachedYears": h.svc.Events.CachedYears(),
	}

	if h.db != nil {
		cov, err := h.db.Coverage(r.Context())
		if err != nil {
			h.logger.Error("failed to read coverage", slog.Any("error", err))
			WriteInternalError(w, "Failed to read event store")
			return
		}
		stored := make([]coverageJSON, len(cov))
		for i, c := range cov {
			stored[i] = coverageJSON{YearCoverage: c, Complete: c.Complete()}
		}
		resp["stored"] = stored
	}

	WriteSuccess(w, resp)
}

// decodeJSON decodes a bounded JSON request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
