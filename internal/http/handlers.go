package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"iexpense/internal/core"
	"iexpense/internal/log"
	"iexpense/internal/view"
)

var errTemplatesMissing = errors.New("templates not loaded")

type (
	rowData struct {
		Position int
		ID       string
		Category string
		Name     string
		Amount   string
		Band     string
	}

	sectionData struct {
		Title    string
		Category string
		Total    string
		Rows     []rowData
	}

	pageData struct {
		Title      string
		Sections   []sectionData
		Categories []core.Category
		Currency   string
	}
)

func (s *Server) buildSections() []sectionData {
	secs := s.sections.Sections()
	out := make([]sectionData, 0, len(secs))
	for _, sec := range secs {
		sd := sectionData{
			Title:    sec.Title,
			Category: sec.Category.String(),
			Total:    s.formatter.Format(sec.Total),
		}
		for _, row := range sec.Rows {
			sd.Rows = append(sd.Rows, rowData{
				Position: row.Position,
				ID:       row.Record.ID,
				Category: sec.Category.String(),
				Name:     row.Record.Name,
				Amount:   s.formatter.Format(row.Record.Amount),
				Band:     string(row.Band),
			})
		}
		out = append(out, sd)
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	body, err := s.execute(r, name, data)
	if err != nil {
		InternalServerError("Unable to render page").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

func (s *Server) execute(r *http.Request, name string, data any) (string, error) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		return "", errTemplatesMissing
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender, "template", name, log.FieldError, err)
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "index.html", pageData{Title: "iExpense", Sections: s.buildSections()})
}

func (s *Server) handleNewExpenseForm(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "add.html", pageData{
		Title:      "Add new expense",
		Categories: core.Categories(),
		Currency:   s.formatter.Currency(),
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx)

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		logger.WarnContext(ctx, "Parse body error", log.FieldError, err, log.FieldPath, r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	in, err := ParseExpenseInput(parser)
	if err != nil {
		rejectInput(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	rec, err := s.store.Add(ctx, in.Name, in.Category, in.Amount)
	if err != nil {
		rejectInput(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesCreated, 1)

	logger.InfoContext(ctx, "Expense created",
		log.NewFields().
			WithOperation(log.OpAppend).
			WithExpense(rec.ID, rec.Name, rec.Category.String(), rec.Amount.Cents).
			ToSlice()...)

	if parser.IsJSON() {
		s.writeJSONRecords(w, r, http.StatusCreated, []core.ExpenseRecord{rec})
		return
	}
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	NewHTMXResponse().
		TriggerExpenseCreated(rec.ID, rec.Category).
		TriggerFormReset().
		TriggerSuccessNotification("Saved " + rec.Name).
		Redirect("/").
		Write(w)
}

func (s *Server) handleDeleteExpenses(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	in, err := ParseDeleteInput(r.PostForm)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Invalid delete request", log.FieldError, err)
		rejectInput(w, r, http.StatusBadRequest, err)
		return
	}

	removed := s.sections.DeleteTargets(ctx, in.Category, in.Targets)
	atomic.AddInt64(&s.appMetrics.expensesDeleted, int64(len(removed)))

	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	body, err := s.execute(r, "sections", pageData{Sections: s.buildSections()})
	if err != nil {
		InternalServerError("Unable to render page").Write(w)
		return
	}
	resp := NewHTMXResponse().TriggerExpenseDeleted(in.Category, len(removed))
	if len(removed) > 0 {
		resp.TriggerSuccessNotification(fmt.Sprintf("Deleted %d %s", len(removed), pluralize(len(removed), "expense", "expenses")))
	}
	resp.BodyHTML(body).Write(w)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError("Page not found").Write(w)
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// handleListExpenses returns the collection in its persisted JSON form,
// optionally restricted to one category.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	items := s.store.Items()
	if c := r.URL.Query().Get("category"); c != "" {
		category, err := core.ParseCategory(c)
		if err != nil {
			BadRequestError(validationMessage(err)).Write(w)
			return
		}
		items = view.Partition(items, category)
	}
	s.writeJSONRecords(w, r, http.StatusOK, items)
}

func (s *Server) writeJSONRecords(w http.ResponseWriter, r *http.Request, status int, items []core.ExpenseRecord) {
	data, err := core.EncodeRecords(items)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Encode expenses failed", log.FieldError, err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
		"metrics": map[string]int64{
			"expenses_created":    atomic.LoadInt64(&s.appMetrics.expensesCreated),
			"expenses_deleted":    atomic.LoadInt64(&s.appMetrics.expensesDeleted),
			"rate_limit_hits":     atomic.LoadInt64(&s.security.rateLimitHits),
			"suspicious_requests": atomic.LoadInt64(&s.security.suspiciousRequests),
			"active_clients":      int64(s.rateLimiter.activeClients()),
		},
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]string{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["storage"] = "not_checked"
	default:
		if err := s.ready(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// rejectInput writes the validation message as an error fragment; htmx
// clients also get an error notification.
func rejectInput(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := validationMessage(err)
	resp := ErrorResponse(status, msg)
	if isHTMX(r) {
		resp.TriggerErrorNotification(msg)
	}
	resp.Write(w)
}

// validationMessage maps domain errors onto messages shown next to the form.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyName):
		return "Enter a name"
	case errors.Is(err, core.ErrNameTooLong):
		return "Name is too long (max 200 characters)"
	case errors.Is(err, core.ErrInvalidCategory):
		return "Choose Business or Personal"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Enter a positive amount within range"
	case errors.Is(err, ErrInvalidPosition):
		return "Invalid position"
	default:
		return "Invalid data"
	}
}
