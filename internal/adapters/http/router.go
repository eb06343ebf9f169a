package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/civicgrid/complaint-intake/internal/core/domain"
	"github.com/civicgrid/complaint-intake/internal/core/ports"
	"github.com/civicgrid/complaint-intake/internal/observability/metrics"
)

const serviceName = "intake-api"

type Router struct {
	intake ports.ComplaintIntake
	admin  ports.ComplaintAdmin

	metrics      *metrics.IntakeMetrics
	frontendDist string
}

type RouterOptions struct {
	// Metrics may be nil (tests).
	Metrics *metrics.IntakeMetrics
	// FrontendDist is the built SPA directory; empty disables static serving.
	FrontendDist string
}

func NewRouter(intake ports.ComplaintIntake, admin ports.ComplaintAdmin, opts RouterOptions) *Router {
	return &Router{
		intake:       intake,
		admin:        admin,
		metrics:      opts.Metrics,
		frontendDist: opts.FrontendDist,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/submit-text", rt.submitText)
	mux.HandleFunc("/submit-voice", rt.submitVoice)
	mux.HandleFunc("/complaints", rt.listComplaints)
	mux.HandleFunc("/complaints/", rt.complaintSubresource)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("/", rt.serveSPA)

	var handler http.Handler = mux
	handler = corsMiddleware(handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) submitText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
		return
	}

	var req struct {
		InputType     string `json:"input_type"`
		OriginalText  string `json:"original_text"`
		ProcessedText string `json:"processed_text"` // client value is ignored
		Language      string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rt.recordRejection("invalid_json")
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
		return
	}

	sub, err := rt.intake.SubmitText(r.Context(), req.OriginalText, req.Language)
	if err != nil {
		rt.rejectSubmission(w, "text", err)
		return
	}

	rt.recordSubmission("text", "committed")
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"summary": sub.Summary,
	})
}

func (rt *Router) submitVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		rt.recordRejection("missing_file")
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	sub, err := rt.intake.SubmitVoice(r.Context(), fileHeader.Filename, file)
	if err != nil {
		rt.rejectSubmission(w, "voice", err)
		return
	}

	rt.recordSubmission("voice", "committed")
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "success",
		"summary":  sub.Summary,
		"original": sub.Original,
	})
}

func (rt *Router) listComplaints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
		return
	}

	records, err := rt.admin.List(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// complaintSubresource routes /complaints/export, /complaints/{id}/status and
// /complaints/{id}/priority.
func (rt *Router) complaintSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/complaints/")

	if rest == "export" {
		rt.exportComplaints(w, r)
		return
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "complaint id must be an integer"})
		return
	}

	switch parts[1] {
	case "status":
		rt.updateStatus(w, r, id)
	case "priority":
		rt.updatePriority(w, r, id)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
	}
}

func (rt *Router) updateStatus(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPut {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
		return
	}

	if err := rt.admin.SetStatus(r.Context(), id, domain.ComplaintStatus(req.Status)); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Status updated"})
}

func (rt *Router) updatePriority(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPut {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
		return
	}

	var req struct {
		Priority string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
		return
	}

	if err := rt.admin.SetPriority(r.Context(), id, domain.ComplaintPriority(req.Priority)); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Priority updated"})
}

func (rt *Router) exportComplaints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="complaints.csv"`)
	if err := rt.admin.ExportCSV(r.Context(), w); err != nil {
		// Headers are already out; best we can do is log via access log status.
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (rt *Router) rejectSubmission(w http.ResponseWriter, inputType string, err error) {
	rt.recordSubmission(inputType, "rejected")
	rt.recordRejection(rejectionReason(err))
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"detail": err.Error()})
}

func (rt *Router) recordSubmission(inputType, outcome string) {
	if rt.metrics != nil {
		rt.metrics.RecordSubmission(serviceName, inputType, outcome)
	}
}

func (rt *Router) recordRejection(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejection(serviceName, reason)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
