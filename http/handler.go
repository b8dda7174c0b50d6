// Package http exposes a tracker over HTTP using protoJSON.
//
// Routes:
//
//	GET    /v1/evtrack/report            current registry report
//	GET    /v1/evtrack/objects/{id}      report for one tracked object
//	POST   /v1/evtrack/log               write the report to the tracker log
//	POST   /v1/evtrack/flush             log and emit the report to the sinks
//	DELETE /v1/evtrack/registry          reset the tracker
//	GET    /v1/evtrack/reports           list stored reports (needs WithStore)
//	GET    /v1/evtrack/reports/{id}      get a stored report (needs WithStore)
//	DELETE /v1/evtrack/reports           delete stored reports older than older_than
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rbaliyan/evtrack"
	pb "github.com/rbaliyan/evtrack/proto"
	"github.com/rbaliyan/evtrack/store"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultDeleteAge is the minimum age for deletion without force flag.
const DefaultDeleteAge = 24 * time.Hour

// Handler implements http.Handler for a tracker using protoJSON.
type Handler struct {
	tracker   *evtrack.Tracker
	store     store.Store
	logger    *slog.Logger
	mux       *http.ServeMux
	marshaler protojson.MarshalOptions
}

// Option configures the handler
type Option func(*Handler)

// WithStore enables the /v1/evtrack/reports routes
func WithStore(s store.Store) Option {
	return func(h *Handler) {
		h.store = s
	}
}

// WithLogger sets the logger. Default is the tracker's logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a new HTTP handler for a tracker.
func New(tracker *evtrack.Tracker, opts ...Option) *Handler {
	h := &Handler{
		tracker: tracker,
		logger:  tracker.Logger(),
		mux:     http.NewServeMux(),
		marshaler: protojson.MarshalOptions{
			EmitUnpopulated: true,
			UseProtoNames:   true,
		},
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("/v1/evtrack/report", h.handleReport)
	h.mux.HandleFunc("/v1/evtrack/objects/", h.handleObject)
	h.mux.HandleFunc("/v1/evtrack/log", h.handleLog)
	h.mux.HandleFunc("/v1/evtrack/flush", h.handleFlush)
	h.mux.HandleFunc("/v1/evtrack/registry", h.handleRegistry)
	h.mux.HandleFunc("/v1/evtrack/reports", h.handleReports)
	h.mux.HandleFunc("/v1/evtrack/reports/", h.handleStoredReport)

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handleReport handles GET /v1/evtrack/report
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.writeReport(w, h.tracker.Report())
}

// handleObject handles GET /v1/evtrack/objects/{id}
func (h *Handler) handleObject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/v1/evtrack/objects/")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "object id is required")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid object id: "+raw)
		return
	}

	obj := h.tracker.Report().Object(evtrack.ObjectID(id))
	if obj == nil {
		h.writeError(w, http.StatusNotFound, "object not registered")
		return
	}
	msg, err := pb.ObjectToProto(obj)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeResponse(w, msg)
}

// handleLog handles POST /v1/evtrack/log
func (h *Handler) handleLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	report := h.tracker.Report()
	h.tracker.LogReport(r.Context(), report)
	h.writeReport(w, report)
}

// handleFlush handles POST /v1/evtrack/flush
func (h *Handler) handleFlush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	report, err := h.tracker.Flush(r.Context())
	if errors.Is(err, evtrack.ErrTrackerClosed) {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.logger.Warn("flush failed", "error", err)
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeReport(w, report)
}

// handleRegistry handles DELETE /v1/evtrack/registry
func (h *Handler) handleRegistry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.tracker.Reset()
	h.writeResponse(w, &emptypb.Empty{})
}

// handleReports handles GET /v1/evtrack/reports (list) and DELETE (cleanup)
func (h *Handler) handleReports(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusNotImplemented, "report store not configured")
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleList handles GET /v1/evtrack/reports with query parameters
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.List(r.Context(), parseFilterFromQuery(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	msg, err := pb.ReportsToProto(reports)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeResponse(w, msg)
}

// handleStoredReport handles GET /v1/evtrack/reports/{id}
func (h *Handler) handleStoredReport(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusNotImplemented, "report store not configured")
		return
	}
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/evtrack/reports/")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "report id is required")
		return
	}

	report, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeReport(w, report)
}

// handleDelete handles DELETE /v1/evtrack/reports?older_than=1h
// By default, only reports older than 24h can be deleted.
// To delete newer reports, use force=true.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	age := DefaultDeleteAge
	if olderThanStr := q.Get("older_than"); olderThanStr != "" {
		var err error
		age, err = time.ParseDuration(olderThanStr)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid older_than duration: "+err.Error())
			return
		}
		if age <= 0 {
			h.writeError(w, http.StatusBadRequest, "older_than must be positive")
			return
		}
	}

	force := q.Get("force") == "true"
	if age < DefaultDeleteAge && !force {
		h.writeError(w, http.StatusBadRequest, "deleting reports newer than 24h requires force=true")
		return
	}

	deleted, err := h.store.DeleteOlderThan(r.Context(), age)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeResponse(w, &structpb.Struct{Fields: map[string]*structpb.Value{
		"deleted": structpb.NewNumberValue(float64(deleted)),
	}})
}

// parseFilterFromQuery parses store.Filter from URL query parameters
func parseFilterFromQuery(r *http.Request) store.Filter {
	q := r.URL.Query()
	filter := store.Filter{}

	if v := q.Get("name"); v != "" {
		filter.Name = v
	}
	if v := q.Get("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.StartTime = t
		}
	}
	if v := q.Get("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.EndTime = t
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}

	return filter
}

func (h *Handler) writeReport(w http.ResponseWriter, report *evtrack.Report) {
	msg, err := pb.ReportToProto(report)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeResponse(w, msg)
}

func (h *Handler) writeResponse(w http.ResponseWriter, msg proto.Message) {
	data, err := h.marshaler.Marshal(msg)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) writeError(w http.ResponseWriter, code int, message string) {
	data, _ := protojson.Marshal(&structpb.Struct{Fields: map[string]*structpb.Value{
		"error": structpb.NewStringValue(message),
	}})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}
