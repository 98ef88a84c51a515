// Package api exposes the catalog data service over a thin JSON/HTTP
// surface. Authentication and authorization are out of scope; deploy
// behind a gateway that provides them.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"lakecat/internal/ddl"
	"lakecat/internal/domain"
	"lakecat/internal/frame"
	"lakecat/internal/service"
)

// Handler serves the catalog data API.
type Handler struct {
	data   *service.CatalogData
	logger *slog.Logger
}

// NewHandler builds a Handler over the catalog data service.
func NewHandler(data *service.CatalogData, logger *slog.Logger) *Handler {
	return &Handler{data: data, logger: logger}
}

// RouterOptions configure the middleware stack.
type RouterOptions struct {
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

// Router assembles the chi router with the standard middleware stack.
func (h *Handler) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "PUT", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))
	if opts.RateLimitRPS > 0 {
		r.Use(RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/tables/{org}/{dataset}/{table}", func(r chi.Router) {
			r.Put("/data", h.writeData)
			r.Get("/data", h.readData)
			r.Delete("/data", h.deleteData)
			r.Get("/last-modified", h.lastModified)
			r.Post("/attach", h.attach)
			r.Post("/query", h.query)
		})
		r.Post("/cache/invalidate", h.invalidateCache)
	})
	return r
}

func refFromRequest(r *http.Request) domain.TableRef {
	return domain.TableRef{
		Organization: chi.URLParam(r, "org"),
		Dataset:      chi.URLParam(r, "dataset"),
		Table:        chi.URLParam(r, "table"),
	}
}

// partitionsFromQuery parses repeated ?partition=col=val parameters,
// preserving their order.
func partitionsFromQuery(r *http.Request) (domain.PartitionKey, error) {
	var parts domain.PartitionKey
	for _, raw := range r.URL.Query()["partition"] {
		col, val, ok := strings.Cut(raw, "=")
		if !ok || col == "" || val == "" {
			return nil, domain.ErrInvalidIdentifier("malformed partition parameter %q, want col=val", raw)
		}
		parts = append(parts, domain.PartitionField{Column: col, Value: val})
	}
	return parts, nil
}

type partitionJSON struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

func partitionKey(in []partitionJSON) domain.PartitionKey {
	parts := make(domain.PartitionKey, len(in))
	for i, p := range in {
		parts[i] = domain.PartitionField{Column: p.Column, Value: p.Value}
	}
	return parts
}

type writeRequest struct {
	Columns    []string                 `json:"columns"`
	Rows       []map[string]interface{} `json:"rows"`
	Partitions []partitionJSON          `json:"partitions,omitempty"`
}

type writeResponse struct {
	Key  string `json:"key"`
	Rows int    `json:"rows"`
}

func (h *Handler) writeData(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code: http.StatusBadRequest, Message: "invalid request body: " + err.Error(),
		})
		return
	}

	f := frame.New(req.Columns...)
	for _, row := range req.Rows {
		f.AppendRow(row)
	}

	key, err := h.data.Write(r.Context(), refFromRequest(r), f, partitionKey(req.Partitions))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, writeResponse{Key: key, Rows: f.NumRows()})
}

func (h *Handler) readData(w http.ResponseWriter, r *http.Request) {
	parts, err := partitionsFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := h.data.Read(r.Context(), refFromRequest(r), parts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) deleteData(w http.ResponseWriter, r *http.Request) {
	parts, err := partitionsFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.data.Delete(r.Context(), refFromRequest(r), parts); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type lastModifiedResponse struct {
	LastModified *string `json:"last_modified"`
}

func (h *Handler) lastModified(w http.ResponseWriter, r *http.Request) {
	parts, err := partitionsFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ts, err := h.data.LastModified(r.Context(), refFromRequest(r), parts)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := lastModifiedResponse{}
	if ts != nil {
		s := ts.UTC().Format("2006-01-02T15:04:05.000Z")
		resp.LastModified = &s
	}
	writeJSON(w, http.StatusOK, resp)
}

type attachResponse struct {
	View     string `json:"view"`
	Strategy string `json:"strategy"`
}

func (h *Handler) attach(w http.ResponseWriter, r *http.Request) {
	parts, err := partitionsFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ref := refFromRequest(r)
	var outcome *domain.AttachmentOutcome
	if len(parts) > 0 {
		outcome, err = h.data.QueryEngineViewForPartitions(r.Context(), ref, parts)
	} else {
		outcome, err = h.data.QueryEngineView(r.Context(), ref)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attachResponse{
		View:     outcome.Handle.Name,
		Strategy: outcome.Strategy.String(),
	})
}

type termJSON struct {
	Field string      `json:"field"`
	Op    string      `json:"op"`
	Value interface{} `json:"value,omitempty"`
}

type sortJSON struct {
	Field     string `json:"field"`
	Direction string `json:"direction,omitempty"`
}

type queryRequest struct {
	Where      []termJSON      `json:"where,omitempty"`
	Sort       *sortJSON       `json:"sort,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	Offset     int             `json:"offset,omitempty"`
	Partitions []partitionJSON `json:"partitions,omitempty"`
}

var comparisons = map[string]domain.Comparison{
	"=":           domain.CompareEq,
	"<":           domain.CompareLt,
	">":           domain.CompareGt,
	"<=":          domain.CompareLte,
	">=":          domain.CompareGte,
	"!=":          domain.CompareNeq,
	"IN":          domain.CompareIn,
	"NOT IN":      domain.CompareNotIn,
	"LIKE":        domain.CompareLike,
	"NOT LIKE":    domain.CompareNotLike,
	"BETWEEN":     domain.CompareBetween,
	"IS NULL":     domain.CompareIsNull,
	"IS NOT NULL": domain.CompareIsNotNull,
}

// dataQuery translates the wire query into a DataQuery. Multiple where
// terms are ANDed.
func (req *queryRequest) dataQuery() (domain.DataQuery, error) {
	q := domain.DataQuery{Limit: req.Limit, Offset: req.Offset}

	var terms []*domain.FilterTerm
	for _, t := range req.Where {
		if err := ddl.ValidateIdentifier(t.Field); err != nil {
			return q, domain.ErrInvalidIdentifier("invalid filter field %q: %v", t.Field, err)
		}
		cmp, ok := comparisons[strings.ToUpper(strings.TrimSpace(t.Op))]
		if !ok {
			return q, domain.ErrInvalidIdentifier("unsupported comparison %q", t.Op)
		}
		terms = append(terms, domain.Term(t.Field, cmp, t.Value))
	}
	switch len(terms) {
	case 0:
	case 1:
		q.Filter = terms[0]
	default:
		expr := domain.Expr(terms[0])
		for _, t := range terms[1:] {
			expr = expr.And(t)
		}
		q.Filter = expr
	}

	if req.Sort != nil {
		if err := ddl.ValidateIdentifier(req.Sort.Field); err != nil {
			return q, domain.ErrInvalidIdentifier("invalid sort field %q: %v", req.Sort.Field, err)
		}
		dir := domain.SortDirection(strings.ToUpper(req.Sort.Direction))
		if dir == "" {
			dir = domain.SortAsc
		}
		if dir != domain.SortAsc && dir != domain.SortDesc {
			return q, domain.ErrInvalidIdentifier("unsupported sort direction %q", req.Sort.Direction)
		}
		q.Sort = &domain.SortTerm{Field: req.Sort.Field, Direction: dir}
	}
	return q, nil
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code: http.StatusBadRequest, Message: "invalid request body: " + err.Error(),
		})
		return
	}
	q, err := req.dataQuery()
	if err != nil {
		writeError(w, err)
		return
	}

	ref := refFromRequest(r)
	var result *frame.Frame
	if len(req.Partitions) > 0 {
		result, err = h.data.QueryPartition(r.Context(), ref, partitionKey(req.Partitions), q)
	} else {
		result, err = h.data.Query(r.Context(), ref, q)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) invalidateCache(w http.ResponseWriter, r *http.Request) {
	if err := h.data.InvalidateEngineCache(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
