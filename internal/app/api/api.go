package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	app "github.com/diwise/iot-observations/internal/app/observations"
	"github.com/diwise/iot-observations/internal/app/observations/filter"
	"github.com/diwise/iot-observations/internal/pkg/auth"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("iot-observations/api")

func Register(ctx context.Context, a app.App, policies io.Reader) (*chi.Mux, error) {
	log := logging.GetFromContext(ctx)

	baseURL := env.GetVariableOrDefault(ctx, "API_BASE_URL", "")

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	authenticator, err := auth.NewAuthenticator(ctx, log, policies)
	if err != nil {
		return nil, fmt.Errorf("failed to create api authenticator: %w", err)
	}

	r.Route("/v1.1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Post("/CreateObservations", createObservationsHandler(log, a, baseURL))

			r.Get("/{entityType}", queryCollectionHandler(log, a, baseURL))
			r.Post("/{entityType}", createEntityHandler(log, a, baseURL))
			r.Get("/{entityType}({id})", retrieveEntityHandler(log, a, baseURL))
			r.Patch("/{entityType}({id})", patchEntityHandler(log, a, baseURL))
			r.Delete("/{entityType}({id})", deleteEntityHandler(log, a))
			r.Get("/{entityType}({id})/{related}", navigationHandler(log, a, baseURL))
			r.Post("/{entityType}({id})/{related}", relatedPostHandler(log, a))
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r, nil
}

func baseFor(r *http.Request, configured string) string {
	if configured != "" {
		return strings.TrimSuffix(configured, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	return scheme + "://" + r.Host
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var syntaxErr *filter.SyntaxError
	var fnErr *filter.UnsupportedFunctionError
	var validationErr *app.ValidationError
	var batchErr *app.BatchError

	status := http.StatusInternalServerError
	body := apiError{Code: "internal-error", Message: err.Error()}

	switch {
	case errors.As(err, &syntaxErr):
		status = http.StatusBadRequest
		body = apiError{Code: "filter-syntax-error", Message: syntaxErr.Error()}
	case errors.As(err, &fnErr):
		status = http.StatusBadRequest
		body = apiError{Code: "unsupported-filter-function", Message: fnErr.Error()}
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		body = apiError{Code: "validation-error", Message: validationErr.Error()}
	case errors.As(err, &batchErr):
		status = http.StatusBadRequest
		body = apiError{Code: "batch-rejected", Message: batchErr.Error(), Errors: batchErr.RowErrors}
	case errors.Is(err, app.ErrBatchTooLarge):
		status = http.StatusBadRequest
		body = apiError{Code: "batch-too-large", Message: err.Error()}
	case errors.Is(err, app.ErrNotFound):
		status = http.StatusNotFound
		body = apiError{Code: "not-found", Message: err.Error()}
	case errors.Is(err, app.ErrAlreadyExists):
		status = http.StatusConflict
		body = apiError{Code: "conflict", Message: err.Error()}
	default:
		logger.Error("request failed", "err", err.Error())
	}

	w.WriteHeader(status)
	w.Write(body.Byte())
}

func parseEntityType(w http.ResponseWriter, r *http.Request) (app.EntityType, bool) {
	et, ok := app.ParseEntityType(chi.URLParam(r, "entityType"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write(apiError{Code: "not-found", Message: "unknown entity collection"}.Byte())
		return "", false
	}
	return et, true
}

func firstTenant(tenants []string) string {
	if len(tenants) > 0 {
		return tenants[0]
	}
	return ""
}

func queryCollectionHandler(log *slog.Logger, a app.App, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "query-collection")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, logger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		w.Header().Set("Content-Type", "application/json")

		et, ok := parseEntityType(w, r)
		if !ok {
			return
		}

		query := r.URL.Query()
		query["tenants"] = auth.GetAllowedTenantsFromContext(ctx)

		result, err := a.QueryEntities(ctx, et, query)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		base := baseFor(r, baseURL)

		response, err := newCollectionResponse(r, base, et, result)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		if err = expandCollection(ctx, a, response.Value, et, base, query.Get("$expand")); err != nil {
			writeError(w, logger, err)
			return
		}

		b, err := json.Marshal(response)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write(b)
	}
}

func retrieveEntityHandler(log *slog.Logger, a app.App, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "retrieve-entity")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, logger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		w.Header().Set("Content-Type", "application/json")

		et, ok := parseEntityType(w, r)
		if !ok {
			return
		}

		b, err := a.RetrieveEntity(ctx, et, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}

		m := make(map[string]any)
		if err = json.Unmarshal(b, &m); err != nil {
			writeError(w, logger, err)
			return
		}

		base := baseFor(r, baseURL)
		decorate(m, base, et)
		applySelect(m, r.URL.Query().Get("$select"))

		if err = expandEntity(ctx, a, m, et, base, r.URL.Query().Get("$expand")); err != nil {
			writeError(w, logger, err)
			return
		}

		out, err := json.Marshal(m)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write(out)
	}
}

func navigationHandler(log *slog.Logger, a app.App, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "query-related")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, logger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		w.Header().Set("Content-Type", "application/json")

		et, ok := parseEntityType(w, r)
		if !ok {
			return
		}

		related, ok := app.ParseEntityType(chi.URLParam(r, "related"))
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write(apiError{Code: "not-found", Message: "unknown navigation target"}.Byte())
			return
		}

		query := r.URL.Query()
		query["tenants"] = auth.GetAllowedTenantsFromContext(ctx)

		result, err := a.QueryRelated(ctx, et, chi.URLParam(r, "id"), related, query)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		response, err := newCollectionResponse(r, baseFor(r, baseURL), related, result)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		b, err := json.Marshal(response)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write(b)
	}
}

func createEntityHandler(log *slog.Logger, a app.App, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		w.Header().Set("Content-Type", "application/json")

		et, ok := parseEntityType(w, r)
		if !ok {
			return
		}

		if et == app.EntityTypeThing && isMultipartFormData(r) {
			ctx, span := tracer.Start(r.Context(), "seed")
			defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
			_, ctx, logger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

			file, _, err := r.FormFile("fileupload")
			if err != nil {
				logger.Error("unable to get file from fileupload", "err", err.Error())
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			defer file.Close()

			if err = a.Seed(ctx, file); err != nil {
				writeError(w, logger, err)
				return
			}

			w.WriteHeader(http.StatusCreated)
			return
		}

		ctx, span := tracer.Start(r.Context(), "create-entity")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, logger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		tenant := firstTenant(auth.GetAllowedTenantsFromContext(ctx))

		created, err := a.CreateEntity(ctx, et, body, tenant)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		m := make(map[string]any)
		if err = json.Unmarshal(created, &m); err != nil {
			writeError(w, logger, err)
			return
		}
		decorate(m, baseFor(r, baseURL), et)

		if self, ok := m["@iot.selfLink"].(string); ok {
			w.Header().Set("Location", self)
		}

		out, err := json.Marshal(m)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		w.Write(out)
	}
}

func patchEntityHandler(log *slog.Logger, a app.App, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "patch-entity")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, logger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		w.Header().Set("Content-Type", "application/json")

		et, ok := parseEntityType(w, r)
		if !ok {
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		tenants := auth.GetAllowedTenantsFromContext(ctx)

		merged, err := a.MergeEntity(ctx, et, chi.URLParam(r, "id"), body, tenants)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		m := make(map[string]any)
		if err = json.Unmarshal(merged, &m); err != nil {
			writeError(w, logger, err)
			return
		}
		decorate(m, baseFor(r, baseURL), et)

		out, err := json.Marshal(m)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write(out)
	}
}

func deleteEntityHandler(log *slog.Logger, a app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "delete-entity")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, logger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		et, ok := parseEntityType(w, r)
		if !ok {
			return
		}

		tenants := auth.GetAllowedTenantsFromContext(ctx)

		if err = a.DeleteEntity(ctx, et, chi.URLParam(r, "id"), tenants); err != nil {
			w.Header().Set("Content-Type", "application/json")
			writeError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// relatedPostHandler serves the write operations addressed through a
// navigation path: linking a Location to a Thing, and the offline sync
// endpoint of a Thing.
func relatedPostHandler(log *slog.Logger, a app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		w.Header().Set("Content-Type", "application/json")

		et, ok := parseEntityType(w, r)
		if !ok {
			return
		}

		if et != app.EntityTypeThing {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		thingID := chi.URLParam(r, "id")

		switch chi.URLParam(r, "related") {
		case "Sync":
			ctx, span := tracer.Start(r.Context(), "sync-observations")
			defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
			_, ctx, logger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

			req := app.SyncRequest{}
			if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, logger, &app.ValidationError{Field: "body", Message: err.Error()})
				return
			}
			req.ThingID = thingID

			tenants := auth.GetAllowedTenantsFromContext(ctx)

			result, err := a.Sync(ctx, req, tenants)
			if err != nil {
				writeError(w, logger, err)
				return
			}

			b, err := json.Marshal(result)
			if err != nil {
				writeError(w, logger, err)
				return
			}

			w.WriteHeader(http.StatusOK)
			w.Write(b)

		case "Locations":
			ctx, span := tracer.Start(r.Context(), "link-thing-location")
			defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
			_, ctx, logger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

			ref := struct {
				ID string `json:"@iot.id"`
			}{}
			if err = json.NewDecoder(r.Body).Decode(&ref); err != nil || ref.ID == "" {
				writeError(w, logger, &app.ValidationError{Field: "@iot.id", Message: "a location reference must be provided"})
				return
			}

			if err = a.LinkThingLocation(ctx, thingID, ref.ID); err != nil {
				writeError(w, logger, err)
				return
			}

			w.WriteHeader(http.StatusCreated)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func createObservationsHandler(log *slog.Logger, a app.App, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-observations")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, logger := o11y.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		w.Header().Set("Content-Type", "application/json")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		requests := make([]app.BulkRequest, 0)

		trimmed := strings.TrimSpace(string(body))
		if strings.HasPrefix(trimmed, "[") {
			err = json.Unmarshal(body, &requests)
		} else {
			req := app.BulkRequest{}
			if err = json.Unmarshal(body, &req); err == nil {
				requests = append(requests, req)
			}
		}
		if err != nil {
			writeError(w, logger, &app.ValidationError{Field: "body", Message: err.Error()})
			return
		}

		tenant := firstTenant(auth.GetAllowedTenantsFromContext(ctx))
		base := baseFor(r, baseURL)

		links := make([]string, 0)
		for _, req := range requests {
			var ids []string
			ids, err = a.CreateObservations(ctx, req, tenant)
			if err != nil {
				writeError(w, logger, err)
				return
			}
			for _, id := range ids {
				links = append(links, selfLink(base, app.EntityTypeObservation, id))
			}
		}

		b, err := json.Marshal(links)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		w.Write(b)
	}
}

func expandCollection(ctx context.Context, a app.App, value []map[string]any, et app.EntityType, base, expand string) error {
	if expand == "" {
		return nil
	}
	for _, m := range value {
		if err := expandEntity(ctx, a, m, et, base, expand); err != nil {
			return err
		}
	}
	return nil
}

// expandEntity inlines the first page of each requested related
// collection in place of its navigation link.
func expandEntity(ctx context.Context, a app.App, m map[string]any, et app.EntityType, base, expand string) error {
	if expand == "" {
		return nil
	}

	id, ok := m["@iot.id"].(string)
	if !ok || id == "" {
		return nil
	}

	for _, rel := range strings.Split(expand, ",") {
		rel = strings.TrimSpace(rel)

		related, ok := app.ParseEntityType(rel)
		if !ok {
			return &app.ValidationError{Field: "$expand", Message: fmt.Sprintf("unknown relation [%s]", rel)}
		}

		result, err := a.QueryRelated(ctx, et, id, related, map[string][]string{})
		if err != nil {
			return err
		}

		expanded := make([]map[string]any, 0, len(result.Data))
		for _, b := range result.Data {
			item := make(map[string]any)
			if err := json.Unmarshal(b, &item); err != nil {
				return err
			}
			decorate(item, base, related)
			expanded = append(expanded, item)
		}

		delete(m, rel+"@iot.navigationLink")
		m[rel] = expanded
	}

	return nil
}

func isMultipartFormData(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data")
}
