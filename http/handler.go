package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/sagarc03/realm"
)

type Service interface {
	Info(ctx context.Context) (realm.Info, error)
	Classes() []Class
	List(ctx context.Context, class string, q realm.Query) (realm.DynamicResults, error)
	Get(ctx context.Context, class string, id realm.ObjectID) (realm.DynamicObject, error)
	Delete(ctx context.Context, class string, id realm.ObjectID) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

type HandlerConfig struct {
	AllowWrites bool
	CORS        CORSConfig
	Logger      *slog.Logger
}

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Handler serves a read-mostly JSON view of a realm.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		config:  cfg,
		service: service,
	}
}

// Router returns an http.Handler with the realm routes.
// DELETE is rejected with 403 unless AllowWrites is set.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(h.config.Logger))

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/", h.handleInfo)
	r.Get("/classes", h.handleClasses)
	r.Get("/classes/{class}/objects", h.handleList)
	r.Get("/classes/{class}/objects/{id}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(WriteGuard(h.config.AllowWrites, h.config.Logger))
		r.Delete("/classes/{class}/objects/{id}", h.handleDelete)
	})

	return r
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		HandleError(w, h.config.Logger, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) handleClasses(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, h.service.Classes())
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	class := chi.URLParam(r, "class")
	params := r.URL.Query()

	limit := defaultLimit
	if limitStr := params.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = max(1, min(maxLimit, parsed))
		}
	}

	q := realm.Query{Limit: limit, Cursor: params.Get("cursor")}
	if field := params.Get("field"); field != "" {
		if params.Has("prefix") {
			q.Where = append(q.Where, realm.HasPrefix(field, params.Get("prefix")))
		}
		if params.Has("equal") {
			q.Where = append(q.Where, realm.Equal(field, params.Get("equal")))
		}
	}

	result, err := h.service.List(r.Context(), class, q)
	if err != nil {
		HandleError(w, h.config.Logger, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	class := chi.URLParam(r, "class")
	id := realm.ObjectID(chi.URLParam(r, "id"))

	obj, err := h.service.Get(r.Context(), class, id)
	if err != nil {
		HandleError(w, h.config.Logger, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, obj)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	class := chi.URLParam(r, "class")
	id := realm.ObjectID(chi.URLParam(r, "id"))

	if err := h.service.Delete(r.Context(), class, id); err != nil {
		HandleError(w, h.config.Logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
