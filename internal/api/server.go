// Package api serves a read-only JSON view of the catalog and its
// analytics.
package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/price-tracker/internal/analytics"
	"github.com/sells-group/price-tracker/internal/catalog"
	"github.com/sells-group/price-tracker/internal/model"
)

// ProductInfo is one entry of the product listing.
type ProductInfo struct {
	Name          string   `json:"name"`
	Model         string   `json:"model"`
	Category      string   `json:"category"`
	Sources       []string `json:"sources"`
	Observations  int      `json:"observations"`
	BestPrice     *float64 `json:"best_price,omitempty"`
	PercentChange *float64 `json:"percent_change,omitempty"`
}

// Server reads the catalog from disk on every request, so the results of
// an update run show up without a restart.
type Server struct {
	catalogPath string
}

// NewServer creates a Server for the catalog at catalogPath.
func NewServer(catalogPath string) *Server {
	return &Server{catalogPath: catalogPath}
}

// Router returns the HTTP handler. allowedOrigins configures CORS.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{name}", s.handleProduct)
		r.Get("/{name}/summary", s.handleSummary)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	c, ok := s.load(w)
	if !ok {
		return
	}

	out := make([]ProductInfo, 0, len(c))
	for _, name := range c.Names() {
		p := c[name]
		sum := analytics.Summarize(name, p)
		info := ProductInfo{
			Name:          name,
			Model:         p.Model,
			Category:      p.Category,
			Sources:       p.SourceNames(),
			Observations:  sum.Observations,
			PercentChange: sum.PercentChange,
		}
		if sum.Best != nil {
			price := sum.Best.Price
			info.BestPrice = &price
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	name, p, ok := s.product(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     name,
		"model":    p.Model,
		"category": p.Category,
		"sources":  p.Sources,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	name, p, ok := s.product(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.Summarize(name, p))
}

// product resolves the {name} parameter, writing the error response itself
// when it cannot.
func (s *Server) product(w http.ResponseWriter, r *http.Request) (string, *model.Product, bool) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	c, ok := s.load(w)
	if !ok {
		return "", nil, false
	}
	p, found := c[name]
	if !found {
		writeError(w, http.StatusNotFound, "product not found: "+name)
		return "", nil, false
	}
	return name, p, true
}

func (s *Server) load(w http.ResponseWriter) (model.Catalog, bool) {
	c, err := catalog.Load(s.catalogPath)
	if err != nil {
		zap.L().Error("api: load catalog", zap.String("path", s.catalogPath), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return nil, false
	}
	return c, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
