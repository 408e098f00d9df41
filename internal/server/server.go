package server

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"svcview/internal/cluster"
	"svcview/internal/kube"
	"svcview/internal/stream"
	"svcview/internal/view"
)

//go:embed ui_dist
var uiFS embed.FS

var log = logrus.WithField("component", "server")

type Server struct {
	mgr     *cluster.Manager
	token   string
	timeout time.Duration
}

func New(mgr *cluster.Manager, token string, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Server{mgr: mgr, token: token, timeout: timeout}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Protected API
	r.Route("/api", func(api chi.Router) {
		api.Use(s.authMiddleware)

		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"ok":            true,
				"activeContext": s.mgr.ActiveContext(),
			})
		})

		api.Get("/contexts", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"active":   s.mgr.ActiveContext(),
				"contexts": s.mgr.ListContexts(),
			})
		})

		api.Post("/context/select", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Name string `json:"name"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid body"})
				return
			}
			if err := s.mgr.SetActiveContext(body.Name); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"active": s.mgr.ActiveContext()})
		})

		api.Get("/namespaces/{ns}/pods", s.listPods)
		api.Delete("/namespaces/{ns}/pods/{name}", s.deletePod)

		api.Get("/namespaces/{ns}/services/{name}/selectedpods", s.selectedPods)
		api.Get("/namespaces/{ns}/services/{name}/selectedpods/ws", (&stream.SelectedPodsWS{Mgr: s.mgr}).ServeHTTP)
	})

	// Public UI (SPA)
	r.Get("/*", s.serveUI)

	return r
}

func (s *Server) listPods(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "ns")
	selector := r.URL.Query().Get("labelSelector")

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	clients, active, err := s.mgr.ClientsFor(ctx, r.URL.Query().Get("cluster"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "active": active})
		return
	}

	items, err := kube.ListPods(ctx, clients, ns, selector)
	if err != nil {
		writeJSON(w, statusForError(err), map[string]any{"error": err.Error(), "active": active})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"active": active, "items": items})
}

func (s *Server) deletePod(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "ns")
	name := chi.URLParam(r, "name")

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	clients, active, err := s.mgr.ClientsFor(ctx, r.URL.Query().Get("cluster"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "active": active})
		return
	}

	if err := kube.DeletePod(ctx, clients, ns, name); err != nil {
		writeJSON(w, statusForError(err), map[string]any{"error": err.Error(), "active": active})
		return
	}

	log.WithFields(logrus.Fields{"context": active, "namespace": ns, "pod": name}).Info("pod deleted")
	writeJSON(w, http.StatusOK, map[string]any{"active": active, "deleted": name})
}

// selectedPods renders the section for one service. A failed pod list is
// part of the section and still answers 200.
func (s *Server) selectedPods(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "ns")
	name := chi.URLParam(r, "name")
	q := r.URL.Query()

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	clients, active, err := s.mgr.ClientsFor(ctx, q.Get("cluster"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "active": active})
		return
	}

	svc, err := kube.GetService(ctx, clients, active, ns, name)
	if err != nil {
		writeJSON(w, statusForError(err), map[string]any{"error": err.Error(), "active": active})
		return
	}

	v := view.NewSelectedPods(kube.ManagerPodLister{Mgr: s.mgr})
	v.SetService(svc)
	if truthy(q.Get("showAll")) {
		v.ShowAll()
	}
	if err := v.Refresh(ctx); err != nil {
		log.WithFields(logrus.Fields{
			"context":   active,
			"namespace": ns,
			"service":   name,
			"selector":  v.LabelSelector(),
		}).WithError(err).Warn("list selected pods")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"active":  active,
		"service": svc.DTO(),
		"item":    v.Render(time.Now()),
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if strings.HasPrefix(token, "Bearer ") {
			token = strings.TrimPrefix(token, "Bearer ")
		} else {
			token = r.URL.Query().Get("token")
		}

		if token != s.token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) serveUI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "ui_dist/index.html"
	} else {
		path = "ui_dist/" + path
	}

	b, err := uiFS.ReadFile(path)
	if err != nil {
		b, err = uiFS.ReadFile("ui_dist/index.html")
		if err != nil {
			http.Error(w, "UI not built", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
		return
	}

	w.Header().Set("Content-Type", contentTypeByPath(path))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func contentTypeByPath(p string) string {
	switch {
	case strings.HasSuffix(p, ".html"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(p, ".js"):
		return "application/javascript; charset=utf-8"
	case strings.HasSuffix(p, ".css"):
		return "text/css; charset=utf-8"
	case strings.HasSuffix(p, ".svg"):
		return "image/svg+xml"
	case strings.HasSuffix(p, ".png"):
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

func truthy(v string) bool {
	return v == "1" || v == "true"
}

func statusForError(err error) int {
	switch {
	case apierrors.IsNotFound(err):
		return http.StatusNotFound
	case apierrors.IsForbidden(err):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	if status >= http.StatusBadRequest {
		if payload, ok := v.(map[string]any); ok {
			if msg, ok := payload["error"].(string); ok && strings.TrimSpace(msg) != "" {
				payload["error"] = sanitizeErrorMessage(status)
				v = payload
			}
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sanitizeErrorMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "too many requests"
	default:
		return "request failed"
	}
}
