// Package httpapi exposes the rewards engine over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rentshield/rewards/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	auth     service.AuthService
	accounts service.AccountService
	tasks    service.TaskService
	perks    service.PerkService
	redeem   service.RedeemService
	notes    *service.StoreNotifier
	log      *zap.Logger
}

// New constructs an HTTP server with injected services.
func New(
	auth service.AuthService,
	accounts service.AccountService,
	tasks service.TaskService,
	perks service.PerkService,
	redeem service.RedeemService,
	notes *service.StoreNotifier,
	log *zap.Logger,
) *Server {
	return &Server{
		auth:     auth,
		accounts: accounts,
		tasks:    tasks,
		perks:    perks,
		redeem:   redeem,
		notes:    notes,
		log:      log,
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/api/users/me", s.handleMe)
		r.Post("/api/users/landlords", s.handleCreateLandlord)
		r.Post("/api/users/tenants", s.handleCreateTenant)
		r.Get("/api/users/tenants", s.handleListTenants)

		r.Get("/api/rewards/balance", s.handleBalance)

		r.Route("/api/tasks", func(r chi.Router) {
			r.Post("/", s.handleCreateTask)
			r.Get("/", s.handleListTasks)
			r.Get("/{id}", s.handleGetTask)
			r.Post("/{id}/submit", s.handleSubmitProof)
			r.Post("/{id}/verify", s.handleVerifyTask)
		})

		r.Route("/api/perks", func(r chi.Router) {
			r.Post("/", s.handleCreatePerk)
			r.Get("/", s.handleListPerks)
			r.Delete("/{id}", s.handleDeletePerk)
			r.Post("/{id}/claim", s.handleClaimPerk)
			r.Get("/claims", s.handleListClaims)
			r.Post("/claims/{id}/fulfill", s.handleFulfillClaim)
		})

		r.Route("/api/notifications", func(r chi.Router) {
			r.Get("/", s.handleListNotifications)
			r.Post("/{id}/read", s.handleMarkNotificationRead)
		})
	})

	return r
}

// pagination reads page/page_size query params with the original defaults.
func pagination(r *http.Request) (limit, offset int) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "page_size", 50)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 50
	}
	return size, (page - 1) * size
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	return n
}
