package handlers

import (
	"net/http"

	"expensetracker/internal/middleware"
)

// staticMaxAge is the Cache-Control max-age for static assets, in seconds.
const staticMaxAge = 3600

// Routes registers every route on a new mux.
func (h *Handlers) Routes(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	static := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
	mux.Handle("GET /static/", middleware.StaticCache(staticMaxAge)(static))
	mux.HandleFunc("GET /healthz", h.Healthz)

	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("GET /logout", h.Logout)

	protected := func(fn http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(fn)
	}
	mux.Handle("GET /{$}", protected(h.Home))
	mux.Handle("GET /view", protected(h.View))
	mux.Handle("POST /add", protected(h.AddExpense))
	mux.Handle("POST /delete/{id}", protected(h.DeleteExpense))
	mux.Handle("GET /calculate", protected(h.Calculate))

	return mux
}
