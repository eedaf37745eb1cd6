package handlers

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/common"
	"expensetracker/internal/logging"
	"expensetracker/internal/models"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// FlashCookieName carries a one-shot message across a redirect.
	FlashCookieName = "flash"
)

// ExpenseStore is the owner-scoped expense persistence the handlers use.
type ExpenseStore interface {
	AddExpense(ctx context.Context, date, category, description string, amount float64, userID int64) (*models.Expense, error)
	GetExpenses(ctx context.Context, userID int64) ([]models.Expense, error)
	DeleteExpense(ctx context.Context, expenseID, userID int64) (bool, error)
	Ping(ctx context.Context) error
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	store        ExpenseStore
	auth         *auth.Service
	templateDir  string
	secureCookie bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store ExpenseStore, authService *auth.Service, templateDir string, secureCookie bool) *Handlers {
	return &Handlers{
		store:        store,
		auth:         authService,
		templateDir:  templateDir,
		secureCookie: secureCookie,
	}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require authentication.
// Sessions past the halfway point of their lifetime are renewed.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		info, err := h.auth.Authenticate(r.Context(), cookie.Value)
		if errors.Is(err, common.ErrInvalidCredentials) {
			h.clearCookie(w, SessionCookieName)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		if err != nil {
			h.serverError(w, r, "authenticate session", err)
			return
		}

		if renewed, err := h.auth.Renew(r.Context(), info); err != nil {
			// keep serving on the current session
			logging.FromContext(r.Context()).Warn("session renewal failed", "error", err)
		} else if renewed != nil {
			h.setSessionCookie(w, renewed)
		}

		ctx := context.WithValue(r.Context(), UserContextKey, info.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := h.auth.Authenticate(r.Context(), cookie.Value); err == nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
	}
	h.render(w, r, "login.html", "Log in", nil)
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, "/login", flashError, "Invalid form submission")
		return
	}

	session, err := h.auth.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if errors.Is(err, common.ErrInvalidCredentials) {
		h.redirectWithFlash(w, "/login", flashError, "Invalid username or password")
		return
	}
	if err != nil {
		h.serverError(w, r, "login", err)
		return
	}

	logging.FromContext(r.Context()).Info("user logged in", "user_id", session.User.ID)
	h.setSessionCookie(w, session)
	http.Redirect(w, r, "/", http.StatusFound)
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register.html", "Register", nil)
}

// Register handles the registration form submission.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, "/register", flashError, "Invalid form submission")
		return
	}

	user, err := h.auth.Register(r.Context(), r.FormValue("username"), r.FormValue("password"))
	switch {
	case errors.Is(err, common.ErrUsernameTaken):
		h.redirectWithFlash(w, "/register", flashError, "Username already exists")
		return
	case errors.Is(err, common.ErrInvalidInput):
		h.redirectWithFlash(w, "/register", flashError,
			"Username and password are required (password at most 72 bytes)")
		return
	case err != nil:
		h.serverError(w, r, "register", err)
		return
	}

	logging.FromContext(r.Context()).Info("user registered", "user_id", user.ID)
	h.redirectWithFlash(w, "/login", flashSuccess, "User registered successfully")
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			logging.FromContext(r.Context()).Error("failed to delete session", "error", err)
		}
	}
	h.clearCookie(w, SessionCookieName)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// Healthz reports whether the store is reachable.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Error("health check failed", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, s *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.Cookie,
		Path:     "/",
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// Flash kinds.
const (
	flashError   = "error"
	flashSuccess = "success"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

func (h *Handlers) redirectWithFlash(w http.ResponseWriter, target, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    url.QueryEscape(kind + ":" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set("Location", target)
	w.WriteHeader(http.StatusFound)
}

// popFlash reads and clears the flash cookie.
func (h *Handlers) popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	h.clearCookie(w, FlashCookieName)

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(raw, ":")
	if !ok || (kind != flashError && kind != flashSuccess) {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}

// Page is what every template receives.
type Page struct {
	Title string
	User  *models.User
	Flash *Flash
	Data  any
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName, title string, data any) {
	tmpl, err := template.New("base.html").Funcs(templateFuncs).ParseFiles(
		filepath.Join(h.templateDir, "base.html"),
		filepath.Join(h.templateDir, viewName),
	)
	if err != nil {
		h.serverError(w, r, "parse template "+viewName, err)
		return
	}

	page := Page{
		Title: title,
		User:  GetUserFromContext(r),
		Flash: h.popFlash(w, r),
		Data:  data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", page); err != nil {
		h.serverError(w, r, "execute template "+viewName, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logging.FromContext(r.Context()).Error(op+" failed", "error", err,
		"storage_unavailable", errors.Is(err, common.ErrStorageUnavailable))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

var templateFuncs = template.FuncMap{
	"money": func(v float64) string {
		return formatMoney(v)
	},
}
