package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/olucas46/Pump-Di-rio/internal/middleware"
	"github.com/olucas46/Pump-Di-rio/internal/telemetry/metrics"
	"github.com/olucas46/Pump-Di-rio/internal/telemetry/tracing"
	"github.com/olucas46/Pump-Di-rio/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=auth_test

type usersRepo interface {
	Add(ctx context.Context, username, passwordHash string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type Handler struct {
	repo        usersRepo
	authService *Service
}

func NewHandler(repo usersRepo, authService *Service) *Handler {
	return &Handler{
		repo:        repo,
		authService: authService,
	}
}

func (h *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	loginAllowedPerMin int,
) {
	authSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	authSubrouter.
		HandleFunc("/register", h.HandleRegister).
		Methods("POST", "OPTIONS").Name("register")
	authSubrouter.
		HandleFunc("/login", h.HandleLogin).
		Methods("POST", "OPTIONS").Name("login")
	authSubrouter.
		HandleFunc("/logout", h.HandleLogout).
		Methods("GET", "OPTIONS").Name("logout")

	authSubrouter.Use(middleware.RateLimit(rateLimiter, "login", loginAllowedPerMin, metricsManager))
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.register")
	defer span.End()

	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	passwordHash, err := pkg.HashPassword(creds.Password)
	if err != nil {
		log.Errorf("register, hash password: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	user, err := h.repo.Add(ctx, creds.Username, passwordHash)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			http.Error(w, "error, username taken", http.StatusConflict)
			return
		}
		log.Errorf("register user [%s]: %s", creds.Username, err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	userJson, err := json.Marshal(user)
	if err != nil {
		log.Errorf("failed to marshal new user: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("new user registered: %s", user.Username)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, userJson, http.StatusCreated)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.login")
	defer span.End()

	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.repo.GetByUsername(ctx, creds.Username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		log.Errorf("login, get user [%s]: %s", creds.Username, err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	if errors.Is(err, ErrUserNotFound) || !pkg.CheckPasswordHash(creds.Password, user.PasswordHash) {
		log.Tracef("failed login attempt for user: %s", creds.Username)
		http.Error(w, "error, wrong credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.Login(ctx, user.Username, time.Now())
	if err != nil {
		log.Errorf("login failed, generate token error: %s", err)
		http.Error(w, "generate token error", http.StatusInternalServerError)
		return
	}

	loginRespJson, err := json.Marshal(LoginResponse{
		Token:    token,
		Username: user.Username,
	})
	if err != nil {
		log.Errorf("failed to marshal login response: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(loginRespJson))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	token := r.Header.Get("X-PUMP-TOKEN")
	if token == "" {
		http.Error(w, "error, token empty", http.StatusBadRequest)
		return
	}

	if err := h.authService.Logout(ctx, token); err != nil {
		log.Errorf("logout: %s", err)
		http.Error(w, "logout failed", http.StatusBadRequest)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var creds credentialsRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			log.Errorf("auth, unmarshal json params: %s", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return creds, false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("auth, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusInternalServerError)
			return creds, false
		}
		creds = credentialsRequest{
			Username: r.Form.Get("username"),
			Password: r.Form.Get("password"),
		}
	}

	if creds.Username == "" {
		http.Error(w, "error, username empty", http.StatusBadRequest)
		return creds, false
	}
	if creds.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return creds, false
	}

	return creds, true
}
