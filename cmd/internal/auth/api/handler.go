package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Jfafa/Stibo-auth/cmd/identity"
	"github.com/Jfafa/Stibo-auth/cmd/internal/auth/credential"
	"github.com/Jfafa/Stibo-auth/cmd/internal/auth/gate"
)

const (
	msgRegistered     = "User registered successfully"
	msgAuthenticated  = "Authentication successful"
	msgConflict       = "Username or email already exists"
	msgBadCredentials = "Invalid credentials"
	msgUnknownIdent   = "Incorrect username or email"
	msgBadPassword    = "Incorrect password"
	msgUserNotFound   = "User not found"
	msgInvalidBody    = "Invalid request body"
	msgInternal       = "Internal Server Error"
	msgMeInternal     = "Error fetching user data"

	msgTokenMissing    = "Authentication token is missing"
	msgHeaderMalformed = "Malformed authorization header"
	msgTokenInvalid    = "Invalid or expired token"
)

// Handler wires the HTTP auth endpoints to the credential service.
type Handler struct {
	log     *slog.Logger
	cfg     Config
	creds   *credential.Service
	gate    *gate.Gate
	metrics *Metrics
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithMetrics records auth outcomes on m.
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) {
		if h == nil || m == nil {
			return
		}
		h.metrics = m
	}
}

// NewHandler constructs an auth Handler. verify checks bearer tokens for /me.
func NewHandler(log *slog.Logger, cfg Config, creds *credential.Service, verify gate.VerifyFunc, opts ...HandlerOption) (*Handler, error) {
	if creds == nil {
		return nil, errors.New("auth: nil credential service")
	}
	if verify == nil {
		return nil, errors.New("auth: nil token verifier")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	h := &Handler{
		log:   log,
		cfg:   cfg,
		creds: creds,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	h.gate = gate.New(verify, gate.WithRejectHandler(h.reject))

	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	p := h.cfg.RoutePrefix
	mux.Handle(p+"/register", allowMethod(http.MethodPost, http.HandlerFunc(h.handleRegister)))
	mux.Handle(p+"/login", allowMethod(http.MethodPost, http.HandlerFunc(h.handleLogin)))
	mux.Handle(p+"/me", allowMethod(http.MethodGet, h.gate.Require(http.HandlerFunc(h.handleMe))))
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.metrics.observeRegister(ResultInvalid)
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	ctx := r.Context()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())

	res, err := h.creds.Register(ctx, credential.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		var (
			ve credential.ValidationError
			ce credential.ConflictError
		)
		switch {
		case errors.As(err, &ve):
			h.metrics.observeRegister(ResultInvalid)
			writeError(w, http.StatusBadRequest, ve.Msg)
		case errors.As(err, &ce):
			h.metrics.observeRegister(ResultConflict)
			h.auditRegisterConflict(ctx, ce.Field, ip, ua)
			writeError(w, http.StatusConflict, msgConflict)
		default:
			h.metrics.observeRegister(ResultError)
			h.log.Error("auth.register.fail", "err", err)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	h.metrics.observeRegister(ResultSuccess)
	h.auditRegisterSuccess(ctx, res.User.ID, ip, ua)

	writeJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: msgRegistered,
		Token:   res.Token,
		User:    toUserResponse(res.User),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.metrics.observeLogin(ResultInvalid)
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	ctx := r.Context()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())
	ident := loginIdentifier(req)

	res, err := h.creds.Login(ctx, ident, req.Password)
	if err != nil {
		var ve credential.ValidationError
		if errors.As(err, &ve) {
			h.metrics.observeLogin(ResultInvalid)
			writeError(w, http.StatusBadRequest, ve.Msg)
			return
		}
		if reason, ok := credential.UnauthorizedReason(err); ok {
			h.metrics.observeLogin(string(reason))
			h.auditLoginFailed(ctx, ip, ua, identity.NormalizeIdentifier(ident), string(reason))
			writeError(w, http.StatusUnauthorized, h.loginFailureMessage(reason))
			return
		}
		h.metrics.observeLogin(ResultError)
		h.log.Error("auth.login.fail", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	h.metrics.observeLogin(ResultSuccess)
	h.auditLoginSuccess(ctx, res.User.ID, ip, ua, identity.NormalizeIdentifier(ident))

	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: msgAuthenticated,
		Token:   res.Token,
		User:    toUserResponse(res.User),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		h.reject(w, r, gate.MissingToken)
		return
	}

	u, err := h.creds.WhoAmI(r.Context(), p)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.log.Error("auth.me.fail", "err", err)
		writeError(w, http.StatusInternalServerError, msgMeInternal)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{Success: true, User: toUserResponse(u)})
}

// ---- helpers ----

func (h *Handler) reject(w http.ResponseWriter, _ *http.Request, reason gate.Reason) {
	h.metrics.observeRejection(string(reason))

	msg := msgTokenInvalid
	switch reason {
	case gate.MissingToken:
		msg = msgTokenMissing
	case gate.MalformedHeader:
		msg = msgHeaderMalformed
	}
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, msg)
}

func (h *Handler) loginFailureMessage(reason credential.Reason) string {
	if !h.cfg.ExposeLoginFailureReason {
		return msgBadCredentials
	}
	switch reason {
	case credential.UnknownIdentifier:
		return msgUnknownIdent
	case credential.BadPassword:
		return msgBadPassword
	default:
		return msgBadCredentials
	}
}
