package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mkarlin94/authledger"
	"github.com/mkarlin94/authledger/middleware"
)

// Config tunes the HTTP surface. Zero value works for development.
type Config struct {
	// RefreshCookieName names the HTTP-only refresh token cookie.
	// Defaults to "al_refresh".
	RefreshCookieName string
	// RefreshCookiePath scopes the cookie so browsers only attach it to
	// auth endpoints. Defaults to "/auth".
	RefreshCookiePath string
	CookieDomain      string
	// CookieSecure must be set in production so the cookie only travels
	// over TLS.
	CookieSecure bool
	// RefreshCookieTTL bounds the cookie lifetime. Align it with the
	// engine's refresh TTL. Defaults to 7 days.
	RefreshCookieTTL time.Duration
}

func (c *Config) applyDefaults() {
	if c.RefreshCookieName == "" {
		c.RefreshCookieName = "al_refresh"
	}
	if c.RefreshCookiePath == "" {
		c.RefreshCookiePath = "/auth"
	}
	if c.RefreshCookieTTL <= 0 {
		c.RefreshCookieTTL = 7 * 24 * time.Hour
	}
}

// Server holds the handler dependencies.
type Server struct {
	engine *authledger.Engine
	config Config
	log    *logrus.Logger
}

// NewServer wires the handlers around an engine.
func NewServer(engine *authledger.Engine, cfg Config, log *logrus.Logger) *Server {
	cfg.applyDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		engine: engine,
		config: cfg,
		log:    log,
	}
}

// Mount registers the auth routes on router.
func (s *Server) Mount(router gin.IRouter) {
	group := router.Group("/auth")
	group.POST("/register", s.handleRegister)
	group.POST("/login", s.handleLogin)
	group.POST("/refresh", s.handleRefresh)
	group.POST("/logout", s.handleLogout)
	group.POST("/federated-login", s.handleFederatedLogin)
	group.GET("/me", middleware.Guard(s.engine), s.handleMe)
}

// NewRouter builds a standalone router with the auth routes mounted.
func NewRouter(engine *authledger.Engine, cfg Config, log *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	server := NewServer(engine, cfg, log)
	server.Mount(router)
	return router
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
		return
	}

	user, err := s.engine.Register(s.requestContext(c), authledger.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		AvatarRef:   req.AvatarRef,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, registerResponse{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
		return
	}

	result, err := s.engine.Login(s.requestContext(c), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.writeTokenPair(c, result)
}

func (s *Server) handleRefresh(c *gin.Context) {
	token := s.refreshTokenFromRequest(c)

	result, err := s.engine.Refresh(s.requestContext(c), token)
	if err != nil {
		s.clearRefreshCookieOnAuthFailure(c, err)
		s.writeError(c, err)
		return
	}

	s.writeTokenPair(c, result)
}

func (s *Server) handleLogout(c *gin.Context) {
	token := s.refreshTokenFromRequest(c)

	if err := s.engine.Logout(s.requestContext(c), token); err != nil {
		s.writeError(c, err)
		return
	}

	s.clearRefreshCookie(c)
	c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

func (s *Server) handleFederatedLogin(c *gin.Context) {
	var req federatedLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
		return
	}

	result, err := s.engine.FederatedLogin(s.requestContext(c), req.Credential)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.writeTokenPair(c, result)
}

func (s *Server) handleMe(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	user, err := s.engine.GetUser(s.requestContext(c), principal.UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarRef:   user.AvatarRef,
		CreatedAt:   user.CreatedAt,
	})
}

// refreshTokenFromRequest prefers the cookie and falls back to the JSON
// body. An empty result is handed to the engine as-is so the missing
// token error stays in one place.
func (s *Server) refreshTokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(s.config.RefreshCookieName); err == nil && token != "" {
		return token
	}

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}

func (s *Server) writeTokenPair(c *gin.Context, result *authledger.AuthResult) {
	s.setRefreshCookie(c, result.RefreshToken)
	c.JSON(http.StatusOK, tokenResponse{
		UserID:       result.UserID,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
	})
}

func (s *Server) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		s.config.RefreshCookieName,
		token,
		int(s.config.RefreshCookieTTL/time.Second),
		s.config.RefreshCookiePath,
		s.config.CookieDomain,
		s.config.CookieSecure,
		true,
	)
}

func (s *Server) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		s.config.RefreshCookieName,
		"",
		-1,
		s.config.RefreshCookiePath,
		s.config.CookieDomain,
		s.config.CookieSecure,
		true,
	)
}

// clearRefreshCookieOnAuthFailure drops the cookie when the engine
// rejected the token it carried, so a browser stuck with a revoked
// token does not keep replaying it.
func (s *Server) clearRefreshCookieOnAuthFailure(c *gin.Context, err error) {
	if errors.Is(err, authledger.ErrInvalidCredentials) || errors.Is(err, authledger.ErrMissingToken) {
		s.clearRefreshCookie(c)
	}
}

func (s *Server) requestContext(c *gin.Context) context.Context {
	return authledger.WithClientIP(c.Request.Context(), c.ClientIP())
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authledger.ErrValidation),
		errors.Is(err, authledger.ErrEmailTaken),
		errors.Is(err, authledger.ErrInvalidCredentials),
		errors.Is(err, authledger.ErrMissingToken):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, authledger.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, authledger.ErrLoginRateLimited),
		errors.Is(err, authledger.ErrRefreshRateLimited):
		c.JSON(http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	default:
		s.log.WithError(err).WithField("path", c.FullPath()).Error("auth request failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
