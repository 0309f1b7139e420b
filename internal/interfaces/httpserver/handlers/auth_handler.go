package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"guestbook-server/internal/config"
	"guestbook-server/internal/interfaces/httpserver/middlewares"
	"guestbook-server/internal/interfaces/httpserver/requests"
	"guestbook-server/internal/interfaces/httpserver/responses"
)

// AuthHandler issues guest sessions behind the shared-password curtain.
type AuthHandler struct {
	cfg *config.Config
	log zerolog.Logger
}

func NewAuthHandler(cfg *config.Config, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		cfg: cfg,
		log: log.With().Str("component", "auth-handler").Logger(),
	}
}

// Login godoc
// @Summary      Open a guest session
// @Description  Exchanges the shared event password for a session token, also set as a cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      requests.LoginRequest  true  "Shared password"
// @Success      200      {object}  responses.LoginResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      401      {object}  responses.ErrorResponse
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req requests.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.cfg.AuthEnabled {
		c.JSON(http.StatusOK, responses.LoginResponse{})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.GuestPassword)) != 1 {
		h.log.Debug().Msg("rejected guest login")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong password"})
		return
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    h.cfg.ServiceName,
		Subject:   "guest",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(h.cfg.SessionTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.SessionSecret))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to sign session token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open session"})
		return
	}

	maxAge := int(h.cfg.SessionTTL.Seconds())
	c.SetCookie(middlewares.SessionCookie, token, maxAge, "/", "", false, true)
	c.JSON(http.StatusOK, responses.LoginResponse{Token: token, ExpiresIn: maxAge})
}
