package handler

import (
	"time"

	"github.com/commerce/backend/internal/application/identity"
	"github.com/commerce/backend/internal/infrastructure/auth"
	"github.com/commerce/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler handles login, token refresh and session management
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @Summary      Authenticate with email and password
// @Description  Authenticates with email and password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.LoginInput true "Request body"
// @Success      200 {object} dto.Response{data=identity.AuthResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var input identity.LoginInput
	if !h.bind(c, &input) {
		return
	}
	input.IP = c.ClientIP()
	input.UserAgent = c.Request.UserAgent()

	result, err := h.authService.Login(c.Request.Context(), input)
	h.respond(c, result, err)
}

// Refresh godoc
// @Summary      Exchange a refresh token for a new token pair
// @Description  Exchanges a refresh token for a new token pair.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RefreshInput true "Request body"
// @Success      200 {object} dto.Response{data=identity.AuthResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var input identity.RefreshInput
	if !h.bind(c, &input) {
		return
	}
	result, err := h.authService.Refresh(c.Request.Context(), input)
	h.respond(c, result, err)
}

// Logout godoc
// @Summary      End the current session and revoke the access token
// @Description  Ends the current session and revokes the access token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	err := h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		SessionID: sessionID,
		AccessJTI: claims.ID,
		AccessTTL: claims.RemainingTTL(time.Now()),
	})
	h.respondNoContent(c, err)
}

// LogoutAll godoc
// @Summary      End every session of the current user
// @Description  Ends every session of the current user.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=object}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	claims, _, ok := h.session(c)
	if !ok {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	count, err := h.authService.LogoutAll(c.Request.Context(), identity.LogoutAllInput{
		UserID:    userID,
		AccessJTI: claims.ID,
		AccessTTL: claims.RemainingTTL(time.Now()),
	})
	h.respond(c, gin.H{"revoked_sessions": count}, err)
}

// Me godoc
// @Summary      Get the current user
// @Description  Returns the authenticated user.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	info, err := h.authService.Me(c.Request.Context(), userID)
	h.respond(c, info, err)
}

// ChangePassword godoc
// @Summary      Change the password and end the user's other sessions
// @Description  Changes the password and ends the user's other sessions.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.ChangePasswordInput true "Request body"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	_, sessionID, ok := h.session(c)
	if !ok {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var input identity.ChangePasswordInput
	if !h.bind(c, &input) {
		return
	}
	input.UserID = userID
	input.SessionID = sessionID

	h.respondNoContent(c, h.authService.ChangePassword(c.Request.Context(), input))
}

// RequestPasswordReset godoc
// @Summary      Send a reset token
// @Description  Sends a reset token. The response never reveals whether the email belongs to an account.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.PasswordResetRequestInput true "Request body"
// @Success      200 {object} dto.Response{data=object}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/password-reset/request [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var input identity.PasswordResetRequestInput
	if !h.bind(c, &input) {
		return
	}
	if err := h.authService.RequestPasswordReset(c.Request.Context(), input); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "If the account exists, a reset link has been sent"})
}

// ConfirmPasswordReset godoc
// @Summary      Set a new password using a reset token
// @Description  Sets a new password using a reset token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.PasswordResetConfirmInput true "Request body"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/password-reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var input identity.PasswordResetConfirmInput
	if !h.bind(c, &input) {
		return
	}
	h.respondNoContent(c, h.authService.ResetPassword(c.Request.Context(), input))
}

func (h *AuthHandler) session(c *gin.Context) (*auth.Claims, uuid.UUID, bool) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return nil, uuid.Nil, false
	}
	sessionID, err := claims.SessionUUID()
	if err != nil {
		h.Unauthorized(c, "Invalid session")
		return nil, uuid.Nil, false
	}
	return claims, sessionID, true
}
