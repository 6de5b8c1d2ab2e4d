package delivery

import (
	"net/http"

	"minihub/internal/domain"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Access  string            `json:"access"`
	Refresh string            `json:"refresh"`
	User    domain.PublicUser `json:"user"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req domain.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Handler: Failed to bind register request: %v", err)
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	user, err := h.market.Register(c.Request.Context(), h.market.Ephemeral(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondWithTokens(c, http.StatusCreated, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Handler: Failed to bind login request: %v", err)
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	user, err := h.market.Login(c.Request.Context(), h.market.Ephemeral(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondWithTokens(c, http.StatusOK, user)
}

func (h *Handler) respondWithTokens(c *gin.Context, status int, user domain.User) {
	pair, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.log.Errorf("Handler: Could not issue tokens for user %s: %v", user.ID, err)
		respondError(c, err)
		return
	}
	c.JSON(status, AuthResponse{Access: pair.Access, Refresh: pair.Refresh, User: user.Public()})
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	access, err := h.tokens.Refresh(req.Refresh)
	if err != nil {
		h.log.Warnf("Handler: Refresh rejected: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

// Logout clears the caller's cart, wishlist and session. Issued tokens stay
// valid until they expire; the next request starts a fresh session.
func (h *Handler) Logout(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.market.Logout(c.Request.Context(), sess)
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetProfile(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	user, err := h.market.CurrentUser(sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req domain.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	user, err := h.market.UpdateProfile(c.Request.Context(), sess, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

func (h *Handler) ChangePassword(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := h.market.ChangePassword(c.Request.Context(), sess, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
