package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/stockroom/internal/core/service"
)

func (h *HTTPHandler) Signup(c *gin.Context) {
	var cmd service.SignupCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	user, err := h.auth.Signup(c.Request.Context(), cmd)
	h.respond(c, http.StatusCreated, user, err)
}

func (h *HTTPHandler) Login(c *gin.Context) {
	var cmd service.LoginCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	token, err := h.auth.Login(c.Request.Context(), cmd)
	h.respond(c, http.StatusOK, gin.H{"token": token, "type": "Bearer"}, err)
}

// Me echoes the identity carried by the bearer token.
func (h *HTTPHandler) Me(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	c.JSON(http.StatusOK, identity)
}
