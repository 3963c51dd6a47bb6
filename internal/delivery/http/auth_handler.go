package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RavenLB/E-commerce/internal/entity"
)

func (h *Handler) handleRegister(c *gin.Context) {
	var in entity.RegisterInput
	if !bindJSON(c, &in) {
		return
	}

	res, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) handleLogin(c *gin.Context) {
	var in entity.LoginInput
	if !bindJSON(c, &in) {
		return
	}

	res, err := h.auth.Login(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
