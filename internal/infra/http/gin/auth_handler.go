package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentacar/internal/app/access"
	"rentacar/internal/app/dto"
	authsvc "rentacar/internal/app/services/auth"
	domainuser "rentacar/internal/domain/user"
)

type AuthHandler struct {
	Service *authsvc.Service
	Logger  *slog.Logger
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	NICOrPassport string `json:"nic_or_passport"`
	District      string `json:"district"`
	City          string `json:"city"`
}

func (h AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, "register", badRequest(err))
		return
	}
	result, err := h.Service.Register(c.Request.Context(), authsvc.RegisterParams{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.Logger, "register", err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapSession(result.Session, result.User))
}

func (h AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, "login", badRequest(err))
		return
	}
	result, err := h.Service.Login(c.Request.Context(), authsvc.LoginParams{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.Logger, "login", err)
		return
	}
	c.JSON(http.StatusOK, dto.MapSession(result.Session, result.User))
}

func (h AuthHandler) Logout(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if err := h.Service.Logout(c.Request.Context(), token); err != nil {
		respondError(c, h.Logger, "logout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AuthHandler) Me(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		respondError(c, h.Logger, "profile", access.ErrUnauthenticated)
		return
	}
	user, err := h.Service.Profile(c.Request.Context(), session.UserID)
	if err != nil {
		respondError(c, h.Logger, "profile", err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUser(user))
}

// UpdateProfile stores the details used to prefill the checkout form.
func (h AuthHandler) UpdateProfile(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		respondError(c, h.Logger, "profile update", access.ErrUnauthenticated)
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, "profile update", badRequest(err))
		return
	}
	user, err := h.Service.UpdateProfile(c.Request.Context(), session.UserID, req.Name, domainuser.Profile{
		Phone:         req.Phone,
		NICOrPassport: req.NICOrPassport,
		District:      req.District,
		City:          req.City,
	})
	if err != nil {
		respondError(c, h.Logger, "profile update", err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUser(user))
}

var _ AuthHTTP = AuthHandler{}
