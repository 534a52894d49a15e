package handlers

import (
	"net/http"
	"strconv"
	"time"

	"sales-ims/internal/accounts"
	"sales-ims/internal/auth"
	"sales-ims/internal/models"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	accounts *accounts.Service
	tokens   *auth.TokenIssuer
}

func NewAuthHandler(accountSvc *accounts.Service, tokens *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{accounts: accountSvc, tokens: tokens}
}

type userOut struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserOut(u *models.User) userOut {
	return userOut{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), accounts.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserOut(user))
}

// loginForm accepts the OAuth2 password form (username/password) as well as
// a JSON body with email/password.
type loginForm struct {
	Username string `form:"username" json:"email" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type tokenOut struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		abortWithBindError(c, err)
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	token, err := h.tokens.Issue(strconv.FormatUint(uint64(user.ID), 10), 0)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenOut{AccessToken: token, TokenType: "bearer"})
}
