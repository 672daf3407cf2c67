package stub

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loykin/apismoke/internal/auth/jwt"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "invalid request body"))
		return
	}
	if req.Username != s.opts.Username || req.Password != s.opts.Password {
		c.JSON(http.StatusOK, failure(http.StatusUnauthorized, "invalid username or password"))
		return
	}
	tok, err := jwt.Config{
		Secret:     s.opts.Secret,
		Subject:    req.Username,
		TTLSeconds: int64(s.opts.TokenTTL.Seconds()),
		Custom:     map[string]interface{}{"userId": s.opts.UserID},
	}.Issue()
	if err != nil {
		c.JSON(http.StatusInternalServerError, failure(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, success(http.StatusOK, gin.H{
		"token":    tok,
		"userId":   s.opts.UserID,
		"username": req.Username,
	}))
}
