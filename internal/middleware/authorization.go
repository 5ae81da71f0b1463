package middleware

import (
	"crypto/subtle"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/treasury-snapshot/api"
	config "github.com/thirdweb-dev/treasury-snapshot/configs"
)

var ErrUnauthorized = fmt.Errorf("invalid username or password")

// Authorization enforces basic auth when credentials are configured and lets
// every request through otherwise.
func Authorization(cfg config.BasicAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Username == "" && cfg.Password == "" {
			c.Next()
			return
		}
		username, password, ok := c.Request.BasicAuth()
		if !ok || !validateCredentials(cfg, username, password) {
			log.Warn().Str("path", c.Request.URL.Path).Msg(ErrUnauthorized.Error())
			api.UnauthorizedErrorHandler(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func validateCredentials(cfg config.BasicAuthConfig, username, password string) bool {
	userOk := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
	passOk := subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password)) == 1
	return userOk && passOk
}
