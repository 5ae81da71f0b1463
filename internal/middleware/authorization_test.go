package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	config "github.com/thirdweb-dev/treasury-snapshot/configs"
)

func setupTestRouter(cfg config.BasicAuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Authorization(cfg))
	router.GET("/index", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func request(router *gin.Engine, username, password string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/index", nil)
	if username != "" || password != "" {
		req.SetBasicAuth(username, password)
	}
	router.ServeHTTP(w, req)
	return w.Code
}

func TestAuthorizationDisabledWithoutCredentials(t *testing.T) {
	router := setupTestRouter(config.BasicAuthConfig{})
	assert.Equal(t, http.StatusOK, request(router, "", ""))
}

func TestAuthorization(t *testing.T) {
	router := setupTestRouter(config.BasicAuthConfig{Username: "treasury", Password: "s3cret"})

	assert.Equal(t, http.StatusOK, request(router, "treasury", "s3cret"))
	assert.Equal(t, http.StatusUnauthorized, request(router, "treasury", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, request(router, "", ""))
}
