package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/middleware"
	"github.com/ghorbari/ghorbari/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

// newTestRouter creates a gin engine with an injected principal, standing in
// for the auth middleware.
func newTestRouter(p models.Principal) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.PrincipalKey, p)
		c.Next()
	})

	return r
}

// newAnonymousRouter creates a gin engine with no principal injected,
// standing in for an unauthenticated request on a public route.
func newAnonymousRouter() *gin.Engine {
	return gin.New()
}

func ownerPrincipal() models.Principal {
	return models.Principal{Email: "owner@example.com", Name: "Owner", Role: models.RoleOwner}
}

func seekerPrincipal() models.Principal {
	return models.Principal{Email: "seeker@example.com", Name: "Seeker", Role: models.RoleSeeker}
}

func adminPrincipal() models.Principal {
	return models.Principal{Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}
}

// doRequest performs an HTTP request against the test router and returns the recorder.
func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}
