package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/orgops-api/internal/models"
	appErrors "github.com/noah-isme/orgops-api/pkg/errors"
)

type tokenValidatorStub map[string]*models.JWTClaims

func (s tokenValidatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.WrapAs(appErrors.ErrUnauthorized, errors.New("bad token"), "invalid token")
}

func newProtectedRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := tokenValidatorStub{
		"officer": {UserID: "u-1", Role: models.RoleOfficer},
		"member":  {UserID: "u-2", Role: models.RoleMember},
	}
	router := gin.New()
	chain := append([]gin.HandlerFunc{JWT(tokens), RequireRoles(models.RoleAdmin, models.RoleOfficer)}, handlers...)
	chain = append(chain, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.POST("/events/import", chain...)
	return router
}

func TestJWTAndRoles(t *testing.T) {
	router := newProtectedRouter()

	cases := map[string]struct {
		header string
		status int
	}{
		"missing header": {"", http.StatusUnauthorized},
		"wrong scheme":   {"Basic officer", http.StatusUnauthorized},
		"empty bearer":   {"Bearer   ", http.StatusUnauthorized},
		"scheme casing":  {"bearer officer", http.StatusNoContent},
		"invalid token":  {"Bearer nope", http.StatusUnauthorized},
		"member role":    {"Bearer member", http.StatusForbidden},
		"officer role":   {"Bearer officer", http.StatusNoContent},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/events/import", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuditLogsActor(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := newProtectedRouter(Audit(zap.New(core), "events.import"))

	req := httptest.NewRequest(http.MethodPost, "/events/import", nil)
	req.Header.Set("Authorization", "Bearer officer")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	entries := logs.FilterMessage("audit").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "events.import", fields["action"])
		assert.Equal(t, "u-1", fields["user_id"])
		assert.Equal(t, int64(http.StatusNoContent), fields["status"])
	}
}
