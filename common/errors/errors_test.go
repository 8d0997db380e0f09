package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("Producto no encontrado"))

	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(err, ErrForbidden))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(stderrors.New("boom")))
}

func TestConflict_MapsToBadRequest(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Conflict("Email ya registrado", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ErrInvalidCredential.Code)
	assert.Equal(t, http.StatusForbidden, ErrForbidden.Code)
}

func TestErrorMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantAuth   bool
	}{
		{"validation", Validation("invalid", map[string]string{"precio": "must be >= 0"}), http.StatusBadRequest, "validation_error", false},
		{"credential", InvalidCredential("bad token", nil), http.StatusUnauthorized, "invalid_credential", true},
		{"plain error", stderrors.New("db down"), http.StatusInternalServerError, "internal_error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorMiddleware())
			r.GET("/", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, tt.wantAuth, w.Header().Get("WWW-Authenticate") == "Bearer")
		})
	}
}

func TestErrorMiddleware_InternalHidesCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorMiddleware())
	r.GET("/", func(c *gin.Context) { _ = c.Error(stderrors.New("pq: password authentication failed")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotContains(t, w.Body.String(), "password authentication")
}
