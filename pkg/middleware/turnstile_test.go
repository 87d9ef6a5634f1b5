package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnstile(t *testing.T) {
	verify := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "site-secret", r.PostForm.Get("secret"))

		json.NewEncoder(w).Encode(turnstileResponse{
			Success:    r.PostForm.Get("response") == "human",
			ErrorCodes: []string{"invalid-input-response"},
		})
	}))
	defer verify.Close()

	r := gin.New()
	r.POST("/register", NewTurnstileMiddleware(TurnstileConfig{
		Enabled:   true,
		Secret:    "site-secret",
		VerifyURL: verify.URL,
	}), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing", "", http.StatusBadRequest},
		{"rejected", "robot", http.StatusUnauthorized},
		{"accepted", "human", http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/register", nil)
			if tt.token != "" {
				req.Header.Set(TurnstileHeader, tt.token)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestTurnstileDisabled(t *testing.T) {
	r := gin.New()
	r.POST("/register", NewTurnstileMiddleware(TurnstileConfig{}), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/register", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestTurnstileUnavailable(t *testing.T) {
	verify := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer verify.Close()

	r := gin.New()
	r.POST("/register", NewTurnstileMiddleware(TurnstileConfig{Enabled: true, Secret: "s", VerifyURL: verify.URL}), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/register", nil)
	req.Header.Set(TurnstileHeader, "human")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
