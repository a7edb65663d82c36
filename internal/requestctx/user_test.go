package requestctx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{name: "explicit user", header: "alice@example.com", wantStatus: http.StatusOK, wantUser: "alice@example.com"},
		{name: "missing header", header: "", wantStatus: http.StatusOK, wantUser: DefaultUserID},
		{name: "trimmed", header: "  bob ", wantStatus: http.StatusOK, wantUser: "bob"},
		{name: "invalid characters", header: "bob; drop", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = UserID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(HeaderUserID, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantUser, got)
			}
		})
	}
}

func TestUserID_Default(t *testing.T) {
	assert.Equal(t, DefaultUserID, UserID(context.Background()))
	assert.Equal(t, "u1", UserID(WithUserID(context.Background(), "u1")))
}
