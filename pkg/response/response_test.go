package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/studentroster/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestResponseError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"wrapped not found", fmt.Errorf("student: %w", apperror.ErrNotFound), http.StatusNotFound, "student: resource not found"},
		{"conflict", apperror.New(http.StatusConflict, "roll number already exists", apperror.ErrConflict), http.StatusConflict, "roll number already exists"},
		{"internal is masked", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			ResponseError(c, tc.err)

			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != tc.wantMsg {
				t.Fatalf("error = %q, want %q", body["error"], tc.wantMsg)
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, err := GetUserID(c); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("missing user must be unauthorized, got %v", err)
	}

	id := uuid.New()
	c.Set("user_id", id.String())
	got, err := GetUserID(c)
	if err != nil || got != id {
		t.Fatalf("GetUserID = %v, %v; want %v", got, err, id)
	}
}
