package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type sampleBody struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"omitempty,email"`
}

func (b *sampleBody) Normalize() {
	b.Username = strings.TrimSpace(b.Username)
	b.Email = strings.TrimSpace(b.Email)
}

func TestBindJSONReportsIssuesByJSONName(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var body sampleBody
		if err := BindJSON(c, &body); err != nil {
			InvalidInput(c, err)
			return
		}
		OK(c, gin.H{"ok": true})
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"username":"  ab  ","email":"nope"}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var payload struct {
		Error  string  `json:"error"`
		Issues []Issue `json:"issues"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error != "INPUT_INVALID" || len(payload.Issues) != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Issues[0].Path[0] != "username" || payload.Issues[0].Code != "min" {
		t.Fatalf("unexpected first issue: %+v", payload.Issues[0])
	}
}

func TestBindJSONMalformed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var body sampleBody
		if err := BindJSON(c, &body); err != nil {
			InvalidInput(c, err)
			return
		}
		OK(c, gin.H{"ok": true})
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "invalid_json") {
		t.Fatalf("expected invalid_json issue, got %s", resp.Body.String())
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"username":"alice"}`)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
