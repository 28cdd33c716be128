package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDecodeJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Body.WriteString(`{"state":"running"}`)

	var got struct {
		State string `json:"state"`
	}
	DecodeJSON(t, rec, &got)
	if got.State != "running" {
		t.Errorf("state = %q, want running", got.State)
	}
}

func TestAssertStatusCodePasses(t *testing.T) {
	AssertStatusCode(t, http.StatusOK, http.StatusOK)
}
