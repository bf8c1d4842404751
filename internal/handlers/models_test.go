package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hfproxy-gateway/internal/modelmap"
)

func TestModelsList(t *testing.T) {
	h := NewModelsHandler(modelmap.Default(""))

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp struct {
		Object string `json:"object"`
		Data   []struct {
			ID          string `json:"id"`
			Object      string `json:"object"`
			Created     int64  `json:"created"`
			OwnedBy     string `json:"owned_by"`
			Root        string `json:"root"`
			FullModelID string `json:"full_model_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Object != "list" || len(resp.Data) == 0 {
		t.Fatalf("unexpected list envelope: %+v", resp)
	}

	found := false
	for _, m := range resp.Data {
		if m.ID != m.Root {
			t.Fatalf("root must equal alias: %+v", m)
		}
		if m.Object != "model" || m.Created == 0 || m.OwnedBy == "" {
			t.Fatalf("incomplete entry: %+v", m)
		}
		if m.ID == "llama-3.1-70b" {
			found = true
			if m.FullModelID != "meta-llama/Llama-3.1-70B-Instruct" {
				t.Fatalf("wrong full id: %+v", m)
			}
		}
	}
	if !found {
		t.Fatalf("expected llama-3.1-70b in listing")
	}
}
