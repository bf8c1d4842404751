package handlers

import (
	"net/http"

	"hfproxy-gateway/internal/modelmap"
)

type modelEntry struct {
	ID          string `json:"id"`
	Object      string `json:"object"`
	Created     int64  `json:"created"`
	OwnedBy     string `json:"owned_by"`
	Root        string `json:"root"`
	FullModelID string `json:"full_model_id"`
}

type modelList struct {
	Object string       `json:"object"`
	Data   []modelEntry `json:"data"`
}

// ModelsHandler serves GET /v1/models from the static alias table.
type ModelsHandler struct {
	Models *modelmap.Table
}

func NewModelsHandler(models *modelmap.Table) *ModelsHandler {
	return &ModelsHandler{Models: models}
}

func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	created := h.Models.BuiltAt().Unix()

	entries := h.Models.Entries()
	data := make([]modelEntry, 0, len(entries))
	for _, e := range entries {
		data = append(data, modelEntry{
			ID:          e.Alias,
			Object:      "model",
			Created:     created,
			OwnedBy:     modelmap.Owner(e.FullID),
			Root:        e.Alias,
			FullModelID: e.FullID,
		})
	}

	writeJSON(w, http.StatusOK, modelList{Object: "list", Data: data})
}
