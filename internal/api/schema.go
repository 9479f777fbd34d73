package api

import (
	"net/http"

	"github.com/datachat/datachat/internal/dataset"
)

type schemaResponse struct {
	dataset.Schema
	Descriptor string `json:"descriptor"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "DATASET_NOT_CONFIGURED", "dataset is not loaded", false, nil)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{
		Schema:     *deps.Schema,
		Descriptor: deps.Descriptor,
	})
}
