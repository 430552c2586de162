// Package respond writes the JSON bodies shared by every HTTP surface.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/HanTheDev/complexity-analyzer/internal/models"
	"github.com/sirupsen/logrus"
)

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Debugf("Failed to write response body: %v", err)
	}
}

// Detail writes the {"detail": ...} error body.
func Detail(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, models.ErrorResponse{Detail: detail})
}
