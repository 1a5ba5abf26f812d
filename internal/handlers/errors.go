package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldsense/occupancy-service/internal/ingest"
	"github.com/fieldsense/occupancy-service/internal/models"
	"github.com/fieldsense/occupancy-service/internal/store"
)

// writeError maps the typed core errors onto HTTP. The stable contract is
// the JSON "kind" field; status codes are a courtesy. Nothing here collapses
// a failure into a success-shaped body.
func writeError(c *gin.Context, err error) {
	var (
		malformed *ingest.MalformedPayloadError
		invalid   *models.ValidationError
		storeErr  *store.StorageError
	)

	switch {
	case errors.Is(err, ingest.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"kind": "unauthorized", "error": "unauthorized"})

	case errors.As(err, &malformed):
		body := gin.H{"kind": "malformed_payload", "reason": "decode", "error": malformed.Error()}
		if malformed.MissingKey != "" {
			body["reason"] = "missing_key"
			body["key"] = malformed.MissingKey
		}
		c.JSON(http.StatusBadRequest, body)

	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"kind": "invalid_event", "error": invalid.Error()})

	case errors.As(err, &storeErr):
		status := http.StatusInternalServerError
		if storeErr.Kind == store.KindConnection || storeErr.Kind == store.KindTimeout {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"kind": "storage_error", "reason": string(storeErr.Kind)})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"kind": "internal", "error": "internal error"})
	}
}

// timeParam parses an optional RFC3339 query parameter, normalized to UTC.
// A missing parameter yields the zero time (open bound). On a parse failure
// it writes the 400 itself and reports ok=false.
func timeParam(c *gin.Context, name string) (t time.Time, ok bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": "bad_request", "error": name + " must be RFC3339"})
		return time.Time{}, false
	}
	return t.UTC(), true
}
