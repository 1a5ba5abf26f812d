package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldsense/occupancy-service/internal/auth"
	"github.com/fieldsense/occupancy-service/internal/ingest"
)

// RegisterEventRoutes registers the ingestion-path endpoint.
//
// POST /events
//   - Requires Auth-Token (the gateway consults the gate itself, so this
//     route is registered outside the auth middleware group)
//   - Body: {"eventType": "entry"|"exit", "deviceID": "..."}
//   - Durable: returns success only after the store append completes
func RegisterEventRoutes(r gin.IRoutes, gw *ingest.Gateway) {
	r.POST("/events", func(c *gin.Context) {
		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"kind": "malformed_payload", "reason": "decode", "error": "unreadable request body"})
			return
		}

		rec, err := gw.Ingest(c.Request.Context(), raw, auth.Token(c))
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"deviceID":  rec.DeviceID,
			"eventType": rec.Type,
			"createdAt": rec.CreatedAt.Format(time.RFC3339Nano),
		})
	})
}
