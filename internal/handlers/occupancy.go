package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldsense/occupancy-service/internal/occupancy"
)

// RegisterQueryRoutes registers the read-side endpoints. All of them go
// behind the auth middleware; none mutates state.
//
//	GET /occupancy?at=...                     current occupant count
//	GET /events?from=...&to=...               operational dump, all devices
//	GET /devices/:id/events?from=...&to=...   per-device history
//	GET /devices/:id/counts?from=...&to=...   entry/exit tallies (window required)
//	GET /devices/:id/status?at=...            business-hours status
func RegisterQueryRoutes(r gin.IRoutes, eng *occupancy.Engine, dump occupancy.Store) {
	r.GET("/occupancy", func(c *gin.Context) {
		asOf, ok := timeParam(c, "at")
		if !ok {
			return
		}

		count, err := eng.CurrentOccupancy(c.Request.Context(), asOf)
		if err != nil {
			writeError(c, err)
			return
		}

		if asOf.IsZero() {
			asOf = time.Now().UTC()
		}
		c.JSON(http.StatusOK, gin.H{
			"occupancy": count,
			"asOf":      asOf.Format(time.RFC3339Nano),
		})
	})

	r.GET("/events", func(c *gin.Context) {
		from, ok := timeParam(c, "from")
		if !ok {
			return
		}
		to, ok := timeParam(c, "to")
		if !ok {
			return
		}

		events, err := dump.QueryAll(c.Request.Context(), from, to)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
	})

	r.GET("/devices/:id/events", func(c *gin.Context) {
		from, ok := timeParam(c, "from")
		if !ok {
			return
		}
		to, ok := timeParam(c, "to")
		if !ok {
			return
		}

		events, err := eng.DeviceHistory(c.Request.Context(), c.Param("id"), from, to)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deviceID": c.Param("id"), "events": events, "count": len(events)})
	})

	r.GET("/devices/:id/counts", func(c *gin.Context) {
		from, ok := timeParam(c, "from")
		if !ok {
			return
		}
		to, ok := timeParam(c, "to")
		if !ok {
			return
		}
		// Counts are only meaningful over a bounded window.
		if from.IsZero() || to.IsZero() {
			c.JSON(http.StatusBadRequest, gin.H{"kind": "bad_request", "error": "from and to are required"})
			return
		}
		if !from.Before(to) {
			c.JSON(http.StatusBadRequest, gin.H{"kind": "bad_request", "error": "from must be < to"})
			return
		}

		counts, err := eng.DeviceEventCounts(c.Request.Context(), c.Param("id"), from, to)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"deviceID":   c.Param("id"),
			"entryCount": counts.Entries,
			"exitCount":  counts.Exits,
		})
	})

	r.GET("/devices/:id/status", func(c *gin.Context) {
		at, ok := timeParam(c, "at")
		if !ok {
			return
		}

		status, err := eng.InBusinessHours(c.Request.Context(), c.Param("id"), at)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"deviceID":    c.Param("id"),
			"active":      status.Active,
			"withinHours": status.WithinHours,
			"lastEvent":   status.LastEvent,
		})
	})
}
