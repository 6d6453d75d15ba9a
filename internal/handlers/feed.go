package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vecinet/backend/internal/feed"
	"github.com/vecinet/backend/internal/geo"
)

// GetFeed returns the location-aware feed. The viewer's location comes in
// as query parameters with each request; nothing is remembered between
// calls and re-running the same query yields a fresh snapshot.
func (h *Handlers) GetFeed(c *gin.Context) {
	query := feed.Query{
		Search:   c.Query("search"),
		Category: c.DefaultQuery("category", feed.CategoryAll),
		RadiusKm: parseFloat(c.Query("radius_km"), 0),
		Limit:    parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset:   parseInt(c.DefaultQuery("offset", "0"), 0),
	}

	switch geo.ParseMethod(c.Query("method")) {
	case geo.MethodGPS:
		query.Viewer = &geo.Location{
			Coordinates: geo.Coordinates{
				Lat: parseFloat(c.Query("lat"), 0),
				Lng: parseFloat(c.Query("lng"), 0),
			},
			Method: geo.MethodGPS,
		}
	case geo.MethodPostal:
		// Unknown codes degrade to the locationless feed rather than erroring
		if loc, ok := geo.LookupPostalCode(c.Query("postal_code")); ok {
			query.Viewer = &loc
		}
	}

	items, err := h.feed.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": items,
		"meta": gin.H{
			"limit":  query.Limit,
			"offset": query.Offset,
			"total":  len(items),
		},
	})
}
