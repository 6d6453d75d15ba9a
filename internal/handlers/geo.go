package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vecinet/backend/internal/geo"
)

// LookupPostalCode resolves a postal code to coordinates and an area label
func (h *Handlers) LookupPostalCode(c *gin.Context) {
	code := c.Param("code")

	location, ok := geo.LookupPostalCode(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown postal code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"location": location})
}
