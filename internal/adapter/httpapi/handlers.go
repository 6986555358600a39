package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"montreal-tree-map/internal/dataset"
	"montreal-tree-map/internal/viewer"
)

// handleTrees answers the slider query: GET /api/v1/trees?year=2010
// [&mode=cumulative|year][&species=Elm]. The response is a GeoJSON
// FeatureCollection ready for the map layer.
func (s *Server) handleTrees(c *gin.Context) {
	store := s.readyStore(c)
	if store == nil {
		return
	}

	yearStr := c.Query("year")
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer, got " + strconv.Quote(yearStr)})
		return
	}

	mode, err := viewer.ParseMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records := store.Query(year, mode)
	records = viewer.FilterSpecies(records, c.Query("species"))
	s.metrics.QueriesServed.WithLabelValues(string(mode)).Inc()

	features := make([]dataset.Feature, 0, len(records))
	for _, rec := range records {
		features = append(features, dataset.RecordFeature(rec))
	}
	c.JSON(http.StatusOK, dataset.FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	})
}

// handleYears returns the per-year planting counts the slider is built
// from.
func (s *Server) handleYears(c *gin.Context) {
	store := s.readyStore(c)
	if store == nil {
		return
	}

	type yearCount struct {
		Year  int `json:"year"`
		Count int `json:"count"`
	}

	years := store.Years()
	counts := make([]yearCount, 0, len(years))
	for _, y := range years {
		counts = append(counts, yearCount{Year: y, Count: store.YearCount(y)})
	}

	resp := gin.H{"years": counts}
	if minYear, maxYear, ok := store.YearRange(); ok {
		resp["min"] = minYear
		resp["max"] = maxYear
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSpecies(c *gin.Context) {
	store := s.readyStore(c)
	if store == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"species": store.Species()})
}

func (s *Server) handleMeta(c *gin.Context) {
	store := s.readyStore(c)
	if store == nil {
		return
	}

	resp := gin.H{
		"records": store.Len(),
		"skipped": store.Skipped(),
	}
	if meta := store.Metadata(); meta != nil {
		resp["metadata"] = meta
	}
	c.JSON(http.StatusOK, resp)
}
