package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
)

type SearchController struct {
	searchService service.SearchService
}

func NewSearchController(searchService service.SearchService) *SearchController {
	return &SearchController{searchService: searchService}
}

// Suggestions GET /api/v1/search/suggestions?q=
func (ctrl *SearchController) Suggestions(c *gin.Context) {
	suggestions, err := ctrl.searchService.Suggest(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondServiceError(c, err, "search")
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// Search GET /api/v1/search?q=&limit=&offset=
func (ctrl *SearchController) Search(c *gin.Context) {
	result, err := ctrl.searchService.Search(
		c.Request.Context(),
		c.Query("q"),
		queryInt(c, "limit", 0),
		queryInt(c, "offset", 0),
	)
	if err != nil {
		respondServiceError(c, err, "search")
		return
	}
	c.JSON(http.StatusOK, result)
}
