package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/stacsearch/internal/search/application"
	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
	"github.com/davicafu/stacsearch/pkg/utils"
)

// SearchHandler encapsula los endpoints HTTP de búsqueda.
type SearchHandler struct {
	service *application.SearchService
	limits  Limits
	log     *zap.Logger
}

// NewSearchHandler crea un nuevo SearchHandler.
func NewSearchHandler(service *application.SearchService, limits Limits, log *zap.Logger) *SearchHandler {
	return &SearchHandler{service: service, limits: limits, log: log}
}

// Search endpoint GET /search
func (h *SearchHandler) Search(c *gin.Context) {
	req, err := parseSearchQuery(c.Request.URL.Query(), h.limits)
	if err != nil {
		utils.SendSearchError(c, err)
		return
	}
	h.run(c, req)
}

// SearchPost endpoint POST /search
func (h *SearchHandler) SearchPost(c *gin.Context) {
	var body searchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.SendBadRequest(c, "invalid search body: "+err.Error())
		return
	}

	req, err := parseSearchQuery(body.values(), h.limits)
	if err != nil {
		utils.SendSearchError(c, err)
		return
	}
	h.run(c, req)
}

// CollectionItems endpoint GET /collections/:collectionId/items
func (h *SearchHandler) CollectionItems(c *gin.Context) {
	values := c.Request.URL.Query()
	values.Set("collections", c.Param("collectionId"))

	req, err := parseSearchQuery(values, h.limits)
	if err != nil {
		utils.SendSearchError(c, err)
		return
	}
	h.run(c, req)
}

// Clause endpoint GET /search/clause: devuelve la cláusula compilada sin ejecutarla.
func (h *SearchHandler) Clause(c *gin.Context) {
	req, err := parseSearchQuery(c.Request.URL.Query(), h.limits)
	if err != nil {
		utils.SendSearchError(c, err)
		return
	}
	req.Caller = callerFrom(c)

	compiled, err := h.service.Compile(c.Request.Context(), req)
	if err != nil {
		utils.SendSearchError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, gin.H{
		"model":  compiled.Model.Name,
		"table":  compiled.Table,
		"joins":  compiled.Clause.Joins,
		"where":  compiled.Clause.Where,
		"clause": compiled.Clause.String(),
	})
}

func (h *SearchHandler) run(c *gin.Context, req application.SearchRequest) {
	req.Caller = callerFrom(c)

	result, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		se := searchDomain.AsSearchError(err)
		if se.HTTPStatus() == http.StatusInternalServerError {
			h.log.Error("Search failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		}
		utils.SendSearchError(c, err)
		return
	}

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, toFeatureCollection(result, c.Request.URL))
}
