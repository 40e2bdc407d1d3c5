package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
)

// ErrorResponse define la estructura estándar para las respuestas de error.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Filter  string `json:"filter,omitempty"`
}

// SendSuccess envía una respuesta exitosa con un payload de datos.
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"data": data,
	})
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error": ErrorResponse{
			Message: message,
		},
	})
}

// SendSearchError traduce cualquier error de búsqueda a su estado HTTP.
// Los errores internos no exponen la causa.
func SendSearchError(c *gin.Context, err error) {
	se := searchDomain.AsSearchError(err)
	message := se.Error()
	if se.HTTPStatus() == http.StatusInternalServerError {
		message = "internal error"
	}
	c.AbortWithStatusJSON(se.HTTPStatus(), gin.H{
		"error": ErrorResponse{
			Message: message,
			Code:    se.Code(),
			Filter:  se.Filter,
		},
	})
}

// --- Helpers específicos para errores comunes ---

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, message)
}

func SendInternalServerError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, message)
}
