package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bsid.es/despertador"
)

// Response is the uniform API envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Success: false, Error: msg})
}

// failErr maps application error codes onto HTTP statuses.
func failErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch despertador.ErrorCode(err) {
	case despertador.ErrInvalid:
		status = http.StatusBadRequest
	case despertador.ErrNotFound:
		status = http.StatusNotFound
	}
	fail(c, status, despertador.ErrorDescription(err))
}
