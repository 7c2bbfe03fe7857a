package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caravela/go-store-api/internal/dto"
	"github.com/caravela/go-store-api/internal/repository"
	"github.com/caravela/go-store-api/internal/service"
)

// storeFailure maps the shared tail of the error taxonomy (duplicate
// keys, schema rejections, store-level and partial failures) to the
// wire result shape. Endpoint-specific errors such as not-found and
// insufficient stock are handled at each call site before falling
// through to here.
func storeFailure(c *gin.Context, err error) {
	var dup *repository.DuplicateKeyError
	if errors.As(err, &dup) {
		c.JSON(http.StatusConflict, dto.Result{Failed: "Duplicate key error", Message: dup.Detail})
		return
	}

	var validation *repository.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusUnprocessableEntity, dto.Result{Failed: "Validate error", Message: validation.Detail})
		return
	}

	var partial *service.PartialFailureError
	if errors.As(err, &partial) {
		c.JSON(http.StatusInternalServerError, dto.Result{
			Failed:  "operation partially applied",
			Message: partial.Completed,
		})
		return
	}

	var op *repository.OperationError
	if errors.As(err, &op) {
		c.JSON(http.StatusInternalServerError, dto.Result{Failed: "an error has occurred: database operation fails"})
		return
	}

	c.JSON(http.StatusInternalServerError, dto.Result{Failed: "an error has occurred"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.Result{Failed: err.Error()})
}
