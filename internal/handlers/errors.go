package handlers

import (
	"github.com/gin-gonic/gin"

	apierrors "github.com/zfogg/sidechain/backend/internal/errors"
)

// writeAPIError aborts the request with the status and JSON body
// carried by an *apierrors.APIError, so every handler reports errors
// through one code path.
func writeAPIError(c *gin.Context, err *apierrors.APIError) {
	c.AbortWithStatusJSON(err.Status, err)
}

// writeErr wraps a generic error into an APIError before writing it.
func writeErr(c *gin.Context, err error) {
	writeAPIError(c, apierrors.AsAPIError(err))
}
