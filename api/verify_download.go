package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"securedocs/docs-api/authz"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VerifyDownload releases a document to the token holder, but only if
// the owner's consent for exactly this (token, document) pair is in the
// audit log. The decision itself lives in the authorizer.
func (a *API) VerifyDownload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	token := c.Param("token")

	docID, err := strconv.ParseUint(c.Param("docID"), 10, 32)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Document ID must be an integer",
			"requestID": requestID,
		})
		return
	}

	dl, err := a.Authz.RequestDownload(c.Request.Context(), token, uint(docID))
	if err != nil {
		switch {
		case errors.Is(err, authz.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Not found",
				"requestID": requestID,
			})
		case errors.Is(err, authz.ErrForbidden):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "This document has not been shared with you",
				"requestID": requestID,
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to release document", zap.Error(err), zap.String("requestID", requestID))
		}
		return
	}

	ct := dl.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	c.Data(http.StatusOK, ct, dl.Content)
}
