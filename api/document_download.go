package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentDownload lets an owner retrieve one of their own documents.
// A document belonging to someone else gets the same 404 as a
// nonexistent id.
func (a *API) DocumentDownload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	docID, err := strconv.ParseUint(c.Param("docID"), 10, 32)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Document ID must be an integer",
			"requestID": requestID,
		})
		return
	}

	doc, err := a.Docs.GetByID(c.Request.Context(), uint(docID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Document not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch document", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if doc.UserID == nil || *doc.UserID != userID {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Document not found",
			"requestID": requestID,
		})
		return
	}

	blob, err := a.Blobs.Load(c.Request.Context(), doc.StorageKey)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load document blob", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	plain, err := a.Vault.Decrypt(blob)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Stored ciphertext failed integrity check",
			zap.Uint("docID", doc.ID),
			zap.Error(err),
			zap.String("requestID", requestID))
		return
	}

	ct := doc.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalName))
	c.Data(http.StatusOK, ct, plain)
}
