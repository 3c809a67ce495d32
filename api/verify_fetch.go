package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VerifyFetch returns what a verification request is asking for and
// which documents have consent logged. Possession of the token is the
// only credential needed here.
func (a *API) VerifyFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	token := c.Param("token")

	req, err := a.Ledger.GetByToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Verification request not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch verification request", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	shared, err := a.Authz.SharedDocuments(c.Request.Context(), req.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to derive share state", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	sharedIDs := make([]uint, 0, len(shared))
	for id := range shared {
		sharedIDs = append(sharedIDs, id)
	}

	c.JSON(http.StatusOK, gin.H{
		"verifier_name":   req.VerifierName,
		"requested_types": req.RequestedTypes,
		"expires_at":      req.ExpiresAt,
		"expired":         req.Expired(time.Now()),
		"shared_doc_ids":  sharedIDs,
	})
}
