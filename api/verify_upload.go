package api

import (
	"errors"
	"net/http"
	"time"

	"securedocs/docs-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VerifyUpload accepts a document straight against a verification
// request, for owners responding from a device with no account session.
// Expired tokens reject new uploads just like they reject new shares.
func (a *API) VerifyUpload(c *gin.Context) {
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

	if req.Expired(time.Now()) {
		c.AbortWithStatusJSON(http.StatusGone, gin.H{
			"error":     "This verification request has expired",
			"requestID": requestID,
		})
		return
	}

	doc, code, err := a.uploadFromForm(c, service.VerificationContext(req.ID))
	if err != nil {
		if code == http.StatusInternalServerError {
			zap.L().Error("Failed to upload document", zap.Error(err), zap.String("requestID", requestID))
			err = errors.New("internal server error")
		}

		c.AbortWithStatusJSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"document": doc,
	})
}
