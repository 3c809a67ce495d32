package api

import (
	"errors"
	"net/http"

	"securedocs/docs-api/authz"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type shareBody struct {
	DocID uint `json:"doc_id"`
}

// VerifyShare records the authenticated owner's consent to disclose one
// of their documents under this token.
func (a *API) VerifyShare(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)
	token := c.Param("token")

	var data shareBody
	if err := c.ShouldBind(&data); err != nil || data.DocID == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "doc_id is required",
			"requestID": requestID,
		})
		return
	}

	err := a.Authz.RequestShare(c.Request.Context(), token, data.DocID, userID)
	if err != nil {
		switch {
		case errors.Is(err, authz.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Not found",
				"requestID": requestID,
			})
		case errors.Is(err, authz.ErrExpired):
			c.AbortWithStatusJSON(http.StatusGone, gin.H{
				"error":     "This verification request has expired",
				"requestID": requestID,
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to record share", zap.Error(err), zap.String("requestID", requestID))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shared": data.DocID,
	})
}
