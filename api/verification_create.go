package api

import (
	"net/http"
	"strings"

	"securedocs/docs-api/util"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type verificationCreateBody struct {
	VerifierName   string   `json:"verifier_name"`
	RequestedTypes []string `json:"requested_types"`
}

// VerificationCreate mints a verification request and hands the
// verifier their token, a shareable link and a QR encoding of it.
func (a *API) VerificationCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data verificationCreateBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.VerifierName == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Verifier name can't be empty",
			"requestID": requestID,
		})
		return
	}

	if len(data.RequestedTypes) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "At least one requested document type is required",
			"requestID": requestID,
		})
		return
	}

	for _, t := range data.RequestedTypes {
		if strings.TrimSpace(t) == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Requested document types can't be blank",
				"requestID": requestID,
			})
			return
		}

		// The types are stored comma-joined, a comma inside one would
		// corrupt the list
		if strings.Contains(t, ",") {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Requested document types can't contain commas",
				"requestID": requestID,
			})
			return
		}
	}

	req, err := a.Ledger.CreateRequest(c.Request.Context(), data.VerifierName, data.RequestedTypes)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create verification request", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	link := viper.GetString("host.base_url") + "/verify/" + req.Token

	qr, err := util.QRDataURL(link)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to render QR code", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         req.ID,
		"token":      req.Token,
		"link":       link,
		"qr_dataurl": qr,
		"expires_at": req.ExpiresAt,
	})
}
