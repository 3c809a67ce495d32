package api

import (
	"net/http"

	"securedocs/docs-api/util"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type sessionCreateBody struct {
	VerifierName string `json:"verifier_name"`
}

// SessionCreate opens a time-boxed anonymous upload session and returns
// the link plus a QR encoding of it for scanning with a phone.
func (a *API) SessionCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data sessionCreateBody
	// The body is optional, an empty verifier name is fine
	c.ShouldBind(&data)

	session, err := a.Sessions.Create(c.Request.Context(), data.VerifierName)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create upload session", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	link := viper.GetString("host.base_url") + "/upload/" + session.ID

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
		"session_id": session.ID,
		"link":       link,
		"qr_dataurl": qr,
		"expires_at": session.ExpiresAt,
	})
}
