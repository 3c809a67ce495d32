package api

import (
	"errors"
	"net/http"
	"time"

	"securedocs/docs-api/model"
	"securedocs/docs-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionUpload handles anonymous mobile capture. An expired or unknown
// session gets the same 404 so session ids can't be probed after they
// lapse.
func (a *API) SessionUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	session, ok := a.liveSession(c, requestID)
	if !ok {
		return
	}

	doc, code, err := a.uploadFromForm(c, service.SessionContext(session.ID))
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

// SessionList returns the documents captured under a session so the
// desktop side can show what arrived.
func (a *API) SessionList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	session, ok := a.liveSession(c, requestID)
	if !ok {
		return
	}

	docs, err := a.Docs.ListBySession(c.Request.Context(), session.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list session uploads", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
	})
}

// liveSession resolves the sessionID path param and rejects missing and
// expired sessions identically. Writes the response on failure.
func (a *API) liveSession(c *gin.Context, requestID string) (*model.UploadSession, bool) {
	session, err := a.Sessions.GetByID(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Session expired or not found",
				"requestID": requestID,
			})
			return nil, false
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch upload session", zap.Error(err), zap.String("requestID", requestID))
		return nil, false
	}

	if session.Expired(time.Now()) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Session expired or not found",
			"requestID": requestID,
		})
		return nil, false
	}

	return session, true
}
