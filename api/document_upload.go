package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"securedocs/docs-api/blobstore"
	"securedocs/docs-api/service"
	"securedocs/docs-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) DocumentUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	doc, code, err := a.uploadFromForm(c, service.OwnerContext(userID))
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

// uploadFromForm is the shared multipart handling for the three upload
// endpoints. The validator rejects oversized and mistyped files before
// the bytes are buffered for encryption.
func (a *API) uploadFromForm(c *gin.Context, uc service.UploadContext) (any, int, error) {
	if !strings.HasPrefix(c.Request.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, http.StatusBadRequest, errors.New("expected a multipart form")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("invalid multipart form")
	}

	files := form.File["file"]
	if len(files) == 0 {
		return nil, http.StatusBadRequest, validators.ErrNoFile
	}

	fh := files[0]

	code, f, err := validators.DocumentValidator(fh)
	if err != nil {
		return nil, code, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	docType := c.PostForm("doc_type")
	contentType := fh.Header.Get("Content-Type")

	doc, err := a.Uploader.Upload(c.Request.Context(), uc, docType, fh.Filename, contentType, data)
	if err != nil {
		if errors.Is(err, blobstore.ErrInvalidFilename) {
			return nil, http.StatusBadRequest, err
		}

		return nil, http.StatusInternalServerError, err
	}

	return doc, 0, nil
}
