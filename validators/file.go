package validators

import (
	"errors"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrImageTooSmall       = errors.New("image is too small or unclear")
	ErrNoFile              = errors.New("no file provided")
)

const maxFileNameSize = 255

// Below this a document photo is unreadable to a verifier
const (
	minImageWidth  = 500
	minImageHeight = 400
)

// DocumentValidator checks an incoming identity document before any of
// its bytes are buffered, encrypted or stored. Size is rejected off the
// multipart header first so an oversized upload never reaches the
// crypto or storage path.
func DocumentValidator(fh *multipart.FileHeader) (int, multipart.File, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, ErrNoFile
	}

	// Check headers first which are easy to spoof, but faster for legit clients
	ct := fh.Header.Get("Content-Type")
	if !allowedContentType(ct) {
		return http.StatusBadRequest, nil, ErrFileTypeUnsupported
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, nil, ErrFileNameTooLong
	}

	if fh.Size > viper.GetInt64("upload.max_size") {
		return http.StatusRequestEntityTooLarge, nil, ErrFileTooLarge
	}

	// And now do the checks on the actual file to avoid
	// malicious clients
	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	if !allowedContentType(mime.String()) {
		f.Close()
		return http.StatusBadRequest, nil, ErrFileTypeUnsupported
	}

	if strings.HasPrefix(mime.String(), "image/") {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return http.StatusInternalServerError, nil, err
		}

		// Formats without a registered decoder skip the dimension gate,
		// the content type sniff above already vouched for them
		if cfg, _, err := image.DecodeConfig(f); err == nil {
			if cfg.Width < minImageWidth || cfg.Height < minImageHeight {
				f.Close()
				return http.StatusBadRequest, nil, ErrImageTooSmall
			}
		}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	return 0, f, nil
}

// Identity documents arrive as phone camera shots or scanned PDFs.
func allowedContentType(ct string) bool {
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "application/pdf")
}
