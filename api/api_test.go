package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"securedocs/docs-api/authz"
	"securedocs/docs-api/blobstore"
	"securedocs/docs-api/middleware"
	"securedocs/docs-api/model"
	"securedocs/docs-api/security"
	"securedocs/docs-api/service"
	"securedocs/docs-api/store"
	"securedocs/docs-api/vault"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestAPI(t *testing.T) *API {
	t.Helper()

	gin.SetMode(gin.TestMode)
	zap.ReplaceGlobals(zap.NewNop())

	viper.Set("jwt.secret", "test-secret")
	viper.Set("upload.max_size", 8<<20)
	viper.Set("host.base_url", "http://localhost:5173")
	viper.Set("verification.token_ttl_hours", 24)
	viper.Set("session.ttl_minutes", 60)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		model.User{},
		model.Document{},
		model.VerificationRequest{},
		model.AuditLog{},
		model.UploadSession{},
	))

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(255 - i)
	}

	v, err := vault.New(key)
	require.NoError(t, err)

	blobs, err := blobstore.NewLocal(t.TempDir())
	require.NoError(t, err)

	a := &API{
		DB:       db,
		Argon:    security.New(),
		Vault:    v,
		Blobs:    blobs,
		Authz:    authz.New(db, v, blobs),
		Uploader: service.NewUploader(db, v, blobs),
		Docs:     store.NewDocuments(db),
		Ledger:   store.NewVerifications(db),
		Audit:    store.NewAudit(db),
		Sessions: store.NewSessions(db),
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.NewRequestIDMiddleware())
	a.Router = router
	a.registerRoutes()

	return a
}

func doJSON(t *testing.T, a *API, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	return w
}

func doUpload(t *testing.T, a *API, path, filename, contentType string, content []byte, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("doc_type", "passport"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	return w
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))

	return m
}

func registerAndLogin(t *testing.T, a *API, email string) *http.Cookie {
	t.Helper()

	w := doJSON(t, a, http.MethodPost, "/api/users", gin.H{
		"email":    email,
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, a, http.MethodPost, "/api/users/login", gin.H{
		"email":    email,
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, ck := range w.Result().Cookies() {
		if ck.Name == "auth_token" {
			return ck
		}
	}

	t.Fatal("login did not set an auth_token cookie")
	return nil
}

func uploadOwnedDoc(t *testing.T, a *API, auth *http.Cookie) uint {
	t.Helper()

	w := doUpload(t, a, "/api/documents", "passport.png", "image/png", pngBytes, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	doc := parseBody(t, w)["document"].(map[string]any)
	return uint(doc["id"].(float64))
}

func createVerification(t *testing.T, a *API) (uint, string) {
	t.Helper()

	w := doJSON(t, a, http.MethodPost, "/api/verifications", gin.H{
		"verifier_name":   "Acme Bank",
		"requested_types": []string{"passport"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := parseBody(t, w)
	return uint(body["id"].(float64)), body["token"].(string)
}

func TestRegisterAndLogin(t *testing.T) {
	a := newTestAPI(t)

	w := doJSON(t, a, http.MethodPost, "/api/users", gin.H{
		"email":    "alice@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, parseBody(t, w)["userID"])

	// Same email again
	w = doJSON(t, a, http.MethodPost, "/api/users", gin.H{
		"email":    "alice@example.com",
		"password": "correct horse battery",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Wrong password and unknown email are indistinguishable
	wrong := doJSON(t, a, http.MethodPost, "/api/users/login", gin.H{
		"email":    "alice@example.com",
		"password": "not the password",
	})
	unknown := doJSON(t, a, http.MethodPost, "/api/users/login", gin.H{
		"email":    "nobody@example.com",
		"password": "whatever it is",
	})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, parseBody(t, wrong)["error"], parseBody(t, unknown)["error"])
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	a := newTestAPI(t)

	w := doJSON(t, a, http.MethodPost, "/api/users", gin.H{
		"email":    "not-an-email",
		"password": "correct horse battery",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, a, http.MethodPost, "/api/users", gin.H{
		"email":    "bob@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisclosureFlow(t *testing.T) {
	a := newTestAPI(t)

	auth := registerAndLogin(t, a, "alice@example.com")
	docID := uploadOwnedDoc(t, a, auth)
	_, token := createVerification(t, a)

	// Nothing shared yet
	w := doJSON(t, a, http.MethodGet, "/api/verify/"+token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, parseBody(t, w)["shared_doc_ids"])

	docPath := "/api/verify/" + token + "/download/" + strconv.Itoa(int(docID))

	// Download without consent is refused
	w = doJSON(t, a, http.MethodGet, docPath, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Owner consents
	w = doJSON(t, a, http.MethodPost, "/api/verify/"+token+"/share", gin.H{"doc_id": docID}, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, a, http.MethodGet, "/api/verify/"+token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, parseBody(t, w)["shared_doc_ids"], 1)

	// Verifier receives the decrypted original
	w = doJSON(t, a, http.MethodGet, docPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngBytes, w.Body.Bytes())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "passport.png")

	// And can come back for it again
	w = doJSON(t, a, http.MethodGet, docPath, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestShareRequiresOwnership(t *testing.T) {
	a := newTestAPI(t)

	aliceAuth := registerAndLogin(t, a, "alice@example.com")
	malloryAuth := registerAndLogin(t, a, "mallory@example.com")
	docID := uploadOwnedDoc(t, a, aliceAuth)
	_, token := createVerification(t, a)

	// Someone else's document and a nonexistent one look the same
	w := doJSON(t, a, http.MethodPost, "/api/verify/"+token+"/share", gin.H{"doc_id": docID}, malloryAuth)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, a, http.MethodPost, "/api/verify/"+token+"/share", gin.H{"doc_id": docID + 99}, malloryAuth)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Without a login there is no share at all
	w = doJSON(t, a, http.MethodPost, "/api/verify/"+token+"/share", gin.H{"doc_id": docID})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestShareOnExpiredToken(t *testing.T) {
	a := newTestAPI(t)

	auth := registerAndLogin(t, a, "alice@example.com")
	docID := uploadOwnedDoc(t, a, auth)
	reqID, token := createVerification(t, a)

	require.NoError(t, a.DB.Model(model.VerificationRequest{}).
		Where("id = ?", reqID).
		Update("expires_at", time.Now().Add(-time.Minute)).
		Error)

	w := doJSON(t, a, http.MethodPost, "/api/verify/"+token+"/share", gin.H{"doc_id": docID}, auth)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestOwnerDownload(t *testing.T) {
	a := newTestAPI(t)

	aliceAuth := registerAndLogin(t, a, "alice@example.com")
	malloryAuth := registerAndLogin(t, a, "mallory@example.com")
	docID := uploadOwnedDoc(t, a, aliceAuth)
	docPath := "/api/documents/" + strconv.Itoa(int(docID))

	w := doJSON(t, a, http.MethodGet, docPath, nil, aliceAuth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngBytes, w.Body.Bytes())

	// Another user's document 404s like a missing one
	w = doJSON(t, a, http.MethodGet, docPath, nil, malloryAuth)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, a, http.MethodGet, "/api/documents/99", nil, aliceAuth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentFetchBulk(t *testing.T) {
	a := newTestAPI(t)
	auth := registerAndLogin(t, a, "alice@example.com")

	for _, name := range []string{"zulu.png", "alpha.png", "mike.png"} {
		w := doUpload(t, a, "/api/documents", name, "image/png", pngBytes, auth)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	names := func(w *httptest.ResponseRecorder) []string {
		docs := parseBody(t, w)["documents"].([]any)
		out := make([]string, 0, len(docs))
		for _, d := range docs {
			out = append(out, d.(map[string]any)["name"].(string))
		}
		return out
	}

	w := doJSON(t, a, http.MethodGet, "/api/documents/bulk?sort=az", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"alpha.png", "mike.png", "zulu.png"}, names(w))

	w = doJSON(t, a, http.MethodGet, "/api/documents/bulk?sort=za", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"zulu.png", "mike.png", "alpha.png"}, names(w))

	// Pagination slices the ordered list
	w = doJSON(t, a, http.MethodGet, "/api/documents/bulk?sort=az&limit=2&page=1", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"zulu.png"}, names(w))

	for _, q := range []string{"sort=sideways", "page=-1", "limit=0", "limit=500"} {
		w = doJSON(t, a, http.MethodGet, "/api/documents/bulk?"+q, nil, auth)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}

	w = doJSON(t, a, http.MethodGet, "/api/documents/bulk", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDocumentUploadRejectsBadFiles(t *testing.T) {
	a := newTestAPI(t)
	auth := registerAndLogin(t, a, "alice@example.com")

	w := doUpload(t, a, "/api/documents", "notes.txt", "text/plain", []byte("text"), auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, a, http.MethodPost, "/api/documents", gin.H{"not": "a form"}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyUpload(t *testing.T) {
	a := newTestAPI(t)

	reqID, token := createVerification(t, a)

	w := doUpload(t, a, "/api/verify/"+token+"/documents", "selfie.png", "image/png", pngBytes)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, a.DB.Model(model.VerificationRequest{}).
		Where("id = ?", reqID).
		Update("expires_at", time.Now().Add(-time.Minute)).
		Error)

	w = doUpload(t, a, "/api/verify/"+token+"/documents", "selfie.png", "image/png", pngBytes)
	assert.Equal(t, http.StatusGone, w.Code)

	w = doUpload(t, a, "/api/verify/does-not-exist/documents", "selfie.png", "image/png", pngBytes)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionFlow(t *testing.T) {
	a := newTestAPI(t)

	w := doJSON(t, a, http.MethodPost, "/api/sessions", gin.H{"verifier_name": "Acme Bank"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := parseBody(t, w)
	sessionID := body["session_id"].(string)
	assert.Contains(t, body["link"], sessionID)
	assert.Contains(t, body["qr_dataurl"], "data:image/png;base64,")

	w = doUpload(t, a, "/api/sessions/"+sessionID+"/documents", "capture.png", "image/png", pngBytes)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, a, http.MethodGet, "/api/sessions/"+sessionID+"/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, parseBody(t, w)["documents"], 1)

	// Unknown sessions and expired sessions answer identically
	w = doJSON(t, a, http.MethodGet, "/api/sessions/no-such-session/documents", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	unknownBody := parseBody(t, w)["error"]

	require.NoError(t, a.DB.Model(model.UploadSession{}).
		Where("id = ?", sessionID).
		Update("expires_at", time.Now().Add(-time.Minute)).
		Error)

	w = doJSON(t, a, http.MethodGet, "/api/sessions/"+sessionID+"/documents", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, unknownBody, parseBody(t, w)["error"])
}

func TestVerificationCreateValidation(t *testing.T) {
	a := newTestAPI(t)

	w := doJSON(t, a, http.MethodPost, "/api/verifications", gin.H{
		"verifier_name":   "",
		"requested_types": []string{"passport"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, a, http.MethodPost, "/api/verifications", gin.H{
		"verifier_name":   "Acme Bank",
		"requested_types": []string{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Commas would corrupt the stored comma-joined list
	w = doJSON(t, a, http.MethodPost, "/api/verifications", gin.H{
		"verifier_name":   "Acme Bank",
		"requested_types": []string{"passport,idcard"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, a, http.MethodPost, "/api/verifications", gin.H{
		"verifier_name":   "Acme Bank",
		"requested_types": []string{"passport"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Contains(t, body["link"], body["token"])
	assert.Contains(t, body["qr_dataurl"], "data:image/png;base64,")
}
