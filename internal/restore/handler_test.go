package restore

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/warelay/warelay/config"
	"github.com/warelay/warelay/internal/app"
	"github.com/warelay/warelay/internal/webserver"
)

func newTestEnv(t *testing.T, restoreURL string) *webserver.WebServer {
	t.Helper()
	cfg := config.DefaultAppConfig()
	cfg.WhatsApp.VerifyToken = "vtok"
	cfg.WhatsApp.Token = "wtok"
	cfg.WhatsApp.PhoneNumberID = "12345"
	cfg.Admin.Password = "secret"
	cfg.System.UploadDir = t.TempDir()
	cfg.Restore.URL = restoreURL

	a := app.NewApplication(cfg)
	ws := webserver.Init(a)
	InitRouter(NewClient(cfg))
	return ws
}

func imageRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "face.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/enhance", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestEnhanceUnconfigured(t *testing.T) {
	ws := newTestEnv(t, "")

	rec := httptest.NewRecorder()
	ws.ServeHTTP(rec, imageRequest(t, "image", []byte("jpeg")))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestEnhanceMissingImage(t *testing.T) {
	ws := newTestEnv(t, "http://restore.local/enhance")

	rec := httptest.NewRecorder()
	ws.ServeHTTP(rec, imageRequest(t, "", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEnhanceProxiesImage(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("image"); err != nil {
			http.Error(w, "missing image", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("enhanced-jpeg"))
	}))
	defer backend.Close()

	ws := newTestEnv(t, backend.URL)

	rec := httptest.NewRecorder()
	ws.ServeHTTP(rec, imageRequest(t, "image", []byte("original-jpeg")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "enhanced-jpeg" {
		t.Errorf("body = %q, want enhanced-jpeg", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", got)
	}
}

func TestEnhanceUpstreamFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gpu on fire", http.StatusInternalServerError)
	}))
	defer backend.Close()

	ws := newTestEnv(t, backend.URL)

	rec := httptest.NewRecorder()
	ws.ServeHTTP(rec, imageRequest(t, "image", []byte("original-jpeg")))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
