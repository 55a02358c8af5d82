package sendapi

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/warelay/warelay/internal/cloudapi"
	"github.com/warelay/warelay/internal/domain"
	"github.com/warelay/warelay/internal/webserver"
	"github.com/warelay/warelay/pkg/common"
	"go.uber.org/zap"
)

// MessageSender is the slice of the Cloud API client the relay needs.
type MessageSender interface {
	UploadMedia(ctx context.Context, path string) (string, error)
	SendTemplate(ctx context.Context, to, mediaID, name string) (*cloudapi.SendResult, error)
}

var sender MessageSender

// InitRouter registers the public relay endpoints. The sender is
// injected so tests can substitute a fake.
func InitRouter(s MessageSender) {
	sender = s
	webserver.PubPOST("/send-image", sendImageHandler)
	webserver.PubGET("/health", healthHandler)
}

type errorBody struct {
	Error string `json:"error"`
}

// sendImageHandler uploads the posted image to the Cloud API, sends the
// photo template to the recipient and records the send. Bookkeeping
// failures are logged but never fail the request: the message is
// already out the door.
func sendImageHandler(c echo.Context) error {
	a := webserver.GetApp(c)

	to := strings.TrimSpace(c.FormValue("to"))
	fh, err := c.FormFile("file")
	if err != nil || to == "" {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Missing file or 'to'"})
	}
	if fh.Filename == "" {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Empty filename"})
	}
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		name = "User"
	}

	savePath, err := saveUpload(fh, a.Config().System.UploadDir)
	if err != nil {
		zap.L().Error("sendapi: upload save failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "Failed to store upload"})
	}
	defer os.Remove(savePath)

	ctx := c.Request().Context()
	mediaID, err := sender.UploadMedia(ctx, savePath)
	if err != nil {
		zap.L().Error("sendapi: media upload failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
	}

	result, err := sender.SendTemplate(ctx, to, mediaID, name)
	if err != nil {
		zap.L().Error("sendapi: template send failed", zap.String("to", to), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
	}

	now := time.Now()
	record := domain.SendRecord{
		ID:        common.UUIDint64(),
		Timestamp: now,
		Day:       a.Day(now),
		Phone:     to,
		Name:      name,
		MessageID: result.WamID,
	}
	if err := a.DB().WithContext(ctx).Create(&record).Error; err != nil {
		zap.L().Warn("sendapi: send record insert failed",
			zap.String("message_id", result.WamID), zap.Error(err))
	}

	return c.JSONBlob(http.StatusOK, result.Raw)
}

// saveUpload writes the multipart file into dir under a collision-free
// name and returns the full path.
func saveUpload(fh *multipart.FileHeader, dir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	path := filepath.Join(dir, fmt.Sprintf("%d_%s", common.UUIDint64(), filepath.Base(fh.Filename)))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func healthHandler(c echo.Context) error {
	cfg := webserver.GetApp(c).Config()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"restore_enabled": cfg.Restore.URL != "",
	})
}
