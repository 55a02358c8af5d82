package restore

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/warelay/warelay/internal/webserver"
	"github.com/warelay/warelay/pkg/common"
	"go.uber.org/zap"
)

var client *Client

// InitRouter registers the public enhancement endpoint.
func InitRouter(c *Client) {
	client = c
	webserver.PubPOST("/enhance", enhanceHandler)
}

type errorBody struct {
	Error string `json:"error"`
}

// enhanceHandler proxies an uploaded image through the restoration
// service and streams the enhanced JPEG back.
func enhanceHandler(c echo.Context) error {
	if !client.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, errorBody{Error: "Restoration service not configured"})
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Missing 'image'"})
	}
	if fh.Filename == "" || fh.Size == 0 {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Empty image"})
	}

	path, err := stageUpload(fh, webserver.GetApp(c).Config().System.UploadDir)
	if err != nil {
		zap.L().Error("restore: upload stage failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "Failed to store upload"})
	}
	defer os.Remove(path)

	enhanced, err := client.Enhance(c.Request().Context(), path)
	if err != nil {
		zap.L().Error("restore: enhance failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
	}

	return c.Blob(http.StatusOK, "image/jpeg", enhanced)
}

func stageUpload(fh *multipart.FileHeader, dir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := filepath.Base(fh.Filename)
	if strings.TrimSpace(name) == "" || name == "." {
		name = "upload.jpg"
	}
	path := filepath.Join(dir, fmt.Sprintf("%d_%s", common.UUIDint64(), name))
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
