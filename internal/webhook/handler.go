package webhook

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/warelay/warelay/internal/webserver"
	"go.uber.org/zap"
)

// InitRouter registers the public webhook endpoints.
func InitRouter() {
	webserver.PubGET("/webhook", verifyHandler)
	webserver.PubPOST("/webhook", receiveHandler)
}

// verifyHandler answers the platform's subscription handshake: echo the
// challenge only when the mode is "subscribe" and the token matches.
func verifyHandler(c echo.Context) error {
	cfg := webserver.GetApp(c).Config()
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token == cfg.WhatsApp.VerifyToken {
		return c.String(http.StatusOK, challenge)
	}
	zap.L().Warn("webhook: verification denied", zap.String("mode", mode))
	return c.String(http.StatusForbidden, "Forbidden")
}

// receiveHandler ingests a webhook delivery. It always acknowledges 200
// so the platform never enters a retry storm; parsing and storage
// problems degrade to best-effort raw logging.
func receiveHandler(c echo.Context) error {
	a := webserver.GetApp(c)
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		zap.L().Warn("webhook: body read failed", zap.Error(err))
		return c.String(http.StatusOK, "OK")
	}

	now := time.Now()
	events, updates := ParseEvents(body, now, a.Day(now))

	db := a.DB()
	for i := range events {
		if err := db.WithContext(c.Request().Context()).Create(&events[i]).Error; err != nil {
			zap.L().Warn("webhook: event insert failed",
				zap.String("event_type", events[i].EventType), zap.Error(err))
		}
	}

	rec := NewReconciler(db)
	for _, upd := range updates {
		matched, err := rec.ApplyStatus(c.Request().Context(), upd)
		if err != nil {
			zap.L().Warn("webhook: status reconcile failed",
				zap.String("message_id", upd.MessageID), zap.Error(err))
			continue
		}
		if !matched {
			zap.L().Debug("webhook: status event with no matching send",
				zap.String("message_id", upd.MessageID), zap.String("status", upd.Status))
		}
	}

	return c.String(http.StatusOK, "OK")
}
