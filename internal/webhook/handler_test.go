package webhook

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/warelay/warelay/config"
	"github.com/warelay/warelay/internal/app"
	"github.com/warelay/warelay/internal/domain"
	"github.com/warelay/warelay/internal/webserver"
	"github.com/warelay/warelay/pkg/common"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestEnv(t *testing.T) (*webserver.WebServer, *app.Application) {
	t.Helper()
	cfg := config.DefaultAppConfig()
	cfg.WhatsApp.VerifyToken = "vtok"
	cfg.WhatsApp.Token = "wtok"
	cfg.WhatsApp.PhoneNumberID = "12345"
	cfg.Admin.Password = "secret"

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	a := app.NewApplication(cfg)
	a.OverrideDB(db)
	ws := webserver.Init(a)
	InitRouter()
	return ws, a
}

func TestVerifyHandshake(t *testing.T) {
	ws, _ := newTestEnv(t)

	cases := []struct {
		name       string
		mode       string
		token      string
		wantStatus int
		wantBody   string
	}{
		{"accepted", "subscribe", "vtok", http.StatusOK, "challenge-123"},
		{"wrong token", "subscribe", "nope", http.StatusForbidden, "Forbidden"},
		{"wrong mode", "unsubscribe", "vtok", http.StatusForbidden, "Forbidden"},
		{"missing params", "", "", http.StatusForbidden, "Forbidden"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := url.Values{}
			if tc.mode != "" {
				q.Set("hub.mode", tc.mode)
			}
			if tc.token != "" {
				q.Set("hub.verify_token", tc.token)
			}
			q.Set("hub.challenge", "challenge-123")

			req := httptest.NewRequest(http.MethodGet, "/webhook?"+q.Encode(), nil)
			rec := httptest.NewRecorder()
			ws.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if rec.Body.String() != tc.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestReceiveStatusReconciles(t *testing.T) {
	ws, a := newTestEnv(t)

	rec := domain.SendRecord{
		ID:        common.UUIDint64(),
		Timestamp: time.Now(),
		Day:       a.Day(time.Now()),
		Phone:     "4912345",
		Name:      "User",
		MessageID: "wamid.A",
	}
	if err := a.DB().Create(&rec).Error; err != nil {
		t.Fatalf("seed send record: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(statusPayload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ws.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got domain.SendRecord
	if err := a.DB().First(&got, "message_id = ?", "wamid.A").Error; err != nil {
		t.Fatalf("reload send record: %v", err)
	}
	if got.Status != "delivered" {
		t.Errorf("status = %q, want delivered (last fragment wins)", got.Status)
	}
	if got.StatusTimestamp == nil || got.StatusTimestamp.Unix() != 1700000100 {
		t.Errorf("status timestamp = %v, want 1700000100", got.StatusTimestamp)
	}

	var count int64
	a.DB().Model(&domain.WebhookEvent{}).Count(&count)
	if count != 2 {
		t.Errorf("event count = %d, want 2", count)
	}
}

func TestReceiveUnmatchedStatusStillLogged(t *testing.T) {
	ws, a := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(statusPayload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ws.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var count int64
	a.DB().Model(&domain.WebhookEvent{}).Count(&count)
	if count != 2 {
		t.Errorf("event count = %d, want 2", count)
	}
}

func TestReceiveGarbageAlwaysAcknowledged(t *testing.T) {
	ws, a := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("definitely not json"))
	w := httptest.NewRecorder()
	ws.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var events []domain.WebhookEvent
	a.DB().Find(&events)
	if len(events) != 1 {
		t.Fatalf("event count = %d, want 1", len(events))
	}
	if events[0].EventType != domain.EventTypeRaw {
		t.Errorf("event type = %q, want %q", events[0].EventType, domain.EventTypeRaw)
	}
}
