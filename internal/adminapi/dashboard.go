package adminapi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/warelay/warelay/internal/domain"
	"github.com/warelay/warelay/internal/webserver"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func registerDashboardRoutes() {
	webserver.ApiGET("", dashboardPage)
	webserver.ApiGET("/day/:day", dayPage)
}

type dashboardView struct {
	Counts []DailyCount
}

type dayView struct {
	Day     string
	Records []domain.SendRecord
	Events  []domain.WebhookEvent
}

func renderPage(c echo.Context, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return fail(c, http.StatusInternalServerError, "RENDER_ERROR", "Failed to render page", err.Error())
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// dashboardPage renders the daily send counts table.
func dashboardPage(c echo.Context) error {
	counts, err := queryDailyCounts(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query daily counts", err.Error())
	}
	return renderPage(c, "dashboard.html", dashboardView{Counts: counts})
}

// dayPage renders one day's send records and raw webhook events.
func dayPage(c echo.Context) error {
	day, valid := validDay(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_DAY", "Day must match YYYY-MM-DD", nil)
	}

	view := dayView{Day: day}
	db := GetDB(c)
	if err := db.Where("day = ?", day).Order("timestamp DESC").Find(&view.Records).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sends", err.Error())
	}
	if err := db.Where("day = ?", day).Order("timestamp DESC").Find(&view.Events).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query events", err.Error())
	}
	return renderPage(c, "day.html", view)
}
