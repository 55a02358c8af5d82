package adminapi

import (
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/warelay/warelay/internal/domain"
	"github.com/warelay/warelay/internal/webserver"
	"gorm.io/gorm"
)

// dayPattern is deliberately strict: the reporting views accept only the
// exact 4-2-2 digit form used by the day column.
var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DailyCount is one row of the daily-counts aggregation.
type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// StatusCount is one row of the delivery-status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// Summary aggregates the whole send log for the dashboard header.
type Summary struct {
	TotalSends   int64         `json:"total_sends"`
	Days         int64         `json:"days"`
	MeanPerDay   float64       `json:"mean_per_day"`
	MaxPerDay    float64       `json:"max_per_day"`
	StatusCounts []StatusCount `json:"status_counts"`
}

func registerReportRoutes() {
	webserver.ApiGET("/api/daily", listDailyCounts)
	webserver.ApiGET("/api/daily/:day", listDaySends)
	webserver.ApiGET("/api/events/:day", listDayEvents)
	webserver.ApiGET("/api/records/:id", getSendRecord)
	webserver.ApiGET("/api/summary", getSummary)
}

func validDay(c echo.Context) (string, bool) {
	day := c.Param("day")
	return day, dayPattern.MatchString(day)
}

// listDailyCounts groups sends by day, chronological for charting.
func listDailyCounts(c echo.Context) error {
	counts, err := queryDailyCounts(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query daily counts", err.Error())
	}
	return ok(c, counts)
}

func queryDailyCounts(c echo.Context) ([]DailyCount, error) {
	var counts []DailyCount
	err := GetDB(c).Model(&domain.SendRecord{}).
		Select("day, COUNT(*) as count").
		Group("day").
		Order("day ASC").
		Scan(&counts).Error
	return counts, err
}

// listDaySends returns all send records for one day, most recent first.
func listDaySends(c echo.Context) error {
	day, valid := validDay(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_DAY", "Day must match YYYY-MM-DD", nil)
	}
	var records []domain.SendRecord
	if err := GetDB(c).Where("day = ?", day).Order("timestamp DESC").Find(&records).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sends", err.Error())
	}
	return ok(c, records)
}

type eventQuery struct {
	Type string `query:"type" validate:"omitempty,oneof=status message raw"`
}

// listDayEvents returns the raw webhook event log for one day, most
// recent first, paginated. An optional type filter narrows the listing.
func listDayEvents(c echo.Context) error {
	day, valid := validDay(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_DAY", "Day must match YYYY-MM-DD", nil)
	}

	var q eventQuery
	if err := c.Bind(&q); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Bad query parameters", err.Error())
	}
	if err := c.Validate(&q); err != nil {
		return handleValidationError(c, err)
	}

	page, pageSize := parsePagination(c)
	query := GetDB(c).Model(&domain.WebhookEvent{}).Where("day = ?", day)
	if q.Type != "" {
		query = query.Where("event_type = ?", q.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count events", err.Error())
	}

	var events []domain.WebhookEvent
	if err := query.Order("timestamp DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&events).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query events", err.Error())
	}
	return paged(c, events, total, page, pageSize)
}

// getSendRecord returns one send record by id.
func getSendRecord(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Record id must be an integer", nil)
	}
	var record domain.SendRecord
	if err := GetDB(c).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "No such send record", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query record", err.Error())
	}
	return ok(c, record)
}

func getSummary(c echo.Context) error {
	counts, err := queryDailyCounts(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query daily counts", err.Error())
	}

	summary := Summary{Days: int64(len(counts))}
	perDay := make([]float64, 0, len(counts))
	for _, dc := range counts {
		summary.TotalSends += dc.Count
		perDay = append(perDay, float64(dc.Count))
	}
	if len(perDay) > 0 {
		if mean, err := stats.Mean(perDay); err == nil {
			summary.MeanPerDay = mean
		}
		if max, err := stats.Max(perDay); err == nil {
			summary.MaxPerDay = max
		}
	}

	if err := GetDB(c).Model(&domain.SendRecord{}).
		Select("status, COUNT(*) as count").
		Where("status <> ''").
		Group("status").
		Order("count DESC").
		Scan(&summary.StatusCounts).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query status counts", err.Error())
	}

	return ok(c, summary)
}
