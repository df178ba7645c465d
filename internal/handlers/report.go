package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/spendlens/spendlens/internal/auth"
	"github.com/spendlens/spendlens/internal/receipt"
	"github.com/spendlens/spendlens/internal/records"
)

// RowReader serves the saved rows a report is computed from.
type RowReader interface {
	ByUser(ctx context.Context, userID int64) ([]receipt.Record, error)
}

type ReportHandler struct {
	reader RowReader
	logger *slog.Logger
}

func NewReportHandler(log *slog.Logger, reader RowReader) *ReportHandler {
	return &ReportHandler{
		reader: reader,
		logger: log.With(slog.String("handler", "report")),
	}
}

func (h *ReportHandler) Register(e *echo.Echo) {
	e.GET("/api/report", h.Report)
}

// Report returns the authenticated user's spending summary.
func (h *ReportHandler) Report(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}

	rows, err := h.reader.ByUser(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("reading report rows", slog.Int64("user_id", userID), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not build report")
	}

	return c.JSON(http.StatusOK, records.Summarize(rows))
}
