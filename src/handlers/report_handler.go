package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/corretaje/src/logger"
	"github.com/username/corretaje/src/models"
	"github.com/username/corretaje/src/reports"
	"github.com/username/corretaje/src/services"
	"github.com/username/corretaje/src/utils"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(service services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: service}
}

// sendReportError maps service errors to HTTP statuses: invalid filter
// parameters are the caller's fault, everything else is upstream.
func sendReportError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrInvalidFilter) {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
}

func parseYear(r *http.Request) (int, error) {
	yearStr := r.URL.Query().Get("year")
	if yearStr == "" {
		return 0, fmt.Errorf("%w: year parameter required", services.ErrInvalidFilter)
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return 0, fmt.Errorf("%w: year %q is not numeric", services.ErrInvalidFilter, yearStr)
	}
	return year, nil
}

func (h *ReportHandler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		sendReportError(w, err)
		return
	}
	query := r.URL.Query()

	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			sendReportError(w, fmt.Errorf("%w: limit %q is not a non-negative integer", services.ErrInvalidFilter, limitStr))
			return
		}
	}

	order := reports.Descending
	if query.Get("order") == string(reports.Ascending) {
		order = reports.Ascending
	}

	filter := services.ReportFilter{Year: year, Month: query.Get("month")}
	entries, err := h.reportService.Ranking(r.Context(), filter, limit, order)
	if err != nil {
		logger.L.Error("Error building ranking", "year", year, "error", err)
		sendReportError(w, err)
		return
	}
	if entries == nil {
		entries = []models.RankingEntry{}
	}
	utils.SendJSON(w, entries, http.StatusOK)
}

func (h *ReportHandler) HandleSelfPosition(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		sendReportError(w, err)
		return
	}
	filter := services.ReportFilter{Year: year, Month: r.URL.Query().Get("month")}
	stats, err := h.reportService.SelfPosition(r.Context(), filter)
	if err != nil {
		logger.L.Error("Error building self position", "year", year, "error", err)
		sendReportError(w, err)
		return
	}
	if stats == nil {
		// Absence of data is an expected outcome; make it explicit so a
		// zero cannot be mistaken for zero volume.
		utils.SendJSON(w, map[string]bool{"no_data": true}, http.StatusOK)
		return
	}
	utils.SendJSON(w, stats, http.StatusOK)
}

func (h *ReportHandler) HandleComparison(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	period := 12
	if periodStr := query.Get("period"); periodStr != "" {
		var err error
		period, err = strconv.Atoi(periodStr)
		if err != nil {
			sendReportError(w, fmt.Errorf("%w: period %q is not numeric", services.ErrInvalidFilter, periodStr))
			return
		}
	}

	var traders []string
	for _, raw := range query["traders"] {
		for _, name := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				traders = append(traders, trimmed)
			}
		}
	}

	report, err := h.reportService.Comparison(r.Context(), period, traders)
	if err != nil {
		logger.L.Error("Error building comparison", "period", period, "error", err)
		sendReportError(w, err)
		return
	}
	utils.SendJSON(w, report, http.StatusOK)
}

func (h *ReportHandler) HandleSectorMatrix(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		sendReportError(w, err)
		return
	}
	cells, err := h.reportService.SectorMatrix(r.Context(), year)
	if err != nil {
		logger.L.Error("Error building sector matrix", "year", year, "error", err)
		sendReportError(w, err)
		return
	}
	utils.SendJSON(w, cells, http.StatusOK)
}

func (h *ReportHandler) HandleMonthlyPivot(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		sendReportError(w, err)
		return
	}
	shape := reports.VolumeOnly
	if r.URL.Query().Get("cells") == "commission" {
		shape = reports.VolumeCommission
	}
	report, err := h.reportService.MonthlyPivot(r.Context(), year, shape)
	if err != nil {
		logger.L.Error("Error building monthly pivot", "year", year, "error", err)
		sendReportError(w, err)
		return
	}
	utils.SendJSON(w, report, http.StatusOK)
}

func (h *ReportHandler) HandleRuedaPivot(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		sendReportError(w, err)
		return
	}
	report, err := h.reportService.RuedaPivot(r.Context(), year, r.URL.Query().Get("month"))
	if err != nil {
		logger.L.Error("Error building rueda pivot", "year", year, "error", err)
		sendReportError(w, err)
		return
	}
	utils.SendJSON(w, report, http.StatusOK)
}
