package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/username/corretaje/src/logger"
	"github.com/username/corretaje/src/models"
	"github.com/username/corretaje/src/services"
	"github.com/username/corretaje/src/utils"
)

// TraderHandler serves the trader/alias registry and the transaction
// import endpoint.
type TraderHandler struct {
	reportService services.ReportService
}

func NewTraderHandler(service services.ReportService) *TraderHandler {
	return &TraderHandler{reportService: service}
}

func (h *TraderHandler) HandleListTraders(w http.ResponseWriter, r *http.Request) {
	traders, err := h.reportService.ListTraders(r.Context())
	if err != nil {
		logger.L.Error("Error listing traders", "error", err)
		utils.SendJSONError(w, "could not list traders", http.StatusInternalServerError)
		return
	}
	if traders == nil {
		traders = []models.Trader{}
	}
	utils.SendJSON(w, traders, http.StatusOK)
}

func (h *TraderHandler) HandleCreateTrader(w http.ResponseWriter, r *http.Request) {
	var trader models.Trader
	if err := json.NewDecoder(r.Body).Decode(&trader); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.reportService.CreateTrader(r.Context(), &trader); err != nil {
		if errors.Is(err, services.ErrInvalidFilter) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
			utils.SendJSONError(w, "trader name already registered", http.StatusConflict)
			return
		}
		logger.L.Error("Error creating trader", "name", trader.Name, "error", err)
		utils.SendJSONError(w, "could not create trader", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, trader, http.StatusCreated)
}

func (h *TraderHandler) HandleCreateAlias(w http.ResponseWriter, r *http.Request) {
	traderID, err := strconv.ParseInt(chi.URLParam(r, "traderID"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "invalid trader id", http.StatusBadRequest)
		return
	}

	var alias models.TraderAlias
	if err := json.NewDecoder(r.Body).Decode(&alias); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	alias.TraderID = traderID

	if err := h.reportService.CreateAlias(r.Context(), &alias); err != nil {
		if errors.Is(err, services.ErrInvalidFilter) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
			utils.SendJSONError(w, "alias already registered", http.StatusConflict)
			return
		}
		logger.L.Error("Error creating alias", "alias", alias.Alias, "error", err)
		utils.SendJSONError(w, "could not create alias", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, alias, http.StatusCreated)
}

func (h *TraderHandler) HandleImportTransactions(w http.ResponseWriter, r *http.Request) {
	var records []models.TransactionRecord
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(records) == 0 {
		utils.SendJSONError(w, "no transactions in request", http.StatusBadRequest)
		return
	}

	inserted, err := h.reportService.ImportTransactions(r.Context(), records)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFilter) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("Error importing transactions", "error", err)
		utils.SendJSONError(w, "could not import transactions", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]int{"inserted": inserted}, http.StatusCreated)
}
