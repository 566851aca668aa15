package rpc

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stablevault/observability"
)

type positionRequest struct {
	User   string `json:"user"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := parseAddress(req.User)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.engine.Deposit(user, req.Asset, amount)
	observability.Vault().RecordOperation("deposit", err)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("collateral deposited",
		slog.String("user", user.Hex()),
		slog.String("asset", normalizeSymbol(req.Asset)),
		slog.String("amount", amount.String()),
	)
	pos, err := s.engine.GetPosition(user, req.Asset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, encodePosition(pos))
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := parseAddress(req.User)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.engine.Withdraw(user, req.Asset, amount)
	observability.Vault().RecordOperation("withdraw", err)
	if err != nil {
		writeError(w, err)
		return
	}
	pos, err := s.engine.GetPosition(user, req.Asset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, encodePosition(pos))
}

type ratioRequest struct {
	User  string `json:"user"`
	Asset string `json:"asset"`
	Ratio uint64 `json:"ratio"`
}

func (s *Server) handleSetRatio(w http.ResponseWriter, r *http.Request) {
	var req ratioRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := parseAddress(req.User)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.engine.SetMarginRatio(user, req.Asset, req.Ratio)
	observability.Vault().RecordOperation("set_ratio", err)
	if err != nil {
		writeError(w, err)
		return
	}
	pos, err := s.engine.GetPosition(user, req.Asset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, encodePosition(pos))
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := parseAddress(req.User)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.engine.Mint(user, req.Asset, amount)
	observability.Vault().RecordOperation("mint", err)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("units minted",
		slog.String("user", user.Hex()),
		slog.String("asset", normalizeSymbol(req.Asset)),
		slog.String("amount", amount.String()),
	)
	pos, err := s.engine.GetPosition(user, req.Asset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, encodePosition(pos))
}

type repayRequest struct {
	User   string `json:"user"`
	Amount string `json:"amount"`
}

func (s *Server) handleRepay(w http.ResponseWriter, r *http.Request) {
	var req repayRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := parseAddress(req.User)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.engine.Repay(user, amount)
	observability.Vault().RecordOperation("repay", err)
	if err != nil {
		writeError(w, err)
		return
	}
	remaining, err := s.engine.TotalDebt(user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: formatAmount(remaining)})
}

type liquidateRequest struct {
	Liquidator string `json:"liquidator"`
	User       string `json:"user"`
	Asset      string `json:"asset"`
	Amount     string `json:"amount"`
}

func (s *Server) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	var req liquidateRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	liquidator, err := parseAddress(req.Liquidator)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := parseAddress(req.User)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.engine.Liquidate(liquidator, user, req.Asset, amount)
	observability.Vault().RecordOperation("liquidate", err)
	if err != nil {
		writeError(w, err)
		return
	}
	observability.Vault().RecordLiquidation()
	s.logger.Info("position liquidated",
		slog.String("id", outcome.ID),
		slog.String("user", user.Hex()),
		slog.String("liquidator", liquidator.Hex()),
		slog.String("asset", normalizeSymbol(req.Asset)),
		slog.String("repaid", outcome.Repaid.String()),
		slog.String("seized", outcome.CollateralSeized.String()),
	)
	writeJSON(w, http.StatusOK, encodeLiquidation(outcome))
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	user, err := parseAddress(chi.URLParam(r, "user"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	pos, err := s.engine.GetPosition(user, chi.URLParam(r, "asset"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, encodePosition(pos))
}

func (s *Server) handleMaxMintable(w http.ResponseWriter, r *http.Request) {
	user, err := parseAddress(chi.URLParam(r, "user"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	ceiling, err := s.engine.MaxMintable(user, chi.URLParam(r, "asset"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: formatAmount(ceiling)})
}

func (s *Server) handleHealthRatio(w http.ResponseWriter, r *http.Request) {
	user, err := parseAddress(chi.URLParam(r, "user"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	health, err := s.engine.HealthRatio(user, chi.URLParam(r, "asset"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: formatAmount(health)})
}

func (s *Server) handleLiquidationPrice(w http.ResponseWriter, r *http.Request) {
	user, err := parseAddress(chi.URLParam(r, "user"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	price, err := s.engine.EstimatedLiquidationPrice(user, chi.URLParam(r, "asset"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: formatAmount(price)})
}

func (s *Server) handleTotalDebt(w http.ResponseWriter, r *http.Request) {
	user, err := parseAddress(chi.URLParam(r, "user"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	total, err := s.engine.TotalDebt(user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: formatAmount(total)})
}
