package rpc

import (
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stablevault/native/pricing"
	"stablevault/native/token"
	"stablevault/native/vault"
)

type treasuryMoveRequest struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (s *Server) handleTreasuryBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := s.engine.TreasuryBalance(chi.URLParam(r, "asset"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: formatAmount(bal)})
}

func (s *Server) handleTreasuryWithdraw(w http.ResponseWriter, r *http.Request) {
	var req treasuryMoveRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseAddress(req.To)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.engine.WithdrawTreasury(caller, req.Asset, to, amount); err != nil {
		writeError(w, err)
		return
	}
	bal, err := s.engine.TreasuryBalance(req.Asset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: formatAmount(bal)})
}

func (s *Server) handleTreasurySweep(w http.ResponseWriter, r *http.Request) {
	var req treasuryMoveRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseAddress(req.To)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.engine.SweepUnreserved(caller, req.Asset, to, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "swept"})
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"assets": s.engine.Registry().Symbols()})
}

type addAssetRequest struct {
	Caller       string `json:"caller"`
	Symbol       string `json:"symbol"`
	Decimals     uint8  `json:"decimals"`
	FeedDecimals uint8  `json:"feedDecimals"`
	InitialPrice string `json:"initialPrice,omitempty"`
}

func (s *Server) handleAddAsset(w http.ResponseWriter, r *http.Request) {
	var req addAssetRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	symbol := normalizeSymbol(req.Symbol)
	feed := pricing.NewManualFeed(req.FeedDecimals)
	if req.InitialPrice != "" {
		price, err := parseAmount(req.InitialPrice)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		feed.Set(price)
	}

	info := vault.AssetInfo{
		Symbol:   symbol,
		Decimals: req.Decimals,
		Token:    token.NewLedger(symbol, req.Decimals),
		Feed:     feed,
	}
	if err := s.engine.AddAsset(caller, info); err != nil {
		writeError(w, err)
		return
	}
	s.RegisterFeed(symbol, feed)
	writeJSON(w, http.StatusOK, map[string]string{"symbol": symbol})
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) handleRemoveAsset(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.RemoveAsset(caller, chi.URLParam(r, "symbol")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type pauseRequest struct {
	Caller string `json:"caller"`
	Module string `json:"module"`
	Paused bool   `json:"paused"`
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if caller != s.engine.Owner() {
		writeError(w, vault.ErrNotOwner)
		return
	}
	if s.board == nil {
		writeErrorMessage(w, http.StatusNotImplemented, "pause controls not configured")
		return
	}
	s.board.SetPaused(req.Module, req.Paused)
	writeJSON(w, http.StatusOK, map[string]bool{"paused": req.Paused})
}

type blacklistRequest struct {
	Caller  string `json:"caller"`
	Address string `json:"address"`
	Blocked bool   `json:"blocked"`
}

func (s *Server) handleBlacklist(w http.ResponseWriter, r *http.Request) {
	var req blacklistRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	target, err := parseAddress(req.Address)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if caller != s.engine.Owner() {
		writeError(w, vault.ErrNotOwner)
		return
	}
	if s.board == nil {
		writeErrorMessage(w, http.StatusNotImplemented, "blacklist controls not configured")
		return
	}
	s.board.SetBlacklisted(target, req.Blocked)
	writeJSON(w, http.StatusOK, map[string]bool{"blocked": req.Blocked})
}

type priceRequest struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
	Answer string `json:"answer"`
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if caller != s.engine.Owner() {
		writeError(w, vault.ErrNotOwner)
		return
	}
	answer, err := parseAmount(req.Answer)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	feed, ok := s.feed(req.Asset)
	if !ok {
		writeError(w, vault.ErrAssetNotSupported)
		return
	}
	feed.Set(new(big.Int).Set(answer))
	writeJSON(w, http.StatusOK, map[string]string{"asset": normalizeSymbol(req.Asset), "answer": answer.String()})
}
