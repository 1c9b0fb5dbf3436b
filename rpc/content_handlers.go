package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"contentledger/crypto"
	"contentledger/native/content"
)

type registerParams struct {
	Caller                   string `json:"caller"`
	ContentID                uint64 `json:"contentId"`
	Price                    string `json:"price"`
	CreatorSharePermille     uint32 `json:"creatorSharePermille"`
	MetadataURI              string `json:"metadataUri"`
	SubscriptionEnabled      bool   `json:"subscriptionEnabled"`
	SubscriptionPeriodBlocks uint64 `json:"subscriptionPeriodBlocks"`
}

type purchaseParams struct {
	Caller    string `json:"caller"`
	ContentID uint64 `json:"contentId"`
}

type withdrawParams struct {
	Caller string `json:"caller"`
}

type setCommissionParams struct {
	Caller   string `json:"caller"`
	Permille uint32 `json:"permille"`
}

type transferAdminParams struct {
	Caller string `json:"caller"`
	Next   string `json:"next"`
}

type purchaseQueryParams struct {
	Buyer     string `json:"buyer"`
	ContentID uint64 `json:"contentId"`
}

type balanceQueryParams struct {
	Creator string `json:"creator"`
}

type contentQueryParams struct {
	ContentID uint64 `json:"contentId"`
}

type eventsQueryParams struct {
	Limit int `json:"limit,omitempty"`
}

type contentResult struct {
	ID                       uint64 `json:"id"`
	Creator                  string `json:"creator"`
	Price                    string `json:"price"`
	CreatorSharePermille     uint32 `json:"creatorSharePermille"`
	MetadataURI              string `json:"metadataUri"`
	SubscriptionEnabled      bool   `json:"subscriptionEnabled"`
	SubscriptionPeriodBlocks uint64 `json:"subscriptionPeriodBlocks"`
	RegisteredAtBlock        uint64 `json:"registeredAtBlock"`
}

type purchaseResult struct {
	Buyer                string `json:"buyer"`
	ContentID            uint64 `json:"contentId"`
	PurchasedAtBlock     uint64 `json:"purchasedAtBlock"`
	SubscriptionEndBlock uint64 `json:"subscriptionEndBlock"`
	Active               bool   `json:"active"`
	PlatformFee          string `json:"platformFee,omitempty"`
	CreatorEarnings      string `json:"creatorEarnings,omitempty"`
}

type withdrawResult struct {
	Creator string `json:"creator"`
	Amount  string `json:"amount"`
}

type balanceResult struct {
	Creator string `json:"creator"`
	Balance string `json:"balance"`
}

type accessResult struct {
	Buyer      string `json:"buyer"`
	ContentID  uint64 `json:"contentId"`
	Accessible bool   `json:"accessible"`
	Height     uint64 `json:"height"`
}

type heightResult struct {
	Height uint64 `json:"height"`
}

func formatAddress(addr [20]byte) string {
	return crypto.NewAddress(crypto.Prefix, addr).String()
}

func decodeParamAddress(value, field string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("%s is required", field)
	}
	decoded, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return [20]byte{}, fmt.Errorf("invalid %s address: %w", field, err)
	}
	return decoded.Bytes(), nil
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func formatContent(record *content.Content) contentResult {
	price := "0"
	if record.Price != nil {
		price = record.Price.String()
	}
	return contentResult{
		ID:                       record.ID,
		Creator:                  formatAddress(record.Creator),
		Price:                    price,
		CreatorSharePermille:     record.CreatorSharePermille,
		MetadataURI:              record.MetadataURI,
		SubscriptionEnabled:      record.SubscriptionEnabled,
		SubscriptionPeriodBlocks: record.SubscriptionPeriodBlocks,
		RegisteredAtBlock:        record.RegisteredAtBlock,
	}
}

func formatPurchase(record *content.PurchaseRecord) purchaseResult {
	return purchaseResult{
		Buyer:                formatAddress(record.Buyer),
		ContentID:            record.ContentID,
		PurchasedAtBlock:     record.PurchasedAtBlock,
		SubscriptionEndBlock: record.SubscriptionEndBlock,
		Active:               record.Active,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, req *RPCRequest) {
	var params registerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeParamAddress(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	record, err := s.node.RegisterContent(caller, params.ContentID, price, params.CreatorSharePermille, params.MetadataURI, params.SubscriptionEnabled, params.SubscriptionPeriodBlocks)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatContent(record))
}

func (s *Server) handlePurchase(w http.ResponseWriter, req *RPCRequest) {
	var params purchaseParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := decodeParamAddress(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	record, split, err := s.node.PurchaseContent(buyer, params.ContentID)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	result := formatPurchase(record)
	if split != nil {
		if split.PlatformFee != nil {
			result.PlatformFee = split.PlatformFee.String()
		}
		if split.CreatorEarnings != nil {
			result.CreatorEarnings = split.CreatorEarnings.String()
		}
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleTerminate(w http.ResponseWriter, req *RPCRequest) {
	var params purchaseParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeParamAddress(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	record, err := s.node.TerminatePurchase(caller, params.ContentID)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatPurchase(record))
}

func (s *Server) handleWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params withdrawParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeParamAddress(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.node.WithdrawEarnings(caller)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, withdrawResult{Creator: params.Caller, Amount: amount.String()})
}

func (s *Server) handleSetCommission(w http.ResponseWriter, req *RPCRequest) {
	var params setCommissionParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeParamAddress(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.SetCommissionRate(caller, params.Permille); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint32{"permille": params.Permille})
}

func (s *Server) handleTransferAdmin(w http.ResponseWriter, req *RPCRequest) {
	var params transferAdminParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeParamAddress(params.Caller, "caller")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	next, err := decodeParamAddress(params.Next, "next")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.TransferAdministration(caller, next); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"administrator": params.Next})
}

func (s *Server) handleGetContent(w http.ResponseWriter, req *RPCRequest) {
	var params contentQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	record, err := s.node.GetContent(params.ContentID)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatContent(record))
}

func (s *Server) handleGetPurchase(w http.ResponseWriter, req *RPCRequest) {
	var params purchaseQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := decodeParamAddress(params.Buyer, "buyer")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	record, err := s.node.GetPurchase(buyer, params.ContentID)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatPurchase(record))
}

func (s *Server) handleGetBalance(w http.ResponseWriter, req *RPCRequest) {
	var params balanceQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	creator, err := decodeParamAddress(params.Creator, "creator")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.GetCreatorBalance(creator)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balanceResult{Creator: params.Creator, Balance: balance.String()})
}

func (s *Server) handleIsAccessible(w http.ResponseWriter, req *RPCRequest) {
	var params purchaseQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := decodeParamAddress(params.Buyer, "buyer")
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	accessible, err := s.node.IsAccessible(buyer, params.ContentID)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, accessResult{
		Buyer:      params.Buyer,
		ContentID:  params.ContentID,
		Accessible: accessible,
		Height:     s.node.Height(),
	})
}

func (s *Server) handleGetHeight(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, heightResult{Height: s.node.Height()})
}

func (s *Server) handleGetEvents(w http.ResponseWriter, req *RPCRequest) {
	limit := 0
	if len(req.Params) == 1 {
		var params eventsQueryParams
		if err := json.Unmarshal(req.Params[0], &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
			return
		}
		limit = params.Limit
	}
	writeResult(w, req.ID, s.node.Events(limit))
}
