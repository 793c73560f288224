package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// The stablecoin the sale settles in uses 6 decimals.
const raiseDecimals = 6

// SaleContract reads cumulative sale figures straight from the presale
// contract over JSON-RPC.
type SaleContract struct {
	client   *http.Client
	rpcURL   string
	contract string
	decimals int
}

func NewSaleContract(rpcURL, contract string, tokenDecimals int) *SaleContract {
	return &SaleContract{
		client:   &http.Client{Timeout: 15 * time.Second},
		rpcURL:   rpcURL,
		contract: contract,
		decimals: tokenDecimals,
	}
}

func (s *SaleContract) Name() string { return "salecontract" }

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *SaleContract) Read(ctx context.Context) (map[string]float64, error) {
	// Selectors are the first 4 bytes of keccak256 of each view signature.
	reads := []struct {
		quantity string
		selector string
		decimals int
	}{
		{QtyTokensSold, "0x4b319713", s.decimals},         // totalTokensSold()
		{QtyTotalRaised, "0xc5c4744c", raiseDecimals},     // totalRaised()
		{QtyParticipants, "0x2dbb20fb", 0},                // participantCount()
		{QtyRewardsDistributed, "0x8f1f1c5a", s.decimals}, // totalRewardsDistributed()
	}

	out := make(map[string]float64, len(reads))
	for _, r := range reads {
		raw, err := s.ethCall(ctx, r.selector)
		if err != nil {
			return nil, transient(s.Name(), fmt.Errorf("read %s: %w", r.quantity, err))
		}
		v, err := parseUint256(raw)
		if err != nil {
			return nil, transient(s.Name(), fmt.Errorf("parse %s: %w", r.quantity, err))
		}
		out[r.quantity] = scaleDown(v, r.decimals)
	}
	return out, nil
}

func (s *SaleContract) ethCall(ctx context.Context, data string) (string, error) {
	payload, _ := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_call",
		Params: []interface{}{
			map[string]string{"to": s.contract, "data": data},
			"latest",
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rpc status %d", resp.StatusCode)
	}

	var body rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode rpc response: %w", err)
	}
	if body.Error != nil {
		return "", fmt.Errorf("rpc error %d: %s", body.Error.Code, body.Error.Message)
	}
	return body.Result, nil
}

// parseUint256 decodes a 0x-prefixed ABI-encoded uint256 return value.
func parseUint256(hexStr string) (*big.Int, error) {
	hexStr = strings.TrimPrefix(hexStr, "0x")
	if hexStr == "" {
		return nil, fmt.Errorf("empty rpc result")
	}
	v, ok := new(big.Int).SetString(hexStr, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex %q", hexStr)
	}
	return v, nil
}

// scaleDown converts a raw integer reading to a float using the given number
// of decimal places. Precision loss past float64 is acceptable for analytics.
func scaleDown(v *big.Int, decimals int) float64 {
	if decimals == 0 {
		f, _ := new(big.Float).SetInt(v).Float64()
		return f
	}
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), new(big.Float).SetInt(den)).Float64()
	return f
}
