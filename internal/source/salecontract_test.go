package source

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSaleContractRead(t *testing.T) {
	// Raw uint256 results keyed by call data (selector).
	results := map[string]string{
		"0x4b319713": "0x0de0b6b3a7640000", // totalTokensSold = 1e18 raw = 1.0 tokens
		"0xc5c4744c": "0x00000002540be400", // totalRaised = 1e10 raw = 10000.00 (6 decimals)
		"0x2dbb20fb": "0x0000000000000141", // participantCount = 321
		"0x8f1f1c5a": "0x1bc16d674ec80000", // totalRewardsDistributed = 2e18 raw = 2.0 tokens
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Method != "eth_call" {
			http.Error(w, "unexpected method", http.StatusBadRequest)
			return
		}
		call := req.Params[0].(map[string]interface{})
		result, ok := results[call["data"].(string)]
		if !ok {
			http.Error(w, "unknown selector", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": 1, "result": result})
	}))
	defer srv.Close()

	sc := NewSaleContract(srv.URL, "0xabc", 18)
	sc.client = srv.Client()

	vals, err := sc.Read(context.Background())
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}

	if vals[QtyTokensSold] != 1.0 {
		t.Errorf("tokens_sold = %v, want 1.0", vals[QtyTokensSold])
	}
	if vals[QtyTotalRaised] != 10000.0 {
		t.Errorf("total_raised = %v, want 10000.0", vals[QtyTotalRaised])
	}
	if vals[QtyParticipants] != 321 {
		t.Errorf("participants = %v, want 321", vals[QtyParticipants])
	}
	if vals[QtyRewardsDistributed] != 2.0 {
		t.Errorf("rewards_distributed = %v, want 2.0", vals[QtyRewardsDistributed])
	}
}

func TestSaleContractReadRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"execution reverted"}}`))
	}))
	defer srv.Close()

	sc := NewSaleContract(srv.URL, "0xabc", 18)
	sc.client = srv.Client()

	if _, err := sc.Read(context.Background()); err == nil {
		t.Error("Read expected error on rpc error, got nil")
	}
}

func TestParseUint256(t *testing.T) {
	v, err := parseUint256("0x0000000000000141")
	if err != nil {
		t.Fatalf("parseUint256 error: %v", err)
	}
	if v.Int64() != 321 {
		t.Errorf("parseUint256 = %d, want 321", v.Int64())
	}

	if _, err := parseUint256("0x"); err == nil {
		t.Error("parseUint256(0x) expected error")
	}
	if _, err := parseUint256("0xzz"); err == nil {
		t.Error("parseUint256(0xzz) expected error")
	}
}

func TestScaleDown(t *testing.T) {
	if got := scaleDown(big.NewInt(1500), 2); got != 15.0 {
		t.Errorf("scaleDown(1500, 2) = %v, want 15.0", got)
	}
	if got := scaleDown(big.NewInt(321), 0); got != 321 {
		t.Errorf("scaleDown(321, 0) = %v, want 321", got)
	}
}
