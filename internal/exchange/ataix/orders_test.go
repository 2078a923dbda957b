package ataix

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"ataix-trader/internal/core"
)

func TestExtractOrderIDAliasPriority(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"orderID":"a1","orderId":"b2"}`, "a1"},
		{`{"orderId":"b2"}`, "b2"},
		{`{"id":12345}`, "12345"},
		{`{"clientOrderId":"c3"}`, "c3"},
		{`{"status":true,"result":{"dataId":"d4"}}`, "d4"},
		{`{"orderID":"","result":{"orderID":"nested"}}`, "nested"},
		{`{"status":true}`, ""},
		{`not json`, ""},
	}
	for _, tc := range cases {
		if got := ExtractOrderID([]byte(tc.body)); got != tc.want {
			t.Fatalf("ExtractOrderID(%s) = %q, want %q", tc.body, got, tc.want)
		}
	}
}

func TestPlaceOrderNormalizesAndSubmits(t *testing.T) {
	var gotBody orderRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/orders" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode order body: %v", err)
		}
		_, _ = w.Write([]byte(`{"status":true,"result":{"orderID":"ord-77"}}`))
	}))

	cons := core.Constraints{
		PricePrecision: 4,
		LotSize:        decimal.RequireFromString("0.1"),
	}
	rec, err := client.PlaceOrder(context.Background(), "TRX/USDT", core.Side("BUY"),
		decimal.RequireFromString("0.083166"), decimal.RequireFromString("40.1234"), cons)
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if gotBody.Side != "buy" {
		t.Fatalf("submitted side = %q, want buy", gotBody.Side)
	}
	if gotBody.Type != "limit" {
		t.Fatalf("submitted type = %q, want limit", gotBody.Type)
	}
	if gotBody.Price != "0.0832" {
		t.Fatalf("submitted price = %q, want 0.0832", gotBody.Price)
	}
	if gotBody.Quantity != "40.1" {
		t.Fatalf("submitted quantity = %q, want 40.1", gotBody.Quantity)
	}
	if rec.OrderID != "ord-77" {
		t.Fatalf("record OrderID = %q, want ord-77", rec.OrderID)
	}
	if rec.ID == "" {
		t.Fatalf("record should carry a local id")
	}
	if rec.Status != core.OrderNew {
		t.Fatalf("record Status = %q, want NEW", rec.Status)
	}
	if len(rec.CreatedRawResponse) == 0 {
		t.Fatalf("record should retain the raw creation response")
	}
}

func TestPlaceOrderAuthDenied(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"status":false,"message":"forbidden"}`))
	}))

	_, err := client.PlaceOrder(context.Background(), "TRX/USDT", core.Buy,
		decimal.RequireFromString("0.08"), decimal.RequireFromString("40"), core.Constraints{PricePrecision: 4})
	if !errors.Is(err, core.ErrAuthDenied) {
		t.Fatalf("PlaceOrder() error = %v, want ErrAuthDenied", err)
	}
	if errors.Is(err, core.ErrOrderRejected) {
		t.Fatalf("auth denial must not classify as order rejection")
	}
}

func TestPlaceOrderRejectedCarriesBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"insufficient funds"}`))
	}))

	_, err := client.PlaceOrder(context.Background(), "TRX/USDT", core.Buy,
		decimal.RequireFromString("0.08"), decimal.RequireFromString("40"), core.Constraints{PricePrecision: 4})
	if !errors.Is(err, core.ErrOrderRejected) {
		t.Fatalf("PlaceOrder() error = %v, want ErrOrderRejected", err)
	}
	statusErr, ok := core.AsStatusError(err)
	if !ok {
		t.Fatalf("PlaceOrder() error should carry a StatusError: %v", err)
	}
	if statusErr.Code != http.StatusBadRequest {
		t.Fatalf("StatusError.Code = %d, want 400", statusErr.Code)
	}
	if statusErr.Body == "" {
		t.Fatalf("StatusError should retain the upstream body")
	}
}

func TestOrderStatusPathFallback(t *testing.T) {
	// First path shape 404s; the user-scoped path answers.
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/orders/ord-9":
			_, _ = w.Write([]byte(`{"result":{"status":"open"}}`))
		default:
			http.NotFound(w, r)
		}
	}))

	rep, err := client.OrderStatus(context.Background(), "ord-9")
	if err != nil {
		t.Fatalf("OrderStatus() error = %v", err)
	}
	if rep.Status != core.OrderOpen {
		t.Fatalf("Status = %q, want OPEN", rep.Status)
	}
}

func TestOrderStatusQueryParamFallback(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/orders" && r.URL.Query().Get("id") == "ord-9" {
			_, _ = w.Write([]byte(`{"status":"FILLED"}`))
			return
		}
		http.NotFound(w, r)
	}))

	rep, err := client.OrderStatus(context.Background(), "ord-9")
	if err != nil {
		t.Fatalf("OrderStatus() error = %v", err)
	}
	if rep.Status != core.OrderFilled {
		t.Fatalf("Status = %q, want FILLED", rep.Status)
	}
}

func TestOrderStatusAllPathsFail(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(http.NotFound))

	_, err := client.OrderStatus(context.Background(), "ord-9")
	if !errors.Is(err, core.ErrStatusLookup) {
		t.Fatalf("OrderStatus() error = %v, want ErrStatusLookup", err)
	}
}

func TestOrderStatusAuthDeniedAborts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.OrderStatus(context.Background(), "ord-9")
	if !errors.Is(err, core.ErrAuthDenied) {
		t.Fatalf("OrderStatus() error = %v, want ErrAuthDenied", err)
	}
}

func TestCancelOrderPathFallback(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && r.URL.Path == "/api/user/orders/ord-5" {
			_, _ = w.Write([]byte(`{"status":true}`))
			return
		}
		http.NotFound(w, r)
	}))

	raw, err := client.CancelOrder(context.Background(), "ord-5")
	if err != nil {
		t.Fatalf("CancelOrder() error = %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("CancelOrder() should return the upstream payload")
	}
}

func TestAvailableFundsAliases(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"status":true,"result":{"available":"1.85"}}`, "1.85"},
		{`{"result":{"free":"2.5"}}`, "2.5"},
		{`{"result":{"total":3}}`, "3"},
	}
	for _, tc := range cases {
		body := tc.body
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		got, err := client.AvailableFunds(context.Background(), "USDT")
		if err != nil {
			t.Fatalf("AvailableFunds(%s) error = %v", tc.body, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("AvailableFunds(%s) = %s, want %s", tc.body, got, tc.want)
		}
	}
}

func TestAvailableFundsMissingAmount(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"result":{}}`))
	}))
	if _, err := client.AvailableFunds(context.Background(), "USDT"); err == nil {
		t.Fatalf("AvailableFunds() expected error for missing amount")
	}
}

func TestAvailableFundsAuthDenied(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	_, err := client.AvailableFunds(context.Background(), "USDT")
	if !errors.Is(err, core.ErrAuthDenied) {
		t.Fatalf("AvailableFunds() error = %v, want ErrAuthDenied", err)
	}
}
