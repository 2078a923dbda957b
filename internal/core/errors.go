package core

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrNoResponse indicates no auth header variant produced any HTTP response.
	ErrNoResponse = errors.New("no response obtained")
	// ErrAuthDenied indicates HTTP 401/403; a misconfigured credential, never transient.
	ErrAuthDenied = errors.New("permission denied")
	// ErrCatalogFetch indicates the symbol catalog could not be retrieved.
	ErrCatalogFetch = errors.New("catalog fetch failed")
	// ErrMalformedCatalog indicates the catalog response is not a list of records.
	ErrMalformedCatalog = errors.New("malformed catalog")
	// ErrPairNotFound indicates the trading pair is absent from the catalog.
	ErrPairNotFound = errors.New("pair not found")
	// ErrNoPriceAvailable indicates neither the catalog nor the order book yielded a usable price.
	ErrNoPriceAvailable = errors.New("no price available")
	// ErrEmptyOrderBook indicates the public order book has no bids.
	ErrEmptyOrderBook = errors.New("empty order book")
	// ErrInsufficientFunds indicates no usable quote funds for sizing.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrOrderRejected indicates the exchange refused an order with a non-auth error status.
	ErrOrderRejected = errors.New("order rejected")
	// ErrStatusLookup indicates every status-lookup path failed for an order.
	ErrStatusLookup = errors.New("status lookup failed")
)

// StatusError carries the HTTP status and upstream body of a failed call.
type StatusError struct {
	Code int
	Body string
}

func (e StatusError) Error() string {
	return "http error " + strconv.Itoa(e.Code) + ": " + strings.TrimSpace(e.Body)
}

// WrapStatus joins a StatusError with the sentinel kind matching its code:
// 401/403 map to ErrAuthDenied, everything else to the supplied fallback.
func WrapStatus(code int, body []byte, fallback error) error {
	statusErr := StatusError{Code: code, Body: string(body)}
	if code == 401 || code == 403 {
		return errors.Join(statusErr, ErrAuthDenied)
	}
	if fallback == nil {
		return statusErr
	}
	return errors.Join(statusErr, fallback)
}

// AsStatusError unwraps a StatusError from err when present.
func AsStatusError(err error) (StatusError, bool) {
	var statusErr StatusError
	if !errors.As(err, &statusErr) {
		return StatusError{}, false
	}
	return statusErr, true
}
