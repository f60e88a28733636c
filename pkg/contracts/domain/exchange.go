package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedExchange is returned when an exchange code is not recognised
var ErrUnsupportedExchange = errors.New("unsupported exchange")

// Exchange identifies a stock exchange publishing closing reports
type Exchange string

const (
	// ExchangeNSE is the National Stock Exchange of India
	ExchangeNSE Exchange = "NSE"
	// ExchangeBSE is the Bombay Stock Exchange
	ExchangeBSE Exchange = "BSE"
)

// Exchanges lists every supported exchange in a stable order
func Exchanges() []Exchange {
	return []Exchange{ExchangeNSE, ExchangeBSE}
}

// ParseExchange converts a case-insensitive exchange code into an Exchange
func ParseExchange(s string) (Exchange, error) {
	ex := Exchange(strings.ToUpper(strings.TrimSpace(s)))
	if !ex.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedExchange, s)
	}
	return ex, nil
}

// Valid reports whether the exchange is supported
func (e Exchange) Valid() bool {
	return e == ExchangeNSE || e == ExchangeBSE
}

func (e Exchange) String() string {
	return string(e)
}
