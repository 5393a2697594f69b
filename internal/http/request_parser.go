package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/budget"
	"fintrack/internal/services"
)

var errEmptyBody = errors.New("request body is empty")

// flexString accepts a JSON string or number and keeps its literal text, so
// amounts are parsed exactly as the client wrote them.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected a string or number, got %s", b)
		}
		*f = flexString(n.String())
		return nil
	}
}

type transactionRequest struct {
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Amount      flexString `json:"amount"`
	Currency    string     `json:"originalCurrency"`
}

func (t transactionRequest) input() services.TransactionInput {
	return services.TransactionInput{
		Date:        t.Date,
		Description: t.Description,
		Category:    t.Category,
		Amount:      string(t.Amount),
		Currency:    t.Currency,
	}
}

type transactionPatchRequest struct {
	Date        *string     `json:"date"`
	Description *string     `json:"description"`
	Category    *string     `json:"category"`
	Amount      *flexString `json:"amount"`
	Currency    *string     `json:"originalCurrency"`
}

func (p transactionPatchRequest) patch() services.TransactionPatch {
	out := services.TransactionPatch{
		Date:        p.Date,
		Description: p.Description,
		Category:    p.Category,
		Currency:    p.Currency,
	}
	if p.Amount != nil {
		amount := string(*p.Amount)
		out.Amount = &amount
	}
	return out
}

type budgetRequest struct {
	Start      string                `json:"start"`
	End        string                `json:"end"`
	Categories map[string]flexString `json:"categories"`
	Currency   string                `json:"currency"`
}

func (b budgetRequest) candidate() budget.Candidate {
	amounts := make(map[string]string, len(b.Categories))
	for k, v := range b.Categories {
		amounts[k] = string(v)
	}
	return budget.Candidate{
		Start:    b.Start,
		End:      b.End,
		Amounts:  amounts,
		Currency: b.Currency,
	}
}

type currencyRequest struct {
	Currency string `json:"currency"`
}

// decodeJSON reads one JSON value from the capped request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

// queryBool reads a boolean query parameter, treating anything unparseable as false.
func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return err == nil && v
}
