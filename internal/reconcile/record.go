package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const reasonMissingIdentifier = "missing identifier"

var (
	phoneKeys    = []string{"phone_number", "phoneNumber", "phone"}
	nameKeys     = []string{"full_name", "fullName", "name"}
	totalKeys    = []string{"total_amount", "totalAmount", "amount"}
	txIDKeys     = []string{"transaction_id", "transactionId", "reference", "ref"}
	txMethodKeys = []string{"payment_method", "method"}
	txDateKeys   = []string{"date", "payment_date", "paymentDate"}
)

// Layouts without a zone are read in the server's local zone, except a
// bare ISO date which is midnight UTC. Slash dates are month first.
var dateLayouts = []struct {
	layout string
	local  bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02 15:04", true},
	{"2006-01-02", false},
	{"01/02/2006", true},
	{"01/02/2006 15:04:05", true},
}

type Transaction struct {
	Amount    decimal.Decimal `json:"amount"`
	Date      *time.Time      `json:"date,omitempty"`
	Reference string          `json:"transaction_id"`
	Method    string          `json:"payment_method,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

// RawPayment is one uploaded record after its field names have been
// normalized. Index is the record's position in the uploaded batch.
// Problem is set when the record could not be decoded at all.
type RawPayment struct {
	Index        int
	Phone        string
	FullName     string
	Total        decimal.Decimal
	Transactions []Transaction
	Problem      string
}

func (r RawPayment) Key() string {
	if r.Phone != "" {
		return r.Phone
	}
	return r.FullName
}

func (r *RawPayment) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("payment record must be an object: %w", err)
	}
	if fields == nil {
		return errors.New("payment record must be an object")
	}

	r.Phone = textField(fields, phoneKeys)
	r.FullName = textField(fields, nameKeys)
	r.Total = ParseAmount(textField(fields, totalKeys))
	r.Transactions = nil

	rawTxs, ok := pick(fields, []string{"transactions"})
	if !ok {
		return nil
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(rawTxs, &items); err != nil {
		return fmt.Errorf("transactions must be a list of objects: %w", err)
	}
	r.Transactions = make([]Transaction, 0, len(items))
	for _, item := range items {
		r.Transactions = append(r.Transactions, Transaction{
			Amount:    ParseAmount(textField(item, []string{"amount"})),
			Date:      parseDate(textField(item, txDateKeys)),
			Reference: textField(item, txIDKeys),
			Method:    strings.ToLower(textField(item, txMethodKeys)),
			Notes:     textField(item, []string{"notes"}),
		})
	}
	return nil
}

// DecodeBatch normalizes every element of an uploaded array. Elements that
// cannot be decoded are kept with Problem set, along with whatever identity
// was read, so they surface as record errors instead of failing the whole
// upload.
func DecodeBatch(items []json.RawMessage) []RawPayment {
	out := make([]RawPayment, 0, len(items))
	for i, item := range items {
		var rec RawPayment
		if err := json.Unmarshal(item, &rec); err != nil {
			rec = RawPayment{Phone: rec.Phone, FullName: rec.FullName, Problem: err.Error()}
		}
		rec.Index = i
		out = append(out, rec)
	}
	return out
}

func pick(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		if t := bytes.TrimSpace(v); len(t) == 0 || bytes.Equal(t, []byte("null")) {
			continue
		}
		return v, true
	}
	return nil, false
}

// textField returns the first non-empty alias as text. Numbers keep their
// literal form so phone numbers sent as JSON numbers stay intact.
func textField(fields map[string]json.RawMessage, keys []string) string {
	for _, k := range keys {
		v, ok := pick(fields, []string{k})
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, l := range dateLayouts {
		loc := time.UTC
		if l.local {
			loc = time.Local
		}
		if t, err := time.ParseInLocation(l.layout, s, loc); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
