package reconcile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSV uploads carry one transaction per row. Only amount and one of the
// identity columns are required; column order is free.
var csvColumns = map[string][]string{
	"phone":  {"phone_number", "phone", "phonenumber"},
	"name":   {"full_name", "name", "fullname"},
	"amount": {"amount", "total_amount"},
	"date":   {"date", "payment_date"},
	"ref":    {"transaction_id", "reference", "receipt_number"},
	"method": {"payment_method", "method"},
	"notes":  {"notes"},
}

var ErrInvalidCSV = errors.New("invalid_csv")

// DecodeCSV turns an uploaded statement into raw records. Row-level
// problems are left for Consolidate to report; only an unreadable file or
// header is an error.
func DecodeCSV(r io.Reader) ([]RawPayment, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	pos := columnPositions(header)
	if _, ok := pos["amount"]; !ok {
		return nil, fmt.Errorf("%w: missing amount column", ErrInvalidCSV)
	}
	_, hasPhone := pos["phone"]
	_, hasName := pos["name"]
	if !hasPhone && !hasName {
		return nil, fmt.Errorf("%w: need phone_number or full_name column", ErrInvalidCSV)
	}

	out := []RawPayment{}
	for i := 0; ; i++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			out = append(out, RawPayment{Index: i, Problem: err.Error()})
			continue
		}
		cell := func(col string) string {
			p, ok := pos[col]
			if !ok || p >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[p])
		}
		if isBlank(row) {
			continue
		}

		amount := ParseAmount(cell("amount"))
		out = append(out, RawPayment{
			Index:    i,
			Phone:    cell("phone"),
			FullName: cell("name"),
			Total:    amount,
			Transactions: []Transaction{{
				Amount:    amount,
				Date:      parseDate(cell("date")),
				Reference: cell("ref"),
				Method:    strings.ToLower(cell("method")),
				Notes:     cell("notes"),
			}},
		})
	}
	return out, nil
}

func columnPositions(header []string) map[string]int {
	pos := map[string]int{}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for col, aliases := range csvColumns {
			if _, taken := pos[col]; taken {
				continue
			}
			for _, a := range aliases {
				if h == a {
					pos[col] = i
				}
			}
		}
	}
	return pos
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
