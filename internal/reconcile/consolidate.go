package reconcile

import "github.com/shopspring/decimal"

// Group is every transaction of one borrower within a batch.
type Group struct {
	Key          string
	Phone        string
	FullName     string
	Total        decimal.Decimal
	Transactions []Transaction
}

// Consolidate merges records sharing phone-or-name into one group each.
// Groups come back in the order their key was first seen and transactions
// keep input order. Records with neither phone nor name are rejected.
func Consolidate(records []RawPayment) ([]Group, []RecordError) {
	groups := make([]Group, 0, len(records))
	byKey := make(map[string]int, len(records))
	rejected := []RecordError{}

	for _, rec := range records {
		if rec.Problem != "" {
			rejected = append(rejected, recordError(rec, rec.Problem))
			continue
		}
		key := rec.Key()
		if key == "" {
			rejected = append(rejected, recordError(rec, reasonMissingIdentifier))
			continue
		}

		pos, ok := byKey[key]
		if !ok {
			byKey[key] = len(groups)
			groups = append(groups, Group{
				Key:          key,
				Phone:        rec.Phone,
				FullName:     rec.FullName,
				Total:        rec.Total,
				Transactions: append([]Transaction{}, rec.Transactions...),
			})
			continue
		}

		g := &groups[pos]
		g.Total = g.Total.Add(rec.Total)
		g.Transactions = append(g.Transactions, rec.Transactions...)
		if g.FullName == "" {
			g.FullName = rec.FullName
		}
	}
	return groups, rejected
}

func asGroup(rec RawPayment) Group {
	return Group{
		Key:          rec.Key(),
		Phone:        rec.Phone,
		FullName:     rec.FullName,
		Total:        rec.Total,
		Transactions: rec.Transactions,
	}
}

func recordError(rec RawPayment, reason string) RecordError {
	idx := rec.Index
	return RecordError{Index: &idx, User: rec.FullName, Phone: rec.Phone, Error: reason}
}
