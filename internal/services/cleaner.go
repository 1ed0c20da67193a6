package services

import "olist-dashboard/internal/models"

// CleanPayments drops payments whose method was never recorded.
func CleanPayments(t models.PaymentTable) models.PaymentTable {
	out := make(models.PaymentTable, 0, len(t))
	for _, p := range t {
		if p.PaymentType == models.PaymentTypeNotDefined {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CleanGeo drops exact duplicate rows, keeping the first occurrence, and rows
// that had any empty cell at load time.
func CleanGeo(t models.GeoTable) models.GeoTable {
	seen := make(map[models.GeoRecord]struct{}, len(t))
	out := make(models.GeoTable, 0, len(t))
	for _, g := range t {
		if g.Incomplete {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
