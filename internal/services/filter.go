package services

import "olist-dashboard/internal/models"

// FilterPayments keeps payments whose type is in allowed. An empty allowed set
// is no filter at all: the input is returned unchanged.
func FilterPayments(t models.PaymentTable, allowed []string) models.PaymentTable {
	if len(allowed) == 0 {
		return t
	}
	set := toSet(allowed)
	out := make(models.PaymentTable, 0, len(t))
	for _, p := range t {
		if _, ok := set[p.PaymentType]; ok {
			out = append(out, p)
		}
	}
	return out
}

// FilterSellers applies the same empty-means-everything policy to seller cities.
func FilterSellers(t models.SellerTable, allowed []string) models.SellerTable {
	if len(allowed) == 0 {
		return t
	}
	set := toSet(allowed)
	out := make(models.SellerTable, 0, len(t))
	for _, s := range t {
		if _, ok := set[s.City]; ok {
			out = append(out, s)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
