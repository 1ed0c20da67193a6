package handlers

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/starfederation/datastar-go/datastar"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

const (
	queryPaymentType = "payment_type"
	querySellerCity  = "seller_city"
	// Datastar sends signals of GET requests in this query parameter.
	querySignals = "datastar"
)

type selectionReader struct {
	validate *validator.Validate
}

func newSelectionReader() *selectionReader {
	return &selectionReader{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// fromQuery reads repeatable payment_type and seller_city parameters.
// Each parameter carries one value; categories may contain commas.
func (s *selectionReader) fromQuery(r *http.Request) (models.FilterSelection, error) {
	q := r.URL.Query()
	sel := models.FilterSelection{
		PaymentTypes: nonBlank(q[queryPaymentType]),
		SellerCities: nonBlank(q[querySellerCity]),
	}
	return sel, s.check(sel)
}

// fromSignals reads the paymentTypes and sellerCities datastar signals.
// A request without signals selects everything.
func (s *selectionReader) fromSignals(r *http.Request) (models.FilterSelection, error) {
	var sel models.FilterSelection
	if r.Method == http.MethodGet && r.URL.Query().Get(querySignals) == "" {
		return sel, nil
	}
	if err := datastar.ReadSignals(r, &sel); err != nil {
		return models.FilterSelection{}, errors.BadRequestWrap(err, "Invalid datastar signals")
	}
	sel.PaymentTypes = nonBlank(sel.PaymentTypes)
	sel.SellerCities = nonBlank(sel.SellerCities)
	return sel, s.check(sel)
}

func (s *selectionReader) check(sel models.FilterSelection) error {
	if err := s.validate.Struct(sel); err != nil {
		return errors.ValidationWrap(err, "Invalid filter selection")
	}
	return nil
}

// nonBlank drops empty and whitespace-only values, keeping the rest verbatim.
func nonBlank(raw []string) []string {
	var out []string
	for _, v := range raw {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
