package models

// PaymentTypeNotDefined marks payments whose method was never recorded.
const PaymentTypeNotDefined = "not_defined"

type PaymentRecord struct {
	// Index is the zero-based row position in the source file.
	Index               int     `json:"index"`
	OrderID             string  `json:"order_id"`
	PaymentSequential   int     `json:"payment_sequential"`
	PaymentType         string  `json:"payment_type"`
	PaymentInstallments int     `json:"payment_installments"`
	PaymentValue        float64 `json:"payment_value"`
}

type SellerRecord struct {
	SellerID      string `json:"seller_id"`
	ZipCodePrefix string `json:"seller_zip_code_prefix"`
	City          string `json:"seller_city"`
	State         string `json:"seller_state"`
}

type GeoRecord struct {
	ZipCodePrefix string  `json:"geolocation_zip_code_prefix"`
	Latitude      float64 `json:"geolocation_lat"`
	Longitude     float64 `json:"geolocation_lng"`
	City          string  `json:"geolocation_city"`
	State         string  `json:"geolocation_state"`
	// Incomplete is set when any source cell of the row was empty.
	Incomplete bool `json:"-"`
}

type (
	PaymentTable []PaymentRecord
	SellerTable  []SellerRecord
	GeoTable     []GeoRecord
)

// FilterSelection narrows the base tables for one render pass.
// An empty list means no restriction for that dimension.
type FilterSelection struct {
	PaymentTypes []string `json:"paymentTypes" validate:"max=32,dive,required,max=64"`
	SellerCities []string `json:"sellerCities" validate:"max=256,dive,required,max=128"`
}
