package dataset

type ColumnType int

const (
	String ColumnType = iota
	Int
	Float
)

func (t ColumnType) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	default:
		return "string"
	}
}

type Column struct {
	Name     string
	Type     ColumnType
	Required bool
}

// Schema declares the columns a source must (or may) carry.
// With AllowMissing, empty cells mark the row incomplete instead of failing the load.
type Schema struct {
	Name         string
	Columns      []Column
	AllowMissing bool
}

func (s Schema) required() []string {
	var names []string
	for _, c := range s.Columns {
		if c.Required {
			names = append(names, c.Name)
		}
	}
	return names
}

const (
	ColOrderID             = "order_id"
	ColPaymentSequential   = "payment_sequential"
	ColPaymentType         = "payment_type"
	ColPaymentInstallments = "payment_installments"
	ColPaymentValue        = "payment_value"

	ColSellerID      = "seller_id"
	ColSellerZipCode = "seller_zip_code_prefix"
	ColSellerCity    = "seller_city"
	ColSellerState   = "seller_state"

	ColGeoZipCode = "geolocation_zip_code_prefix"
	ColGeoLat     = "geolocation_lat"
	ColGeoLng     = "geolocation_lng"
	ColGeoCity    = "geolocation_city"
	ColGeoState   = "geolocation_state"
)

var PaymentsSchema = Schema{
	Name: "payments",
	Columns: []Column{
		{Name: ColOrderID, Type: String, Required: true},
		{Name: ColPaymentSequential, Type: Int},
		{Name: ColPaymentType, Type: String, Required: true},
		{Name: ColPaymentInstallments, Type: Int},
		{Name: ColPaymentValue, Type: Float, Required: true},
	},
}

var SellersSchema = Schema{
	Name: "sellers",
	Columns: []Column{
		{Name: ColSellerID, Type: String, Required: true},
		{Name: ColSellerZipCode, Type: String},
		{Name: ColSellerCity, Type: String, Required: true},
		{Name: ColSellerState, Type: String},
	},
}

var GeoSchema = Schema{
	Name: "geolocation",
	Columns: []Column{
		{Name: ColGeoZipCode, Type: String},
		{Name: ColGeoLat, Type: Float, Required: true},
		{Name: ColGeoLng, Type: Float, Required: true},
		{Name: ColGeoCity, Type: String},
		{Name: ColGeoState, Type: String},
	},
	AllowMissing: true,
}
