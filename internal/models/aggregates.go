package models

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type ValueBucket int

const (
	BucketUnder200 ValueBucket = iota
	Bucket200To600
	Bucket600To1200
	Bucket1200To5000
	Bucket5000To10000
	BucketOver10000
)

var bucketLabels = [...]string{
	BucketUnder200:    "< 200",
	Bucket200To600:    "200 - 600",
	Bucket600To1200:   "600 - 1200",
	Bucket1200To5000:  "1200 - 5000",
	Bucket5000To10000: "5000 - 10000",
	BucketOver10000:   ">= 10000",
}

// ValueBuckets lists every bucket in ascending range order.
var ValueBuckets = []ValueBucket{
	BucketUnder200, Bucket200To600, Bucket600To1200,
	Bucket1200To5000, Bucket5000To10000, BucketOver10000,
}

func (b ValueBucket) String() string {
	if b < 0 || int(b) >= len(bucketLabels) {
		return "unknown"
	}
	return bucketLabels[b]
}

type BucketedPoint struct {
	Index  int         `json:"index"`
	Value  float64     `json:"value"`
	Bucket ValueBucket `json:"bucket"`
	Label  string      `json:"label"`
}

// FilterOptions are the distinct selectable values, in first-seen order.
type FilterOptions struct {
	PaymentTypes []string `json:"payment_types"`
	SellerCities []string `json:"seller_cities"`
}
