package model

// Listing holds the fields extracted from one retailer product page.
type Listing struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Brand    string  `json:"brand,omitempty"`
	Model    string  `json:"model,omitempty"`
}

// Observation converts the listing into a history entry stamped with ts.
func (l Listing) Observation(ts string) Observation {
	return Observation{
		Price:     l.Price,
		Timestamp: ts,
		Currency:  l.Currency,
	}
}
