package models

// Card mirrors a Stripe card payment source. Cards carry no audit
// requirement once removed, so they are the one mirrored entity that is
// hard-deleted instead of purged.
type Card struct {
	StripeObject
	CustomerID         uint   `gorm:"not null;index" json:"customer_id"`
	Name               string `gorm:"type:varchar(255);default:''" json:"name"`
	AddressLine1       string `gorm:"type:varchar(255);default:''" json:"address_line_1"`
	AddressLine1Check  string `gorm:"type:varchar(64);default:''" json:"address_line_1_check"`
	AddressLine2       string `gorm:"type:varchar(255);default:''" json:"address_line_2"`
	AddressCity        string `gorm:"type:varchar(255);default:''" json:"address_city"`
	AddressState       string `gorm:"type:varchar(255);default:''" json:"address_state"`
	AddressCountry     string `gorm:"type:varchar(255);default:''" json:"address_country"`
	AddressZip         string `gorm:"type:varchar(32);default:''" json:"address_zip"`
	AddressZipCheck    string `gorm:"type:varchar(64);default:''" json:"address_zip_check"`
	Brand              string `gorm:"type:varchar(32);default:''" json:"brand"`
	Country            string `gorm:"type:varchar(2);default:''" json:"country"`
	CVCCheck           string `gorm:"type:varchar(32);default:''" json:"cvc_check"`
	DynamicLast4       string `gorm:"type:varchar(4);default:''" json:"dynamic_last4"`
	TokenizationMethod string `gorm:"type:varchar(32);default:''" json:"tokenization_method"`
	ExpMonth           int    `gorm:"not null" json:"exp_month"`
	ExpYear            int    `gorm:"not null" json:"exp_year"`
	Funding            string `gorm:"type:varchar(15);default:''" json:"funding"`
	Last4              string `gorm:"type:varchar(4);default:''" json:"last4"`
	Fingerprint        string `gorm:"type:varchar(255);default:''" json:"fingerprint"`
}
