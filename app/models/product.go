package models

import "time"

// Product mirrors a Stripe product. Bulk sync is the only path that purges
// products by absence; webhook deletes purge them explicitly.
type Product struct {
	StripeObject
	Active              bool       `gorm:"default:false;index" json:"active"`
	Name                string     `gorm:"type:varchar(255);not null" json:"name"`
	Description         string     `gorm:"type:text" json:"description"`
	StatementDescriptor string     `gorm:"type:varchar(255);default:''" json:"statement_descriptor"`
	TaxCode             string     `gorm:"type:varchar(255);default:''" json:"tax_code"`
	UnitLabel           string     `gorm:"type:varchar(255);default:''" json:"unit_label"`
	Images              string     `gorm:"type:longtext" json:"images"`
	Shippable           *bool      `gorm:"default:null" json:"shippable,omitempty"`
	PackageDimensions   string     `gorm:"type:longtext" json:"package_dimensions"`
	URL                 string     `gorm:"type:varchar(500);default:''" json:"url"`
	Created             int64      `gorm:"default:0" json:"created"`
	Updated             int64      `gorm:"default:0" json:"updated"`
	PurgedAt            *time.Time `gorm:"type:timestamp;default:null" json:"purged_at,omitempty"`
}
