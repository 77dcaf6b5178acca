package stripesync

import (
	"context"
	"fmt"
	"time"

	"github.com/mirrorstack/stripemirror/app/models"
	"github.com/mirrorstack/stripemirror/app/repository"
	"github.com/mirrorstack/stripemirror/internal/pkg/stripeapi"
)

// CouponSyncer mirrors coupons.
type CouponSyncer struct {
	api     stripeapi.Client
	coupons repository.CouponRepository
}

func NewCouponSyncer(api stripeapi.Client, coupons repository.CouponRepository) *CouponSyncer {
	return &CouponSyncer{api: api, coupons: coupons}
}

// Sync upserts the mirror row for a coupon document. Fixed amounts are
// stored in major currency units.
func (s *CouponSyncer) Sync(ctx context.Context, doc RemoteObject) (*models.Coupon, error) {
	stripeID := doc.Str("id")
	if stripeID == "" {
		return nil, fmt.Errorf("coupon document without id")
	}

	coupon := &models.Coupon{}
	coupon.StripeID = stripeID
	coupon.Livemode = doc.Bool("livemode")
	coupon.Metadata = doc.JSON("metadata")
	coupon.Name = doc.Str("name")
	coupon.AppliesTo = doc.JSON("applies_to")
	coupon.Currency = doc.Str("currency")
	coupon.Duration = doc.Str("duration")
	coupon.DurationInMonths = doc.IntPtr("duration_in_months")
	coupon.MaxRedemptions = doc.IntPtr("max_redemptions")
	coupon.PercentOff = doc.FloatPtr("percent_off")
	coupon.RedeemBy = doc.Time("redeem_by")
	coupon.TimesRedeemed = doc.Int("times_redeemed")
	coupon.Valid = doc.Bool("valid")
	if amountOff := doc.IntPtr("amount_off"); amountOff != nil {
		converted := ConvertAmount(*amountOff, coupon.Currency)
		coupon.AmountOff = &converted
	}

	if err := s.coupons.Upsert(coupon); err != nil {
		return nil, fmt.Errorf("upsert coupon %s: %w", stripeID, err)
	}
	return coupon, nil
}

// SyncAll mirrors the full coupon listing. Coupons absent from the listing
// keep their rows but are no longer valid for new subscriptions, so no
// purge pass is needed here.
func (s *CouponSyncer) SyncAll(ctx context.Context) error {
	err := s.api.ForEachCoupon(ctx, func(doc map[string]interface{}) error {
		_, err := s.Sync(ctx, doc)
		return err
	})
	if err != nil {
		return fmt.Errorf("list coupons: %w", err)
	}
	return nil
}

// GetValid returns the coupon when it is mirrored and still valid, or nil.
func (s *CouponSyncer) GetValid(stripeID string) (*models.Coupon, error) {
	return s.coupons.GetValidByStripeID(stripeID)
}

// SoftDelete purges one coupon mirror row.
func (s *CouponSyncer) SoftDelete(stripeID string) error {
	return s.coupons.SoftDelete(stripeID, time.Now().UTC())
}
