package helper

import (
	"math"
	"strconv"

	"mall_manager/config"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/account"
	"github.com/stripe/stripe-go/v74/accountlink"
	"github.com/stripe/stripe-go/v74/customer"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"
)

// StripeGateway is the narrow slice of the Stripe API the marketplace uses.
// Handlers call it through the package-level StripeClient so tests can swap
// in a fake.
type StripeGateway interface {
	CreateAccount(country string) (*stripe.Account, error)
	CreateAccountLink(accountId, refreshUrl, returnUrl string) (*stripe.AccountLink, error)
	RetrieveAccount(accountId string) (*stripe.Account, error)
	CreateCustomer(email, name string) (*stripe.Customer, error)
	CreatePaymentIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	RetrievePaymentIntent(id string) (*stripe.PaymentIntent, error)
	CreateRefund(params *stripe.RefundParams) (*stripe.Refund, error)
}

var StripeClient StripeGateway

type liveStripeGateway struct{}

func InitStripe() {
	stripe.Key = config.Config("STRIPE_SECRET_KEY")
	StripeClient = &liveStripeGateway{}
}

func (g *liveStripeGateway) CreateAccount(country string) (*stripe.Account, error) {
	params := &stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Country: stripe.String(country),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	return account.New(params)
}

func (g *liveStripeGateway) CreateAccountLink(accountId, refreshUrl, returnUrl string) (*stripe.AccountLink, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountId),
		RefreshURL: stripe.String(refreshUrl),
		ReturnURL:  stripe.String(returnUrl),
		Type:       stripe.String("account_onboarding"),
	}
	return accountlink.New(params)
}

func (g *liveStripeGateway) RetrieveAccount(accountId string) (*stripe.Account, error) {
	return account.GetByID(accountId, nil)
}

func (g *liveStripeGateway) CreateCustomer(email, name string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	return customer.New(params)
}

func (g *liveStripeGateway) CreatePaymentIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return paymentintent.New(params)
}

func (g *liveStripeGateway) RetrievePaymentIntent(id string) (*stripe.PaymentIntent, error) {
	return paymentintent.Get(id, nil)
}

func (g *liveStripeGateway) CreateRefund(params *stripe.RefundParams) (*stripe.Refund, error) {
	return refund.New(params)
}

// CommissionMinorUnits computes the platform cut of a split payment:
// round(amount_in_minor_units * rate).
func CommissionMinorUnits(amountMinor int64, rate float64) int64 {
	return int64(math.Round(float64(amountMinor) * rate))
}

// EffectiveCommissionRate falls back to the platform default when the
// restaurant has no configured rate.
func EffectiveCommissionRate(restaurantRate float64) float64 {
	if restaurantRate > 0 {
		return restaurantRate
	}
	def, err := strconv.ParseFloat(config.ConfigOr("PLATFORM_COMMISSION_RATE", "0.10"), 64)
	if err != nil {
		return 0.10
	}
	return def
}

// DeriveAccountStatus maps the gateway's live flags to the tri-state stored
// on the restaurant: completed iff charges and payouts are both enabled,
// rejected iff Stripe reports a disabled reason, pending otherwise.
func DeriveAccountStatus(acct *stripe.Account) string {
	if acct.ChargesEnabled && acct.PayoutsEnabled {
		return "completed"
	}
	if acct.Requirements != nil && string(acct.Requirements.DisabledReason) != "" {
		return "rejected"
	}
	return "pending"
}

// HasExternalAccount reports whether a bank account is attached.
func HasExternalAccount(acct *stripe.Account) bool {
	return acct.ExternalAccounts != nil && len(acct.ExternalAccounts.Data) > 0
}
