package constants

// Generic request/response messages
const (
	DATA_INPUT_IS_NOT_NUMBER = "Param must be a number"
	INVALID_INPUT            = "Invalid input"
	INTERNAL_ERROR           = "Internal server error"
	UNAUTHORIZED             = "Unauthorized"
	FORBIDDEN                = "You do not have permission to perform this action"
	NOT_FOUND                = "Resource not found"
)

// Roles
const (
	RoleAdmin      = "ADMIN"
	RoleUser       = "USER"
	RoleRestaurant = "RESTAURANT"
)

// Order fulfillment status
const (
	OrderPlaced    = "PLACED"
	OrderAccepted  = "ACCEPTED"
	OrderPreparing = "PREPARING"
	OrderReady     = "READY"
	OrderPickedUp  = "PICKED_UP"
	OrderDelivered = "DELIVERED"
	OrderCancelled = "CANCELLED"
)

// Payment status
const (
	PaymentUnpaid   = "UNPAID"
	PaymentPaid     = "PAID"
	PaymentFailed   = "FAILED"
	PaymentRefunded = "REFUNDED"
)

// Payment methods
const (
	MethodCash   = "CASH"
	MethodCard   = "CARD"
	MethodWallet = "WALLET"
	MethodOnline = "ONLINE"
)

// Stripe connect account status
const (
	StripeAccountNone      = "none"
	StripeAccountPending   = "pending"
	StripeAccountCompleted = "completed"
	StripeAccountRejected  = "rejected"
)

// Restaurant moderation status
const (
	RestaurantPending  = "PENDING"
	RestaurantApproved = "APPROVED"
	RestaurantRejected = "REJECTED"
	RestaurantDisabled = "DISABLED"
)
