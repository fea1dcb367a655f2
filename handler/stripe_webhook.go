package handler

import (
	"encoding/json"
	"errors"
	"log"
	"mall_manager/config"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/helper"
	"mall_manager/model"
	"mall_manager/utils"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"
)

// The four payment event types the synchronizer handles. Everything else is
// acknowledged and dropped.
const (
	evIntentSucceeded = "payment_intent.succeeded"
	evIntentFailed    = "payment_intent.payment_failed"
	evChargeRefunded  = "charge.refunded"
	evRefundUpdated   = "charge.refund.updated"
)

func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

// eventAlreadyProcessed is the dedup pre-check. On a database error the
// policy is configurable: fail-open reprocesses (the unique key still
// catches the duplicate at commit), fail-closed returns the error so the
// sender retries.
func eventAlreadyProcessed(eventId string) (bool, error) {
	var existing model.StripeEvent
	err := database.DB.First(&existing, "id = ?", eventId).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if config.Config("WEBHOOK_DEDUP_FAIL_CLOSED") == "true" {
		return false, err
	}
	log.Printf("event dedup pre-check failed for %s, continuing: %v", eventId, err)
	return false, nil
}

// recordEventOnly stores just the event id, used for events that are
// recognized but produce no state change (orphan accounts, unresolvable
// orders). Duplicate inserts are fine.
func recordEventOnly(eventId, eventType string) {
	err := database.DB.Create(&model.StripeEvent{ID: eventId, Type: eventType}).Error
	if err != nil && !isDuplicateErr(err) {
		log.Printf("failed to record event %s: %v", eventId, err)
	}
}

// StripeAccountWebhook consumes account.updated events and syncs the
// restaurant's payout eligibility. It only ever updates, never creates:
// accounts with no owning restaurant are orphans and are acknowledged
// without linking.
func StripeAccountWebhook(c *fiber.Ctx) error {
	event, err := webhook.ConstructEvent(c.Body(), c.Get("Stripe-Signature"), config.Config("STRIPE_ACCOUNT_WEBHOOK_SECRET"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid webhook signature", err)
	}

	if event.Type != "account.updated" {
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true})
	}

	var acct stripe.Account
	if err := json.Unmarshal(event.Data.Raw, &acct); err != nil || acct.ID == "" {
		log.Printf("account event %s carries no account object: %v", event.ID, err)
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true})
	}

	processed, err := eventAlreadyProcessed(event.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if processed {
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true, "duplicate": true})
	}

	status := helper.DeriveAccountStatus(&acct)
	bankAdded := helper.HasExternalAccount(&acct)

	var restaurant model.Restaurant
	if err := database.DB.Where("stripe_connect_account_id = ?", acct.ID).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Orphan: exists at Stripe, never created through our flow.
			log.Printf("orphan stripe account %s, event %s recorded and ignored", acct.ID, event.ID)
			recordEventOnly(event.ID, string(event.Type))
			return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true, "orphan": true})
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	tx := database.DB.Begin()
	if err := tx.Create(&model.StripeEvent{ID: event.ID, Type: string(event.Type)}).Error; err != nil {
		tx.Rollback()
		if isDuplicateErr(err) {
			return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true, "duplicate": true})
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if err := tx.Model(&restaurant).Updates(map[string]interface{}{
		"stripe_account_status": status,
		"bank_account_added":    bankAdded,
	}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true, "status": status})
}

// StripePaymentWebhook consumes payment events and is the sole writer of
// PAID, FAILED and (for gateway refunds) REFUNDED on orders.
func StripePaymentWebhook(c *fiber.Ctx) error {
	event, err := webhook.ConstructEvent(c.Body(), c.Get("Stripe-Signature"), config.Config("STRIPE_PAYMENT_WEBHOOK_SECRET"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid webhook signature", err)
	}

	eventType := string(event.Type)
	switch eventType {
	case evIntentSucceeded, evIntentFailed, evChargeRefunded, evRefundUpdated:
	default:
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true})
	}

	processed, err := eventAlreadyProcessed(event.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	if processed {
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true, "duplicate": true})
	}

	switch eventType {
	case evIntentSucceeded, evIntentFailed:
		return handleIntentEvent(c, &event, eventType)
	default:
		return handleRefundEvent(c, &event, eventType)
	}
}

func handleIntentEvent(c *fiber.Ctx, event *stripe.Event, eventType string) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Printf("cannot decode intent from event %s: %v", event.ID, err)
		recordEventOnly(event.ID, eventType)
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true})
	}

	orderIdStr := pi.Metadata["order_id"]
	orderId, err := strconv.ParseUint(orderIdStr, 10, 64)
	if err != nil || orderId == 0 {
		log.Printf("event %s intent %s has no order_id metadata", event.ID, pi.ID)
		recordEventOnly(event.ID, eventType)
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true})
	}

	var order model.Order
	if err := database.DB.Preload("Items").Preload("Restaurant").Preload("User").First(&order, uint(orderId)).Error; err != nil {
		log.Printf("event %s references missing order %d", event.ID, orderId)
		recordEventOnly(event.ID, eventType)
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true})
	}

	becamePaid := false
	tx := database.DB.Begin()
	if err := tx.Create(&model.StripeEvent{ID: event.ID, Type: eventType}).Error; err != nil {
		tx.Rollback()
		if isDuplicateErr(err) {
			return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true, "duplicate": true})
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	if eventType == evIntentSucceeded {
		// Duplicate deliveries that slipped past the ledger must not touch a
		// paid order again.
		if order.PaymentStatus != constants.PaymentPaid {
			now := time.Now()
			if err := tx.Model(&order).Updates(map[string]interface{}{
				"payment_status": constants.PaymentPaid,
				"paid_at":        now,
			}).Error; err != nil {
				tx.Rollback()
				return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
			}
			becamePaid = true
		}
	} else {
		if err := tx.Model(&order).Update("payment_status", constants.PaymentFailed).Error; err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	if becamePaid {
		sendOrderReceipt(&order)
		BroadcastOrderUpdate(order.ID, fiber.Map{"orderNumber": order.OrderNumber, "paymentStatus": constants.PaymentPaid})
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true})
}

func handleRefundEvent(c *fiber.Ctx, event *stripe.Event, eventType string) error {
	// Resolve the intent reference carried by the refund payload.
	intentId := ""
	isPartial := false
	refundId := ""

	if eventType == evChargeRefunded {
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err == nil && ch.PaymentIntent != nil {
			intentId = ch.PaymentIntent.ID
			isPartial = ch.AmountRefunded > 0 && ch.AmountRefunded < ch.Amount
		}
	} else {
		var ref stripe.Refund
		if err := json.Unmarshal(event.Data.Raw, &ref); err == nil {
			refundId = ref.ID
			if ref.PaymentIntent != nil {
				intentId = ref.PaymentIntent.ID
			}
		}
	}

	if intentId == "" {
		log.Printf("refund event %s carries no intent reference", event.ID)
		recordEventOnly(event.ID, eventType)
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true})
	}

	var order model.Order
	if err := database.DB.Where("stripe_payment_intent_id = ?", intentId).First(&order).Error; err != nil {
		log.Printf("refund event %s matches no order (intent %s)", event.ID, intentId)
		recordEventOnly(event.ID, eventType)
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true})
	}

	tx := database.DB.Begin()
	if err := tx.Create(&model.StripeEvent{ID: event.ID, Type: eventType}).Error; err != nil {
		tx.Rollback()
		if isDuplicateErr(err) {
			return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true, "duplicate": true})
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	// Full vs partial is captured on the refund row; the order status does
	// not distinguish the two.
	if err := tx.Model(&order).Update("payment_status", constants.PaymentRefunded).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}
	updates := map[string]interface{}{"status": "SUCCEEDED"}
	if isPartial {
		updates["is_partial"] = true
	}
	if refundId != "" {
		if err := tx.Model(&model.Refund{}).
			Where("order_id = ? AND type = ? AND stripe_refund_id = ?", order.ID, "gateway", refundId).
			Updates(updates).Error; err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
		}
	} else {
		// charge.refunded carries no refund id; settle only the newest
		// pending row so unrelated in-flight refunds stay untouched.
		var pending model.Refund
		err := tx.Where("order_id = ? AND type = ? AND status = ?", order.ID, "gateway", "PENDING").
			Order("id DESC").First(&pending).Error
		if err == nil {
			if err := tx.Model(&pending).Updates(updates).Error; err != nil {
				tx.Rollback()
				return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.INTERNAL_ERROR, err)
	}

	BroadcastOrderUpdate(order.ID, fiber.Map{"orderNumber": order.OrderNumber, "paymentStatus": constants.PaymentRefunded})

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"received": true})
}
