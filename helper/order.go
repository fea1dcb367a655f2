package helper

import (
	"log"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/model"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

var orderScheduler gocron.Scheduler

func GenerateOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}

// ExpireUnpaidOrders cancels card orders that were never paid within the
// payment window. Cash orders stay open, they are settled on delivery.
func ExpireUnpaidOrders() {
	db := database.DB
	cutoff := time.Now().Add(-30 * time.Minute)

	var stale []model.Order
	err := db.
		Where("payment_method = ? AND payment_status = ? AND status = ? AND created_at < ?",
			constants.MethodCard, constants.PaymentUnpaid, constants.OrderPlaced, cutoff).
		Find(&stale).Error
	if err != nil {
		log.Printf("failed to scan unpaid orders: %v", err)
		return
	}

	if len(stale) == 0 {
		return
	}

	now := time.Now()
	for _, order := range stale {
		order.Status = constants.OrderCancelled
		order.CancelledAt = &now
		if err := db.Save(&order).Error; err != nil {
			log.Printf("failed to expire order %s: %v", order.OrderNumber, err)
		}
	}

	log.Printf("expired %d unpaid orders", len(stale))
}

func StartOrderExpiryScheduler() {
	s, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("failed to create order expiry scheduler: %v", err)
		return
	}

	_, err = s.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(ExpireUnpaidOrders),
	)
	if err != nil {
		log.Printf("failed to schedule order expiry job: %v", err)
		return
	}

	s.Start()
	orderScheduler = s
	log.Println("[CRON] order expiry scheduler started")
}

func StopOrderExpiryScheduler() {
	if orderScheduler != nil {
		_ = orderScheduler.Shutdown()
	}
}
