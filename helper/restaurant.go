package helper

import (
	"fmt"
	"log"
	"mall_manager/constants"
	"mall_manager/database"
	"mall_manager/model"
	"time"

	"github.com/robfig/cron/v3"
)

var hoursScheduler *cron.Cron

// IsOpenAt checks the configured business hours against a wall-clock time.
// Overnight windows (e.g. 18:00-02:00) count as open past midnight.
func IsOpenAt(hours []model.BusinessHour, at time.Time) bool {
	hhmm := at.Format("15:04")
	weekday := int(at.Weekday())
	prevDay := (weekday + 6) % 7

	for _, h := range hours {
		if h.Closed {
			continue
		}
		if h.Weekday == weekday {
			if h.OpensAt <= h.ClosesAt {
				if hhmm >= h.OpensAt && hhmm < h.ClosesAt {
					return true
				}
			} else if hhmm >= h.OpensAt {
				return true
			}
		}
		// spill-over from yesterday's overnight window
		if h.Weekday == prevDay && h.OpensAt > h.ClosesAt && hhmm < h.ClosesAt {
			return true
		}
	}
	return false
}

// RefreshOpenFlags recomputes IsOpen for every approved restaurant.
func RefreshOpenFlags() {
	db := database.DB
	now := time.Now()

	var restaurants []model.Restaurant
	if err := db.Preload("BusinessHours").Where("status = ?", constants.RestaurantApproved).Find(&restaurants).Error; err != nil {
		log.Printf("failed to scan restaurants for open flags: %v", err)
		return
	}

	for _, r := range restaurants {
		open := IsOpenAt(r.BusinessHours, now)
		if open == r.IsOpen {
			continue
		}
		if err := db.Model(&model.Restaurant{}).Where("id = ?", r.ID).Update("is_open", open).Error; err != nil {
			log.Printf("failed to update open flag for restaurant %d: %v", r.ID, err)
		}
	}
}

func StartBusinessHoursScheduler() {
	hoursScheduler = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	_, err := hoursScheduler.AddFunc("*/5 * * * *", RefreshOpenFlags)
	if err != nil {
		log.Printf("failed to schedule business hours job: %v", err)
		return
	}

	hoursScheduler.Start()
	log.Println("[CRON] business hours scheduler started")
}

func StopBusinessHoursScheduler() {
	if hoursScheduler != nil {
		hoursScheduler.Stop()
	}
}

// FormatMoney renders an amount for receipts.
func FormatMoney(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}
