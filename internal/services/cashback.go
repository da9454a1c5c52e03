package services

import (
	"context"
	"time"

	"github.com/yishak-cs/storefront-recommender/internal/models"
)

const (
	// CashbackReminderDays is the inactivity past which a reminder is raised
	CashbackReminderDays = 30
	// CashbackHighPriorityDays is the inactivity past which a reminder is high priority
	CashbackHighPriorityDays = 60
)

// CashbackScanner finds users sitting on unused cashback
type CashbackScanner struct {
	users UserRepository
	now   func() time.Time
}

// NewCashbackScanner creates a scanner
func NewCashbackScanner(users UserRepository) *CashbackScanner {
	return &CashbackScanner{users: users, now: time.Now}
}

// Scan returns a reminder for every user with positive cashback whose last
// purchase is more than 30 whole days ago. Users without a purchase date are skipped.
func (s *CashbackScanner) Scan(ctx context.Context) ([]models.CashbackReminder, error) {
	users, err := s.users.FindUsersWithPositiveCashback(ctx)
	if err != nil {
		return nil, dataAccessError("read users with cashback", err)
	}

	now := s.now()
	reminders := make([]models.CashbackReminder, 0)
	for _, u := range users {
		if u.CashbackBalance <= 0 || u.LastPurchaseDate == nil {
			continue
		}
		days := DaysSince(*u.LastPurchaseDate, now)
		if days <= CashbackReminderDays {
			continue
		}
		priority := models.CashbackPriorityMedium
		if days > CashbackHighPriorityDays {
			priority = models.CashbackPriorityHigh
		}
		reminders = append(reminders, models.CashbackReminder{
			UserID:                u.ID,
			DisplayName:           u.DisplayName,
			CashbackBalance:       u.CashbackBalance,
			DaysSinceLastPurchase: days,
			Priority:              priority,
		})
	}
	return reminders, nil
}

// DaysSince returns the number of whole days elapsed from then to now
func DaysSince(then, now time.Time) int {
	return int(now.Sub(then) / (24 * time.Hour))
}
