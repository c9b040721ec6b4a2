package features

import (
	"time"

	"github.com/trogers1052/mandi-price-service/internal/models"
)

// festivalDays are known festival dates that move mandi demand
var festivalDays = map[string]string{
	"2026-01-26": "Republic Day",
	"2026-03-08": "Holi",
	"2026-08-29": "Ganesh Chaturthi",
	"2026-10-20": "Diwali",
}

// IsFestival returns 1 when the date is a known festival day, otherwise 0
func IsFestival(t time.Time) int {
	if _, ok := festivalDays[t.Format(models.DateLayout)]; ok {
		return 1
	}
	return 0
}
