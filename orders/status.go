package orders

import (
	"time"

	"jewelbox/models"
)

// transitions lists the statuses reachable from each status. Delivered and cancelled are terminal.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderProcessing: {models.OrderConfirmed, models.OrderShipped, models.OrderCancelled},
	models.OrderConfirmed:  {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:    {models.OrderDelivered},
	models.OrderDelivered:  {},
	models.OrderCancelled:  {},
}

// CanTransition reports whether an order may move from one status to another. Staying on the same
// status is always allowed so tracking numbers and notes can be edited.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return to.Valid()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AddBusinessDays walks forward n weekdays from t, skipping Saturdays and Sundays.
func AddBusinessDays(t time.Time, n int) time.Time {
	for added := 0; added < n; {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return t
}
