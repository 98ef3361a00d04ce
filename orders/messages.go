package orders

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"jewelbox/models"
)

func money(v float64) string {
	return "INR " + decimal.NewFromFloat(v).StringFixed(2)
}

func confirmationEmail(o models.Order) models.Notification {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThank you for your order %s.\n\n", o.CustomerName, o.OrderID)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "  %d x %s  %s\n", item.Quantity, item.Name, money(item.Price*float64(item.Quantity)))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\nShipping: %s\nTotal: %s\n", money(o.Subtotal), money(o.ShippingCost), money(o.TotalAmount))
	fmt.Fprintf(&b, "\nEstimated delivery: %s\n", o.EstimatedDelivery.Format("Mon, 02 Jan 2006"))
	return models.Notification{
		OrderID:   o.OrderID,
		Channel:   models.ChannelEmail,
		Recipient: o.CustomerEmail,
		Subject:   "Order confirmation " + o.OrderID,
		Body:      b.String(),
	}
}

func confirmationSMS(o models.Order) models.Notification {
	return models.Notification{
		OrderID:   o.OrderID,
		Channel:   models.ChannelSMS,
		Recipient: o.CustomerPhone,
		Body: fmt.Sprintf("Order %s confirmed. Total %s. Expected by %s.",
			o.OrderID, money(o.TotalAmount), o.EstimatedDelivery.Format("02 Jan")),
	}
}

func adminEmail(o models.Order, to string) models.Notification {
	return models.Notification{
		OrderID:   o.OrderID,
		Channel:   models.ChannelEmail,
		Recipient: to,
		Subject:   "New order " + o.OrderID,
		Body: fmt.Sprintf("%s (%s, %s) placed order %s with %d item(s) for %s via %s.\n",
			o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.OrderID, len(o.Items), money(o.TotalAmount), o.PaymentMethod),
	}
}

// statusEmail returns false for statuses the customer is not told about.
func statusEmail(o models.Order) (models.Notification, bool) {
	var line string
	switch o.OrderStatus {
	case models.OrderShipped:
		line = "has been shipped"
		if o.TrackingNumber != "" {
			line += ". Tracking number: " + o.TrackingNumber
		}
	case models.OrderDelivered:
		line = "has been delivered"
	case models.OrderCancelled:
		line = "has been cancelled"
	default:
		return models.Notification{}, false
	}
	return models.Notification{
		OrderID:   o.OrderID,
		Channel:   models.ChannelEmail,
		Recipient: o.CustomerEmail,
		Subject:   fmt.Sprintf("Order %s %s", o.OrderID, o.OrderStatus),
		Body:      fmt.Sprintf("Hi %s,\n\nYour order %s %s.\n", o.CustomerName, o.OrderID, line),
	}, true
}
