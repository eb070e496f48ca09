package service

import (
	"fmt"
	"strings"

	"barberbridge/internal/config"
	"barberbridge/internal/models"
)

const (
	replyCanceled    = "❌ Appointment canceled successfully. You can book again whenever you like!"
	replyCheckStatus = "📅 You have an upcoming appointment. Would you like to confirm or cancel it?"
	replyBookFailed  = "😔 Sorry, we could not save your appointment right now. Please try again in a few minutes."
)

func bookedReply(appt models.NewAppointment) string {
	return fmt.Sprintf("✅ Appointment booked!\n\n📅 %s\n⏰ %s\n💇 %s\n\nYou will receive a confirmation soon.",
		appt.Date, appt.Time, appt.Service)
}

func greetingReply(shop config.ShopConfig) string {
	return fmt.Sprintf("Hello! 👋 Welcome to %s. How can I help you?\n\n"+
		"1️⃣ Book\n2️⃣ Cancel\n3️⃣ Check my appointment\n4️⃣ Hours, address and prices", shop.Name)
}

func infoReply(shop config.ShopConfig, services []models.ServiceCatalogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💈 %s\n", shop.Name)
	if shop.Address != "" {
		fmt.Fprintf(&b, "📍 %s\n", shop.Address)
	}
	fmt.Fprintf(&b, "🕘 %s\n", shop.Hours)
	if len(services) > 0 {
		b.WriteString("\nPrices:\n")
		for _, s := range services {
			fmt.Fprintf(&b, "• %s (%d min): $%.2f\n", s.Name, s.DurationMinutes, s.Price)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// DirectConfirmationMessage is sent to the client after a create through the HTTP API.
func DirectConfirmationMessage(appt models.NewAppointment) string {
	return fmt.Sprintf("✅ Hi %s! Your %s is scheduled for %s at %s.",
		appt.ClientName, appt.Service, appt.Date, appt.Time)
}
