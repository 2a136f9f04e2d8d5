package notify

import "fmt"

// BookingCreated is the confirmation sent after a customer books.
type BookingCreated struct {
	Phone        string `json:"phone"`
	Code         string `json:"code"`
	CustomerName string `json:"customer_name"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

// Text renders the SMS body.
func (m BookingCreated) Text() string {
	return fmt.Sprintf("Dear %s, your appointment on %s at %s is received. Your booking code is %s.",
		m.CustomerName, m.Date, m.Time, m.Code)
}

// BookingStatus tells the customer an operator confirmed or cancelled the appointment.
type BookingStatus struct {
	Phone        string `json:"phone"`
	Code         string `json:"code"`
	CustomerName string `json:"customer_name"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Status       string `json:"status"`
}

// Text renders the SMS body.
func (m BookingStatus) Text() string {
	switch m.Status {
	case "CONFIRMED":
		return fmt.Sprintf("Dear %s, your appointment %s on %s at %s is confirmed.", m.CustomerName, m.Code, m.Date, m.Time)
	case "CANCELLED":
		return fmt.Sprintf("Dear %s, your appointment %s on %s at %s has been cancelled.", m.CustomerName, m.Code, m.Date, m.Time)
	default:
		return fmt.Sprintf("Dear %s, your appointment %s is now %s.", m.CustomerName, m.Code, m.Status)
	}
}
