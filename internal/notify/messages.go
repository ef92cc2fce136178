package notify

import (
	"bytes"
	"fmt"
	"text/template"
)

const (
	bookingConfirmationTmpl = "Your appointment with {{.Doctor}} on {{.Date}} at {{.Time}} is booked. Reply to this number if you need to make changes."
	statusUpdateTmpl        = "Update: your appointment with {{.Doctor}} on {{.Date}} at {{.Time}} is now {{.Status}}."
)

// MessageData carries the appointment fields referenced by outbound
// message templates.
type MessageData struct {
	Doctor string
	Date   string
	Time   string
	Status string
}

// BookingConfirmation renders the SMS sent after a successful booking.
func BookingConfirmation(data MessageData) (string, error) {
	return render("booking_confirmation", bookingConfirmationTmpl, data)
}

// StatusUpdate renders the SMS sent when an appointment changes status.
func StatusUpdate(data MessageData) (string, error) {
	return render("status_update", statusUpdateTmpl, data)
}

func render(name, tmpl string, data any) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("notify: parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", name, err)
	}
	return buf.String(), nil
}
