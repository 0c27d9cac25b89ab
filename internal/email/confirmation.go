package email

import (
	"bytes"
	_ "embed"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// Subject of the waitlist confirmation email.
const Subject = "Rootfleet waitlist confirmation"

// MissingValue is rendered for an absent company name.
const MissingValue = "—"

var (
	//go:embed templates/confirmation.html
	confirmationHTMLRaw string
	//go:embed templates/confirmation.txt
	confirmationTextRaw string

	// html/template escapes every interpolated value for its HTML context;
	// text/template leaves values as typed for the plain-text part.
	confirmationHTML = htmltemplate.Must(htmltemplate.New("confirmation.html").Parse(confirmationHTMLRaw))
	confirmationText = texttemplate.Must(texttemplate.New("confirmation.txt").Parse(confirmationTextRaw))
)

var roleLabels = map[string]string{
	"fleet_owner": "Fleet Owner",
	"operations":  "Operations / Dispatcher",
	"fleet_staff": "Driver / Fleet staff",
	"engineer":    "Engineer / Technical",
	"other":       "Other",
}

// RoleLabel returns the display label for a role, "Other" when unknown.
func RoleLabel(role string) string {
	if label, ok := roleLabels[role]; ok {
		return label
	}
	return "Other"
}

// Fields are the signup values rendered into the email.
type Fields struct {
	Email       string
	Role        string
	FleetSize   string
	CompanyName *string
}

// Message is a rendered email.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

type templateData struct {
	Email     string
	Role      string
	FleetSize string
	Company   string
}

// BuildConfirmation renders the confirmation email. It has no side effects.
func BuildConfirmation(f Fields) (Message, error) {
	company := MissingValue
	if f.CompanyName != nil && strings.TrimSpace(*f.CompanyName) != "" {
		company = *f.CompanyName
	}
	data := templateData{
		Email:     f.Email,
		Role:      RoleLabel(f.Role),
		FleetSize: f.FleetSize,
		Company:   company,
	}

	var html, text bytes.Buffer
	if err := confirmationHTML.Execute(&html, data); err != nil {
		return Message{}, err
	}
	if err := confirmationText.Execute(&text, data); err != nil {
		return Message{}, err
	}

	return Message{Subject: Subject, HTML: html.String(), Text: text.String()}, nil
}
