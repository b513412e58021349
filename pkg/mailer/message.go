package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
)

type Kind string

const (
	KindOrderConfirmation Kind = "order-confirmation"
	KindOrderShipped      Kind = "order-shipped"
	KindContact           Kind = "contact"
)

var (
	ErrUnknownKind    = errors.New("unknown email type")
	ErrInvalidAddress = errors.New("invalid recipient address")
)

// Message is a typed email payload. Data keys depend on Kind.
type Message struct {
	Kind Kind
	Data map[string]interface{}
}

type templateSpec struct {
	subject string
	body    *template.Template
}

const layoutHead = `<html><body style="font-family: Georgia, serif; padding: 20px; background-color: #f7f3ee;">
<div style="max-width: 600px; margin: 0 auto; background-color: #fff; padding: 40px; border-radius: 8px;">`

const layoutTail = `<p style="color: #8a7f72; font-size: 13px;">Lumberhaus Furniture</p></div></body></html>`

var templates = map[Kind]templateSpec{
	KindOrderConfirmation: {
		subject: "Your Lumberhaus order #%v is confirmed",
		body: template.Must(template.New("order-confirmation").Parse(layoutHead + `
<h1 style="color: #3b2f25;">Thank you for your order{{with .customerName}}, {{.}}{{end}}</h1>
<p>We received order <strong>#{{.orderId}}</strong>{{with .total}} totalling <strong>{{.}}</strong>{{end}}.</p>
<p>We will let you know as soon as it ships.</p>
` + layoutTail)),
	},
	KindOrderShipped: {
		subject: "Your Lumberhaus order #%v has shipped",
		body: template.Must(template.New("order-shipped").Parse(layoutHead + `
<h1 style="color: #3b2f25;">Your order is on its way</h1>
<p>Order <strong>#{{.orderId}}</strong> left our workshop.</p>
{{with .trackingNumber}}<p>Tracking number: <strong>{{.}}</strong></p>{{end}}
` + layoutTail)),
	},
	KindContact: {
		subject: "New contact request%v",
		body: template.Must(template.New("contact").Parse(layoutHead + `
<h1 style="color: #3b2f25;">Contact request</h1>
<p><strong>From:</strong> {{.name}} &lt;{{.email}}&gt;</p>
<p>{{.message}}</p>
` + layoutTail)),
	},
}

// Render produces the subject and HTML body of msg.
func Render(msg Message) (string, string, error) {
	spec, ok := templates[msg.Kind]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownKind, msg.Kind)
	}

	data := msg.Data
	if data == nil {
		data = map[string]interface{}{}
	}

	var subject string
	switch msg.Kind {
	case KindContact:
		suffix := ""
		if name, ok := data["name"]; ok {
			suffix = fmt.Sprintf(" from %v", name)
		}
		subject = fmt.Sprintf(spec.subject, suffix)
	default:
		subject = fmt.Sprintf(spec.subject, data["orderId"])
	}

	var body bytes.Buffer
	if err := spec.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", msg.Kind, err)
	}
	return subject, body.String(), nil
}

// ValidKind reports whether k has a template.
func ValidKind(k Kind) bool {
	_, ok := templates[k]
	return ok
}

func validateAddress(to string) error {
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, to)
	}
	return nil
}
