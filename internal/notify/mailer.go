package notify

import (
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/ariefcatur/go-elite-store.git/internal/orders"
	"github.com/ariefcatur/go-elite-store.git/internal/users"
)

// Sender is satisfied by *gomail.Dialer; tests swap in a recorder.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	Sender Sender
	From   string
}

func NewMailer(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{Sender: gomail.NewDialer(host, port, user, pass), From: from}
}

// SendOrderConfirmation emails the receipt with the invoice PDF attached.
func (m *Mailer) SendOrderConfirmation(u *users.User, o *orders.Order, pdf []byte) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", u.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Your Elite Store order %s", shortID(o.ID)))
	msg.SetBody("text/html", confirmationBody(u, o))
	msg.Attach(
		fmt.Sprintf("invoice-%s.pdf", shortID(o.ID)),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(pdf)
			return err
		}),
	)
	return m.Sender.DialAndSend(msg)
}

// SendOTP mails a contact-change verification code. The purpose string
// ("Email Update", "Phone Update") shows up in the subject so the user
// knows what the code unlocks.
func (m *Mailer) SendOTP(to, code, purpose string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Elite Store %s Verification Code", purpose))
	msg.SetBody("text/html", fmt.Sprintf(`<p>Your verification code is:</p>
<h2>%s</h2>
<p>It expires in 10 minutes. If you did not request this change, ignore this email.</p>
<p>Elite Store</p>`, code))
	return m.Sender.DialAndSend(msg)
}

func confirmationBody(u *users.User, o *orders.Order) string {
	settle := "Payment received."
	if o.PaymentMethod == orders.PaymentCOD {
		settle = "You will pay on delivery."
	}
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>Thanks for your order! We have received it and will start processing shortly.</p>
<p>Order total: <strong>$%d.%02d</strong>. %s</p>
<p>Your invoice is attached.</p>
<p>— Elite Store</p>`,
		u.FirstName, o.TotalCents/100, o.TotalCents%100, settle)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
