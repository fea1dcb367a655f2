package utils

import (
	"bytes"
	"html/template"
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

type OrderReceiptData struct {
	OrderNumber    string
	RestaurantName string
	Items          string
	Total          float64
	Currency       string
	PaymentMethod  string
	DetailLink     string
}

type OtpEmailData struct {
	UserName string
	Code     string
}

// SendOrderReceiptEmail sends the paid-order receipt (async so the webhook
// handler never waits on SMTP).
func SendOrderReceiptEmail(to string, data OrderReceiptData) {
	go func() {
		sendTemplate(to, "Your order "+data.OrderNumber, "templates/order_receipt.html", data)
	}()
}

// SendOtpEmail sends the email-verification code (async).
func SendOtpEmail(to string, data OtpEmailData) {
	go func() {
		sendTemplate(to, "Your verification code", "templates/otp.html", data)
	}()
}

func sendTemplate(to, subject, tmplPath string, data any) {
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		log.Printf("failed to load email template %s: %v", tmplPath, err)
		return
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		log.Printf("failed to render email template %s: %v", tmplPath, err)
		return
	}

	host := os.Getenv("SMTP_HOST")
	portStr := os.Getenv("SMTP_PORT")
	username := os.Getenv("SMTP_USERNAME")
	password := os.Getenv("SMTP_PASSWORD")
	from := os.Getenv("SMTP_FROM")

	port, _ := strconv.Atoi(portStr)

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(host, port, username, password)
	if err := d.DialAndSend(m); err != nil {
		log.Printf("failed to send email to %s: %v", to, err)
	}
}
