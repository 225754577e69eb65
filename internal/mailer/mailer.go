// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package mailer delivers transactional mail over SMTP: contact form
// messages to the site inbox and notifications to newsletter
// subscribers.
package mailer

import (
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"
)

// Mailer sends mail through a configured SMTP server.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	to     string // inbox the contact form delivers to
}

// New creates a mailer. Returns nil if host is empty, allowing the app
// to start without SMTP (contact form submissions are then rejected).
func New(host string, port int, username, password, from, contactTo string) *Mailer {
	if host == "" {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		to:     contactTo,
	}
}

// SendContact delivers a contact form submission to the site inbox.
// The visitor's address goes in Reply-To so the inbox can answer
// directly.
func (m *Mailer) SendContact(name, email, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Reply-To", email)
	msg.SetHeader("Subject", fmt.Sprintf("[contact] %s", subject))
	msg.SetBody("text/html", fmt.Sprintf(
		"<p><strong>%s</strong> &lt;%s&gt; wrote:</p><p>%s</p>",
		html.EscapeString(name),
		html.EscapeString(email),
		strings.ReplaceAll(html.EscapeString(body), "\n", "<br>"),
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send contact mail: %w", err)
	}
	return nil
}

// SendNewPost notifies newsletter subscribers about a published post.
// Recipients go in BCC so addresses are not disclosed to each other.
func (m *Mailer) SendNewPost(recipients []string, title, url string) error {
	if len(recipients) == 0 {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.from)
	msg.SetHeader("Bcc", recipients...)
	msg.SetHeader("Subject", title)
	msg.SetBody("text/html", fmt.Sprintf(
		"<p>A new post is up on SpruceUp Living:</p><p><a href=%q>%s</a></p>",
		url, html.EscapeString(title),
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send newsletter mail: %w", err)
	}
	return nil
}
