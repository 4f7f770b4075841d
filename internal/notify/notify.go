// Package notify formats run reports into a human-readable digest and
// delivers it to a local log file and, optionally, by email.
package notify

import (
	"errors"
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"github.com/netmpowers/bookwatch/internal/model"
)

// MailConfig holds SMTP delivery settings. An empty Host disables mail.
// Credentials come from deployment configuration, never from code.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

func (c MailConfig) enabled() bool {
	return c.Host != "" && c.From != "" && c.To != ""
}

// Notifier delivers digests.
type Notifier struct {
	logPath string
	mail    MailConfig
}

// New creates a notifier that appends digests to logPath and mails them
// when mail is configured.
func New(logPath string, mail MailConfig) *Notifier {
	return &Notifier{logPath: logPath, mail: mail}
}

// Deliver writes the digest for a report. Both channels are attempted
// even if one fails; delivery failures never touch store state.
func (n *Notifier) Deliver(report *model.Report) error {
	digest := FormatDigest(report)

	var errs []error
	if n.logPath != "" {
		if err := appendToLog(n.logPath, digest); err != nil {
			errs = append(errs, fmt.Errorf("append digest log: %w", err))
		}
	}
	if n.mail.enabled() {
		subject := fmt.Sprintf("NNTP deltas %s", report.Timestamp)
		if err := n.sendMail(subject, digest); err != nil {
			errs = append(errs, fmt.Errorf("send digest mail: %w", err))
		}
	}
	return errors.Join(errs...)
}

// FormatDigest renders a report as fixed-width text, one block per term.
func FormatDigest(report *model.Report) string {
	var b strings.Builder
	for _, entry := range report.Entries {
		fmt.Fprintf(&b, "%s\n", report.Timestamp)
		fmt.Fprintf(&b, "%s\n", entry.Term)
		fmt.Fprintf(&b, "%s\n", strings.Repeat("=", len(entry.Term)))
		fmt.Fprintf(&b, "%-5s %-30s %-30s %-20s %-15s\n", "Idx", "Subject", "Poster", "Group", "Age")
		for _, row := range entry.Rows {
			fmt.Fprintf(&b, "%-5d %-30s %-30s %-20s %-15s\n",
				row.Index, row.Subject, row.Poster, row.Group, row.Age)
		}
		b.WriteString("\n")
	}
	for _, msg := range report.Errors {
		fmt.Fprintf(&b, "%s %s\n", report.Timestamp, msg)
	}
	return b.String()
}

func appendToLog(path, text string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(text)
	return err
}

func (n *Notifier) sendMail(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.mail.Host, n.mail.Port)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.mail.From, n.mail.To, subject, body)

	var auth smtp.Auth
	if n.mail.Username != "" {
		auth = smtp.PlainAuth("", n.mail.Username, n.mail.Password, n.mail.Host)
	}
	return smtp.SendMail(addr, auth, n.mail.From, []string{n.mail.To}, []byte(msg))
}
