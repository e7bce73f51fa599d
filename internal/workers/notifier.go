// internal/workers/notifier.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/pkg/config"
)

// LowStockAlert flags a product at or under the alert threshold
type LowStockAlert struct {
	ItemID   uuid.UUID `json:"item_id"`
	Name     string    `json:"name"`
	Quantity int       `json:"quantity"`
	Depleted bool      `json:"depleted"`
}

// Notifier delivers stock alerts to an owner
type Notifier interface {
	NotifyLowStock(ctx context.Context, owner *domain.User, alerts []LowStockAlert) error
}

// NewNotifier mails alerts when an SMTP host is configured and logs them otherwise
func NewNotifier(cfg config.NotifyConfig, logger *slog.Logger) Notifier {
	if cfg.SMTPHost == "" {
		return &LogNotifier{logger: logger.With(slog.String("notifier", "log"))}
	}
	return &SMTPNotifier{
		cfg:      cfg,
		sendMail: smtp.SendMail,
		logger:   logger.With(slog.String("notifier", "smtp")),
	}
}

// LogNotifier writes alerts to the log
type LogNotifier struct {
	logger *slog.Logger
}

// NotifyLowStock logs one line per alert
func (n *LogNotifier) NotifyLowStock(ctx context.Context, owner *domain.User, alerts []LowStockAlert) error {
	for _, a := range alerts {
		n.logger.InfoContext(ctx, "low stock alert",
			slog.String("owner_id", owner.ID.String()),
			slog.String("item_id", a.ItemID.String()),
			slog.String("name", a.Name),
			slog.Int("quantity", a.Quantity),
			slog.Bool("depleted", a.Depleted))
	}
	return nil
}

// SMTPNotifier mails alerts through an SMTP relay
type SMTPNotifier struct {
	cfg      config.NotifyConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger   *slog.Logger
}

// NotifyLowStock sends one message listing every alert
func (n *SMTPNotifier) NotifyLowStock(ctx context.Context, owner *domain.User, alerts []LowStockAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	from, err := mail.ParseAddress(n.cfg.From)
	if err != nil {
		return fmt.Errorf("invalid sender address %q: %w", n.cfg.From, err)
	}
	to := mail.Address{Name: owner.FullName(), Address: owner.Email}

	subject := fmt.Sprintf("Low stock: %d product(s) need attention", len(alerts))
	msg := buildMessage(from.String(), to.String(), subject, alertBody(owner, alerts))

	var auth smtp.Auth
	if n.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", n.cfg.SMTPUser, n.cfg.SMTPPassword, n.cfg.SMTPHost)
	}
	addr := net.JoinHostPort(n.cfg.SMTPHost, strconv.Itoa(n.cfg.SMTPPort))

	if err := n.sendMail(addr, auth, from.Address, []string{owner.Email}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.InfoContext(ctx, "low stock email sent",
		slog.String("owner_id", owner.ID.String()),
		slog.Int("alerts", len(alerts)))
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func alertBody(owner *domain.User, alerts []LowStockAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\r\n\r\nThe following products are running low:\r\n\r\n", owner.FirstName)
	for _, a := range alerts {
		status := fmt.Sprintf("%d left", a.Quantity)
		if a.Depleted {
			status = "out of stock"
		}
		fmt.Fprintf(&b, "  - %s: %s\r\n", a.Name, status)
	}
	return b.String()
}
