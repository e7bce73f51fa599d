// internal/workers/notifier_test.go
package workers

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/pkg/config"
	"github.com/ammerola/stockledger-be/test/helpers"
)

func TestNewNotifier(t *testing.T) {
	assert.IsType(t, &LogNotifier{}, NewNotifier(config.NotifyConfig{}, helpers.TestLogger()))
	assert.IsType(t, &SMTPNotifier{}, NewNotifier(config.NotifyConfig{SMTPHost: "smtp.test"}, helpers.TestLogger()))
}

func TestSMTPNotifier_NotifyLowStock(t *testing.T) {
	owner := helpers.CreateTestUser(func(u *domain.User) {
		u.FirstName = "Ada"
		u.LastName = "Lovelace"
		u.Email = "ada@example.com"
	})
	alerts := []LowStockAlert{
		{ItemID: uuid.New(), Name: "Bolt", Quantity: 2},
		{ItemID: uuid.New(), Name: "Nut", Depleted: true},
	}

	tests := []struct {
		name          string
		cfg           config.NotifyConfig
		sendErr       error
		expectedError string
		check         func(t *testing.T, addr string, auth smtp.Auth, from string, to []string, msg string)
	}{
		{
			name: "sends_one_message_listing_alerts",
			cfg: config.NotifyConfig{
				SMTPHost:     "smtp.test",
				SMTPPort:     2525,
				SMTPUser:     "mailer",
				SMTPPassword: "pw",
				From:         "Stock Ledger <alerts@stockledger.test>",
			},
			check: func(t *testing.T, addr string, auth smtp.Auth, from string, to []string, msg string) {
				assert.Equal(t, "smtp.test:2525", addr)
				assert.NotNil(t, auth)
				assert.Equal(t, "alerts@stockledger.test", from)
				assert.Equal(t, []string{"ada@example.com"}, to)
				assert.Contains(t, msg, "Subject: Low stock: 2 product(s) need attention\r\n")
				assert.Contains(t, msg, `To: "Ada Lovelace" <ada@example.com>`)
				assert.Contains(t, msg, "  - Bolt: 2 left\r\n")
				assert.Contains(t, msg, "  - Nut: out of stock\r\n")
			},
		},
		{
			name: "no_auth_without_user",
			cfg:  config.NotifyConfig{SMTPHost: "smtp.test", SMTPPort: 25, From: "alerts@stockledger.test"},
			check: func(t *testing.T, _ string, auth smtp.Auth, _ string, _ []string, _ string) {
				assert.Nil(t, auth)
			},
		},
		{
			name:          "invalid_sender",
			cfg:           config.NotifyConfig{SMTPHost: "smtp.test", From: "not an address"},
			expectedError: "invalid sender address",
		},
		{
			name:          "relay_failure",
			cfg:           config.NotifyConfig{SMTPHost: "smtp.test", From: "alerts@stockledger.test"},
			sendErr:       errors.New("connection refused"),
			expectedError: "failed to send email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			n := NewNotifier(tt.cfg, helpers.TestLogger()).(*SMTPNotifier)
			n.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
				called = true
				if tt.check != nil {
					tt.check(t, addr, a, from, to, string(msg))
				}
				return tt.sendErr
			}

			err := n.NotifyLowStock(context.Background(), owner, alerts)
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.True(t, called)
		})
	}
}

func TestLogNotifier_NotifyLowStock(t *testing.T) {
	n := NewNotifier(config.NotifyConfig{}, helpers.TestLogger())
	err := n.NotifyLowStock(context.Background(), helpers.CreateTestUser(), []LowStockAlert{{ItemID: uuid.New(), Name: "Bolt"}})
	assert.NoError(t, err)
}
