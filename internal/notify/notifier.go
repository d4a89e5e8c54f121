package notify

import (
	"context"
	"log/slog"
	"time"
)

// InviteNotification is what a vendor needs to start onboarding
type InviteNotification struct {
	VendorID     string    `json:"vendor_id"`
	BusinessName string    `json:"business_name"`
	CompanyName  string    `json:"company_name"`
	Email        string    `json:"email"`
	InviteLink   string    `json:"invite_link"`
	InvitedAt    time.Time `json:"invited_at"`
}

// Notifier delivers invite links to vendors
type Notifier interface {
	NotifyInvite(ctx context.Context, n InviteNotification) error
}

// LogNotifier writes invitations to the log instead of sending them.
// Used in development, where the link is copied from the log or the API response.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyInvite(ctx context.Context, inv InviteNotification) error {
	n.logger.InfoContext(ctx, "vendor invitation",
		slog.String("vendor_id", inv.VendorID),
		slog.String("email", inv.Email),
		slog.String("company_name", inv.CompanyName),
		slog.String("invite_link", inv.InviteLink),
	)
	return nil
}
