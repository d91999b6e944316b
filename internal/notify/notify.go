// Package notify sends desktop notifications after the wallpaper changes.
package notify

import (
	"context"
	"fmt"

	"github.com/genricoloni/walltz/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsMethod = "org.freedesktop.Notifications.Notify"

	appName       = "walltz"
	expireTimeout = int32(5000)
)

// DBusNotifier talks to the freedesktop notification service. The connection is
// opened on first use.
type DBusNotifier struct {
	logger  *zap.Logger
	conn    DBusClient
	connect func() (DBusClient, error)
}

// NewDBusNotifier creates a notifier that connects to the session bus lazily
func NewDBusNotifier(logger *zap.Logger) *DBusNotifier {
	return &DBusNotifier{
		logger: logger,
		connect: func() (DBusClient, error) {
			return NewStdDBusClient()
		},
	}
}

// New returns a DBusNotifier when notifications are enabled and a no-op notifier otherwise.
func New(logger *zap.Logger, cfg domain.Config) domain.Notifier {
	if !cfg.NotifyEnabled() {
		return Nop{}
	}
	return NewDBusNotifier(logger)
}

// Notify shows a notification with the given summary and body.
func (n *DBusNotifier) Notify(ctx context.Context, summary, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.conn == nil {
		conn, err := n.connect()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		n.conn = conn
	}

	reply, err := n.conn.CallMethod(notificationsDest, notificationsPath, notificationsMethod,
		appName,
		uint32(0),
		"preferences-desktop-wallpaper",
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{},
		expireTimeout,
	)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	if len(reply) > 0 {
		if id, ok := reply[0].(uint32); ok {
			n.logger.Debug("Notification sent", zap.Uint32("id", id))
		}
	}
	return nil
}

// Close releases the bus connection if one was opened.
func (n *DBusNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn = nil
	return err
}

// Nop discards notifications.
type Nop struct{}

// Notify does nothing
func (Nop) Notify(context.Context, string, string) error {
	return nil
}
