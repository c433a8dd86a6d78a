package wa

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"
	"github.com/sudomakes/oneway/internal/bus"
	"github.com/sudomakes/oneway/internal/status"
)

// MaxQRCodes is how many QR codes Login shows before giving up.
const MaxQRCodes = 3

// ErrQRExpired is returned when pairing is not completed in time.
var ErrQRExpired = errors.New("QR code expired before pairing")

// AuthEventType enumerates auth event types.
type AuthEventType string

const (
	AuthEventQRCode        AuthEventType = "qr_code"
	AuthEventAuthenticated AuthEventType = "authenticated"
	AuthEventAuthFailed    AuthEventType = "auth_failed"
	AuthEventTimeout       AuthEventType = "timeout"
)

// AuthEvent represents an auth lifecycle event.
type AuthEvent struct {
	Type    AuthEventType
	QRCode  string
	Message string
}

// StartQRAuth begins pairing and streams auth events until the channel
// closes. Each event is also published on the bus under "session.".
func (a *Adapter) StartQRAuth(ctx context.Context) (<-chan AuthEvent, error) {
	if a.IsLoggedIn() {
		return nil, errors.New("already logged in")
	}
	qrChan, err := a.client.GetQRChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("get QR channel: %w", err)
	}
	_ = a.machine.Transition(status.AuthRequired)

	out := make(chan AuthEvent, 10)
	emit := func(evt AuthEvent) {
		out <- evt
		a.bus.Publish(bus.Event{Kind: "session." + string(evt.Type), Payload: evt})
	}

	go func() {
		defer close(out)

		// Connect must be called after GetQRChannel.
		if err := a.client.Connect(); err != nil {
			emit(AuthEvent{Type: AuthEventAuthFailed, Message: err.Error()})
			return
		}

		for item := range qrChan {
			switch item.Event {
			case "code":
				emit(AuthEvent{Type: AuthEventQRCode, QRCode: item.Code})
			case "success":
				emit(AuthEvent{Type: AuthEventAuthenticated, Message: "authenticated"})
				return
			case "timeout":
				emit(AuthEvent{Type: AuthEventTimeout, Message: "QR code timeout"})
				return
			default:
				if item.Error != nil {
					emit(AuthEvent{Type: AuthEventAuthFailed, Message: item.Error.Error()})
					return
				}
			}
		}
	}()

	return out, nil
}

// Login pairs the device if needed, drawing each QR code to w. It returns
// once the session is authenticated.
func (a *Adapter) Login(ctx context.Context, w io.Writer) error {
	if a.IsLoggedIn() {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := a.StartQRAuth(ctx)
	if err != nil {
		return err
	}

	codes := 0
	for evt := range events {
		switch evt.Type {
		case AuthEventQRCode:
			codes++
			if codes > MaxQRCodes {
				a.client.Disconnect()
				return ErrQRExpired
			}
			qr, err := RenderQR(evt.QRCode)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "\nScan with WhatsApp > Linked devices (%d/%d):\n\n%s\n", codes, MaxQRCodes, qr)
		case AuthEventAuthenticated:
			a.logger.Info("paired with WhatsApp")
			return nil
		case AuthEventTimeout:
			return ErrQRExpired
		case AuthEventAuthFailed:
			return fmt.Errorf("pairing failed: %s", evt.Message)
		}
	}
	return ErrQRExpired
}

// RenderQR draws code as a terminal QR code using half-block characters.
func RenderQR(code string) (string, error) {
	qr, err := qrcode.New(code, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("encode QR: %w", err)
	}
	return qr.ToSmallString(false), nil
}
