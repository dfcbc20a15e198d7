package auth

import (
	"context"

	"github.com/MarcGrol/adyencheckout/lib/mylog"
)

//go:generate mockgen -source=notifier.go -package auth -destination notifier_mock.go Notifier

// Notifier delivers a verification code to the shopper's phone.
type Notifier interface {
	SendCode(c context.Context, phone string, code string) error
}

type logNotifier struct {
	logger mylog.Logger
}

// NewLogNotifier is used while no SMS gateway is connected: the code only shows up in the debug log.
func NewLogNotifier() Notifier {
	return &logNotifier{
		logger: mylog.New("auth"),
	}
}

func (n *logNotifier) SendCode(c context.Context, phone string, code string) error {
	n.logger.Log(c, phone, mylog.SeverityDebug, "Verification code for %s is %s", phone, code)
	return nil
}
