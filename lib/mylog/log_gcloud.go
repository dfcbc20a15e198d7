package mylog

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/MarcGrol/adyencheckout/lib/mycontext"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		// One JSON object per line, Cloud Logging adds its own timestamp.
		New = newGcloudLogger
	}
}

type structuredLogger struct {
	componentName string
	logger        zerolog.Logger
}

func newGcloudLogger(componentName string) Logger {
	return structuredLogger{
		componentName: componentName,
		logger:        zerolog.New(os.Stdout).With().Str("component", componentName).Logger(),
	}
}

func (l structuredLogger) Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any) {
	event := l.logger.Log().
		Str("severity", string(severity)).
		Dict("logging.googleapis.com/labels", zerolog.Dict().
			Str("aggregate", traceLabel).
			Str("request", mycontext.RequestIDFromContext(ctx)))

	trace := mycontext.TraceFromContext(ctx)
	if trace != "" {
		event = event.Str("logging.googleapis.com/trace", trace)
	}

	event.Msg(l.componentName + ":" + fmt.Sprintf(format, a...))
}
