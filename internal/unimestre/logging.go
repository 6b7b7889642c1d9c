package unimestre

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LoggingTransport is a decorator that logs every portal request.
type LoggingTransport struct {
	inner  Transport
	logger *zap.Logger
}

// WithLogging wraps a Transport with request logging.
func WithLogging(t Transport, logger *zap.Logger) Transport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingTransport{inner: t, logger: logger.Named("transport")}
}

func (l *LoggingTransport) Login(ctx context.Context, payload []byte) ([]byte, error) {
	start := time.Now()
	body, err := l.inner.Login(ctx, payload)
	l.log("login", start, len(body), err)
	return body, err
}

func (l *LoggingTransport) Sync(ctx context.Context, personID int) ([]byte, error) {
	start := time.Now()
	body, err := l.inner.Sync(ctx, personID)
	l.log("sincronizacao", start, len(body), err, zap.Int("person_id", personID))
	return body, err
}

func (l *LoggingTransport) log(op string, start time.Time, size int, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("op", op),
		zap.Duration("latency", time.Since(start)),
		zap.Int("bytes", size),
	)
	if err != nil {
		l.logger.Warn("portal request failed", append(fields, zap.Error(err))...)
		return
	}
	// Credentials are never logged; only sizes and timings.
	l.logger.Debug("portal request", fields...)
}
