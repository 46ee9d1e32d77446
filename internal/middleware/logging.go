package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor logs one line per RPC with the procedure, caller and
// duration. Rejected requests log at warn with their Connect code; internal
// and unknown failures log at error.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []slog.Attr{
				slog.String("procedure", req.Spec().Procedure),
				slog.String("user_id", GetUserID(ctx)), // empty if pre-auth
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			level, msg := slog.LevelInfo, "RPC ok"
			if err != nil {
				level, msg = slog.LevelError, "RPC error"
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					attrs = append(attrs,
						slog.String("code", connectErr.Code().String()),
						slog.String("error", connectErr.Message()),
					)
					if code := connectErr.Code(); code != connect.CodeInternal && code != connect.CodeUnknown {
						level = slog.LevelWarn
					}
				} else {
					attrs = append(attrs, slog.Any("error", err))
				}
			}
			logger.LogAttrs(ctx, level, msg, attrs...)

			return resp, err
		}
	}
}
