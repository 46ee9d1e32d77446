package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/middleware"
)

// detailHeaderPrefix carries per-field validation messages in error metadata.
const detailHeaderPrefix = "Validation-"

// toConnectError maps a ledger error onto a Connect code. Unclassified
// errors are logged and reported as internal without leaking the cause.
func toConnectError(logger *slog.Logger, op string, err error) error {
	appErr := apperrors.As(err)
	if appErr == nil {
		logger.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}

	var code connect.Code
	switch appErr.Code() {
	case apperrors.CodeNotFound:
		code = connect.CodeNotFound
	case apperrors.CodePermission:
		code = connect.CodePermissionDenied
	case apperrors.CodeValidation:
		code = connect.CodeInvalidArgument
	case apperrors.CodeConflict:
		code = connect.CodeAborted
	default:
		code = connect.CodeInternal
	}
	logger.Warn(op+" rejected", "code", appErr.Code(), "error", appErr.Message())

	connectErr := connect.NewError(code, errors.New(appErr.Message()))
	details := appErr.Details()
	for _, field := range slices.Sorted(maps.Keys(details)) {
		connectErr.Meta().Set(detailHeaderPrefix+field, details[field])
	}
	return connectErr
}

// requester returns the authenticated user ID set by middleware.RequireAuth.
func requester(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}
