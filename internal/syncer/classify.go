package syncer

import (
	"context"
	"errors"
	"net"
	"syscall"

	"lendhub/internal/domain"
)

// classify wraps a raw gateway failure into a RemoteError whose kind
// drives retry decisions. Timeouts and transport failures are the only
// retryable kinds; anything else is passed through as opaque.
func classify(op string, err error) error {
	var re *domain.RemoteError
	if errors.As(err, &re) {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewRemoteError(op, domain.KindTimeout, err)
	case isNetworkError(err):
		return domain.NewRemoteError(op, domain.KindNetwork, err)
	default:
		return domain.NewRemoteError(op, domain.KindOther, err)
	}
}

func isNetworkError(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
