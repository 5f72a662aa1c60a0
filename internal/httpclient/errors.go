package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// isTolerableTransferError reports whether a download error is one of the
// malformed-trailer shapes the government servers emit on otherwise-complete
// transfers.
func isTolerableTransferError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "malformed MIME header") ||
		strings.Contains(msg, "malformed chunked encoding") ||
		strings.Contains(msg, "multipart")
}
