package rod

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"browser-harness/internal/domain/entity"
)

// Messages seen when the CDP websocket or the working target is gone.
// "Inspected target navigated or closed" is absent on purpose: it fires on
// ordinary navigations while an eval is in flight.
var lostMarkers = []string{
	"use of closed network connection",
	"websocket: close",
	"connection reset by peer",
	"broken pipe",
	"browser has disconnected",
	"cdp connection closed",
	"no target with given id",
	"session with given id not found",
}

// sessionErr marks errors that mean the browser connection is gone with
// entity.ErrSessionLost. Context errors are left alone.
func sessionErr(err error) error {
	if err == nil || errors.Is(err, entity.ErrSessionLost) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %w", entity.ErrSessionLost, err)
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range lostMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %w", entity.ErrSessionLost, err)
		}
	}
	return err
}
