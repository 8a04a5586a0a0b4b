package client

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Poll calls fn immediately and then every interval until ctx is done or fn
// returns an error. A slow fn delays the next tick rather than overlapping it.
func Poll(ctx context.Context, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		return errors.New("fixpoint: poll interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := fn(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// fatal reports whether polling cannot recover from err. Transport errors and
// server failures are retried on the next tick.
func fatal(err error) bool {
	switch StatusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// WatchThread polls a booking thread and calls onChange whenever its content
// or read state differs from the previous poll. It returns when ctx is done
// or the thread can no longer be read.
func (c *Client) WatchThread(ctx context.Context, bookingID string, interval time.Duration, onChange func([]*Message)) error {
	var (
		last string
		seen bool
	)
	return Poll(ctx, interval, func(ctx context.Context) error {
		msgs, err := c.Thread(ctx, bookingID)
		if err != nil {
			if fatal(err) {
				return err
			}
			return nil
		}
		if fp := fingerprint(msgs); !seen || fp != last {
			last, seen = fp, true
			onChange(msgs)
		}
		return nil
	})
}

// WatchUnread polls the caller's unread count and calls onChange when it moves.
func (c *Client) WatchUnread(ctx context.Context, interval time.Duration, onChange func(int64)) error {
	last := int64(-1)
	return Poll(ctx, interval, func(ctx context.Context) error {
		n, err := c.UnreadCount(ctx)
		if err != nil {
			if fatal(err) {
				return err
			}
			return nil
		}
		if n != last {
			last = n
			onChange(n)
		}
		return nil
	})
}

func fingerprint(msgs []*Message) string {
	b := make([]byte, 0, len(msgs)*40)
	for _, m := range msgs {
		b = append(b, m.ID...)
		if m.Read {
			b = append(b, '+')
		} else {
			b = append(b, '-')
		}
	}
	return string(b)
}
