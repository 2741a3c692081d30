//go:build !darwin || !cgo

package mediakeys

import "context"

// stubTap exists so the rest of the program links and tests run on
// platforms without a system media-key tap.
type stubTap struct{}

// NewTap returns a tap that reports itself unavailable.
func NewTap(_ *Handler) Tap {
	return stubTap{}
}

// Start implements Tap.
func (stubTap) Start(context.Context) error {
	return ErrTapUnavailable
}
