package mediakeys

import (
	"context"
	"errors"
)

// ErrTapUnavailable is returned by Start where no system tap exists (non-
// darwin builds, or darwin without accessibility permission).
var ErrTapUnavailable = errors.New("media key tap is not available on this platform")

// Tap is a system-wide low-level input tap feeding decoded media-key events
// to a Handler. A concrete tap must suppress the OS default handling for
// events the handler consumes, and must re-enable itself if the OS disables
// the tap under load.
type Tap interface {
	// Start installs the tap and blocks until ctx is cancelled or the tap
	// fails to install.
	Start(ctx context.Context) error
}
