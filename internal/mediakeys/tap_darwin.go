//go:build darwin && cgo

package mediakeys

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework ApplicationServices

#import <Cocoa/Cocoa.h>
#include <ApplicationServices/ApplicationServices.h>

extern bool goHandleMediaKey(int keyCode, bool keyDown);

static CFMachPortRef gTapPort = NULL;
static CFRunLoopRef gTapRunLoop = NULL;

static CGEventRef tapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon) {
	// The OS disables taps that it considers slow or during secure input;
	// a disabled tap is a silent total failure, so always re-arm.
	if (type == kCGEventTapDisabledByTimeout || type == kCGEventTapDisabledByUserInput) {
		if (gTapPort != NULL) {
			CGEventTapEnable(gTapPort, true);
		}
		return event;
	}

	if (type != NX_SYSDEFINED) {
		return event;
	}

	NSEvent *nsEvent = [NSEvent eventWithCGEvent:event];
	if ([nsEvent subtype] != 8) { // 8 = special system keys (volume, brightness, ...)
		return event;
	}

	long data1 = [nsEvent data1];
	int keyCode = (int)((data1 & 0xFFFF0000) >> 16);
	int keyFlags = (int)(data1 & 0x0000FFFF);
	bool keyDown = ((keyFlags & 0xFF00) >> 8) == 0xA;

	if (goHandleMediaKey(keyCode, keyDown)) {
		return NULL; // consume: the OS never sees the event
	}
	return event;
}

static bool startMediaKeyTap(void) {
	gTapPort = CGEventTapCreate(kCGSessionEventTap,
		kCGHeadInsertEventTap,
		kCGEventTapOptionDefault,
		CGEventMaskBit(NX_SYSDEFINED),
		tapCallback,
		NULL);
	if (gTapPort == NULL) {
		return false;
	}

	CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, gTapPort, 0);
	gTapRunLoop = CFRunLoopGetCurrent();
	CFRunLoopAddSource(gTapRunLoop, source, kCFRunLoopCommonModes);
	CFRelease(source);
	CGEventTapEnable(gTapPort, true);
	CFRunLoopRun();
	return true;
}

static void stopMediaKeyTap(void) {
	if (gTapRunLoop != NULL) {
		CFRunLoopStop(gTapRunLoop);
	}
}
*/
import "C"

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// The tap callback has no closure support, so the darwin tap routes events
// through one package-level handler.
var (
	tapMu      sync.Mutex
	tapHandler *Handler
)

//export goHandleMediaKey
func goHandleMediaKey(keyCode C.int, keyDown C.bool) C.bool {
	tapMu.Lock()
	h := tapHandler
	tapMu.Unlock()
	if h == nil {
		return C.bool(false)
	}

	ev := Event{Key: Classify(int(keyCode)), Pressed: bool(keyDown)}
	return C.bool(h.Handle(ev))
}

// DarwinTap is a CGEventTap on NSSystemDefined events. Only one may run per
// process.
type DarwinTap struct {
	handler *Handler
}

// NewTap creates the platform tap for the given handler.
func NewTap(h *Handler) Tap {
	return &DarwinTap{handler: h}
}

// Start implements Tap. The tap's run loop owns its OS thread until ctx is
// cancelled.
func (t *DarwinTap) Start(ctx context.Context) error {
	tapMu.Lock()
	if tapHandler != nil {
		tapMu.Unlock()
		return fmt.Errorf("%w: tap already running", ErrTapUnavailable)
	}
	tapHandler = t.handler
	tapMu.Unlock()

	defer func() {
		tapMu.Lock()
		tapHandler = nil
		tapMu.Unlock()
	}()

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		C.stopMediaKeyTap()
	}()
	defer close(stop)

	slog.Info("installing media key tap")

	// CFRunLoopRun must stay on the thread that created the tap source.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !bool(C.startMediaKeyTap()) {
		slog.Error("event tap creation failed; is accessibility permission granted?")
		return fmt.Errorf("%w: CGEventTapCreate failed (accessibility permission?)", ErrTapUnavailable)
	}

	slog.Info("media key tap stopped")
	return nil
}
