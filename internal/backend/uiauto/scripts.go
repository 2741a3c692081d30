package uiauto

import (
	"fmt"

	"faderkey.app/internal/backend"
)

// Probe result tokens. The probe script prints exactly one of these so Go
// code never has to parse AppleScript prose.
const (
	probeOK        = "ok"
	probeNoProcess = "no-process"
	probeNoWindow  = "no-window"
	probeNoControl = "no-control"
)

// groupFor maps a logical channel to the named group that holds its controls
// in the vendor window. Purely an automation detail; callers of the contract
// never see these labels.
func (b *Backend) groupFor(ch backend.Channel) string {
	switch ch {
	case backend.Input1:
		return b.cfg.Input1Group
	case backend.Input2:
		return b.cfg.Input2Group
	default:
		return b.cfg.PlaybackGroup
	}
}

// probeScript checks, cheaply and without touching any control, that the app
// is running, has a window, and is showing the pane we script against. The
// playback group doubles as the "right pane" sentinel: if it is reachable,
// every control we need is.
func (b *Backend) probeScript() string {
	return fmt.Sprintf(`tell application "System Events"
	if not (exists process %[1]q) then return %[2]q
	tell process %[1]q
		if not (exists window 1) then return %[3]q
		if not (exists group %[4]q of window 1) then return %[5]q
	end tell
end tell
return %[6]q`,
		b.cfg.AppName, probeNoProcess, probeNoWindow, b.cfg.PlaybackGroup, probeNoControl, probeOK)
}

func (b *Backend) launchScript() string {
	return fmt.Sprintf(`tell application %q to launch`, b.cfg.AppName)
}

// selectPaneScript switches the vendor window to the device pane. The app
// remembers its last pane across launches, so this runs as part of setup
// rather than assuming anything.
func (b *Backend) selectPaneScript() string {
	return fmt.Sprintf(`tell application "System Events" to tell process %q
	click radio button %q of radio group 1 of window 1
end tell`, b.cfg.AppName, b.cfg.DevicePane)
}

func (b *Backend) readValueScript(group string) string {
	return fmt.Sprintf(`tell application "System Events" to tell process %q
	get value of text field 1 of group %q of window 1
end tell`, b.cfg.AppName, group)
}

func (b *Backend) writeValueScript(group, value string) string {
	return fmt.Sprintf(`tell application "System Events" to tell process %q
	set value of text field 1 of group %q of window 1 to %q
end tell`, b.cfg.AppName, group, value)
}

func (b *Backend) readCheckboxScript(group, name string) string {
	return fmt.Sprintf(`tell application "System Events" to tell process %q
	get value of checkbox %q of group %q of window 1
end tell`, b.cfg.AppName, name, group)
}

func (b *Backend) clickCheckboxScript(group, name string) string {
	return fmt.Sprintf(`tell application "System Events" to tell process %q
	click checkbox %q of group %q of window 1
end tell`, b.cfg.AppName, name, group)
}

func (b *Backend) isMinimizedScript() string {
	return fmt.Sprintf(`tell application "System Events" to tell process %q
	get value of attribute "AXMinimized" of window 1
end tell`, b.cfg.AppName)
}

func (b *Backend) minimizeScript() string {
	return fmt.Sprintf(`tell application "System Events" to tell process %q
	set value of attribute "AXMinimized" of window 1 to true
end tell`, b.cfg.AppName)
}
