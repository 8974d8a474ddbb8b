package session

import "fmt"

// Message prefixes are parsed by consumers of exported logs; keep them stable.
const (
	PrefixStarted      = "▶"
	PrefixPaused       = "⏸"
	PrefixStackChanged = "↕"
	PrefixResumed      = "⏯"
	PrefixStopped      = "⏹"
)

const NoFrameMessage = PrefixPaused + " Paused at breakpoint (no stack frame)"

func StartedMessage(file string) string {
	return fmt.Sprintf("%s Debugger started at %s", PrefixStarted, file)
}

func PausedMessage(file, line string) string {
	return fmt.Sprintf("%s Paused at %s:%s", PrefixPaused, file, line)
}

func StackChangedMessage(file, line string) string {
	return fmt.Sprintf("%s Paused (stack frame changed) at %s:%s", PrefixStackChanged, file, line)
}

func ResumedMessage(file, line string) string {
	return fmt.Sprintf("%s Resumed at %s:%s", PrefixResumed, file, line)
}

func StoppedMessage(file string) string {
	return fmt.Sprintf("%s Debugger stopped at %s", PrefixStopped, file)
}
