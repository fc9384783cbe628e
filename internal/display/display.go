package display

import "fmt"

// phaseDisplay maps update phases to what the user sees when one fails.
var phaseDisplay = map[string]string{
	"config":   "Reading configuration",
	"list":     "Listing releases",
	"resolve":  "Choosing a release",
	"lock":     "Waiting for another update",
	"download": "Downloading",
	"verify":   "Verifying download",
	"extract":  "Unpacking",
	"install":  "Installing",
}

// FormatPhase returns the display name of an update phase.
// Unknown phases are returned unchanged.
func FormatPhase(phase string) string {
	if name, ok := phaseDisplay[phase]; ok {
		return name
	}
	return phase
}

// ColorSwapState colors a swap state name.
func ColorSwapState(state string) string {
	switch state {
	case "committed":
		return Success(state)
	case "rolled-back":
		return Error(state)
	case "staged":
		return Info(state)
	default:
		return Muted(state)
	}
}

// Bytes formats a size for humans, e.g. "4.2 MiB".
func Bytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
