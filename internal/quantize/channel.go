package quantize

import "fmt"

// Channel addresses one color dimension of a sample.
type Channel int

// Channels in the fixed order used by split evaluation.
const (
	Red Channel = iota
	Green
	Blue
	Alpha
)

var allChannels = []Channel{Red, Green, Blue, Alpha}

var rgbChannels = []Channel{Red, Green, Blue}

// Channels returns the channels considered for splitting, in evaluation order.
// Alpha is omitted when ignoreAlpha is set.
func Channels(ignoreAlpha bool) []Channel {
	if ignoreAlpha {
		return rgbChannels
	}
	return allChannels
}

// Valid reports whether c is one of the four defined channels.
func (c Channel) Valid() bool {
	return c >= Red && c <= Alpha
}

func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case Alpha:
		return "alpha"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// ParseChannel converts a channel name back to a Channel.
func ParseChannel(name string) (Channel, error) {
	switch name {
	case "red":
		return Red, nil
	case "green":
		return Green, nil
	case "blue":
		return Blue, nil
	case "alpha":
		return Alpha, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidChannel, name)
	}
}
