package timestamp

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultFramerate is the timecode framerate used when Options.Framerate is zero.
const DefaultFramerate = 24.0

// maxSeconds keeps h:m:s plus a sub-second fraction inside time.Duration.
const maxSeconds = math.MaxInt64/int64(time.Second) - 1

var (
	// ErrFormat is wrapped by every FormatError.
	ErrFormat = errors.New("invalid timestamp format")

	// ErrRange is returned by Apply when shift or scale leave the range of
	// time.Duration.
	ErrRange = errors.New("timestamp out of range")
)

// hours:minutes:seconds, then ':' or '.', then the fraction digits
var timestampRegex = regexp.MustCompile(`^(\d+):(\d\d):(\d\d)[:.](\d+)$`)

// Options controls how every timestamp of one conversion is read.
type Options struct {
	// Timecode makes the fraction a frame count instead of a decimal
	// fraction of a second.
	Timecode bool

	// Framerate converts frames to centiseconds in timecode mode.
	// Zero means DefaultFramerate.
	Framerate float64

	// Shift is added to every parsed value when set.
	Shift *time.Duration

	// Scale multiplies every value after Shift. Zero means unset.
	Scale float64
}

// returns the options used by the original spotting-list workflow:
// timecode at 24fps, no shift, no scale
func DefaultOptions() Options {
	return Options{Timecode: true, Framerate: DefaultFramerate}
}

// FormatError reports a cell that does not look like a timestamp.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid timestamp %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf(
		"invalid timestamp %q: expected H:MM:SS.FF or H:MM:SS:FF",
		e.Input,
	)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// OptionError reports a framerate or scale that cannot be used.
type OptionError struct {
	Field string
	Value float64
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%s must be a positive number, got %v", e.Field, e.Value)
}

// Validate rejects NaN, infinite and negative framerate or scale.
func (o Options) Validate() error {
	if !usable(o.Framerate) {
		return &OptionError{Field: "framerate", Value: o.Framerate}
	}
	if !usable(o.Scale) {
		return &OptionError{Field: "scale", Value: o.Scale}
	}
	return nil
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func (o Options) framerate() float64 {
	if o.Framerate > 0 {
		return o.Framerate
	}
	return DefaultFramerate
}

// Parse converts a spreadsheet timestamp into a duration.
//
// The fraction after the seconds is read as frames when opts.Timecode is
// set (centiseconds = floor(frames / framerate * 100)) and as a decimal
// fraction of a second otherwise, where the digit count decides the unit:
// "5" is tenths, "04" centiseconds, "040" milliseconds and so on. Extra
// precision below a centisecond is truncated.
//
// A leading '-' negates the written value. Shift and Scale are then
// applied in that order.
func Parse(raw string, opts Options) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	m := timestampRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, &FormatError{Input: raw}
	}

	hours, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || hours > maxSeconds/3600 {
		return 0, &FormatError{Input: raw, Reason: "hours out of range"}
	}
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	total := hours*3600 + int64(minutes)*60 + int64(seconds)
	if total > maxSeconds {
		return 0, &FormatError{Input: raw, Reason: "hours out of range"}
	}

	// centiseconds left before the sum overflows
	maxCentis := (math.MaxInt64 - total*int64(time.Second)) / int64(10*time.Millisecond)

	var centis int64
	if opts.Timecode {
		frames, err := strconv.ParseInt(m[4], 10, 64)
		if err != nil {
			return 0, &FormatError{Input: raw, Reason: "frame count out of range"}
		}
		c := math.Floor(float64(frames) / opts.framerate() * 100)
		if c > float64(maxCentis) {
			return 0, &FormatError{Input: raw, Reason: "frame count out of range"}
		}
		centis = int64(c)
	} else {
		centis = decimalCentiseconds(m[4])
	}
	if centis > maxCentis {
		return 0, &FormatError{Input: raw, Reason: "hours out of range"}
	}

	d := time.Duration(total)*time.Second +
		time.Duration(centis)*10*time.Millisecond
	if negative {
		d = -d
	}

	d, err = Apply(d, opts)
	if err != nil {
		return 0, &FormatError{Input: raw, Reason: err.Error()}
	}
	return d, nil
}

// floor(n / 10^(len-2)) computed on the digits themselves: the first two
// digits, with a single digit counting as tenths
func decimalCentiseconds(digits string) int64 {
	tens := int64(digits[0] - '0')
	if len(digits) == 1 {
		return tens * 10
	}
	return tens*10 + int64(digits[1]-'0')
}

// Apply adds opts.Shift and then multiplies by opts.Scale. It returns
// ErrRange instead of wrapping around.
func Apply(d time.Duration, opts Options) (time.Duration, error) {
	if opts.Shift != nil {
		shift := *opts.Shift
		if (shift > 0 && d > math.MaxInt64-shift) ||
			(shift < 0 && d < math.MinInt64-shift) {
			return 0, ErrRange
		}
		d += shift
	}
	if opts.Scale > 0 {
		// float64(math.MaxInt64) rounds up to 2^63, which is already out of range
		scaled := math.Round(float64(d) * opts.Scale)
		if scaled >= math.MaxInt64 || scaled < math.MinInt64 {
			return 0, ErrRange
		}
		d = time.Duration(scaled)
	}
	return d, nil
}

// IsTimestamp reports whether s would be accepted by Parse.
func IsTimestamp(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "-")
	return timestampRegex.MatchString(s)
}

// Format renders d as H:MM:SS.CC, truncating below a centisecond.
func Format(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	centis := int64(d / (10 * time.Millisecond))
	hours := centis / 360000
	minutes := (centis / 6000) % 60
	seconds := (centis / 100) % 60
	return fmt.Sprintf(
		"%s%d:%02d:%02d.%02d",
		sign,
		hours,
		minutes,
		seconds,
		centis%100,
	)
}
