// Package calibration converts between on-screen pixel lengths and real-world meters.
package calibration

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinPixels is the shortest reference line accepted for calibration.
const MinPixels = 5.0

var (
	ErrInvalidLength = errors.New("invalid length format")
	ErrTooShort      = errors.New("reference line too short to calibrate reliably")
)

var lengthPattern = regexp.MustCompile(`^([\d.]+)\s*(m|cm|mm)?$`)

// ============================================================
// Parsing
// ============================================================

// ParseLength reads "5m", "300 cm", "250mm" or a bare number (meters).
func ParseLength(text string) (float64, error) {
	m := lengthPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(text)))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLength, text)
	}

	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil || val <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLength, text)
	}

	switch m[2] {
	case "cm":
		return val / 100, nil
	case "mm":
		return val / 1000, nil
	default:
		return val, nil
	}
}

// ComputeScale returns meters per pixel for a reference line.
func ComputeScale(pixelDistance, realMeters float64) (float64, error) {
	if pixelDistance <= MinPixels {
		return 0, ErrTooShort
	}
	if realMeters <= 0 {
		return 0, ErrInvalidLength
	}
	return realMeters / pixelDistance, nil
}

// ============================================================
// Formatting
// ============================================================

// FormatBest renders a length in centimeters below one meter, meters otherwise.
func FormatBest(meters float64) string {
	if meters < 1 {
		return trimZeros(strconv.FormatFloat(meters*100, 'f', 1, 64)) + " cm"
	}
	return trimZeros(strconv.FormatFloat(meters, 'f', 2, 64)) + " m"
}

// Describe is the scale readout for a meters-per-pixel ratio; zero means uncalibrated.
func Describe(meterPerPixel float64) string {
	if meterPerPixel <= 0 {
		return "uncalibrated"
	}
	return "1px = " + FormatBest(meterPerPixel)
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
