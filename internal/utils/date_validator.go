package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type DateFormat string

const (
	FormatISO8601Date DateFormat = "2006-01-02"
	FormatIndianDate  DateFormat = "02/01/2006"
	FormatDashDate    DateFormat = "02-01-2006"
	FormatDotDate     DateFormat = "02.01.2006"
	FormatMonthDay    DateFormat = "January 2, 2006"
	FormatShortMonth  DateFormat = "Jan 2, 2006"
	FormatRFC3339     DateFormat = time.RFC3339
	FormatUnixTime    DateFormat = "unix"
)

const minUnixDigits = 9

var dayMonthPattern = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})$`)

// DateValidator turns the dates people type into a booking form into
// nanoseconds since the Unix epoch, interpreted in the lab's location.
type DateValidator struct {
	supportedFormats []DateFormat
	location         *time.Location
}

type ValidationResult struct {
	IsValid        bool
	DetectedFormat DateFormat
	ParsedTime     time.Time
	OriginalValue  string
}

func NewDateValidator(location *time.Location) *DateValidator {
	if location == nil {
		location = time.UTC
	}
	return &DateValidator{
		supportedFormats: []DateFormat{
			FormatISO8601Date,
			FormatIndianDate,
			FormatDashDate,
			FormatDotDate,
			FormatMonthDay,
			FormatShortMonth,
			FormatRFC3339,
		},
		location: location,
	}
}

func (dv *DateValidator) ValidateAndConvert(input string) ValidationResult {
	result := ValidationResult{OriginalValue: input}

	input = strings.TrimSpace(input)
	if input == "" {
		return result
	}

	// Unix seconds, 1973-2100. Shorter numbers are years or compact dates
	// typed by hand, not timestamps.
	if unixTime, err := strconv.ParseInt(input, 10, 64); err == nil {
		if len(input) >= minUnixDigits && unixTime > 0 && unixTime < 4102444800 {
			result.IsValid = true
			result.DetectedFormat = FormatUnixTime
			result.ParsedTime = time.Unix(unixTime, 0).In(dv.location)
		}
		return result
	}

	for _, format := range dv.supportedFormats {
		parsedTime, err := time.ParseInLocation(string(format), input, dv.location)
		if err != nil || !dv.isValidForFormat(input, format) {
			continue
		}
		result.IsValid = true
		result.DetectedFormat = format
		result.ParsedTime = parsedTime
		return result
	}

	return result
}

func (dv *DateValidator) isValidForFormat(input string, format DateFormat) bool {
	switch format {
	case FormatIndianDate, FormatDashDate, FormatDotDate:
		matches := dayMonthPattern.FindStringSubmatch(input)
		if len(matches) < 4 {
			return false
		}
		day, _ := strconv.Atoi(matches[1])
		month, _ := strconv.Atoi(matches[2])
		return month >= 1 && month <= 12 && day >= 1 && day <= 31
	default:
		return true
	}
}

func (dv *DateValidator) GetSupportedFormats() []DateFormat {
	return dv.supportedFormats
}

// ParseDate returns the date as epoch nanoseconds or false when input is not
// a recognised date.
func ParseDate(input string) (int64, bool) {
	result := NewDateValidator(time.UTC).ValidateAndConvert(input)
	if !result.IsValid {
		return 0, false
	}
	return result.ParsedTime.UnixNano(), true
}
