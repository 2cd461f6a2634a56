package utils

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var seatCodePattern = regexp.MustCompile(`^[A-Z]{1,2}[0-9]{1,3}$`)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}

// GenerateBookingCode creates a human-readable booking reference.
// Format: BOOK-YYYYMMDD-XXXXXXXXXXXX, the suffix being the random tail of
// the booking id.
func GenerateBookingCode(now time.Time, bookingID uuid.UUID) string {
	return fmt.Sprintf("BOOK-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(bookingID[10:])))
}
