package textutil

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MaxNameLength is the longest player name we keep.  Longer names are
// truncated, not rejected.
const MaxNameLength = 15

// CleanPlayerName trims and truncates a player name.  It returns false if the
// name is empty or has anything but letters and digits in it.
func CleanPlayerName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, r := range name {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return "", false
		}
	}
	if len(name) > MaxNameLength {
		name = name[:MaxNameLength]
	}
	return name, true
}

// FormatPlace converts a numeric place (1, 2, 3, ...) to a string ("1st", "2nd", "3rd", ...).
func FormatPlace(place int) string {
	suffix := "th"
	if place%100 < 11 || place%100 > 13 {
		switch place % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", place, suffix)
}

// FormatMultiplier renders a payout percentage as a multiple of the bet,
// e.g. 250 -> "2.50x".
func FormatMultiplier(percentage int) string {
	return decimal.New(int64(percentage), -2).StringFixed(2) + "x"
}

// FormatUnits renders an entitlement in hundredths of a bet as the exact
// amount it is worth, e.g. 50 units of a bet of 5 -> "2.5".
func FormatUnits(units int, bet int64) string {
	return decimal.NewFromInt(bet).Mul(decimal.New(int64(units), -2)).String()
}

// FormatSigned renders an amount with an explicit sign, so that winners and
// losers line up in a table.  Zero has no sign.
func FormatSigned(amount int64) string {
	if amount > 0 {
		return "+" + strconv.FormatInt(amount, 10)
	}
	return strconv.FormatInt(amount, 10)
}

// JoinInts concatenates the elements of an int slice with a separator.
func JoinInts(elems []int, sep string) string {
	strs := make([]string, len(elems))
	for i, v := range elems {
		strs[i] = strconv.Itoa(v)
	}
	return strings.Join(strs, sep)
}
