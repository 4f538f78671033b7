/*****************************************************************************************************************/

// Package refnum encodes the archive's numeric catalog reference numbers
// into the human catalog-prefixed text form used across query responses.
package refnum

/*****************************************************************************************************************/

import (
	"strconv"
)

/*****************************************************************************************************************/

// ToText converts a reference number to its catalog-prefixed text form,
// dispatched on the leading decimal digit of its base-10 representation.
// It never fails: unrecognised or malformed inputs yield a sentinel
// string rather than an error.
func ToText(refNumber uint64) string {
	if refNumber == 0 {
		return "NONE"
	}

	digits := strconv.FormatUint(refNumber, 10)
	code := digits[0]
	rest := digits[1:]

	switch code {
	case '1':
		// Guide Star Catalog (GSC).
		if len(rest) == 0 {
			break
		}
		switch rest[0] {
		case '1':
			return "N" + rest[1:]
		case '2':
			return "S" + rest[1:]
		}
	case '2':
		// Kepler Input Catalog.
		return "K" + rest
	case '3', '4':
		// 3: DASCH transient/new-source refnums. 4: APASS DR8.
		return dischApassText(code, digits)
	case '5':
		// Tycho-2.
		return "T" + rest
	case '6':
		// UCAC-4.
		return "U" + rest
	case '7':
		return "UNHANDLED-GAIA1"
	case '8':
		return "UNHANDLED-GAIA2"
	case '9':
		// ATLAS refcat2.
		return "ATLAS2_" + rest
	}

	return "UNKNOWN"
}

/*****************************************************************************************************************/

// dischApassText formats the 15-digit DASCH/APASS J-name: code(1) +
// RRRRRR(6) + R(1) + sign(1) + DDDDDD(6), where R is the tenths digit of
// the RA seconds field and the sign digit selects the declination sign.
func dischApassText(code byte, digits string) string {
	if len(digits) != 15 {
		return "MALFORMED-DASCH/APASS"
	}

	rest := digits[1:]
	ra := rest[0:6]
	tenth := rest[6:7]
	signDigit := rest[7]
	dec := rest[8:14]

	var sign string
	switch signDigit {
	case '1':
		sign = "+"
	case '2':
		sign = "-"
	default:
		return "MALFORMED-DASCH/APASS"
	}

	label := "APASS_J"
	if code == '3' {
		label = "DASCH_J"
	}

	return label + ra + "." + tenth + sign + dec
}

/*****************************************************************************************************************/
