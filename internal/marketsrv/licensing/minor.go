package licensing

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/veristream/veristream-internal/internal/common/apperrors"
)

var ErrInvalidPrice apperrors.Error = apperrors.New("invalid price").SetStatusCode(http.StatusBadRequest)

// minorScale is the number of decimal places in the ledger's minor unit.
const minorScale = 2

// MinorUnits converts a human-entered decimal price to minor units,
// rounding half up. The conversion is pure string arithmetic so it is
// deterministic for any input; floats would not be.
func MinorUnits(price string) (int64, apperrors.Error) {
	s := strings.TrimSpace(price)
	if s == "" || s == "." {
		return 0, ErrInvalidPrice
	}
	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return 0, ErrInvalidPrice
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	// whole*100+frac must stay inside int64; frac never exceeds 100.
	if whole > (math.MaxInt64-100)/100 {
		return 0, ErrInvalidPrice
	}

	for len(fracPart) < minorScale {
		fracPart += "0"
	}
	frac, err := strconv.ParseInt(fracPart[:minorScale], 10, 64)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	// Half up on the remaining digits: a tail of "5" or more in its first
	// digit is at least half of one minor unit.
	if tail := fracPart[minorScale:]; tail != "" && tail[0] >= '5' {
		frac++
	}

	return whole*100 + frac, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
