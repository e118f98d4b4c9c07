package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var amountPattern = regexp.MustCompile(`^[0-9]*(\.[0-9]*)?$`)

// Amount is a non-negative quantity of funds in nano-units (1e-9 of a unit).
type Amount int64

const (
	// AmountDecimals is the number of fractional digits an Amount carries.
	AmountDecimals = 9

	// Unit is one whole unit of funds.
	Unit Amount = 1_000_000_000

	// MaxMilestoneAmount caps a single milestone, matching the limit enforced at creation.
	MaxMilestoneAmount = 1000 * Unit
)

// ParseAmount parses a decimal string such as "1.5" or "0.25" into an Amount.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount is required")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("amount %q must not be negative", s)
	}
	if !amountPattern.MatchString(s) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" && (!hasFrac || frac == "") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > AmountDecimals {
		return 0, fmt.Errorf("amount %q has too many decimal places (max %d)", s, AmountDecimals)
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if w >= maxWholeUnits {
		return 0, fmt.Errorf("amount %q is too large", s)
	}

	var f int64
	if frac != "" {
		padded := frac + strings.Repeat("0", AmountDecimals-len(frac))
		f, err = strconv.ParseInt(padded, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
	}

	return Amount(w)*Unit + Amount(f), nil
}

// MustParseAmount is ParseAmount for literals known to be valid. It panics otherwise.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

const maxWholeUnits = int64(^uint64(0)>>1) / int64(Unit)

// String renders the amount with trailing fractional zeros trimmed ("1.5", "2", "0.000000001").
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := v / int64(Unit)
	frac := v % int64(Unit)
	if frac == 0 {
		return fmt.Sprintf("%s%d", sign, whole)
	}
	fs := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
	return fmt.Sprintf("%s%d.%s", sign, whole, fs)
}

// Float64 returns an approximate value in whole units, for display and metrics only.
func (a Amount) Float64() float64 {
	return float64(a) / float64(Unit)
}

// MarshalText encodes the amount as its decimal string so JSON payloads stay exact.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(b []byte) error {
	v, err := ParseAmount(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// UnmarshalJSON accepts a decimal string ("1.5") or a bare JSON number (1.5),
// both read in whole units.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return a.UnmarshalText([]byte(s))
}

// SumAmounts adds amounts, reporting false if the total would overflow.
func SumAmounts(amounts ...Amount) (Amount, bool) {
	var total Amount
	for _, a := range amounts {
		if a > 0 && total > Amount(int64(^uint64(0)>>1))-a {
			return 0, false
		}
		total += a
	}
	return total, true
}
