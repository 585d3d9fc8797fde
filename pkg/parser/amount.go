package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/0xmhha/ysdb/pkg/apperr"
)

// thousand is the factor applied by a k suffix.
const thousand = 1000

// Amount parses the amount argument of a command such as "push 5k".
//
// The second whitespace separated token is read as an integer, optionally
// followed by one multiplier suffix: Latin k/K or Cyrillic к/К, each meaning
// thousands. Tokens past the second are ignored.
//
// Returns a KindFormat error when the argument is absent, the numeric part
// is not an integer or the suffix is unknown. Range checks are left to
// Rules.ValidateAmount.
func Amount(text string) (int64, error) {
	const op = "parser.Amount"

	arg, ok := secondToken(text)
	if !ok {
		return 0, formatErr(op, "amount is required, e.g. /push 150 or /push 5k", ErrMissingArgument)
	}

	digits, multiplier := splitSuffix(arg)
	if multiplier == 0 {
		return 0, formatErr(op, fmt.Sprintf("unknown multiplier in %q, use k for thousands", arg), ErrUnknownSuffix)
	}

	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, formatErr(op, fmt.Sprintf("%q is not a whole number", arg), ErrNotInteger)
	}

	if multiplier > 1 {
		if value > math.MaxInt64/multiplier || value < math.MinInt64/multiplier {
			return 0, &apperr.Error{Kind: apperr.KindRange, Op: op, Msg: fmt.Sprintf("%q is too large", arg), Err: ErrOutOfRange}
		}
		value *= multiplier
	}

	return value, nil
}

// ValidateAmount checks that amount lies within [MinAmount, MaxAmount].
func (r Rules) ValidateAmount(amount int64) error {
	if amount < r.MinAmount || amount > r.MaxAmount {
		return &apperr.Error{
			Kind: apperr.KindRange,
			Op:   "parser.ValidateAmount",
			Msg:  fmt.Sprintf("amount must be between %d and %d", r.MinAmount, r.MaxAmount),
			Err:  ErrOutOfRange,
		}
	}
	return nil
}

// splitSuffix separates a trailing multiplier from arg.
//
// Returns the numeric part and the multiplier: 1 when arg ends in a digit,
// 1000 for a k suffix and 0 for any other trailing rune.
func splitSuffix(arg string) (string, int64) {
	last, size := utf8.DecodeLastRuneInString(arg)
	if unicode.IsDigit(last) {
		return arg, 1
	}

	switch last {
	case 'k', 'K', 'к', 'К':
		return arg[:len(arg)-size], thousand
	default:
		return arg, 0
	}
}

// secondToken returns the argument token of a command line.
func secondToken(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return "", false
	}
	return fields[1], true
}

func formatErr(op, msg string, cause error) error {
	return &apperr.Error{Kind: apperr.KindFormat, Op: op, Msg: msg, Err: cause}
}
