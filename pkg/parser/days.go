package parser

import (
	"fmt"
	"strconv"

	"github.com/0xmhha/ysdb/pkg/apperr"
)

// Days parses the optional period argument of stat and top.
//
// An absent argument yields DefaultDays. A present argument must be an
// integer (KindFormat otherwise) within [MinDays, MaxDays] (KindRange
// otherwise).
func (r Rules) Days(text string) (int, error) {
	const op = "parser.Days"

	arg, ok := secondToken(text)
	if !ok {
		return r.DefaultDays, nil
	}

	days, err := strconv.Atoi(arg)
	if err != nil {
		return 0, formatErr(op, fmt.Sprintf("%q is not a number of days", arg), ErrNotInteger)
	}

	if days < r.MinDays || days > r.MaxDays {
		return 0, &apperr.Error{
			Kind: apperr.KindRange,
			Op:   op,
			Msg:  fmt.Sprintf("days must be between %d and %d", r.MinDays, r.MaxDays),
			Err:  ErrOutOfRange,
		}
	}

	return days, nil
}
