// Package parser turns chat command text into typed arguments.
//
// Commands are a case-sensitive keyword followed by at most one argument.
// Only the first two whitespace separated tokens are ever considered, so
// trailing text after the argument is ignored.
//
// Example usage:
//
//	cmd, ok := parser.ParseCommand("/push@ysdb_bot 5k")
//	if !ok {
//	    return
//	}
//	amount, err := parser.Amount(cmd.Raw)
//	if err != nil {
//	    return err // KindFormat
//	}
//	if err := parser.DefaultRules().ValidateAmount(amount); err != nil {
//	    return err // KindRange
//	}
package parser

// Command is a parsed chat command.
type Command struct {
	// Name is the keyword without the leading slash or @bot suffix.
	Name string

	// Mention is the bot username after "@" in "/stat@some_bot", empty when
	// the keyword carries none.
	Mention string

	// Arg is the second token, empty when absent.
	Arg string

	// Raw is the original message text with surrounding space trimmed.
	Raw string
}

// HasArg reports whether the command carries an argument token.
func (c Command) HasArg() bool {
	return c.Arg != ""
}

// Rules holds the bounds applied to parsed arguments.
//
// Invariants:
// - 0 < MinAmount <= MaxAmount
// - 0 < MinDays <= DefaultDays <= MaxDays.
type Rules struct {
	// MinAmount is the smallest amount accepted by a single push.
	MinAmount int64

	// MaxAmount is the largest amount accepted by a single push.
	MaxAmount int64

	// MinDays is the smallest period accepted by stat and top.
	MinDays int

	// MaxDays is the largest period accepted by stat and top.
	MaxDays int

	// DefaultDays is used when the period argument is absent.
	DefaultDays int
}

// DefaultRules returns the standard bounds: amounts 1 to 80000 and periods
// of 2 to 180 days defaulting to 7.
func DefaultRules() Rules {
	return Rules{
		MinAmount:   1,
		MaxAmount:   80000,
		MinDays:     2,
		MaxDays:     180,
		DefaultDays: 7,
	}
}
