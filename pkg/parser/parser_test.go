package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/ysdb/pkg/apperr"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     int64
		wantKind apperr.Kind
		wantErr  error
	}{
		{name: "plain integer", text: "push 190", want: 190},
		{name: "latin lower k", text: "push 5k", want: 5000},
		{name: "latin upper K", text: "push 5K", want: 5000},
		{name: "cyrillic upper", text: "push 5К", want: 5000},
		{name: "cyrillic lower", text: "push 12к", want: 12000},
		{name: "surrounding space", text: "  /push   42  ", want: 42},
		{name: "extra tokens ignored", text: "push 10 for today", want: 10},
		{name: "zero parses", text: "push 0", want: 0},
		{name: "letters", text: "push abc", wantKind: apperr.KindFormat, wantErr: ErrUnknownSuffix},
		{name: "missing argument", text: "push", wantKind: apperr.KindFormat, wantErr: ErrMissingArgument},
		{name: "empty", text: "", wantKind: apperr.KindFormat, wantErr: ErrMissingArgument},
		{name: "unknown suffix", text: "push 5m", wantKind: apperr.KindFormat, wantErr: ErrUnknownSuffix},
		{name: "suffix only", text: "push k", wantKind: apperr.KindFormat, wantErr: ErrNotInteger},
		{name: "decimal", text: "push 1.5k", wantKind: apperr.KindFormat, wantErr: ErrNotInteger},
		{name: "overflow", text: "push 9223372036854775807k", wantKind: apperr.KindRange, wantErr: ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Amount(tt.text)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "error %v is not %v", err, tt.wantErr)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.True(t, apperr.IsUserFacing(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateAmount(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		amount  int64
		wantErr bool
	}{
		{0, true},
		{-5, true},
		{1, false},
		{190, false},
		{80000, false},
		{80001, true},
	}

	for _, tt := range tests {
		err := rules.ValidateAmount(tt.amount)
		if tt.wantErr {
			assert.Equal(t, apperr.KindRange, apperr.KindOf(err), "amount %d", tt.amount)
		} else {
			assert.NoError(t, err, "amount %d", tt.amount)
		}
	}
}

func TestDays(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name     string
		text     string
		want     int
		wantKind apperr.Kind
	}{
		{name: "default", text: "/stat", want: 7},
		{name: "explicit", text: "/stat 30", want: 30},
		{name: "lower bound", text: "/top 2", want: 2},
		{name: "upper bound", text: "/top 180", want: 180},
		{name: "below range", text: "/stat 1", wantKind: apperr.KindRange},
		{name: "above range", text: "/stat 181", wantKind: apperr.KindRange},
		{name: "unparsable", text: "/stat week", wantKind: apperr.KindFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rules.Days(tt.text)
			if tt.wantKind != apperr.KindUnknown {
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text   string
		want   Command
		wantOK bool
	}{
		{"/push 5k", Command{Name: "push", Arg: "5k", Raw: "/push 5k"}, true},
		{"/mystat@ysdb_bot full", Command{Name: "mystat", Mention: "ysdb_bot", Arg: "full", Raw: "/mystat@ysdb_bot full"}, true},
		{"  /status  ", Command{Name: "status", Raw: "/status"}, true},
		{"/pop yes please", Command{Name: "pop", Arg: "yes", Raw: "/pop yes please"}, true},
		{"hello", Command{}, false},
		{"/", Command{}, false},
		{"", Command{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseCommand(tt.text)
		assert.Equal(t, tt.wantOK, ok, "text %q", tt.text)
		assert.Equal(t, tt.want, got, "text %q", tt.text)
	}
}

func TestCommandAddressedTo(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		username string
		want     bool
	}{
		{name: "no mention", text: "/stat", username: "ysdb_bot", want: true},
		{name: "own mention", text: "/stat@ysdb_bot", username: "ysdb_bot", want: true},
		{name: "case differs", text: "/stat@YSDB_Bot 30", username: "ysdb_bot", want: true},
		{name: "username with at", text: "/stat@ysdb_bot", username: "@ysdb_bot", want: true},
		{name: "other bot", text: "/stat@OtherBot", username: "ysdb_bot", want: false},
		{name: "unknown username", text: "/stat@OtherBot", username: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := ParseCommand(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, cmd.AddressedTo(tt.username))
		})
	}
}
