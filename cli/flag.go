package cli

import (
	"github.com/morikuni/failure/v2"
	"github.com/spf13/pflag"
)

// Output formats for lookup
const (
	formatAuto     = "auto"
	formatHTML     = "html"
	formatMarkdown = "markdown"
	formatStyled   = "styled"
)

type formatFlag struct {
	Value string
}

// String implements pflag.Value.
func (f *formatFlag) String() string {
	return f.Value
}

func (f *formatFlag) Set(value string) error {
	switch value {
	case formatAuto, formatHTML, formatMarkdown, formatStyled:
		f.Value = value
		return nil
	default:
		return failure.New(InvalidFormat,
			failure.Message("format must be one of auto, html, markdown, styled"),
			failure.Context{"format": value},
		)
	}
}

func (f *formatFlag) Type() string {
	return "format"
}

var _ pflag.Value = &formatFlag{}
