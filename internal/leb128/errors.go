package leb128

import "errors"

var (
	errOverflow  = errors.New("leb128: value overflows requested bit width")
	errTruncated = errors.New("leb128: truncated input")
)
