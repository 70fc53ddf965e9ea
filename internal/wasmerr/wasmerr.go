// Package wasmerr collects the sentinel errors raised by the builder and
// its registries. Every operation documented as "fails with X" anywhere in
// this module returns (or wraps, via github.com/pkg/errors) one of these
// values, so callers can use errors.Is regardless of how much call-site
// context was added along the way.
package wasmerr

import "errors"

var (
	ErrBufferFull              = errors.New("wasmbuild: buffer full")
	ErrDuplicateName           = errors.New("wasmbuild: duplicate name")
	ErrInvalidPermanentOrdering = errors.New("wasmbuild: permanent type defined after a non-permanent type")
	ErrUnknownType             = errors.New("wasmbuild: unknown function type")
	ErrUnknownLocal            = errors.New("wasmbuild: unknown local")
	ErrUnknownImport           = errors.New("wasmbuild: unknown import")
	ErrStackEmpty              = errors.New("wasmbuild: buffer stack is empty")
	ErrUnclosedBlocks          = errors.New("wasmbuild: function ended with unclosed blocks")
	ErrEncoderFailure          = errors.New("wasmbuild: external encoder failed")
	ErrNullFunction            = errors.New("wasmbuild: nil function passed to table install")
)
