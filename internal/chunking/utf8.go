package chunking

import (
	"fmt"
	"unicode/utf8"

	"github.com/hsn0918/ragctl/internal/errs"
)

// validateUTF8 rejects non-UTF8 input with the line offset of the first
// invalid byte sequence (spec §7's InputMalformed taxonomy entry).
// Adapted from the teacher's internal/utils.SanitizeUTF8, which silently
// dropped invalid bytes; chunking needs to fail loudly instead, since a
// byte silently dropped mid-document would shift every downstream
// chunk's text without leaving any trace of why.
func validateUTF8(source []byte) error {
	line := 1
	for i := 0; i < len(source); {
		r, size := utf8.DecodeRune(source[i:])
		if r == utf8.RuneError && size == 1 {
			return errs.New(errs.KindInputMalformed, "chunking.Chunk",
				fmt.Errorf("invalid UTF-8 byte sequence at line %d", line))
		}
		if r == '\n' {
			line++
		}
		i += size
	}
	return nil
}
