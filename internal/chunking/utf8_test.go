package chunking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsn0918/ragctl/internal/errs"
)

func TestChunk_RejectsNonUTF8Input(t *testing.T) {
	bad := "# A\n\nvalid line\n\n" + string([]byte{0xff, 0xfe}) + "\n"
	_, err := Chunk(bad, "A", 100)
	require.Error(t, err)

	var e *errs.Error
	require.True(t, errs.As(err, &e))
	assert.Equal(t, errs.KindInputMalformed, e.Kind)
	assert.Contains(t, err.Error(), "line 5")
}

func TestValidateUTF8_AcceptsCleanInput(t *testing.T) {
	require.NoError(t, validateUTF8([]byte("# Title\n\nclean paragraph text.\n")))
}
