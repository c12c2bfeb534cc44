package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableName_RejectsUnsafeIdentifiers(t *testing.T) {
	_, err := tableName("rag_chunks")
	require.NoError(t, err)

	_, err = tableName("rag; DROP TABLE users;--")
	require.Error(t, err)
}

func TestNullableJSON_EmptyMapIsNil(t *testing.T) {
	v, err := nullableJSON(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = nullableJSON(map[string]string{"h1": "A"})
	require.NoError(t, err)
	assert.Equal(t, `{"h1":"A"}`, string(v.([]byte)))
}

func TestEmptyToNil(t *testing.T) {
	assert.Nil(t, emptyToNil(""))
	assert.Equal(t, "x", emptyToNil("x"))
}
