package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorst_StructuralEclipsesEverything(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FileStructure, Worst(FetchError, FileStructure))
	assert.Equal(t, FileStructure, Worst(FileStructure, FetchError))
	assert.Equal(t, FileStructure, Worst(FileStructure, FetchMissing))
}

func TestWorst_ResolutionEclipsesTransient(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FetchMissing, Worst(FetchError, FetchMissing))
	assert.Equal(t, CircularRef, Worst(RpcError, CircularRef))
}

func TestWorst_OkNeverWins(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FetchError, Worst(Ok, FetchError))
	assert.Equal(t, FetchError, Worst(FetchError, Ok))
	assert.Equal(t, Ok, Worst(Ok, Ok))
}

func TestError_MessageIncludesIdentifierWhenSet(t *testing.T) {
	t.Parallel()

	err := New(FetchMissing, "no such transaction").WithIdentifier("ab"+"cd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FetchMissing")
	assert.Contains(t, err.Error(), "abcd")
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Ok, CodeOf(nil))
	assert.Equal(t, FileDepth, CodeOf(New(FileDepth, "tree ended early")))
	assert.Equal(t, SysError, CodeOf(assertUnwrapped{}))
}

// assertUnwrapped is a plain error (not *Error) used to exercise the
// "unrecognized errors are SysError" fallback in CodeOf.
type assertUnwrapped struct{}

func (assertUnwrapped) Error() string { return "boom" }

func TestGroupClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, IsStructural(New(ScriptStructure, "x")))
	assert.True(t, IsResolution(New(ScriptRevExhausted, "x")))
	assert.True(t, IsTransient(New(InsufficientFunds, "x")))
	assert.False(t, IsStructural(New(InsufficientFunds, "x")))
}

func TestUserFacing(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ok", UserFacing(nil))
	assert.Equal(t, "file not found", UserFacing(New(FetchMissing, "gone")))
	assert.Equal(t, "file not found", UserFacing(New(InDirMissing, "no entry")))
	assert.Equal(t, "temporary failure, retry", UserFacing(New(FetchError, "timeout")))
	assert.Contains(t, UserFacing(New(FileStructure, "bad tree")), "bad tree")
}
