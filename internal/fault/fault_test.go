package fault

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageIncludesSortedDetails(t *testing.T) {
	err := Validation(CodeDuplicateTerm, "term already exists").
		With("term", "0xabc").
		With("index", 2)

	assert.Equal(t, "DUPLICATE_TERM: term already exists (index=2, term=0xabc)", err.Error())
}

func TestError_WithDoesNotMutateReceiver(t *testing.T) {
	base := State(CodePaused, "paused")
	_ = base.With("op", "deposit")

	assert.Empty(t, base.Details)
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	err := errors.Wrap(State(CodeCounterStake, "holds counter position"), "deposit")

	assert.True(t, IsState(err))
	assert.False(t, IsValidation(err))
	assert.False(t, IsAuthorization(err))
	assert.True(t, HasCode(err, CodeCounterStake))
	assert.Equal(t, CodeCounterStake, CodeOf(err))

	fe, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindState, fe.Kind)
}

func TestPredicates_PlainError(t *testing.T) {
	err := errors.New("disk on fire")

	assert.False(t, IsState(err))
	assert.False(t, HasCode(err, CodePaused))
	assert.Equal(t, Code(""), CodeOf(err))
}

func TestAuthorization(t *testing.T) {
	err := Authorization(CodeSelfApproval, "cannot approve self")
	assert.True(t, IsAuthorization(err))
	assert.Equal(t, "SELF_APPROVAL: cannot approve self", err.Error())
}
