package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapErrPreservesClassification(t *testing.T) {
	base := E(KindConflict, "email already exists")

	wrapped := WrapErr("create user", base)
	require.Equal(t, KindConflict, KindOf(wrapped))
	require.Equal(t, "email already exists", UserSafeMessage(wrapped))

	// A classified error wrapped by fmt still keeps its kind.
	layered := fmt.Errorf("service: %w", base)
	require.Equal(t, KindConflict, KindOf(layered))
}

func TestWrapErrMasksInternalCauses(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := WrapErr("list users", cause)

	require.Equal(t, KindInternal, KindOf(wrapped))
	require.Equal(t, "internal error", UserSafeMessage(wrapped))
	require.ErrorIs(t, wrapped, cause)
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	require.Equal(t, KindInternal, KindOf(errors.New("plain")))
	require.Equal(t, "internal", KindInternal.String())
	require.Equal(t, "not_found", KindNotFound.String())
}
