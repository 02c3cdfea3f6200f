package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPagination(t *testing.T) {
	p := NewPagination(3, 10, 25)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, 20, p.Offset())

	// Out-of-range inputs fall back to defaults.
	p = NewPagination(0, 0, 5)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.Limit)
	require.Equal(t, 1, p.TotalPages)

	p = NewPagination(1, 10, 0)
	require.Equal(t, 0, p.TotalPages)
}
