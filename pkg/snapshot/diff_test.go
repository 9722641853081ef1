package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeDiff(t *testing.T) {
	previous := []string{"alice", "Bob", "charlie"}
	current := []string{"bob", "charlie", "diana", "eve"}

	diff := ComputeDiff(previous, current)

	assert.Equal(t, []string{"diana", "eve"}, diff.Added)
	assert.Equal(t, []string{"alice"}, diff.Removed)
}

func TestComputeDiffCaseAndWhitespaceInsensitive(t *testing.T) {
	diff := ComputeDiff([]string{" Alice ", "BOB"}, []string{"alice", "bob"})

	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)
}

func TestComputeDiffEmptyInputs(t *testing.T) {
	diff := ComputeDiff(nil, nil)
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)

	diff = ComputeDiff(nil, []string{"alice"})
	assert.Equal(t, []string{"alice"}, diff.Added)
	assert.Empty(t, diff.Removed)

	diff = ComputeDiff([]string{"alice"}, nil)
	assert.Empty(t, diff.Added)
	assert.Equal(t, []string{"alice"}, diff.Removed)
}

func TestComputeDiffIgnoresBlankItems(t *testing.T) {
	diff := ComputeDiff([]string{"", "  "}, []string{"alice", ""})
	assert.Equal(t, []string{"alice"}, diff.Added)
	assert.Empty(t, diff.Removed)
}
