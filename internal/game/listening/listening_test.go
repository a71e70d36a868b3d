package listening

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListenThenStopRestoresAbsence(t *testing.T) {
	r := New()
	r.Listen("observer", "subject")
	require.True(t, r.IsListening("observer"))
	require.True(t, r.IsListeningTo("observer", "subject"))

	removed := r.Stop("observer")
	require.True(t, removed)
	require.False(t, r.IsListening("observer"))
	_, ok := r.SubjectOf("observer")
	require.False(t, ok)
}

func TestStopWithoutSubscriptionReportsFalse(t *testing.T) {
	r := New()
	require.False(t, r.Stop("nobody"))
}

func TestListenReplacesPriorSubscription(t *testing.T) {
	r := New()
	r.Listen("observer", "first")
	r.Listen("observer", "second")
	subject, ok := r.SubjectOf("observer")
	require.True(t, ok)
	require.Equal(t, "second", subject)
}

func TestRemoveActorClearsBothSides(t *testing.T) {
	r := New()
	r.Listen("a", "b")
	r.Listen("c", "b")
	r.RemoveActor("b")
	require.False(t, r.IsListening("a"))
	require.False(t, r.IsListening("c"))
}

func TestIsListeningToRequiresExactSubject(t *testing.T) {
	r := New()
	r.Listen("observer", "subject")
	require.False(t, r.IsListeningTo("observer", "other"))
}
