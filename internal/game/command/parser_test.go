package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSplitsCommandAndArgs(t *testing.T) {
	pr := Parse("say  hello   world ")
	require.Equal(t, "say", pr.Command)
	require.Equal(t, []string{"hello", "world"}, pr.Args)
	require.Equal(t, "hello   world", pr.RawArgs)
}

func TestParseEmptyLine(t *testing.T) {
	pr := Parse("   ")
	require.Equal(t, "", pr.Command)
}

func TestParseTargetGreedyFirstWord(t *testing.T) {
	target, rest, explicit := ParseTarget("bob hello there")
	require.Equal(t, "bob", target)
	require.Equal(t, "hello there", rest)
	require.False(t, explicit)
}

func TestParseTargetQuotedName(t *testing.T) {
	target, rest, explicit := ParseTarget(`"Old Man Jenkins" watch out`)
	require.Equal(t, "Old Man Jenkins", target)
	require.Equal(t, "watch out", rest)
	require.False(t, explicit)
}

func TestParseTargetExplicitID(t *testing.T) {
	target, rest, explicit := ParseTarget("@id:0f9e2c1a-1111-2222-3333-444455556666 hello")
	require.Equal(t, "0f9e2c1a-1111-2222-3333-444455556666", target)
	require.Equal(t, "hello", rest)
	require.True(t, explicit)
}
