package memoracle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/textworld/internal/llm"
	"github.com/cory-johannsen/textworld/internal/llm/memoracle"
)

func TestDecideActionReplaysScriptThenNoOps(t *testing.T) {
	o := memoracle.New()
	o.ScriptAction("grocer", &llm.Decision{Action: "say", Arguments: map[string]string{"message": "fresh bread!"}})

	decision, usage, err := o.DecideAction(context.Background(), llm.DecisionRequest{AgentName: "grocer"})
	require.NoError(t, err)
	require.NotNil(t, decision)
	require.Equal(t, "say", decision.Action)
	require.NotNil(t, usage)

	decision, _, err = o.DecideAction(context.Background(), llm.DecisionRequest{AgentName: "grocer"})
	require.NoError(t, err)
	require.Nil(t, decision)

	require.Len(t, o.Calls, 2)
}

func TestDecideResponseDefaultsToNoResponse(t *testing.T) {
	o := memoracle.New()
	resp, _, err := o.DecideResponse(context.Background(), llm.DecisionRequest{AgentName: "grocer"})
	require.NoError(t, err)
	require.False(t, resp.ShouldRespond)
}

func TestDecideResponseReplaysScript(t *testing.T) {
	o := memoracle.New()
	o.ScriptResponse("grocer", &llm.ResponseDecision{ShouldRespond: true, Response: "welcome in!"})

	resp, _, err := o.DecideResponse(context.Background(), llm.DecisionRequest{AgentName: "grocer"})
	require.NoError(t, err)
	require.True(t, resp.ShouldRespond)
	require.Equal(t, "welcome in!", resp.Response)
}

func TestSummariseSpatialMapUsesScriptedOverride(t *testing.T) {
	o := memoracle.New()
	o.ScriptSummary("the market square, forge to the east")

	summary, _, err := o.SummariseSpatialMap(context.Background(), "long rambling notes about rooms")
	require.NoError(t, err)
	require.Equal(t, "the market square, forge to the east", summary)
}

func TestSummariseSpatialMapFallsBackToCondensedInput(t *testing.T) {
	o := memoracle.New()
	summary, _, err := o.SummariseSpatialMap(context.Background(), "raw notes")
	require.NoError(t, err)
	require.Contains(t, summary, "raw notes")
}
