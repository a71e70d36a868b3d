// Package memoracle is a deterministic, in-memory llm.Oracle used by tests
// that need scripted AI decisions without a network call, the same role the
// teacher's ScriptCaller test double played for its HTN planner.
package memoracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/cory-johannsen/textworld/internal/llm"
)

// Oracle replays a pre-loaded script of decisions keyed by agent name,
// falling back to a default no-op when the script is exhausted.
type Oracle struct {
	mu sync.Mutex

	actions        map[string][]*llm.Decision
	responses      map[string][]*llm.ResponseDecision
	scriptedSummary string
	defaultUsage   llm.Usage

	// Calls records every DecideAction/DecideResponse invocation in order,
	// for assertions on call count and the exact context the manager built.
	Calls []DecisionRequestRecord
}

// DecisionRequestRecord captures one call made against the Oracle.
type DecisionRequestRecord struct {
	Method string // "DecideAction" or "DecideResponse"
	Req    llm.DecisionRequest
}

// New builds an empty scripted Oracle. Use ScriptAction/ScriptResponse to
// queue deterministic replies before exercising the manager under test.
func New() *Oracle {
	return &Oracle{
		actions:   make(map[string][]*llm.Decision),
		responses: make(map[string][]*llm.ResponseDecision),
		defaultUsage: llm.Usage{
			Model:    "memoracle-stub",
			Provider: "memoracle",
		},
	}
}

// ScriptAction queues a Decision to be returned by the next DecideAction
// call for agentName. A nil decision scripts a deliberate no-op.
func (o *Oracle) ScriptAction(agentName string, decision *llm.Decision) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.actions[agentName] = append(o.actions[agentName], decision)
}

// ScriptResponse queues a ResponseDecision to be returned by the next
// DecideResponse call for agentName.
func (o *Oracle) ScriptResponse(agentName string, decision *llm.ResponseDecision) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.responses[agentName] = append(o.responses[agentName], decision)
}

// ScriptSummary fixes the string SummariseSpatialMap returns for every
// subsequent call until cleared.
func (o *Oracle) ScriptSummary(summary string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scriptedSummary = summary
}

func (o *Oracle) DecideAction(_ context.Context, req llm.DecisionRequest) (*llm.Decision, *llm.Usage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Calls = append(o.Calls, DecisionRequestRecord{Method: "DecideAction", Req: req})

	queue := o.actions[req.AgentName]
	if len(queue) == 0 {
		usage := o.defaultUsage
		return nil, &usage, nil
	}
	next := queue[0]
	o.actions[req.AgentName] = queue[1:]
	usage := o.defaultUsage
	return next, &usage, nil
}

func (o *Oracle) DecideResponse(_ context.Context, req llm.DecisionRequest) (*llm.ResponseDecision, *llm.Usage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Calls = append(o.Calls, DecisionRequestRecord{Method: "DecideResponse", Req: req})

	queue := o.responses[req.AgentName]
	if len(queue) == 0 {
		usage := o.defaultUsage
		return &llm.ResponseDecision{ShouldRespond: false}, &usage, nil
	}
	next := queue[0]
	o.responses[req.AgentName] = queue[1:]
	usage := o.defaultUsage
	return next, &usage, nil
}

func (o *Oracle) SummariseSpatialMap(_ context.Context, text string) (string, *llm.Usage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	usage := o.defaultUsage
	if o.scriptedSummary != "" {
		return o.scriptedSummary, &usage, nil
	}
	return fmt.Sprintf("condensed: %.40s", text), &usage, nil
}
