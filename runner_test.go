package friendgraph

import (
	"context"
	"fmt"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// runCall is one query received by a scriptedRunner.
type runCall struct {
	query  string
	params map[string]interface{}
}

// scriptedRunner replays canned results in order and records every query.
type scriptedRunner struct {
	mu    sync.Mutex
	steps []step
	calls []runCall
}

type step struct {
	result *neo4j.EagerResult
	err    error
}

func newScriptedRunner(steps ...step) *scriptedRunner {
	return &scriptedRunner{steps: steps}
}

func (r *scriptedRunner) Run(_ context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, runCall{query: query, params: params})
	if len(r.steps) == 0 {
		return nil, fmt.Errorf("unexpected query #%d: %s", len(r.calls), query)
	}
	next := r.steps[0]
	r.steps = r.steps[1:]
	return next.result, next.err
}

func (r *scriptedRunner) lastCall() runCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func (r *scriptedRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *scriptedRunner) remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}

// rows builds a result whose records share keys.
func rows(keys []string, values ...[]interface{}) step {
	records := make([]*neo4j.Record, 0, len(values))
	for _, v := range values {
		records = append(records, &neo4j.Record{Keys: keys, Values: v})
	}
	return step{result: &neo4j.EagerResult{Keys: keys, Records: records}}
}

func empty() step {
	return step{result: &neo4j.EagerResult{}}
}

func failure(err error) step {
	return step{err: err}
}

// userRows is what a `RETURN n` query over :User nodes yields.
func userRows(names ...string) step {
	values := make([][]interface{}, 0, len(names))
	for i, name := range names {
		values = append(values, []interface{}{userNode(fmt.Sprintf("n%d", i), name)})
	}
	return rows([]string{"n"}, values...)
}

func userNode(elementID, name string) neo4j.Node {
	return neo4j.Node{
		ElementId: elementID,
		Labels:    []string{"User"},
		Props:     map[string]interface{}{"name": name},
	}
}

func friendRel(elementID, start, end string) neo4j.Relationship {
	return neo4j.Relationship{
		ElementId:      elementID,
		StartElementId: start,
		EndElementId:   end,
		Type:           "FRIEND",
	}
}

func matched(n int64) step {
	return rows([]string{"matched"}, []interface{}{n})
}
