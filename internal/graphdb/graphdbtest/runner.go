// Package graphdbtest provides a recording graphdb.Runner for tests.
package graphdbtest

import (
	"context"
	"sync"

	"github.com/emergent-company/primary-api/internal/graphdb"
)

// Runner records every statement and answers with Respond.
type Runner struct {
	mu         sync.Mutex
	statements []graphdb.Statement

	// Respond produces the result for a statement; nil yields an empty result
	Respond func(st graphdb.Statement) (*graphdb.Result, error)
	// PingErr is returned by Ping
	PingErr error
}

// Run implements graphdb.Runner.
func (r *Runner) Run(_ context.Context, st graphdb.Statement) (*graphdb.Result, error) {
	r.mu.Lock()
	r.statements = append(r.statements, st)
	respond := r.Respond
	r.mu.Unlock()

	if respond == nil {
		return &graphdb.Result{}, nil
	}
	return respond(st)
}

// Ping implements graphdb.Pinger.
func (r *Runner) Ping(context.Context) error {
	return r.PingErr
}

// Statements returns a copy of what has run so far.
func (r *Runner) Statements() []graphdb.Statement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]graphdb.Statement, len(r.statements))
	copy(out, r.statements)
	return out
}

// Last returns the most recent statement.
func (r *Runner) Last() graphdb.Statement {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statements) == 0 {
		return graphdb.Statement{}
	}
	return r.statements[len(r.statements)-1]
}

// Rows builds a result whose records pair keys with each row's values.
func Rows(keys []string, rows ...[]any) *graphdb.Result {
	res := &graphdb.Result{Keys: keys, Records: make([]graphdb.Record, 0, len(rows))}
	for _, row := range rows {
		rec := make(graphdb.Record, len(keys))
		for i, k := range keys {
			if i < len(row) {
				rec[k] = row[i]
			}
		}
		res.Records = append(res.Records, rec)
	}
	return res
}
