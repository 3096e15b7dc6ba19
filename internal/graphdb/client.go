// Package graphdb wraps the Neo4j driver behind a small statement runner.
//
// Every statement runs in its own auto-commit session that is closed before
// Run returns. Driver values are converted into the package's Node,
// Relationship and Path types so callers never import the driver.
package graphdb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/emergent-company/primary-api/internal/config"
	"github.com/emergent-company/primary-api/pkg/logger"
)

// Statement is a single parameterized Cypher statement.
type Statement struct {
	Cypher string
	Params map[string]any
	// Write routes the session to a writer; reads may go to a follower
	Write bool
}

// Runner executes statements against the graph.
type Runner interface {
	Run(ctx context.Context, st Statement) (*Result, error)
}

// Pinger reports whether the graph is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Client is the Neo4j-backed Runner.
type Client struct {
	driver neo4j.DriverWithContext
	cfg    config.GraphConfig
	log    *slog.Logger
}

// New creates the driver. No connection is opened until the first statement.
func New(cfg config.GraphConfig, log *slog.Logger) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.User, cfg.Password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = cfg.MaxPoolSize
			c.ConnectionAcquisitionTimeout = cfg.AcquireTimeout
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	return &Client{
		driver: driver,
		cfg:    cfg,
		log:    log.With(logger.Scope("graphdb")),
	}, nil
}

// Run executes st in a fresh session and collects every record.
func (c *Client) Run(ctx context.Context, st Statement) (*Result, error) {
	mode := neo4j.AccessModeRead
	modeLabel := "read"
	if st.Write {
		mode = neo4j.AccessModeWrite
		modeLabel = "write"
	}

	ctx, span := otel.Tracer("graphdb").Start(ctx, "graphdb.run",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "neo4j"),
			attribute.String("db.namespace", c.cfg.Database),
			attribute.String("db.access_mode", modeLabel),
		),
	)
	defer span.End()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: c.cfg.Database,
	})
	defer session.Close(ctx)

	if c.cfg.QueryDebug {
		c.log.Debug("running statement",
			slog.String("cypher", st.Cypher),
			slog.Any("params", st.Params),
			slog.String("mode", modeLabel),
		)
	}

	var txOpts []func(*neo4j.TransactionConfig)
	if c.cfg.QueryTimeout > 0 {
		txOpts = append(txOpts, neo4j.WithTxTimeout(c.cfg.QueryTimeout))
	}

	start := time.Now()
	result, err := c.run(ctx, session, st, txOpts)
	queryDuration.WithLabelValues(modeLabel).Observe(time.Since(start).Seconds())
	if err != nil {
		queryErrors.WithLabelValues(modeLabel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("db.response.returned_rows", len(result.Records)))
	return result, nil
}

func (c *Client) run(ctx context.Context, session neo4j.SessionWithContext, st Statement, txOpts []func(*neo4j.TransactionConfig)) (*Result, error) {
	res, err := session.Run(ctx, st.Cypher, st.Params, txOpts...)
	if err != nil {
		return nil, err
	}

	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}

	out := &Result{Records: make([]Record, 0, len(records))}
	if len(records) > 0 {
		out.Keys = records[0].Keys
	} else if keys, kerr := res.Keys(); kerr == nil {
		out.Keys = keys
	}
	for _, rec := range records {
		out.Records = append(out.Records, convertRecord(rec))
	}

	summary, err := res.Consume(ctx)
	if err != nil {
		return nil, err
	}
	out.Counters = countersFrom(summary.Counters())

	return out, nil
}

// Ping runs a trivial statement end to end.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Run(ctx, Statement{Cypher: "RETURN 1 AS ok"})
	return err
}

// Close releases the connection pool.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}
