package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type MemgraphDriver struct {
	Driver neo4j.DriverWithContext
	logger *slog.Logger
}

func NewMemgraphDriver(ctx context.Context, uri, username, password string, logger *slog.Logger) (*MemgraphDriver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create driver for '%s': %w", uri, err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to '%s': %w", uri, err)
	}

	logger.Info("connected to memgraph", "uri", uri)
	return &MemgraphDriver{Driver: driver, logger: logger}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *MemgraphDriver) BuildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE INDEX ON :Run(uuid);",
		"CREATE INDEX ON :Run(created_at);",
		"CREATE INDEX ON :Entity(iri);",
		"CREATE INDEX ON :Entity(ontology);",
	}

	for _, q := range queries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			// Memgraph rejects indices that already exist.
			d.logger.Warn("failed to create index", "query", q, "error", err)
		}
	}
	return nil
}
