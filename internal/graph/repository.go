package graph

import (
	"context"
	"fmt"

	apperrors "termgraph/pkg/errors"
	"termgraph/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Repository mirrors projected term graphs into Neo4j.
// Every model's graph lives as (:Term {model, id})-[:ASSOCIATED]->(:Term) nodes.
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Named("graph"),
	}
}

// Connect opens a driver and verifies connectivity
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	return driver, nil
}

// Close closes the Neo4j driver connection
func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

const (
	ensureIndexQuery = `CREATE INDEX term_model_id IF NOT EXISTS FOR (t:Term) ON (t.model, t.id)`

	deleteGraphQuery = `MATCH (t:Term {model: $model}) DETACH DELETE t`

	createNodesQuery = `
		UNWIND $nodes AS n
		CREATE (:Term {model: $model, id: n.id, group: n.group, position: n.position})`

	// links to targets that are not terms have no node to attach to and are dropped
	createLinksQuery = `
		UNWIND $links AS l
		MATCH (s:Term {model: $model, id: l.source})
		MATCH (t:Term {model: $model, id: l.target})
		CREATE (s)-[:ASSOCIATED {value: l.value, position: l.position}]->(t)`

	fetchNodesQuery = `
		MATCH (t:Term {model: $model})
		RETURN t.id AS id, t.group AS grp
		ORDER BY t.position`

	fetchLinksQuery = `
		MATCH (s:Term {model: $model})-[r:ASSOCIATED]->(t:Term {model: $model})
		RETURN s.id AS source, t.id AS target, r.value AS value
		ORDER BY s.position, r.position`

	listModelsQuery = `MATCH (t:Term) RETURN DISTINCT t.model AS model ORDER BY model`
)

// EnsureSchema creates the lookup index used by sync
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	if _, err := session.Run(ctx, ensureIndexQuery, nil); err != nil {
		return apperrors.NewGraphQueryFailed("ensure index", err)
	}
	return nil
}

// SyncGraph replaces the stored graph of model with data in one transaction
func (r *Repository) SyncGraph(ctx context.Context, model string, data Data) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	nodes, links := toParams(data)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, deleteGraphQuery, map[string]any{"model": model}); err != nil {
			return nil, fmt.Errorf("delete: %w", err)
		}
		if _, err := tx.Run(ctx, createNodesQuery, map[string]any{"model": model, "nodes": nodes}); err != nil {
			return nil, fmt.Errorf("create nodes: %w", err)
		}
		if _, err := tx.Run(ctx, createLinksQuery, map[string]any{"model": model, "links": links}); err != nil {
			return nil, fmt.Errorf("create links: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return apperrors.NewGraphQueryFailed("sync "+model, err)
	}

	r.logger.Info("Graph synced",
		logger.Model(model),
		zap.Int("nodes", len(data.Nodes)),
		zap.Int("links", len(data.Links)),
	)
	return nil
}

// FetchGraph reads the stored graph of model back in projection order
func (r *Repository) FetchGraph(ctx context.Context, model string) (Data, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	params := map[string]any{"model": model}
	data := Data{Nodes: []Node{}, Links: []Link{}}

	result, err := session.Run(ctx, fetchNodesQuery, params)
	if err != nil {
		return data, apperrors.NewGraphQueryFailed("fetch nodes", err)
	}
	if data.Nodes, err = collectRows(ctx, result, func(record *neo4j.Record) Node {
		return Node{ID: recordString(record, "id"), Group: recordInt(record, "grp")}
	}); err != nil {
		return data, apperrors.NewGraphQueryFailed("fetch nodes", err)
	}

	result, err = session.Run(ctx, fetchLinksQuery, params)
	if err != nil {
		return data, apperrors.NewGraphQueryFailed("fetch links", err)
	}
	if data.Links, err = collectRows(ctx, result, func(record *neo4j.Record) Link {
		return Link{
			Source: recordString(record, "source"),
			Target: recordString(record, "target"),
			Value:  recordInt(record, "value"),
		}
	}); err != nil {
		return data, apperrors.NewGraphQueryFailed("fetch links", err)
	}

	return data, nil
}

// DeleteGraph removes every term of model
func (r *Repository) DeleteGraph(ctx context.Context, model string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	if _, err := session.Run(ctx, deleteGraphQuery, map[string]any{"model": model}); err != nil {
		return apperrors.NewGraphQueryFailed("delete "+model, err)
	}
	return nil
}

// ListModels returns the models that have a mirrored graph
func (r *Repository) ListModels(ctx context.Context) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, listModelsQuery, nil)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("list models", err)
	}
	models, err := collectRows(ctx, result, func(record *neo4j.Record) string {
		return recordString(record, "model")
	})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("list models", err)
	}
	return models, nil
}

// toParams converts graph data to Cypher parameters, numbering nodes and
// links so reads can restore projection order
func toParams(data Data) (nodes, links []any) {
	nodes = make([]any, 0, len(data.Nodes))
	for i, n := range data.Nodes {
		nodes = append(nodes, map[string]any{"id": n.ID, "group": n.Group, "position": i})
	}
	links = make([]any, 0, len(data.Links))
	for i, l := range data.Links {
		links = append(links, map[string]any{"source": l.Source, "target": l.Target, "value": l.Value, "position": i})
	}
	return nodes, links
}
