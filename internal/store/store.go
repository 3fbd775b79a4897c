// Package store implements the write and read APIs over a single project
// graph: merge-on-conflict entity creation, referential-integrity checked
// relations, observation linking, filtered reads, substring search,
// neighborhood expansion, and advanced traversal / shortest-path queries.
//
// Every mutating call that changed anything persists the whole snapshot
// before returning. The store assumes a single writer; it has no locking.
package store

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/codegraphlab/codegraph-mcp/internal/graph"
)

// ObservationType is the fixed node type for observation nodes.
const ObservationType = "observation"

// RelatesToType is the edge type linking an observation to an entity.
const RelatesToType = "relates_to"

// GraphStore owns one project graph and its snapshot file.
type GraphStore struct {
	path string
	g    *graph.Graph
	log  *slog.Logger
}

// Open loads the snapshot at path (an absent file yields an empty graph)
// and returns a store bound to it.
func Open(path string, logger *slog.Logger) (*GraphStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	g, err := graph.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("graph loaded", "path", path, "nodes", g.Order(), "edges", g.Size())
	return &GraphStore{path: path, g: g, log: logger}, nil
}

// Path returns the snapshot file path.
func (s *GraphStore) Path() string { return s.path }

// Order returns the node count of the underlying graph.
func (s *GraphStore) Order() int { return s.g.Order() }

// Size returns the edge count of the underlying graph.
func (s *GraphStore) Size() int { return s.g.Size() }

// persist writes the whole graph back to disk. The in-memory mutation has
// already happened by the time this runs; a failure here is surfaced to the
// caller as a hard error and leaves memory and disk divergent until the
// next successful save.
func (s *GraphStore) persist() error {
	if err := graph.Save(s.path, s.g); err != nil {
		s.log.Error("snapshot save failed", "path", s.path, "error", err)
		return err
	}
	return nil
}

// --- Entities ---

// EntityInput describes one entity to create or merge.
type EntityInput struct {
	ID         string      `json:"id"`
	Type       string      `json:"type,omitempty"`
	Attributes graph.Attrs `json:"attributes,omitempty"`
}

// EntityResult reports the outcome of a CreateEntities batch.
type EntityResult struct {
	Created []string `json:"created"`
	Merged  []string `json:"merged"`
	Errors  []string `json:"errors,omitempty"`
}

// CreateEntities creates or merges each input. An existing id never errors:
// the provided attributes are shallow-merged into the node (its type and id
// stay immutable). A new node gets the given type (default "entity") and a
// name defaulted to its id. Invalid items are skipped and reported.
func (s *GraphStore) CreateEntities(inputs []EntityInput) (*EntityResult, error) {
	res := &EntityResult{Created: []string{}, Merged: []string{}}
	for i, in := range inputs {
		if in.ID == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("entity %d: id is required", i))
			continue
		}
		if existing, ok := s.g.NodeAttrs(in.ID); ok {
			attrs := in.Attributes.Clone()
			delete(attrs, "type")
			existing.Merge(attrs)
			res.Merged = append(res.Merged, in.ID)
			continue
		}
		attrs := in.Attributes.Clone()
		if in.Type != "" {
			attrs["type"] = in.Type
		} else if attrs.String("type") == "" {
			attrs["type"] = "entity"
		}
		if attrs.String("name") == "" {
			attrs["name"] = in.ID
		}
		if err := s.g.AddNode(in.ID, attrs); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("entity %q: %v", in.ID, err))
			continue
		}
		res.Created = append(res.Created, in.ID)
	}
	if len(res.Created)+len(res.Merged) > 0 {
		if err := s.persist(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// EntityUpdate describes a merge-only attribute update.
type EntityUpdate struct {
	ID         string      `json:"id"`
	Attributes graph.Attrs `json:"attributes"`
}

// UpdateResult reports the outcome of an UpdateEntities batch.
type UpdateResult struct {
	Updated  []string `json:"updated"`
	NotFound []string `json:"not_found"`
}

// UpdateEntities shallow-merges attributes into existing nodes. Unknown ids
// are reported, not errors. Type and id are never replaced.
func (s *GraphStore) UpdateEntities(updates []EntityUpdate) (*UpdateResult, error) {
	res := &UpdateResult{Updated: []string{}, NotFound: []string{}}
	for _, u := range updates {
		existing, ok := s.g.NodeAttrs(u.ID)
		if !ok {
			res.NotFound = append(res.NotFound, u.ID)
			continue
		}
		attrs := u.Attributes.Clone()
		delete(attrs, "type")
		existing.Merge(attrs)
		res.Updated = append(res.Updated, u.ID)
	}
	if len(res.Updated) > 0 {
		if err := s.persist(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// DeleteResult reports the outcome of a delete batch.
type DeleteResult struct {
	Deleted  []string `json:"deleted"`
	NotFound []string `json:"not_found"`
}

// DeleteEntities removes nodes and cascades to every incident edge.
func (s *GraphStore) DeleteEntities(ids []string) (*DeleteResult, error) {
	res := &DeleteResult{Deleted: []string{}, NotFound: []string{}}
	for _, id := range ids {
		if err := s.g.DropNode(id); err != nil {
			res.NotFound = append(res.NotFound, id)
			continue
		}
		res.Deleted = append(res.Deleted, id)
	}
	if len(res.Deleted) > 0 {
		if err := s.persist(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// --- Relations ---

// RelationInput describes one edge to create.
type RelationInput struct {
	ID         string      `json:"id"`
	Source     string      `json:"source"`
	Target     string      `json:"target"`
	Type       string      `json:"type"`
	Undirected bool        `json:"undirected,omitempty"`
	Attributes graph.Attrs `json:"attributes,omitempty"`
}

// RelationResult reports the outcome of a CreateRelations batch. Partial
// success is normal: each item is validated independently.
type RelationResult struct {
	Created []string `json:"created"`
	Errors  []string `json:"errors,omitempty"`
}

// CreateRelations creates edges between existing nodes. Items referencing
// unknown endpoints or colliding edge ids are skipped and reported without
// aborting the batch.
func (s *GraphStore) CreateRelations(inputs []RelationInput) (*RelationResult, error) {
	res := &RelationResult{Created: []string{}}
	for i, in := range inputs {
		switch {
		case in.ID == "":
			res.Errors = append(res.Errors, fmt.Sprintf("relation %d: id is required", i))
			continue
		case in.Source == "" || in.Target == "":
			res.Errors = append(res.Errors, fmt.Sprintf("relation %q: source and target are required", in.ID))
			continue
		case in.Type == "":
			res.Errors = append(res.Errors, fmt.Sprintf("relation %q: type is required", in.ID))
			continue
		}
		attrs := in.Attributes.Clone()
		attrs["type"] = in.Type
		if err := s.g.AddEdge(in.ID, in.Source, in.Target, in.Undirected, attrs); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("relation %q: %v", in.ID, err))
			continue
		}
		res.Created = append(res.Created, in.ID)
	}
	if len(res.Created) > 0 {
		if err := s.persist(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// DeleteRelations removes edges by id.
func (s *GraphStore) DeleteRelations(ids []string) (*DeleteResult, error) {
	res := &DeleteResult{Deleted: []string{}, NotFound: []string{}}
	for _, id := range ids {
		if err := s.g.DropEdge(id); err != nil {
			res.NotFound = append(res.NotFound, id)
			continue
		}
		res.Deleted = append(res.Deleted, id)
	}
	if len(res.Deleted) > 0 {
		if err := s.persist(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// --- Observations ---

// ObservationInput describes an observation node and the entities it
// describes.
type ObservationInput struct {
	ID               string      `json:"id,omitempty"`
	Content          string      `json:"content"`
	Tags             []string    `json:"tags,omitempty"`
	Attributes       graph.Attrs `json:"attributes,omitempty"`
	RelatedEntityIDs []string    `json:"related_entity_ids,omitempty"`
}

// ObservationResult reports created/merged observation nodes, the relates_to
// edges established, and warnings for related entities that do not exist.
type ObservationResult struct {
	Created  []string `json:"created"`
	Merged   []string `json:"merged"`
	Linked   []string `json:"linked"`
	Warnings []string `json:"warnings,omitempty"`
}

// RelatesToEdgeID derives the deterministic edge id for an observation link,
// which makes relinking idempotent.
func RelatesToEdgeID(observationID, entityID string) string {
	return observationID + "::" + RelatesToType + "::" + entityID
}

// CreateObservations creates or merges observation nodes and links each to
// its related entities. A missing related entity downgrades to a warning;
// the observation node itself is still created.
func (s *GraphStore) CreateObservations(inputs []ObservationInput) (*ObservationResult, error) {
	res := &ObservationResult{Created: []string{}, Merged: []string{}, Linked: []string{}}
	changed := false
	for _, in := range inputs {
		id := in.ID
		if id == "" {
			id = uuid.New().String()
		}
		attrs := in.Attributes.Clone()
		attrs["type"] = ObservationType
		if in.Content != "" {
			attrs["content"] = in.Content
		}
		if len(in.Tags) > 0 {
			tags := make([]any, len(in.Tags))
			for i, tag := range in.Tags {
				tags[i] = tag
			}
			attrs["tags"] = tags
		}
		if !s.g.HasNode(id) && attrs.String("name") == "" {
			attrs["name"] = id
		}
		if s.g.MergeNode(id, attrs) {
			res.Created = append(res.Created, id)
		} else {
			res.Merged = append(res.Merged, id)
		}
		changed = true

		for _, entityID := range in.RelatedEntityIDs {
			if !s.g.HasNode(entityID) {
				res.Warnings = append(res.Warnings, fmt.Sprintf("observation %q: related entity %q not found, link skipped", id, entityID))
				continue
			}
			edgeID := RelatesToEdgeID(id, entityID)
			if s.g.HasEdge(edgeID) {
				continue
			}
			if err := s.g.AddEdge(edgeID, id, entityID, false, graph.Attrs{"type": RelatesToType}); err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("observation %q: link to %q: %v", id, entityID, err))
				continue
			}
			res.Linked = append(res.Linked, edgeID)
		}
	}
	if changed {
		if err := s.persist(); err != nil {
			return res, err
		}
	}
	return res, nil
}
