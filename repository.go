package friendgraph

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
)

// constraintViolation is the Neo4j status code raised when a write breaks a
// uniqueness constraint.
const constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

// Repository provides a generic abstraction for node operations on a specific
// entity type T. It relies on struct tags to map struct fields to node properties.
type Repository[T any] struct {
	runner DBRunner
	meta   *entityMetadata
}

// NewRepository creates a new generic repository for the type T.
// It parses the struct tags of T to understand its mapping to a Neo4j node.
func NewRepository[T any](runner DBRunner) (*Repository[T], error) {
	meta, err := parseTags[T]()
	if err != nil {
		return nil, err
	}
	return &Repository[T]{
		runner: runner,
		meta:   meta,
	}, nil
}

// Label returns the node label the repository stores T under.
func (r *Repository[T]) Label() string { return r.meta.Label }

// KeyProperty returns the database property holding T's primary key.
func (r *Repository[T]) KeyProperty() string { return r.meta.PKProp }

// UniqueConstraintQuery returns the Cypher that declares T's primary key unique.
// It is idempotent and safe to run at every startup.
func (r *Repository[T]) UniqueConstraintQuery() string {
	return fmt.Sprintf(
		"CREATE CONSTRAINT %s_%s_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		r.meta.Label, r.meta.PKProp, r.meta.Label, r.meta.PKProp,
	)
}

// Create inserts a new node for entity. Unlike a MERGE-based upsert it never
// touches an existing node: when the primary key is already taken it returns
// ErrAlreadyExists.
//
// The existence check and the CREATE are separate statements; the uniqueness
// constraint created from UniqueConstraintQuery closes the window between them.
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	exists, err := r.Exists(ctx, r.meta.primaryKey(entity))
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}

	query, params, err := gocypher.NewQueryBuilder().
		Create(gocypher.N("n", r.meta.Label).WithProperties(r.meta.properties(entity))).
		Return("n").
		Build()
	if err != nil {
		return err
	}

	if _, err := r.runner.Run(ctx, query, params); err != nil {
		var neoErr *neo4j.Neo4jError
		if errors.As(err, &neoErr) && neoErr.Code == constraintViolation {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Exists reports whether a node with the given primary key is stored.
func (r *Repository[T]) Exists(ctx context.Context, id interface{}) (bool, error) {
	_, err := r.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindByID retrieves a single entity from the database by its primary key.
//
// Returns:
//
//	A pointer to the found entity, ErrNotFound if no record is found, or another
//	error if the query or mapping fails.
func (r *Repository[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	props := map[string]interface{}{r.meta.PKProp: id}
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", r.meta.Label).WithProperties(props)).
		Return("n").
		Build()
	if err != nil {
		return nil, err
	}

	entities, err := r.run(ctx, query, params)
	if err != nil {
		return nil, err
	}

	if len(entities) == 0 {
		return nil, ErrNotFound
	}
	if len(entities) > 1 {
		// A primary key lookup must be unique; more than one row means the
		// uniqueness constraint is missing.
		return nil, fmt.Errorf("expected 1 record but found %d", len(entities))
	}
	return entities[0], nil
}

// FindAll retrieves every entity stored under T's label, in no particular order.
func (r *Repository[T]) FindAll(ctx context.Context) ([]*T, error) {
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", r.meta.Label)).
		Return("n").
		Build()
	if err != nil {
		return nil, err
	}
	return r.run(ctx, query, params)
}

// Delete removes a node from the database by its primary key.
// It uses a DETACH DELETE query to also remove any relationships connected to the node.
// Deleting a key that does not exist is not an error.
func (r *Repository[T]) Delete(ctx context.Context, id interface{}) error {
	props := map[string]interface{}{r.meta.PKProp: id}
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", r.meta.Label).WithProperties(props)).
		DetachDelete("n").
		Build()
	if err != nil {
		return err
	}
	_, err = r.runner.Run(ctx, query, params)
	return err
}

// run executes a query returning `n` per row and maps each node onto a T.
func (r *Repository[T]) run(ctx context.Context, query string, params map[string]interface{}) ([]*T, error) {
	eagerResult, err := r.runner.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}

	entities := make([]*T, 0, len(eagerResult.Records))
	for _, record := range eagerResult.Records {
		nodeValue, ok := record.Get("n")
		if !ok {
			return nil, fmt.Errorf("could not find return value 'n' in query result")
		}
		node, ok := nodeValue.(neo4j.Node)
		if !ok {
			return nil, fmt.Errorf("return value 'n' is not a node")
		}

		entity := new(T)
		if err := mapNodeToStruct(node, entity, r.meta); err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// mapNodeToStruct populates a struct's fields from a neo4j.Node's properties,
// based on the parsed metadata. Properties whose type does not fit the field
// are reported rather than panicking inside reflect.
func mapNodeToStruct(node neo4j.Node, entity any, meta *entityMetadata) error {
	val := reflect.ValueOf(entity).Elem()

	for fieldName, propName := range meta.Mappings {
		field := val.FieldByName(fieldName)
		if !field.IsValid() || !field.CanSet() {
			continue
		}

		propValue, ok := node.Props[propName]
		if !ok || propValue == nil {
			continue
		}

		pv := reflect.ValueOf(propValue)
		if !pv.Type().AssignableTo(field.Type()) {
			if !pv.Type().ConvertibleTo(field.Type()) {
				return fmt.Errorf("property %s of type %s cannot be stored in field %s of type %s",
					propName, pv.Type(), fieldName, field.Type())
			}
			pv = pv.Convert(field.Type())
		}
		field.Set(pv)
	}
	return nil
}
