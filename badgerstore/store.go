package badgerstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
)

const (
	sep         = "\x00"
	nodePrefix  = "u" + sep
	edgePrefix  = "e" + sep
	maxTxnRetry = 5
)

// removeBatchSize caps the friendships RemoveNode deletes per transaction.
var removeBatchSize = 1000

var errBatchFull = errors.New("batch full")

// Store implements friendgraph.Store on BadgerDB. Each mutation runs in one
// serializable transaction, so both directions of a friendship, and every
// edge removed by a cascading node delete, commit together.
type Store struct {
	db     *badger.DB
	logger *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ friendgraph.Store = (*Store)(nil)

// Open opens the database described by cfg and starts value log GC when configured.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	db, err := openDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{db: db, logger: logger, cancel: cancel}
	if !cfg.InMemory && cfg.GCInterval > 0 {
		s.wg.Add(1)
		go gcLoop(ctx, &s.wg, db, cfg, logger)
	}
	logger.Info("badger store opened", zap.String("path", cfg.Path), zap.Bool("in_memory", cfg.InMemory))
	return s, nil
}

// Close stops background GC and closes the database.
func (s *Store) Close(_ context.Context) error {
	s.cancel()
	s.wg.Wait()
	return s.db.Close()
}

// Ping reports whether the database is still open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return nil
}

func nodeKey(name string) []byte { return []byte(nodePrefix + name) }

func edgeKey(a, b string) []byte { return []byte(edgePrefix + a + sep + b) }

func adjacencyPrefix(name string) []byte { return []byte(edgePrefix + name + sep) }

// validateName adds the key-encoding restriction to the common name checks.
func validateName(op, name string) error {
	if err := friendgraph.ValidateName(op, name); err != nil {
		return err
	}
	if strings.Contains(name, sep) {
		return &friendgraph.NodeError{Op: op, Name: name, Err: friendgraph.ErrInvalidRequest}
	}
	return nil
}

func validatePair(op, a, b string) error {
	if err := validateName(op, a); err != nil {
		return err
	}
	if err := validateName(op, b); err != nil {
		return err
	}
	return friendgraph.ValidatePair(op, a, b)
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetry; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.logger.Debug("badger transaction conflict, retrying", zap.Int("attempt", attempt+1))
	}
	return err
}

func requireNodes(txn *badger.Txn, op string, names ...string) error {
	for _, name := range names {
		_, err := txn.Get(nodeKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return friendgraph.UnknownNode(op, name)
		}
		if err != nil {
			return fmt.Errorf("%s %q: %w", op, name, err)
		}
	}
	return nil
}

// scanKeys calls fn with the remainder of every key under prefix.
func scanKeys(txn *badger.Txn, prefix []byte, fn func(rest []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().KeyCopy(nil)
		if err := fn(key[len(prefix):]); err != nil {
			return err
		}
	}
	return nil
}

// AddNode writes the user key unless it is already present.
func (s *Store) AddNode(ctx context.Context, name string) error {
	const op = "add node"
	if err := validateName(op, name); err != nil {
		return err
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(nodeKey(name))
		if err == nil {
			return friendgraph.DuplicateNode(op, name)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%s %q: %w", op, name, err)
		}
		return txn.Set(nodeKey(name), nil)
	})
}

// ListNodes scans the user keys, which Badger yields in byte order.
func (s *Store) ListNodes(_ context.Context) ([]string, error) {
	names := make([]string, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		return scanKeys(txn, []byte(nodePrefix), func(rest []byte) error {
			names = append(names, string(rest))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return names, nil
}

// AddEdge writes both directed edge keys in one transaction.
func (s *Store) AddEdge(ctx context.Context, a, b string) error {
	const op = "add edge"
	if err := validatePair(op, a, b); err != nil {
		return err
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		if err := requireNodes(txn, op, a, b); err != nil {
			return err
		}
		if err := txn.Set(edgeKey(a, b), nil); err != nil {
			return err
		}
		return txn.Set(edgeKey(b, a), nil)
	})
}

// RemoveEdge deletes both directed edge keys in one transaction.
func (s *Store) RemoveEdge(ctx context.Context, a, b string) error {
	const op = "remove edge"
	if err := validatePair(op, a, b); err != nil {
		return err
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		if err := requireNodes(txn, op, a, b); err != nil {
			return err
		}
		if err := txn.Delete(edgeKey(a, b)); err != nil {
			return err
		}
		return txn.Delete(edgeKey(b, a))
	})
}

// ListEdges scans the edge keys and keeps one direction of each friendship.
func (s *Store) ListEdges(_ context.Context) ([]models.Edge, error) {
	edges := make([]models.Edge, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		return scanKeys(txn, []byte(edgePrefix), func(rest []byte) error {
			a, b, ok := bytes.Cut(rest, []byte(sep))
			if !ok {
				return fmt.Errorf("malformed edge key %q", rest)
			}
			// Each friendship is stored twice; keep the canonical direction.
			if bytes.Compare(a, b) < 0 {
				edges = append(edges, models.Edge{Source: string(a), Target: string(b)})
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	return edges, nil
}

// Neighbors is a prefix scan over the adjacency keys of name.
func (s *Store) Neighbors(_ context.Context, name string) ([]string, error) {
	const op = "neighbors"
	if err := validateName(op, name); err != nil {
		return nil, err
	}
	friends := make([]string, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		if err := requireNodes(txn, op, name); err != nil {
			return err
		}
		return scanKeys(txn, adjacencyPrefix(name), func(rest []byte) error {
			friends = append(friends, string(rest))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return friends, nil
}

// RemoveNode deletes the user and both directions of every friendship it has.
//
// Friendships are removed in transactions of at most removeBatchSize pairs so
// that a well-connected user does not exceed Badger's transaction size limit.
// Each commit drops whole pairs, so the relation stays symmetric throughout;
// the user key goes in the last transaction, together with whatever edges
// remain, so no edge ever points at a missing user.
func (s *Store) RemoveNode(ctx context.Context, name string) error {
	const op = "remove node"
	if err := validateName(op, name); err != nil {
		return err
	}
	for first := true; ; first = false {
		done := false
		err := s.update(ctx, func(txn *badger.Txn) error {
			done = false
			if err := requireNodes(txn, op, name); err != nil {
				return err
			}
			friends, err := adjacentBatch(txn, name, removeBatchSize)
			if err != nil {
				return err
			}
			for _, f := range friends {
				if err := txn.Delete(edgeKey(name, f)); err != nil {
					return err
				}
				if err := txn.Delete(edgeKey(f, name)); err != nil {
					return err
				}
			}
			if len(friends) < removeBatchSize {
				done = true
				return txn.Delete(nodeKey(name))
			}
			return nil
		})
		if !first && errors.Is(err, friendgraph.ErrUnknownNode) {
			// A concurrent RemoveNode finished the job.
			return nil
		}
		if err != nil || done {
			return err
		}
	}
}

// adjacentBatch returns up to limit friends of name.
func adjacentBatch(txn *badger.Txn, name string, limit int) ([]string, error) {
	friends := make([]string, 0, limit)
	err := scanKeys(txn, adjacencyPrefix(name), func(rest []byte) error {
		if len(friends) == limit {
			return errBatchFull
		}
		friends = append(friends, string(rest))
		return nil
	})
	if err != nil && !errors.Is(err, errBatchFull) {
		return nil, err
	}
	return friends, nil
}
