// Package store is the persistence gateway: a keyed document store with
// SQLite, BadgerDB and in-memory backends. Keys are namespaced per user as
// kaizen:<user>:<collection>.
package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"kaizen/internal/reconcile"
)

// Store persists raw JSON documents by key
type Store interface {
	// Get returns the document and whether it exists
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	// PutMany writes every document atomically
	PutMany(ctx context.Context, docs map[string]string) error
	// Delete is a no-op for absent keys
	Delete(ctx context.Context, key string) error
	// List returns every document whose key starts with prefix
	List(ctx context.Context, prefix string) (map[string]string, error)
	Close() error
}

// Backend names accepted by Open
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

const keyNamespace = "kaizen"

// DefaultUser is the identity used when none is configured
const DefaultUser = "default"

// Key returns the document key of a user's collection
func Key(user, collection string) string {
	return UserPrefix(user) + collection
}

// UserPrefix returns the key prefix shared by a user's documents
func UserPrefix(user string) string {
	if user == "" {
		user = DefaultUser
	}
	return keyNamespace + ":" + user + ":"
}

// ParseKey splits a document key into user and collection
func ParseKey(key string) (user, collection string, ok bool) {
	rest, found := strings.CutPrefix(key, keyNamespace+":")
	if !found {
		return "", "", false
	}
	idx := strings.LastIndex(rest, ":")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

// LoadDocuments reads every collection of a user. Absent collections are
// left out of the result.
func LoadDocuments(ctx context.Context, s Store, user string) (reconcile.Documents, error) {
	docs := make(reconcile.Documents, len(reconcile.Collections))
	for _, collection := range reconcile.Collections {
		value, ok, err := s.Get(ctx, Key(user, collection))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", collection, err)
		}
		if ok {
			docs[collection] = value
		}
	}
	return docs, nil
}

// SaveDocuments writes a user's collections in one batch
func SaveDocuments(ctx context.Context, s Store, user string, docs reconcile.Documents) error {
	if len(docs) == 0 {
		return nil
	}
	keyed := make(map[string]string, len(docs))
	for collection, value := range docs {
		keyed[Key(user, collection)] = value
	}
	return s.PutMany(ctx, keyed)
}

// Users lists the user identities that have at least one document
func Users(ctx context.Context, s Store) ([]string, error) {
	docs, err := s.List(ctx, keyNamespace+":")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var users []string
	for key := range docs {
		user, _, ok := ParseKey(key)
		if !ok {
			continue
		}
		if _, dup := seen[user]; dup {
			continue
		}
		seen[user] = struct{}{}
		users = append(users, user)
	}
	slices.Sort(users)
	return users, nil
}
