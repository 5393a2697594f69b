// Package kv defines the opaque key/value port every persisted blob goes through.
package kv

import "context"

// Keys of the persisted blobs.
const (
	KeyTransactions = "finance:data"
	KeyBudget       = "finance:budget"
	KeyCurrency     = "finance:currency"
)

// Ports for outbound adapters.
type (
	Reader interface {
		// Get returns the value stored under key. ok is false when the key is absent.
		Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	}

	Writer interface {
		Put(ctx context.Context, key string, value []byte) error
		Delete(ctx context.Context, key string) error
	}

	Store interface {
		Reader
		Writer
	}
)
