package source

import (
	"context"
	"errors"
	"iter"
	"slices"
)

// Document field names shared by every source.
const (
	FieldID            = "_id"
	FieldTimestamp     = "_timestamp"
	FieldType          = "type"
	FieldAttachment    = "_attachment"
	FieldAccessControl = "_allow_access_control"
)

// Document kinds.
const (
	KindFile   = "file"
	KindFolder = "folder"
)

// ErrStreamConsumed is yielded when a GetDocs sequence is ranged over twice.
var ErrStreamConsumed = errors.New("document stream already consumed")

// Document is the flat metadata record of one entry of a source.
type Document map[string]any

// ID returns the document id.
func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}

// Kind returns the document type (file or folder).
func (d Document) Kind() string {
	kind, _ := d[FieldType].(string)
	return kind
}

// AccessControl returns the access-control tokens attached to the document.
func (d Document) AccessControl() []string {
	switch v := d[FieldAccessControl].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// DecorateWithAccessControl sets the access-control list to the union of the
// existing tokens and tokens, keeping first-seen order.
func (d Document) DecorateWithAccessControl(tokens []string) Document {
	merged := slices.Clone(d.AccessControl())
	for _, t := range tokens {
		if !slices.Contains(merged, t) {
			merged = append(merged, t)
		}
	}
	if merged == nil {
		merged = []string{}
	}
	d[FieldAccessControl] = merged
	return d
}

// ContentFetcher downloads the content of one entry. It returns a nil document
// without error when doit is false or the entry is not eligible.
type ContentFetcher func(ctx context.Context, doit bool, timestamp string) (Document, error)

// Item pairs a document with its content fetcher. Fetch is nil for folders.
type Item struct {
	Document Document
	Fetch    ContentFetcher
}

// DocumentSource is a connector backend producing documents.
type DocumentSource interface {
	// Ping checks connectivity once, without retrying.
	Ping(ctx context.Context) error
	// Close releases the remote session; calling it twice is safe.
	Close(ctx context.Context) error
	// Changed reports whether the source changed since the last sync.
	Changed(ctx context.Context) (bool, error)
	// GetDocs streams the documents selected by filtering. The sequence is single-pass.
	GetDocs(ctx context.Context, filtering Filtering) iter.Seq2[Item, error]
}

// RulesValidating is implemented by sources that validate advanced rules remotely.
type RulesValidating interface {
	AdvancedRulesValidators() []RulesValidator
}

// AccessControlSource is implemented by sources that can list identities.
type AccessControlSource interface {
	GetAccessControl(ctx context.Context) iter.Seq2[*IdentityDocument, error]
}
