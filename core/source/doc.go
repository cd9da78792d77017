// Package source defines the document source contract shared by connector
// backends: the flat document model, lazily fetched content, filtering rules
// with their validation results, access-control identity documents and the
// registry that maps service types to source factories.
package source
