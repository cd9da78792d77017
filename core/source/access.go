package source

import (
	"time"

	"github.com/goccy/go-json"
)

// Identity token prefixes.
const (
	PrefixUser = "user"
	PrefixSID  = "sid"
)

// PrefixIdentity namespaces an identity so user names and SIDs cannot collide.
func PrefixIdentity(prefix, identity string) string {
	if prefix == "" {
		return identity
	}
	return prefix + ":" + identity
}

// Identity names a principal in an identity document.
type Identity struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
}

// IdentityDocument describes one principal and every token granting it access.
type IdentityDocument struct {
	ID            string
	Identity      Identity
	AccessControl []string
	CreatedAt     time.Time
}

type accessControlParams struct {
	AccessControl []string `json:"access_control"`
}

type accessControlTemplate struct {
	Params accessControlParams `json:"params"`
}

type accessControlQuery struct {
	Template accessControlTemplate `json:"template"`
	Source   map[string]any        `json:"source"`
}

// AccessControlQuery builds the search template that restricts results to
// documents without access control or with one of the given tokens. Empty
// tokens are dropped.
func AccessControlQuery(tokens []string) map[string]any {
	filtered := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			filtered = append(filtered, t)
		}
	}
	return map[string]any{
		"query": accessControlQuery{
			Template: accessControlTemplate{Params: accessControlParams{AccessControl: filtered}},
			Source: map[string]any{
				"bool": map[string]any{
					"filter": map[string]any{
						"bool": map[string]any{
							"should": []any{
								map[string]any{"bool": map[string]any{"must_not": map[string]any{"exists": map[string]any{"field": FieldAccessControl}}}},
								map[string]any{"terms": map[string]any{FieldAccessControl + ".enum": filtered}},
							},
						},
					},
				},
			},
		},
	}
}

// MarshalJSON renders the document as stored in the identities index.
func (d IdentityDocument) MarshalJSON() ([]byte, error) {
	doc := AccessControlQuery(d.AccessControl)
	doc[FieldID] = d.ID
	doc["identity"] = d.Identity
	doc["created_at"] = d.CreatedAt.UTC().Format(time.RFC3339)
	return json.Marshal(doc)
}
