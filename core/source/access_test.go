package source

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixIdentity(t *testing.T) {
	assert.Equal(t, "user:alice", PrefixIdentity(PrefixUser, "alice"))
	assert.Equal(t, "sid:S-1-5-21-1", PrefixIdentity(PrefixSID, "S-1-5-21-1"))
	assert.Equal(t, "raw", PrefixIdentity("", "raw"))
}

func TestIdentityDocument_MarshalJSON(t *testing.T) {
	doc := IdentityDocument{
		ID:            "S-1-5-21-1001",
		Identity:      Identity{Username: "user:alice", UserID: "sid:S-1-5-21-1001"},
		AccessControl: []string{"sid:S-1-5-21-1001", "user:alice", "", "sid:S-1-5-21-2001"},
		CreatedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"_id": "S-1-5-21-1001",
		"identity": {"username": "user:alice", "user_id": "sid:S-1-5-21-1001"},
		"created_at": "2024-05-01T10:00:00Z",
		"query": {
			"template": {"params": {"access_control": ["sid:S-1-5-21-1001", "user:alice", "sid:S-1-5-21-2001"]}},
			"source": {"bool": {"filter": {"bool": {"should": [
				{"bool": {"must_not": {"exists": {"field": "_allow_access_control"}}}},
				{"terms": {"_allow_access_control.enum": ["sid:S-1-5-21-1001", "user:alice", "sid:S-1-5-21-2001"]}}
			]}}}}
		}
	}`, string(raw))
}

func TestAccessControlQuery_NoTokens(t *testing.T) {
	raw, err := json.Marshal(AccessControlQuery(nil))
	require.NoError(t, err)

	var decoded struct {
		Query struct {
			Template struct {
				Params struct {
					AccessControl []string `json:"access_control"`
				} `json:"params"`
			} `json:"template"`
		} `json:"query"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotNil(t, decoded.Query.Template.Params.AccessControl)
	assert.Empty(t, decoded.Query.Template.Params.AccessControl)
}
