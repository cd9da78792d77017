package networkdrive

import (
	"context"
	"iter"
	"slices"

	"connector-service/core/source"

	"go.uber.org/zap"
)

func prefixUser(user string) string { return source.PrefixIdentity(source.PrefixUser, user) }

func prefixSID(sid string) string { return source.PrefixIdentity(source.PrefixSID, sid) }

// dlsEnabled reports whether both the deployment and the connector ask for
// document level security.
func (s *Source) dlsEnabled() bool {
	return s.features.DocumentLevelSecurity && s.cfg.UseDocumentLevelSecurity
}

// EntityPermissions returns the sid tokens allowed on a root-relative path.
func (s *Source) EntityPermissions(ctx context.Context, rel string) ([]string, error) {
	if !s.dlsEnabled() {
		return nil, nil
	}

	sddl, err := s.security.Descriptor(ctx, s.cfg.UNC(rel))
	if err != nil {
		return nil, err
	}
	aces, err := ParseDACL(sddl)
	if err != nil {
		return nil, err
	}

	var tokens []string
	for _, ace := range aces {
		if !ace.Granting() {
			continue
		}
		if !ace.Resolved() {
			s.logger.Debug("Skipping unresolved sid alias", zap.String("path", rel), zap.String("sid", ace.SID))
			continue
		}
		if token := prefixSID(ace.SID); !slices.Contains(tokens, token) {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

// decorate adds the permissions of the entry to doc. It returns false when
// the permissions could not be resolved.
func (s *Source) decorate(ctx context.Context, doc source.Document, rel string) bool {
	if !s.dlsEnabled() {
		return true
	}
	tokens, err := s.EntityPermissions(ctx, rel)
	if err != nil {
		s.logger.Error("Failed to resolve permissions, skipping document",
			zap.String("path", rel),
			zap.Error(err),
		)
		return false
	}
	doc.DecorateWithAccessControl(tokens)
	return true
}

func identityDocument(user Principal, groups []Principal, members map[string][]Principal) *source.IdentityDocument {
	tokens := []string{prefixSID(user.SID), prefixUser(user.Name)}
	for _, group := range groups {
		if slices.ContainsFunc(members[group.Name], func(m Principal) bool { return m.SID == user.SID }) {
			tokens = append(tokens, prefixSID(group.SID))
		}
	}
	return &source.IdentityDocument{
		ID: user.SID,
		Identity: source.Identity{
			Username: prefixUser(user.Name),
			UserID:   prefixSID(user.SID),
		},
		AccessControl: tokens,
	}
}

// GetAccessControl yields one identity document per local user.
func (s *Source) GetAccessControl(ctx context.Context) iter.Seq2[*source.IdentityDocument, error] {
	return func(yield func(*source.IdentityDocument, error) bool) {
		if !s.dlsEnabled() {
			s.logger.Warn("DLS is not enabled. Skipping")
			return
		}

		s.logger.Info("Fetching all groups and members")
		groups, err := s.security.FetchGroups(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		members, err := s.security.FetchAllMembers(ctx, groups)
		if err != nil {
			yield(nil, err)
			return
		}

		s.logger.Info("Fetching all users")
		users, err := s.security.FetchUsers(ctx)
		if err != nil {
			yield(nil, err)
			return
		}

		for _, user := range users {
			doc := identityDocument(user, groups, members)
			doc.CreatedAt = s.now().UTC()
			if !yield(doc, nil) {
				return
			}
		}
	}
}
