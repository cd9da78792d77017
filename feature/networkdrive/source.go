package networkdrive

import (
	"context"
	"errors"
	"iter"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"connector-service/core/cache"
	"connector-service/core/directory"
	"connector-service/core/metrics"
	"connector-service/core/service"
	"connector-service/core/source"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	fieldPath      = "path"
	fieldSize      = "size"
	fieldCreatedAt = "created_at"
	fieldTitle     = "title"
)

// Option customises a Source.
type Option func(*Source)

// WithShareDialer replaces the SMB dialer.
func WithShareDialer(dial ShareDialer) Option {
	return func(s *Source) { s.dial = dial }
}

// WithShellFactory replaces the WinRM shell factory.
func WithShellFactory(f ShellFactory) Option {
	return func(s *Source) { s.security = NewSecurityInfo(s.cfg, f) }
}

// WithClock replaces the clock used for identity documents.
func WithClock(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// Source streams the files and folders of an SMB share.
type Source struct {
	cfg      Config
	features service.Features
	logger   *zap.Logger
	dial     ShareDialer
	security *SecurityInfo
	now      func() time.Time

	mu    sync.Mutex
	share Share

	snapshot  *cache.Memo[Snapshot]
	validator *RulesValidator
}

// New creates the source of a network drive connector.
func New(connector *directory.Connector, opts source.Options, options ...Option) (*Source, error) {
	cfg, err := ConfigFromConnector(connector)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Source{
		cfg:      cfg,
		features: opts.Features,
		logger:   logger.With(zap.String("connector_id", connector.ID), zap.String("service_type", ServiceType)),
		dial:     DialSMB,
		now:      time.Now,
	}
	s.security = NewSecurityInfo(cfg, nil)
	for _, opt := range options {
		opt(s)
	}

	s.snapshot = cache.NewMemo(func(ctx context.Context) (Snapshot, error) {
		share, err := s.connect(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		return walk(ctx, share, s.logger)
	}, 0)
	s.validator = NewRulesValidator(s)

	return s, nil
}

// Definition registers the network drive with a source registry.
func Definition() source.Definition {
	return source.Definition{
		ServiceType: ServiceType,
		Name:        "Network Drive",
		Factory: func(connector *directory.Connector, opts source.Options) (source.DocumentSource, error) {
			return New(connector, opts)
		},
		DefaultConfiguration: DefaultConfiguration,
	}
}

// Config returns the decoded connector configuration.
func (s *Source) Config() Config {
	return s.cfg
}

func (s *Source) connect(ctx context.Context) (Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.share != nil {
		return s.share, nil
	}
	share, err := s.dial(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	s.share = share
	return share, nil
}

// Ping opens the SMB session once, without retrying.
func (s *Source) Ping(ctx context.Context) error {
	if _, err := s.connect(ctx); err != nil {
		return err
	}
	s.logger.Info("Successfully connected to the Network Drive")
	return nil
}

// Close ends the SMB session. Closing an unconnected source is a no-op.
func (s *Source) Close(ctx context.Context) error {
	s.mu.Lock()
	share := s.share
	s.share = nil
	s.mu.Unlock()

	if share == nil {
		return nil
	}
	return share.Close()
}

// Changed always reports true; shares carry no change cursor.
func (s *Source) Changed(ctx context.Context) (bool, error) {
	return true, nil
}

// Snapshot returns the directory snapshot, walking the share on first use.
func (s *Source) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.snapshot.Get(ctx)
}

// RefreshSnapshot walks the share again and replaces the snapshot.
func (s *Source) RefreshSnapshot(ctx context.Context) (Snapshot, error) {
	return s.snapshot.Refresh(ctx)
}

// InvalidateSnapshot drops the snapshot; the next use walks the share again.
func (s *Source) InvalidateSnapshot() {
	s.snapshot.Invalidate()
}

// AdvancedRulesValidators implements source.RulesValidating.
func (s *Source) AdvancedRulesValidators() []source.RulesValidator {
	return []source.RulesValidator{s.validator}
}

func (s *Source) document(rel string, entry FileEntry) source.Document {
	unc := s.cfg.UNC(rel)
	kind := source.KindFile
	if entry.Dir {
		kind = source.KindFolder
	}
	return source.Document{
		source.FieldID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte(unc)).String(),
		fieldPath:             unc,
		fieldSize:             entry.Size,
		fieldCreatedAt:        entry.Created.UTC().Format(time.RFC3339),
		source.FieldTimestamp: entry.Changed.UTC().Format(time.RFC3339),
		source.FieldType:      kind,
		fieldTitle:            entry.Name,
	}
}

// GetDocs streams documents. With advanced rules only matching paths are
// listed; a rule matching nothing fails the stream with *InvalidRulesError.
// The returned sequence can be ranged over once.
func (s *Source) GetDocs(ctx context.Context, filtering source.Filtering) iter.Seq2[source.Item, error] {
	var consumed atomic.Bool
	return func(yield func(source.Item, error) bool) {
		if consumed.Swap(true) {
			yield(source.Item{}, source.ErrStreamConsumed)
			return
		}

		snap, err := s.Snapshot(ctx)
		if err != nil {
			yield(source.Item{}, err)
			return
		}

		if !filtering.HasAdvancedRules() {
			for _, dir := range snap.Dirs() {
				if !s.emitDir(ctx, dir, yield) {
					return
				}
			}
			return
		}

		rules, err := filtering.AdvancedRules()
		if err != nil {
			yield(source.Item{}, err)
			return
		}
		matched, invalid := MatchRules(snap, rules)
		if len(invalid) > 0 {
			yield(source.Item{}, &InvalidRulesError{Patterns: invalid})
			return
		}

		dirs := make(map[string]bool)
		for _, entry := range matched {
			if entry.Dir {
				dirs[entry.Path] = true
			}
		}
		for _, entry := range matched {
			if entry.Dir {
				if !s.emitDir(ctx, entry.Path, yield) {
					return
				}
				continue
			}
			if dirs[parentDir(entry.Path)] {
				continue
			}
			if !s.emitFile(ctx, entry.Path, yield) {
				return
			}
		}
	}
}

// emitDir yields the children of dir. It returns false when the stream must stop.
func (s *Source) emitDir(ctx context.Context, dir string, yield func(source.Item, error) bool) bool {
	if err := ctx.Err(); err != nil {
		yield(source.Item{}, err)
		return false
	}

	share, err := s.connect(ctx)
	if err != nil {
		yield(source.Item{}, err)
		return false
	}
	entries, err := share.ReadDir(ctx, dir)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			yield(source.Item{}, err)
			return false
		}
		s.logger.Error("Error while scanning the path", zap.String("path", s.cfg.UNC(dir)), zap.Error(err))
		return true
	}

	for _, entry := range entries {
		if !s.emit(ctx, path.Join(dir, entry.Name), entry, yield) {
			return false
		}
	}
	return true
}

func (s *Source) emitFile(ctx context.Context, rel string, yield func(source.Item, error) bool) bool {
	share, err := s.connect(ctx)
	if err != nil {
		yield(source.Item{}, err)
		return false
	}
	entry, err := share.Stat(ctx, rel)
	if err != nil {
		s.logger.Error("Error while reading the file metadata", zap.String("path", s.cfg.UNC(rel)), zap.Error(err))
		return true
	}
	return s.emit(ctx, rel, entry, yield)
}

func (s *Source) emit(ctx context.Context, rel string, entry FileEntry, yield func(source.Item, error) bool) bool {
	doc := s.document(rel, entry)
	if !s.decorate(ctx, doc, rel) {
		return true
	}

	item := source.Item{Document: doc}
	if !entry.Dir {
		item.Fetch = s.contentFetcher(rel, doc, entry)
	}
	metrics.DocumentsYielded.WithLabelValues(ServiceType).Inc()
	return yield(item, nil)
}
