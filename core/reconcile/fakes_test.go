package reconcile

import (
	"context"
	"iter"
	"slices"
	"sort"
	"sync"
	"time"

	"connector-service/core/directory"
)

type fakeConnectors struct {
	mu         sync.Mutex
	connectors map[string]*directory.Connector
	listErr    error
	stopped    bool
	closed     bool
}

func newFakeConnectors(cs ...*directory.Connector) *fakeConnectors {
	f := &fakeConnectors{connectors: make(map[string]*directory.Connector)}
	for _, c := range cs {
		f.connectors[c.ID] = c
	}
	return f
}

func (f *fakeConnectors) sorted(keep func(*directory.Connector) bool) []*directory.Connector {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*directory.Connector
	for _, c := range f.connectors {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeConnectors) seq(cs []*directory.Connector) iter.Seq2[*directory.Connector, error] {
	return func(yield func(*directory.Connector, error) bool) {
		if f.listErr != nil {
			yield(nil, f.listErr)
			return
		}
		for _, c := range cs {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func (f *fakeConnectors) AllConnectors(ctx context.Context) iter.Seq2[*directory.Connector, error] {
	return f.seq(f.sorted(func(*directory.Connector) bool { return true }))
}

func (f *fakeConnectors) SupportedConnectors(ctx context.Context, native, ids []string) iter.Seq2[*directory.Connector, error] {
	return f.seq(f.sorted(func(c *directory.Connector) bool { return c.Supported(native, ids) }))
}

func (f *fakeConnectors) FetchByID(ctx context.Context, id string) (*directory.Connector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.connectors[id]
	if !ok {
		return nil, directory.ErrConnectorNotFound
	}
	return c, nil
}

func (f *fakeConnectors) StopWaiting() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeConnectors) Close(ctx context.Context) error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

type fakeJobs struct {
	mu             sync.Mutex
	jobs           map[string]*directory.SyncJob
	deletedIndices []string
	indexErr       error
	deleteErr      error
	stuckErr       error
	stopped        bool
	closed         bool
}

func newFakeJobs(js ...*directory.SyncJob) *fakeJobs {
	f := &fakeJobs{jobs: make(map[string]*directory.SyncJob)}
	for _, j := range js {
		f.jobs[j.ID] = j
	}
	return f
}

func (f *fakeJobs) filter(keep func(*directory.SyncJob) bool) []*directory.SyncJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*directory.SyncJob
	for _, j := range f.jobs {
		if keep(j) {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

func (f *fakeJobs) seq(js []*directory.SyncJob, err error) iter.Seq2[*directory.SyncJob, error] {
	return func(yield func(*directory.SyncJob, error) bool) {
		if err != nil {
			yield(nil, err)
			return
		}
		for _, j := range js {
			if !yield(j, nil) {
				return
			}
		}
	}
}

func (f *fakeJobs) OrphanedJobs(ctx context.Context, ids []string) iter.Seq2[*directory.SyncJob, error] {
	return f.seq(f.filter(func(j *directory.SyncJob) bool { return !slices.Contains(ids, j.ConnectorID) }), nil)
}

func (f *fakeJobs) StuckJobs(ctx context.Context, ids []string, idleSince time.Time) iter.Seq2[*directory.SyncJob, error] {
	return f.seq(f.filter(func(j *directory.SyncJob) bool {
		return slices.Contains(ids, j.ConnectorID) && j.Status == directory.JobStatusInProgress && j.LastSeen.Before(idleSince)
	}), f.stuckErr)
}

func (f *fakeJobs) DeleteJobs(ctx context.Context, ids []string) (directory.DeleteResult, error) {
	if f.deleteErr != nil {
		return directory.DeleteResult{}, f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	res := directory.DeleteResult{Total: len(ids)}
	for _, id := range ids {
		if _, ok := f.jobs[id]; ok {
			delete(f.jobs, id)
			res.Deleted++
		}
	}
	return res, nil
}

func (f *fakeJobs) DeleteIndices(ctx context.Context, names []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedIndices = append(f.deletedIndices, names...)
	return f.indexErr
}

func (f *fakeJobs) StopWaiting() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeJobs) Close(ctx context.Context) error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeJobs) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id := range f.jobs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type fakeState struct {
	jobs    *fakeJobs
	failFor map[string]error
	marked  []string
}

func (s *fakeState) MarkJobFailed(ctx context.Context, connector *directory.Connector, job *directory.SyncJob, message string) error {
	if err := s.failFor[job.ID]; err != nil {
		return err
	}
	s.jobs.mu.Lock()
	defer s.jobs.mu.Unlock()
	stored := s.jobs.jobs[job.ID]
	if stored.Status != directory.JobStatusInProgress {
		return directory.ErrJobNotInProgress
	}
	stored.Status = directory.JobStatusError
	stored.Error = message
	s.marked = append(s.marked, job.ID)
	return nil
}
