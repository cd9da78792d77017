package networkdrive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"connector-service/core/directory"
	"connector-service/core/service"
	"connector-service/core/source"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeShare struct {
	mu       sync.Mutex
	dirs     map[string][]FileEntry
	files    map[string][]byte
	failDirs map[string]error
	failOpen error
	readDirs map[string]int
	closed   int
}

func newFakeShare() *fakeShare {
	return &fakeShare{
		dirs:     map[string][]FileEntry{"": nil},
		files:    map[string][]byte{},
		failDirs: map[string]error{},
		readDirs: map[string]int{},
	}
}

func (f *fakeShare) addDir(p string) {
	f.dirs[p] = f.dirs[p]
	parent := path.Dir(p)
	if parent == "." {
		parent = ""
	}
	f.dirs[parent] = append(f.dirs[parent], FileEntry{Name: path.Base(p), Dir: true, Created: testTime, Changed: testTime})
}

func (f *fakeShare) addFile(p string, size int64, content string) {
	parent := path.Dir(p)
	if parent == "." {
		parent = ""
	}
	f.dirs[parent] = append(f.dirs[parent], FileEntry{Name: path.Base(p), Size: size, Created: testTime, Changed: testTime})
	f.files[p] = []byte(content)
}

func (f *fakeShare) ReadDir(ctx context.Context, dir string) ([]FileEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readDirs[dir]++
	if err := f.failDirs[dir]; err != nil {
		return nil, err
	}
	entries, ok := f.dirs[dir]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return append([]FileEntry(nil), entries...), nil
}

func (f *fakeShare) Stat(ctx context.Context, name string) (FileEntry, error) {
	parent := path.Dir(name)
	if parent == "." {
		parent = ""
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.dirs[parent] {
		if e.Name == path.Base(name) {
			return e, nil
		}
	}
	return FileEntry{}, fs.ErrNotExist
}

func (f *fakeShare) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if f.failOpen != nil {
		return nil, f.failOpen
	}
	content, ok := f.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (f *fakeShare) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

// fakeShell answers PowerShell scripts by prefix.
type fakeShell struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeShell) Run(ctx context.Context, script string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, script)
	for prefix, err := range f.errs {
		if strings.HasPrefix(script, prefix) {
			return "", err
		}
	}
	if out, ok := f.outputs[script]; ok {
		return out, nil
	}
	return "", errors.New("unexpected script: " + script)
}

func table(rows ...string) string {
	return "\r\nName  SID\r\n----  ---\r\n" + strings.Join(rows, "\r\n") + "\r\n"
}

func aclScript(unc string) string {
	return "(Get-Acl -LiteralPath '" + unc + "').Sddl"
}

func testConnector(dls bool) *directory.Connector {
	return &directory.Connector{
		ID:          "nas-1",
		ServiceType: ServiceType,
		IsNative:    true,
		Configuration: map[string]any{
			"username":                    map[string]any{"value": "admin"},
			"password":                    map[string]any{"value": "secret"},
			"server_ip":                   map[string]any{"value": "10.0.0.5"},
			"server_port":                 map[string]any{"value": float64(445)},
			"drive_path":                  map[string]any{"value": "Share"},
			"use_document_level_security": map[string]any{"value": dls},
		},
	}
}

type testEnv struct {
	source *Source
	share  *fakeShare
	shell  *fakeShell
	dials  int
}

func newTestEnv(t *testing.T, share *fakeShare, dls bool, logger *zap.Logger) *testEnv {
	t.Helper()
	if logger == nil {
		logger = zap.NewNop()
	}
	env := &testEnv{share: share, shell: &fakeShell{outputs: map[string]string{}, errs: map[string]error{}}}
	src, err := New(testConnector(dls), source.Options{
		Features: service.Features{DocumentLevelSecurity: true},
		Logger:   logger,
	},
		WithShareDialer(func(ctx context.Context, cfg Config) (Share, error) {
			env.dials++
			return env.share, nil
		}),
		WithShellFactory(func(cfg Config) (RemoteShell, error) { return env.shell, nil }),
		WithClock(func() time.Time { return testTime }),
	)
	require.NoError(t, err)
	env.source = src
	return env
}

func collect(t *testing.T, seq func(func(source.Item, error) bool)) ([]source.Item, error) {
	t.Helper()
	var items []source.Item
	for item, err := range seq {
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}

func titles(items []source.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Document[fieldTitle].(string))
	}
	return out
}
