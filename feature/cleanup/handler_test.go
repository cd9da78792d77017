package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"connector-service/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) Sweep(ctx context.Context, opts reconcile.Options) (*reconcile.Report, error) {
	args := m.Called(ctx, opts)
	report, _ := args.Get(0).(*reconcile.Report)
	return report, args.Error(1)
}

func (m *mockSweeper) LastReport() (*reconcile.Report, bool) {
	args := m.Called()
	report, _ := args.Get(0).(*reconcile.Report)
	return report, args.Bool(1)
}

func setupTestApp(t *testing.T) (*fiber.App, *mockSweeper) {
	t.Helper()
	app := fiber.New()
	sweeper := new(mockSweeper)
	feature := NewFeature(sweeper, zap.NewNop())
	require.NoError(t, feature.Load(app))
	return app, sweeper
}

func TestHandleRun(t *testing.T) {
	app, sweeper := setupTestApp(t)
	report := &reconcile.Report{
		StartedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Orphans:   &reconcile.OrphanReport{Deleted: 2, Total: 2, Indices: 1},
		Stuck:     &reconcile.StuckReport{Marked: 1, Total: 1},
	}
	sweeper.On("Sweep", mock.Anything, reconcile.Options{}).Return(report, nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/cleanup/run", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body reconcile.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Orphans.Deleted)
	assert.Equal(t, 1, body.Stuck.Marked)
	sweeper.AssertExpectations(t)
}

func TestHandleRun_Options(t *testing.T) {
	app, sweeper := setupTestApp(t)
	sweeper.On("Sweep", mock.Anything, reconcile.Options{DryRun: true, SkipStuck: true}).
		Return(&reconcile.Report{Orphans: &reconcile.OrphanReport{Total: 3, DryRun: true}}, nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/cleanup/run?dry_run=true&orphans_only=true", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	sweeper.AssertExpectations(t)
}

func TestHandleRun_ConflictingScope(t *testing.T) {
	app, sweeper := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/cleanup/run?orphans_only=true&stuck_only=true", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	sweeper.AssertNotCalled(t, "Sweep", mock.Anything, mock.Anything)
}

func TestHandleRun_Fatal(t *testing.T) {
	app, sweeper := setupTestApp(t)
	sweeper.On("Sweep", mock.Anything, reconcile.Options{}).
		Return(&reconcile.Report{Errors: map[string]string{"orphans": "directory closed"}}, errors.New("directory closed"))

	resp, err := app.Test(httptest.NewRequest("POST", "/cleanup/run", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "directory closed", body["error"])
	assert.NotNil(t, body["report"])
}

func TestHandleLast(t *testing.T) {
	app, sweeper := setupTestApp(t)
	sweeper.On("LastReport").Return(nil, false).Once()
	sweeper.On("LastReport").Return(&reconcile.Report{Stuck: &reconcile.StuckReport{Total: 4}}, true).Once()

	resp, err := app.Test(httptest.NewRequest("GET", "/cleanup/last", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/cleanup/last", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body reconcile.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 4, body.Stuck.Total)
}

func TestLoader(t *testing.T) {
	feature := NewFeature(new(mockSweeper), zap.NewNop())
	assert.Equal(t, "cleanup", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NoError(t, feature.Load(fiber.New()))
}
