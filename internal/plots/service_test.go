package plots_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/apperr"
	"github.com/landrecords/demarcation-backend/internal/plots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestCreatePlot_DuplicateDetection covers first, second and third submissions
// of the same khasra in the same village.
func TestCreatePlot_DuplicateDetection(t *testing.T) {
	w := newWorld(t)

	first := w.submit(t, w.citizen, "MAH-2024-777", w.narnaul)
	assert.Equal(t, plots.StatusPending, first.CurrentStatus)
	assert.False(t, first.IsDuplicate)
	assert.Nil(t, first.DuplicateOfID)

	second := w.submit(t, w.otherCitizen, "MAH-2024-777", w.narnaul)
	assert.True(t, second.IsDuplicate)
	require.NotNil(t, second.DuplicateOfID)
	assert.Equal(t, first.ID, *second.DuplicateOfID)

	third := w.submit(t, w.citizen, "MAH-2024-777", w.narnaul)
	assert.True(t, third.IsDuplicate)
	require.NotNil(t, third.DuplicateOfID)
	assert.Equal(t, first.ID, *third.DuplicateOfID, "third insert must point at the original")

	var reloaded plots.Plot
	require.NoError(t, w.db.First(&reloaded, "id = ?", first.ID).Error)
	assert.False(t, reloaded.IsDuplicate, "the original is never flagged")

	otherVillage := w.submit(t, w.citizen, "MAH-2024-777", w.ateli)
	assert.False(t, otherVillage.IsDuplicate, "same khasra in a different village is not a duplicate")
}

func TestCreatePlot_Validation(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.svc.CreatePlot(ctx, w.citizen, plots.CreatePlotInput{VillageID: w.narnaul.ID})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)

	_, err = w.svc.CreatePlot(ctx, w.citizen, plots.CreatePlotInput{
		KhasraNumber: "K-1", VillageID: "missing", Area: 1, RequestType: "new_demarcation",
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "unknown village: %v", err)

	other := w.otherCitizen.UserID
	_, err = w.svc.CreatePlot(ctx, w.citizen, plots.CreatePlotInput{
		KhasraNumber: "K-1", VillageID: w.narnaul.ID, Area: 1, RequestType: "new_demarcation", OwnerID: &other,
	})
	assert.True(t, apperr.Is(err, apperr.KindAuthorization), "citizen filing for someone else: %v", err)

	_, err = w.svc.CreatePlot(ctx, w.officerA, plots.CreatePlotInput{
		KhasraNumber: "K-2", VillageID: w.ateli.ID, Area: 1, RequestType: "new_demarcation", OwnerName: "Hari",
	})
	assert.True(t, apperr.Is(err, apperr.KindAuthorization), "officer outside circle: %v", err)
}

// TestCreatePlot_CitizenOwnsPlot checks the owner is forced to the caller and
// the submission log is written.
func TestCreatePlot_CitizenOwnsPlot(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	plot, err := w.svc.CreatePlot(ctx, w.citizen, plots.CreatePlotInput{
		KhasraNumber: "K-9", VillageID: w.narnaul.ID, Area: 1.25, RequestType: "new_demarcation",
	})
	require.NoError(t, err)
	require.NotNil(t, plot.OwnerID)
	assert.Equal(t, w.citizen.UserID, *plot.OwnerID)
	assert.Equal(t, "citizen", plot.OwnerName)
	assert.Equal(t, w.circleA.ID, plot.CircleID)
	assert.Equal(t, "acres", plot.AreaUnit)
	assert.Regexp(t, `^PLT-\d{4}-[0-9A-F]{6}$`, plot.PlotNumber)

	logs, err := w.svc.ListLogs(ctx, w.citizen, plot.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Demarcation request submitted", logs[0].Description)
	assert.Nil(t, logs[0].OfficerID)
}

// TestCreatePlot_RollsBackWhenLogFails verifies plot and log are written together.
func TestCreatePlot_RollsBackWhenLogFails(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.db.Callback().Create().Before("gorm:create").Register("test:fail_logs", func(tx *gorm.DB) {
		if tx.Statement.Table == "demarcation_logs" {
			tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := w.svc.CreatePlot(context.Background(), w.citizen, plots.CreatePlotInput{
		KhasraNumber: "K-ROLLBACK", VillageID: w.narnaul.ID, Area: 1, RequestType: "new_demarcation",
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, w.db.Model(&plots.Plot{}).Where("khasra_number = ?", "K-ROLLBACK").Count(&count).Error)
	assert.Zero(t, count)
}

// TestGetPlot_CitizenOwnership: a citizen sees a plot iff they own it.
func TestGetPlot_CitizenOwnership(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	plot := w.submit(t, w.citizen, "K-1", w.narnaul)

	_, err := w.svc.GetPlot(ctx, w.citizen, plot.ID)
	assert.NoError(t, err)

	_, err = w.svc.GetPlot(ctx, w.otherCitizen, plot.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, missingErr := w.svc.GetPlot(ctx, w.otherCitizen, "does-not-exist")
	assert.Equal(t, err.Error(), missingErr.Error(), "no access and missing must look the same")

	_, err = w.svc.GetPlot(ctx, w.officerA, plot.ID)
	assert.NoError(t, err)
	_, err = w.svc.GetPlot(ctx, w.officerB, plot.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = w.svc.GetPlot(ctx, w.supervisor, plot.ID)
	assert.NoError(t, err)
}

// TestListPlots_OfficerPinnedToCircle: officers cannot escape their circle
// through the circle_id filter.
func TestListPlots_OfficerPinnedToCircle(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.submit(t, w.citizen, "A-1", w.narnaul)
	w.submit(t, w.citizen, "A-2", w.narnaul)
	w.submit(t, w.citizen, "B-1", w.ateli)

	f, err := plots.FilterFromQuery(url.Values{"circle_id": {w.circleB.ID}})
	require.NoError(t, err)
	got, err := w.svc.ListPlots(ctx, w.officerA, f)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, w.circleA.ID, p.CircleID)
	}

	none, err := w.svc.ListPlots(ctx, w.officerNoCircle, plots.Filter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := w.svc.ListPlots(ctx, w.admin, plots.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyB, err := w.svc.ListPlots(ctx, w.supervisor, f)
	require.NoError(t, err)
	require.Len(t, onlyB, 1)
	assert.Equal(t, "B-1", onlyB[0].KhasraNumber)
}

func TestListPlots_FiltersAndOrdering(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	first := w.submit(t, w.citizen, "MAH-2024-777", w.narnaul)
	w.submit(t, w.citizen, "HR-55", w.narnaul)
	w.submit(t, w.otherCitizen, "mah-2024-777", w.ateli)

	mine, err := w.svc.ListPlots(ctx, w.citizen, plots.Filter{CircleID: w.circleB.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2, "citizens ignore the circle filter and only see their own plots")

	found, err := w.svc.ListPlots(ctx, w.admin, plots.Filter{Search: "Mah-2024"})
	require.NoError(t, err)
	assert.Len(t, found, 2, "search is case-insensitive")

	_, err = w.svc.UpdateStatus(ctx, w.supervisor, first.ID, "in_progress", "")
	require.NoError(t, err)
	ordered, err := w.svc.ListPlots(ctx, w.admin, plots.Filter{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, ordered[0].ID, "most recently updated first")

	inProgress, err := w.svc.ListPlots(ctx, w.admin, plots.Filter{Status: plots.StatusInProgress})
	require.NoError(t, err)
	assert.Len(t, inProgress, 1)

	_, err = plots.FilterFromQuery(url.Values{"status": {"archived"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

// TestUpdateStatus_SupervisorCompletesFromOnHold follows a plot to completion
// and checks that completed is terminal.
func TestUpdateStatus_SupervisorCompletesFromOnHold(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	plot := w.submit(t, w.citizen, "K-77", w.narnaul)

	plot, err := w.svc.AssignOfficer(ctx, w.supervisor, plot.ID, w.officerA.UserID, "")
	require.NoError(t, err)
	assert.Equal(t, plots.StatusInProgress, plot.CurrentStatus)

	_, err = w.svc.UpdateStatus(ctx, w.officerA, plot.ID, "on_hold", "Owner travelling")
	require.NoError(t, err)

	done, err := w.svc.UpdateStatus(ctx, w.supervisor, plot.ID, "completed", "")
	require.NoError(t, err)
	assert.Equal(t, plots.StatusCompleted, done.CurrentStatus)
	assert.NotNil(t, done.CompletedAt)

	_, err = w.svc.UpdateStatus(ctx, w.supervisor, plot.ID, "in_progress", "")
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)

	logs, err := w.svc.ListLogs(ctx, w.admin, plot.ID)
	require.NoError(t, err)
	require.Len(t, logs, 4)
	assert.Equal(t, "Status updated to completed", logs[0].Description)
	require.NotNil(t, logs[0].Status)
	assert.Equal(t, plots.StatusCompleted, *logs[0].Status)
}

func TestUpdateStatus_Authorization(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	plot := w.submit(t, w.citizen, "K-5", w.narnaul)

	_, err := w.svc.UpdateStatus(ctx, w.officerA, plot.ID, "in_progress", "")
	assert.True(t, apperr.Is(err, apperr.KindAuthorization), "unassigned officer: %v", err)

	_, err = w.svc.UpdateStatus(ctx, w.officerB, plot.ID, "in_progress", "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "officer outside circle: %v", err)

	_, err = w.svc.UpdateStatus(ctx, w.citizen, plot.ID, "in_progress", "")
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	_, err = w.svc.UpdateStatus(ctx, w.supervisor, plot.ID, "archived", "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = w.svc.UpdateStatus(ctx, w.supervisor, plot.ID, "completed", "")
	assert.True(t, apperr.Is(err, apperr.KindConflict), "pending cannot jump to completed")
}

func TestAssignOfficer(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	plot := w.submit(t, w.citizen, "K-8", w.narnaul)

	_, err := w.svc.AssignOfficer(ctx, w.officerA, plot.ID, w.officerA.UserID, "")
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	_, err = w.svc.AssignOfficer(ctx, w.supervisor, plot.ID, w.citizen.UserID, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation), "target must be an officer")

	_, err = w.svc.AssignOfficer(ctx, w.supervisor, plot.ID, w.officerB.UserID, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation), "officer from another circle")

	assigned, err := w.svc.AssignOfficer(ctx, w.supervisor, plot.ID, w.officerA.UserID, "urgent")
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedOfficerID)
	assert.Equal(t, w.officerA.UserID, *assigned.AssignedOfficerID)

	mine, err := w.svc.ListAssigned(ctx, w.officerA, plots.Filter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, plot.ID, mine[0].ID)

	var active int64
	require.NoError(t, w.db.Model(&plots.PlotAssignment{}).Where("plot_id = ? AND is_active = ?", plot.ID, true).Count(&active).Error)
	assert.Equal(t, int64(1), active)

	// Reassigning keeps a single active assignment and leaves status alone.
	again, err := w.svc.AssignOfficer(ctx, w.admin, plot.ID, w.officerA.UserID, "")
	require.NoError(t, err)
	assert.Equal(t, plots.StatusInProgress, again.CurrentStatus)
	require.NoError(t, w.db.Model(&plots.PlotAssignment{}).Where("plot_id = ? AND is_active = ?", plot.ID, true).Count(&active).Error)
	assert.Equal(t, int64(1), active)
}

func TestAppendLogAndRetract(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	plot := w.submit(t, w.citizen, "K-11", w.narnaul)
	_, err := w.svc.AssignOfficer(ctx, w.supervisor, plot.ID, w.officerA.UserID, "")
	require.NoError(t, err)

	_, err = w.svc.AppendLog(ctx, w.citizen, plot.ID, plots.LogInput{ActivityType: "initial_survey", Description: "x"})
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	start := mustParse(t, "2026-03-01T09:00:00Z")
	end := mustParse(t, "2026-03-01T11:20:00Z")
	_, err = w.svc.AppendLog(ctx, w.officerA, plot.ID, plots.LogInput{
		ActivityType: "boundary_marking", Description: "x", StartTime: &end, EndTime: &start,
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "end before start")

	survey, err := w.svc.AppendLog(ctx, w.officerA, plot.ID, plots.LogInput{
		ActivityType: "initial_survey", Description: "Survey with patwari", StartTime: &start, EndTime: &end,
	})
	require.NoError(t, err)

	disputed, err := w.svc.AppendLog(ctx, w.officerA, plot.ID, plots.LogInput{
		ActivityType: "dispute_resolution", Description: "Neighbour objects", Status: "disputed",
	})
	require.NoError(t, err)

	reloaded, err := w.svc.GetPlot(ctx, w.admin, plot.ID)
	require.NoError(t, err)
	assert.Equal(t, plots.StatusDisputed, reloaded.CurrentStatus)

	_, err = w.svc.AppendLog(ctx, w.officerA, plot.ID, plots.LogInput{
		ActivityType: "final_verification", Description: "done", Status: "completed",
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "disputed must return to in_progress first")

	assert.True(t, apperr.Is(w.svc.RetractLog(ctx, w.supervisor, disputed.ID), apperr.KindAuthorization))
	require.NoError(t, w.svc.RetractLog(ctx, w.admin, disputed.ID))
	assert.True(t, apperr.Is(w.svc.RetractLog(ctx, w.admin, disputed.ID), apperr.KindNotFound))

	reloaded, err = w.svc.GetPlot(ctx, w.admin, plot.ID)
	require.NoError(t, err)
	assert.Equal(t, plots.StatusInProgress, reloaded.CurrentStatus, "status falls back to the newest remaining log")

	logs, err := w.svc.ListLogs(ctx, w.citizen, plot.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, survey.ID, logs[0].ID)
	require.NotNil(t, logs[0].DurationHours)
	assert.Equal(t, 2.3, *logs[0].DurationHours)

	_, err = w.svc.ListLogs(ctx, w.otherCitizen, plot.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestStatsAndMap(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	lat, lng := 28.04, 76.11
	located, err := w.svc.CreatePlot(ctx, w.citizen, plots.CreatePlotInput{
		KhasraNumber: "GEO-1", VillageID: w.narnaul.ID, Area: 3, RequestType: "new_demarcation",
		Latitude: &lat, Longitude: &lng,
	})
	require.NoError(t, err)
	other := w.submit(t, w.citizen, "GEO-2", w.narnaul)
	w.submit(t, w.otherCitizen, "GEO-3", w.ateli)

	_, err = w.svc.AssignOfficer(ctx, w.supervisor, other.ID, w.officerA.UserID, "")
	require.NoError(t, err)
	_, err = w.svc.UpdateStatus(ctx, w.officerA, other.ID, "completed", "")
	require.NoError(t, err)

	stats, err := w.svc.CitizenStats(ctx, w.citizen)
	require.NoError(t, err)
	assert.Equal(t, plots.CitizenStats{Pending: 1, Completed: 1, Total: 2}, stats)

	dash, err := w.svc.OfficerDashboard(ctx, w.officerA)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dash.AssignedPlots)
	assert.Equal(t, int64(0), dash.PendingCases)
	assert.Equal(t, int64(1), dash.CompletedToday)
	assert.Equal(t, "100%", dash.ResolutionRate)

	points, err := w.svc.MapLocations(ctx, w.citizen, plots.Filter{})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, located.ID, points[0].ID)
	assert.Equal(t, lat, points[0].Lat)

	none, err := w.svc.MapLocations(ctx, access.Principal{UserID: "x", Role: access.RoleOfficer}, plots.Filter{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
