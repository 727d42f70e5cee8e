package reports_test

import (
	"context"
	"testing"

	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/auth"
	"github.com/landrecords/demarcation-backend/internal/db/dbtest"
	"github.com/landrecords/demarcation-backend/internal/geo"
	"github.com/landrecords/demarcation-backend/internal/plots"
	"github.com/landrecords/demarcation-backend/internal/reports"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// district has two circles with one village each. Plot K-1 is submitted
// twice in Narnaul, so one copy is a duplicate, and K-2 sits in Ateli.
// officerA completes the first K-1; officerB has no work.
type district struct {
	db      *gorm.DB
	plots   *plots.Service
	reports *reports.Service

	circleA        geo.Circle
	narnaul, ateli geo.Village
	citizen, other access.Principal
	officerA       access.Principal
	officerB       access.Principal
	supervisor     access.Principal
	completed      plots.Plot
}

func newDistrict(t *testing.T) *district {
	t.Helper()
	ctx := context.Background()
	d := dbtest.Open(t)
	require.NoError(t, geo.Migrate(d))
	require.NoError(t, auth.Migrate(d))
	require.NoError(t, plots.Migrate(d))

	geoSvc := geo.NewService(d)
	authSvc := auth.NewService(d, geoSvc, 0)
	w := &district{db: d, plots: plots.NewService(d, geoSvc, authSvc), reports: reports.NewService(d)}

	dist, err := geoSvc.CreateDistrict(ctx, geo.District{Name: "Mahendragarh", Code: "MHG"})
	require.NoError(t, err)
	w.circleA, err = geoSvc.CreateCircle(ctx, geo.Circle{Name: "Narnaul Circle", Code: "NRN", DistrictID: dist.ID})
	require.NoError(t, err)
	circleB, err := geoSvc.CreateCircle(ctx, geo.Circle{Name: "Ateli Circle", Code: "ATL", DistrictID: dist.ID})
	require.NoError(t, err)
	w.narnaul, err = geoSvc.CreateVillage(ctx, geo.Village{Name: "Narnaul", Code: "NRN-01", CircleID: w.circleA.ID})
	require.NoError(t, err)
	w.ateli, err = geoSvc.CreateVillage(ctx, geo.Village{Name: "Ateli Mandi", Code: "ATL-01", CircleID: circleB.ID})
	require.NoError(t, err)

	mk := func(username, fullName string, role access.Role, circleID *string) access.Principal {
		u := auth.User{Username: username, FullName: fullName, Role: role, CircleID: circleID, IsActive: true, HashedPassword: "x"}
		require.NoError(t, d.Create(&u).Error)
		return access.Principal{UserID: u.UserID, Role: role, CircleID: circleID}
	}
	w.citizen = mk("citizen", "Ram Kumar", access.RoleCitizen, nil)
	w.other = mk("other", "Sita Devi", access.RoleCitizen, nil)
	w.officerA = mk("officer-a", "Anil Yadav", access.RoleOfficer, &w.circleA.ID)
	w.officerB = mk("officer-b", "Bharat Singh", access.RoleOfficer, &circleB.ID)
	w.supervisor = mk("adc", "ADC Mahendragarh", access.RoleSupervisor, nil)

	w.completed = w.submit(t, w.citizen, "K-1", w.narnaul)
	w.submit(t, w.other, "K-1", w.narnaul)
	w.submit(t, w.citizen, "K-2", w.ateli)

	_, err = w.plots.AssignOfficer(ctx, w.supervisor, w.completed.ID, w.officerA.UserID, "")
	require.NoError(t, err)
	w.completed, err = w.plots.UpdateStatus(ctx, w.officerA, w.completed.ID, "completed", "Boundary stones placed")
	require.NoError(t, err)
	return w
}

func (w *district) submit(t *testing.T, p access.Principal, khasra string, v geo.Village) plots.Plot {
	t.Helper()
	plot, err := w.plots.CreatePlot(context.Background(), p, plots.CreatePlotInput{
		KhasraNumber: khasra,
		VillageID:    v.ID,
		Area:         1.5,
		RequestType:  "new_demarcation",
		OwnerName:    "Owner of " + khasra,
	})
	require.NoError(t, err)
	return plot
}
