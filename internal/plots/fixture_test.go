package plots_test

import (
	"context"
	"testing"
	"time"

	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/auth"
	"github.com/landrecords/demarcation-backend/internal/db/dbtest"
	"github.com/landrecords/demarcation-backend/internal/geo"
	"github.com/landrecords/demarcation-backend/internal/plots"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// world is a small district with two circles and one account per role.
type world struct {
	db  *gorm.DB
	svc *plots.Service

	narnaul, ateli geo.Village
	circleA, circleB      geo.Circle

	citizen, otherCitizen   access.Principal
	officerA, officerB      access.Principal
	officerNoCircle         access.Principal
	supervisor, admin       access.Principal
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	d := dbtest.Open(t)
	require.NoError(t, geo.Migrate(d))
	require.NoError(t, auth.Migrate(d))
	require.NoError(t, plots.Migrate(d))

	geoSvc := geo.NewService(d)
	authSvc := auth.NewService(d, geoSvc, 0)

	district, err := geoSvc.CreateDistrict(ctx, geo.District{Name: "Mahendragarh", Code: "MHG"})
	require.NoError(t, err)
	w := &world{db: d, svc: plots.NewService(d, geoSvc, authSvc)}
	w.circleA, err = geoSvc.CreateCircle(ctx, geo.Circle{Name: "Narnaul Circle", Code: "NRN", DistrictID: district.ID})
	require.NoError(t, err)
	w.circleB, err = geoSvc.CreateCircle(ctx, geo.Circle{Name: "Ateli Circle", Code: "ATL", DistrictID: district.ID})
	require.NoError(t, err)
	w.narnaul, err = geoSvc.CreateVillage(ctx, geo.Village{Name: "Narnaul", Code: "NRN-01", CircleID: w.circleA.ID})
	require.NoError(t, err)
	w.ateli, err = geoSvc.CreateVillage(ctx, geo.Village{Name: "Ateli Mandi", Code: "ATL-01", CircleID: w.circleB.ID})
	require.NoError(t, err)

	mk := func(username string, role access.Role, circleID *string) access.Principal {
		u := auth.User{
			Username:       username,
			FullName:       username,
			Role:           role,
			CircleID:       circleID,
			IsActive:       true,
			HashedPassword: "x",
		}
		require.NoError(t, d.Create(&u).Error)
		return access.Principal{UserID: u.UserID, Role: role, CircleID: circleID}
	}
	w.citizen = mk("citizen", access.RoleCitizen, nil)
	w.otherCitizen = mk("other-citizen", access.RoleCitizen, nil)
	w.officerA = mk("officer-a", access.RoleOfficer, &w.circleA.ID)
	w.officerB = mk("officer-b", access.RoleOfficer, &w.circleB.ID)
	w.officerNoCircle = mk("officer-none", access.RoleOfficer, nil)
	w.supervisor = mk("adc", access.RoleSupervisor, nil)
	w.admin = mk("admin", access.RoleAdministrator, nil)
	return w
}

func (w *world) submit(t *testing.T, p access.Principal, khasra string, village geo.Village) plots.Plot {
	t.Helper()
	plot, err := w.svc.CreatePlot(context.Background(), p, plots.CreatePlotInput{
		KhasraNumber: khasra,
		VillageID:    village.ID,
		Area:         2.5,
		RequestType:  "new_demarcation",
		OwnerName:    "Owner of " + khasra,
	})
	require.NoError(t, err)
	return plot
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v
}
