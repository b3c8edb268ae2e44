package accounts

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/staffing/pkg/apperrors"
	"github.com/platinummonkey/staffing/pkg/audit"
	"github.com/platinummonkey/staffing/pkg/auth"
	"github.com/platinummonkey/staffing/pkg/observability"
	"github.com/platinummonkey/staffing/pkg/query"
)

// fakeStore records calls and serves canned results
type fakeStore struct {
	created   []NewAccount
	createErr error

	creds   *Credentials
	findErr error

	tokens map[int64]string

	updateRows int64
	updateSet  *query.Set
	updateRole []auth.Role
	updates    int

	deleteRows int64
	deleted    []int64

	listed  auth.ListScope
	results []Account
}

func newFakeStore() *fakeStore {
	return &fakeStore{tokens: map[int64]string{}}
}

func (f *fakeStore) Create(ctx context.Context, caller int64, account NewAccount) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, account)
	return nil
}

func (f *fakeStore) FindByEmail(ctx context.Context, email string) (*Credentials, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.creds == nil || f.creds.Email != email {
		return nil, ErrAccountNotFound
	}
	return f.creds, nil
}

func (f *fakeStore) SetToken(ctx context.Context, id int64, token string) error {
	f.tokens[id] = token
	return nil
}

func (f *fakeStore) Update(ctx context.Context, caller int64, accepted []auth.Role, id int64, set *query.Set) (int64, error) {
	f.updates++
	f.updateSet = set
	f.updateRole = accepted
	if set.Len() == 0 {
		return 0, query.ErrNoChanges
	}
	return f.updateRows, nil
}

func (f *fakeStore) Delete(ctx context.Context, caller int64, accepted []auth.Role, ids []int64) (int64, error) {
	f.deleted = ids
	return f.deleteRows, nil
}

func (f *fakeStore) List(ctx context.Context, scope auth.ListScope, caller int64) ([]Account, error) {
	f.listed = scope
	return f.results, nil
}

func newService(t *testing.T, store Store) (*Service, *observability.Metrics) {
	t.Helper()
	issuer, err := auth.NewSessionIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return NewService(store, issuer, metrics), metrics
}

func strPtr(s string) *string { return &s }

var (
	superAdmin = auth.Identity{AccountID: 1, Role: auth.RoleSuperAdmin}
	admin      = auth.Identity{AccountID: 2, Role: auth.RoleAdmin}
	superUser  = auth.Identity{AccountID: 3, Role: auth.RoleSuperUser}
	plainUser  = auth.Identity{AccountID: 4, Role: auth.RoleUser}
)

func TestService_SignUp(t *testing.T) {
	valid := SignUpRequest{Nom: "Nadia", Email: "nadia@example.com", Role: "user", Type: "permanent"}

	t.Run("admin creates a user in own tenant", func(t *testing.T) {
		store := newFakeStore()
		svc, _ := newService(t, store)

		require.NoError(t, svc.SignUp(context.Background(), admin, valid))
		require.Len(t, store.created, 1)
		assert.Nil(t, store.created[0].EntrepriseID)
		assert.NoError(t, auth.VerifyPassword(store.created[0].PasswordHash, "Nadia"), "password defaults to nom")
	})

	t.Run("super admin must name the tenant", func(t *testing.T) {
		store := newFakeStore()
		svc, _ := newService(t, store)

		err := svc.SignUp(context.Background(), superAdmin, valid)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		assert.Empty(t, store.created)

		req := valid
		tenant := int64(12)
		req.EntrepriseID = &tenant
		require.NoError(t, svc.SignUp(context.Background(), superAdmin, req))
		assert.Equal(t, int64(12), *store.created[0].EntrepriseID)
	})

	t.Run("roles outside the table are denied", func(t *testing.T) {
		cases := []struct {
			caller auth.Identity
			role   string
		}{
			{admin, "admin"},
			{superUser, "super_user"},
			{plainUser, "user"},
			{superAdmin, "super_admin"},
		}
		for _, tc := range cases {
			store := newFakeStore()
			svc, _ := newService(t, store)
			req := valid
			req.Role = tc.role
			tenant := int64(1)
			req.EntrepriseID = &tenant

			err := svc.SignUp(context.Background(), tc.caller, req)
			assert.True(t, apperrors.Is(err, apperrors.KindAuthorization), "%s creating %s", tc.caller.Role, tc.role)
			assert.Empty(t, store.created)
		}
	})

	t.Run("temporary account needs both dates", func(t *testing.T) {
		store := newFakeStore()
		svc, _ := newService(t, store)
		req := valid
		req.Type = "temporaire"
		req.ActivationDate = "2026-01-01"

		err := svc.SignUp(context.Background(), admin, req)
		require.Error(t, err)
		assert.Equal(t, "missing data", err.Error())

		req.DeactivationDate = "2026-02-01"
		require.NoError(t, svc.SignUp(context.Background(), admin, req))
		require.NotNil(t, store.created[0].DeactivationDate)
	})

	t.Run("invalid fields", func(t *testing.T) {
		svc, _ := newService(t, newFakeStore())
		err := svc.SignUp(context.Background(), admin, SignUpRequest{Email: "nope", Role: "boss", Type: "forever"})

		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.KindValidation, appErr.Kind)
		fields := map[string]bool{}
		for _, f := range appErr.Fields {
			fields[f.Field] = true
		}
		assert.True(t, fields["nom"])
		assert.True(t, fields["email"])
		assert.True(t, fields["role"])
		assert.True(t, fields["type"])
	})

	t.Run("duplicate email", func(t *testing.T) {
		store := newFakeStore()
		store.createErr = apperrors.Conflict("an account with this email already exists")
		svc, _ := newService(t, store)

		err := svc.SignUp(context.Background(), admin, valid)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})
}

func credentialsFor(t *testing.T, password string) *Credentials {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &Credentials{
		Account:      Account{ID: 9, Nom: "Ann", Email: "ann@example.com", Role: auth.RoleAdmin, Type: auth.AccountPermanent},
		PasswordHash: hash,
	}
}

func TestService_LogIn(t *testing.T) {
	t.Run("success issues a verifiable token", func(t *testing.T) {
		store := newFakeStore()
		store.creds = credentialsFor(t, "s3cret")
		svc, metrics := newService(t, store)

		var buf bytes.Buffer
		ctx := audit.WithLogger(context.Background(), audit.NewLogrusLogger(&buf))

		session, err := svc.LogIn(ctx, LogInRequest{Email: "ann@example.com", Password: "s3cret"}, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, store.tokens[9], session.Token)

		id, err := auth.Verify(session.Token, []byte("test-secret"))
		require.NoError(t, err)
		assert.Equal(t, auth.Identity{AccountID: 9, Role: auth.RoleAdmin}, id)
		assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoginAttemptsTotal.WithLabelValues("success")))
		assert.Contains(t, buf.String(), `"event_type":"auth.login"`)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, metrics := newService(t, newFakeStore())

		_, err := svc.LogIn(context.Background(), LogInRequest{Email: "x@example.com", Password: "pw"}, "")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindAuthentication))
		assert.Equal(t, "account email does not exist", err.Error())
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoginAttemptsTotal.WithLabelValues("unknown_email")))
	})

	t.Run("wrong password", func(t *testing.T) {
		store := newFakeStore()
		store.creds = credentialsFor(t, "s3cret")
		svc, _ := newService(t, store)

		_, err := svc.LogIn(context.Background(), LogInRequest{Email: "ann@example.com", Password: "guess"}, "")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindAuthentication))
		assert.Equal(t, "wrong password", err.Error())
		assert.Empty(t, store.tokens)
	})

	t.Run("temporary account outside its window", func(t *testing.T) {
		store := newFakeStore()
		store.creds = credentialsFor(t, "s3cret")
		store.creds.Type = auth.AccountTemporary
		end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		store.creds.DeactivationDate = &end
		svc, _ := newService(t, store)

		_, err := svc.LogIn(context.Background(), LogInRequest{Email: "ann@example.com", Password: "s3cret"}, "")
		require.Error(t, err)
		assert.Equal(t, "account is not active", err.Error())
	})

	t.Run("malformed request", func(t *testing.T) {
		svc, _ := newService(t, newFakeStore())
		_, err := svc.LogIn(context.Background(), LogInRequest{Email: "bad"}, "")
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	})
}

func TestService_LogOut(t *testing.T) {
	store := newFakeStore()
	store.tokens[2] = "old"
	svc, _ := newService(t, store)

	require.NoError(t, svc.LogOut(context.Background(), admin))
	assert.Equal(t, "", store.tokens[2])
}

func TestService_Update(t *testing.T) {
	t.Run("passes the accepted roles and a hashed password", func(t *testing.T) {
		store := newFakeStore()
		store.updateRows = 1
		svc, _ := newService(t, store)

		updated, err := svc.Update(context.Background(), superUser, UpdateRequest{ID: 7, Password: strPtr("newpass"), Nom: strPtr("")})
		require.NoError(t, err)
		assert.True(t, updated)
		assert.Equal(t, []auth.Role{auth.RoleUser}, store.updateRole)
		assert.Equal(t, []string{"password"}, store.updateSet.Columns())
		hash := store.updateSet.Args()[0].(string)
		assert.NoError(t, auth.VerifyPassword(hash, "newpass"))
	})

	t.Run("zero rows is not an error", func(t *testing.T) {
		store := newFakeStore()
		svc, _ := newService(t, store)

		updated, err := svc.Update(context.Background(), admin, UpdateRequest{ID: 7, Nom: strPtr("Zed")})
		require.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("empty patch never reaches the store", func(t *testing.T) {
		store := newFakeStore()
		svc, _ := newService(t, store)

		_, err := svc.Update(context.Background(), admin, UpdateRequest{ID: 7, Nom: strPtr(""), Email: strPtr("")})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		assert.Zero(t, store.updates)
	})

	t.Run("plain users have no privilege", func(t *testing.T) {
		store := newFakeStore()
		svc, _ := newService(t, store)

		_, err := svc.Update(context.Background(), plainUser, UpdateRequest{ID: 4, Nom: strPtr("Me")})
		assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))
		assert.Zero(t, store.updates)
	})

	t.Run("role cannot be raised beyond the table", func(t *testing.T) {
		store := newFakeStore()
		svc, _ := newService(t, store)

		_, err := svc.Update(context.Background(), admin, UpdateRequest{ID: 7, Role: strPtr("admin")})
		assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))
		assert.Zero(t, store.updates)
	})

	t.Run("self update may repeat the current role", func(t *testing.T) {
		store := newFakeStore()
		store.updateRows = 1
		svc, _ := newService(t, store)

		updated, err := svc.Update(context.Background(), admin, UpdateRequest{ID: admin.AccountID, Nom: strPtr("Renamed"), Role: strPtr("admin")})
		require.NoError(t, err)
		assert.True(t, updated)
		assert.Equal(t, 1, store.updates)
		assert.Equal(t, []string{"nom", "role"}, store.updateSet.Columns())
	})

	t.Run("self update cannot escalate", func(t *testing.T) {
		store := newFakeStore()
		svc, _ := newService(t, store)

		_, err := svc.Update(context.Background(), admin, UpdateRequest{ID: admin.AccountID, Role: strPtr("super_admin")})
		assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))
		assert.Zero(t, store.updates)
	})

	t.Run("repeating own role on another account is still checked", func(t *testing.T) {
		store := newFakeStore()
		svc, _ := newService(t, store)

		_, err := svc.Update(context.Background(), superUser, UpdateRequest{ID: 9, Role: strPtr("super_user")})
		assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))
		assert.Zero(t, store.updates)
	})

	t.Run("temporary type requires dates", func(t *testing.T) {
		svc, _ := newService(t, newFakeStore())
		_, err := svc.Update(context.Background(), admin, UpdateRequest{ID: 7, Type: strPtr("temporaire")})
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("no rows is not found", func(t *testing.T) {
		svc, _ := newService(t, newFakeStore())
		_, err := svc.Delete(context.Background(), admin, DeleteRequest{IDs: []int64{8}})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
		assert.Equal(t, "no accounts where deleted", err.Error())
	})

	t.Run("deletes", func(t *testing.T) {
		store := newFakeStore()
		store.deleteRows = 2
		svc, _ := newService(t, store)

		var buf bytes.Buffer
		ctx := audit.WithLogger(context.Background(), audit.NewLogrusLogger(&buf))

		n, err := svc.Delete(ctx, admin, DeleteRequest{IDs: []int64{8, 9}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.Equal(t, []int64{8, 9}, store.deleted)
		assert.True(t, strings.Contains(buf.String(), `"event_type":"account.delete"`))
	})

	t.Run("empty id list", func(t *testing.T) {
		svc, _ := newService(t, newFakeStore())
		_, err := svc.Delete(context.Background(), admin, DeleteRequest{})
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	})

	t.Run("plain user", func(t *testing.T) {
		svc, _ := newService(t, newFakeStore())
		_, err := svc.Delete(context.Background(), plainUser, DeleteRequest{IDs: []int64{1}})
		assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))
	})
}

func TestService_List(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(t, store)

	_, err := svc.List(context.Background(), superAdmin)
	require.NoError(t, err)
	assert.Equal(t, auth.ListAll, store.listed)

	_, err = svc.List(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, auth.ListTenant, store.listed)

	_, err = svc.List(context.Background(), superUser)
	assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))
}

func TestCredentials_ActiveAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	c := Credentials{Account: Account{Type: auth.AccountTemporary, ActivationDate: &start, DeactivationDate: &end}}

	assert.False(t, c.ActiveAt(start.Add(-time.Hour)))
	assert.True(t, c.ActiveAt(start.Add(time.Hour)))
	assert.False(t, c.ActiveAt(end.Add(time.Hour)))

	c.Type = auth.AccountPermanent
	assert.True(t, c.ActiveAt(end.Add(time.Hour)))
}
