package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/grymm/barber-auth/internal/domain/entity"
	repo "github.com/grymm/barber-auth/internal/domain/repository"
	"github.com/grymm/barber-auth/pkg/helpers"
)

// --- fakes ---

type fakeOTPRepo struct {
	records  []*entity.OTP
	issueErr error
}

func (f *fakeOTPRepo) Issue(_ context.Context, email, code string) (*entity.OTP, error) {
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	o := &entity.OTP{
		ID:        fmt.Sprintf("otp-%d", len(f.records)+1),
		Email:     email,
		Code:      code,
		CreatedAt: time.Now(),
	}
	f.records = append(f.records, o)
	return o, nil
}

func (f *fakeOTPRepo) FindActive(_ context.Context, email, code string) (*entity.OTP, error) {
	var best *entity.OTP
	for _, o := range f.records {
		if o.Email == email && o.Code == code && !o.IsUsed {
			if best == nil || o.CreatedAt.After(best.CreatedAt) {
				best = o
			}
		}
	}
	return best, nil
}

func (f *fakeOTPRepo) MarkConsumed(_ context.Context, id string) (bool, error) {
	for _, o := range f.records {
		if o.ID == id && !o.IsUsed {
			o.IsUsed = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOTPRepo) seed(email, code string, createdAt time.Time) *entity.OTP {
	o := &entity.OTP{
		ID:        fmt.Sprintf("otp-%d", len(f.records)+1),
		Email:     email,
		Code:      code,
		CreatedAt: createdAt,
	}
	f.records = append(f.records, o)
	return o
}

type fakeUserRepo struct {
	users map[string]*entity.User
	next  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return f.users[email], nil
}

func (f *fakeUserRepo) Create(_ context.Context, email string, role entity.Role) (*entity.User, error) {
	if _, ok := f.users[email]; ok {
		return nil, repo.ErrDuplicateEmail
	}
	f.next++
	u := &entity.User{
		ID:        fmt.Sprintf("user-%d", f.next),
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	f.users[email] = u
	return u, nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, id string, role entity.Role) error {
	for _, u := range f.users {
		if u.ID == id {
			u.Role = role
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeUserRepo) List(_ context.Context, _ string, _ int) ([]*entity.User, error) {
	out := make([]*entity.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

type fakeDispatcher struct {
	sent    []string
	sendErr error
}

func (f *fakeDispatcher) SendOTP(_ context.Context, email, code string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, email+":"+code)
	return nil
}

func newTestService(otps *fakeOTPRepo, users *fakeUserRepo, d *fakeDispatcher) *AuthService {
	jwt := helpers.NewJWTManager("test-access", "test-refresh", time.Hour, 2*time.Hour)
	return NewAuthService(users, otps, jwt, d, nil, nil, nil, "", 5*time.Minute)
}

// --- issuance ---

func TestRequestCode_MissingEmail(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeOTPRepo{}, newFakeUserRepo(), &fakeDispatcher{})
	if err := svc.RequestCode(context.Background(), ""); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestRequestCode_IssuesAndDispatches(t *testing.T) {
	t.Parallel()

	otps := &fakeOTPRepo{}
	d := &fakeDispatcher{}
	svc := newTestService(otps, newFakeUserRepo(), d)

	if err := svc.RequestCode(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("RequestCode error: %v", err)
	}
	if len(otps.records) != 1 {
		t.Fatalf("expected 1 ledger record, got %d", len(otps.records))
	}
	rec := otps.records[0]
	if rec.Email != "a@x.com" || len(rec.Code) != 6 || rec.IsUsed {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(d.sent) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(d.sent))
	}
}

func TestRequestCode_DispatchFailureKeepsRecord(t *testing.T) {
	t.Parallel()

	otps := &fakeOTPRepo{}
	d := &fakeDispatcher{sendErr: errors.New("smtp down")}
	svc := newTestService(otps, newFakeUserRepo(), d)

	err := svc.RequestCode(context.Background(), "a@x.com")
	if !errors.Is(err, ErrSendFailure) {
		t.Fatalf("expected ErrSendFailure, got %v", err)
	}
	// The record is committed before dispatch and must survive the failure.
	if len(otps.records) != 1 || otps.records[0].IsUsed {
		t.Fatalf("expected a pending record to remain, got %+v", otps.records)
	}
}

func TestRequestCode_DoesNotInvalidateOutstandingCodes(t *testing.T) {
	t.Parallel()

	otps := &fakeOTPRepo{}
	svc := newTestService(otps, newFakeUserRepo(), &fakeDispatcher{})

	first := otps.seed("a@x.com", "042913", time.Now())
	if err := svc.RequestCode(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("RequestCode error: %v", err)
	}
	if first.IsUsed {
		t.Fatal("issuing a new code must not touch outstanding codes")
	}
	if got, _ := otps.FindActive(context.Background(), "a@x.com", "042913"); got == nil {
		t.Fatal("prior code should still be active")
	}
}

// --- verification ---

func TestVerify_MissingFields(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeOTPRepo{}, newFakeUserRepo(), &fakeDispatcher{})
	cases := []struct{ email, code string }{
		{"", "042913"},
		{"a@x.com", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := svc.Verify(context.Background(), tc.email, tc.code, ""); !errors.Is(err, ErrMissingField) {
			t.Fatalf("(%q,%q): expected ErrMissingField, got %v", tc.email, tc.code, err)
		}
	}
}

func TestVerify_InvalidRoleLiteral(t *testing.T) {
	t.Parallel()

	otps := &fakeOTPRepo{}
	otps.seed("a@x.com", "042913", time.Now())
	svc := newTestService(otps, newFakeUserRepo(), &fakeDispatcher{})

	if _, err := svc.Verify(context.Background(), "a@x.com", "042913", "superuser"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	// The role check precedes the lookup, so the code stays active.
	if got, _ := otps.FindActive(context.Background(), "a@x.com", "042913"); got == nil {
		t.Fatal("code must remain active after a role rejection")
	}
}

func TestVerify_SucceedsOnceThenInvalid(t *testing.T) {
	t.Parallel()

	otps := &fakeOTPRepo{}
	otps.seed("a@x.com", "042913", time.Now().Add(-4*time.Minute-59*time.Second))
	users := newFakeUserRepo()
	svc := newTestService(otps, users, &fakeDispatcher{})

	res, err := svc.Verify(context.Background(), "a@x.com", "042913", "")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if res.User.Role != entity.RoleCustomer {
		t.Fatalf("expected customer default, got %s", res.User.Role)
	}
	if res.Pair.AccessToken == "" || res.Pair.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}

	// Single use: the same pair must now be unknown to the ledger.
	if _, err := svc.Verify(context.Background(), "a@x.com", "042913", ""); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode on replay, got %v", err)
	}
}

func TestVerify_TokenCarriesRole(t *testing.T) {
	t.Parallel()

	otps := &fakeOTPRepo{}
	otps.seed("b@x.com", "118822", time.Now())
	svc := newTestService(otps, newFakeUserRepo(), &fakeDispatcher{})

	res, err := svc.Verify(context.Background(), "b@x.com", "118822", "barber")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	claims, err := svc.JWT.ParseAccessToken(res.Pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken error: %v", err)
	}
	if claims.Role != "barber" || claims.Email != "b@x.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerify_ExpiredBurnsRecord(t *testing.T) {
	t.Parallel()

	otps := &fakeOTPRepo{}
	rec := otps.seed("a@x.com", "118822", time.Now().Add(-5*time.Minute-time.Second))
	users := newFakeUserRepo()
	svc := newTestService(otps, users, &fakeDispatcher{})

	if _, err := svc.Verify(context.Background(), "a@x.com", "118822", ""); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
	if !rec.IsUsed {
		t.Fatal("expired code must be consumed so it cannot be retried")
	}
	// Retrying the burnt code reports invalid, not expired.
	if _, err := svc.Verify(context.Background(), "a@x.com", "118822", ""); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode after burn, got %v", err)
	}
	if len(users.users) != 0 {
		t.Fatal("expired verification must not create an identity")
	}
}

// raceOTPRepo hands out an active record whose consume was already won by
// somebody else, the interleaving a concurrent verify produces.
type raceOTPRepo struct {
	fakeOTPRepo
}

func (f *raceOTPRepo) FindActive(ctx context.Context, email, code string) (*entity.OTP, error) {
	rec, err := f.fakeOTPRepo.FindActive(ctx, email, code)
	if rec != nil {
		rec.IsUsed = true
	}
	return rec, err
}

func TestVerify_LosingConsumeRaceIsInvalid(t *testing.T) {
	t.Parallel()

	otps := &raceOTPRepo{}
	otps.seed("a@x.com", "042913", time.Now())
	users := newFakeUserRepo()
	jwt := helpers.NewJWTManager("test-access", "test-refresh", time.Hour, 2*time.Hour)
	svc := NewAuthService(users, otps, jwt, &fakeDispatcher{}, nil, nil, nil, "", 5*time.Minute)

	if _, err := svc.Verify(context.Background(), "a@x.com", "042913", ""); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode for the losing verify, got %v", err)
	}
	if len(users.users) != 0 {
		t.Fatal("the losing verify must not create an identity")
	}
}

func TestVerify_UnknownPairCreatesNothing(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	svc := newTestService(&fakeOTPRepo{}, users, &fakeDispatcher{})

	if _, err := svc.Verify(context.Background(), "ghost@x.com", "000000", ""); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if len(users.users) != 0 {
		t.Fatal("failed verification must not create an identity")
	}
}

func TestVerify_CreatesRequestedRole(t *testing.T) {
	t.Parallel()

	otps := &fakeOTPRepo{}
	otps.seed("cut@x.com", "042913", time.Now())
	users := newFakeUserRepo()
	svc := newTestService(otps, users, &fakeDispatcher{})

	res, err := svc.Verify(context.Background(), "cut@x.com", "042913", "barber")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if res.User.Role != entity.RoleBarber {
		t.Fatalf("expected barber, got %s", res.User.Role)
	}
}

func TestVerify_PromotesCustomerToBarber(t *testing.T) {
	t.Parallel()

	otps := &fakeOTPRepo{}
	otps.seed("a@x.com", "042913", time.Now())
	users := newFakeUserRepo()
	if _, err := users.Create(context.Background(), "a@x.com", entity.RoleCustomer); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	svc := newTestService(otps, users, &fakeDispatcher{})

	res, err := svc.Verify(context.Background(), "a@x.com", "042913", "barber")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if res.User.Role != entity.RoleBarber {
		t.Fatalf("expected promotion to barber, got %s", res.User.Role)
	}
	if users.users["a@x.com"].Role != entity.RoleBarber {
		t.Fatal("promotion must be persisted")
	}
}

func TestVerify_NeverDemotes(t *testing.T) {
	t.Parallel()

	otps := &fakeOTPRepo{}
	otps.seed("b@x.com", "042913", time.Now())
	users := newFakeUserRepo()
	if _, err := users.Create(context.Background(), "b@x.com", entity.RoleBarber); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	svc := newTestService(otps, users, &fakeDispatcher{})

	res, err := svc.Verify(context.Background(), "b@x.com", "042913", "customer")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if res.User.Role != entity.RoleBarber {
		t.Fatalf("barber must not be demoted, got %s", res.User.Role)
	}
}

func TestVerify_NoAutoPromotionToAdmin(t *testing.T) {
	t.Parallel()

	otps := &fakeOTPRepo{}
	otps.seed("c@x.com", "042913", time.Now())
	users := newFakeUserRepo()
	if _, err := users.Create(context.Background(), "c@x.com", entity.RoleCustomer); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	svc := newTestService(otps, users, &fakeDispatcher{})

	res, err := svc.Verify(context.Background(), "c@x.com", "042913", "admin")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if res.User.Role != entity.RoleCustomer {
		t.Fatalf("customer must not be auto promoted to admin, got %s", res.User.Role)
	}
}

func TestVerify_ExistingIdentityUnchangedWithoutRole(t *testing.T) {
	t.Parallel()

	otps := &fakeOTPRepo{}
	otps.seed("adm@x.com", "042913", time.Now())
	users := newFakeUserRepo()
	if _, err := users.Create(context.Background(), "adm@x.com", entity.RoleAdmin); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	svc := newTestService(otps, users, &fakeDispatcher{})

	res, err := svc.Verify(context.Background(), "adm@x.com", "042913", "")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if res.User.Role != entity.RoleAdmin {
		t.Fatalf("role must be unchanged, got %s", res.User.Role)
	}
}

// --- admin provisioning ---

func TestCreateBarber_MissingEmail(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeOTPRepo{}, newFakeUserRepo(), &fakeDispatcher{})
	if _, err := svc.CreateBarber(context.Background(), ""); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestCreateBarber_ConflictKeepsFirst(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	svc := newTestService(&fakeOTPRepo{}, users, &fakeDispatcher{})

	u, err := svc.CreateBarber(context.Background(), "new@x.com")
	if err != nil {
		t.Fatalf("CreateBarber error: %v", err)
	}
	if u.Role != entity.RoleBarber || u.PasswordHash != "" {
		t.Fatalf("unexpected barber: %+v", u)
	}

	if _, err := svc.CreateBarber(context.Background(), "new@x.com"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if users.users["new@x.com"].Role != entity.RoleBarber {
		t.Fatal("conflict must not mutate the existing identity")
	}
}

func TestCreateBarber_NeverPromotesExisting(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	if _, err := users.Create(context.Background(), "cust@x.com", entity.RoleCustomer); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	svc := newTestService(&fakeOTPRepo{}, users, &fakeDispatcher{})

	if _, err := svc.CreateBarber(context.Background(), "cust@x.com"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if users.users["cust@x.com"].Role != entity.RoleCustomer {
		t.Fatal("create-barber must not promote an existing customer")
	}
}

// --- refresh ---

func TestRefresh_RotatesPair(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	u, err := users.Create(context.Background(), "a@x.com", entity.RoleCustomer)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	svc := newTestService(&fakeOTPRepo{}, users, &fakeDispatcher{})

	pair, err := svc.IssueTokens(context.Background(), u)
	if err != nil {
		t.Fatalf("IssueTokens error: %v", err)
	}

	rotated, ru, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if ru.ID != u.ID {
		t.Fatalf("expected user %s, got %s", u.ID, ru.ID)
	}
	if rotated.AccessToken == "" || rotated.RefreshToken == "" {
		t.Fatal("expected a rotated pair")
	}
}

func TestRefresh_RejectsGarbage(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeOTPRepo{}, newFakeUserRepo(), &fakeDispatcher{})
	if _, _, err := svc.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRefresh_RejectsAccessTokenAsRefresh(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	u, err := users.Create(context.Background(), "a@x.com", entity.RoleCustomer)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	svc := newTestService(&fakeOTPRepo{}, users, &fakeDispatcher{})

	pair, err := svc.IssueTokens(context.Background(), u)
	if err != nil {
		t.Fatalf("IssueTokens error: %v", err)
	}
	if _, _, err := svc.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access token, got %v", err)
	}
}
