package user

import (
	"context"
	"testing"

	"github.com/kavinkishorej-ui/academia/core"
)

type memRepo struct {
	pk    int
	table map[int]User
}

func newMemRepo() *memRepo {
	return &memRepo{table: make(map[int]User)}
}

func (r *memRepo) CreateUser(ctx context.Context, usr User) (User, error) {
	for _, u := range r.table {
		if u.Role == usr.Role && u.Username == usr.Username {
			return User{}, core.NewConflictError("a user with this identifier already exists")
		}
	}
	r.pk++
	usr.ID = r.pk
	r.table[usr.ID] = usr
	return usr, nil
}

func (r *memRepo) GetUserByID(ctx context.Context, id int) (User, error) {
	if usr, ok := r.table[id]; ok {
		return usr, nil
	}
	return User{}, ErrNotFound
}

func (r *memRepo) GetUserByRoleAndUsername(ctx context.Context, role Role, username string) (User, error) {
	for _, usr := range r.table {
		if usr.Role == role && usr.Username == username {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memRepo) UpdateUser(ctx context.Context, usr User) (User, error) {
	if _, ok := r.table[usr.ID]; !ok {
		return User{}, ErrNotFound
	}
	r.table[usr.ID] = usr
	return usr, nil
}

func (r *memRepo) DeleteUsersByID(ctx context.Context, ids ...int) error {
	for _, id := range ids {
		delete(r.table, id)
	}
	return nil
}

type mailRecorder struct {
	msgs []*core.EmailMessage
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.msgs = append(m.msgs, messages...)
}

func newTestIdentity() NewIdentity {
	return NewIdentity{
		Role:     RoleTeacher,
		Username: "t2021001",
		Name:     "Jane Poe",
		Email:    "jane@test.test",
		Password: "S3cure!pass",
	}
}

func Test_service_Create(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &mailRecorder{})
	ctx := context.Background()

	usr, err := svc.Create(ctx, newTestIdentity())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if !usr.MustChangePassword {
		t.Error("Create() did not flag MustChangePassword")
	}
	if string(usr.PasswordHash) == "S3cure!pass" {
		t.Error("Create() stored the password in plaintext")
	}
	if err = usr.CheckPassword("S3cure!pass"); err != nil {
		t.Errorf("CheckPassword() failed on fresh identity: %v", err)
	}

	// same identifier, same role
	if _, err = svc.Create(ctx, newTestIdentity()); !core.IsConflict(err) {
		t.Errorf("Create() duplicate error = %v, want conflict", err)
	}

	// same identifier, different role is a distinct account
	ni := newTestIdentity()
	ni.Role = RoleStudent
	if _, err = svc.Create(ctx, ni); err != nil {
		t.Errorf("Create() with same username, other role failed: %v", err)
	}
}

func Test_service_Authenticate(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &mailRecorder{})
	ctx := context.Background()

	usr, err := svc.Create(ctx, newTestIdentity())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	tests := []struct {
		name     string
		role     Role
		username string
		password string
		wantErr  error
	}{
		{name: "ok", role: RoleTeacher, username: "t2021001", password: "S3cure!pass"},
		{name: "unknown identifier", role: RoleTeacher, username: "nobody", password: "S3cure!pass", wantErr: ErrInvalidCredentials},
		{name: "wrong password", role: RoleTeacher, username: "t2021001", password: "wrong", wantErr: ErrInvalidCredentials},
		{name: "wrong role", role: RoleStudent, username: "t2021001", password: "S3cure!pass", wantErr: ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authed, err := svc.Authenticate(ctx, tt.role, tt.username, tt.password)
			if err != tt.wantErr {
				t.Fatalf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if authed.ID != usr.ID {
					t.Errorf("Authenticate() ID = %d, want %d", authed.ID, usr.ID)
				}
				if authed.LastLogin.IsZero() {
					t.Error("Authenticate() did not stamp LastLogin")
				}
			}
		})
	}
}

func Test_service_ChangePassword(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &mailRecorder{})
	ctx := context.Background()

	usr, err := svc.Create(ctx, newTestIdentity())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// wrong current password leaves the hash intact
	_, err = svc.ChangePassword(ctx, usr, ChangePassword{CurrentPassword: "wrong", NewPassword: "N3w!secret9"})
	if err != ErrInvalidPassword {
		t.Fatalf("ChangePassword() error = %v, want ErrInvalidPassword", err)
	}
	stored, _ := repo.GetUserByID(ctx, usr.ID)
	if err = stored.CheckPassword("S3cure!pass"); err != nil {
		t.Error("ChangePassword() mutated the hash on failure")
	}

	// correct current password rotates and clears the first-login flag
	updated, err := svc.ChangePassword(ctx, usr, ChangePassword{CurrentPassword: "S3cure!pass", NewPassword: "N3w!secret9"})
	if err != nil {
		t.Fatalf("ChangePassword() failed: %v", err)
	}
	if updated.MustChangePassword {
		t.Error("ChangePassword() left MustChangePassword set")
	}
	if err = updated.CheckPassword("N3w!secret9"); err != nil {
		t.Errorf("CheckPassword() failed after rotation: %v", err)
	}
}

func Test_service_PasswordReset(t *testing.T) {
	repo := newMemRepo()
	mails := &mailRecorder{}
	svc := NewServiceMock(repo, mails)
	defer func() { genOTPFunc = generateOTP }()
	ctx := context.Background()

	if _, err := svc.Create(ctx, newTestIdentity()); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// unknown identifier: ErrNotFound for the handler to swallow
	if err := svc.RequestPasswordReset(ctx, RoleTeacher, "nobody"); err != ErrNotFound {
		t.Fatalf("RequestPasswordReset() error = %v, want ErrNotFound", err)
	}
	if len(mails.msgs) != 0 {
		t.Fatal("RequestPasswordReset() sent mail for unknown identifier")
	}

	if err := svc.RequestPasswordReset(ctx, RoleTeacher, "t2021001"); err != nil {
		t.Fatalf("RequestPasswordReset() failed: %v", err)
	}
	if len(mails.msgs) != 1 {
		t.Fatalf("RequestPasswordReset() sent %d mails, want 1", len(mails.msgs))
	}
	code := svc.LastOTP
	if len(code) != otpLength {
		t.Fatalf("captured OTP = %q, want %d digits", code, otpLength)
	}

	reset := func(otp, pwd string) error {
		return svc.ConfirmPasswordReset(ctx, ResetPassword{
			Role:        RoleTeacher,
			Identifier:  "t2021001",
			OTP:         otp,
			NewPassword: pwd,
		})
	}

	// wrong code does not burn the pending one
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := reset(wrong, "N3w!secret9"); err != ErrInvalidOTP {
		t.Fatalf("ConfirmPasswordReset() error = %v, want ErrInvalidOTP", err)
	}

	// right code works exactly once
	if err := reset(code, "N3w!secret9"); err != nil {
		t.Fatalf("ConfirmPasswordReset() failed: %v", err)
	}
	if err := reset(code, "An0ther!pwd"); err != ErrInvalidOTP {
		t.Fatalf("ConfirmPasswordReset() replay error = %v, want ErrInvalidOTP", err)
	}

	// the new password authenticates; the flag is cleared
	usr, err := svc.Authenticate(ctx, RoleTeacher, "t2021001", "N3w!secret9")
	if err != nil {
		t.Fatalf("Authenticate() after reset failed: %v", err)
	}
	if usr.MustChangePassword {
		t.Error("ConfirmPasswordReset() left MustChangePassword set")
	}

	// unknown identifier on confirm is indistinguishable from a bad code
	err = svc.ConfirmPasswordReset(ctx, ResetPassword{Role: RoleStudent, Identifier: "nobody", OTP: code, NewPassword: "N3w!secret9"})
	if err != ErrInvalidOTP {
		t.Errorf("ConfirmPasswordReset() unknown identifier error = %v, want ErrInvalidOTP", err)
	}
}
