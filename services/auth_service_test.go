package services

import (
	"testing"

	"github.com/nagarsevak/civicseva/config"
	"github.com/nagarsevak/civicseva/db"
	"github.com/nagarsevak/civicseva/models"
)

func newTestAuthService() AuthService {
	repo := db.NewAuthRepo(&db.MemorySlot{})
	return NewAuthService(repo, &config.Config{JWTSecret: "test-secret"})
}

func TestCitizenLoginSameCredentialsSameIdentity(t *testing.T) {
	svc := newTestAuthService()
	req := &models.CitizenAuthRequest{Name: "Amit Kumar", Password: "secret123"}

	first, err := svc.CitizenLogin(req)
	if err != nil {
		t.Fatal(err)
	}
	if first.User.ID == "" {
		t.Fatal("an identity must be assigned on first login")
	}
	if first.AccessToken == "" {
		t.Fatal("a session token must be issued")
	}

	second, err := svc.CitizenLogin(&models.CitizenAuthRequest{Name: "Amit Kumar", Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}
	if second.User.ID != first.User.ID {
		t.Fatalf("same credentials resolved different identities: %s vs %s", first.User.ID, second.User.ID)
	}
}

func TestCitizenLoginWrongPasswordForKnownName(t *testing.T) {
	svc := newTestAuthService()

	if _, err := svc.CitizenRegister(&models.CitizenAuthRequest{Name: "Priya", Password: "secret123"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CitizenLogin(&models.CitizenAuthRequest{Name: "Priya", Password: "different1"}); err == nil {
		t.Fatal("wrong password for a registered name must fail")
	}
}

func TestCitizenLoginShortPassword(t *testing.T) {
	svc := newTestAuthService()

	if _, err := svc.CitizenLogin(&models.CitizenAuthRequest{Name: "Amit", Password: "short"}); err == nil {
		t.Fatal("passwords below 6 characters must be rejected")
	}
}

func TestCitizenRegisterTwiceConflicts(t *testing.T) {
	svc := newTestAuthService()
	req := &models.CitizenAuthRequest{Name: "Ravi", Password: "secret123"}

	if _, err := svc.CitizenRegister(req); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CitizenRegister(req); err == nil {
		t.Fatal("re-registering the same name must conflict")
	}
}

func TestMunicipalLogin(t *testing.T) {
	svc := newTestAuthService()

	tests := []struct {
		name     string
		code     string
		password string
		wantErr  bool
	}{
		{"valid office", "MO06", "pass006", false},
		{"wrong password", "MO06", "wrong01", true},
		{"code outside closed set", "MO11", "pass011", true},
		{"malformed code", "XX01", "pass001", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := svc.MunicipalLogin(&models.MunicipalLoginRequest{Code: tc.code, Password: tc.password})
			if tc.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if resp.User.Role != models.RoleMunicipal {
				t.Errorf("role: got %s, want municipal", resp.User.Role)
			}
			if resp.User.Code != tc.code || resp.User.ID != tc.code {
				t.Errorf("office identity is its code: %+v", resp.User)
			}
			if resp.User.Name != "Office Waste Management" {
				t.Errorf("office name: got %q", resp.User.Name)
			}
		})
	}
}

func TestVerifyMobileGatesCapture(t *testing.T) {
	svc := newTestAuthService()

	resp, err := svc.CitizenRegister(&models.CitizenAuthRequest{Name: "Amit", Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.User.MobileVerified() {
		t.Fatal("a fresh citizen must not be mobile-verified")
	}

	verified, err := svc.VerifyMobile(resp.User.ID, "9876543210")
	if err != nil {
		t.Fatal(err)
	}
	if !verified.MobileVerified() {
		t.Fatal("mobile verification did not stick")
	}

	restored, err := svc.GetUser(resp.User.ID)
	if err != nil {
		t.Fatal(err)
	}
	if restored.MobileNumber != "9876543210" {
		t.Fatalf("restored user lost the mobile number: %+v", restored)
	}
}

func TestGetUserResolvesMunicipalFromTable(t *testing.T) {
	svc := newTestAuthService()

	user, err := svc.GetUser("MO08")
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != models.RoleMunicipal || user.Name != "Office Water Supply" {
		t.Fatalf("got %+v, want Office Water Supply", user)
	}
}
