package services

import (
	"log"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nagarsevak/civicseva/config"
	"github.com/nagarsevak/civicseva/db"
	apiError "github.com/nagarsevak/civicseva/errors"
	"github.com/nagarsevak/civicseva/models"
	"github.com/nagarsevak/civicseva/services/jwt"
)

// municipal office codes form a closed set; the format check runs
// before the table lookup so malformed codes fail fast.
var municipalCodePattern = regexp.MustCompile(`^MO(0[1-9]|10)$`)

// AuthService interface
type AuthService interface {
	CitizenRegister(req *models.CitizenAuthRequest) (*models.LoginResponse, error)
	CitizenLogin(req *models.CitizenAuthRequest) (*models.LoginResponse, error)
	MunicipalLogin(req *models.MunicipalLoginRequest) (*models.LoginResponse, error)
	VerifyMobile(userID, mobileNumber string) (*models.User, error)
	GetUser(userID string) (*models.User, error)
}

// authService struct
type authService struct {
	Config   *config.Config
	authRepo db.AuthRepository
}

// NewAuthService instantiates an authService
func NewAuthService(authRepo db.AuthRepository, conf *config.Config) AuthService {
	return &authService{
		Config:   conf,
		authRepo: authRepo,
	}
}

// CitizenRegister assigns a citizen identity exactly once and persists
// it by credential, so later logins resolve the same id by lookup.
func (a *authService) CitizenRegister(req *models.CitizenAuthRequest) (*models.LoginResponse, error) {
	if err := models.ValidateWhiteSpaces(req); err != nil {
		return nil, apiError.New(err.Error(), http.StatusBadRequest)
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		return nil, apiError.New(err.Error(), http.StatusBadRequest)
	}

	if _, err := a.authRepo.FindCitizenByName(req.Name); err == nil {
		return nil, apiError.New("citizen already registered", http.StatusConflict)
	}

	rec, err := a.provisionCitizen(req.Name, req.Password)
	if err != nil {
		return nil, err
	}
	return a.sessionFor(&rec.User)
}

// CitizenLogin resolves the identity registered for the credentials.
// Unregistered credentials of a valid shape are provisioned on first
// login, mirroring the mock backend the portal started from, but the
// id is still assigned once and looked up afterwards.
func (a *authService) CitizenLogin(req *models.CitizenAuthRequest) (*models.LoginResponse, error) {
	if err := models.ValidateWhiteSpaces(req); err != nil {
		return nil, apiError.New(err.Error(), http.StatusBadRequest)
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		return nil, apiError.ErrInvalidCredentials
	}

	rec, err := a.authRepo.FindCitizenByName(req.Name)
	if err == db.ErrUserNotFound {
		rec, err = a.provisionCitizen(req.Name, req.Password)
		if err != nil {
			return nil, err
		}
		return a.sessionFor(&rec.User)
	}
	if err != nil {
		log.Printf("CitizenLogin error finding user: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.HashedPassword), []byte(req.Password)); err != nil {
		return nil, apiError.ErrInvalidCredentials
	}
	return a.sessionFor(&rec.User)
}

func (a *authService) provisionCitizen(name, password string) (*db.CitizenRecord, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("error hashing password: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	rec, err := a.authRepo.CreateCitizen(&db.CitizenRecord{
		User: models.User{
			ID:   uuid.New().String(),
			Name: name,
			Role: models.RoleCitizen,
		},
		HashedPassword: string(hashed),
	})
	if err != nil {
		log.Printf("error creating citizen: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return rec, nil
}

// MunicipalLogin authenticates one of the ten fixed offices.
func (a *authService) MunicipalLogin(req *models.MunicipalLoginRequest) (*models.LoginResponse, error) {
	if err := models.ValidateWhiteSpaces(req); err != nil {
		return nil, apiError.New(err.Error(), http.StatusBadRequest)
	}
	if !municipalCodePattern.MatchString(req.Code) {
		return nil, apiError.New("invalid municipal office code", http.StatusBadRequest)
	}

	office, ok := models.FindMunicipalOffice(req.Code)
	if !ok || office.Password != req.Password {
		return nil, apiError.New("invalid municipal office credentials", http.StatusUnauthorized)
	}

	return a.sessionFor(&models.User{
		ID:   office.Code,
		Name: office.Name,
		Role: models.RoleMunicipal,
		Code: office.Code,
	})
}

// VerifyMobile attaches a phone number to a citizen identity, which
// unlocks camera-based evidence capture.
func (a *authService) VerifyMobile(userID, mobileNumber string) (*models.User, error) {
	rec, err := a.authRepo.FindCitizenByID(userID)
	if err == db.ErrUserNotFound {
		return nil, apiError.New("user not found", http.StatusNotFound)
	}
	if err != nil {
		log.Printf("VerifyMobile error finding user: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	rec.User.MobileNumber = mobileNumber
	updated, err := a.authRepo.UpdateCitizen(rec)
	if err != nil {
		log.Printf("VerifyMobile error updating user: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	user := updated.User
	return &user, nil
}

// GetUser restores the actor for a session: municipal identities come
// from the fixed table, citizens from the persisted records.
func (a *authService) GetUser(userID string) (*models.User, error) {
	if office, ok := models.FindMunicipalOffice(userID); ok {
		return &models.User{
			ID:   office.Code,
			Name: office.Name,
			Role: models.RoleMunicipal,
			Code: office.Code,
		}, nil
	}

	rec, err := a.authRepo.FindCitizenByID(userID)
	if err == db.ErrUserNotFound {
		return nil, apiError.New("user not found", http.StatusNotFound)
	}
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	user := rec.User
	return &user, nil
}

func (a *authService) sessionFor(user *models.User) (*models.LoginResponse, error) {
	token, err := jwt.GenerateToken(user, a.Config.JWTSecret)
	if err != nil {
		log.Printf("error generating access token: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return &models.LoginResponse{User: user, AccessToken: token}, nil
}
