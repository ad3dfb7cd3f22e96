package models

import (
	"errors"

	goval "github.com/go-passwd/validator"
	"github.com/leebenson/conform"
)

type UserRole string

const (
	RoleCitizen   UserRole = "citizen"
	RoleMunicipal UserRole = "municipal"
)

// User represents an authenticated actor, either a citizen or a
// municipal office.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         UserRole `json:"role"`
	Code         string   `json:"code,omitempty"`
	MobileNumber string   `json:"mobileNumber,omitempty"`
}

// MobileVerified gates camera-based evidence capture for citizens.
func (u *User) MobileVerified() bool {
	return u.MobileNumber != ""
}

// MunicipalOffice is one of the ten fixed municipal identities.
type MunicipalOffice struct {
	Code     string
	Password string
	Name     string
}

var MunicipalOffices = []MunicipalOffice{
	{Code: "MO01", Password: "pass001", Name: "Office North Zone"},
	{Code: "MO02", Password: "pass002", Name: "Office South Zone"},
	{Code: "MO03", Password: "pass003", Name: "Office East Zone"},
	{Code: "MO04", Password: "pass004", Name: "Office West Zone"},
	{Code: "MO05", Password: "pass005", Name: "Office Central Zone"},
	{Code: "MO06", Password: "pass006", Name: "Office Waste Management"},
	{Code: "MO07", Password: "pass007", Name: "Office Road Maintenance"},
	{Code: "MO08", Password: "pass008", Name: "Office Water Supply"},
	{Code: "MO09", Password: "pass009", Name: "Office Sanitation"},
	{Code: "MO10", Password: "pass010", Name: "Office Public Works"},
}

// FindMunicipalOffice looks up an office by code in the closed set.
func FindMunicipalOffice(code string) (*MunicipalOffice, bool) {
	for i := range MunicipalOffices {
		if MunicipalOffices[i].Code == code {
			return &MunicipalOffices[i], true
		}
	}
	return nil, false
}

func ValidatePassword(password string) error {
	passwordValidator := goval.New(goval.MinLength(6, errors.New("password cant be less than 6 characters")),
		goval.MaxLength(64, errors.New("password cant be more than 64 characters")))
	err := passwordValidator.Validate(password)
	return err
}

// ValidateWhiteSpaces trims conform-tagged fields in place.
func ValidateWhiteSpaces(data interface{}) error {
	return conform.Strings(data)
}

// CitizenAuthRequest serves both citizen login and registration.
type CitizenAuthRequest struct {
	Name     string `json:"name" binding:"required,min=2" conform:"trim"`
	Password string `json:"password" binding:"required"`
}

// MunicipalLoginRequest logs a municipal office in by code.
type MunicipalLoginRequest struct {
	Code     string `json:"code" binding:"required" conform:"trim,upper"`
	Password string `json:"password" binding:"required"`
}

type VerifyMobileRequest struct {
	MobileNumber string `json:"mobileNumber" binding:"required,min=10" conform:"num"`
}

// LoginResponse carries the resolved identity and its session token.
type LoginResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
}
