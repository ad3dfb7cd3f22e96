package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	errs "github.com/nagarsevak/civicseva/errors"
	"github.com/nagarsevak/civicseva/models"
	"github.com/nagarsevak/civicseva/server/response"
)

func (s *Server) handleCitizenRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CitizenAuthRequest
		if err := decode(c, &req); err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}

		resp, err := s.AuthService.CitizenRegister(&req)
		if err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "registration successful", http.StatusCreated, resp, nil)
	}
}

func (s *Server) handleCitizenLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CitizenAuthRequest
		if err := decode(c, &req); err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}

		resp, err := s.AuthService.CitizenLogin(&req)
		if err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, resp, nil)
	}
}

func (s *Server) handleMunicipalLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.MunicipalLoginRequest
		if err := decode(c, &req); err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}

		resp, err := s.AuthService.MunicipalLogin(&req)
		if err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, resp, nil)
	}
}

func (s *Server) handleVerifyMobile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.JSON(c, "", http.StatusUnauthorized, nil, err)
			return
		}
		if user.Role != models.RoleCitizen {
			response.JSON(c, "", http.StatusForbidden, nil, errs.New("only citizens verify a mobile number", http.StatusForbidden))
			return
		}

		var req models.VerifyMobileRequest
		if err := decode(c, &req); err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}

		updated, err := s.AuthService.VerifyMobile(user.ID, req.MobileNumber)
		if err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "mobile number verified", http.StatusOK, updated, nil)
	}
}

func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.JSON(c, "", http.StatusUnauthorized, nil, err)
			return
		}
		response.JSON(c, "user retrieved successfully", http.StatusOK, user, nil)
	}
}

// decode binds the JSON body and scrubs conform-tagged fields.
func decode(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		log.Printf("decode error: %v", err)
		return errs.New(err.Error(), http.StatusBadRequest)
	}
	if err := models.ValidateWhiteSpaces(v); err != nil {
		return errs.New(err.Error(), http.StatusBadRequest)
	}
	return nil
}
