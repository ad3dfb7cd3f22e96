package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	errs "github.com/nagarsevak/civicseva/errors"
	"github.com/nagarsevak/civicseva/geocode"
	"github.com/nagarsevak/civicseva/models"
	"github.com/nagarsevak/civicseva/server/response"
)

func (s *Server) handleCreateComplaint() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.JSON(c, "", http.StatusUnauthorized, nil, err)
			return
		}

		var req models.CreateComplaintRequest
		if err := decode(c, &req); err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}

		created, err := s.ComplaintService.CreateComplaint(&req, user)
		if err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "complaint registered successfully", http.StatusCreated, created, nil)
	}
}

func (s *Server) handleGetMyComplaints() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.JSON(c, "", http.StatusUnauthorized, nil, err)
			return
		}

		complaints, err := s.ComplaintService.GetUserComplaints(user.ID)
		if err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "complaints retrieved successfully", http.StatusOK, complaints, nil)
	}
}

func (s *Server) handleGetAllComplaints() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			response.JSON(c, "", http.StatusUnauthorized, nil, err)
			return
		}

		complaints, err := s.ComplaintService.GetMunicipalComplaints(user.Code)
		if err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "complaints retrieved successfully", http.StatusOK, complaints, nil)
	}
}

func (s *Server) handleGetComplaintsByDate() gin.HandlerFunc {
	return func(c *gin.Context) {
		date := c.Param("date")
		if _, err := time.Parse("2006-01-02", date); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("date must be in YYYY-MM-DD format", http.StatusBadRequest))
			return
		}

		complaints, err := s.ComplaintService.GetComplaintsByDate(date)
		if err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "complaints retrieved successfully", http.StatusOK, complaints, nil)
	}
}

func (s *Server) handleGetComplaint() gin.HandlerFunc {
	return func(c *gin.Context) {
		complaint, err := s.ComplaintService.GetComplaint(c.Param("id"))
		if err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "complaint retrieved successfully", http.StatusOK, complaint, nil)
	}
}

// handleUpdateStatus transitions a complaint. A complaint already in a
// terminal status stays there; the transition is refused with 409.
func (s *Server) handleUpdateStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdateStatusRequest
		if err := decode(c, &req); err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}

		id := c.Param("id")
		current, err := s.ComplaintService.GetComplaint(id)
		if err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		if current.Status.Terminal() {
			response.JSON(c, "", http.StatusConflict, nil,
				errs.New("complaint is already "+string(current.Status), http.StatusConflict))
			return
		}

		actorName := req.ActorName
		if actorName == "" {
			if user, err := GetUserFromContext(c); err == nil {
				actorName = user.Name
			}
		}

		updated, err := s.ComplaintService.UpdateComplaintStatus(id, req.Status, req.AssignedTo, req.Comment, actorName)
		if err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "complaint status updated successfully", http.StatusOK, updated, nil)
	}
}

// handleAddRepairImages attaches repair evidence. Evidence only makes
// sense once work has started, so anything before in-progress is
// refused.
func (s *Server) handleAddRepairImages() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AddRepairImagesRequest
		if err := decode(c, &req); err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}

		id := c.Param("id")
		current, err := s.ComplaintService.GetComplaint(id)
		if err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		if current.Status != models.StatusInProgress && current.Status != models.StatusCompleted {
			response.JSON(c, "", http.StatusConflict, nil,
				errs.New("repair images require an in-progress or completed complaint", http.StatusConflict))
			return
		}

		actorName := req.ActorName
		if actorName == "" {
			if user, err := GetUserFromContext(c); err == nil {
				actorName = user.Name
			}
		}

		updated, err := s.ComplaintService.AddRepairImages(id, req.Images, req.Comment, actorName)
		if err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "repair images added successfully", http.StatusOK, updated, nil)
	}
}

func (s *Server) handleDeleteComplaint() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.ComplaintService.DeleteComplaint(c.Param("id")); err != nil {
			response.JSON(c, "", errs.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "complaint deleted successfully", http.StatusOK, nil, nil)
	}
}

// handleReverseGeocode resolves coordinates to the synthetic address
// the rest of the system uses. Public, no session required.
func (s *Server) handleReverseGeocode() gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("lat and lng must be numbers", http.StatusBadRequest))
			return
		}

		addr := geocode.ReverseGeocode(lat, lng)
		response.JSON(c, "address resolved", http.StatusOK, addr, nil)
	}
}
