package services

import (
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/nagarsevak/civicseva/config"
	"github.com/nagarsevak/civicseva/db"
	apiError "github.com/nagarsevak/civicseva/errors"
	"github.com/nagarsevak/civicseva/geocode"
	"github.com/nagarsevak/civicseva/models"
)

// SystemUserID attributes automatic comments that no actor authored.
const SystemUserID = "system"

// ComplaintService interface
type ComplaintService interface {
	CreateComplaint(input *models.CreateComplaintRequest, owner *models.User) (*models.Complaint, error)
	GetAllComplaints() ([]*models.Complaint, error)
	GetUserComplaints(userID string) ([]*models.Complaint, error)
	GetMunicipalComplaints(officeCode string) ([]*models.Complaint, error)
	GetComplaintsByDate(date string) ([]*models.Complaint, error)
	GetComplaint(id string) (*models.Complaint, error)
	UpdateComplaintStatus(id string, status models.Status, assignedTo, comment, actorName string) (*models.Complaint, error)
	AddRepairImages(id string, images []string, comment, actorName string) (*models.Complaint, error)
	DeleteComplaint(id string) error
}

// complaintService struct
type complaintService struct {
	Config        *config.Config
	complaintRepo db.ComplaintRepository
	notifier      Notifier
	rng           *rand.Rand
	now           func() time.Time
}

// NewComplaintService instantiates a ComplaintService
func NewComplaintService(complaintRepo db.ComplaintRepository, notifier Notifier, rng *rand.Rand, conf *config.Config) ComplaintService {
	return &complaintService{
		Config:        conf,
		complaintRepo: complaintRepo,
		notifier:      notifier,
		rng:           rng,
		now:           time.Now,
	}
}

func (s *complaintService) today() string {
	return s.now().Format("2006-01-02")
}

func (s *complaintService) newCommentID() string {
	return "cm" + strconv.FormatInt(s.now().UnixMilli(), 10)
}

// CreateComplaint registers a new complaint. Required-field validation
// happens at the binding layer; here a missing geo location is
// synthesized inside the service area and reverse-geocoded, the status
// starts at pending and a system-authored receipt comment is appended.
func (s *complaintService) CreateComplaint(input *models.CreateComplaintRequest, owner *models.User) (*models.Complaint, error) {
	geo := input.GeoLocation
	if geo == nil && input.Location != "" {
		lat, lng := geocode.RandomPoint(s.rng)
		addr := geocode.ReverseGeocode(lat, lng)
		geo = &models.GeoLocation{
			Lat:      lat,
			Lng:      lng,
			Address:  addr.FullAddress,
			Area:     addr.Area,
			Street:   addr.Street,
			District: addr.District,
		}
	}

	date := s.today()
	complaint := &models.Complaint{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		GeoLocation: geo,
		Status:      models.StatusPending,
		Date:        date,
		UserID:      owner.ID,
		UserName:    owner.Name,
		Images:      input.Images,
		Videos:      input.Videos,
		Comments: []models.Comment{
			{
				ID:       s.newCommentID(),
				Text:     "Complaint received and registered in the system.",
				UserID:   SystemUserID,
				UserName: "System",
				Date:     date,
			},
		},
	}

	created, err := s.complaintRepo.Insert(complaint)
	if err != nil {
		log.Printf("CreateComplaint error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return created, nil
}

func (s *complaintService) GetAllComplaints() ([]*models.Complaint, error) {
	return s.complaintRepo.GetAll()
}

func (s *complaintService) GetUserComplaints(userID string) ([]*models.Complaint, error) {
	return s.complaintRepo.GetByUser(userID)
}

// GetMunicipalComplaints returns all complaints for municipal users.
// The office code is accepted for forward compatibility; assignment or
// area based filtering is not part of the current design.
func (s *complaintService) GetMunicipalComplaints(officeCode string) ([]*models.Complaint, error) {
	_ = officeCode
	return s.complaintRepo.GetAll()
}

func (s *complaintService) GetComplaintsByDate(date string) ([]*models.Complaint, error) {
	return s.complaintRepo.GetByDate(date)
}

func (s *complaintService) GetComplaint(id string) (*models.Complaint, error) {
	c, err := s.complaintRepo.GetByID(id)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	return c, nil
}

// statusComment synthesizes the role-appropriate boilerplate for a
// transition when the actor supplied no text of their own.
func statusComment(status models.Status, actorName string) string {
	switch status {
	case models.StatusAssigned:
		name := actorName
		if name == "" {
			name = "municipal office"
		}
		return "Complaint assigned to " + name + "."
	case models.StatusInProgress:
		return "Work has started on resolving this complaint."
	case models.StatusCompleted:
		return "This complaint has been successfully resolved."
	case models.StatusRejected:
		return "This complaint has been reviewed and rejected."
	default:
		return "Status updated to " + string(status) + "."
	}
}

// UpdateComplaintStatus sets the new status, keeps assignedTo unless a
// new value is supplied, and appends an audit comment when an actor
// name is present. Completion fires the citizen notification.
func (s *complaintService) UpdateComplaintStatus(id string, status models.Status, assignedTo, comment, actorName string) (*models.Complaint, error) {
	if !status.IsValid() {
		return nil, apiError.New("invalid status: "+string(status), http.StatusBadRequest)
	}

	updated, err := s.complaintRepo.Update(id, func(c *models.Complaint) error {
		c.Status = status
		if assignedTo != "" {
			c.AssignedTo = assignedTo
		}

		text := comment
		if text == "" {
			text = statusComment(status, actorName)
		}
		if text != "" && actorName != "" {
			author := c.AssignedTo
			if author == "" {
				author = SystemUserID
			}
			c.Comments = append(c.Comments, models.Comment{
				ID:       s.newCommentID(),
				Text:     text,
				UserID:   author,
				UserName: actorName,
				Date:     s.today(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	if status == models.StatusCompleted {
		if err := s.notifier.ComplaintResolved(updated); err != nil {
			log.Printf("failed to notify citizen about resolved complaint %s: %v", updated.ID, err)
		}
	}
	return updated, nil
}

// AddRepairImages appends repair evidence, never replacing what is
// already there, and notifies the citizen.
func (s *complaintService) AddRepairImages(id string, images []string, comment, actorName string) (*models.Complaint, error) {
	updated, err := s.complaintRepo.Update(id, func(c *models.Complaint) error {
		c.RepairImages = append(c.RepairImages, images...)

		text := comment
		if text == "" {
			text = "Repair images added to show progress on this complaint."
		}
		if actorName != "" {
			author := c.AssignedTo
			if author == "" {
				author = SystemUserID
			}
			c.Comments = append(c.Comments, models.Comment{
				ID:       s.newCommentID(),
				Text:     text,
				UserID:   author,
				UserName: actorName,
				Date:     s.today(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	if err := s.notifier.RepairImagesAdded(updated); err != nil {
		log.Printf("failed to notify citizen about repair images on complaint %s: %v", updated.ID, err)
	}
	return updated, nil
}

func (s *complaintService) DeleteComplaint(id string) error {
	if err := s.complaintRepo.Remove(id); err != nil {
		return s.mapRepoError(err)
	}
	return nil
}

func (s *complaintService) mapRepoError(err error) error {
	if err == db.ErrComplaintNotFound {
		return apiError.ErrNotFound
	}
	log.Printf("complaint store error: %v", err)
	return apiError.ErrInternalServerError
}
