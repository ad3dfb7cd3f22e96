package models

// Status is the lifecycle state of a complaint.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusAssigned:   true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusRejected:   true,
}

func (s Status) IsValid() bool {
	return validStatuses[s]
}

// Terminal reports whether the status ends the lifecycle as the UI
// presents it. The store itself does not forbid leaving a terminal
// status; the API layer does.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// CanTransitionTo describes the intended order
// pending -> assigned -> in-progress -> completed, with rejected
// reachable from any non-terminal status.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.IsValid() || s.Terminal() {
		return false
	}
	if next == StatusRejected {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusAssigned
	case StatusAssigned:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted
	}
	return false
}

// GeoLocation is a structured location, either captured on the device
// or synthesized server-side at creation time.
type GeoLocation struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Address  string  `json:"address,omitempty"`
	Area     string  `json:"area,omitempty"`
	Street   string  `json:"street,omitempty"`
	District string  `json:"district,omitempty"`
}

// Comment is one entry of a complaint's append-only audit log.
type Comment struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Date     string `json:"date"`
}

// Complaint is a citizen-filed civic issue report.
type Complaint struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Location     string       `json:"location"`
	GeoLocation  *GeoLocation `json:"geoLocation,omitempty"`
	Status       Status       `json:"status"`
	Date         string       `json:"date"`
	UserID       string       `json:"userId"`
	UserName     string       `json:"userName"`
	Images       []string     `json:"images,omitempty"`
	Videos       []string     `json:"videos,omitempty"`
	AssignedTo   string       `json:"assignedTo,omitempty"`
	RepairImages []string     `json:"repairImages,omitempty"`
	Comments     []Comment    `json:"comments,omitempty"`
}

// Clone returns a deep copy so callers can never mutate store state.
func (c *Complaint) Clone() *Complaint {
	if c == nil {
		return nil
	}
	out := *c
	if c.GeoLocation != nil {
		geo := *c.GeoLocation
		out.GeoLocation = &geo
	}
	out.Images = append([]string(nil), c.Images...)
	out.Videos = append([]string(nil), c.Videos...)
	out.RepairImages = append([]string(nil), c.RepairImages...)
	out.Comments = append([]Comment(nil), c.Comments...)
	return &out
}

// CreateComplaintRequest is the payload a citizen submits.
type CreateComplaintRequest struct {
	Title       string       `json:"title" binding:"required" conform:"trim"`
	Description string       `json:"description" binding:"required" conform:"trim"`
	Location    string       `json:"location" binding:"required" conform:"trim"`
	GeoLocation *GeoLocation `json:"geoLocation,omitempty"`
	Images      []string     `json:"images"`
	Videos      []string     `json:"videos"`
}

// UpdateStatusRequest transitions a complaint's status.
type UpdateStatusRequest struct {
	Status     Status `json:"status" binding:"required"`
	AssignedTo string `json:"assignedTo"`
	Comment    string `json:"comment" conform:"trim"`
	ActorName  string `json:"actorName" conform:"trim"`
}

// AddRepairImagesRequest appends post-repair evidence.
type AddRepairImagesRequest struct {
	Images    []string `json:"images" binding:"required,min=1"`
	Comment   string   `json:"comment" conform:"trim"`
	ActorName string   `json:"actorName" conform:"trim"`
}
