package db

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/nagarsevak/civicseva/models"
)

// ErrComplaintNotFound is returned when an id matches no complaint in
// any partition.
var ErrComplaintNotFound = errors.New("complaint not found")

// ComplaintRepository is the mock persistence layer: an in-memory
// index of complaints partitioned by owning user, snapshotted to a
// slot on every mutation.
type ComplaintRepository interface {
	GetAll() ([]*models.Complaint, error)
	GetByUser(userID string) ([]*models.Complaint, error)
	GetByDate(date string) ([]*models.Complaint, error)
	GetByID(id string) (*models.Complaint, error)
	Insert(c *models.Complaint) (*models.Complaint, error)
	Update(id string, mutate func(*models.Complaint) error) (*models.Complaint, error)
	Remove(id string) error
}

// complaintSnapshot is the persisted layout: the id counter plus a
// mapping from userId to that user's ordered complaint list.
type complaintSnapshot struct {
	NextID int                            `json:"nextId"`
	Users  map[string][]*models.Complaint `json:"users"`
}

type complaintRepo struct {
	mu     sync.Mutex
	slot   Slot
	users  map[string][]*models.Complaint
	owner  map[string]string // complaint id -> owning user id
	nextID int
}

// NewComplaintRepo loads the snapshot from the slot, falling back to
// the seed dataset when the slot is missing or unreadable.
func NewComplaintRepo(slot Slot) ComplaintRepository {
	r := &complaintRepo{
		slot:  slot,
		owner: make(map[string]string),
	}

	data, err := slot.Load(context.Background())
	if err == nil {
		var snap complaintSnapshot
		if jsonErr := json.Unmarshal(data, &snap); jsonErr == nil && snap.Users != nil {
			r.users = snap.Users
			r.nextID = snap.NextID
		} else {
			log.Printf("complaint snapshot corrupt, falling back to seed data: %v", jsonErr)
		}
	} else if !errors.Is(err, ErrSlotEmpty) {
		log.Printf("unable to read complaint snapshot, falling back to seed data: %v", err)
	}

	if r.users == nil {
		r.users = seedComplaints()
	}
	r.reindex()
	return r
}

// reindex rebuilds the id index and repairs the counter so freshly
// assigned ids can never collide with an existing one.
func (r *complaintRepo) reindex() {
	maxID := 0
	for userID, list := range r.users {
		for _, c := range list {
			r.owner[c.ID] = userID
			if n := numericID(c.ID); n > maxID {
				maxID = n
			}
		}
	}
	if r.nextID <= maxID {
		r.nextID = maxID + 1
	}
}

func numericID(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "c"))
	if err != nil {
		return 0
	}
	return n
}

// GetAll returns every complaint across all users, newest first:
// creation date descending, then id descending.
func (r *complaintRepo) GetAll() ([]*models.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Complaint
	for _, list := range r.users {
		for _, c := range list {
			out = append(out, c.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return numericID(out[i].ID) > numericID(out[j].ID)
	})
	return out, nil
}

// GetByUser returns the user's partition in insertion order, newest
// first (inserts prepend).
func (r *complaintRepo) GetByUser(userID string) ([]*models.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.users[userID]
	out := make([]*models.Complaint, 0, len(list))
	for _, c := range list {
		out = append(out, c.Clone())
	}
	return out, nil
}

// GetByDate returns complaints from any user whose calendar date
// matches exactly.
func (r *complaintRepo) GetByDate(date string) ([]*models.Complaint, error) {
	all, err := r.GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]*models.Complaint, 0)
	for _, c := range all {
		if c.Date == date {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *complaintRepo) GetByID(id string) (*models.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, _, err := r.findLocked(id)
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

func (r *complaintRepo) findLocked(id string) (*models.Complaint, string, error) {
	userID, ok := r.owner[id]
	if !ok {
		return nil, "", ErrComplaintNotFound
	}
	for _, c := range r.users[userID] {
		if c.ID == id {
			return c, userID, nil
		}
	}
	return nil, "", ErrComplaintNotFound
}

// Insert assigns the next id, prepends to the owner's partition and
// persists the snapshot before returning.
func (r *complaintRepo) Insert(c *models.Complaint) (*models.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := c.Clone()
	stored.ID = "c" + strconv.Itoa(r.nextID)
	r.nextID++

	r.users[stored.UserID] = append([]*models.Complaint{stored}, r.users[stored.UserID]...)
	r.owner[stored.ID] = stored.UserID

	if err := r.persistLocked(); err != nil {
		return nil, err
	}
	return stored.Clone(), nil
}

// Update locates the complaint by id across all partitions, applies
// the mutation and persists the snapshot.
func (r *complaintRepo) Update(id string, mutate func(*models.Complaint) error) (*models.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, userID, err := r.findLocked(id)
	if err != nil {
		return nil, err
	}

	updated := stored.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}
	// Identity and creation fields never change through updates.
	updated.ID = stored.ID
	updated.UserID = stored.UserID
	updated.UserName = stored.UserName
	updated.Date = stored.Date

	list := r.users[userID]
	for i, c := range list {
		if c.ID == id {
			list[i] = updated
			break
		}
	}

	if err := r.persistLocked(); err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

func (r *complaintRepo) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, userID, err := r.findLocked(id)
	if err != nil {
		return err
	}

	list := r.users[userID]
	kept := make([]*models.Complaint, 0, len(list)-1)
	for _, c := range list {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(r.users, userID)
	} else {
		r.users[userID] = kept
	}
	delete(r.owner, id)

	return r.persistLocked()
}

func (r *complaintRepo) persistLocked() error {
	snap := complaintSnapshot{NextID: r.nextID, Users: r.users}
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "marshal complaint snapshot")
	}
	if err := r.slot.Save(context.Background(), data); err != nil {
		log.Printf("failed to persist complaint snapshot: %v", err)
		return err
	}
	return nil
}
