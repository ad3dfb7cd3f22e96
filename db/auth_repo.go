package db

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/nagarsevak/civicseva/models"
)

var ErrUserNotFound = errors.New("user not found")

// CitizenRecord is a registered citizen identity with its credential.
// The id is assigned once at registration and looked up by credential
// afterwards, so the same credentials always resolve to the same
// identity.
type CitizenRecord struct {
	User           models.User `json:"user"`
	HashedPassword string      `json:"hashedPassword"`
}

// AuthRepository persists citizen identities the same way the
// complaint store persists complaints: whole snapshot under one slot.
type AuthRepository interface {
	FindCitizenByName(name string) (*CitizenRecord, error)
	FindCitizenByID(id string) (*CitizenRecord, error)
	CreateCitizen(rec *CitizenRecord) (*CitizenRecord, error)
	UpdateCitizen(rec *CitizenRecord) (*CitizenRecord, error)
}

type authRepo struct {
	mu       sync.Mutex
	slot     Slot
	citizens map[string]*CitizenRecord // normalized name -> record
}

func NewAuthRepo(slot Slot) AuthRepository {
	r := &authRepo{slot: slot}

	data, err := slot.Load(context.Background())
	if err == nil {
		var stored map[string]*CitizenRecord
		if jsonErr := json.Unmarshal(data, &stored); jsonErr == nil && stored != nil {
			r.citizens = stored
		} else {
			log.Printf("user snapshot corrupt, starting empty: %v", jsonErr)
		}
	} else if !errors.Is(err, ErrSlotEmpty) {
		log.Printf("unable to read user snapshot, starting empty: %v", err)
	}

	if r.citizens == nil {
		r.citizens = make(map[string]*CitizenRecord)
	}
	return r
}

func credentialKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *authRepo) FindCitizenByName(name string) (*CitizenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.citizens[credentialKey(name)]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *rec
	return &out, nil
}

func (r *authRepo) FindCitizenByID(id string) (*CitizenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.citizens {
		if rec.User.ID == id {
			out := *rec
			return &out, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *authRepo) CreateCitizen(rec *CitizenRecord) (*CitizenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := credentialKey(rec.User.Name)
	if _, exists := r.citizens[key]; exists {
		return nil, errors.New("citizen already registered")
	}

	stored := *rec
	r.citizens[key] = &stored
	if err := r.persistLocked(); err != nil {
		return nil, err
	}
	out := stored
	return &out, nil
}

func (r *authRepo) UpdateCitizen(rec *CitizenRecord) (*CitizenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := credentialKey(rec.User.Name)
	if _, exists := r.citizens[key]; !exists {
		return nil, ErrUserNotFound
	}

	stored := *rec
	r.citizens[key] = &stored
	if err := r.persistLocked(); err != nil {
		return nil, err
	}
	out := stored
	return &out, nil
}

func (r *authRepo) persistLocked() error {
	data, err := json.Marshal(r.citizens)
	if err != nil {
		return errors.Wrap(err, "marshal user snapshot")
	}
	if err := r.slot.Save(context.Background(), data); err != nil {
		log.Printf("failed to persist user snapshot: %v", err)
		return err
	}
	return nil
}
