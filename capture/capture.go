// Package capture drives a geo-capture session: camera acquisition,
// concurrent location resolution, frame capture with the address
// burned in, and a guaranteed release of the camera handle on every
// exit path.
package capture

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/nagarsevak/civicseva/geocode"
	"github.com/nagarsevak/civicseva/models"
)

type State string

const (
	StateIdle                  State = "idle"
	StateRequestingPermissions State = "requesting-permissions"
	StateLive                  State = "live"
	StateDegraded              State = "degraded"
	StateFallback              State = "fallback"
	StateCaptured              State = "captured"
	StateAccepted              State = "accepted"
	StateClosed                State = "closed"
)

type FacingMode string

const (
	FacingUser        FacingMode = "user"
	FacingEnvironment FacingMode = "environment"
)

func (f FacingMode) flip() FacingMode {
	if f == FacingUser {
		return FacingEnvironment
	}
	return FacingUser
}

type LocationStatus string

const (
	LocationLoading  LocationStatus = "loading"
	LocationResolved LocationStatus = "resolved"
	LocationFailed   LocationStatus = "failed"
)

var (
	ErrSessionClosed   = errors.New("capture session closed")
	ErrInvalidState    = errors.New("operation not valid in current state")
	ErrLocationPending = errors.New("location result not available yet")
)

// Stream is an open camera stream. It is the single owned device
// handle of a session.
type Stream interface {
	ReadFrame() (image.Image, error)
	Close() error
}

// Camera acquires a stream for a facing mode. Open honors ctx so a
// session cancelled mid-permission-request releases cleanly.
type Camera interface {
	Open(ctx context.Context, facing FacingMode) (Stream, error)
}

// LocationProvider resolves the device position.
type LocationProvider interface {
	Current(ctx context.Context) (lat, lng float64, err error)
}

// Result is handed to the caller exactly once, on accept.
type Result struct {
	ImageRef     string
	ThumbnailRef string
	Location     *models.GeoLocation
}

// Options configures a session. Zero values fall back to environment
// facing, a 10s location timeout and an in-memory sink.
type Options struct {
	Facing    FacingMode
	Timeout   time.Duration
	Sink      Sink
	OnCapture func(imageRef string, location *models.GeoLocation)
}

// Session is a single capture dialog lifetime. Methods are safe for
// concurrent use; Close may be called from any goroutine at any time.
type Session struct {
	camera    Camera
	locations LocationProvider
	sink      Sink
	timeout   time.Duration
	onCapture func(string, *models.GeoLocation)

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	state        State
	facing       FacingMode
	stream       Stream
	location     *models.GeoLocation
	locStatus    LocationStatus
	captured     image.Image
	fromFallback bool
}

func NewSession(camera Camera, locations LocationProvider, opts Options) *Session {
	if opts.Facing == "" {
		opts.Facing = FacingEnvironment
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Sink == nil {
		opts.Sink = NewMemorySink()
	}
	return &Session{
		camera:    camera,
		locations: locations,
		sink:      opts.Sink,
		timeout:   opts.Timeout,
		onCapture: opts.OnCapture,
		state:     StateIdle,
		facing:    opts.Facing,
		locStatus: LocationLoading,
	}
}

// Open starts the session: location and camera are requested
// concurrently, and the session lands in Live or Degraded.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrInvalidState
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.state = StateRequestingPermissions
	s.mu.Unlock()

	go s.resolveLocation()
	return s.acquireCamera()
}

// resolveLocation runs once per session. Camera readiness never waits
// on it, but non-fallback capture does.
func (s *Session) resolveLocation() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	lat, lng, err := s.locations.Current(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed || s.state == StateAccepted {
		return
	}
	if err != nil {
		s.locStatus = LocationFailed
		return
	}
	addr := geocode.ReverseGeocode(lat, lng)
	s.location = &models.GeoLocation{
		Lat:      lat,
		Lng:      lng,
		Address:  addr.FullAddress,
		Area:     addr.Area,
		Street:   addr.Street,
		District: addr.District,
	}
	s.locStatus = LocationResolved
}

// acquireCamera opens a stream for the current facing mode, releasing
// any previous one first. The session lock is not held across the
// device call so Close stays responsive.
func (s *Session) acquireCamera() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.releaseStreamLocked()
	ctx := s.ctx
	facing := s.facing
	s.mu.Unlock()

	stream, err := s.camera.Open(ctx, facing)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		if stream != nil {
			stream.Close()
		}
		return ErrSessionClosed
	}
	if err != nil {
		s.state = StateDegraded
		return err
	}
	s.stream = stream
	s.state = StateLive
	return nil
}

// Retry re-requests the camera after a failed acquisition.
func (s *Session) Retry() error {
	s.mu.Lock()
	if s.state != StateDegraded {
		s.mu.Unlock()
		return ErrInvalidState
	}
	s.state = StateRequestingPermissions
	s.mu.Unlock()

	return s.acquireCamera()
}

// UseFallback switches a degraded session to synthetic capture.
func (s *Session) UseFallback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDegraded {
		return ErrInvalidState
	}
	s.state = StateFallback
	return nil
}

// SwitchFacing toggles front/back and re-acquires the stream. Only
// valid while Live or Degraded.
func (s *Session) SwitchFacing() error {
	s.mu.Lock()
	if s.state != StateLive && s.state != StateDegraded {
		s.mu.Unlock()
		return ErrInvalidState
	}
	s.facing = s.facing.flip()
	s.state = StateRequestingPermissions
	s.mu.Unlock()

	return s.acquireCamera()
}

// Capture snapshots the current frame with the resolved address burned
// in. A live capture is held back until a location outcome (success or
// failure) exists, so images are never silently tagged with a stale or
// missing location. Fallback capture produces a placeholder frame.
func (s *Session) Capture() error {
	s.mu.Lock()

	switch s.state {
	case StateFallback:
		frame := Placeholder()
		if s.location != nil {
			s.captured = BurnIn(frame, overlayText(s.location))
		} else {
			s.captured = frame
		}
		s.fromFallback = true
		s.state = StateCaptured
		s.mu.Unlock()
		return nil
	case StateLive:
		if s.locStatus == LocationLoading {
			s.mu.Unlock()
			return ErrLocationPending
		}
		stream := s.stream
		loc := s.location
		s.mu.Unlock()

		frame, err := stream.ReadFrame()
		if err != nil {
			s.mu.Lock()
			s.state = StateDegraded
			s.releaseStreamLocked()
			s.mu.Unlock()
			return err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state != StateLive {
			return ErrInvalidState
		}
		if loc != nil {
			s.captured = BurnIn(frame, overlayText(loc))
		} else {
			s.captured = frame
		}
		s.fromFallback = false
		s.state = StateCaptured
		return nil
	default:
		s.mu.Unlock()
		return ErrInvalidState
	}
}

// Retake discards the captured image and resumes the preview. The
// stream is deliberately kept open.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCaptured {
		return ErrInvalidState
	}
	s.captured = nil
	if s.fromFallback {
		s.state = StateFallback
	} else {
		s.state = StateLive
	}
	return nil
}

// Confirm accepts the captured image: it is encoded and stored, the
// capture callback fires exactly once, and the camera is torn down.
func (s *Session) Confirm() (*Result, error) {
	s.mu.Lock()
	if s.state != StateCaptured {
		s.mu.Unlock()
		return nil, ErrInvalidState
	}
	frame := s.captured
	loc := s.location
	s.mu.Unlock()

	data, err := EncodeJPEG(frame)
	if err != nil {
		return nil, err
	}
	imageRef, err := s.sink.Store(data)
	if err != nil {
		return nil, err
	}

	thumbData, err := EncodeJPEG(Thumbnail(frame))
	if err != nil {
		return nil, err
	}
	thumbRef, err := s.sink.Store(thumbData)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.state != StateCaptured {
		s.mu.Unlock()
		return nil, ErrInvalidState
	}
	s.state = StateAccepted
	s.captured = nil
	s.releaseStreamLocked()
	cancel := s.cancel
	cb := s.onCapture
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if cb != nil {
		cb(imageRef, loc)
	}
	return &Result{ImageRef: imageRef, ThumbnailRef: thumbRef, Location: loc}, nil
}

// Close cancels the session from any state, releasing the camera and
// any in-flight device requests. It is idempotent and safe to call
// mid-permission-request.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed || s.state == StateAccepted {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.captured = nil
	s.releaseStreamLocked()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *Session) releaseStreamLocked() {
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Facing() FacingMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facing
}

// Location returns the resolved location (nil until resolved) and the
// resolution status.
func (s *Session) Location() (*models.GeoLocation, LocationStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location, s.locStatus
}

// HoldsStream reports whether a camera handle is currently owned.
func (s *Session) HoldsStream() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream != nil
}

func overlayText(loc *models.GeoLocation) string {
	if loc.Address != "" {
		return loc.Address
	}
	addr := geocode.ReverseGeocode(loc.Lat, loc.Lng)
	return addr.FullAddress
}
