package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/nagarsevak/civicseva/models"
)

type fakeStream struct {
	mu     sync.Mutex
	closed bool
}

func (s *fakeStream) ReadFrame() (image.Image, error) {
	return imaging.New(320, 240, color.NRGBA{10, 20, 30, 255}), nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeCamera struct {
	mu       sync.Mutex
	failures int
	opened   []*fakeStream
	lastMode FacingMode
	block    chan struct{} // when set, Open waits for ctx or the channel
}

func (c *fakeCamera) Open(ctx context.Context, facing FacingMode) (Stream, error) {
	c.mu.Lock()
	c.lastMode = facing
	block := c.block
	fail := c.failures > 0
	if fail {
		c.failures--
	}
	c.mu.Unlock()

	if block != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-block:
		}
	}
	if fail {
		return nil, errors.New("camera permission denied")
	}

	s := &fakeStream{}
	c.mu.Lock()
	c.opened = append(c.opened, s)
	c.mu.Unlock()
	return s, nil
}

func (c *fakeCamera) facing() FacingMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMode
}

func (c *fakeCamera) leaked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.opened {
		if !s.isClosed() {
			return true
		}
	}
	return false
}

type fakeLocations struct {
	lat, lng float64
	err      error
	delay    time.Duration
}

func (l *fakeLocations) Current(ctx context.Context) (float64, float64, error) {
	if l.delay > 0 {
		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		case <-time.After(l.delay):
		}
	}
	if l.err != nil {
		return 0, 0, l.err
	}
	return l.lat, l.lng, nil
}

func waitForLocation(t *testing.T, s *Session) LocationStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, status := s.Location(); status != LocationLoading {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("location never settled")
	return LocationLoading
}

func TestCaptureAcceptFlow(t *testing.T) {
	camera := &fakeCamera{}
	var cbRefs []string
	var cbLoc *models.GeoLocation
	s := NewSession(camera, &fakeLocations{lat: 28.61, lng: 77.20}, Options{
		OnCapture: func(ref string, loc *models.GeoLocation) {
			cbRefs = append(cbRefs, ref)
			cbLoc = loc
		},
	})

	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateLive {
		t.Fatalf("state: got %s, want live", s.State())
	}

	if status := waitForLocation(t, s); status != LocationResolved {
		t.Fatalf("location status: got %s, want resolved", status)
	}
	loc, _ := s.Location()
	if loc.District != "Central Delhi" {
		t.Fatalf("location not reverse-geocoded: %+v", loc)
	}

	if err := s.Capture(); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateCaptured {
		t.Fatalf("state: got %s, want captured", s.State())
	}

	res, err := s.Confirm()
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != StateAccepted {
		t.Fatalf("state: got %s, want accepted", s.State())
	}
	if res.ImageRef == "" || res.ThumbnailRef == "" {
		t.Fatalf("result refs missing: %+v", res)
	}
	if res.Location == nil || res.Location.Lat != 28.61 {
		t.Fatalf("result location: %+v", res.Location)
	}
	if len(cbRefs) != 1 || cbRefs[0] != res.ImageRef {
		t.Fatalf("capture callback fired %d times, want exactly once with the image ref", len(cbRefs))
	}
	if cbLoc == nil || cbLoc.Lng != 77.20 {
		t.Fatalf("callback location: %+v", cbLoc)
	}
	if camera.leaked() {
		t.Fatal("camera handle not released after accept")
	}
}

func TestCaptureBlockedUntilLocationOutcome(t *testing.T) {
	camera := &fakeCamera{}
	s := NewSession(camera, &fakeLocations{lat: 28.61, lng: 77.20, delay: 100 * time.Millisecond}, Options{})
	defer s.Close()

	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Capture(); err != ErrLocationPending {
		t.Fatalf("got %v, want ErrLocationPending while location loads", err)
	}

	waitForLocation(t, s)
	if err := s.Capture(); err != nil {
		t.Fatalf("capture after location outcome: %v", err)
	}
}

func TestLocationFailureStillAllowsCapture(t *testing.T) {
	camera := &fakeCamera{}
	s := NewSession(camera, &fakeLocations{err: errors.New("permission denied")}, Options{})
	defer s.Close()

	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	if status := waitForLocation(t, s); status != LocationFailed {
		t.Fatalf("location status: got %s, want failed", status)
	}
	if err := s.Capture(); err != nil {
		t.Fatalf("an explicit location failure must not block capture: %v", err)
	}
}

// TestDegradedOnCameraFailure: location succeeds, camera fails, the
// session degrades with retry and fallback both available and no
// handle held.
func TestDegradedOnCameraFailure(t *testing.T) {
	camera := &fakeCamera{failures: 1}
	s := NewSession(camera, &fakeLocations{lat: 28.61, lng: 77.20}, Options{})
	defer s.Close()

	if err := s.Open(context.Background()); err == nil {
		t.Fatal("open must surface the camera failure")
	}
	if s.State() != StateDegraded {
		t.Fatalf("state: got %s, want degraded", s.State())
	}
	if s.HoldsStream() || camera.leaked() {
		t.Fatal("no camera handle may be held in degraded state")
	}
	waitForLocation(t, s)

	// Retry is available and succeeds now that the camera recovered.
	if err := s.Retry(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s.State() != StateLive {
		t.Fatalf("state after retry: got %s, want live", s.State())
	}
	s.Close()

	// Fallback is available from degraded too.
	camera2 := &fakeCamera{failures: 10}
	s2 := NewSession(camera2, &fakeLocations{lat: 28.61, lng: 77.20}, Options{})
	defer s2.Close()
	_ = s2.Open(context.Background())
	if s2.State() != StateDegraded {
		t.Fatalf("state: got %s, want degraded", s2.State())
	}
	if err := s2.UseFallback(); err != nil {
		t.Fatal(err)
	}
	waitForLocation(t, s2)
	if err := s2.Capture(); err != nil {
		t.Fatalf("fallback capture: %v", err)
	}
	res, err := s2.Confirm()
	if err != nil {
		t.Fatal(err)
	}
	if res.Location == nil {
		t.Fatal("fallback capture must still carry the resolved location")
	}
}

func TestRetakeKeepsStream(t *testing.T) {
	camera := &fakeCamera{}
	s := NewSession(camera, &fakeLocations{lat: 28.61, lng: 77.20}, Options{})
	defer s.Close()

	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitForLocation(t, s)
	if err := s.Capture(); err != nil {
		t.Fatal(err)
	}
	if err := s.Retake(); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateLive {
		t.Fatalf("state after retake: got %s, want live", s.State())
	}
	if !s.HoldsStream() {
		t.Fatal("retake must not release the camera")
	}
	if err := s.Capture(); err != nil {
		t.Fatalf("recapture after retake: %v", err)
	}
}

func TestSwitchFacingReacquires(t *testing.T) {
	camera := &fakeCamera{}
	s := NewSession(camera, &fakeLocations{lat: 28.61, lng: 77.20}, Options{})
	defer s.Close()

	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	if camera.facing() != FacingEnvironment {
		t.Fatalf("default facing: got %s, want environment", camera.facing())
	}

	if err := s.SwitchFacing(); err != nil {
		t.Fatal(err)
	}
	if camera.facing() != FacingUser {
		t.Fatalf("facing after switch: got %s, want user", camera.facing())
	}
	if s.State() != StateLive {
		t.Fatalf("state after switch: got %s, want live", s.State())
	}

	// Exactly one stream may be open: the old one must be released.
	camera.mu.Lock()
	open := 0
	for _, st := range camera.opened {
		if !st.isClosed() {
			open++
		}
	}
	camera.mu.Unlock()
	if open != 1 {
		t.Fatalf("%d streams open after facing switch, want 1", open)
	}
}

func TestSwitchFacingInvalidFromCaptured(t *testing.T) {
	camera := &fakeCamera{}
	s := NewSession(camera, &fakeLocations{lat: 28.61, lng: 77.20}, Options{})
	defer s.Close()

	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitForLocation(t, s)
	if err := s.Capture(); err != nil {
		t.Fatal(err)
	}
	if err := s.SwitchFacing(); err != ErrInvalidState {
		t.Fatalf("got %v, want ErrInvalidState from captured", err)
	}
}

func TestCloseReleasesEverywhere(t *testing.T) {
	camera := &fakeCamera{}
	s := NewSession(camera, &fakeLocations{lat: 28.61, lng: 77.20}, Options{})

	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Close()
	if s.State() != StateClosed {
		t.Fatalf("state: got %s, want closed", s.State())
	}
	if camera.leaked() {
		t.Fatal("camera handle leaked on close")
	}
	// Idempotent.
	s.Close()

	if err := s.Capture(); err != ErrInvalidState {
		t.Fatalf("capture after close: got %v, want ErrInvalidState", err)
	}
}

func TestCloseMidPermissionRequestReleases(t *testing.T) {
	camera := &fakeCamera{block: make(chan struct{})}
	s := NewSession(camera, &fakeLocations{lat: 28.61, lng: 77.20}, Options{})

	done := make(chan error, 1)
	go func() { done <- s.Open(context.Background()) }()

	// Let Open reach the blocking device call, then cancel.
	time.Sleep(20 * time.Millisecond)
	s.Close()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("open must fail once the session is closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("open did not return after close")
	}
	if s.State() != StateClosed {
		t.Fatalf("state: got %s, want closed", s.State())
	}
	if camera.leaked() {
		t.Fatal("camera handle leaked on mid-request close")
	}
}

func TestLocationTimeoutCountsAsFailure(t *testing.T) {
	camera := &fakeCamera{}
	s := NewSession(camera, &fakeLocations{lat: 28.61, lng: 77.20, delay: time.Hour}, Options{
		Timeout: 30 * time.Millisecond,
	})
	defer s.Close()

	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	if status := waitForLocation(t, s); status != LocationFailed {
		t.Fatalf("location status: got %s, want failed after timeout", status)
	}
}

func TestBurnInKeepsDimensions(t *testing.T) {
	frame := imaging.New(320, 240, color.NRGBA{10, 20, 30, 255})
	out := BurnIn(frame, "Street 3, Subhash Marg, Central Delhi")
	if out.Bounds().Dx() != 320 || out.Bounds().Dy() != 240 {
		t.Fatalf("overlay changed dimensions: %v", out.Bounds())
	}
	// The overlay box must actually darken the bottom-left corner.
	r0, g0, b0, _ := frame.At(15, 225).RGBA()
	r1, g1, b1, _ := out.At(15, 225).RGBA()
	if r0 == r1 && g0 == g1 && b0 == b1 {
		t.Fatal("overlay left the frame untouched")
	}
}

func TestThumbnailScalesDown(t *testing.T) {
	frame := imaging.New(640, 480, color.NRGBA{10, 20, 30, 255})
	thumb := Thumbnail(frame)
	if thumb.Bounds().Dx() != 200 {
		t.Fatalf("thumbnail width: got %d, want 200", thumb.Bounds().Dx())
	}
}
