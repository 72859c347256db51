package pipeline_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"green-roots/internal/geo"
	"green-roots/internal/models"
	"green-roots/internal/pipeline"
)

const degPerKm = 180 / (math.Pi * geo.EarthRadiusKm)

const (
	siteLat = 14.5995
	siteLon = 120.9842
)

type ledger struct {
	trees int
	co2   int
}

type logEntry struct {
	userID      int
	description string
	category    string
}

// fakeStore mirrors the transactional semantics of the real database: a
// successful CreateSubmission records the row, bumps the owner's counters,
// and appends the activity entry together.
type fakeStore struct {
	site      *models.PlantingSite
	recent    []models.Submission
	hashes    map[int]map[string]bool
	users     map[int]*ledger
	subs      []*models.Submission
	logs      []logEntry
	createErr error

	hashChecks int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		site:   &models.PlantingSite{ID: 7, BarangayID: 1, Latitude: siteLat, Longitude: siteLon},
		hashes: map[int]map[string]bool{},
		users:  map[int]*ledger{1: {}, 2: {}},
	}
}

func (s *fakeStore) CurrentPlantingSite(ctx context.Context, barangayID int) (*models.PlantingSite, error) {
	return s.site, nil
}

func (s *fakeStore) HasPhotoHash(ctx context.Context, userID int, hash string) (bool, error) {
	s.hashChecks++
	return s.hashes[userID][hash], nil
}

func (s *fakeStore) RecentSubmissions(ctx context.Context, userID int, since time.Time) ([]models.Submission, error) {
	return s.recent, nil
}

func (s *fakeStore) CreateSubmission(ctx context.Context, sub *models.Submission, logDescription string) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.hashes[sub.UserID] == nil {
		s.hashes[sub.UserID] = map[string]bool{}
	}
	s.hashes[sub.UserID][sub.PhotoHash] = true
	s.subs = append(s.subs, sub)
	u := s.users[sub.UserID]
	u.trees += sub.TreesPlanted
	u.co2 += sub.TreesPlanted * models.CO2KgPerTree
	s.logs = append(s.logs, logEntry{sub.UserID, logDescription, "submission"})
	return nil
}

func (s *fakeStore) LogActivity(ctx context.Context, userID int, description, category string) error {
	s.logs = append(s.logs, logEntry{userID, description, category})
	return nil
}

type fakePhotos struct {
	saved int
	fail  bool
}

func (p *fakePhotos) Save(data []byte, ext string) (string, error) {
	if p.fail {
		return "", context.DeadlineExceeded
	}
	p.saved++
	return "/uploads/submissions/test" + ext, nil
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
}

// makePNG renders a solid PNG of the given size. The seed colors one pixel
// so tests can produce byte-distinct photos on demand.
func makePNG(t *testing.T, w, h int, seed uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: seed, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func validRequest(t *testing.T, userID int) pipeline.Request {
	t.Helper()
	return pipeline.Request{
		UserID:           userID,
		BarangayID:       1,
		TreesPlanted:     "5",
		Latitude:         "14.5995",
		Longitude:        "120.9842",
		LocationAccuracy: "10",
		Photo:            makePNG(t, 1200, 900, 1),
		PhotoName:        "planting.png",
		RemoteAddr:       "203.0.113.9",
		UserAgent:        "test-agent",
	}
}

func run(t *testing.T, store *fakeStore, req pipeline.Request) (*pipeline.Outcome, *pipeline.Error) {
	t.Helper()
	p := pipeline.NewWithClock(store, &fakePhotos{}, fixedNow)
	return p.Run(context.Background(), req)
}

func TestRun_AcceptedSubmission(t *testing.T) {
	store := newFakeStore()
	outcome, perr := run(t, store, validRequest(t, 1))
	if perr != nil {
		t.Fatalf("Run() rejected: %v", perr)
	}

	if len(store.subs) != 1 {
		t.Fatalf("got %d submissions, want 1", len(store.subs))
	}
	sub := store.subs[0]

	if sub.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", sub.Status)
	}
	if sub.Flagged {
		t.Error("submission should not be flagged")
	}
	if sub.TreesPlanted != 5 {
		t.Errorf("trees = %d, want 5", sub.TreesPlanted)
	}
	if sub.PhotoHash == "" || len(sub.PhotoHash) != 64 {
		t.Errorf("photo hash = %q, want 64 hex chars", sub.PhotoHash)
	}
	if sub.PlantingSiteID != 7 {
		t.Errorf("planting site id = %d, want 7", sub.PlantingSiteID)
	}
	if sub.PhotoTakenAt != nil {
		t.Error("png has no exif, taken-at should be nil")
	}

	// Exact ledger arithmetic: +5 trees, +110 kg.
	u := store.users[1]
	if u.trees != 5 || u.co2 != 110 {
		t.Errorf("ledger = %+v, want trees=5 co2=110", u)
	}

	if len(store.logs) != 1 {
		t.Fatalf("got %d activity entries, want 1", len(store.logs))
	}
	if store.logs[0].description != "Submitted a tree planting of 5 trees." {
		t.Errorf("activity = %q", store.logs[0].description)
	}
	if outcome.Warning != "" {
		t.Errorf("warning = %q, want none", outcome.Warning)
	}
}

func TestRun_TooFarFromSite(t *testing.T) {
	store := newFakeStore()
	store.site = &models.PlantingSite{ID: 7, BarangayID: 1, Latitude: siteLat + 5*degPerKm, Longitude: siteLon}

	_, perr := run(t, store, validRequest(t, 1))
	if perr == nil {
		t.Fatal("expected rejection")
	}
	if perr.Code != pipeline.CodeGeo {
		t.Errorf("code = %q, want %q", perr.Code, pipeline.CodeGeo)
	}

	if len(store.subs) != 0 {
		t.Errorf("no submission row should exist, got %d", len(store.subs))
	}
	if u := store.users[1]; u.trees != 0 || u.co2 != 0 {
		t.Errorf("counters must be untouched, got %+v", u)
	}
	if len(store.logs) != 1 || store.logs[0].category != "suspicious" {
		t.Fatalf("expected exactly one suspicious audit entry, got %+v", store.logs)
	}
	if !strings.Contains(store.logs[0].description, "5.00 km") {
		t.Errorf("audit entry should carry the distance, got %q", store.logs[0].description)
	}
}

func TestRun_DuplicatePhotoPerUserOnly(t *testing.T) {
	store := newFakeStore()
	photoBytes := makePNG(t, 1200, 900, 42)

	first := validRequest(t, 1)
	first.Photo = photoBytes
	if _, perr := run(t, store, first); perr != nil {
		t.Fatalf("first submission rejected: %v", perr)
	}

	t.Run("same user, same bytes is rejected", func(t *testing.T) {
		again := validRequest(t, 1)
		again.Photo = photoBytes
		_, perr := run(t, store, again)
		if perr == nil || perr.Code != pipeline.CodeDuplicate {
			t.Fatalf("expected duplicate rejection, got %v", perr)
		}
	})

	t.Run("different user, same bytes is accepted", func(t *testing.T) {
		other := validRequest(t, 2)
		other.Photo = photoBytes
		if _, perr := run(t, store, other); perr != nil {
			t.Fatalf("cross-user submission rejected: %v", perr)
		}
	})
}

func TestRun_DuplicateRaceCaughtByConstraint(t *testing.T) {
	// Simulates the second of two concurrent submissions: the read check saw
	// nothing, but the insert hits the unique constraint.
	store := newFakeStore()
	store.createErr = pipeline.ErrDuplicatePhoto

	_, perr := run(t, store, validRequest(t, 1))
	if perr == nil || perr.Code != pipeline.CodeDuplicate {
		t.Fatalf("expected duplicate rejection from the constraint path, got %v", perr)
	}
}

func TestRun_SoftProximityFlagsButAccepts(t *testing.T) {
	store := newFakeStore()
	store.recent = []models.Submission{{Latitude: siteLat + 0.05*degPerKm, Longitude: siteLon}}

	outcome, perr := run(t, store, validRequest(t, 1))
	if perr != nil {
		t.Fatalf("soft proximity must not reject: %v", perr)
	}
	if !outcome.Submission.Flagged {
		t.Error("submission should be flagged")
	}
	if outcome.Warning == "" {
		t.Error("expected a proximity warning")
	}
	if !strings.Contains(store.logs[0].description, outcome.Warning) {
		t.Errorf("activity entry %q should carry the note %q", store.logs[0].description, outcome.Warning)
	}
}

func TestRun_FileValidation(t *testing.T) {
	cases := []struct {
		name  string
		photo []byte
		code  pipeline.Code
	}{
		{"missing photo", nil, pipeline.CodeFile},
		{"garbage bytes", []byte("not an image at all"), pipeline.CodeFile},
		{"non-image bytes behind a bmp prefix", []byte("BM this is not a bitmap"), pipeline.CodeFile},
		{"truncated gif", []byte("GIF89a"), pipeline.CodeFile},
		{"resolution below 800x600", nil, pipeline.CodeFile}, // photo filled in below
	}
	cases[4].photo = makePNG(t, 640, 480, 3)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			req := validRequest(t, 1)
			req.Photo = tc.photo
			_, perr := run(t, store, req)
			if perr == nil || perr.Code != tc.code {
				t.Fatalf("got %v, want code %q", perr, tc.code)
			}
			if len(store.subs) != 0 || len(store.logs) != 0 {
				t.Error("rejections before the geo stage must persist nothing")
			}
		})
	}

	t.Run("exactly 800x600 is allowed", func(t *testing.T) {
		store := newFakeStore()
		req := validRequest(t, 1)
		req.Photo = makePNG(t, 800, 600, 4)
		if _, perr := run(t, store, req); perr != nil {
			t.Fatalf("800x600 rejected: %v", perr)
		}
	})

	t.Run("heic skips the resolution check", func(t *testing.T) {
		// No decoder exists for heic, so only the format sniff can run.
		store := newFakeStore()
		req := validRequest(t, 1)
		req.Photo = []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00heic payload")
		if _, perr := run(t, store, req); perr != nil {
			t.Fatalf("heic submission rejected: %v", perr)
		}
	})
}

func TestRun_FieldValidationComesFirst(t *testing.T) {
	// Both the tree count and the photo are invalid; the fixed order means
	// the field error wins and no storage read ever happens.
	store := newFakeStore()
	req := validRequest(t, 1)
	req.TreesPlanted = "zero"
	req.Photo = []byte("garbage")

	_, perr := run(t, store, req)
	if perr == nil || perr.Code != pipeline.CodeField {
		t.Fatalf("got %v, want field error first", perr)
	}
	if store.hashChecks != 0 {
		t.Errorf("no store access expected before validation passes, got %d hash checks", store.hashChecks)
	}
}

func TestRun_PhotoSaveFailurePersistsNothing(t *testing.T) {
	store := newFakeStore()
	p := pipeline.NewWithClock(store, &fakePhotos{fail: true}, fixedNow)

	_, perr := p.Run(context.Background(), validRequest(t, 1))
	if perr == nil || perr.Code != pipeline.CodePersistence {
		t.Fatalf("got %v, want persistence error", perr)
	}
	if len(store.subs) != 0 || len(store.logs) != 0 {
		t.Error("a failed photo save must leave no submission or activity rows")
	}
	if u := store.users[1]; u.trees != 0 || u.co2 != 0 {
		t.Errorf("counters must be untouched, got %+v", u)
	}
}

func TestRun_PersistenceFailureIsGeneric(t *testing.T) {
	store := newFakeStore()
	store.createErr = context.DeadlineExceeded

	_, perr := run(t, store, validRequest(t, 1))
	if perr == nil || perr.Code != pipeline.CodePersistence {
		t.Fatalf("got %v, want persistence error", perr)
	}
	if strings.Contains(perr.Message, "deadline") {
		t.Errorf("internal detail leaked to the user: %q", perr.Message)
	}
}
