package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"green-roots/internal/geo"
	"green-roots/internal/models"
	"green-roots/internal/photo"
)

// Policy thresholds for the submission checks. Distances are kilometers.
const (
	MaxTreesPerSubmission = 100
	MaxAccuracyMeters     = 50.0
	MaxSiteDistanceKm     = 0.2
	MaxExifMismatchKm     = 0.1
	ProximityRadiusKm     = 0.1
	ProximityWindow       = 24 * time.Hour
	MaxPhotoAge           = time.Hour
)

// Code classifies a rejection for callers that want to re-focus the right
// form field. Messages are already user-facing.
type Code string

const (
	CodeField       Code = "field"
	CodeFile        Code = "file"
	CodeGeo         Code = "geo"
	CodeTemporal    Code = "temporal"
	CodeDuplicate   Code = "duplicate"
	CodePersistence Code = "persistence"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// CheckResult is the outcome of one pipeline stage. Only Reject stops the
// pipeline; a warning rides along to the ledger as a flag plus audit note.
type CheckResult struct {
	warning string
	err     *Error
}

func Pass() CheckResult {
	return CheckResult{}
}

func PassWithWarning(note string) CheckResult {
	return CheckResult{warning: note}
}

func Reject(code Code, message string) CheckResult {
	return CheckResult{err: &Error{Code: code, Message: message}}
}

func (r CheckResult) Rejected() bool { return r.err != nil }

func (r CheckResult) Err() *Error { return r.err }

func (r CheckResult) Warning() string { return r.warning }

// ErrDuplicatePhoto is returned by Store.CreateSubmission when the
// (user_id, photo_hash) unique constraint fires. It closes the window where
// two concurrent submissions both pass the read-side duplicate check.
var ErrDuplicatePhoto = errors.New("photo hash already submitted by this user")

// Store is the persistence surface the pipeline needs. *db.Database
// implements it; tests use an in-memory fake.
type Store interface {
	CurrentPlantingSite(ctx context.Context, barangayID int) (*models.PlantingSite, error)
	HasPhotoHash(ctx context.Context, userID int, hash string) (bool, error)
	RecentSubmissions(ctx context.Context, userID int, since time.Time) ([]models.Submission, error)
	CreateSubmission(ctx context.Context, sub *models.Submission, logDescription string) error
	LogActivity(ctx context.Context, userID int, description, category string) error
}

// PhotoStore persists accepted photo content and returns its public path.
type PhotoStore interface {
	Save(data []byte, ext string) (string, error)
}

// Request carries everything one submission needs, captured once by the
// handler. Form fields arrive as raw strings; parsing them is the pipeline's
// job. Nothing in the pipeline reads ambient request state.
type Request struct {
	UserID     int
	BarangayID int

	TreesPlanted     string
	Latitude         string
	Longitude        string
	LocationAccuracy string
	Notes            string

	Photo      []byte
	PhotoName  string
	RemoteAddr string
	UserAgent  string
}

// Outcome describes an accepted submission.
type Outcome struct {
	Submission *models.Submission
	Warning    string
}

type Pipeline struct {
	store  Store
	photos PhotoStore
	now    func() time.Time
}

func New(store Store, photos PhotoStore) *Pipeline {
	return &Pipeline{store: store, photos: photos, now: time.Now}
}

// NewWithClock is for tests that need a fixed notion of now.
func NewWithClock(store Store, photos PhotoStore, now func() time.Time) *Pipeline {
	return &Pipeline{store: store, photos: photos, now: now}
}

// draft is the normalized submission after field and file validation.
type draft struct {
	trees    int
	lat      float64
	lon      float64
	accuracy float64
	format   photo.Format
	hash     string
	meta     photo.Meta
	siteID   int
}

// Run executes the checks in a fixed order - fields, file, duplicate,
// geospatial, temporal - and short-circuits on the first rejection. Only the
// final ledger write has persistent side effects, except for the two
// suspicious-activity audit entries recorded on geospatial rejections.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, *Error) {
	d := &draft{}
	var warning string

	checks := []func(context.Context) CheckResult{
		func(context.Context) CheckResult { return p.validateFields(req, d) },
		func(context.Context) CheckResult { return p.validateFile(req.Photo, d) },
		func(ctx context.Context) CheckResult { return p.checkDuplicate(ctx, req.UserID, d.hash) },
		func(ctx context.Context) CheckResult { return p.checkGeospatial(ctx, req, d) },
		func(context.Context) CheckResult { return p.checkTemporal(d) },
	}

	for _, check := range checks {
		res := check(ctx)
		if res.Rejected() {
			return nil, res.Err()
		}
		if res.Warning() != "" {
			warning = res.Warning()
		}
	}

	return p.persist(ctx, req, d, warning)
}

func (p *Pipeline) validateFields(req Request, d *draft) CheckResult {
	trees, err := strconv.Atoi(req.TreesPlanted)
	if err != nil || trees < 1 {
		return Reject(CodeField, "Please enter a valid number of trees (at least 1).")
	}
	if trees > MaxTreesPerSubmission {
		return Reject(CodeField, "Plantings of more than 100 trees must go through your barangay's bulk submission process.")
	}

	lat, latErr := strconv.ParseFloat(req.Latitude, 64)
	lon, lonErr := strconv.ParseFloat(req.Longitude, 64)
	if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Reject(CodeGeo, "Invalid GPS coordinates. Please wait for a GPS fix and try again.")
	}

	accuracy, err := strconv.ParseFloat(req.LocationAccuracy, 64)
	if err != nil || accuracy <= 0 || accuracy > MaxAccuracyMeters {
		return Reject(CodeGeo, "GPS accuracy is too low (50 m or better required). Move to open sky and try again.")
	}

	d.trees = trees
	d.lat = lat
	d.lon = lon
	d.accuracy = accuracy
	return Pass()
}

func (p *Pipeline) validateFile(data []byte, d *draft) CheckResult {
	if len(data) == 0 {
		return Reject(CodeFile, "Please attach a photo of your planting.")
	}
	if len(data) > photo.MaxSizeBytes {
		return Reject(CodeFile, "Photo is too large. The maximum size is 50 MB.")
	}

	format, err := photo.DetectFormat(data)
	if err != nil {
		return Reject(CodeFile, "Unsupported photo format. Allowed: JPEG, PNG, GIF, WEBP, BMP, HEIC, HEIF.")
	}

	w, h, err := photo.Dimensions(data, format)
	switch {
	case errors.Is(err, photo.ErrNoDecoder):
		// HEIC and HEIF cannot be decoded here; the resolution check is
		// skipped for them. Documented policy gap.
	case err != nil:
		return Reject(CodeFile, "The photo could not be read. Please upload the original, unedited image file.")
	case w < photo.MinWidth || h < photo.MinHeight:
		return Reject(CodeFile, "Photo resolution is too low. The minimum is 800x600 pixels.")
	}

	d.format = format
	d.hash = photo.Hash(data)
	d.meta = photo.ExtractMeta(data)
	return Pass()
}

func (p *Pipeline) checkDuplicate(ctx context.Context, userID int, hash string) CheckResult {
	seen, err := p.store.HasPhotoHash(ctx, userID, hash)
	if err != nil {
		log.Printf("pipeline: duplicate check failed: %v", err)
		return Reject(CodePersistence, "Failed to submit. Please try again later.")
	}
	if seen {
		return Reject(CodeDuplicate, "You have already submitted this photo.")
	}
	return Pass()
}

func (p *Pipeline) checkGeospatial(ctx context.Context, req Request, d *draft) CheckResult {
	site, err := p.store.CurrentPlantingSite(ctx, req.BarangayID)
	if err != nil {
		log.Printf("pipeline: planting site lookup failed: %v", err)
		return Reject(CodePersistence, "Failed to submit. Please try again later.")
	}
	if site == nil {
		return Reject(CodeGeo, "No planting site has been designated for your barangay yet. Please contact your eco validator.")
	}
	d.siteID = site.ID

	siteDist := geo.Haversine(d.lat, d.lon, site.Latitude, site.Longitude)
	if siteDist > MaxSiteDistanceKm {
		desc := fmt.Sprintf("Suspicious submission: reported location %.2f km from the designated planting site.", siteDist)
		if err := p.store.LogActivity(ctx, req.UserID, desc, "suspicious"); err != nil {
			log.Printf("pipeline: suspicious-activity log failed: %v", err)
		}
		return Reject(CodeGeo, "You are too far from your barangay's designated planting site.")
	}

	// If the photo carries EXIF GPS, it has to agree with the device fix.
	// Photos without EXIF GPS skip this check entirely.
	if d.meta.Latitude != nil && d.meta.Longitude != nil {
		mismatch := geo.Haversine(d.lat, d.lon, *d.meta.Latitude, *d.meta.Longitude)
		if mismatch > MaxExifMismatchKm {
			desc := fmt.Sprintf("Suspicious submission: photo EXIF location %.2f km from the reported GPS position.", mismatch)
			if err := p.store.LogActivity(ctx, req.UserID, desc, "suspicious"); err != nil {
				log.Printf("pipeline: suspicious-activity log failed: %v", err)
			}
			return Reject(CodeGeo, "The photo's embedded GPS location does not match your reported location.")
		}
	}

	// Soft check: another submission nearby within the past day is noted and
	// flagged for the validator, but never blocks acceptance.
	since := p.now().Add(-ProximityWindow)
	recent, err := p.store.RecentSubmissions(ctx, req.UserID, since)
	if err != nil {
		log.Printf("pipeline: proximity lookup failed: %v", err)
		return Reject(CodePersistence, "Failed to submit. Please try again later.")
	}
	for _, prev := range recent {
		if geo.Haversine(d.lat, d.lon, prev.Latitude, prev.Longitude) <= ProximityRadiusKm {
			return PassWithWarning("Within 100 m of another submission from the past 24 hours.")
		}
	}

	return Pass()
}

func (p *Pipeline) checkTemporal(d *draft) CheckResult {
	if d.meta.TakenAt == nil {
		// No EXIF timestamp means nothing to verify. Known policy gap:
		// photos with stripped metadata bypass this check.
		return Pass()
	}
	age := p.now().Sub(*d.meta.TakenAt)
	if age < 0 {
		age = -age
	}
	if age > MaxPhotoAge {
		return Reject(CodeTemporal, "This photo is too old. Please submit a photo taken within the last hour.")
	}
	return Pass()
}

func (p *Pipeline) persist(ctx context.Context, req Request, d *draft, warning string) (*Outcome, *Error) {
	path, err := p.photos.Save(req.Photo, d.format.Extension())
	if err != nil {
		log.Printf("pipeline: photo save failed: %v", err)
		return nil, &Error{Code: CodePersistence, Message: "Failed to submit. Please try again later."}
	}

	sub := &models.Submission{
		UserID:           req.UserID,
		BarangayID:       req.BarangayID,
		PlantingSiteID:   d.siteID,
		TreesPlanted:     d.trees,
		PhotoPath:        path,
		PhotoHash:        d.hash,
		PhotoTakenAt:     d.meta.TakenAt,
		Latitude:         d.lat,
		Longitude:        d.lon,
		LocationAccuracy: d.accuracy,
		DeviceInfo:       req.UserAgent,
		IPAddress:        req.RemoteAddr,
		Notes:            req.Notes,
		Status:           models.StatusPending,
		Flagged:          warning != "",
	}

	desc := fmt.Sprintf("Submitted a tree planting of %d trees.", d.trees)
	if warning != "" {
		desc += " " + warning
	}

	if err := p.store.CreateSubmission(ctx, sub, desc); err != nil {
		if errors.Is(err, ErrDuplicatePhoto) {
			return nil, &Error{Code: CodeDuplicate, Message: "You have already submitted this photo."}
		}
		log.Printf("pipeline: submission write failed: %v", err)
		return nil, &Error{Code: CodePersistence, Message: "Failed to submit. Please try again later."}
	}

	return &Outcome{Submission: sub, Warning: warning}, nil
}
