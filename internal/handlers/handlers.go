package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"green-roots/internal/auth"
	"green-roots/internal/db"
	"green-roots/internal/models"
	"green-roots/internal/pipeline"
	"green-roots/internal/rewards"
	"green-roots/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const maxUploadBytes = 52 << 20 // multipart overhead on top of the 50 MB photo cap

type Handler struct {
	DB        *db.Database
	Store     *sessions.CookieStore
	Templates *template.Template
	Pipeline  *pipeline.Pipeline
}

func New(database *db.Database, store *sessions.CookieStore) *Handler {
	tmpl := template.Must(template.ParseGlob("templates/*.html"))
	return &Handler{
		DB:        database,
		Store:     store,
		Templates: tmpl,
		Pipeline:  pipeline.New(database, storage.NewPhotoStore()),
	}
}

func (h *Handler) fragmentError(w http.ResponseWriter, target, msg string) {
	w.Header().Set("HX-Retarget", target)
	w.Header().Set("HX-Reswap", "innerHTML")
	fmt.Fprintf(w, `<div class="text-red-600 text-sm">%s</div>`, template.HTMLEscapeString(msg))
}

func (h *Handler) currentUser(r *http.Request) (userID int, role string, ok bool) {
	session, _ := h.Store.Get(r, "session")
	id, isInt := session.Values["user_id"].(int)
	if !isInt {
		return 0, "", false
	}
	role, _ = session.Values["role"].(string)
	return id, role, true
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	_, role, loggedIn := h.currentUser(r)

	leaders, err := h.DB.GetLeaderboard(r.Context(), 5)
	if err != nil {
		leaders = []models.LeaderboardEntry{}
	}

	data := map[string]interface{}{
		"LoggedIn": loggedIn,
		"Role":     role,
		"Leaders":  leaders,
	}

	h.Templates.ExecuteTemplate(w, "index.html", data)
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	barangays, err := h.DB.ListBarangays(r.Context())
	if err != nil {
		barangays = []models.Barangay{}
	}

	h.Templates.ExecuteTemplate(w, "register.html", map[string]interface{}{
		"Barangays": barangays,
	})
}

func (h *Handler) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	nickname := r.FormValue("nickname")
	password := r.FormValue("password")
	confirmPassword := r.FormValue("confirm_password")
	barangayID, _ := strconv.Atoi(r.FormValue("barangay_id"))

	if password != confirmPassword {
		h.fragmentError(w, "#error", "Passwords do not match")
		return
	}

	if err := auth.ValidatePassword(password); err != nil {
		h.fragmentError(w, "#error", err.Error())
		return
	}

	if barangayID == 0 {
		h.fragmentError(w, "#error", "Please select your barangay")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.fragmentError(w, "#error", "Server error")
		return
	}

	user, err := h.DB.CreateUser(r.Context(), email, nickname, hash, barangayID)
	if err != nil {
		h.fragmentError(w, "#error", "Email is already registered")
		return
	}

	session, _ := h.Store.Get(r, "session")
	session.Values["user_id"] = user.ID
	session.Values["email"] = user.Email
	session.Values["role"] = user.Role
	session.Values["barangay_id"] = user.BarangayID
	session.Save(r, w)

	w.Header().Set("HX-Redirect", "/")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.Templates.ExecuteTemplate(w, "login.html", map[string]interface{}{})
}

func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	user, err := h.DB.GetUserByEmail(r.Context(), email)
	if err != nil {
		h.fragmentError(w, "#error", "Invalid email or password")
		return
	}

	if err := auth.CheckPassword(password, user.PasswordHash); err != nil {
		h.fragmentError(w, "#error", "Invalid email or password")
		return
	}

	session, _ := h.Store.Get(r, "session")
	session.Values["user_id"] = user.ID
	session.Values["email"] = user.Email
	session.Values["role"] = user.Role
	session.Values["barangay_id"] = user.BarangayID
	session.Save(r, w)

	w.Header().Set("HX-Redirect", "/")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.Store.Get(r, "session")
	session.Options.MaxAge = -1
	session.Save(r, w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) SubmitPage(w http.ResponseWriter, r *http.Request) {
	_, role, loggedIn := h.currentUser(r)

	data := map[string]interface{}{
		"LoggedIn": loggedIn,
		"Role":     role,
	}

	h.Templates.ExecuteTemplate(w, "submit.html", data)
}

// SubmitTree collects the multipart form into a pipeline request and runs
// the validation pipeline. All acceptance policy lives in the pipeline; this
// handler only moves bytes and renders the outcome.
func (h *Handler) SubmitTree(w http.ResponseWriter, r *http.Request) {
	session, _ := h.Store.Get(r, "session")
	userID, ok := session.Values["user_id"].(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	barangayID, _ := session.Values["barangay_id"].(int)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.fragmentError(w, "#error", "Photo is too large. The maximum size is 50 MB.")
			return
		}
		h.fragmentError(w, "#error", "Could not read the form. Please try again.")
		return
	}

	var photoBytes []byte
	var photoName string
	if file, header, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		photoBytes, err = io.ReadAll(file)
		if err != nil {
			h.fragmentError(w, "#error", "Failed to read the uploaded photo. Please try again.")
			return
		}
		photoName = header.Filename
	}

	req := pipeline.Request{
		UserID:           userID,
		BarangayID:       barangayID,
		TreesPlanted:     r.FormValue("trees_planted"),
		Latitude:         r.FormValue("latitude"),
		Longitude:        r.FormValue("longitude"),
		LocationAccuracy: r.FormValue("location_accuracy"),
		Notes:            r.FormValue("submission_notes"),
		Photo:            photoBytes,
		PhotoName:        photoName,
		RemoteAddr:       r.RemoteAddr,
		UserAgent:        r.UserAgent(),
	}

	outcome, perr := h.Pipeline.Run(r.Context(), req)
	if perr != nil {
		h.fragmentError(w, "#error", perr.Message)
		return
	}

	w.Header().Set("HX-Retarget", "#error")
	w.Header().Set("HX-Reswap", "innerHTML")
	fmt.Fprintf(w,
		`<div class="bg-green-100 border border-green-400 text-green-700 px-4 py-3 rounded">Thank you! Your planting of %d trees is pending validation.</div>`,
		outcome.Submission.TreesPlanted)
}

func (h *Handler) MySubmissions(w http.ResponseWriter, r *http.Request) {
	userID, role, loggedIn := h.currentUser(r)
	if !loggedIn {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	subs, err := h.DB.GetUserSubmissions(r.Context(), userID)
	if err != nil {
		subs = []models.Submission{}
	}

	activity, err := h.DB.GetUserActivity(r.Context(), userID, 20)
	if err != nil {
		activity = []models.ActivityLog{}
	}

	user, err := h.DB.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	data := map[string]interface{}{
		"LoggedIn":    true,
		"Role":        role,
		"User":        user,
		"Submissions": subs,
		"Activity":    activity,
	}

	h.Templates.ExecuteTemplate(w, "submissions.html", data)
}

func (h *Handler) LeaderboardPage(w http.ResponseWriter, r *http.Request) {
	_, role, loggedIn := h.currentUser(r)

	entries, err := h.DB.GetLeaderboard(r.Context(), 50)
	if err != nil {
		entries = []models.LeaderboardEntry{}
	}

	data := map[string]interface{}{
		"LoggedIn": loggedIn,
		"Role":     role,
		"Entries":  entries,
	}

	h.Templates.ExecuteTemplate(w, "leaderboard.html", data)
}

func (h *Handler) RewardsPage(w http.ResponseWriter, r *http.Request) {
	userID, role, loggedIn := h.currentUser(r)
	if !loggedIn {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := h.DB.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	redemptions, err := h.DB.GetUserRedemptions(r.Context(), userID)
	if err != nil {
		redemptions = []models.Redemption{}
	}

	data := map[string]interface{}{
		"LoggedIn":    true,
		"Role":        role,
		"User":        user,
		"Rewards":     rewards.List(),
		"Redemptions": redemptions,
	}

	h.Templates.ExecuteTemplate(w, "rewards.html", data)
}

func (h *Handler) RedeemSubmit(w http.ResponseWriter, r *http.Request) {
	userID, _, loggedIn := h.currentUser(r)
	if !loggedIn {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reward, exists := rewards.Get(r.FormValue("reward_id"))
	if !exists {
		h.fragmentError(w, "#redeem-error", "Unknown reward")
		return
	}

	reference := uuid.NewString()
	err := h.DB.CreateRedemption(r.Context(), userID, reward, reference)
	if err == db.ErrInsufficientPoints {
		h.fragmentError(w, "#redeem-error", "You do not have enough eco points for this reward yet")
		return
	}
	if err != nil {
		log.Printf("handlers: redemption failed: %v", err)
		h.fragmentError(w, "#redeem-error", "Failed to redeem. Please try again later.")
		return
	}

	w.Header().Set("HX-Redirect", "/rewards")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) EventsPage(w http.ResponseWriter, r *http.Request) {
	userID, role, loggedIn := h.currentUser(r)

	events, err := h.DB.ListUpcomingEvents(r.Context(), userID)
	if err != nil {
		events = []models.Event{}
	}

	data := map[string]interface{}{
		"LoggedIn": loggedIn,
		"Role":     role,
		"Events":   events,
	}

	h.Templates.ExecuteTemplate(w, "events.html", data)
}

func (h *Handler) RSVPSubmit(w http.ResponseWriter, r *http.Request) {
	userID, _, loggedIn := h.currentUser(r)
	if !loggedIn {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	eventID, _ := strconv.Atoi(r.FormValue("event_id"))

	err := h.DB.CreateRSVP(r.Context(), eventID, userID)
	if err == db.ErrAlreadyRSVPed {
		h.fragmentError(w, "#rsvp-error", "You have already joined this event")
		return
	}
	if err != nil {
		log.Printf("handlers: rsvp failed: %v", err)
		h.fragmentError(w, "#rsvp-error", "Failed to join. Please try again later.")
		return
	}

	w.Header().Set("HX-Redirect", "/events")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) FeedbackPage(w http.ResponseWriter, r *http.Request) {
	_, role, loggedIn := h.currentUser(r)

	data := map[string]interface{}{
		"LoggedIn": loggedIn,
		"Role":     role,
	}

	h.Templates.ExecuteTemplate(w, "feedback.html", data)
}

func (h *Handler) FeedbackSubmit(w http.ResponseWriter, r *http.Request) {
	userID, _, loggedIn := h.currentUser(r)
	if !loggedIn {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	subject := r.FormValue("subject")
	message := r.FormValue("message")
	if subject == "" || message == "" {
		h.fragmentError(w, "#error", "Please fill in both subject and message")
		return
	}

	if err := h.DB.CreateFeedback(r.Context(), userID, subject, message); err != nil {
		log.Printf("handlers: feedback failed: %v", err)
		h.fragmentError(w, "#error", "Failed to send feedback. Please try again later.")
		return
	}

	w.Header().Set("HX-Retarget", "#error")
	w.Header().Set("HX-Reswap", "innerHTML")
	w.Write([]byte(`<div class="text-green-600 text-sm">Thank you for your feedback!</div>`))
}

// APILeaderboard is the read-only JSON counterpart of the leaderboard page.
func (h *Handler) APILeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.DB.GetLeaderboard(r.Context(), 50)
	if err != nil {
		log.Printf("handlers: leaderboard query failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode([]models.LeaderboardEntry{})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// APISites serves the current planting site of every barangay as JSON.
func (h *Handler) APISites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.DB.ListCurrentSites(r.Context())
	if err != nil {
		log.Printf("handlers: sites query failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode([]models.PlantingSite{})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sites)
}

// ReviewQueue lists pending submissions for eco validators, flagged ones
// first.
func (h *Handler) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	_, role, _ := h.currentUser(r)

	subs, err := h.DB.GetPendingSubmissions(r.Context())
	if err != nil {
		subs = []models.Submission{}
	}

	data := map[string]interface{}{
		"LoggedIn":    true,
		"Role":        role,
		"Submissions": subs,
	}

	h.Templates.ExecuteTemplate(w, "review.html", data)
}

func (h *Handler) ReviewSubmit(w http.ResponseWriter, r *http.Request) {
	submissionID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	decision := r.FormValue("decision")
	reason := r.FormValue("reason")

	if decision == "reject" && reason == "" {
		h.fragmentError(w, "#review-error", "A rejection reason is required")
		return
	}

	err := h.DB.ReviewSubmission(r.Context(), submissionID, decision == "approve", reason)
	if err == db.ErrAlreadyReviewed {
		h.fragmentError(w, "#review-error", "This submission has already been reviewed")
		return
	}
	if err != nil {
		log.Printf("handlers: review failed: %v", err)
		h.fragmentError(w, "#review-error", "Failed to save the review. Please try again later.")
		return
	}

	w.Header().Set("HX-Redirect", "/review")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) SitesPage(w http.ResponseWriter, r *http.Request) {
	_, role, _ := h.currentUser(r)

	barangays, err := h.DB.ListBarangays(r.Context())
	if err != nil {
		barangays = []models.Barangay{}
	}

	type siteRow struct {
		Barangay models.Barangay
		Site     *models.PlantingSite
	}
	var sitesData []siteRow
	for _, b := range barangays {
		site, err := h.DB.CurrentPlantingSite(r.Context(), b.ID)
		if err != nil {
			continue
		}
		sitesData = append(sitesData, siteRow{Barangay: b, Site: site})
	}

	data := map[string]interface{}{
		"LoggedIn": true,
		"Role":     role,
		"Sites":    sitesData,
	}

	h.Templates.ExecuteTemplate(w, "sites.html", data)
}

func (h *Handler) SiteSubmit(w http.ResponseWriter, r *http.Request) {
	barangayID, _ := strconv.Atoi(r.FormValue("barangay_id"))
	lat, latErr := strconv.ParseFloat(r.FormValue("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(r.FormValue("longitude"), 64)

	if barangayID == 0 || latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		h.fragmentError(w, "#site-error", "Please provide a barangay and valid coordinates")
		return
	}

	if err := h.DB.CreatePlantingSite(r.Context(), barangayID, lat, lon); err != nil {
		log.Printf("handlers: site create failed: %v", err)
		h.fragmentError(w, "#site-error", "Failed to save the site. Please try again later.")
		return
	}

	w.Header().Set("HX-Redirect", "/admin/sites")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) EventSubmit(w http.ResponseWriter, r *http.Request) {
	barangayID, _ := strconv.Atoi(r.FormValue("barangay_id"))
	title := r.FormValue("title")
	description := r.FormValue("description")
	location := r.FormValue("location")
	startsAt, timeErr := time.Parse("2006-01-02T15:04", r.FormValue("starts_at"))

	if barangayID == 0 || title == "" || location == "" || timeErr != nil {
		h.fragmentError(w, "#event-error", "Please fill in all event details")
		return
	}

	if err := h.DB.CreateEvent(r.Context(), barangayID, title, description, location, startsAt); err != nil {
		log.Printf("handlers: event create failed: %v", err)
		h.fragmentError(w, "#event-error", "Failed to create the event. Please try again later.")
		return
	}

	w.Header().Set("HX-Redirect", "/events")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) FeedbackList(w http.ResponseWriter, r *http.Request) {
	_, role, _ := h.currentUser(r)

	items, err := h.DB.ListFeedback(r.Context(), 100)
	if err != nil {
		items = []models.Feedback{}
	}

	data := map[string]interface{}{
		"LoggedIn": true,
		"Role":     role,
		"Feedback": items,
	}

	h.Templates.ExecuteTemplate(w, "feedback_list.html", data)
}

func (h *Handler) PromoteValidator(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.Atoi(r.FormValue("user_id"))
	if userID == 0 {
		h.fragmentError(w, "#promote-error", "Invalid user")
		return
	}

	if err := h.DB.UpdateUserRole(r.Context(), userID, "validator"); err != nil {
		log.Printf("handlers: promote failed: %v", err)
		h.fragmentError(w, "#promote-error", "Failed to update the role")
		return
	}

	w.Header().Set("HX-Redirect", "/admin/sites")
	w.WriteHeader(http.StatusOK)
}
