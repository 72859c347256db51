package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	BarangayID   int       `json:"barangay_id"`
	TreesPlanted int       `json:"trees_planted"`
	CO2OffsetKg  int       `json:"co2_offset_kg"`
	EcoPoints    int       `json:"eco_points"`
	CreatedAt    time.Time `json:"created_at"`
}

type Barangay struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// PlantingSite is the barangay-designated location submissions are checked
// against. A barangay may keep many historical rows; only the most recently
// updated one is authoritative.
type PlantingSite struct {
	ID         int       `json:"id"`
	BarangayID int       `json:"barangay_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Joined for listing and the sites API.
	BarangayName string `json:"barangay_name,omitempty"`
	BarangayCity string `json:"barangay_city,omitempty"`
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Point-economy policy parameters. 22 kg is the assumed yearly CO2 offset of
// one planted tree; it is a fixed policy figure, not a derived value.
const (
	CO2KgPerTree     = 22
	EcoPointsPerTree = 10
)

type Submission struct {
	ID               int        `json:"id"`
	UserID           int        `json:"user_id"`
	BarangayID       int        `json:"barangay_id"`
	PlantingSiteID   int        `json:"planting_site_id"`
	TreesPlanted     int        `json:"trees_planted"`
	PhotoPath        string     `json:"photo_path"`
	PhotoHash        string     `json:"photo_hash"`
	PhotoTakenAt     *time.Time `json:"photo_taken_at,omitempty"`
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	LocationAccuracy float64    `json:"location_accuracy"`
	DeviceInfo       string     `json:"device_info"`
	IPAddress        string     `json:"ip_address"`
	Notes            string     `json:"notes"`
	Status           string     `json:"status"`
	Flagged          bool       `json:"flagged"`
	RejectionReason  *string    `json:"rejection_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`

	// Joined fields for listing pages.
	UserNickname string `json:"user_nickname,omitempty"`
	BarangayName string `json:"barangay_name,omitempty"`
}

type ActivityLog struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

type Reward struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PointCost   int    `json:"point_cost"`
	Icon        string `json:"icon"`
}

type Redemption struct {
	ID        int       `json:"id"`
	Reference string    `json:"reference"`
	UserID    int       `json:"user_id"`
	RewardID  string    `json:"reward_id"`
	PointCost int       `json:"point_cost"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Event struct {
	ID          int       `json:"id"`
	BarangayID  int       `json:"barangay_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	CreatedAt   time.Time `json:"created_at"`
	RSVPCount   int       `json:"rsvp_count"`
	HasRSVPed   bool      `json:"has_rsvped"`
}

type Feedback struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	Nickname     string `json:"nickname"`
	BarangayName string `json:"barangay_name"`
	TreesPlanted int    `json:"trees_planted"`
	CO2OffsetKg  int    `json:"co2_offset_kg"`
	EcoPoints    int    `json:"eco_points"`
}
