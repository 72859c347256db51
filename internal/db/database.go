package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"green-roots/internal/models"
	"green-roots/internal/pipeline"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInsufficientPoints = errors.New("not enough eco points")
	ErrAlreadyReviewed    = errors.New("submission already reviewed")
	ErrAlreadyRSVPed      = errors.New("already joined this event")
)

const uniqueViolation = "23505"

type Database struct {
	Pool *pgxpool.Pool
}

func New() (*Database, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	db := &Database{Pool: pool}
	if err := db.initSchema(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *Database) initSchema() error {
	ctx := context.Background()

	schema := `
	CREATE TABLE IF NOT EXISTS barangays (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT NOT NULL,
		UNIQUE(name, city)
	);

	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		nickname TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT DEFAULT 'citizen',
		barangay_id INT REFERENCES barangays(id),
		trees_planted INT NOT NULL DEFAULT 0,
		co2_offset_kg INT NOT NULL DEFAULT 0,
		eco_points INT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS planting_sites (
		id SERIAL PRIMARY KEY,
		barangay_id INT REFERENCES barangays(id) ON DELETE CASCADE,
		latitude FLOAT NOT NULL,
		longitude FLOAT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id SERIAL PRIMARY KEY,
		user_id INT REFERENCES users(id) ON DELETE CASCADE,
		barangay_id INT REFERENCES barangays(id),
		planting_site_id INT REFERENCES planting_sites(id),
		trees_planted INT NOT NULL,
		photo_path TEXT NOT NULL,
		photo_hash TEXT NOT NULL,
		photo_taken_at TIMESTAMP,
		latitude FLOAT NOT NULL,
		longitude FLOAT NOT NULL,
		location_accuracy FLOAT NOT NULL,
		device_info TEXT,
		ip_address TEXT,
		notes TEXT,
		status TEXT DEFAULT 'pending',
		flagged BOOLEAN NOT NULL DEFAULT FALSE,
		rejection_reason TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, photo_hash)
	);

	CREATE TABLE IF NOT EXISTS activity_logs (
		id SERIAL PRIMARY KEY,
		user_id INT REFERENCES users(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS redemptions (
		id SERIAL PRIMARY KEY,
		reference TEXT UNIQUE NOT NULL,
		user_id INT REFERENCES users(id) ON DELETE CASCADE,
		reward_id TEXT NOT NULL,
		point_cost INT NOT NULL,
		status TEXT DEFAULT 'pending',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS events (
		id SERIAL PRIMARY KEY,
		barangay_id INT REFERENCES barangays(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		location TEXT NOT NULL,
		starts_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS event_rsvps (
		id SERIAL PRIMARY KEY,
		event_id INT REFERENCES events(id) ON DELETE CASCADE,
		user_id INT REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(event_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id SERIAL PRIMARY KEY,
		user_id INT REFERENCES users(id) ON DELETE CASCADE,
		subject TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions(user_id);
	CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
	CREATE INDEX IF NOT EXISTS idx_sites_barangay ON planting_sites(barangay_id, updated_at);
	CREATE INDEX IF NOT EXISTS idx_activity_user ON activity_logs(user_id);
	CREATE INDEX IF NOT EXISTS idx_rsvps_event ON event_rsvps(event_id);
	`

	_, err := db.Pool.Exec(ctx, schema)
	if err != nil {
		return err
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO barangays (name, city) VALUES
			('San Isidro', 'Quezon City'),
			('Bagong Silang', 'Caloocan'),
			('Poblacion', 'Davao City')
		 ON CONFLICT (name, city) DO NOTHING`)

	return err
}

func (db *Database) CreateUser(ctx context.Context, email, nickname, passwordHash string, barangayID int) (*models.User, error) {
	var user models.User

	err := db.Pool.QueryRow(ctx,
		`INSERT INTO users (email, nickname, password_hash, role, barangay_id)
		 VALUES ($1, $2, $3, 'citizen', $4)
		 RETURNING id, email, nickname, role, barangay_id, trees_planted, co2_offset_kg, eco_points, created_at`,
		email, nickname, passwordHash, barangayID,
	).Scan(&user.ID, &user.Email, &user.Nickname, &user.Role, &user.BarangayID,
		&user.TreesPlanted, &user.CO2OffsetKg, &user.EcoPoints, &user.CreatedAt)

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (db *Database) CreateAdmin(ctx context.Context, email, nickname, passwordHash string, barangayID int) (*models.User, error) {
	var user models.User

	err := db.Pool.QueryRow(ctx,
		`INSERT INTO users (email, nickname, password_hash, role, barangay_id)
		 VALUES ($1, $2, $3, 'admin', $4)
		 RETURNING id, email, nickname, role, barangay_id, trees_planted, co2_offset_kg, eco_points, created_at`,
		email, nickname, passwordHash, barangayID,
	).Scan(&user.ID, &user.Email, &user.Nickname, &user.Role, &user.BarangayID,
		&user.TreesPlanted, &user.CO2OffsetKg, &user.EcoPoints, &user.CreatedAt)

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (db *Database) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	err := db.Pool.QueryRow(ctx,
		`SELECT id, email, nickname, password_hash, role, barangay_id, trees_planted, co2_offset_kg, eco_points, created_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.Nickname, &user.PasswordHash, &user.Role, &user.BarangayID,
		&user.TreesPlanted, &user.CO2OffsetKg, &user.EcoPoints, &user.CreatedAt)

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (db *Database) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User

	err := db.Pool.QueryRow(ctx,
		`SELECT id, email, nickname, role, barangay_id, trees_planted, co2_offset_kg, eco_points, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.Nickname, &user.Role, &user.BarangayID,
		&user.TreesPlanted, &user.CO2OffsetKg, &user.EcoPoints, &user.CreatedAt)

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (db *Database) UpdateUserRole(ctx context.Context, userID int, role string) error {
	_, err := db.Pool.Exec(ctx, "UPDATE users SET role = $1 WHERE id = $2", role, userID)
	return err
}

func (db *Database) ListBarangays(ctx context.Context) ([]models.Barangay, error) {
	rows, err := db.Pool.Query(ctx, "SELECT id, name, city FROM barangays ORDER BY city, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var barangays []models.Barangay
	for rows.Next() {
		var b models.Barangay
		if err := rows.Scan(&b.ID, &b.Name, &b.City); err != nil {
			return nil, err
		}
		barangays = append(barangays, b)
	}

	return barangays, rows.Err()
}

// CurrentPlantingSite returns the most recently updated site for a barangay,
// or nil when none has been designated yet.
func (db *Database) CurrentPlantingSite(ctx context.Context, barangayID int) (*models.PlantingSite, error) {
	var site models.PlantingSite

	err := db.Pool.QueryRow(ctx,
		`SELECT id, barangay_id, latitude, longitude, updated_at
		 FROM planting_sites
		 WHERE barangay_id = $1
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		barangayID,
	).Scan(&site.ID, &site.BarangayID, &site.Latitude, &site.Longitude, &site.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &site, nil
}

// ListCurrentSites returns the authoritative (most recently updated) site of
// every barangay that has one.
func (db *Database) ListCurrentSites(ctx context.Context) ([]models.PlantingSite, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT ON (s.barangay_id)
		        s.id, s.barangay_id, s.latitude, s.longitude, s.updated_at, b.name, b.city
		 FROM planting_sites s
		 JOIN barangays b ON s.barangay_id = b.id
		 ORDER BY s.barangay_id, s.updated_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []models.PlantingSite
	for rows.Next() {
		var s models.PlantingSite
		if err := rows.Scan(&s.ID, &s.BarangayID, &s.Latitude, &s.Longitude,
			&s.UpdatedAt, &s.BarangayName, &s.BarangayCity); err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}

	return sites, rows.Err()
}

func (db *Database) CreatePlantingSite(ctx context.Context, barangayID int, lat, lon float64) error {
	_, err := db.Pool.Exec(ctx,
		"INSERT INTO planting_sites (barangay_id, latitude, longitude) VALUES ($1, $2, $3)",
		barangayID, lat, lon,
	)
	return err
}

func (db *Database) HasPhotoHash(ctx context.Context, userID int, hash string) (bool, error) {
	var count int

	err := db.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM submissions WHERE user_id = $1 AND photo_hash = $2",
		userID, hash,
	).Scan(&count)

	return count > 0, err
}

func (db *Database) RecentSubmissions(ctx context.Context, userID int, since time.Time) ([]models.Submission, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, trees_planted, latitude, longitude, status, flagged, created_at
		 FROM submissions
		 WHERE user_id = $1 AND created_at >= $2
		 ORDER BY created_at DESC`,
		userID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(&s.ID, &s.UserID, &s.TreesPlanted, &s.Latitude, &s.Longitude,
			&s.Status, &s.Flagged, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}

	return subs, rows.Err()
}

// CreateSubmission inserts the submission, bumps the owner's cumulative
// counters, and appends the activity-log entry in one transaction. Any
// failure rolls back the whole triplet. A (user_id, photo_hash) unique
// violation comes back as pipeline.ErrDuplicatePhoto.
func (db *Database) CreateSubmission(ctx context.Context, sub *models.Submission, logDescription string) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO submissions
			(user_id, barangay_id, planting_site_id, trees_planted, photo_path, photo_hash,
			 photo_taken_at, latitude, longitude, location_accuracy, device_info, ip_address,
			 notes, status, flagged)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id, created_at`,
		sub.UserID, sub.BarangayID, sub.PlantingSiteID, sub.TreesPlanted, sub.PhotoPath,
		sub.PhotoHash, sub.PhotoTakenAt, sub.Latitude, sub.Longitude, sub.LocationAccuracy,
		sub.DeviceInfo, sub.IPAddress, sub.Notes, sub.Status, sub.Flagged,
	).Scan(&sub.ID, &sub.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return pipeline.ErrDuplicatePhoto
		}
		return err
	}

	_, err = tx.Exec(ctx,
		"UPDATE users SET trees_planted = trees_planted + $1, co2_offset_kg = co2_offset_kg + $2 WHERE id = $3",
		sub.TreesPlanted, sub.TreesPlanted*models.CO2KgPerTree, sub.UserID,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO activity_logs (user_id, description, category) VALUES ($1, $2, $3)",
		sub.UserID, logDescription, "submission",
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (db *Database) LogActivity(ctx context.Context, userID int, description, category string) error {
	_, err := db.Pool.Exec(ctx,
		"INSERT INTO activity_logs (user_id, description, category) VALUES ($1, $2, $3)",
		userID, description, category,
	)
	return err
}

func (db *Database) GetUserActivity(ctx context.Context, userID, limit int) ([]models.ActivityLog, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, description, category, created_at
		 FROM activity_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ActivityLog
	for rows.Next() {
		var l models.ActivityLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Description, &l.Category, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

func (db *Database) GetUserSubmissions(ctx context.Context, userID int) ([]models.Submission, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, barangay_id, trees_planted, photo_path, latitude, longitude,
		        status, flagged, rejection_reason, created_at
		 FROM submissions
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(&s.ID, &s.UserID, &s.BarangayID, &s.TreesPlanted, &s.PhotoPath,
			&s.Latitude, &s.Longitude, &s.Status, &s.Flagged, &s.RejectionReason, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}

	return subs, rows.Err()
}

func (db *Database) GetPendingSubmissions(ctx context.Context) ([]models.Submission, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT s.id, s.user_id, u.nickname, s.barangay_id, b.name, s.trees_planted,
		        s.photo_path, s.latitude, s.longitude, s.location_accuracy, s.notes,
		        s.flagged, s.created_at
		 FROM submissions s
		 JOIN users u ON s.user_id = u.id
		 JOIN barangays b ON s.barangay_id = b.id
		 WHERE s.status = 'pending'
		 ORDER BY s.flagged DESC, s.created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(&s.ID, &s.UserID, &s.UserNickname, &s.BarangayID, &s.BarangayName,
			&s.TreesPlanted, &s.PhotoPath, &s.Latitude, &s.Longitude, &s.LocationAccuracy,
			&s.Notes, &s.Flagged, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}

	return subs, rows.Err()
}

// ReviewSubmission moves a pending submission to approved or rejected.
// Approval grants the eco points; rejection takes back the optimistic
// trees/CO2 counter increments made at submission time. The status row lock
// keeps a submission from being reviewed twice.
func (db *Database) ReviewSubmission(ctx context.Context, submissionID int, approve bool, reason string) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var userID, trees int
	var status string
	err = tx.QueryRow(ctx,
		"SELECT user_id, trees_planted, status FROM submissions WHERE id = $1 FOR UPDATE",
		submissionID,
	).Scan(&userID, &trees, &status)
	if err != nil {
		return err
	}
	if status != models.StatusPending {
		return ErrAlreadyReviewed
	}

	if approve {
		_, err = tx.Exec(ctx,
			"UPDATE submissions SET status = $1 WHERE id = $2",
			models.StatusApproved, submissionID,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			"UPDATE users SET eco_points = eco_points + $1 WHERE id = $2",
			trees*models.EcoPointsPerTree, userID,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			"INSERT INTO activity_logs (user_id, description, category) VALUES ($1, $2, $3)",
			userID,
			fmt.Sprintf("Planting of %d trees approved. Earned %d eco points.", trees, trees*models.EcoPointsPerTree),
			"review",
		)
		if err != nil {
			return err
		}
	} else {
		_, err = tx.Exec(ctx,
			"UPDATE submissions SET status = $1, rejection_reason = $2 WHERE id = $3",
			models.StatusRejected, reason, submissionID,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			"UPDATE users SET trees_planted = trees_planted - $1, co2_offset_kg = co2_offset_kg - $2 WHERE id = $3",
			trees, trees*models.CO2KgPerTree, userID,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			"INSERT INTO activity_logs (user_id, description, category) VALUES ($1, $2, $3)",
			userID,
			fmt.Sprintf("Planting of %d trees rejected: %s", trees, reason),
			"review",
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (db *Database) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT u.nickname, b.name, u.trees_planted, u.co2_offset_kg, u.eco_points
		 FROM users u
		 JOIN barangays b ON u.barangay_id = b.id
		 WHERE u.role = 'citizen'
		 ORDER BY u.trees_planted DESC, u.eco_points DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	rank := 0
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.Nickname, &e.BarangayName, &e.TreesPlanted, &e.CO2OffsetKg, &e.EcoPoints); err != nil {
			return nil, err
		}
		rank++
		e.Rank = rank
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// CreateRedemption deducts the reward's point cost and records the voucher
// in one transaction. The conditional UPDATE doubles as the balance check.
func (db *Database) CreateRedemption(ctx context.Context, userID int, reward models.Reward, reference string) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		"UPDATE users SET eco_points = eco_points - $1 WHERE id = $2 AND eco_points >= $1",
		reward.PointCost, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientPoints
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO redemptions (reference, user_id, reward_id, point_cost) VALUES ($1, $2, $3, $4)",
		reference, userID, reward.ID, reward.PointCost,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO activity_logs (user_id, description, category) VALUES ($1, $2, $3)",
		userID, fmt.Sprintf("Redeemed %s for %d eco points.", reward.Title, reward.PointCost), "redemption",
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (db *Database) GetUserRedemptions(ctx context.Context, userID int) ([]models.Redemption, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, reference, user_id, reward_id, point_cost, status, created_at
		 FROM redemptions
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var redemptions []models.Redemption
	for rows.Next() {
		var r models.Redemption
		if err := rows.Scan(&r.ID, &r.Reference, &r.UserID, &r.RewardID, &r.PointCost, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		redemptions = append(redemptions, r)
	}

	return redemptions, rows.Err()
}

func (db *Database) ListUpcomingEvents(ctx context.Context, userID int) ([]models.Event, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT e.id, e.barangay_id, e.title, e.description, e.location, e.starts_at, e.created_at,
		        COUNT(r.id) AS rsvp_count,
		        BOOL_OR(r.user_id = $1) AS has_rsvped
		 FROM events e
		 LEFT JOIN event_rsvps r ON e.id = r.event_id
		 WHERE e.starts_at >= NOW()
		 GROUP BY e.id
		 ORDER BY e.starts_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		var hasRSVPed *bool
		if err := rows.Scan(&e.ID, &e.BarangayID, &e.Title, &e.Description, &e.Location,
			&e.StartsAt, &e.CreatedAt, &e.RSVPCount, &hasRSVPed); err != nil {
			return nil, err
		}
		if hasRSVPed != nil {
			e.HasRSVPed = *hasRSVPed
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (db *Database) CreateEvent(ctx context.Context, barangayID int, title, description, location string, startsAt time.Time) error {
	_, err := db.Pool.Exec(ctx,
		"INSERT INTO events (barangay_id, title, description, location, starts_at) VALUES ($1, $2, $3, $4, $5)",
		barangayID, title, description, location, startsAt,
	)
	return err
}

func (db *Database) CreateRSVP(ctx context.Context, eventID, userID int) error {
	_, err := db.Pool.Exec(ctx,
		"INSERT INTO event_rsvps (event_id, user_id) VALUES ($1, $2)",
		eventID, userID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyRSVPed
		}
	}
	return err
}

func (db *Database) CreateFeedback(ctx context.Context, userID int, subject, message string) error {
	_, err := db.Pool.Exec(ctx,
		"INSERT INTO feedback (user_id, subject, message) VALUES ($1, $2, $3)",
		userID, subject, message,
	)
	return err
}

func (db *Database) ListFeedback(ctx context.Context, limit int) ([]models.Feedback, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, subject, message, created_at
		 FROM feedback
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Feedback
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Subject, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, f)
	}

	return items, rows.Err()
}

func (db *Database) Close() {
	db.Pool.Close()
}
