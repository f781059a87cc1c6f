package util

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Project is one tracked music project and its generated assets.
type Project struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	ALSPath              *string    `json:"als_path"`
	AudioPath            *string    `json:"audio_path"`
	BPM                  *float64   `json:"bpm"`
	Key                  *string    `json:"key"`
	AudioClipsCount      int        `json:"audio_clips"`
	LongestClipPath      *string    `json:"longest_clip_path"`
	PreviewPath          *string    `json:"preview_path"`
	CoverPath            *string    `json:"cover_path"`
	Status               string     `json:"status"`
	Genre                *string    `json:"genre"`
	Vibe                 *string    `json:"vibe"`
	Tags                 *string    `json:"tags"`
	SoundCloudURL        *string    `json:"soundcloud_url"`
	SoundCloudUploadedAt *time.Time `json:"soundcloud_uploaded_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// SoundCloudAuth is the stored OAuth state for the connected account.
type SoundCloudAuth struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	UserID       string
	Username     string
}

// ProjectFilter narrows ListProjects results. Zero values mean no filter.
type ProjectFilter struct {
	Status string
	Search string
	MinBPM float64
	MaxBPM float64
}

// Database wraps the SQL database with higher-level methods.
type Database struct {
	db *sql.DB
}

// InitDatabase opens (creating if needed) the project database under dataDir.
func InitDatabase(dataDir string) (*Database, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "releasedrop.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		als_path TEXT UNIQUE,
		audio_path TEXT,
		bpm REAL,
		key TEXT,
		audio_clips_count INTEGER DEFAULT 0,
		longest_clip_path TEXT,
		preview_path TEXT,
		cover_path TEXT,
		status TEXT DEFAULT 'idea',
		genre TEXT,
		vibe TEXT,
		tags TEXT,
		soundcloud_url TEXT,
		soundcloud_uploaded_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);
	CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at);
	CREATE TABLE IF NOT EXISTS soundcloud_auth (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		access_token TEXT NOT NULL,
		refresh_token TEXT,
		expires_at INTEGER,
		user_id TEXT,
		username TEXT,
		updated_at INTEGER NOT NULL
	);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// CreateProject inserts a new project record and returns its id.
func (d *Database) CreateProject(p *Project) (int64, error) {
	now := time.Now().Unix()
	if p.Status == "" {
		p.Status = "idea"
	}

	res, err := d.db.Exec(`
		INSERT INTO projects (name, als_path, audio_path, bpm, key, audio_clips_count,
			longest_clip_path, status, genre, vibe, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.ALSPath, p.AudioPath, p.BPM, p.Key, p.AudioClipsCount,
		p.LongestClipPath, p.Status, p.Genre, p.Vibe, p.Tags, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert project: %v", err)
	}
	return res.LastInsertId()
}

// SaveProject updates the parse-derived fields of an existing project.
func (d *Database) SaveProject(p *Project) error {
	_, err := d.db.Exec(`
		UPDATE projects SET name = ?, bpm = ?, key = ?, audio_clips_count = ?,
			longest_clip_path = ?, audio_path = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.BPM, p.Key, p.AudioClipsCount, p.LongestClipPath, p.AudioPath,
		time.Now().Unix(), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %v", err)
	}
	return nil
}

const projectColumns = `id, name, als_path, audio_path, bpm, key, audio_clips_count,
	longest_clip_path, preview_path, cover_path, status, genre, vibe, tags,
	soundcloud_url, soundcloud_uploaded_at, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	var p Project
	var uploadedAt sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&p.ID, &p.Name, &p.ALSPath, &p.AudioPath, &p.BPM, &p.Key,
		&p.AudioClipsCount, &p.LongestClipPath, &p.PreviewPath, &p.CoverPath,
		&p.Status, &p.Genre, &p.Vibe, &p.Tags, &p.SoundCloudURL, &uploadedAt,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if uploadedAt.Valid {
		t := time.Unix(uploadedAt.Int64, 0)
		p.SoundCloudUploadedAt = &t
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

// GetProject looks a project up by id.
func (d *Database) GetProject(id int64) (*Project, bool) {
	row := d.db.QueryRow("SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	p, err := scanProject(row)
	if err != nil {
		return nil, false
	}
	return p, true
}

// GetProjectByALSPath looks a project up by its source .als path.
func (d *Database) GetProjectByALSPath(alsPath string) (*Project, bool) {
	row := d.db.QueryRow("SELECT "+projectColumns+" FROM projects WHERE als_path = ?", alsPath)
	p, err := scanProject(row)
	if err != nil {
		return nil, false
	}
	return p, true
}

// ListProjects returns projects matching the filter, most recently updated
// first.
func (d *Database) ListProjects(f ProjectFilter) ([]Project, error) {
	query := "SELECT " + projectColumns + " FROM projects"
	var conds []string
	var args []any

	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Search != "" {
		conds = append(conds, "name LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}
	if f.MinBPM > 0 {
		conds = append(conds, "bpm >= ?")
		args = append(args, f.MinBPM)
	}
	if f.MaxBPM > 0 {
		conds = append(conds, "bpm <= ?")
		args = append(args, f.MaxBPM)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY updated_at DESC, id DESC"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %v", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %v", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// SetProjectAssets records the generated preview and cover paths. Empty
// strings leave the corresponding field untouched.
func (d *Database) SetProjectAssets(id int64, previewPath, coverPath string) error {
	now := time.Now().Unix()
	if previewPath != "" {
		if _, err := d.db.Exec("UPDATE projects SET preview_path = ?, updated_at = ? WHERE id = ?",
			previewPath, now, id); err != nil {
			return fmt.Errorf("failed to set preview path: %v", err)
		}
	}
	if coverPath != "" {
		if _, err := d.db.Exec("UPDATE projects SET cover_path = ?, updated_at = ? WHERE id = ?",
			coverPath, now, id); err != nil {
			return fmt.Errorf("failed to set cover path: %v", err)
		}
	}
	return nil
}

// UpdateProjectMeta changes the caller-editable fields. Nil pointers leave
// the corresponding field untouched.
func (d *Database) UpdateProjectMeta(id int64, status, genre, vibe, tags *string) error {
	var sets []string
	var args []any

	if status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *status)
	}
	if genre != nil {
		sets = append(sets, "genre = ?")
		args = append(args, *genre)
	}
	if vibe != nil {
		sets = append(sets, "vibe = ?")
		args = append(args, *vibe)
	}
	if tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, *tags)
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().Unix(), id)

	_, err := d.db.Exec("UPDATE projects SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update project: %v", err)
	}
	return nil
}

// SetProjectSoundCloudURL records a finished upload.
func (d *Database) SetProjectSoundCloudURL(id int64, url string) error {
	now := time.Now().Unix()
	_, err := d.db.Exec(`
		UPDATE projects SET soundcloud_url = ?, soundcloud_uploaded_at = ?, updated_at = ?
		WHERE id = ?`, url, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to record upload: %v", err)
	}
	return nil
}

// DeleteProject removes a project record.
func (d *Database) DeleteProject(id int64) error {
	_, err := d.db.Exec("DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %v", err)
	}
	return nil
}

// DeleteProjectByALSPath removes the project tracking the given .als file.
func (d *Database) DeleteProjectByALSPath(alsPath string) error {
	_, err := d.db.Exec("DELETE FROM projects WHERE als_path = ?", alsPath)
	if err != nil {
		return fmt.Errorf("failed to delete project: %v", err)
	}
	return nil
}

// SaveSoundCloudAuth stores the OAuth tokens, replacing any previous ones.
func (d *Database) SaveSoundCloudAuth(a *SoundCloudAuth) error {
	var expiresAt any
	if a.ExpiresAt != nil {
		expiresAt = a.ExpiresAt.Unix()
	}
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO soundcloud_auth (id, access_token, refresh_token, expires_at, user_id, username, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)`,
		a.AccessToken, a.RefreshToken, expiresAt, a.UserID, a.Username, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save auth: %v", err)
	}
	return nil
}

// GetSoundCloudAuth returns the stored OAuth tokens, if any.
func (d *Database) GetSoundCloudAuth() (*SoundCloudAuth, bool) {
	var a SoundCloudAuth
	var refresh, userID, username sql.NullString
	var expiresAt sql.NullInt64

	err := d.db.QueryRow(`
		SELECT access_token, refresh_token, expires_at, user_id, username
		FROM soundcloud_auth WHERE id = 1`).
		Scan(&a.AccessToken, &refresh, &expiresAt, &userID, &username)
	if err != nil {
		return nil, false
	}

	a.RefreshToken = refresh.String
	a.UserID = userID.String
	a.Username = username.String
	if expiresAt.Valid {
		t := time.Unix(expiresAt.Int64, 0)
		a.ExpiresAt = &t
	}
	return &a, true
}

// DeleteSoundCloudAuth disconnects the stored account.
func (d *Database) DeleteSoundCloudAuth() error {
	_, err := d.db.Exec("DELETE FROM soundcloud_auth WHERE id = 1")
	if err != nil {
		return fmt.Errorf("failed to delete auth: %v", err)
	}
	return nil
}
