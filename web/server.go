// Package web serves the project catalog, generated assets, and the
// SoundCloud publish flow over HTTP.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"releasedrop/soundcloud"
	"releasedrop/util"
)

// QueueStatusFunc reports pending imports and whether the import worker is
// running.
type QueueStatusFunc func() (int, bool)

// Server exposes the HTTP API over the project database.
type Server struct {
	cfg util.Config
	db  *util.Database
	sc  *soundcloud.Client

	// QueueStatus, when set, backs the /queue endpoint.
	QueueStatus QueueStatusFunc

	mu     sync.Mutex
	states map[string]time.Time
}

// NewServer wires the API around the database and SoundCloud client.
func NewServer(cfg util.Config, db *util.Database, sc *soundcloud.Client) *Server {
	return &Server{
		cfg:    cfg,
		db:     db,
		sc:     sc,
		states: make(map[string]time.Time),
	}
}

// Routes builds the request mux. Exposed separately so tests can drive the
// handlers without a listening socket.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/queue", s.handleQueue)

	mux.HandleFunc("/projects", s.handleListProjects)
	mux.HandleFunc("/projects/get", s.handleGetProject)
	mux.HandleFunc("/projects/update", s.handleUpdateProject)
	mux.HandleFunc("/projects/delete", s.handleDeleteProject)

	mux.Handle("/previews/", http.StripPrefix("/previews/",
		http.FileServer(http.Dir(filepath.Join(s.cfg.DataDir, "previews")))))
	mux.Handle("/covers/", http.StripPrefix("/covers/",
		http.FileServer(http.Dir(filepath.Join(s.cfg.DataDir, "covers")))))

	mux.HandleFunc("/soundcloud/connect", s.handleConnect)
	mux.HandleFunc("/soundcloud/callback", s.handleCallback)
	mux.HandleFunc("/soundcloud/status", s.handleAuthStatus)
	mux.HandleFunc("/soundcloud/disconnect", s.handleDisconnect)
	mux.HandleFunc("/upload", s.handleUpload)

	return mux
}

// ListenAndServe starts the server on the configured port.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Server starting on %s\n", addr)
	return http.ListenAndServe(addr, s.Routes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Printf("Error encoding response: %v\n", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>ReleaseDrop</title></head>
<body>
<h1>ReleaseDrop</h1>
<p>Project catalog and preview server.</p>
<ul>
<li><strong>GET /projects</strong> - list projects (status, search, min_bpm, max_bpm)</li>
<li><strong>GET /projects/get?id=N</strong> - one project</li>
<li><strong>POST /projects/update</strong> - edit status/genre/vibe/tags</li>
<li><strong>GET /previews/N.mp3</strong>, <strong>GET /covers/N.png</strong> - generated assets</li>
<li><strong>GET /soundcloud/connect</strong> - link a SoundCloud account</li>
<li><strong>POST /upload?id=N</strong> - publish a preview</li>
</ul>
</body>
</html>
`))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	projects, err := s.db.ListProjects(util.ProjectFilter{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	byStatus := make(map[string]int)
	withPreview := 0
	for _, p := range projects {
		byStatus[p.Status]++
		if p.PreviewPath != nil {
			withPreview++
		}
	}

	stats := map[string]any{
		"projects":     len(projects),
		"by_status":    byStatus,
		"with_preview": withPreview,
	}
	if total, _, free, err := util.Usage(s.cfg.DataDir); err == nil {
		stats["disk_total"] = util.Pretty(total)
		stats["disk_free"] = util.Pretty(free)
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	if s.QueueStatus == nil {
		writeJSON(w, http.StatusOK, map[string]any{"pending": 0, "processing": false})
		return
	}
	pending, running := s.QueueStatus()
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending, "processing": running})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filter := util.ProjectFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
	}
	if v := q.Get("min_bpm"); v != "" {
		filter.MinBPM, _ = strconv.ParseFloat(v, 64)
	}
	if v := q.Get("max_bpm"); v != "" {
		filter.MaxBPM, _ = strconv.ParseFloat(v, 64)
	}

	projects, err := s.db.ListProjects(filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if projects == nil {
		projects = []util.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) projectFromQuery(w http.ResponseWriter, r *http.Request) (*util.Project, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid or missing 'id'", http.StatusBadRequest)
		return nil, false
	}
	p, ok := s.db.GetProject(id)
	if !ok {
		http.Error(w, "Project not found", http.StatusNotFound)
		return nil, false
	}
	return p, true
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, ok := s.projectFromQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID     int64   `json:"id"`
		Status *string `json:"status"`
		Genre  *string `json:"genre"`
		Vibe   *string `json:"vibe"`
		Tags   *string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if _, ok := s.db.GetProject(req.ID); !ok {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	if err := s.db.UpdateProjectMeta(req.ID, req.Status, req.Genre, req.Vibe, req.Tags); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	p, _ := s.db.GetProject(req.ID)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, ok := s.projectFromQuery(w, r)
	if !ok {
		return
	}

	if err := s.db.DeleteProject(p.ID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	os.Remove(s.cfg.PreviewPath(p.ID))
	os.Remove(s.cfg.CoverPath(p.ID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if !s.sc.Configured() {
		http.Error(w, "SoundCloud credentials not configured", http.StatusServiceUnavailable)
		return
	}

	authURL, state := s.sc.AuthorizeURL()

	s.mu.Lock()
	s.states[state] = time.Now()
	for st, at := range s.states {
		if time.Since(at) > 10*time.Minute {
			delete(s.states, st)
		}
	}
	s.mu.Unlock()

	http.Redirect(w, r, authURL, http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")

	s.mu.Lock()
	_, known := s.states[state]
	delete(s.states, state)
	s.mu.Unlock()

	if !known {
		http.Error(w, "Unknown state", http.StatusBadRequest)
		return
	}
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := s.sc.ExchangeCode(r.Context(), code)
	if err != nil {
		http.Error(w, fmt.Sprintf("Token exchange failed: %v", err), http.StatusBadGateway)
		return
	}

	auth := &util.SoundCloudAuth{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if token.ExpiresIn > 0 {
		t := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
		auth.ExpiresAt = &t
	}
	if user, err := s.sc.Me(r.Context(), token.AccessToken); err == nil {
		auth.UserID = strconv.FormatInt(user.ID, 10)
		auth.Username = user.Username
	}

	if err := s.db.SaveSoundCloudAuth(auth); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	fmt.Printf("SoundCloud account connected: %s\n", auth.Username)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "connected",
		"username": auth.Username,
	})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	auth, ok := s.db.GetSoundCloudAuth()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"connected": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"connected": true,
		"username":  auth.Username,
	})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.db.DeleteSoundCloudAuth(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

// accessToken returns a usable token, refreshing an expired one first.
func (s *Server) accessToken(ctx context.Context) (string, error) {
	auth, ok := s.db.GetSoundCloudAuth()
	if !ok {
		return "", fmt.Errorf("no SoundCloud account connected")
	}

	if auth.ExpiresAt != nil && time.Now().After(*auth.ExpiresAt) && auth.RefreshToken != "" {
		token, err := s.sc.Refresh(ctx, auth.RefreshToken)
		if err != nil {
			return "", fmt.Errorf("token refresh failed: %v", err)
		}
		auth.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			auth.RefreshToken = token.RefreshToken
		}
		if token.ExpiresIn > 0 {
			t := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
			auth.ExpiresAt = &t
		}
		if err := s.db.SaveSoundCloudAuth(auth); err != nil {
			return "", err
		}
	}
	return auth.AccessToken, nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, ok := s.projectFromQuery(w, r)
	if !ok {
		return
	}
	if p.PreviewPath == nil {
		http.Error(w, "Project has no preview to upload", http.StatusConflict)
		return
	}
	if _, err := os.Stat(*p.PreviewPath); err != nil {
		http.Error(w, "Preview file is missing on disk", http.StatusConflict)
		return
	}

	token, err := s.accessToken(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	meta := soundcloud.TrackMetadata{
		Title:   p.Name,
		Sharing: "public",
	}
	if p.Genre != nil {
		meta.Genre = *p.Genre
	}
	if p.Tags != nil {
		meta.TagList = *p.Tags
	}
	if p.BPM != nil {
		meta.BPM = int(math.Round(*p.BPM))
	}
	if p.CoverPath != nil {
		meta.ArtworkPath = *p.CoverPath
	}

	track, err := s.sc.UploadTrack(r.Context(), token, *p.PreviewPath, meta)
	if err != nil {
		http.Error(w, fmt.Sprintf("Upload failed: %v", err), http.StatusBadGateway)
		return
	}

	if err := s.db.SetProjectSoundCloudURL(p.ID, track.PermalinkURL); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	fmt.Printf("Uploaded project %d to SoundCloud: %s\n", p.ID, track.PermalinkURL)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "uploaded",
		"url":    track.PermalinkURL,
	})
}
