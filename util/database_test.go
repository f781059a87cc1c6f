package util

import (
	"testing"
	"time"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := InitDatabase(t.TempDir())
	if err != nil {
		t.Fatalf("InitDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestCreateAndGetProject(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CreateProject(&Project{
		Name:            "Night Drive",
		ALSPath:         strPtr("/drop/Night Drive.als"),
		BPM:             floatPtr(124),
		AudioClipsCount: 3,
		LongestClipPath: strPtr("/drop/Samples/lead.wav"),
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if id == 0 {
		t.Fatal("CreateProject returned id 0")
	}

	p, found := db.GetProject(id)
	if !found {
		t.Fatal("GetProject did not find the project")
	}
	if p.Name != "Night Drive" || p.Status != "idea" || p.AudioClipsCount != 3 {
		t.Errorf("unexpected project: %+v", p)
	}
	if p.BPM == nil || *p.BPM != 124 {
		t.Errorf("BPM = %v, want 124", p.BPM)
	}
	if p.PreviewPath != nil {
		t.Errorf("PreviewPath should start unset, got %v", *p.PreviewPath)
	}

	byPath, found := db.GetProjectByALSPath("/drop/Night Drive.als")
	if !found || byPath.ID != id {
		t.Error("GetProjectByALSPath did not find the project")
	}
}

func TestSaveProject(t *testing.T) {
	db := openTestDB(t)

	id, _ := db.CreateProject(&Project{Name: "Draft", ALSPath: strPtr("/drop/d.als")})
	p, _ := db.GetProject(id)

	p.Name = "Final"
	p.BPM = floatPtr(140)
	p.AudioClipsCount = 7
	if err := db.SaveProject(p); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	got, _ := db.GetProject(id)
	if got.Name != "Final" || got.AudioClipsCount != 7 || got.BPM == nil || *got.BPM != 140 {
		t.Errorf("after save: %+v", got)
	}
}

func TestSetProjectAssets(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreateProject(&Project{Name: "A"})

	if err := db.SetProjectAssets(id, "data/previews/1.mp3", ""); err != nil {
		t.Fatalf("SetProjectAssets: %v", err)
	}
	p, _ := db.GetProject(id)
	if p.PreviewPath == nil || *p.PreviewPath != "data/previews/1.mp3" {
		t.Errorf("PreviewPath = %v", p.PreviewPath)
	}
	if p.CoverPath != nil {
		t.Errorf("CoverPath should stay unset, got %v", *p.CoverPath)
	}

	if err := db.SetProjectAssets(id, "", "data/covers/1.png"); err != nil {
		t.Fatalf("SetProjectAssets: %v", err)
	}
	p, _ = db.GetProject(id)
	if p.CoverPath == nil || *p.CoverPath != "data/covers/1.png" {
		t.Errorf("CoverPath = %v", p.CoverPath)
	}
}

func TestListProjectsFilters(t *testing.T) {
	db := openTestDB(t)

	db.CreateProject(&Project{Name: "Slow Burn", BPM: floatPtr(90), Status: "idea"})
	db.CreateProject(&Project{Name: "Fast Lane", BPM: floatPtr(150), Status: "released"})
	db.CreateProject(&Project{Name: "Mid Tempo", BPM: floatPtr(120), Status: "idea"})

	all, err := db.ListProjects(ProjectFilter{})
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d projects, want 3", len(all))
	}

	ideas, _ := db.ListProjects(ProjectFilter{Status: "idea"})
	if len(ideas) != 2 {
		t.Errorf("status filter: got %d, want 2", len(ideas))
	}

	fast, _ := db.ListProjects(ProjectFilter{MinBPM: 100, MaxBPM: 130})
	if len(fast) != 1 || fast[0].Name != "Mid Tempo" {
		t.Errorf("bpm filter: %+v", fast)
	}

	search, _ := db.ListProjects(ProjectFilter{Search: "lane"})
	if len(search) != 1 || search[0].Name != "Fast Lane" {
		t.Errorf("search filter: %+v", search)
	}
}

func TestUpdateProjectMeta(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreateProject(&Project{Name: "A"})

	if err := db.UpdateProjectMeta(id, strPtr("packaged"), strPtr("techno"), nil, strPtr("dark,driving")); err != nil {
		t.Fatalf("UpdateProjectMeta: %v", err)
	}

	p, _ := db.GetProject(id)
	if p.Status != "packaged" {
		t.Errorf("Status = %q", p.Status)
	}
	if p.Genre == nil || *p.Genre != "techno" {
		t.Errorf("Genre = %v", p.Genre)
	}
	if p.Vibe != nil {
		t.Errorf("Vibe should stay unset, got %v", *p.Vibe)
	}
	if p.Tags == nil || *p.Tags != "dark,driving" {
		t.Errorf("Tags = %v", p.Tags)
	}

	// No fields set is a no-op, not an error
	if err := db.UpdateProjectMeta(id, nil, nil, nil, nil); err != nil {
		t.Errorf("empty update errored: %v", err)
	}
}

func TestDeleteProject(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreateProject(&Project{Name: "Gone", ALSPath: strPtr("/drop/gone.als")})

	if err := db.DeleteProjectByALSPath("/drop/gone.als"); err != nil {
		t.Fatalf("DeleteProjectByALSPath: %v", err)
	}
	if _, found := db.GetProject(id); found {
		t.Error("project still present after delete")
	}
}

func TestSoundCloudAuthRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if _, found := db.GetSoundCloudAuth(); found {
		t.Fatal("auth present in fresh database")
	}

	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	err := db.SaveSoundCloudAuth(&SoundCloudAuth{
		AccessToken:  "tok",
		RefreshToken: "ref",
		ExpiresAt:    &expires,
		UserID:       "42",
		Username:     "dj",
	})
	if err != nil {
		t.Fatalf("SaveSoundCloudAuth: %v", err)
	}

	a, found := db.GetSoundCloudAuth()
	if !found {
		t.Fatal("auth not found after save")
	}
	if a.AccessToken != "tok" || a.RefreshToken != "ref" || a.Username != "dj" {
		t.Errorf("auth = %+v", a)
	}
	if a.ExpiresAt == nil || !a.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", a.ExpiresAt, expires)
	}

	// Saving again replaces the single row
	db.SaveSoundCloudAuth(&SoundCloudAuth{AccessToken: "tok2"})
	a, _ = db.GetSoundCloudAuth()
	if a.AccessToken != "tok2" {
		t.Errorf("AccessToken = %q after replace", a.AccessToken)
	}

	if err := db.DeleteSoundCloudAuth(); err != nil {
		t.Fatalf("DeleteSoundCloudAuth: %v", err)
	}
	if _, found := db.GetSoundCloudAuth(); found {
		t.Error("auth still present after disconnect")
	}
}

func TestSetProjectSoundCloudURL(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreateProject(&Project{Name: "A"})

	if err := db.SetProjectSoundCloudURL(id, "https://soundcloud.com/dj/a"); err != nil {
		t.Fatalf("SetProjectSoundCloudURL: %v", err)
	}

	p, _ := db.GetProject(id)
	if p.SoundCloudURL == nil || *p.SoundCloudURL != "https://soundcloud.com/dj/a" {
		t.Errorf("SoundCloudURL = %v", p.SoundCloudURL)
	}
	if p.SoundCloudUploadedAt == nil {
		t.Error("SoundCloudUploadedAt not set")
	}
}
