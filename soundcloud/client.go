// Package soundcloud is a minimal client for the SoundCloud OAuth flow and
// track upload API.
package soundcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultAPIBase = "https://api.soundcloud.com"
	DefaultAuthURL = "https://soundcloud.com/connect"
)

// Client talks to the SoundCloud API. APIBase and AuthURL are overridable
// for tests.
type Client struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	APIBase    string
	AuthURL    string
	HTTPClient *http.Client
}

// New creates a client with the default endpoints and a generous upload
// timeout.
func New(clientID, clientSecret, redirectURI string) *Client {
	return &Client{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		APIBase:      DefaultAPIBase,
		AuthURL:      DefaultAuthURL,
		HTTPClient:   &http.Client{Timeout: 5 * time.Minute},
	}
}

// Configured reports whether API credentials are present.
func (c *Client) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Token is an OAuth token response.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// User is the authenticated account.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Permalink string `json:"permalink_url"`
}

// Track is the uploaded track resource.
type Track struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	PermalinkURL string `json:"permalink_url"`
}

// TrackMetadata describes a track being uploaded. Title is required.
type TrackMetadata struct {
	Title       string
	Description string
	Genre       string
	TagList     string
	Sharing     string // "public" or "private"; defaults to public
	BPM         int
	ArtworkPath string
}

// AuthorizeURL returns the URL to send the user to and the state token to
// verify on callback.
func (c *Client) AuthorizeURL() (string, string) {
	state := uuid.NewString()
	q := url.Values{
		"client_id":     {c.ClientID},
		"redirect_uri":  {c.RedirectURI},
		"response_type": {"code"},
		"scope":         {"non-expiring"},
		"state":         {state},
	}
	return c.AuthURL + "?" + q.Encode(), state
}

// ExchangeCode trades an OAuth callback code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	return c.postToken(ctx, url.Values{
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
		"redirect_uri":  {c.RedirectURI},
		"grant_type":    {"authorization_code"},
		"code":          {code},
	})
}

// Refresh trades a refresh token for a fresh access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	return c.postToken(ctx, url.Values{
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

func (c *Client) postToken(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.APIBase+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token Token
	if err := c.do(req, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// Me returns the account the token belongs to.
func (c *Client) Me(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBase+"/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+accessToken)

	var user User
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadTrack uploads an audio file with optional artwork and returns the
// created track, including its public permalink.
func (c *Client) UploadTrack(ctx context.Context, accessToken, audioPath string, meta TrackMetadata) (*Track, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}
	if meta.Sharing == "" {
		meta.Sharing = "public"
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeTrackForm(mw, audioPath, meta)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBase+"/tracks", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+accessToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var track Track
	if err := c.do(req, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

func writeTrackForm(mw *multipart.Writer, audioPath string, meta TrackMetadata) error {
	fields := map[string]string{
		"track[title]":   meta.Title,
		"track[sharing]": meta.Sharing,
	}
	if meta.Description != "" {
		fields["track[description]"] = meta.Description
	}
	if meta.Genre != "" {
		fields["track[genre]"] = meta.Genre
	}
	if meta.TagList != "" {
		fields["track[tag_list]"] = meta.TagList
	}
	if meta.BPM > 0 {
		fields["track[bpm]"] = strconv.Itoa(meta.BPM)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}

	if err := writeFilePart(mw, "track[asset_data]", audioPath); err != nil {
		return err
	}
	if meta.ArtworkPath != "" {
		if _, err := os.Stat(meta.ArtworkPath); err == nil {
			if err := writeFilePart(mw, "track[artwork_data]", meta.ArtworkPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFilePart(mw *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := mw.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("soundcloud request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("soundcloud response read failed: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("soundcloud returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("soundcloud response decode failed: %v", err)
	}
	return nil
}
