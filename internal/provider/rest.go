package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RESTClient talks to the recording vendor's HTTP API with key/secret
// basic auth.
type RESTClient struct {
	baseURL   string
	apiKey    string
	apiSecret string
	hc        *http.Client
}

// NewRESTClient creates a provider client. baseURL must not have a
// trailing slash.
func NewRESTClient(baseURL, apiKey, apiSecret string) *RESTClient {
	return &RESTClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		// Downloads of long recordings can be slow
		hc: &http.Client{Timeout: 10 * time.Minute},
	}
}

func (c *RESTClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrSessionNotFound
	}
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("provider http %d: %s", resp.StatusCode, string(b))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// CreateSession creates a recording-enabled session.
func (c *RESTClient) CreateSession(ctx context.Context, name string) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/v1/sessions", map[string]any{
		"name":           name,
		"record_session": true,
	}, &s)
	return s, err
}

// GetSession fetches a session by id.
func (c *RESTClient) GetSession(ctx context.Context, id string) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodGet, "/v1/sessions/"+url.PathEscape(id), nil, &s)
	return s, err
}

// FindInProgressSession lists in-progress sessions and returns the first
// whose name contains nameContains.
func (c *RESTClient) FindInProgressSession(ctx context.Context, nameContains string) (Session, error) {
	return c.findSession(ctx, SessionInProgress, nameContains)
}

// FindCompletedSession is the same lookup over finalized sessions.
func (c *RESTClient) FindCompletedSession(ctx context.Context, nameContains string) (Session, error) {
	return c.findSession(ctx, SessionCompleted, nameContains)
}

func (c *RESTClient) findSession(ctx context.Context, status, nameContains string) (Session, error) {
	var list struct {
		Sessions []Session `json:"sessions"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/sessions?status="+status, nil, &list)
	if err != nil {
		return Session{}, err
	}
	for _, s := range list.Sessions {
		if strings.Contains(s.Name, nameContains) {
			return s, nil
		}
	}
	return Session{}, ErrSessionNotFound
}

// CompleteSession finalizes a session. The vendor answers 409 when the
// session is already completed; that is treated as success.
func (c *RESTClient) CompleteSession(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(id)+"/complete", nil, nil)
	if err != nil && strings.Contains(err.Error(), "provider http 409") {
		return nil
	}
	return err
}

// ListParticipants returns connected and disconnected participants.
func (c *RESTClient) ListParticipants(ctx context.Context, sessionID string) ([]Participant, error) {
	var list struct {
		Participants []Participant `json:"participants"`
	}
	path := "/v1/sessions/" + url.PathEscape(sessionID) + "/participants?include_disconnected=true"
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list.Participants, nil
}

// ListArtifacts returns the session's recorded artifacts.
func (c *RESTClient) ListArtifacts(ctx context.Context, sessionID string) ([]ArtifactInfo, error) {
	var list struct {
		Artifacts []ArtifactInfo `json:"artifacts"`
	}
	path := "/v1/sessions/" + url.PathEscape(sessionID) + "/artifacts"
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list.Artifacts, nil
}

// DownloadArtifact streams the artifact media into w.
func (c *RESTClient) DownloadArtifact(ctx context.Context, artifactID string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/artifacts/"+url.PathEscape(artifactID)+"/media", nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("artifact download http %d: %s", resp.StatusCode, string(b))
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// IssueToken requests an access credential scoped to sessionName for the
// given identity.
func (c *RESTClient) IssueToken(ctx context.Context, sessionName, identity string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/tokens", map[string]string{
		"session_name": sessionName,
		"identity":     identity,
	}, &out)
	return out.Token, err
}
