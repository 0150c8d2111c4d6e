package microsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aawohq/aawo/internal/calendar/application/oauth"
)

// UserInfoFetcher loads /me with a raw access token, outside the
// stored-connection token flow. Used right after code exchange, before
// the connection row is saved.
type UserInfoFetcher struct {
	httpClient *http.Client
	baseURL    string
}

var _ oauth.UserInfoFetcher = (*UserInfoFetcher)(nil)

// NewUserInfoFetcher creates the fetcher.
func NewUserInfoFetcher(baseURL string) *UserInfoFetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &UserInfoFetcher{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

// FetchUserInfo returns the signed-in user's principal name.
func (f *UserInfoFetcher) FetchUserInfo(ctx context.Context, accessToken string) (*oauth.UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	var me struct {
		UserPrincipalName string `json:"userPrincipalName"`
		Mail              string `json:"mail"`
		DisplayName       string `json:"displayName"`
	}
	if err := json.Unmarshal(payload, &me); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}

	username := me.UserPrincipalName
	if username == "" {
		username = me.Mail
	}
	if username == "" {
		username = me.DisplayName
	}
	return &oauth.UserInfo{Username: username}, nil
}
