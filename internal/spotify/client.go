package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const (
	tokenURL       = "https://accounts.spotify.com/api/token"
	defaultBaseURL = "https://api.spotify.com/v1"
)

// Track Spotify 曲目的最小视图
type Track struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
	URL    string `json:"url"`
}

// Client Spotify Web API 客户端，client-credentials 模式，
// 只用于 song of the day 的曲目搜索
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient 创建客户端；token 获取与刷新由 oauth2 传输层处理
func NewClient(clientID, clientSecret string) *Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	httpClient := cfg.Client(context.Background())
	httpClient.Timeout = 10 * time.Second
	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
	}
}

// NewClientWithHTTP 注入自定义 http.Client 与 baseURL，测试用
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

type searchResponse struct {
	Tracks struct {
		Items []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			ExternalURLs struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
		} `json:"items"`
	} `json:"tracks"`
}

// SearchTracks 按关键词搜索曲目
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "track")
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify search returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode spotify response: %w", err)
	}

	tracks := make([]Track, 0, len(body.Tracks.Items))
	for _, item := range body.Tracks.Items {
		t := Track{
			ID:   item.ID,
			Name: item.Name,
			URL:  item.ExternalURLs.Spotify,
		}
		if len(item.Artists) > 0 {
			t.Artist = item.Artists[0].Name
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}
