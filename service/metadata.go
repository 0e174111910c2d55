package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// metadataClient has a short timeout so a slow movie API never blocks a
// title request.
var metadataClient = &http.Client{Timeout: 10 * time.Second}

// movieSearchResp is the response from GET /search/movie.
type movieSearchResp struct {
	Results []struct {
		Title       string `json:"title"`
		Name        string `json:"name"`
		Overview    string `json:"overview"`
		PosterPath  string `json:"poster_path"`
		ReleaseDate string `json:"release_date"`
	} `json:"results"`
}

// TitleMetadata is the normalized subset of movie-API data kept on a record.
type TitleMetadata struct {
	Title     string
	Overview  string
	PosterURL string
}

// MovieAPI is a thin client for the external movie-metadata API. It exists
// only at the interface boundary; the account core treats it as a
// collaborator and tolerates its absence.
type MovieAPI struct {
	baseURL   string
	apiKey    string
	imageBase string
}

func NewMovieAPI(baseURL, apiKey string) *MovieAPI {
	return &MovieAPI{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		imageBase: "https://image.tmdb.org/t/p/w500",
	}
}

// FetchTitleMetadata searches the movie API by name and year and returns
// the first match, or (nil, nil) when nothing matches.
func (c *MovieAPI) FetchTitleMetadata(ctx context.Context, name string, year int) (*TitleMetadata, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", name)
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/movie?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := metadataClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("movie api returned %d", resp.StatusCode)
	}
	var data movieSearchResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if len(data.Results) == 0 {
		return nil, nil
	}
	first := data.Results[0]
	meta := &TitleMetadata{
		Title:    first.Title,
		Overview: strings.TrimSpace(first.Overview),
	}
	if meta.Title == "" {
		meta.Title = first.Name
	}
	if first.PosterPath != "" {
		meta.PosterURL = c.imageBase + first.PosterPath
	}
	return meta, nil
}
