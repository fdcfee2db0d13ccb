// Package places searches points of interest on OpenStreetMap through the
// Overpass API, and has the geo helpers shared with nearby challenges.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"

	"wildAppAPI/internal/apperr"
)

const maxResults = 50

var (
	tagKeyPattern   = regexp.MustCompile(`^[a-z_:]{1,40}$`)
	tagValuePattern = regexp.MustCompile(`^[A-Za-z0-9_ :-]{1,60}$`)
)

type Place struct {
	ID         string            `json:"id"`
	Name       string            `json:"name,omitempty"`
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	DistanceKm float64           `json:"distance_km"`
	Tags       map[string]string `json:"tags,omitempty"`
}

type Query struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	// Tag is "key" or "key=value", e.g. "leisure=park".
	Tag string
}

type Client struct {
	http     *httpclient.Client
	endpoint string
}

func NewClient(endpoint string) *Client {
	backoff := heimdall.NewConstantBackoff(200*time.Millisecond, 100*time.Millisecond)
	return &Client{
		http: httpclient.NewClient(
			httpclient.WithHTTPTimeout(15*time.Second),
			httpclient.WithRetryCount(1),
			httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		),
		endpoint: endpoint,
	}
}

// BuildQuery renders the Overpass QL for q. The tag is validated so user
// input can never break out of the filter.
func BuildQuery(q Query) (string, error) {
	filter, err := tagFilter(q.Tag)
	if err != nil {
		return "", err
	}
	var union strings.Builder
	for _, box := range BoundingBox(q.Latitude, q.Longitude, q.RadiusKm).Spans() {
		bbox := fmt.Sprintf("(%.6f,%.6f,%.6f,%.6f)", box.South, box.West, box.North, box.East)
		fmt.Fprintf(&union, "node%[1]s%[2]s;way%[1]s%[2]s;", filter, bbox)
	}
	return fmt.Sprintf(`[out:json][timeout:25];(%s);out center %d;`, union.String(), maxResults*2), nil
}

func tagFilter(tag string) (string, error) {
	key, value, hasValue := strings.Cut(strings.TrimSpace(tag), "=")
	if !tagKeyPattern.MatchString(key) {
		return "", apperr.Invalid(fmt.Sprintf("invalid tag key %q", key))
	}
	if !hasValue {
		return fmt.Sprintf(`["%s"]`, key), nil
	}
	if !tagValuePattern.MatchString(value) {
		return "", apperr.Invalid(fmt.Sprintf("invalid tag value %q", value))
	}
	return fmt.Sprintf(`["%s"="%s"]`, key, value), nil
}

type overpassResponse struct {
	Elements []struct {
		Type   string            `json:"type"`
		ID     int64             `json:"id"`
		Lat    *float64          `json:"lat"`
		Lon    *float64          `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Search returns places matching q within the radius, nearest first.
func (c *Client) Search(ctx context.Context, q Query) ([]*Place, error) {
	if !ValidCoordinates(q.Latitude, q.Longitude) {
		return nil, apperr.Invalid("coordinates out of range")
	}
	ql, err := BuildQuery(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?data="+url.QueryEscape(ql), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build overpass request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode overpass response: %w", err)
	}

	var out []*Place
	for _, el := range parsed.Elements {
		var lat, lng float64
		switch {
		case el.Lat != nil && el.Lon != nil:
			lat, lng = *el.Lat, *el.Lon
		case el.Center != nil:
			lat, lng = el.Center.Lat, el.Center.Lon
		default:
			continue
		}
		d := Haversine(q.Latitude, q.Longitude, lat, lng)
		if d > q.RadiusKm {
			continue
		}
		out = append(out, &Place{
			ID:         fmt.Sprintf("%s/%d", el.Type, el.ID),
			Name:       el.Tags["name"],
			Latitude:   lat,
			Longitude:  lng,
			DistanceKm: d,
			Tags:       el.Tags,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}
