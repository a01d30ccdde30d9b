package hubspot

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

const defaultTimeout = 30 * time.Second

// Client is a thin wrapper over the HubSpot v3 REST API. It carries no
// credentials of its own: the access token is passed per call because each
// connected account rotates tokens independently. Retries live in the
// caller, not here.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SearchObjects runs a filtered, sorted, paginated search over one object
// type.
func (c *Client) SearchObjects(ctx context.Context, accessToken string, objectType ObjectType, req *SearchRequest) (*SearchResponse, error) {
	path := fmt.Sprintf("/crm/v3/objects/%s/search", objectType)

	var resp SearchResponse
	if err := c.doJSON(ctx, http.MethodPost, path, accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", objectType, err)
	}
	return &resp, nil
}

// BatchReadAssociations resolves associations for a batch of source ids in
// one call.
func (c *Client) BatchReadAssociations(ctx context.Context, accessToken string, fromType, toType ObjectType, ids []string) ([]AssociationEdge, error) {
	path := fmt.Sprintf("/crm/v3/associations/%s/%s/batch/read",
		strings.ToUpper(string(fromType)), strings.ToUpper(string(toType)))

	body := batchReadRequest{Inputs: make([]AssociationObject, 0, len(ids))}
	for _, id := range ids {
		body.Inputs = append(body.Inputs, AssociationObject{ID: id})
	}

	var resp batchReadResponse
	if err := c.doJSON(ctx, http.MethodPost, path, accessToken, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to read %s->%s associations: %w", fromType, toType, err)
	}
	return resp.Results, nil
}

// ListAssociations lists the objects of toType associated with a single
// source object.
func (c *Client) ListAssociations(ctx context.Context, accessToken string, objectType ObjectType, objectID string, toType ObjectType) ([]AssociationResult, error) {
	path := fmt.Sprintf("/crm/v3/objects/%s/%s/associations/%s", objectType, objectID, toType)

	var resp listAssociationsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list associations for %s %s: %w", objectType, objectID, err)
	}
	return resp.Results, nil
}

// GetContact fetches a single contact with the named properties.
func (c *Client) GetContact(ctx context.Context, accessToken, contactID string, properties []string) (*Object, error) {
	path := fmt.Sprintf("/crm/v3/objects/contacts/%s", contactID)
	if len(properties) > 0 {
		path += "?properties=" + url.QueryEscape(strings.Join(properties, ","))
	}

	var obj Object
	if err := c.doJSON(ctx, http.MethodGet, path, accessToken, nil, &obj); err != nil {
		return nil, fmt.Errorf("failed to get contact %s: %w", contactID, err)
	}
	return &obj, nil
}

// RefreshToken exchanges a refresh token for a fresh access token.
func (c *Client) RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/v1/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &token, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}
