package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// APIError is a failed board API call.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("board api: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("board api: status %d: %s", e.StatusCode, e.Message)
}

// IsServerError reports a fault on the board side (rate limit, 5xx or an
// internal error reported in the GraphQL body) that may clear on its own.
func (e *APIError) IsServerError() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500 ||
		e.Code == "INTERNAL_SERVER_ERROR"
}

// IsServerError reports whether err wraps a server-side APIError.
func IsServerError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsServerError()
}

// Client talks to the monday.com GraphQL API with one user's token.
type Client struct {
	apiURL     string
	apiVersion string
	token      string
	httpClient *http.Client

	// Stats, when set, receives the latency and outcome of every call.
	Stats *CallStats
}

func NewClient(apiURL, apiVersion, token string, httpClient *http.Client) *Client {
	return &Client{
		apiURL:     apiURL,
		apiVersion: apiVersion,
		token:      token,
		httpClient: httpClient,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type graphQLResponse struct {
	Data         json.RawMessage `json:"data"`
	Errors       []graphQLError  `json:"errors"`
	ErrorCode    string          `json:"error_code"`
	ErrorMessage string          `json:"error_message"`
}

// do posts one GraphQL operation and decodes its data into out.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) (err error) {
	if c.Stats != nil {
		start := time.Now()
		defer func() { c.Stats.Record(op, time.Since(start), err) }()
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.token)
	httpReq.Header.Set("API-Version", c.apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("board request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var gr graphQLResponse
	decodeErr := json.Unmarshal(respBody, &gr)

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: truncate(string(respBody), 512)}
		if decodeErr == nil {
			fillError(apiErr, gr)
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if len(gr.Errors) > 0 || gr.ErrorMessage != "" {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		fillError(apiErr, gr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func fillError(e *APIError, gr graphQLResponse) {
	switch {
	case len(gr.Errors) > 0:
		e.Message = gr.Errors[0].Message
		e.Code = gr.Errors[0].Extensions.Code
	case gr.ErrorMessage != "":
		e.Message = gr.ErrorMessage
		e.Code = gr.ErrorCode
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type columnText struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type linkedItem struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ColumnValues []columnText `json:"column_values"`
}

const linkedQuery = `query ($itemId: [ID!], $columnId: [String!]) {
  items(ids: $itemId) {
    column_values(ids: $columnId) {
      ... on BoardRelationValue {
        linked_items { id name column_values { id text } }
      }
    }
  }
}`

// Linked returns the items connected to itemID through columnID, in the
// order the board returns them.
func (c *Client) Linked(ctx context.Context, itemID, columnID string) ([]Item, error) {
	var data struct {
		Items []struct {
			ColumnValues []struct {
				LinkedItems []linkedItem `json:"linked_items"`
			} `json:"column_values"`
		} `json:"items"`
	}
	vars := map[string]any{"itemId": []string{itemID}, "columnId": []string{columnID}}
	if err := c.do(ctx, "linked", linkedQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("linked items of %s: %w", itemID, err)
	}

	var items []Item
	for _, it := range data.Items {
		for _, cv := range it.ColumnValues {
			for _, li := range cv.LinkedItems {
				values := make(map[string]string, len(li.ColumnValues))
				for _, v := range li.ColumnValues {
					values[v.ID] = v.Text
				}
				items = append(items, Item{ID: li.ID, Name: li.Name, Values: values})
			}
		}
	}
	return items, nil
}

const createItemMutation = `mutation ($boardId: ID!, $itemName: String!, $columnValues: JSON!) {
  create_item(board_id: $boardId, item_name: $itemName, column_values: $columnValues, create_labels_if_missing: true) { id }
}`

// CreateItem creates an item and returns its id.
func (c *Client) CreateItem(ctx context.Context, boardID int64, name string, values Values) (string, error) {
	cv, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal column values: %w", err)
	}
	var data struct {
		CreateItem struct {
			ID string `json:"id"`
		} `json:"create_item"`
	}
	vars := map[string]any{
		"boardId":      strconv.FormatInt(boardID, 10),
		"itemName":     name,
		"columnValues": string(cv),
	}
	if err := c.do(ctx, "create_item", createItemMutation, vars, &data); err != nil {
		return "", fmt.Errorf("create item %q: %w", name, err)
	}
	if data.CreateItem.ID == "" {
		return "", fmt.Errorf("create item %q: no id returned", name)
	}
	return data.CreateItem.ID, nil
}

const updateItemMutation = `mutation ($boardId: ID!, $itemId: ID!, $columnValues: JSON!) {
  change_multiple_column_values(board_id: $boardId, item_id: $itemId, column_values: $columnValues, create_labels_if_missing: true) { id }
}`

// UpdateItem overwrites the given column values of an item.
func (c *Client) UpdateItem(ctx context.Context, boardID int64, itemID string, values Values) error {
	cv, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal column values: %w", err)
	}
	vars := map[string]any{
		"boardId":      strconv.FormatInt(boardID, 10),
		"itemId":       itemID,
		"columnValues": string(cv),
	}
	if err := c.do(ctx, "update_item", updateItemMutation, vars, nil); err != nil {
		return fmt.Errorf("update item %s: %w", itemID, err)
	}
	return nil
}

const deleteItemMutation = `mutation ($itemId: ID!) { delete_item(item_id: $itemId) { id } }`

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	if err := c.do(ctx, "delete_item", deleteItemMutation, map[string]any{"itemId": itemID}, nil); err != nil {
		return fmt.Errorf("delete item %s: %w", itemID, err)
	}
	return nil
}

const fileAssetQuery = `query ($itemId: [ID!], $columnId: [String!]) {
  items(ids: $itemId) {
    column_values(ids: $columnId) { value }
    assets { id name public_url }
  }
}`

// FileAsset resolves the first file in an item's file column.
func (c *Client) FileAsset(ctx context.Context, itemID, columnID string) (Asset, error) {
	var data struct {
		Items []struct {
			ColumnValues []struct {
				Value *string `json:"value"`
			} `json:"column_values"`
			Assets []struct {
				ID        string `json:"id"`
				Name      string `json:"name"`
				PublicURL string `json:"public_url"`
			} `json:"assets"`
		} `json:"items"`
	}
	vars := map[string]any{"itemId": []string{itemID}, "columnId": []string{columnID}}
	if err := c.do(ctx, "file_asset", fileAssetQuery, vars, &data); err != nil {
		return Asset{}, fmt.Errorf("file asset of %s: %w", itemID, err)
	}
	if len(data.Items) == 0 {
		return Asset{}, fmt.Errorf("item %s not found", itemID)
	}
	item := data.Items[0]
	if len(item.ColumnValues) == 0 || item.ColumnValues[0].Value == nil {
		return Asset{}, fmt.Errorf("item %s: no file in column %s", itemID, columnID)
	}

	var value struct {
		Files []struct {
			AssetID json.Number `json:"assetId"`
		} `json:"files"`
	}
	if err := json.Unmarshal([]byte(*item.ColumnValues[0].Value), &value); err != nil {
		return Asset{}, fmt.Errorf("decode file column: %w", err)
	}
	if len(value.Files) == 0 || value.Files[0].AssetID == "" {
		return Asset{}, fmt.Errorf("item %s: no asset id in column %s", itemID, columnID)
	}
	assetID := value.Files[0].AssetID.String()

	for _, a := range item.Assets {
		if a.ID == assetID {
			return Asset{ID: a.ID, Name: a.Name, PublicURL: a.PublicURL}, nil
		}
	}
	return Asset{}, fmt.Errorf("item %s: asset %s not attached", itemID, assetID)
}

const notifyMutation = `mutation ($userId: ID!, $targetId: ID!, $text: String!) {
  create_notification(user_id: $userId, target_id: $targetId, text: $text, target_type: Project) { text }
}`

// Notify sends text to userID about the item targetID.
func (c *Client) Notify(ctx context.Context, userID, targetID, text string) error {
	vars := map[string]any{"userId": userID, "targetId": targetID, "text": text}
	if err := c.do(ctx, "notify", notifyMutation, vars, nil); err != nil {
		return fmt.Errorf("notify user %s: %w", userID, err)
	}
	return nil
}
