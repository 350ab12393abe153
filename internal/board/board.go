package board

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Item is a board row with its column texts keyed by column id.
type Item struct {
	ID     string
	Name   string
	Values map[string]string
}

// Asset is an uploaded file attached to an item.
type Asset struct {
	ID        string
	Name      string
	PublicURL string
}

// Board is the record store the sync writes to.
type Board interface {
	// Linked returns the items connected to itemID through a relation column.
	Linked(ctx context.Context, itemID, columnID string) ([]Item, error)
	CreateItem(ctx context.Context, boardID int64, name string, values Values) (string, error)
	UpdateItem(ctx context.Context, boardID int64, itemID string, values Values) error
	DeleteItem(ctx context.Context, itemID string) error
}

// Files resolves the file stored in an item's file column.
type Files interface {
	FileAsset(ctx context.Context, itemID, columnID string) (Asset, error)
}

// Notifier sends an in-app notification to a user about an item.
type Notifier interface {
	Notify(ctx context.Context, userID, targetID, text string) error
}

// Values is a column_values payload keyed by column id.
type Values map[string]any

// Set formats v for the column type encoded in columnID. Unmapped columns
// (empty id) are ignored.
func (v Values) Set(columnID string, value any) {
	if columnID == "" {
		return
	}
	v[columnID] = ColumnValue(columnID, value)
}

// ColumnValue renders a value in the shape the board expects for a column,
// inferred from the column id prefix.
func ColumnValue(columnID string, v any) any {
	switch {
	case strings.HasPrefix(columnID, "color_"), strings.HasPrefix(columnID, "status"):
		return map[string]string{"label": text(v)}
	case strings.HasPrefix(columnID, "dropdown_"):
		if labels, ok := v.([]string); ok {
			if labels == nil {
				labels = []string{}
			}
			return map[string][]string{"labels": labels}
		}
		return map[string][]string{"labels": {text(v)}}
	case strings.HasPrefix(columnID, "board_relation_"), strings.HasPrefix(columnID, "connect_boards"):
		return map[string][]int64{"item_ids": itemIDs(v)}
	case strings.HasPrefix(columnID, "long_text_"):
		return map[string]string{"text": text(v)}
	case strings.HasPrefix(columnID, "date_"):
		return map[string]string{"date": text(v)}
	}
	return text(v)
}

func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func itemIDs(v any) []int64 {
	var raw []string
	switch x := v.(type) {
	case string:
		raw = []string{x}
	case []string:
		raw = x
	case int64:
		return []int64{x}
	}
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			ids = append(ids, n)
		}
	}
	return ids
}
