// internal/domain/conversation/codec.go
package conversation

import (
	"strings"
)

// ToMap flattens the summary into the subtree shape embedded in the
// owner's user record.
func (s Summary) ToMap() map[string]any {
	return map[string]any{
		"id":               s.ID,
		"other_user_email": s.CounterpartKey,
		"name":             s.Name,
		"latest_message": map[string]any{
			"date":    s.LatestMessage.Date,
			"message": s.LatestMessage.Text,
			"is_read": s.LatestMessage.IsRead,
		},
	}
}

// SummaryFromMap rebuilds a summary from a stored subtree. A record missing
// its id or counterpart fails (the caller drops it from the list).
func SummaryFromMap(data map[string]any) (Summary, error) {
	getStr := func(m map[string]any, key string) string {
		if v, ok := m[key].(string); ok {
			return strings.TrimSpace(v)
		}
		return ""
	}

	s := Summary{
		ID:             getStr(data, "id"),
		CounterpartKey: getStr(data, "other_user_email"),
		Name:           getStr(data, "name"),
	}
	if latest, ok := data["latest_message"].(map[string]any); ok {
		s.LatestMessage = LatestMessage{
			Date: getStr(latest, "date"),
			Text: getStr(latest, "message"),
		}
		if v, ok := latest["is_read"].(bool); ok {
			s.LatestMessage.IsRead = v
		}
	}
	if err := s.Validate(); err != nil {
		return Summary{}, err
	}
	return s, nil
}
