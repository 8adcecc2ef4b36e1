package kuma

import (
	"encoding/json"
	"strconv"
)

const (
	NotificationTypeTeams = "teams"
	MonitorTypeHTTP       = "http"
)

// Notification is one entry of the server's notificationList push. Attrs
// holds the row merged with its decoded config, so provider specific fields
// such as webhookUrl are reachable whatever their spelling.
type Notification struct {
	ID    int
	Name  string
	Type  string
	Attrs map[string]any
}

// Attr returns the named attribute when it is a non-empty string.
func (n Notification) Attr(key string) string {
	s, _ := n.Attrs[key].(string)
	return s
}

type NotificationSpec struct {
	Name       string
	Type       string
	WebhookURL string
}

type Monitor struct {
	ID       int
	Name     string
	URL      string
	Type     string
	Interval int
	Attrs    map[string]any
}

type MonitorSpec struct {
	Type            string
	Name            string
	URL             string
	IntervalSeconds int
	NotificationIDs []int
}

// ExtractID returns the first positive integer found under keys, tried in
// order. Numbers may arrive as JSON numbers or numeric strings.
func ExtractID(m map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		if id, ok := toInt(m[key]); ok && id > 0 {
			return id, true
		}
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := strconv.Atoi(n.String())
		return i, err == nil
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

func decodeNotification(raw json.RawMessage) (Notification, error) {
	attrs := map[string]any{}
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return Notification{}, err
	}

	if cfg, ok := attrs["config"].(string); ok {
		var extra map[string]any
		if err := json.Unmarshal([]byte(cfg), &extra); err == nil {
			delete(attrs, "config")
			for k, v := range extra {
				attrs[k] = v
			}
		}
	}

	n := Notification{Attrs: attrs}
	n.ID, _ = toInt(attrs["id"])
	n.Name, _ = attrs["name"].(string)
	n.Type, _ = attrs["type"].(string)
	return n, nil
}

func decodeMonitor(raw json.RawMessage) (Monitor, error) {
	attrs := map[string]any{}
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return Monitor{}, err
	}

	m := Monitor{Attrs: attrs}
	m.ID, _ = toInt(attrs["id"])
	m.Name, _ = attrs["name"].(string)
	m.URL, _ = attrs["url"].(string)
	m.Type, _ = attrs["type"].(string)
	m.Interval, _ = toInt(attrs["interval"])
	return m, nil
}

func (s MonitorSpec) body() map[string]any {
	ids := make(map[string]bool, len(s.NotificationIDs))
	for _, id := range s.NotificationIDs {
		ids[strconv.Itoa(id)] = true
	}

	return map[string]any{
		"type":                 s.Type,
		"name":                 s.Name,
		"url":                  s.URL,
		"method":               "GET",
		"interval":             s.IntervalSeconds,
		"retryInterval":        s.IntervalSeconds,
		"resendInterval":       0,
		"maxretries":           0,
		"timeout":              s.IntervalSeconds * 8 / 10,
		"maxredirects":         10,
		"accepted_statuscodes": []string{"200-299"},
		"notificationIDList":   ids,
		"ignoreTls":            false,
		"upsideDown":           false,
		"expiryNotification":   false,
	}
}

func (s NotificationSpec) body() map[string]any {
	return map[string]any{
		"name":          s.Name,
		"type":          s.Type,
		"isDefault":     false,
		"applyExisting": false,
		"webhookUrl":    s.WebhookURL,
	}
}
