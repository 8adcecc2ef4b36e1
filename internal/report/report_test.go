package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"kumaprov/internal/provision"
)

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func TestReporterProgress(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Found(3)
	r.Connecting("http://localhost:3001")
	r.LoggingIn("admin")
	r.LoginSucceeded()
	r.CheckingNotification()
	r.NotificationFound(4)
	r.CheckingMonitors()
	r.MonitorSkipped("https://payment-gateway.qoin.id")
	r.AddingMonitor("https://api.qoin.id")
	r.MonitorCreated(provision.Result{URL: "https://api.qoin.id", Name: "Api Health Check", MonitorID: 12})
	r.AddingMonitor("https://broken.qoin.id")
	r.MonitorFailed(provision.Result{URL: "https://broken.qoin.id", Err: errors.New("add rejected by server: boom")})

	assert.Equal(t, []string{
		"Found 3 URLs to monitor",
		"Connecting to Uptime Kuma at http://localhost:3001...",
		"Logging in as admin...",
		"Login successful!",
		"Checking for existing Teams notification...",
		"Found existing Teams notification with ID: 4",
		"Checking existing monitors...",
		"⏭️  Skipping https://payment-gateway.qoin.id (already exists)",
		"➕ Adding monitor for https://api.qoin.id...",
		"   ✓ Monitor 'Api Health Check' created with ID: 12",
		"➕ Adding monitor for https://broken.qoin.id...",
		"   ✗ Failed to create monitor for https://broken.qoin.id: add rejected by server: boom",
	}, lines(&buf))
}

func TestReporterNotificationCreation(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.CreatingNotification()
	r.NotificationCreateResult(map[string]any{"ok": true, "msg": "Saved."})
	r.FetchingNotificationID()
	r.NotificationCreated(9)

	assert.Equal(t, []string{
		"Creating Teams notification channel...",
		`Notification result: {"msg":"Saved.","ok":true}`,
		"Fetching notification ID from notifications list...",
		"Teams notification created with ID: 9",
	}, lines(&buf))
}

func TestReporterMonitorWithoutID(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).MonitorCreated(provision.Result{Name: "Api Health Check"})

	assert.Equal(t, "   ✓ Monitor 'Api Health Check' created with ID: unknown\n", buf.String())
}

func TestReporterSummary(t *testing.T) {
	var buf bytes.Buffer
	summary := provision.Summary{
		Created: 1,
		Skipped: 2,
		Results: make([]provision.Result, 3),
	}

	New(&buf).Summary(summary)

	rule := strings.Repeat("=", 60)
	assert.Equal(t, "\n"+rule+"\n"+
		"Provisioning completed!\n"+
		"  Created: 1 monitors\n"+
		"  Skipped: 2 monitors (already exist)\n"+
		"  Total:   3 URLs processed\n"+
		rule+"\n", buf.String())
}

func TestReporterSummaryWithFailures(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Summary(provision.Summary{Created: 1, Failed: 1, Results: make([]provision.Result, 2)})

	assert.Contains(t, buf.String(), "  Failed:  1 monitors\n")
	assert.Contains(t, buf.String(), "  Total:   2 URLs processed\n")
}
