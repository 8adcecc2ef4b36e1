// Package report prints provisioning progress for humans.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kumaprov/internal/provision"
)

var rule = strings.Repeat("=", 60)

// Reporter writes progress lines to w. It implements provision.Observer.
type Reporter struct {
	w io.Writer
}

var _ provision.Observer = (*Reporter)(nil)

func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

func (r *Reporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format+"\n", args...) //nolint:errcheck
}

func (r *Reporter) Found(n int) {
	r.printf("Found %d URLs to monitor", n)
}

func (r *Reporter) Connecting(url string) {
	r.printf("Connecting to Uptime Kuma at %s...", url)
}

func (r *Reporter) LoggingIn(username string) {
	r.printf("Logging in as %s...", username)
}

func (r *Reporter) LoginSucceeded() {
	r.printf("Login successful!")
}

func (r *Reporter) CheckingNotification() {
	r.printf("Checking for existing Teams notification...")
}

func (r *Reporter) NotificationFound(id int) {
	r.printf("Found existing Teams notification with ID: %d", id)
}

func (r *Reporter) CreatingNotification() {
	r.printf("Creating Teams notification channel...")
}

func (r *Reporter) NotificationCreateResult(result map[string]any) {
	data, err := json.Marshal(result)
	if err != nil {
		r.printf("Notification result: %v", result)
		return
	}
	r.printf("Notification result: %s", data)
}

func (r *Reporter) FetchingNotificationID() {
	r.printf("Fetching notification ID from notifications list...")
}

func (r *Reporter) NotificationCreated(id int) {
	r.printf("Teams notification created with ID: %d", id)
}

func (r *Reporter) CheckingMonitors() {
	r.printf("Checking existing monitors...")
}

func (r *Reporter) MonitorSkipped(url string) {
	r.printf("⏭️  Skipping %s (already exists)", url)
}

func (r *Reporter) AddingMonitor(url string) {
	r.printf("➕ Adding monitor for %s...", url)
}

func (r *Reporter) MonitorCreated(res provision.Result) {
	id := "unknown"
	if res.MonitorID > 0 {
		id = strconv.Itoa(res.MonitorID)
	}
	r.printf("   ✓ Monitor '%s' created with ID: %s", res.Name, id)
}

func (r *Reporter) MonitorFailed(res provision.Result) {
	r.printf("   ✗ Failed to create monitor for %s: %v", res.URL, res.Err)
}

func (r *Reporter) Summary(s provision.Summary) {
	r.printf("\n%s", rule)
	r.printf("Provisioning completed!")
	r.printf("  Created: %d monitors", s.Created)
	r.printf("  Skipped: %d monitors (already exist)", s.Skipped)
	if s.Failed > 0 {
		r.printf("  Failed:  %d monitors", s.Failed)
	}
	r.printf("  Total:   %d URLs processed", s.Total())
	r.printf("%s", rule)
}
