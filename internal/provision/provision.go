// Package provision converges Uptime Kuma towards the wanted state: one
// Teams notification channel for the configured webhook and one HTTP monitor
// per listed URL. Existing entities are reused, never updated or removed.
package provision

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"kumaprov/internal/kuma"
	"kumaprov/internal/util"
)

const (
	NotificationName = "Teams Webhook"
	MonitorInterval  = 60
)

var (
	notificationIDKeys = []string{"notificationID", "id", "notificationId"}
	monitorIDKeys      = []string{"monitorID", "monitorId", "id"}
	webhookKeys        = []string{"webhookurl", "webhookUrl"}
)

var ErrNotificationID = errors.New("failed to get notification ID after creating notification")

// Session is the subset of the Uptime Kuma API used for provisioning.
type Session interface {
	Notifications(ctx context.Context) ([]kuma.Notification, error)
	AddNotification(ctx context.Context, spec kuma.NotificationSpec) (map[string]any, error)
	Monitors(ctx context.Context) ([]kuma.Monitor, error)
	AddMonitor(ctx context.Context, spec kuma.MonitorSpec) (map[string]any, error)
}

type Provisioner struct {
	session  Session
	observer Observer
	logger   *slog.Logger
}

func New(session Session, observer Observer, logger *slog.Logger) *Provisioner {
	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Provisioner{
		session:  session,
		observer: observer,
		logger:   logger,
	}
}

// Run resolves the notification channel and then provisions every URL.
// Only setup failures are returned; per-URL failures are in the Summary.
func (p *Provisioner) Run(ctx context.Context, webhookURL string, urls []string) (Summary, error) {
	notificationID, err := p.EnsureNotification(ctx, webhookURL)
	if err != nil {
		return Summary{}, err
	}
	return p.EnsureMonitors(ctx, urls, notificationID)
}

// EnsureNotification returns the id of the Teams channel posting to
// webhookURL, creating it when none exists.
func (p *Provisioner) EnsureNotification(ctx context.Context, webhookURL string) (int, error) {
	p.observer.CheckingNotification()

	notifications, err := p.session.Notifications(ctx)
	if err != nil {
		return 0, util.LogError(p.logger, "Failed to list notifications", err)
	}
	if id, ok := findNotification(notifications, webhookURL); ok {
		p.observer.NotificationFound(id)
		return id, nil
	}

	p.observer.CreatingNotification()
	result, err := p.session.AddNotification(ctx, kuma.NotificationSpec{
		Name:       NotificationName,
		Type:       kuma.NotificationTypeTeams,
		WebhookURL: webhookURL,
	})
	if err != nil {
		return 0, util.LogError(p.logger, "Failed to create notification", err, "name", NotificationName)
	}
	p.observer.NotificationCreateResult(result)

	id, ok := kuma.ExtractID(result, notificationIDKeys...)
	if !ok {
		p.logger.Debug("Notification id missing from result", "result", result)
		p.observer.FetchingNotificationID()

		notifications, err := p.session.Notifications(ctx)
		if err != nil {
			return 0, util.LogError(p.logger, "Failed to list notifications", err)
		}
		id, ok = findNotification(notifications, webhookURL)
	}
	if !ok {
		return 0, ErrNotificationID
	}

	p.observer.NotificationCreated(id)
	return id, nil
}

func findNotification(notifications []kuma.Notification, webhookURL string) (int, bool) {
	for _, n := range notifications {
		if n.Type != kuma.NotificationTypeTeams || n.ID <= 0 {
			continue
		}
		if webhook(n) == webhookURL {
			return n.ID, true
		}
	}
	return 0, false
}

// webhook returns the first non-empty webhook attribute; servers have used
// both spellings.
func webhook(n kuma.Notification) string {
	for _, key := range webhookKeys {
		if v := n.Attr(key); v != "" {
			return v
		}
	}
	return ""
}

// EnsureMonitors creates an HTTP monitor for every URL that no existing
// monitor already targets. URLs are compared verbatim.
func (p *Provisioner) EnsureMonitors(ctx context.Context, urls []string, notificationID int) (Summary, error) {
	p.observer.CheckingMonitors()

	monitors, err := p.session.Monitors(ctx)
	if err != nil {
		return Summary{}, util.LogError(p.logger, "Failed to list monitors", err)
	}

	existing := make(map[string]struct{}, len(monitors))
	for _, m := range monitors {
		existing[m.URL] = struct{}{}
	}

	var summary Summary
	for _, u := range urls {
		summary.add(p.ensureMonitor(ctx, u, notificationID, existing))
	}
	return summary, nil
}

func (p *Provisioner) ensureMonitor(ctx context.Context, url string, notificationID int, existing map[string]struct{}) Result {
	if _, ok := existing[url]; ok {
		p.observer.MonitorSkipped(url)
		return Result{URL: url, Status: StatusSkipped}
	}

	r := Result{URL: url, Name: MonitorName(url)}
	p.observer.AddingMonitor(url)

	result, err := p.session.AddMonitor(ctx, kuma.MonitorSpec{
		Type:            kuma.MonitorTypeHTTP,
		Name:            r.Name,
		URL:             url,
		IntervalSeconds: MonitorInterval,
		NotificationIDs: []int{notificationID},
	})
	if err != nil {
		r.Status = StatusFailed
		r.Err = err
		if kuma.IsAPIError(err) {
			p.logger.Debug("Monitor rejected by server", "url", url, "error", err)
		} else {
			p.logger.Warn("Monitor creation failed", "url", url, "error", err)
		}
		p.observer.MonitorFailed(r)
		return r
	}

	r.Status = StatusCreated
	r.MonitorID, _ = kuma.ExtractID(result, monitorIDKeys...)
	p.observer.MonitorCreated(r)
	return r
}
