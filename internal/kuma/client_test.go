package kuma

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kumaprov/internal/kuma/kumatest"
)

func dialFake(t *testing.T, srv *kumatest.Server) *Client {
	t.Helper()

	c, err := Dial(context.Background(), srv.URL, Options{Timeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "http", input: "http://localhost:3001", want: "ws://localhost:3001/socket.io/?EIO=4&transport=websocket"},
		{name: "https with path", input: "https://status.example.com/kuma/", want: "wss://status.example.com/kuma/socket.io/?EIO=4&transport=websocket"},
		{name: "unsupported scheme", input: "ftp://localhost", wantErr: true},
		{name: "no host", input: "http://", wantErr: true},
		{name: "bare host", input: "localhost:3001", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := socketURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientLoginAndLists(t *testing.T) {
	srv := kumatest.NewServer(t)
	existing := srv.SeedMonitor("https://payment-gateway.qoin.id")
	notifID := srv.SeedNotification("Teams Webhook", map[string]any{
		"name":       "Teams Webhook",
		"type":       "teams",
		"webhookUrl": "https://hook",
	})
	c := dialFake(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, kumatest.Username, kumatest.Password))

	notifications, err := c.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, notifID, notifications[0].ID)
	assert.Equal(t, "teams", notifications[0].Type)
	assert.Equal(t, "https://hook", notifications[0].Attr("webhookUrl"))
	assert.NotContains(t, notifications[0].Attrs, "config")

	monitors, err := c.Monitors(ctx)
	require.NoError(t, err)
	require.Len(t, monitors, 1)
	assert.Equal(t, existing, monitors[0].ID)
	assert.Equal(t, "https://payment-gateway.qoin.id", monitors[0].URL)
	assert.Equal(t, 60, monitors[0].Interval)

	assert.Eventually(t, func() bool { return srv.Pongs() > 0 }, time.Second, 10*time.Millisecond)
}

func TestClientLoginRejected(t *testing.T) {
	c := dialFake(t, kumatest.NewServer(t))

	err := c.Login(context.Background(), kumatest.Username, "wrong")
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.Contains(t, err.Error(), "Incorrect username or password.")
}

func TestClientListsTimeOutWithoutLogin(t *testing.T) {
	srv := kumatest.NewServer(t)
	c, err := Dial(context.Background(), srv.URL, Options{Timeout: 100 * time.Millisecond})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Notifications(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientAddNotification(t *testing.T) {
	srv := kumatest.NewServer(t)
	c := dialFake(t, srv)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, kumatest.Username, kumatest.Password))

	result, err := c.AddNotification(ctx, NotificationSpec{
		Name:       "Teams Webhook",
		Type:       NotificationTypeTeams,
		WebhookURL: "https://hook",
	})
	require.NoError(t, err)

	id, ok := ExtractID(result, "notificationID", "id", "notificationId")
	require.True(t, ok)

	notifications, err := c.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, id, notifications[0].ID)
	assert.Equal(t, "Teams Webhook", notifications[0].Name)
	assert.Equal(t, NotificationTypeTeams, notifications[0].Type)
	assert.Equal(t, "https://hook", notifications[0].Attr("webhookUrl"))
	assert.Equal(t, false, notifications[0].Attrs["isDefault"])
}

func TestClientAddNotificationWithoutID(t *testing.T) {
	srv := kumatest.NewServer(t)
	srv.OmitNotificationID()
	c := dialFake(t, srv)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, kumatest.Username, kumatest.Password))

	result, err := c.AddNotification(ctx, NotificationSpec{Name: "Teams Webhook", Type: NotificationTypeTeams, WebhookURL: "https://hook"})
	require.NoError(t, err)
	_, ok := ExtractID(result, "notificationID", "id", "notificationId")
	assert.False(t, ok)

	// The refreshed list is pushed before the acknowledgement.
	notifications, err := c.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Positive(t, notifications[0].ID)
}

func TestClientAddMonitor(t *testing.T) {
	srv := kumatest.NewServer(t)
	c := dialFake(t, srv)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, kumatest.Username, kumatest.Password))

	result, err := c.AddMonitor(ctx, MonitorSpec{
		Type:            MonitorTypeHTTP,
		Name:            "Payment Gateway Health Check",
		URL:             "https://payment-gateway.qoin.id",
		IntervalSeconds: 60,
		NotificationIDs: []int{7},
	})
	require.NoError(t, err)

	id, ok := ExtractID(result, "monitorID", "monitorId", "id")
	require.True(t, ok)

	monitors, err := c.Monitors(ctx)
	require.NoError(t, err)
	require.Len(t, monitors, 1)
	assert.Equal(t, id, monitors[0].ID)
	assert.Equal(t, "Payment Gateway Health Check", monitors[0].Name)

	added := srv.AddedMonitors()
	require.Len(t, added, 1)
	body := added[0]
	assert.Equal(t, "http", body["type"])
	assert.Equal(t, float64(60), body["interval"])
	assert.Equal(t, map[string]any{"7": true}, body["notificationIDList"])
	assert.Equal(t, []any{"200-299"}, body["accepted_statuscodes"])
}

func TestClientAddMonitorRejected(t *testing.T) {
	srv := kumatest.NewServer(t)
	srv.RejectURL("https://broken.qoin.id", "SQLITE_CONSTRAINT")
	c := dialFake(t, srv)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, kumatest.Username, kumatest.Password))

	_, err := c.AddMonitor(ctx, MonitorSpec{Type: MonitorTypeHTTP, URL: "https://broken.qoin.id", IntervalSeconds: 60})
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.Contains(t, err.Error(), "SQLITE_CONSTRAINT")
}

func TestClientClose(t *testing.T) {
	c := dialFake(t, kumatest.NewServer(t))

	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())

	err := c.Login(context.Background(), kumatest.Username, kumatest.Password)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDialConnectRefused(t *testing.T) {
	srv := kumatest.NewServer(t)
	srv.RefuseConnect()

	_, err := Dial(context.Background(), srv.URL, Options{Timeout: time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not authorized")
}

func TestDialUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := Dial(context.Background(), srv.URL, Options{Timeout: time.Second})
	assert.Error(t, err)
}
