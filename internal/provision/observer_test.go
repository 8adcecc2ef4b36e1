package provision

import "fmt"

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) record(format string, args ...any) {
	o.events = append(o.events, fmt.Sprintf(format, args...))
}

func (o *recordingObserver) CheckingNotification()                   { o.record("checking-notification") }
func (o *recordingObserver) NotificationFound(id int)                { o.record("found:%d", id) }
func (o *recordingObserver) CreatingNotification()                   { o.record("creating") }
func (o *recordingObserver) NotificationCreateResult(map[string]any) { o.record("result") }
func (o *recordingObserver) FetchingNotificationID()                 { o.record("fetching-id") }
func (o *recordingObserver) NotificationCreated(id int)              { o.record("created:%d", id) }
func (o *recordingObserver) CheckingMonitors()                       { o.record("checking-monitors") }
func (o *recordingObserver) MonitorSkipped(url string)               { o.record("skipped:%s", url) }
func (o *recordingObserver) AddingMonitor(url string)                { o.record("adding:%s", url) }
func (o *recordingObserver) MonitorCreated(r Result)                 { o.record("created:%s", r.URL) }
func (o *recordingObserver) MonitorFailed(r Result)                  { o.record("failed:%s", r.URL) }
