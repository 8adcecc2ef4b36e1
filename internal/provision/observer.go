package provision

// Observer receives progress as provisioning runs.
type Observer interface {
	CheckingNotification()
	NotificationFound(id int)
	CreatingNotification()
	NotificationCreateResult(result map[string]any)
	FetchingNotificationID()
	NotificationCreated(id int)

	CheckingMonitors()
	MonitorSkipped(url string)
	AddingMonitor(url string)
	MonitorCreated(r Result)
	MonitorFailed(r Result)
}

type NopObserver struct{}

func (NopObserver) CheckingNotification()                   {}
func (NopObserver) NotificationFound(int)                   {}
func (NopObserver) CreatingNotification()                   {}
func (NopObserver) NotificationCreateResult(map[string]any) {}
func (NopObserver) FetchingNotificationID()                 {}
func (NopObserver) NotificationCreated(int)                 {}
func (NopObserver) CheckingMonitors()                       {}
func (NopObserver) MonitorSkipped(string)                   {}
func (NopObserver) AddingMonitor(string)                    {}
func (NopObserver) MonitorCreated(Result)                   {}
func (NopObserver) MonitorFailed(Result)                    {}
