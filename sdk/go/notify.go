package reelsdk

import "context"

// NoticeKind classifies a failed call surfaced to the user.
type NoticeKind string

const (
	NoticeBusiness       NoticeKind = "business"
	NoticeTransport      NoticeKind = "transport"
	NoticeSessionExpired NoticeKind = "session_expired"
)

// Notice is a user-facing failure message.
type Notice struct {
	Kind    NoticeKind
	Path    string
	Message string
}

// Notifier receives a Notice for every failed call.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// Messages holds the fallback texts used in notices.
type Messages struct {
	NetworkError   string
	SessionExpired string
}

// DefaultMessages returns the zh-CN fallback texts.
func DefaultMessages() Messages {
	return Messages{
		NetworkError:   "网络请求异常,请稍后重试...",
		SessionExpired: "登录已过期，请重新登录",
	}
}

func (m Messages) networkError() string {
	if m.NetworkError != "" {
		return m.NetworkError
	}
	return DefaultMessages().NetworkError
}

func (m Messages) sessionExpired() string {
	if m.SessionExpired != "" {
		return m.SessionExpired
	}
	return DefaultMessages().SessionExpired
}
