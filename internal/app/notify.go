package app

import (
	"context"
	"fmt"
	"io"
	"sync"

	"novelreel/internal/locales"
	reelsdk "novelreel/sdk/go"
)

// Notifier prints SDK notices as localized one-line messages.
type Notifier struct {
	Bundle *locales.Bundle
	Lang   locales.Language
	Out    io.Writer

	mu sync.Mutex
}

func NewNotifier(bundle *locales.Bundle, lang locales.Language, out io.Writer) *Notifier {
	return &Notifier{Bundle: bundle, Lang: lang, Out: out}
}

// Messages returns the SDK fallback texts in the notifier's language.
func (n *Notifier) Messages() reelsdk.Messages {
	return reelsdk.Messages{
		NetworkError:   n.Bundle.Lookup(n.Lang, "notice.network_error"),
		SessionExpired: n.Bundle.Lookup(n.Lang, "notice.session_expired"),
	}
}

// Notify implements reelsdk.Notifier.
func (n *Notifier) Notify(_ context.Context, notice reelsdk.Notice) {
	var line string
	switch notice.Kind {
	case reelsdk.NoticeSessionExpired:
		line = n.Bundle.Lookup(n.Lang, "notice.session_expired")
	case reelsdk.NoticeBusiness:
		line = n.Bundle.Lookup(n.Lang, "notice.business_error") + ": " + notice.Message
	default:
		line = notice.Message
		if line == "" {
			line = n.Bundle.Lookup(n.Lang, "notice.network_error")
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.Out, line)
}

// Say prints the localized message for key.
func (n *Notifier) Say(key string, args map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.Out, n.Bundle.Format(n.Lang, key, args))
}
