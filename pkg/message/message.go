// Package message formats the producer texts sent to the glasses.
//
// The classifier that decides what a phone event means lives outside the
// link manager; these helpers only turn already-extracted fields into the
// one-line wire texts the glasses firmware understands.
package message

import (
	"strings"
)

// Text prefixes understood by the glasses firmware.
const (
	PrefixMessage      = "MSG"
	PrefixNotification = "NOTIF"
	PrefixCall         = "CALL"
	PrefixTest         = "TEST"
)

// DefaultGreeting is sent after every successful connect.
const DefaultGreeting = "TEST:Connection established"

// messagingApps are packages whose notification text is the message body.
var messagingApps = []string{
	"com.whatsapp",
	"com.facebook.orca",
	"com.instagram.android",
	"com.google.android.apps.messaging",
	"com.android.mms",
	"org.telegram.messenger",
	"com.snapchat.android",
	"com.twitter.android",
	"com.discord",
}

// Notification holds the fields extracted from a phone notification.
type Notification struct {
	Package string
	AppName string
	Title   string
	Text    string
}

// IsSystemPackage reports whether notifications from pkg are skipped.
func IsSystemPackage(pkg string) bool {
	return pkg == "android" || strings.HasPrefix(pkg, "com.android")
}

// IsMessagingApp reports whether pkg is a known messaging app.
func IsMessagingApp(pkg string) bool {
	for _, app := range messagingApps {
		if strings.Contains(pkg, app) {
			return true
		}
	}
	return false
}

// FormatNotification returns the wire text for n. ok is false for
// notifications that must not be forwarded.
func FormatNotification(n Notification) (text string, ok bool) {
	if IsSystemPackage(n.Package) {
		return "", false
	}

	app := n.AppName
	if app == "" {
		app = n.Package
	}

	switch {
	case IsMessagingApp(n.Package) && n.Text != "":
		return join(PrefixMessage, app, n.Text), true
	case n.Title != "":
		return join(PrefixNotification, app, n.Title), true
	default:
		return join(PrefixNotification, app, "New notification"), true
	}
}

// FormatCall returns the wire text for an incoming call. The contact
// name wins over the number; both empty yields "Unknown".
func FormatCall(contact, number string) string {
	caller := contact
	if caller == "" {
		caller = number
	}
	if caller == "" {
		caller = "Unknown"
	}
	return join(PrefixCall, caller)
}

// FormatTest returns a test message.
func FormatTest(text string) string {
	if text == "" {
		text = "Hello from your phone!"
	}
	return join(PrefixTest, text)
}

// join builds "PREFIX: a: b" and flattens line breaks, since a newline
// terminates a message on the wire.
func join(prefix string, parts ...string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		b.WriteString(": ")
		b.WriteString(singleLine(p))
	}
	return b.String()
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func singleLine(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}
