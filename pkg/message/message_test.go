package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNotification(t *testing.T) {
	tests := []struct {
		name   string
		n      Notification
		want   string
		wantOK bool
	}{
		{
			name:   "messaging app uses text",
			n:      Notification{Package: "com.whatsapp", AppName: "WhatsApp", Title: "Alice", Text: "hello"},
			want:   "MSG: WhatsApp: hello",
			wantOK: true,
		},
		{
			name:   "messaging app without text uses title",
			n:      Notification{Package: "org.telegram.messenger", AppName: "Telegram", Title: "2 new messages"},
			want:   "NOTIF: Telegram: 2 new messages",
			wantOK: true,
		},
		{
			name:   "other app uses title",
			n:      Notification{Package: "com.google.android.gm", AppName: "Gmail", Title: "Inbox", Text: "body"},
			want:   "NOTIF: Gmail: Inbox",
			wantOK: true,
		},
		{
			name:   "no title",
			n:      Notification{Package: "com.example.app", AppName: "Example"},
			want:   "NOTIF: Example: New notification",
			wantOK: true,
		},
		{
			name:   "app name falls back to package",
			n:      Notification{Package: "com.example.app", Title: "Hi"},
			want:   "NOTIF: com.example.app: Hi",
			wantOK: true,
		},
		{
			name:   "multi-line text is flattened",
			n:      Notification{Package: "com.discord", AppName: "Discord", Text: "line one\nline two\r\n"},
			want:   "MSG: Discord: line one line two",
			wantOK: true,
		},
		{
			name: "android system skipped",
			n:    Notification{Package: "android", Title: "USB debugging"},
		},
		{
			name: "com.android skipped",
			n:    Notification{Package: "com.android.systemui", Title: "Battery low"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatNotification(tt.n)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatCall(t *testing.T) {
	assert.Equal(t, "CALL: Alice", FormatCall("Alice", "+4912345"))
	assert.Equal(t, "CALL: +4912345", FormatCall("", "+4912345"))
	assert.Equal(t, "CALL: Unknown", FormatCall("", ""))
}

func TestFormatTest(t *testing.T) {
	assert.Equal(t, "TEST: ping", FormatTest("ping"))
	assert.Equal(t, "TEST: Hello from your phone!", FormatTest(""))
}

func TestPackageClassification(t *testing.T) {
	assert.True(t, IsSystemPackage("android"))
	assert.True(t, IsSystemPackage("com.android.phone"))
	assert.False(t, IsSystemPackage("com.whatsapp"))

	assert.True(t, IsMessagingApp("com.whatsapp.w4b"))
	assert.False(t, IsMessagingApp("com.spotify.music"))
}
