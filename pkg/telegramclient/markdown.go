package telegramclient

import "strings"

// markdownSpecials are the characters the legacy Markdown parse mode treats
// as formatting.
const markdownSpecials = "_*`[]()~>#+-=|{}.!"

// EscapeMarkdown escapes text for safe interpolation into a message sent with
// the legacy Markdown parse mode. Unescaped user-controlled text can break
// rendering or leak formatting.
func EscapeMarkdown(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(markdownSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
