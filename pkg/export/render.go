package export

import (
	"fmt"
	"html"
	"strings"

	"convoscope/pkg/model"
)

// FormatTranscript renders a conversation transcript as plain text, one
// timed line per segment.
func FormatTranscript(tr *model.ConversationTranscript) string {
	var sb strings.Builder
	for _, seg := range tr.Segments {
		fmt.Fprintf(&sb, "[%s - %s] %s: %s\n\n",
			formatTime(seg.Start), formatTime(seg.End), seg.Speaker, seg.Text)
	}
	return sb.String()
}

// RenderHTML renders a conversation transcript as a standalone HTML page,
// coloring the two speakers differently.
func RenderHTML(tr *model.ConversationTranscript) string {
	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Conversation Transcription</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; }
        h1 { color: #333; }
        .segment { margin-bottom: 15px; }
        .time { color: #666; font-size: 0.8em; }
        .speaker { font-weight: bold; color: #0066cc; }
        .speaker.char1 { color: #0066cc; }
        .speaker.char2 { color: #cc6600; }
    </style>
</head>
<body>
`)
	char1, char2 := tr.Characters[0], tr.Characters[1]
	fmt.Fprintf(&sb, "<h1>Conversation #%d between %s and %s</h1>\n",
		tr.Number, html.EscapeString(char1), html.EscapeString(char2))

	for _, seg := range tr.Segments {
		speakerClass := "char2"
		if seg.Speaker == char1 {
			speakerClass = "char1"
		}
		sb.WriteString("<div class=\"segment\">\n")
		fmt.Fprintf(&sb, "    <span class=\"time\">[%s - %s]</span>\n",
			formatTime(seg.Start), formatTime(seg.End))
		fmt.Fprintf(&sb, "    <span class=\"speaker %s\">%s:</span>\n",
			speakerClass, html.EscapeString(seg.Speaker))
		fmt.Fprintf(&sb, "    <span class=\"text\">%s</span>\n", html.EscapeString(seg.Text))
		sb.WriteString("</div>\n")
	}

	sb.WriteString("</body>\n</html>")
	return sb.String()
}

// DefaultName is the suggested export filename for one transcript, e.g.
// "ivy_vex_convo3.html".
func DefaultName(tr *model.ConversationTranscript, extension string) string {
	return fmt.Sprintf("%s_%s_convo%d%s", tr.Characters[0], tr.Characters[1], tr.Number, extension)
}

// formatTime formats seconds as MM:SS.
func formatTime(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
