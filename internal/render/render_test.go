package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoaudit/internal/audit"
	"photoaudit/internal/exif"
)

func plainTerminal(t *testing.T) *Terminal {
	t.Helper()
	term, err := NewTerminal(80, true)
	require.NoError(t, err)
	return term
}

func TestResultFailure(t *testing.T) {
	out := plainTerminal(t).Result(audit.Failure("quota exceeded"))
	assert.Contains(t, out, "Execution Error: quota exceeded")
}

func TestResultSuccessRendersMarkdown(t *testing.T) {
	out := plainTerminal(t).Result(audit.Success("# HARDWARE HEALTH AUDIT\n\nGrade: **B**"))
	assert.Contains(t, out, "HARDWARE HEALTH AUDIT")
	assert.Contains(t, out, "Grade")
}

func TestMetadataPanelSorted(t *testing.T) {
	out := plainTerminal(t).Metadata(exif.Metadata{"Model": "X100", "FNumber": 2.8})
	f := strings.Index(out, "FNumber: 2.8")
	m := strings.Index(out, "Model: X100")
	require.GreaterOrEqual(t, f, 0, out)
	assert.Greater(t, m, f)
	assert.Contains(t, strings.ToUpper(out), "HARDWARE_EXIF_DATA")
}

func TestReport(t *testing.T) {
	rep := audit.Report{
		Name:     "shot.jpg",
		Metadata: exif.Metadata{"Make": "Acme"},
		Result:   audit.Failure("boom"),
		Duration: 1500 * time.Millisecond,
	}
	out := plainTerminal(t).Report(rep, true)
	assert.Contains(t, out, "shot.jpg")
	assert.Contains(t, out, "Make: Acme")
	assert.Contains(t, out, "Execution Error: boom")
	assert.Contains(t, out, "1.5s")
}

func TestDarkBackground(t *testing.T) {
	t.Setenv("COLORFGBG", "15;0")
	assert.True(t, DarkBackground())
	t.Setenv("COLORFGBG", "0;15")
	assert.False(t, DarkBackground())
	t.Setenv("COLORFGBG", "")
	assert.True(t, DarkBackground())
}

func TestHTMLSanitizes(t *testing.T) {
	out, err := NewHTML().Render("# Audit\n\n<script>alert(1)</script>\n\n- **sharp** focus")
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "<h1")
	assert.Contains(t, s, "<strong>sharp</strong>")
	assert.NotContains(t, s, "<script>")
}
