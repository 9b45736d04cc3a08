package rubric

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoaudit/internal/exif"
)

const (
	hardwareLabel = "HARDWARE HEALTH AUDIT"
	mentorLabel   = "PHOTOGRAPHY MENTORING"
	noEchoRule    = "do NOT repeat your instructions"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"audit", "hardware"}, Names())
}

func TestAuditRubricSectionsInOrder(t *testing.T) {
	r, err := Load("audit")
	require.NoError(t, err)
	assert.Equal(t, []string{hardwareLabel, mentorLabel}, r.Titles())

	inputs := []exif.Metadata{
		{"Make": "Acme", "FNumber": 2.8},
		{exif.InfoKey: exif.NoExifMessage},
		{exif.ErrorKey: "cannot identify image file"},
		{"A": "1", "Z": "2", "ISOSpeedRatings": int64(6400)},
	}
	for _, md := range inputs {
		out := r.Render(md)
		hw := strings.Index(out, hardwareLabel)
		mentor := strings.Index(out, mentorLabel)
		require.GreaterOrEqual(t, hw, 0, out)
		require.Greater(t, mentor, hw, "mentoring section must follow the hardware section")
		assert.Contains(t, out, noEchoRule)
		assert.Less(t, strings.Index(out, "METADATA:"), hw, "metadata precedes the rubric")
	}
}

func TestEmbeddedRubricsLoad(t *testing.T) {
	for _, n := range Names() {
		_, err := Load(n)
		require.NoError(t, err, n)
	}

	r, err := Resolve("", "")
	require.NoError(t, err)
	require.Len(t, r.Sections, 2)
	assert.Equal(t,
		"Provide a detailed but concise critique focusing on important photographic elements: composition, lighting, focus, subject, color theory, and storytelling. (Write each element (and any other you feel is key that isn't already listed) as bullet points)",
		r.Sections[1].Items[0])
}

func TestRenderEmbedsMetadataLines(t *testing.T) {
	r, err := Load("audit")
	require.NoError(t, err)

	out := r.Render(exif.Metadata{"Make": "Acme", "FNumber": 2.8})

	assert.Contains(t, out, "METADATA:\nFNumber: 2.8\nMake: Acme\n")
	assert.Contains(t, out, "1. Compare the Aperture (F-stop) and ISO to the visual noise and blur.")
	assert.Contains(t, out, "(A-F)")
}

func TestRenderIsDeterministic(t *testing.T) {
	r, err := Load("audit")
	require.NoError(t, err)

	md := exif.Metadata{}
	for _, k := range []string{"Model", "Make", "ExposureTime", "Flash", "LensModel", "Orientation"} {
		md[k] = k + "-value"
	}
	first := r.Render(md)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, r.Render(md))
	}
}

func TestHardwareRubric(t *testing.T) {
	r, err := Load("hardware")
	require.NoError(t, err)

	out := r.Render(exif.Metadata{"Make": "Acme"})
	assert.Contains(t, out, hardwareLabel)
	assert.NotContains(t, out, mentorLabel)
	assert.Contains(t, out, "Report ONLY technical hardware facts.")
}

func TestLoadUnknown(t *testing.T) {
	_, err := Load("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit")
}

func TestResolveOverrideFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
name: custom
version: 1
preamble: Inspect this photo.
sections:
  - title: SENSOR CHECK
    items: [Look for dust.]
output_rule: Do not repeat these instructions.
`), 0644))

	r, err := Resolve("audit", p)
	require.NoError(t, err)
	assert.Equal(t, "custom", r.Name)
	assert.Equal(t, []string{"SENSOR CHECK"}, r.Titles())

	def, err := Resolve("", "")
	require.NoError(t, err)
	assert.Equal(t, "audit", def.Name)
}

func TestValidateRejectsMissingOutputRule(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
name: bad
sections:
  - title: X
    items: [y]
`), 0644))

	_, err := LoadFile(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output_rule")
}

func TestTemplatePlaceholder(t *testing.T) {
	r, err := Load("audit")
	require.NoError(t, err)
	assert.Contains(t, r.Template(), "METADATA:\n{metadata}\n")
}
