package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoaudit/internal/backend"
	"photoaudit/internal/exif"
	"photoaudit/internal/exif/exiftest"
	"photoaudit/internal/photo"
	"photoaudit/internal/rubric"
)

func newAuditor(t *testing.T, gen backend.Generator) *Auditor {
	t.Helper()
	r, err := rubric.Load("audit")
	require.NoError(t, err)
	return New(gen, "test-model", r)
}

func jpegImage() *photo.Image {
	return &photo.Image{Name: "a.jpg", MediaType: photo.MediaJPEG, Data: exiftest.JPEG(nil)}
}

func TestRunSuccessIsVerbatim(t *testing.T) {
	fake := &backend.Fake{Reply: "OK"}
	res := newAuditor(t, fake).Run(context.Background(), jpegImage(), exif.Metadata{"Make": "Acme"})
	assert.Equal(t, Success("OK"), res)

	calls := fake.Calls()
	require.Len(t, calls, 1, "exactly one backend call")
	assert.Equal(t, "test-model", calls[0].Model)
	require.Len(t, calls[0].Parts, 2)
	assert.Equal(t, backend.PartImage, calls[0].Parts[0].Kind)
	assert.Equal(t, "image/jpeg", calls[0].Parts[0].MediaType)
	assert.Equal(t, backend.PartText, calls[0].Parts[1].Kind)
	assert.Contains(t, calls[0].Parts[1].Text, "Make: Acme")
}

func TestRunTransportErrorBecomesFailure(t *testing.T) {
	fake := &backend.Fake{Err: errors.New("dial tcp: connection refused")}
	res := newAuditor(t, fake).Run(context.Background(), jpegImage(), exif.Metadata{"Make": "Acme"})

	assert.False(t, res.OK)
	assert.Contains(t, res.Reason, "connection refused")
	assert.Len(t, fake.Calls(), 1, "no retries")
}

func TestRunEmptyTextIsFailure(t *testing.T) {
	res := newAuditor(t, &backend.Fake{Reply: "  \n"}).Run(context.Background(), jpegImage(), exif.Metadata{})
	assert.False(t, res.OK)
	assert.Equal(t, backend.ErrEmptyResponse.Error(), res.Reason)
}

func TestRunEmbedsNoExifSentinel(t *testing.T) {
	fake := &backend.Fake{Reply: "report"}
	md := exif.Metadata{exif.InfoKey: exif.NoExifMessage}

	res := newAuditor(t, fake).Run(context.Background(), jpegImage(), md)

	require.True(t, res.OK)
	assert.Contains(t, fake.Calls()[0].Parts[1].Text, "info: no exif data found")
}

func TestRunHonorsCallerDeadline(t *testing.T) {
	fake := &backend.Fake{Block: make(chan struct{})}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := newAuditor(t, fake).Run(ctx, jpegImage(), exif.Metadata{})

	assert.False(t, res.OK)
	assert.True(t, strings.HasPrefix(res.Reason, "request timed out"), res.Reason)
}

type panicky struct{}

func (panicky) Generate(context.Context, string, []backend.Part) (string, error) {
	panic("client bug")
}

func TestRunRecoversBackendPanic(t *testing.T) {
	res := newAuditor(t, panicky{}).Run(context.Background(), jpegImage(), exif.Metadata{})
	assert.False(t, res.OK)
	assert.Contains(t, res.Reason, "client bug")
}

func TestAuditExtractsFromOriginalBytes(t *testing.T) {
	fake := &backend.Fake{Reply: "fine"}
	data := exiftest.JPEG(exiftest.TIFF([]exiftest.Tag{
		exiftest.ASCII(0x010f, "Acme"),
		exiftest.Undefined(exif.MakerNoteID, []byte{0, 1, 2, 3, 4}),
	}, nil))
	raw, err := photo.FromBytes(data, "x.jpg")
	require.NoError(t, err)

	rep := newAuditor(t, fake).Audit(context.Background(), raw)

	assert.Equal(t, exif.Metadata{"Make": "Acme"}, rep.Metadata)
	assert.Equal(t, Success("fine"), rep.Result)
	assert.NotContains(t, fake.Calls()[0].Parts[1].Text, "MakerNote")
}

func TestAuditPNGIsSentAsJPEG(t *testing.T) {
	fake := &backend.Fake{Reply: "fine"}
	raw, err := photo.FromBytes(exiftest.PNG(), "x.png")
	require.NoError(t, err)

	rep := newAuditor(t, fake).Audit(context.Background(), raw)

	require.True(t, rep.Result.OK)
	assert.Equal(t, exif.InfoKey, rep.Metadata.Status())
	assert.Equal(t, "image/jpeg", fake.Calls()[0].Parts[0].MediaType)
}

func TestAuditFileMissing(t *testing.T) {
	fake := &backend.Fake{Reply: "unused"}
	rep := newAuditor(t, fake).AuditFile(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"), 0)
	assert.False(t, rep.Result.OK)
	assert.Empty(t, fake.Calls())
}

func TestAuditFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "shot.jpg")
	require.NoError(t, os.WriteFile(p, exiftest.JPEG(nil), 0644))

	rep := newAuditor(t, &backend.Fake{Reply: "ok"}).AuditFile(context.Background(), p, 0)
	assert.True(t, rep.Result.OK)
	assert.Equal(t, "shot.jpg", rep.Name)
}

func TestConcurrentRunsAreIndependent(t *testing.T) {
	fake := &backend.Fake{Reply: "OK"}
	a := newAuditor(t, fake)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, a.Run(context.Background(), jpegImage(), exif.Metadata{"Make": "Acme"}).OK)
		}()
	}
	wg.Wait()
	assert.Len(t, fake.Calls(), 8)
}
