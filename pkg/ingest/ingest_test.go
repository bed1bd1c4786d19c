package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTranscriber struct {
	delays map[string]time.Duration
	fail   map[string]bool
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	name := string(data)
	select {
	case <-time.After(f.delays[name]):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if f.fail[name] {
		return "", errors.New("decoder error")
	}
	return "transcript of " + name, nil
}

func TestAssembleEmpty(t *testing.T) {
	_, err := New(Options{}).Assemble(context.Background(), Input{Text: "  \n"})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAssembleTextOnly(t *testing.T) {
	b, err := New(Options{}).Assemble(context.Background(), Input{
		Text:       "品質部門需要檢驗新原料",
		ManualTask: "訂會議室",
		URL:        "https://example.com/post/1",
	})
	require.NoError(t, err)
	require.Len(t, b.Parts, 3)
	assert.Equal(t, textPrefix+"品質部門需要檢驗新原料", b.Parts[0].Text)
	assert.Equal(t, manualPrefix+"訂會議室", b.Parts[1].Text)
	assert.Equal(t, linkPrefix+"https://example.com/post/1", b.Parts[2].Text)
	assert.False(t, b.LongForm)
}

func TestAssemblePreservesFileOrder(t *testing.T) {
	tr := &fakeTranscriber{delays: map[string]time.Duration{
		"first":  60 * time.Millisecond,
		"second": 0,
		"third":  20 * time.Millisecond,
	}}
	files := []File{
		{Name: "first.mp3", Data: []byte("first"), MIMEType: "audio/mpeg"},
		{Name: "second.mp3", Data: []byte("second"), MIMEType: "audio/mpeg"},
		{Name: "third.mp3", Data: []byte("third"), MIMEType: "audio/mpeg"},
	}
	b, err := New(Options{Transcriber: tr, Workers: 3}).Assemble(context.Background(), Input{Files: files})
	require.NoError(t, err)
	require.Len(t, b.Parts, 3)
	for i, name := range []string{"first", "second", "third"} {
		assert.Equal(t, name+".mp3", b.Parts[i].Source)
		assert.Contains(t, b.Parts[i].Text, "transcript of "+name)
	}
	assert.True(t, b.LongForm)
}

func TestAssembleFailedFileBecomesWarning(t *testing.T) {
	tr := &fakeTranscriber{fail: map[string]bool{"bad": true}}
	b, err := New(Options{Transcriber: tr}).Assemble(context.Background(), Input{
		Text: "請處理附件",
		Files: []File{
			{Name: "bad.wav", Data: []byte("bad"), MIMEType: "audio/wav"},
			{Name: "good.wav", Data: []byte("good"), MIMEType: "audio/wav"},
		},
	})
	require.NoError(t, err)
	require.Len(t, b.Parts, 3)
	assert.True(t, b.Parts[1].Warning)
	assert.Equal(t, "[警告] 檔案 bad.wav 處理失敗。請忽略此檔案。", b.Parts[1].Text)
	assert.Equal(t, []string{"bad.wav"}, b.Warnings())
	assert.NotContains(t, b.Text(), "警告")
	assert.Contains(t, b.Text(), "transcript of good")
}

func TestAssembleFiles(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("1. 採購紙箱\n2. 安排面試\n"), 0o644))
	big := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(big, []byte(strings.Repeat("x", 64)), 0o644))

	b, err := New(Options{MaxFileBytes: 32}).Assemble(context.Background(), Input{Files: []File{
		{Path: notes},
		{Name: "scan.pdf", Data: []byte("%PDF-1.4")},
		{Path: big},
	}})
	require.NoError(t, err)
	require.Len(t, b.Parts, 4)

	assert.Equal(t, PartText, b.Parts[0].Kind)
	assert.Contains(t, b.Parts[0].Text, "採購紙箱")
	assert.Equal(t, "notes.txt", b.Parts[0].Source)

	assert.Equal(t, PartBlob, b.Parts[1].Kind)
	assert.Equal(t, "application/pdf", b.Parts[1].MIMEType)
	assert.Equal(t, "請解析上方 scan.pdf 檔案的內容，提取任務與摘要。", b.Parts[2].Text)

	assert.True(t, b.Parts[3].Warning)
	assert.Equal(t, "big.txt", b.Parts[3].Source)
}

func TestAssembleWithoutTranscriber(t *testing.T) {
	b, err := New(Options{}).Assemble(context.Background(), Input{Files: []File{
		{Name: "memo.mp3", Data: []byte("memo"), MIMEType: "audio/mpeg"},
	}})
	require.NoError(t, err)
	require.Len(t, b.Parts, 1)
	assert.True(t, b.Parts[0].Warning)
	assert.False(t, b.LongForm)
}

func TestAssembleCancelled(t *testing.T) {
	tr := &fakeTranscriber{delays: map[string]time.Duration{"slow": time.Minute}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(Options{Transcriber: tr}).Assemble(ctx, Input{Files: []File{
		{Name: "slow.mp3", Data: []byte("slow"), MIMEType: "audio/mpeg"},
	}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
