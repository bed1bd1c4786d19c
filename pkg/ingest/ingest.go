// Package ingest assembles operator input into an ordered content batch.
//
// Text, the manual task line and the link become text parts in that order.
// Attached files follow in their original order: text files are inlined,
// audio is transcribed, anything else is passed through as a binary part for
// the model analyzer. Files are converted concurrently.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyInput is returned when no text, task, link or file was supplied.
var ErrEmptyInput = errors.New("no input supplied")

const (
	DefaultMaxFileBytes = 20 << 20
	DefaultWorkers      = 4

	textPrefix   = "原始指令或貼文內容: "
	manualPrefix = "使用者手動輸入的單一任務: "
	linkPrefix   = "重要資訊來源連結: "
)

// File is an attachment. Data takes precedence over Path.
type File struct {
	Name     string
	Path     string
	Data     []byte
	MIMEType string
}

// Input is everything the operator supplied for one batch.
type Input struct {
	Text       string
	ManualTask string
	URL        string
	Files      []File
}

// Empty reports whether in carries nothing to analyze.
func (in Input) Empty() bool {
	return strings.TrimSpace(in.Text) == "" &&
		strings.TrimSpace(in.ManualTask) == "" &&
		strings.TrimSpace(in.URL) == "" &&
		len(in.Files) == 0
}

type PartKind int

const (
	PartText PartKind = iota
	PartBlob
)

// Part is one ordered element of a batch.
type Part struct {
	Kind PartKind
	// Text is the labelled text sent to the model.
	Text string
	// Body is the readable content of Text without labels. It is empty for
	// links and for notes that accompany binary parts.
	Body     string
	Data     []byte
	MIMEType string
	// Source names the file a part came from; empty for typed input.
	Source string
	// Warning marks a placeholder for a file that could not be converted.
	Warning bool
}

// Batch is the assembled, ordered content of one analysis.
type Batch struct {
	Parts []Part
	// LongForm is set when any file or transcript contributed content.
	LongForm bool
}

// Text joins every text part that is not a warning.
func (b *Batch) Text() string {
	var out []string
	for _, p := range b.Parts {
		if p.Kind == PartText && !p.Warning {
			out = append(out, p.Text)
		}
	}
	return strings.Join(out, "\n\n")
}

// Warnings returns the names of files that failed conversion.
func (b *Batch) Warnings() []string {
	var out []string
	for _, p := range b.Parts {
		if p.Warning {
			out = append(out, p.Source)
		}
	}
	return out
}

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Options configures an Assembler. Zero values select the defaults.
type Options struct {
	MaxFileBytes int64
	Workers      int
	Transcriber  Transcriber
	Logger       *zap.Logger
}

// Assembler builds batches from input.
type Assembler struct {
	maxBytes    int64
	workers     int
	transcriber Transcriber
	logger      *zap.Logger
}

// New returns an Assembler.
func New(opts Options) *Assembler {
	a := &Assembler{
		maxBytes:    opts.MaxFileBytes,
		workers:     opts.Workers,
		transcriber: opts.Transcriber,
		logger:      opts.Logger,
	}
	if a.maxBytes <= 0 {
		a.maxBytes = DefaultMaxFileBytes
	}
	if a.workers <= 0 {
		a.workers = DefaultWorkers
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// Assemble converts in into a batch. A file that fails to convert is replaced
// by a warning part; only cancellation aborts the whole batch.
func (a *Assembler) Assemble(ctx context.Context, in Input) (*Batch, error) {
	if in.Empty() {
		return nil, ErrEmptyInput
	}

	batch := &Batch{}
	if s := strings.TrimSpace(in.Text); s != "" {
		batch.Parts = append(batch.Parts, Part{Kind: PartText, Text: textPrefix + s, Body: s})
	}
	if s := strings.TrimSpace(in.ManualTask); s != "" {
		batch.Parts = append(batch.Parts, Part{Kind: PartText, Text: manualPrefix + s, Body: s})
	}
	if s := strings.TrimSpace(in.URL); s != "" {
		batch.Parts = append(batch.Parts, Part{Kind: PartText, Text: linkPrefix + s})
	}

	converted := make([][]Part, len(in.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, f := range in.Files {
		if f.Name == "" {
			f.Name = filepath.Base(f.Path)
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts, err := a.convert(gctx, f)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				a.logger.Warn("file conversion failed", zap.String("file", f.Name), zap.Error(err))
				parts = []Part{{
					Kind:    PartText,
					Text:    fmt.Sprintf("[警告] 檔案 %s 處理失敗。請忽略此檔案。", f.Name),
					Source:  f.Name,
					Warning: true,
				}}
			}
			converted[i] = parts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assembling input: %w", err)
	}

	for _, parts := range converted {
		for _, p := range parts {
			if !p.Warning {
				batch.LongForm = true
			}
		}
		batch.Parts = append(batch.Parts, parts...)
	}
	return batch, nil
}

func (a *Assembler) convert(ctx context.Context, f File) ([]Part, error) {
	data, err := a.load(f)
	if err != nil {
		return nil, err
	}
	mimeType := detectMIME(f, data)
	a.logger.Debug("converting file", zap.String("file", f.Name), zap.String("mime", mimeType), zap.Int("bytes", len(data)))

	switch {
	case strings.HasPrefix(mimeType, "audio/"):
		if a.transcriber == nil {
			return nil, fmt.Errorf("no transcriber configured for %s", f.Name)
		}
		text, err := a.transcriber.Transcribe(ctx, data, mimeType)
		if err != nil {
			return nil, fmt.Errorf("transcribing %s: %w", f.Name, err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("empty transcript for %s", f.Name)
		}
		body := strings.TrimSpace(text)
		return []Part{{Kind: PartText, Text: fmt.Sprintf("檔案 %s 的語音轉錄內容:\n%s", f.Name, body), Body: body, Source: f.Name}}, nil
	case isText(mimeType):
		body := strings.TrimSpace(string(data))
		return []Part{{Kind: PartText, Text: fmt.Sprintf("檔案 %s 的內容:\n%s", f.Name, body), Body: body, Source: f.Name}}, nil
	}
	return []Part{
		{Kind: PartBlob, Data: data, MIMEType: mimeType, Source: f.Name},
		{Kind: PartText, Text: fmt.Sprintf("請解析上方 %s 檔案的內容，提取任務與摘要。", f.Name), Source: f.Name},
	}, nil
}

func (a *Assembler) load(f File) ([]byte, error) {
	if f.Data != nil {
		if int64(len(f.Data)) > a.maxBytes {
			return nil, fmt.Errorf("%s exceeds %d bytes", f.Name, a.maxBytes)
		}
		return f.Data, nil
	}
	info, err := os.Stat(f.Path)
	if err != nil {
		return nil, err
	}
	if info.Size() > a.maxBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", f.Name, a.maxBytes)
	}
	return os.ReadFile(f.Path)
}

func detectMIME(f File, data []byte) string {
	t := f.MIMEType
	if t == "" {
		t = mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name)))
	}
	if t == "" {
		t = http.DetectContentType(data)
	}
	if base, _, err := mime.ParseMediaType(t); err == nil {
		return base
	}
	return t
}

func isText(mimeType string) bool {
	switch mimeType {
	case "application/json", "application/xml", "application/x-yaml", "application/yaml":
		return true
	}
	return strings.HasPrefix(mimeType, "text/")
}
