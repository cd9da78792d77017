package networkdrive

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"path"
	"strings"

	"connector-service/core/metrics"
	"connector-service/core/source"

	"go.uber.org/zap"
)

const (
	// MaxFileSize is the largest file whose content is downloaded.
	MaxFileSize = 10485760
	chunkSize   = 65536
)

var supportedExtensions = map[string]struct{}{
	".txt": {}, ".py": {}, ".rst": {}, ".html": {}, ".markdown": {}, ".json": {},
	".xml": {}, ".csv": {}, ".md": {}, ".ppt": {}, ".rtf": {}, ".docx": {},
	".odt": {}, ".xls": {}, ".xlsx": {}, ".rb": {}, ".paper": {}, ".sh": {},
	".pptx": {}, ".pdf": {}, ".doc": {}, ".aspx": {}, ".xlsb": {}, ".xlsm": {},
	".tsv": {}, ".svg": {}, ".msg": {}, ".potx": {}, ".vsd": {}, ".vsdx": {},
	".vsdm": {},
}

// Supported reports whether content of a file with this name can be extracted.
func Supported(name string) bool {
	_, ok := supportedExtensions[strings.ToLower(path.Ext(name))]
	return ok
}

// contentFetcher returns the lazy content download of a file entry.
func (s *Source) contentFetcher(rel string, doc source.Document, entry FileEntry) source.ContentFetcher {
	return func(ctx context.Context, doit bool, timestamp string) (source.Document, error) {
		if !doit {
			return nil, nil
		}
		if !Supported(entry.Name) {
			metrics.ContentSkipped.WithLabelValues("unsupported").Inc()
			return nil, nil
		}
		if entry.Size <= 0 {
			metrics.ContentSkipped.WithLabelValues("empty").Inc()
			return nil, nil
		}
		if entry.Size > MaxFileSize {
			metrics.ContentSkipped.WithLabelValues("too_large").Inc()
			s.logger.Warn("File is larger than the content size limit, discarding the file content",
				zap.String("title", entry.Name),
				zap.Int64("size", entry.Size),
				zap.Int("limit", MaxFileSize),
			)
			return nil, nil
		}

		content, err := s.readFile(ctx, rel)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			s.logger.Error("Cannot read the contents of file", zap.String("path", doc[fieldPath].(string)), zap.Error(err))
			return nil, nil
		}

		if timestamp == "" {
			timestamp, _ = doc[source.FieldTimestamp].(string)
		}
		return source.Document{
			source.FieldID:         doc.ID(),
			source.FieldTimestamp:  timestamp,
			source.FieldAttachment: base64.StdEncoding.EncodeToString(content),
		}, nil
	}
}

type readResult struct {
	content []byte
	err     error
}

// readFile downloads a file in chunks on its own goroutine.
func (s *Source) readFile(ctx context.Context, rel string) ([]byte, error) {
	share, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	done := make(chan readResult, 1)
	go func() {
		f, err := share.Open(ctx, rel)
		if err != nil {
			done <- readResult{err: err}
			return
		}
		defer f.Close()

		var buf bytes.Buffer
		chunk := make([]byte, chunkSize)
		for {
			n, err := f.Read(chunk)
			buf.Write(chunk[:n])
			if err == io.EOF {
				break
			}
			if err != nil {
				done <- readResult{err: err}
				return
			}
		}
		done <- readResult{content: buf.Bytes()}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.content, res.err
	}
}
