// Package encoder 把用户上传的文件转换为可以直接发送给模型的 FileRecord。
package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/tahsinmert/AgendaGenius/internal/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyName    = errors.New("file name is required")
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// Source 一个待编码的文件
type Source interface {
	Name() string
	MimeType() string
	Open() (io.ReadCloser, error)
}

type Encoder struct {
	maxBytes int64
}

// New maxBytes <= 0 表示不限制大小
func New(maxBytes int64) *Encoder {
	return &Encoder{maxBytes: maxBytes}
}

// Encode 读取全部内容并编码为 data URI
func (e *Encoder) Encode(name, mimeType string, r io.Reader) (model.FileRecord, error) {
	if strings.TrimSpace(name) == "" {
		return model.FileRecord{}, ErrEmptyName
	}

	reader := r
	if e.maxBytes > 0 {
		reader = io.LimitReader(r, e.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return model.FileRecord{}, fmt.Errorf("read %s: %w", name, err)
	}
	if e.maxBytes > 0 && int64(len(data)) > e.maxBytes {
		return model.FileRecord{}, fmt.Errorf("%w: %s", ErrFileTooLarge, name)
	}

	mimeType = resolveMimeType(mimeType, data)

	return model.FileRecord{
		ID:        uuid.New().String(),
		Name:      name,
		MimeType:  mimeType,
		Content:   model.EncodeDataURI(mimeType, data),
		SizeBytes: int64(len(data)),
	}, nil
}

// EncodeBatch 并发编码一批文件；任何一个失败则整批失败，不返回部分结果
func (e *Encoder) EncodeBatch(ctx context.Context, sources []Source) ([]model.FileRecord, error) {
	records := make([]model.FileRecord, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rc, err := src.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", src.Name(), err)
			}
			defer rc.Close()

			record, err := e.Encode(src.Name(), src.MimeType(), rc)
			if err != nil {
				return err
			}
			records[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// 声明的类型为空或是通用二进制时，根据内容探测
func resolveMimeType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	detected := mimetype.Detect(data).String()
	if base, _, ok := strings.Cut(detected, ";"); ok {
		return strings.TrimSpace(base)
	}
	return detected
}

type fileHeaderSource struct {
	fh *multipart.FileHeader
}

// FromFileHeader 适配 multipart 上传的文件
func FromFileHeader(fh *multipart.FileHeader) Source {
	return fileHeaderSource{fh: fh}
}

func (s fileHeaderSource) Name() string { return s.fh.Filename }

func (s fileHeaderSource) MimeType() string { return s.fh.Header.Get("Content-Type") }

func (s fileHeaderSource) Open() (io.ReadCloser, error) { return s.fh.Open() }

type bytesSource struct {
	name     string
	mimeType string
	data     []byte
}

// FromBytes 内存中的文件
func FromBytes(name, mimeType string, data []byte) Source {
	return bytesSource{name: name, mimeType: mimeType, data: data}
}

func (s bytesSource) Name() string { return s.name }

func (s bytesSource) MimeType() string { return s.mimeType }

func (s bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}
