package model

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data uri")

// EncodeDataURI 生成 data:<mime>;base64,<payload>
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI 解析 base64 data URI，返回载荷和声明的 MIME 类型
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return nil, "", ErrInvalidDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errors.Join(ErrInvalidDataURI, err)
	}
	return data, mimeType, nil
}

// Payload 返回文件解码后的内容
func (f FileRecord) Payload() ([]byte, error) {
	data, _, err := DecodeDataURI(f.Content)
	return data, err
}
