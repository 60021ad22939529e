package service

import (
	"errors"
	"fmt"
)

var (
	ErrNoFiles         = errors.New("please upload at least one file")
	ErrNoAgenda        = errors.New("no agenda has been generated")
	ErrBusy            = errors.New("another request is already in progress")
	ErrStaleGeneration = errors.New("generation result is stale")
	ErrEmptyResponse   = errors.New("empty response from model")
	ErrEmptyMessage    = errors.New("message is required")
	ErrInvalidDuration = errors.New("duration must not be negative")
)

// ConfigurationError 真实模式缺少凭证或模型
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// GenerationError 远端调用失败或返回内容无法解析
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IndexError 位置参数越界
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Len)
}

func checkIndex(index, length int) error {
	if index < 0 || index >= length {
		return &IndexError{Index: index, Len: length}
	}
	return nil
}
