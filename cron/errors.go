package cron

import (
	"errors"
	"fmt"
)

// ErrMalformedExpression 表达式格式错误.
//
// 所有解析失败都包装此错误，可用 errors.Is 判断.
var ErrMalformedExpression = errors.New("cron: malformed expression")

// ParseError 解析错误详情.
type ParseError struct {
	// Expression 原始表达式.
	Expression string

	// Field 出错的字段，段数错误时为 -1.
	Field FieldKind

	// Segment 出错的片段.
	Segment string

	// Reason 失败原因.
	Reason string
}

// Error 实现 error 接口.
func (e *ParseError) Error() string {
	if e.Field < 0 {
		return fmt.Sprintf("cron: malformed expression %q: %s", e.Expression, e.Reason)
	}
	return fmt.Sprintf("cron: malformed expression %q: %s field %q: %s",
		e.Expression, e.Field, e.Segment, e.Reason)
}

// Unwrap 使 errors.Is(err, ErrMalformedExpression) 成立.
func (e *ParseError) Unwrap() error {
	return ErrMalformedExpression
}
