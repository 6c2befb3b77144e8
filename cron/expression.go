// Package cron 提供六字段 Cron 表达式的解析和匹配.
//
// 表达式格式: 秒 分 时 日 月 周
//
// 每个字段支持以下形式:
//   - *      任意值
//   - */N    取值能被 N 整除
//   - A-B    闭区间
//   - A,B,C  枚举
//   - N      单个值
//
// 与传统 cron 不同，日和周两个字段按"与"关系组合：两者都受限时必须同时满足.
// 星期取值 0-6，0 表示周日，7 不作为周日的别名.
//
// 示例:
//
//	expr, err := cron.Parse("0 */5 * * * *")
//	if err != nil {
//	    return err
//	}
//	if expr.IsDue(time.Now()) {
//	    // ...
//	}
package cron

import (
	"strconv"
	"strings"
	"time"
)

// Expression 已解析的 Cron 表达式.
//
// 解析后不可变，IsDue 是无副作用的纯函数，可并发调用.
type Expression struct {
	source string
	fields [fieldCount]Field
}

// Parse 解析 Cron 表达式.
//
// 表达式必须恰好包含六个以空白分隔的字段，否则返回 ErrMalformedExpression.
func Parse(expr string) (*Expression, error) {
	segments := strings.Fields(expr)
	if len(segments) != fieldCount {
		return nil, &ParseError{
			Expression: expr,
			Field:      -1,
			Reason:     "expected 6 fields, got " + strconv.Itoa(len(segments)),
		}
	}

	e := &Expression{source: expr}
	for i, kind := range fieldKinds {
		f, err := parseField(kind, segments[i])
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.Expression = expr
			}
			return nil, err
		}
		e.fields[i] = f
	}
	return e, nil
}

// MustParse 解析表达式，失败时 panic.
func MustParse(expr string) *Expression {
	e, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return e
}

// IsDue 检查时间点是否满足表达式.
//
// 直接使用 t 自身的时区分量，不做任何时区转换.
func (e *Expression) IsDue(t time.Time) bool {
	return e.fields[Second].Matches(t.Second()) &&
		e.fields[Minute].Matches(t.Minute()) &&
		e.fields[Hour].Matches(t.Hour()) &&
		e.fields[DayOfMonth].Matches(t.Day()) &&
		e.fields[Month].Matches(int(t.Month())) &&
		e.fields[DayOfWeek].Matches(int(t.Weekday()))
}

// Field 返回指定字段.
func (e *Expression) Field(kind FieldKind) Field {
	return e.fields[kind]
}

// String 返回原始表达式.
func (e *Expression) String() string {
	return e.source
}

// Next 返回 after 之后（不含）第一个满足表达式的整秒时间.
//
// 按月、日、时、分逐级跳过不匹配的区间，最多向后查找 limit 时长；
// 找不到时返回零值和 false.
func (e *Expression) Next(after time.Time, limit time.Duration) (time.Time, bool) {
	t := after.Truncate(time.Second).Add(time.Second)
	end := after.Add(limit)
	for !t.After(end) {
		var next time.Time
		switch {
		case !e.fields[Month].Matches(int(t.Month())):
			next = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
		case !e.fields[DayOfMonth].Matches(t.Day()) || !e.fields[DayOfWeek].Matches(int(t.Weekday())):
			next = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
		case !e.fields[Hour].Matches(t.Hour()):
			next = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, t.Location())
		case !e.fields[Minute].Matches(t.Minute()):
			next = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()+1, 0, 0, t.Location())
		case e.fields[Second].Matches(t.Second()):
			return t, true
		default:
			next = t.Add(time.Second)
		}
		// 夏令时切换可能让 time.Date 回退，保证单调前进
		if !next.After(t) {
			next = t.Add(time.Second)
		}
		t = next
	}
	return time.Time{}, false
}
