package cron

import (
	"math/bits"
	"strconv"
	"strings"
)

// FieldKind 字段类型.
type FieldKind int

// 六个字段，顺序即表达式中的位置.
const (
	Second FieldKind = iota
	Minute
	Hour
	DayOfMonth
	Month
	DayOfWeek
)

// fieldCount 表达式字段数.
const fieldCount = 6

// fieldKinds 按表达式顺序排列的字段类型.
var fieldKinds = [fieldCount]FieldKind{Second, Minute, Hour, DayOfMonth, Month, DayOfWeek}

// String 返回字段名称.
func (k FieldKind) String() string {
	switch k {
	case Second:
		return "second"
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case DayOfMonth:
		return "day-of-month"
	case Month:
		return "month"
	case DayOfWeek:
		return "day-of-week"
	default:
		return "unknown"
	}
}

// Bounds 返回字段取值范围（闭区间）.
//
// 星期取值 0-6，0 表示周日，不接受 7.
func (k FieldKind) Bounds() (min, max int) {
	switch k {
	case Second, Minute:
		return 0, 59
	case Hour:
		return 0, 23
	case DayOfMonth:
		return 1, 31
	case Month:
		return 1, 12
	case DayOfWeek:
		return 0, 6
	default:
		return 0, -1
	}
}

// Field 单个字段的匹配规则.
//
// 解析后不可变，可在多个 goroutine 间共享.
type Field struct {
	kind     FieldKind
	raw      string
	wildcard bool
	step     int
	mask     uint64
}

// parseField 解析单个字段.
//
// 依次尝试: *、*/N、A-B、A,B,C、N，第一个匹配的形式生效.
func parseField(kind FieldKind, segment string) (Field, error) {
	f := Field{kind: kind, raw: segment}
	min, max := kind.Bounds()

	switch {
	case segment == "*":
		f.wildcard = true
		return f, nil

	case strings.HasPrefix(segment, "*/"):
		n, err := strconv.Atoi(segment[2:])
		if err != nil || !isDigits(segment[2:]) {
			return Field{}, fieldError(kind, segment, "step must be a positive integer")
		}
		if n <= 0 {
			return Field{}, fieldError(kind, segment, "step must be greater than zero")
		}
		f.step = n
		for v := min; v <= max; v++ {
			if v%n == 0 {
				f.mask |= 1 << uint(v)
			}
		}
		return f, nil

	case strings.Contains(segment, "-"):
		lo, hi, ok := strings.Cut(segment, "-")
		if !ok {
			return Field{}, fieldError(kind, segment, "invalid range")
		}
		a, err := parseValue(kind, lo)
		if err != nil {
			return Field{}, err
		}
		b, err := parseValue(kind, hi)
		if err != nil {
			return Field{}, err
		}
		if a > b {
			return Field{}, fieldError(kind, segment, "range start is greater than range end")
		}
		for v := a; v <= b; v++ {
			f.mask |= 1 << uint(v)
		}
		return f, nil

	case strings.Contains(segment, ","):
		for _, item := range strings.Split(segment, ",") {
			v, err := parseValue(kind, item)
			if err != nil {
				return Field{}, err
			}
			f.mask |= 1 << uint(v)
		}
		return f, nil

	default:
		v, err := parseValue(kind, segment)
		if err != nil {
			return Field{}, err
		}
		f.mask = 1 << uint(v)
		return f, nil
	}
}

// parseValue 解析字面量并校验取值范围.
func parseValue(kind FieldKind, s string) (int, error) {
	if !isDigits(s) {
		return 0, fieldError(kind, s, "not a non-negative integer")
	}
	min, max := kind.Bounds()
	outOfRange := "value out of range " + strconv.Itoa(min) + "-" + strconv.Itoa(max)

	v, err := strconv.Atoi(s)
	if err != nil {
		// 只含数字时 Atoi 只会因溢出失败
		return 0, fieldError(kind, s, outOfRange)
	}
	if v < min || v > max {
		return 0, fieldError(kind, s, outOfRange)
	}
	return v, nil
}

// isDigits 检查字符串是否只包含十进制数字（不含符号）.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func fieldError(kind FieldKind, segment, reason string) *ParseError {
	return &ParseError{Field: kind, Segment: segment, Reason: reason}
}

// Matches 检查时间分量是否满足该字段.
func (f Field) Matches(value int) bool {
	if f.wildcard {
		return true
	}
	if value < 0 || value > 63 {
		return false
	}
	return f.mask&(1<<uint(value)) != 0
}

// Kind 返回字段类型.
func (f Field) Kind() FieldKind {
	return f.kind
}

// IsWildcard 是否为通配符.
func (f Field) IsWildcard() bool {
	return f.wildcard
}

// Step 返回步长，非 */N 形式时为 0.
func (f Field) Step() int {
	return f.step
}

// Values 返回允许的取值（升序）.
//
// 通配符字段返回完整取值范围.
func (f Field) Values() []int {
	min, max := f.kind.Bounds()
	values := make([]int, 0, bits.OnesCount64(f.mask))
	for v := min; v <= max; v++ {
		if f.Matches(v) {
			values = append(values, v)
		}
	}
	return values
}

// String 返回原始片段.
func (f Field) String() string {
	return f.raw
}
