package cron

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// 常用调度的快捷构造函数.
//
// 每个快捷方式都编译为等价的六字段表达式，与 Parse 共用同一套匹配逻辑.

// EverySecond 每秒执行.
func EverySecond() *Expression {
	return MustParse("* * * * * *")
}

// EverySeconds 每 n 秒执行（秒数能被 n 整除时）.
func EverySeconds(n int) (*Expression, error) {
	if n < 1 || n > 59 {
		return nil, shorthandError("EverySeconds", n)
	}
	return Parse(fmt.Sprintf("*/%d * * * * *", n))
}

// EveryMinute 每分钟第 0 秒执行.
func EveryMinute() *Expression {
	return MustParse("0 * * * * *")
}

// EveryMinutes 每 n 分钟执行.
func EveryMinutes(n int) (*Expression, error) {
	if n < 1 || n > 59 {
		return nil, shorthandError("EveryMinutes", n)
	}
	return Parse(fmt.Sprintf("0 */%d * * * *", n))
}

// Hourly 每小时整点执行.
func Hourly() *Expression {
	return MustParse("0 0 * * * *")
}

// HourlyAt 每小时第 minute 分钟执行.
func HourlyAt(minute int) (*Expression, error) {
	if minute < 0 || minute > 59 {
		return nil, shorthandError("HourlyAt", minute)
	}
	return Parse(fmt.Sprintf("0 %d * * * *", minute))
}

// EveryHours 每 n 小时整点执行.
func EveryHours(n int) (*Expression, error) {
	if n < 1 || n > 23 {
		return nil, shorthandError("EveryHours", n)
	}
	return Parse(fmt.Sprintf("0 0 */%d * * *", n))
}

// Daily 每天零点执行.
func Daily() *Expression {
	return MustParse("0 0 0 * * *")
}

// DailyAtHour 每天 hour 点整执行.
func DailyAtHour(hour int) (*Expression, error) {
	return DailyAt(hour, 0)
}

// DailyAt 每天 hour:minute 执行.
func DailyAt(hour, minute int) (*Expression, error) {
	if hour < 0 || hour > 23 {
		return nil, shorthandError("DailyAt", hour)
	}
	if minute < 0 || minute > 59 {
		return nil, shorthandError("DailyAt", minute)
	}
	return Parse(fmt.Sprintf("0 %d %d * * *", minute, hour))
}

// Weekly 每周一零点执行.
func Weekly() *Expression {
	return MustParse("0 0 0 * * 1")
}

// Monthly 每月 1 日零点执行.
func Monthly() *Expression {
	return MustParse("0 0 0 1 * *")
}

// Weekdays 返回周一到周五.
func Weekdays() []time.Weekday {
	return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
}

// Weekends 返回周六和周日.
func Weekends() []time.Weekday {
	return []time.Weekday{time.Saturday, time.Sunday}
}

// OnDays 返回将星期字段替换为指定日期后的新表达式.
//
// 原表达式不受影响.
func (e *Expression) OnDays(days ...time.Weekday) (*Expression, error) {
	if len(days) == 0 {
		return nil, &ParseError{Expression: e.source, Field: DayOfWeek, Reason: "no days given"}
	}

	seen := make(map[int]bool, len(days))
	values := make([]int, 0, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return nil, &ParseError{Expression: e.source, Field: DayOfWeek, Segment: strconv.Itoa(int(d)), Reason: "invalid weekday"}
		}
		if !seen[int(d)] {
			seen[int(d)] = true
			values = append(values, int(d))
		}
	}
	sort.Ints(values)

	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}

	segments := strings.Fields(e.source)
	segments[DayOfWeek] = strings.Join(parts, ",")
	return Parse(strings.Join(segments, " "))
}

func shorthandError(name string, value int) error {
	return &ParseError{
		Expression: name,
		Field:      -1,
		Reason:     "argument out of range: " + strconv.Itoa(value),
	}
}
