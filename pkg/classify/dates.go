package classify

import (
	"regexp"
	"strconv"
	"time"

	"github.com/harrisonrobin/taskdispatch/pkg/model"
)

// maxOffsetDays bounds relative expressions such as "N天內".
const maxOffsetDays = 3650

type dateRule struct {
	re *regexp.Regexp
	// group selects the submatch whose start is the expression's position;
	// 0 is the whole match.
	group   int
	resolve func(m []string, ref model.Date) (model.Date, bool)
}

type dateHit struct {
	start, length int
	date          model.Date
}

const weekdayNamesEN = `monday|tuesday|wednesday|thursday|friday|saturday|sunday`
const countPattern = `\d+|[零一二兩两三四五六七八九十]+|one|two|three|four|five|six|seven|eight|nine|ten`

var dateRules = []dateRule{
	{
		re: regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*[日號号]?`),
		resolve: func(m []string, _ model.Date) (model.Date, bool) {
			return ymd(m[1], m[2], m[3])
		},
	},
	{
		re: regexp.MustCompile(`(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})`),
		resolve: func(m []string, _ model.Date) (model.Date, bool) {
			return ymd(m[1], m[2], m[3])
		},
	},
	{
		re: regexp.MustCompile(`(\d{1,2})\s*月\s*(\d{1,2})\s*[日號号]`),
		resolve: func(m []string, ref model.Date) (model.Date, bool) {
			return monthDay(m[1], m[2], ref)
		},
	},
	{
		re:    regexp.MustCompile(`(?:^|[^\d/.])((\d{1,2})/(\d{1,2}))(?:$|[^\d/])`),
		group: 1,
		resolve: func(m []string, ref model.Date) (model.Date, bool) {
			return monthDay(m[2], m[3], ref)
		},
	},
	{
		re: regexp.MustCompile(`大後天|大后天|後天|后天|明天|明日|今天|今日`),
		resolve: func(m []string, ref model.Date) (model.Date, bool) {
			switch m[0] {
			case "今天", "今日":
				return ref, true
			case "明天", "明日":
				return ref.AddDays(1), true
			case "後天", "后天":
				return ref.AddDays(2), true
			}
			return ref.AddDays(3), true
		},
	},
	{
		re: regexp.MustCompile(`(下下|下|本|這|这)?\s*(?:個|个)?\s*(?:週|周|星期|禮拜|礼拜)\s*([一二三四五六日天1-7])`),
		resolve: func(m []string, ref model.Date) (model.Date, bool) {
			wd := weekdayCJK(m[2])
			switch m[1] {
			case "下下":
				return weekOf(ref, 2, wd), true
			case "下":
				return weekOf(ref, 1, wd), true
			case "本", "這", "这":
				return weekOf(ref, 0, wd), true
			}
			return upcoming(ref, wd), true
		},
	},
	{
		re: regexp.MustCompile(`(` + countPattern + `)\s*(?:個|个)?\s*(工作天|工作日|天|日|週|周|星期|禮拜|礼拜)\s*之?\s*(?:內|内|後|后)`),
		resolve: func(m []string, ref model.Date) (model.Date, bool) {
			return offset(m[1], m[2], ref)
		},
	},
	{
		re: regexp.MustCompile(`(下個|下个|下)?月底`),
		resolve: func(m []string, ref model.Date) (model.Date, bool) {
			months := 1
			if m[1] != "" {
				months = 2
			}
			first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
			return model.Date{Time: first.AddDate(0, months, -1)}, true
		},
	},
	{
		re: regexp.MustCompile(`\bday after tomorrow\b|\btomorrow\b|\btoday\b`),
		resolve: func(m []string, ref model.Date) (model.Date, bool) {
			switch m[0] {
			case "today":
				return ref, true
			case "tomorrow":
				return ref.AddDays(1), true
			}
			return ref.AddDays(2), true
		},
	},
	{
		re: regexp.MustCompile(`\b(next|this|by|on)\s+(` + weekdayNamesEN + `)\b`),
		resolve: func(m []string, ref model.Date) (model.Date, bool) {
			wd := weekdayEN(m[2])
			switch m[1] {
			case "next":
				return weekOf(ref, 1, wd), true
			case "this":
				return weekOf(ref, 0, wd), true
			}
			return upcoming(ref, wd), true
		},
	},
	{
		re: regexp.MustCompile(`\b(?:in|within)\s+(` + countPattern + `)\s+(business days?|working days?|days?|weeks?)\b`),
		resolve: func(m []string, ref model.Date) (model.Date, bool) {
			return offset(m[1], m[2], ref)
		},
	},
}

// ResolveDueDate returns the earliest explicit date expression in content as
// an absolute date, resolving relative forms against ref. It returns nil when
// content names no date.
func ResolveDueDate(content string, ref time.Time) *model.Date {
	text := normalize(content)
	anchor := model.NewDate(ref)

	var best *dateHit
	for _, rule := range dateRules {
		for _, loc := range rule.re.FindAllStringSubmatchIndex(text, -1) {
			m := submatches(text, loc)
			d, ok := rule.resolve(m, anchor)
			if !ok {
				continue
			}
			hit := dateHit{start: loc[2*rule.group], length: loc[2*rule.group+1] - loc[2*rule.group], date: d}
			if best == nil || hit.start < best.start || hit.start == best.start && hit.length > best.length {
				best = &hit
			}
		}
	}
	if best == nil {
		return nil
	}
	return best.date.Ptr()
}

func submatches(text string, loc []int) []string {
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return m
}

func ymd(y, mo, d string) (model.Date, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(mo)
	day, _ := strconv.Atoi(d)
	return model.DateOf(year, time.Month(month), day)
}

// monthDay resolves a date without a year to ref's year, or the next year
// when that day has already passed.
func monthDay(mo, d string, ref model.Date) (model.Date, bool) {
	month, _ := strconv.Atoi(mo)
	day, _ := strconv.Atoi(d)
	date, ok := model.DateOf(ref.Year(), time.Month(month), day)
	if !ok {
		return model.Date{}, false
	}
	if date.Before(ref.Time) {
		return model.DateOf(ref.Year()+1, time.Month(month), day)
	}
	return date, true
}

func offset(count, unit string, ref model.Date) (model.Date, bool) {
	n, ok := parseCount(count)
	if !ok || n > maxOffsetDays {
		return model.Date{}, false
	}
	switch unit {
	case "工作天", "工作日", "business day", "business days", "working day", "working days":
		return addBusinessDays(ref, n), true
	case "週", "周", "星期", "禮拜", "礼拜", "week", "weeks":
		return ref.AddDays(7 * n), true
	}
	return ref.AddDays(n), true
}

func addBusinessDays(d model.Date, n int) model.Date {
	for n > 0 {
		d = d.AddDays(1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return d
}

// isoWeekday numbers Monday 1 through Sunday 7.
func isoWeekday(d model.Date) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// weekOf returns weekday wd of the week weeks after ref's week. Weeks start
// on Monday.
func weekOf(ref model.Date, weeks, wd int) model.Date {
	monday := ref.AddDays(1 - isoWeekday(ref))
	return monday.AddDays(7*weeks + wd - 1)
}

// upcoming returns the first weekday wd on or after ref.
func upcoming(ref model.Date, wd int) model.Date {
	return ref.AddDays((wd - isoWeekday(ref) + 7) % 7)
}

func weekdayCJK(s string) int {
	switch s {
	case "一", "1":
		return 1
	case "二", "2":
		return 2
	case "三", "3":
		return 3
	case "四", "4":
		return 4
	case "五", "5":
		return 5
	case "六", "6":
		return 6
	}
	return 7
}

func weekdayEN(s string) int {
	for i, name := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		if s == name {
			return i + 1
		}
	}
	return 7
}

var cnDigits = map[rune]int{
	'零': 0, '一': 1, '二': 2, '兩': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

var enNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// parseCount reads digits, English number words up to ten, or Chinese
// numerals below one hundred.
func parseCount(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if n, ok := enNumbers[s]; ok {
		return n, true
	}
	total, cur := 0, 0
	for _, r := range s {
		if r == '十' {
			if cur == 0 {
				cur = 1
			}
			total += cur * 10
			cur = 0
			continue
		}
		v, ok := cnDigits[r]
		if !ok {
			return 0, false
		}
		cur = v
	}
	total += cur
	return total, total > 0 || s == "零"
}
