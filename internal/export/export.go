// Package export 把 MeetingData 投影为剪贴板文本、Markdown 文件和时间表。
package export

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tahsinmert/AgendaGenius/internal/model"
)

const (
	MarkdownFilename = "meeting-agenda.md"
	DefaultDayStart  = "09:00"
	noPresenter      = "N/A"
)

var ErrInvalidMarkdown = errors.New("invalid agenda markdown")

// ClipboardText 复制到剪贴板的纯文本格式
func ClipboardText(m *model.MeetingData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meeting: %s\n\nSummary: %s\n\nAgenda:\n", m.MeetingTitle, m.Summary)
	lines := make([]string, 0, len(m.AgendaItems))
	for _, item := range m.AgendaItems {
		lines = append(lines, fmt.Sprintf("- %s (%d min): %s", item.Title, item.DurationMinutes, item.Description))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// Markdown 下载文件的格式，比剪贴板格式多了干系人和主讲人
func Markdown(m *model.MeetingData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n**Summary:** %s\n\n## Stakeholders\n", m.MeetingTitle, m.Summary)

	stakeholders := make([]string, 0, len(m.Stakeholders))
	for _, s := range m.Stakeholders {
		stakeholders = append(stakeholders, fmt.Sprintf("- %s (%s)", s.Name, s.Role))
	}
	b.WriteString(strings.Join(stakeholders, "\n"))
	b.WriteString("\n\n## Agenda\n")

	items := make([]string, 0, len(m.AgendaItems))
	for _, item := range m.AgendaItems {
		presenter := item.Presenter
		if presenter == "" {
			presenter = noPresenter
		}
		items = append(items, fmt.Sprintf("### %s (%d min)\n%s\n*Presenter: %s*",
			item.Title, item.DurationMinutes, item.Description, presenter))
	}
	b.WriteString(strings.Join(items, "\n\n"))
	return b.String()
}

var (
	itemHeading     = regexp.MustCompile(`^### (.*) \((\d+) min\)$`)
	stakeholderLine = regexp.MustCompile(`^- (.*) \(([^()]*)\)$`)
	presenterLine   = regexp.MustCompile(`^\*Presenter: (.*)\*$`)
)

const (
	sectionHeader       = iota // 标题之前
	sectionSummary             // **Summary:** 到 ## Stakeholders
	sectionStakeholders        // ## Stakeholders 到 ## Agenda
	sectionAgenda
)

// ParseMarkdown 解析 Markdown 导出的内容。标题和摘要只在各自的区域识别，
// 议程项描述中的 "# " 或 "**Summary:**" 行按描述文本处理
func ParseMarkdown(text string) (*model.MeetingData, error) {
	m := &model.MeetingData{
		Stakeholders: []model.Stakeholder{},
		AgendaItems:  []model.AgendaItem{},
	}

	section := sectionHeader
	var summary []string
	var current *model.AgendaItem
	var body []string

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		switch section {
		case sectionHeader:
			switch {
			case m.MeetingTitle == "" && strings.HasPrefix(line, "# "):
				m.MeetingTitle = strings.TrimPrefix(line, "# ")
			case strings.HasPrefix(line, "**Summary:** "):
				summary = append(summary, strings.TrimPrefix(line, "**Summary:** "))
				section = sectionSummary
			case line == "## Stakeholders":
				section = sectionStakeholders
			case line == "## Agenda":
				section = sectionAgenda
			}
		case sectionSummary:
			if line == "## Stakeholders" {
				section = sectionStakeholders
				continue
			}
			summary = append(summary, line)
		case sectionStakeholders:
			if line == "## Agenda" {
				section = sectionAgenda
				continue
			}
			if match := stakeholderLine.FindStringSubmatch(line); match != nil {
				m.Stakeholders = append(m.Stakeholders, model.Stakeholder{Name: match[1], Role: match[2]})
			}
		case sectionAgenda:
			if match := itemHeading.FindStringSubmatch(line); match != nil {
				if current != nil {
					// 议程项之间以一个空行分隔
					m.AgendaItems = append(m.AgendaItems, finishItem(*current, dropTrailingBlank(body, 1)))
				}
				minutes, _ := strconv.Atoi(match[2])
				current = &model.AgendaItem{Title: match[1], DurationMinutes: minutes}
				body = nil
				continue
			}
			if current != nil {
				body = append(body, line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		m.AgendaItems = append(m.AgendaItems, finishItem(*current, dropTrailingBlank(body, len(body))))
	}

	if m.MeetingTitle == "" {
		return nil, ErrInvalidMarkdown
	}
	// 摘要后紧跟一个空行
	m.Summary = strings.Join(dropTrailingBlank(summary, 1), "\n")
	return m, nil
}

// finishItem 最后一行是主讲人，其余是描述
func finishItem(item model.AgendaItem, body []string) model.AgendaItem {
	if n := len(body); n > 0 {
		if match := presenterLine.FindStringSubmatch(body[n-1]); match != nil {
			if match[1] != noPresenter {
				item.Presenter = match[1]
			}
			body = body[:n-1]
		}
	}
	item.Description = strings.Join(body, "\n")
	return item
}

// dropTrailingBlank 去掉末尾至多 limit 个空行
func dropTrailingBlank(lines []string, limit int) []string {
	for limit > 0 && len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
		limit--
	}
	return lines
}

// BuildSchedule 从 dayStart（HH:MM）起依次排列议程项
func BuildSchedule(m *model.MeetingData, dayStart string) (*model.Schedule, error) {
	if dayStart == "" {
		dayStart = DefaultDayStart
	}
	start, err := time.Parse("15:04", dayStart)
	if err != nil {
		return nil, fmt.Errorf("parse day start %q: %w", dayStart, err)
	}

	schedule := &model.Schedule{
		Slots:         make([]model.ScheduleSlot, 0, len(m.AgendaItems)),
		TotalDuration: m.TotalDuration(),
	}

	current := start
	for i, item := range m.AgendaItems {
		end := current.Add(time.Duration(item.DurationMinutes) * time.Minute)
		schedule.Slots = append(schedule.Slots, model.ScheduleSlot{
			Index:           i,
			Title:           item.Title,
			Start:           current.Format("15:04"),
			End:             end.Format("15:04"),
			DurationMinutes: item.DurationMinutes,
		})
		current = end
	}
	schedule.End = current.Format("15:04")
	return schedule, nil
}
