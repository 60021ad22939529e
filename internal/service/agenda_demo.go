package service

import (
	"context"
	"time"

	"github.com/tahsinmert/AgendaGenius/internal/model"
)

// DemoAgendaGenerator 不读取文件内容，延迟后返回固定的示例议程
type DemoAgendaGenerator struct {
	delay time.Duration
}

func NewDemoAgendaGenerator(delay time.Duration) *DemoAgendaGenerator {
	return &DemoAgendaGenerator{delay: delay}
}

func (g *DemoAgendaGenerator) Generate(ctx context.Context, files []model.FileRecord) (*model.MeetingData, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	if err := sleepCtx(ctx, g.delay); err != nil {
		return nil, err
	}
	return MockAgenda(), nil
}

// MockAgenda 每次返回新的副本
func MockAgenda() *model.MeetingData {
	return &model.MeetingData{
		MeetingTitle: "Q3 Product Launch Strategy",
		Summary:      "Strategic planning session for the upcoming 'AgendaGenius' mobile app launch. Focus on marketing channels, technical readiness, and budget allocation.",
		Stakeholders: []model.Stakeholder{
			{Name: "Sarah Connor", Role: "Product Owner"},
			{Name: "John Smith", Role: "Lead Developer"},
			{Name: "Emily Blunt", Role: "Marketing Director"},
			{Name: "Michael Ross", Role: "UX Designer"},
		},
		AgendaItems: []model.AgendaItem{
			{
				ID:              "1",
				Title:           "Review Q2 Development Milestones",
				Description:     "Analyze completed features, pending bugs, and overall velocity from the previous quarter.",
				DurationMinutes: 15,
				Presenter:       "John Smith",
			},
			{
				ID:              "2",
				Title:           "Marketing Campaign Reveal",
				Description:     "Presentation of the visual identity, social media roadmap, and influencer partnership targets.",
				DurationMinutes: 30,
				Presenter:       "Emily Blunt",
			},
			{
				ID:              "3",
				Title:           "Budget & Resource Allocation",
				Description:     "Finalizing the budget for ad spend and contracting additional QA support.",
				DurationMinutes: 20,
				Presenter:       "Sarah Connor",
			},
			{
				ID:              "4",
				Title:           "Go/No-Go Decision Criteria",
				Description:     "Defining the critical metrics that must be met 48 hours before launch.",
				DurationMinutes: 10,
				Presenter:       "All",
			},
		},
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
