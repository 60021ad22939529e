package model

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type ModeRequest struct {
	DemoMode *bool `json:"demo_mode" binding:"required"`
}

type AgendaItemRequest struct {
	ID              string `json:"id"`
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"durationMinutes" binding:"min=0"`
	Presenter       string `json:"presenter"`
}

func (r AgendaItemRequest) ToItem() AgendaItem {
	return AgendaItem{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
		Presenter:       r.Presenter,
	}
}

type StakeholderRequest struct {
	Name string `json:"name" binding:"required"`
	Role string `json:"role"`
}

// ImportRequest 导出的 Markdown 原文
type ImportRequest struct {
	Markdown string `json:"markdown" binding:"required"`
}
