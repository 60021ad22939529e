package service

import "github.com/tahsinmert/AgendaGenius/internal/config"

const (
	defaultAgendaSystemPrompt = "You are an expert project manager and executive assistant. Your goal is to organize efficient, goal-oriented meetings based on raw documentation."
	defaultAgendaInstruction  = "Analyze the provided document(s) and generate a structured meeting agenda. Identify key stakeholders who should attend. Create a timeline of topics with estimated durations. Ensure the tone is professional and the times are realistic."

	defaultChatSystemPrompt = "You are a helpful assistant answering questions about the uploaded meeting documents. "
	chatAgendaDirective     = "You also have access to the currently generated/edited meeting agenda. Use this agenda context to answer questions about time, roles, and topics."
	chatPlainDirective      = "Be concise and accurate."

	sourceDocumentsLabel = "Here are the source documents:"
	agendaContextPrefix  = "[CURRENT AGENDA CONTEXT]: "

	// 服务商不支持 schema 约束时附加在指令后
	schemaInstruction = "Respond only with a JSON object that matches this JSON schema, without markdown fences or commentary:\n"

	ChatErrorText = "Sorry, I encountered an error. Please check your connection."
)

// Suggestions 对话框的预设问题
var Suggestions = []string{
	"Summarize the key decisions",
	"Who are the main stakeholders?",
	"What are the risks mentioned?",
	"Draft an email summary",
}

type prompts struct {
	agendaSystem      string
	agendaInstruction string
	chatSystem        string
}

func loadPrompts(cfg config.AgentConfig) prompts {
	p := prompts{
		agendaSystem:      defaultAgendaSystemPrompt,
		agendaInstruction: defaultAgendaInstruction,
		chatSystem:        defaultChatSystemPrompt,
	}
	if cfg.AgendaSystemPrompt != "" {
		p.agendaSystem = cfg.AgendaSystemPrompt
	}
	if cfg.AgendaInstruction != "" {
		p.agendaInstruction = cfg.AgendaInstruction
	}
	if cfg.ChatSystemPrompt != "" {
		p.chatSystem = cfg.ChatSystemPrompt
	}
	return p
}

// chatSystemPrompt 有议程时追加议程说明
func (p prompts) chatSystemPrompt(hasAgenda bool) string {
	if hasAgenda {
		return p.chatSystem + chatAgendaDirective
	}
	return p.chatSystem + chatPlainDirective
}
