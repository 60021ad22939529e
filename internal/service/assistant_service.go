package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tahsinmert/AgendaGenius/internal/config"
	"github.com/tahsinmert/AgendaGenius/internal/encoder"
	"github.com/tahsinmert/AgendaGenius/internal/export"
	"github.com/tahsinmert/AgendaGenius/internal/model"
	"github.com/tahsinmert/AgendaGenius/internal/notice"
	"github.com/tahsinmert/AgendaGenius/internal/storage"
	"github.com/tahsinmert/AgendaGenius/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/sirupsen/logrus"
)

var ErrWorkspaceNotFound = errors.New("workspace not found")

type workspaceEntry struct {
	ctrl *Controller

	mu     sync.Mutex
	active *chatHandle
}

// chatHandle 进行中的对话，用于取消
type chatHandle struct {
	cancel context.CancelFunc
}

// AssistantService 管理工作区，按当前模式分派到真实或演示服务
type AssistantService struct {
	cfg     *config.Config
	storage storage.Storage
	notices *notice.Center
	mode    *ModeSelector
	encoder *encoder.Encoder

	liveAgenda AgendaGenerator
	demoAgenda AgendaGenerator
	liveChat   ChatStreamer
	demoChat   ChatStreamer

	mu         sync.RWMutex
	workspaces map[string]*workspaceEntry
}

// NewAssistantService cm 为 nil 表示没有可用凭证，真实模式调用会返回 ConfigurationError
func NewAssistantService(ctx context.Context, cfg *config.Config, store storage.Storage, notices *notice.Center, mode *ModeSelector, cm einoModel.ChatModel) (*AssistantService, error) {
	liveAgenda, err := NewLiveAgendaGenerator(ctx, cm, cfg)
	if err != nil {
		return nil, err
	}

	return &AssistantService{
		cfg:        cfg,
		storage:    store,
		notices:    notices,
		mode:       mode,
		encoder:    encoder.New(cfg.Server.MaxUploadBytes),
		liveAgenda: liveAgenda,
		demoAgenda: NewDemoAgendaGenerator(cfg.Demo.AgendaDelay),
		liveChat:   NewLiveChatStreamer(cm, cfg),
		demoChat:   NewDemoChatStreamer(cfg.Demo.ChatDelay, cfg.Demo.ChunkInterval, cfg.Demo.ChunkSize),
		workspaces: make(map[string]*workspaceEntry),
	}, nil
}

func (s *AssistantService) Mode() *ModeSelector {
	return s.mode
}

func (s *AssistantService) ModeInfo() model.ModeResponse {
	return model.ModeResponse{
		DemoMode:          s.mode.IsDemo(),
		CredentialPresent: s.cfg.HasCredential(),
		Provider:          s.cfg.Model.Provider,
	}
}

func (s *AssistantService) agendaGenerator() (AgendaGenerator, bool) {
	if s.mode.IsDemo() {
		return s.demoAgenda, true
	}
	return s.liveAgenda, false
}

func (s *AssistantService) chatStreamer() (ChatStreamer, string) {
	if s.mode.IsDemo() {
		return s.demoChat, "demo"
	}
	return s.liveChat, "live"
}

func (s *AssistantService) CreateWorkspace() (Snapshot, error) {
	ctrl := NewController(nil)
	snap := ctrl.Snapshot()

	if err := s.storage.CreateWorkspace(snap.Workspace()); err != nil {
		return Snapshot{}, fmt.Errorf("failed to create workspace: %w", err)
	}

	s.mu.Lock()
	s.workspaces[ctrl.ID()] = &workspaceEntry{ctrl: ctrl}
	s.mu.Unlock()

	logger.Infof("Created workspace %s", ctrl.ID())
	return snap, nil
}

// entry 内存中没有时从存储恢复
func (s *AssistantService) entry(workspaceID string) (*workspaceEntry, error) {
	s.mu.RLock()
	e, ok := s.workspaces[workspaceID]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}

	ws, err := s.storage.GetWorkspace(workspaceID)
	if err != nil {
		if errors.Is(err, storage.ErrWorkspaceNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.workspaces[workspaceID]; ok {
		return e, nil
	}
	e = &workspaceEntry{ctrl: NewController(ws)}
	s.workspaces[workspaceID] = e
	return e, nil
}

func (s *AssistantService) controller(workspaceID string) (*Controller, error) {
	e, err := s.entry(workspaceID)
	if err != nil {
		return nil, err
	}
	return e.ctrl, nil
}

func (s *AssistantService) persist(snap Snapshot) {
	err := s.storage.UpdateWorkspace(snap.Workspace())
	if errors.Is(err, storage.ErrStaleWrite) {
		// 并发修改时较新的快照已先写入
		logger.Debugf("Skipped stale snapshot v%d of workspace %s", snap.Version, snap.ID)
		return
	}
	if err != nil {
		logger.Errorf("Failed to persist workspace %s: %v", snap.ID, err)
	}
}

func (s *AssistantService) GetWorkspace(workspaceID string) (Snapshot, error) {
	ctrl, err := s.controller(workspaceID)
	if err != nil {
		return Snapshot{}, err
	}
	return ctrl.Snapshot(), nil
}

func (s *AssistantService) ListWorkspaces() ([]Snapshot, error) {
	list, err := s.storage.ListWorkspaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	snaps := make([]Snapshot, 0, len(list))
	for _, ws := range list {
		s.mu.RLock()
		e, ok := s.workspaces[ws.ID]
		s.mu.RUnlock()
		if ok {
			snaps = append(snaps, e.ctrl.Snapshot())
			continue
		}
		snaps = append(snaps, NewController(ws).Snapshot())
	}
	return snaps, nil
}

func (s *AssistantService) DeleteWorkspace(workspaceID string) error {
	s.mu.Lock()
	e, ok := s.workspaces[workspaceID]
	delete(s.workspaces, workspaceID)
	s.mu.Unlock()

	if ok {
		e.cancel()
	}
	s.notices.Clear(workspaceID)

	if err := s.storage.DeleteWorkspace(workspaceID); err != nil {
		if errors.Is(err, storage.ErrWorkspaceNotFound) {
			return ErrWorkspaceNotFound
		}
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	return nil
}

// View 附加排期等派生字段
func (s *AssistantService) View(snap Snapshot) model.WorkspaceResponse {
	resp := model.WorkspaceResponse{
		WorkspaceID:  snap.ID,
		Files:        make([]model.FileSummary, 0, len(snap.Files)),
		Agenda:       snap.Agenda,
		MessageCount: len(snap.Messages),
		Generating:   snap.Generating,
		Streaming:    snap.Streaming,
		UpdatedAt:    snap.UpdatedAt,
	}
	for _, f := range snap.Files {
		resp.Files = append(resp.Files, model.FileSummary{ID: f.ID, Name: f.Name, MimeType: f.MimeType, SizeBytes: f.SizeBytes})
	}

	if snap.Agenda != nil {
		schedule, err := export.BuildSchedule(snap.Agenda, s.cfg.Session.DayStart)
		if err != nil {
			logger.Warnf("Failed to build schedule: %v", err)
		}
		resp.Schedule = schedule
		for _, st := range snap.Agenda.Stakeholders {
			resp.Initials = append(resp.Initials, st.Initials())
		}
	}
	return resp
}

// AddFiles 整批编码成功后才加入工作区
func (s *AssistantService) AddFiles(ctx context.Context, workspaceID string, sources []encoder.Source) (Snapshot, error) {
	ctrl, err := s.controller(workspaceID)
	if err != nil {
		return Snapshot{}, err
	}

	files, err := s.encoder.EncodeBatch(ctx, sources)
	if err != nil {
		s.notices.Error(workspaceID, "Failed to read files: "+err.Error())
		return Snapshot{}, err
	}

	snap := ctrl.AddFiles(files)
	s.persist(snap)
	return snap, nil
}

func (s *AssistantService) RemoveFile(workspaceID, fileID string) (Snapshot, error) {
	ctrl, err := s.controller(workspaceID)
	if err != nil {
		return Snapshot{}, err
	}

	snap, err := ctrl.RemoveFile(fileID)
	if err != nil {
		return snap, err
	}
	s.persist(snap)
	return snap, nil
}

// Generate 生成议程。结果过期（期间议程被替换或清空）时丢弃
func (s *AssistantService) Generate(ctx context.Context, workspaceID string) (Snapshot, error) {
	ctrl, err := s.controller(workspaceID)
	if err != nil {
		return Snapshot{}, err
	}

	token, files, err := ctrl.BeginGeneration()
	if err != nil {
		if errors.Is(err, ErrNoFiles) {
			s.notices.Error(workspaceID, "Please upload at least one file.")
		}
		return ctrl.Snapshot(), err
	}

	generator, demo := s.agendaGenerator()
	log := logger.WithFields(logrus.Fields{"workspace_id": workspaceID, "demo": demo, "files": len(files)})
	log.Info("Agenda generation started")

	data, err := generator.Generate(ctx, files)
	if err != nil {
		log.Errorf("Agenda generation failed: %v", err)
		s.notices.Error(workspaceID, generationFailureText(err))
		return ctrl.AbortGeneration(), err
	}

	snap, err := ctrl.CommitGeneration(token, data)
	if err != nil {
		log.Warn("Discarded stale agenda generation result")
		return snap, err
	}

	s.persist(snap)
	if demo {
		s.notices.Success(workspaceID, "Demo agenda generated!")
	} else {
		s.notices.Success(workspaceID, "Agenda generated successfully!")
	}
	log.Infof("Agenda generated: %q with %d items", data.MeetingTitle, len(data.AgendaItems))
	return snap, nil
}

func generationFailureText(err error) string {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return "API key is missing. Enable Demo Mode or configure a key."
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Failed to generate agenda."
}

func (s *AssistantService) ClearAgenda(workspaceID string) (Snapshot, error) {
	ctrl, err := s.controller(workspaceID)
	if err != nil {
		return Snapshot{}, err
	}

	snap := ctrl.ClearAgenda()
	s.persist(snap)
	s.notices.Info(workspaceID, "Ready for new agenda")
	return snap, nil
}

// ImportMarkdown 用导出的 Markdown 恢复议程
func (s *AssistantService) ImportMarkdown(workspaceID, text string) (Snapshot, error) {
	ctrl, err := s.controller(workspaceID)
	if err != nil {
		return Snapshot{}, err
	}

	data, err := export.ParseMarkdown(text)
	if err != nil {
		return Snapshot{}, err
	}

	snap := ctrl.SetAgenda(data)
	s.persist(snap)
	s.notices.Success(workspaceID, "Agenda imported")
	return snap, nil
}

func (s *AssistantService) UpdateAgendaItem(workspaceID string, index int, item model.AgendaItem) (Snapshot, error) {
	ctrl, err := s.controller(workspaceID)
	if err != nil {
		return Snapshot{}, err
	}

	snap, err := ctrl.UpdateAgendaItem(index, item)
	if err != nil {
		return snap, err
	}
	s.persist(snap)
	s.notices.Success(workspaceID, "Agenda item updated")
	return snap, nil
}

func (s *AssistantService) AddStakeholder(workspaceID string, st model.Stakeholder) (Snapshot, error) {
	ctrl, err := s.controller(workspaceID)
	if err != nil {
		return Snapshot{}, err
	}

	snap, err := ctrl.AddStakeholder(st)
	if err != nil {
		return snap, err
	}
	s.persist(snap)
	s.notices.Success(workspaceID, "Stakeholder added")
	return snap, nil
}

func (s *AssistantService) RemoveStakeholder(workspaceID string, index int) (Snapshot, error) {
	ctrl, err := s.controller(workspaceID)
	if err != nil {
		return Snapshot{}, err
	}

	snap, err := ctrl.RemoveStakeholder(index)
	if err != nil {
		return snap, err
	}
	s.persist(snap)
	s.notices.Info(workspaceID, "Stakeholder removed")
	return snap, nil
}

func (s *AssistantService) agenda(workspaceID string) (*model.MeetingData, error) {
	snap, err := s.GetWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	if snap.Agenda == nil {
		return nil, ErrNoAgenda
	}
	return snap.Agenda, nil
}

func (s *AssistantService) ExportMarkdown(workspaceID string) (string, error) {
	data, err := s.agenda(workspaceID)
	if err != nil {
		return "", err
	}
	return export.Markdown(data), nil
}

// ExportText 复制到剪贴板的纯文本
func (s *AssistantService) ExportText(workspaceID string) (string, error) {
	data, err := s.agenda(workspaceID)
	if err != nil {
		return "", err
	}
	s.notices.Success(workspaceID, "Agenda copied to clipboard")
	return export.ClipboardText(data), nil
}

func (s *AssistantService) Messages(workspaceID string) ([]model.ChatMessage, error) {
	snap, err := s.GetWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	return snap.Messages, nil
}

// StreamChat 立即返回的错误（工作区不存在、忙碌、缺少凭证）不会打开流；
// 之后的错误通过 errChan 传递，占位回复已替换为致歉文本
func (s *AssistantService) StreamChat(ctx context.Context, workspaceID, message string) (<-chan model.ChatResponse, <-chan error, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, nil, ErrEmptyMessage
	}

	e, err := s.entry(workspaceID)
	if err != nil {
		return nil, nil, err
	}

	turn, err := e.ctrl.BeginChat(message)
	if err != nil {
		return nil, nil, err
	}
	s.persist(e.ctrl.Snapshot())

	streamer, streamType := s.chatStreamer()
	chatCtx, cancel := context.WithCancel(ctx)
	if s.cfg.Agent.ChatTimeout > 0 {
		chatCtx, cancel = withTimeout(chatCtx, cancel, s.cfg.Agent.ChatTimeout)
	}
	handle := &chatHandle{cancel: cancel}
	e.setActive(handle)

	sr, err := streamer.Stream(chatCtx, turn.Input)
	if err != nil {
		e.clearActive(handle)
		cancel()
		s.persist(e.ctrl.FinishChat(turn.MessageID, "", err))
		s.notices.Error(workspaceID, chatFailureText(err))
		return nil, nil, err
	}

	respChan := make(chan model.ChatResponse, 100)
	errChan := make(chan error, 1)

	go func() {
		defer close(respChan)
		defer close(errChan)
		defer cancel()
		defer e.clearActive(handle)
		defer sr.Close()

		send := func(resp model.ChatResponse) {
			select {
			case respChan <- resp:
			case <-chatCtx.Done():
			}
		}

		var full strings.Builder
		for {
			chunk, err := sr.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				if chatCtx.Err() != nil && !errors.Is(chatCtx.Err(), context.DeadlineExceeded) {
					// 用户取消，保留已收到的部分
					logger.Infof("Chat in workspace %s cancelled after %d bytes", workspaceID, full.Len())
					break
				}
				logger.Errorf("Chat stream failed in workspace %s: %v", workspaceID, err)
				s.persist(e.ctrl.FinishChat(turn.MessageID, full.String(), err))
				s.notices.Error(workspaceID, chatFailureText(err))
				errChan <- err
				return
			}

			full.WriteString(chunk)
			if _, err := e.ctrl.UpdateStreamingText(turn.MessageID, full.String()); err != nil {
				logger.Warnf("Failed to update streaming message: %v", err)
			}
			send(model.ChatResponse{
				WorkspaceID: workspaceID,
				MessageID:   turn.MessageID,
				Content:     chunk,
				Role:        model.RoleModel,
				Timestamp:   time.Now().UnixMilli(),
				StreamType:  streamType,
			})
		}

		s.persist(e.ctrl.FinishChat(turn.MessageID, full.String(), nil))
		send(model.ChatResponse{
			WorkspaceID: workspaceID,
			MessageID:   turn.MessageID,
			Role:        model.RoleModel,
			Timestamp:   time.Now().UnixMilli(),
			Done:        true,
			StreamType:  streamType,
		})
	}()

	return respChan, errChan, nil
}

func withTimeout(parent context.Context, cancelParent context.CancelFunc, d time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		cancel()
		cancelParent()
	}
}

func chatFailureText(err error) string {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return "API key is missing. Enable Demo Mode or configure a key."
	}
	return ChatErrorText
}

// CancelChat 返回是否存在进行中的对话
func (s *AssistantService) CancelChat(workspaceID string) (bool, error) {
	e, err := s.entry(workspaceID)
	if err != nil {
		return false, err
	}
	return e.cancel(), nil
}

func (e *workspaceEntry) setActive(h *chatHandle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = h
}

// clearActive 只清除自己的句柄，避免覆盖之后开始的对话
func (e *workspaceEntry) clearActive(h *chatHandle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == h {
		e.active = nil
	}
}

func (e *workspaceEntry) cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return false
	}
	e.active.cancel()
	e.active = nil
	return true
}

func (s *AssistantService) Notices(workspaceID string) ([]model.Notice, error) {
	if _, err := s.entry(workspaceID); err != nil {
		return nil, err
	}
	return s.notices.List(workspaceID), nil
}

func (s *AssistantService) DismissNotice(workspaceID, noticeID string) bool {
	return s.notices.Dismiss(workspaceID, noticeID)
}

// CleanupLoop 定期删除超过 TTL 未更新的工作区
func (s *AssistantService) CleanupLoop(ctx context.Context) {
	interval := s.cfg.Session.CleanupInterval
	if interval <= 0 || s.cfg.Session.TTL <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpired(time.Now().Add(-s.cfg.Session.TTL))
		}
	}
}

func (s *AssistantService) cleanupExpired(cutoff time.Time) int {
	snaps, err := s.ListWorkspaces()
	if err != nil {
		logger.Errorf("Failed to list workspaces for cleanup: %v", err)
		return 0
	}

	removed := 0
	for _, snap := range snaps {
		if !snap.UpdatedAt.Before(cutoff) || snap.Generating || snap.Streaming {
			continue
		}
		if err := s.DeleteWorkspace(snap.ID); err != nil {
			logger.Errorf("Failed to delete expired workspace %s: %v", snap.ID, err)
			continue
		}
		logger.Infof("Cleaned up expired workspace: %s", snap.ID)
		removed++
	}
	return removed
}
