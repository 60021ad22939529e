package storage

import (
	"sort"
	"sync"

	"github.com/tahsinmert/AgendaGenius/internal/model"
)

type MemoryStorage struct {
	workspaces map[string]*model.Workspace
	mu         sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		workspaces: make(map[string]*model.Workspace),
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) Backup() error {
	return nil
}

func (m *MemoryStorage) CreateWorkspace(ws *model.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.workspaces[ws.ID]; exists {
		return ErrWorkspaceExists
	}

	m.workspaces[ws.ID] = cloneWorkspace(ws)
	return nil
}

func (m *MemoryStorage) GetWorkspace(workspaceID string) (*model.Workspace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ws, exists := m.workspaces[workspaceID]
	if !exists {
		return nil, ErrWorkspaceNotFound
	}

	return cloneWorkspace(ws), nil
}

func (m *MemoryStorage) UpdateWorkspace(ws *model.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.workspaces[ws.ID]
	if !exists {
		return ErrWorkspaceNotFound
	}
	if ws.Version < stored.Version {
		return ErrStaleWrite
	}

	m.workspaces[ws.ID] = cloneWorkspace(ws)
	return nil
}

func (m *MemoryStorage) DeleteWorkspace(workspaceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.workspaces[workspaceID]; !exists {
		return ErrWorkspaceNotFound
	}

	delete(m.workspaces, workspaceID)
	return nil
}

// ListWorkspaces 按更新时间倒序
func (m *MemoryStorage) ListWorkspaces() ([]*model.Workspace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*model.Workspace, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		list = append(list, cloneWorkspace(ws))
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})

	return list, nil
}
