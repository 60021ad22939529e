package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tahsinmert/AgendaGenius/internal/model"
	"github.com/tahsinmert/AgendaGenius/pkg/logger"
)

// DiskStorage 工作区以 JSON 文件保存：
//
//	<data_dir>/workspaces.json        索引
//	<data_dir>/workspaces/<id>.json   文件与议程
//	<data_dir>/messages/<id>.json     对话记录
type DiskStorage struct {
	dataDir   string
	mu        sync.RWMutex
	cache     map[string]*model.Workspace
	index     map[string]*WorkspaceIndex
	cacheSize int
}

type WorkspaceIndex struct {
	ID           string    `json:"id"`
	MeetingTitle string    `json:"meeting_title,omitempty"`
	FileCount    int       `json:"file_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      uint64    `json:"version"`
}

func NewDiskStorage(dataDir string, cacheSize int) *DiskStorage {
	if cacheSize <= 0 {
		cacheSize = 100
	}
	return &DiskStorage{
		dataDir:   dataDir,
		cache:     make(map[string]*model.Workspace),
		index:     make(map[string]*WorkspaceIndex),
		cacheSize: cacheSize,
	}
}

func (d *DiskStorage) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.createDirectories(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	if err := d.loadIndex(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	logger.Infof("Disk storage initialized at %s with %d workspaces", d.dataDir, len(d.index))
	return nil
}

func (d *DiskStorage) createDirectories() error {
	dirs := []string{
		d.dataDir,
		filepath.Join(d.dataDir, "workspaces"),
		filepath.Join(d.dataDir, "messages"),
		filepath.Join(d.dataDir, "backup"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

func (d *DiskStorage) indexPath() string {
	return filepath.Join(d.dataDir, "workspaces.json")
}

func (d *DiskStorage) workspacePath(id string) string {
	return filepath.Join(d.dataDir, "workspaces", id+".json")
}

func (d *DiskStorage) messagesPath(id string) string {
	return filepath.Join(d.dataDir, "messages", id+".json")
}

func (d *DiskStorage) loadIndex() error {
	data, err := os.ReadFile(d.indexPath())
	if errors.Is(err, os.ErrNotExist) {
		return d.saveIndex()
	}
	if err != nil {
		return err
	}

	var entries []*WorkspaceIndex
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	for _, entry := range entries {
		d.index[entry.ID] = entry
	}
	return nil
}

func (d *DiskStorage) saveIndex() error {
	entries := make([]*WorkspaceIndex, 0, len(d.index))
	for _, entry := range d.index {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})

	return writeJSON(d.indexPath(), entries)
}

// writeJSON 先写临时文件再改名，避免半写入
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

func (d *DiskStorage) loadWorkspaceFromFile(id string) (*model.Workspace, error) {
	data, err := os.ReadFile(d.workspacePath(id))
	if err != nil {
		return nil, err
	}

	var ws model.Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	messages, err := d.loadMessagesFromFile(id)
	if err != nil {
		logger.Errorf("Failed to load messages for workspace %s: %v", id, err)
		messages = []model.ChatMessage{}
	}
	ws.Messages = messages

	return &ws, nil
}

func (d *DiskStorage) loadMessagesFromFile(id string) ([]model.ChatMessage, error) {
	data, err := os.ReadFile(d.messagesPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return []model.ChatMessage{}, nil
	}
	if err != nil {
		return nil, err
	}

	var messages []model.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, err
	}

	return messages, nil
}

func (d *DiskStorage) saveWorkspaceToFile(ws *model.Workspace) error {
	meta := *ws
	meta.Messages = nil

	if err := writeJSON(d.workspacePath(ws.ID), meta); err != nil {
		return err
	}

	messages := ws.Messages
	if messages == nil {
		messages = []model.ChatMessage{}
	}
	return writeJSON(d.messagesPath(ws.ID), messages)
}

func (d *DiskStorage) persist(ws *model.Workspace) error {
	if err := d.saveWorkspaceToFile(ws); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	entry := &WorkspaceIndex{
		ID:        ws.ID,
		FileCount: len(ws.Files),
		CreatedAt: ws.CreatedAt,
		UpdatedAt: ws.UpdatedAt,
		Version:   ws.Version,
	}
	if ws.Agenda != nil {
		entry.MeetingTitle = ws.Agenda.MeetingTitle
	}
	d.index[ws.ID] = entry

	if err := d.saveIndex(); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	d.cache[ws.ID] = cloneWorkspace(ws)
	d.evictCache()
	return nil
}

func (d *DiskStorage) CreateWorkspace(ws *model.Workspace) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.index[ws.ID]; exists {
		return ErrWorkspaceExists
	}

	return d.persist(ws)
}

func (d *DiskStorage) GetWorkspace(workspaceID string) (*model.Workspace, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ws, err := d.getLocked(workspaceID)
	if err != nil {
		return nil, err
	}
	return cloneWorkspace(ws), nil
}

func (d *DiskStorage) getLocked(workspaceID string) (*model.Workspace, error) {
	if ws, exists := d.cache[workspaceID]; exists {
		return ws, nil
	}

	if _, exists := d.index[workspaceID]; !exists {
		return nil, ErrWorkspaceNotFound
	}

	ws, err := d.loadWorkspaceFromFile(workspaceID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	d.cache[workspaceID] = ws
	d.evictCache()
	return ws, nil
}

func (d *DiskStorage) UpdateWorkspace(ws *model.Workspace) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, exists := d.index[ws.ID]
	if !exists {
		return ErrWorkspaceNotFound
	}
	if ws.Version < entry.Version {
		return ErrStaleWrite
	}

	return d.persist(ws)
}

func (d *DiskStorage) DeleteWorkspace(workspaceID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.index[workspaceID]; !exists {
		return ErrWorkspaceNotFound
	}

	for _, path := range []string{d.workspacePath(workspaceID), d.messagesPath(workspaceID)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrFileOperation, err)
		}
	}

	delete(d.cache, workspaceID)
	delete(d.index, workspaceID)

	if err := d.saveIndex(); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return nil
}

// ListWorkspaces 按更新时间倒序，跳过无法读取的工作区
func (d *DiskStorage) ListWorkspaces() ([]*model.Workspace, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := make([]*model.Workspace, 0, len(d.index))
	for id := range d.index {
		ws, err := d.getLocked(id)
		if err != nil {
			logger.Errorf("Failed to load workspace %s: %v", id, err)
			continue
		}
		list = append(list, cloneWorkspace(ws))
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})

	return list, nil
}

func (d *DiskStorage) evictCache() {
	if len(d.cache) <= d.cacheSize {
		return
	}

	type cacheEntry struct {
		id        string
		updatedAt time.Time
	}

	entries := make([]cacheEntry, 0, len(d.cache))
	for id, ws := range d.cache {
		entries = append(entries, cacheEntry{id: id, updatedAt: ws.UpdatedAt})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].updatedAt.Before(entries[j].updatedAt)
	})

	toEvict := len(d.cache) - d.cacheSize
	for i := 0; i < toEvict; i++ {
		delete(d.cache, entries[i].id)
	}
}

func (d *DiskStorage) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cache = make(map[string]*model.Workspace)
	return nil
}

func (d *DiskStorage) Backup() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	backupDir := filepath.Join(d.dataDir, "backup", fmt.Sprintf("backup_%d", time.Now().UnixNano()))

	for _, dir := range []string{"workspaces", "messages"} {
		dstDir := filepath.Join(backupDir, dir)
		if err := os.MkdirAll(dstDir, 0755); err != nil {
			return fmt.Errorf("%w: %v", ErrFileOperation, err)
		}
		if err := copyDir(filepath.Join(d.dataDir, dir), dstDir); err != nil {
			return fmt.Errorf("%w: %v", ErrFileOperation, err)
		}
	}

	if err := copyFile(d.indexPath(), filepath.Join(backupDir, "workspaces.json")); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	logger.Infof("Backup completed: %s", backupDir)
	return nil
}

func copyDir(src, dst string) error {
	files, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		if err := copyFile(filepath.Join(src, file.Name()), filepath.Join(dst, file.Name())); err != nil {
			return err
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, 0644)
}
