package server

import (
	"errors"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"sectorwar/logging"
	"sectorwar/protocol"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full or already started")
	ErrTooManyRooms = errors.New("too many open rooms")
)

// RoomManager 房间码 → 房间的注册表。锁只保护 map 本身的插入、查找与删除，
// 房间内部状态由各自的锁保护。
type RoomManager struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	metrics *RelayMetrics
}

// NewRoomManager 创建空注册表
func NewRoomManager(metrics *RelayMetrics) *RoomManager {
	if metrics == nil {
		metrics = &RelayMetrics{}
	}
	return &RoomManager{rooms: make(map[string]*Room), metrics: metrics}
}

// CreateRoom 分配一个当前未被占用的房间码和对局种子
func (m *RoomManager) CreateRoom(turnInterval, maxRooms int) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if maxRooms > 0 && len(m.rooms) >= maxRooms {
		return nil, ErrTooManyRooms
	}
	code := m.newCodeLocked()
	r := NewRoom(code, rand.Uint32(), turnInterval, m.metrics)
	m.rooms[code] = r
	m.metrics.IncRoomCreated()
	logging.Log.Infow("room created", "room", code, "seed", r.Seed)
	return r, nil
}

func (m *RoomManager) newCodeLocked() string {
	buf := make([]byte, protocol.RoomCodeLength)
	for {
		for i := range buf {
			buf[i] = protocol.RoomCodeAlphabet[rand.IntN(len(protocol.RoomCodeAlphabet))]
		}
		if _, taken := m.rooms[string(buf)]; !taken {
			return string(buf)
		}
	}
}

// GetRoom 按房间码查找（不区分大小写）
func (m *RoomManager) GetRoom(code string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// RemoveRoom 删除房间；只有 r 仍是该房间码对应的房间时才删除
func (m *RoomManager) RemoveRoom(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rooms[r.Code]; ok && cur == r {
		delete(m.rooms, r.Code)
		m.metrics.IncRoomClosed()
		logging.Log.Infow("room closed", "room", r.Code)
	}
}

// Len 当前打开的房间数
func (m *RoomManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Rooms 按房间码排序的快照
func (m *RoomManager) Rooms() []RoomInfo {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
