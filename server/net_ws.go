package server

import (
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"sectorwar/logging"
	"sectorwar/protocol"
)

const (
	sendQueueSize = 256
	writeWait     = 5 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
	maxMessage    = 1 << 20 // 1MB
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws      *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	metrics *RelayMetrics
}

func NewClientConn(ws *websocket.Conn, metrics *RelayMetrics) *ClientConn {
	return &ClientConn{
		ws:      ws,
		send:    make(chan []byte, sendQueueSize),
		done:    make(chan struct{}),
		metrics: metrics,
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞）。
// 锁步消息不能丢，队列满说明对端已跟不上，直接断开。
func (c *ClientConn) Enqueue(b []byte) {
	if b == nil {
		return
	}
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- b:
	default:
		c.metrics.IncSlowClient()
		logging.Log.Warnf("send queue full, dropping client %s", c.ws.RemoteAddr())
		c.Close()
	}
}

// Close 关闭底层连接，写协程随之退出。可重复调用
func (c *ClientConn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期发送 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.Close()
	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// session 单个连接的房间状态，只在 readPump 协程内访问
type session struct {
	relay   *Relay
	conn    *ClientConn
	limiter *rate.Limiter
	room    *Room
	team    int
}

func (s *session) reply(msg any) {
	s.conn.Enqueue(protocol.Encode(msg))
}

// allow 创建 / 加入房间的频率限制
func (s *session) allow() bool {
	if s.limiter.Allow() {
		return true
	}
	s.relay.metrics.IncRateLimited()
	s.reply(protocol.NewError("too many requests"))
	return false
}

func (s *session) handle(m protocol.Message) {
	switch m.Type {
	case protocol.TypeCreateRoom:
		if s.room != nil {
			s.reply(protocol.NewError("already in a room"))
			return
		}
		if !s.allow() {
			return
		}
		opts := s.relay.Options()
		room, err := s.relay.rooms.CreateRoom(opts.TurnInterval, opts.MaxRooms)
		if err != nil {
			s.reply(protocol.NewError(err.Error()))
			return
		}
		team, err := room.Join(s.conn)
		if err != nil {
			s.relay.rooms.RemoveRoom(room)
			s.reply(protocol.NewError(err.Error()))
			return
		}
		s.relay.metrics.IncJoinAccepted()
		s.room, s.team = room, team

	case protocol.TypeJoinRoom:
		if s.room != nil {
			s.reply(protocol.NewError("already in a room"))
			return
		}
		if !s.allow() {
			return
		}
		room, err := s.relay.rooms.GetRoom(m.RoomCode)
		if err == nil {
			s.team, err = room.Join(s.conn)
		}
		if err != nil {
			s.relay.metrics.IncJoinRejected()
			logging.Log.Infow("join rejected", "room", m.RoomCode, "err", err)
			s.reply(protocol.NewError(err.Error()))
			return
		}
		s.relay.metrics.IncJoinAccepted()
		s.room = room

	case protocol.TypeTurnCommands:
		if s.room == nil {
			return
		}
		s.room.Submit(s.team, m.Turn, m.Commands)

	case protocol.TypeLeave:
		s.leave()

	default:
		s.relay.metrics.IncMalformedIgnored()
	}
}

// leave 离开当前房间；房间空了就从注册表删除
func (s *session) leave() {
	if s.room == nil {
		return
	}
	if s.room.Leave(s.team) {
		s.relay.rooms.RemoveRoom(s.room)
	}
	s.room, s.team = nil, 0
}

// readPump 读取客户端消息并交给 session 处理；退出时视同离开房间
func (s *session) readPump() {
	defer s.relay.metrics.IncConnClosed()
	defer s.conn.Close()
	defer s.leave()
	ws := s.conn.ws
	ws.SetReadLimit(maxMessage)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if !errors.As(err, &ce) {
				logging.Log.Debugf("read from %s: %v", ws.RemoteAddr(), err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		msg, ok := protocol.Decode(payload)
		if !ok {
			s.relay.metrics.IncMalformedIgnored()
			continue
		}
		s.handle(msg)
	}
}

// HandleWS WebSocket 接入：/ws
func (s *Relay) HandleWS(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Log.Warnf("upgrade error: %v", err)
		return
	}
	s.metrics.IncConnOpen()

	opts := s.Options()
	client := NewClientConn(ws, s.metrics)
	sess := &session{
		relay:   s,
		conn:    client,
		limiter: rate.NewLimiter(rate.Limit(opts.JoinPerSecond), opts.JoinBurst),
	}

	go client.writePump()
	go sess.readPump()
}
