package lockstep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sectorwar/logging"
	"sectorwar/protocol"
)

const (
	sendChSize = 64
	inChSize   = 64
	writeWait  = 5 * time.Second
)

// ErrTransportClosed 连接已关闭后仍尝试发送
var ErrTransportClosed = errors.New("transport closed")

// Transport 协调器与中继之间的消息通道。Incoming 在连接断开后被关闭
type Transport interface {
	Send(msg any) error
	Incoming() <-chan protocol.Message
	Close() error
}

// WSTransport 基于 gorilla/websocket 的 Transport：单独的读、写协程
type WSTransport struct {
	conn *websocket.Conn
	send chan []byte
	in   chan protocol.Message
	done chan struct{}
	once sync.Once
}

// Dial 连接中继并启动读写协程
func Dial(ctx context.Context, url string) (*WSTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", url, err)
	}
	t := &WSTransport{
		conn: conn,
		send: make(chan []byte, sendChSize),
		in:   make(chan protocol.Message, inChSize),
		done: make(chan struct{}),
	}
	go t.writeLoop()
	go t.readLoop()
	return t, nil
}

// Send 排队一条出站消息
func (t *WSTransport) Send(msg any) error {
	b := protocol.Encode(msg)
	if b == nil {
		return fmt.Errorf("encode %T", msg)
	}
	select {
	case <-t.done:
		return ErrTransportClosed
	case t.send <- b:
		return nil
	}
}

func (t *WSTransport) Incoming() <-chan protocol.Message { return t.in }

// Close 发送关闭帧并断开连接。可重复调用
func (t *WSTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		err = t.conn.Close()
	})
	return err
}

// writeLoop 只有这一个协程写连接
func (t *WSTransport) writeLoop() {
	for {
		select {
		case <-t.done:
			return
		case data := <-t.send:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Log.Warnf("relay write error: %v", err)
				_ = t.Close()
				return
			}
		}
	}
}

// readLoop 解析入站消息；无法解析的帧直接忽略
func (t *WSTransport) readLoop() {
	defer close(t.in)
	for {
		_, payload, err := t.conn.ReadMessage()
		if err != nil {
			select {
			case <-t.done:
			default:
				logging.Log.Infof("relay connection closed: %v", err)
				_ = t.Close()
			}
			return
		}
		msg, ok := protocol.Decode(payload)
		if !ok {
			continue
		}
		select {
		case t.in <- msg:
		case <-t.done:
			return
		}
	}
}
