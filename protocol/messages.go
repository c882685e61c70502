// Package protocol 定义客户端与中继之间的 JSON 消息（WebSocket 文本帧，type 字段区分类型）。
// 中继只转发命令批次，命令内容以 json.RawMessage 原样透传。
package protocol

import "encoding/json"

// MessageType 消息类型
type MessageType string

// 客户端 → 中继
const (
	TypeCreateRoom   MessageType = "createRoom"
	TypeJoinRoom     MessageType = "joinRoom"
	TypeTurnCommands MessageType = "turnCommands"
	TypeLeave        MessageType = "leave"
)

// 中继 → 客户端
const (
	TypeRoomCreated          MessageType = "roomCreated"
	TypeRoomJoined           MessageType = "roomJoined"
	TypeGameStart            MessageType = "gameStart"
	TypeTurnData             MessageType = "turnData"
	TypeOpponentDisconnected MessageType = "opponentDisconnected"
	TypeError                MessageType = "error"
)

// RoomCodeAlphabet 房间码字符集：去掉了容易混淆的 I、O、0、1
const RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomCodeLength 房间码长度
const RoomCodeLength = 4

// Message 入站解析用的扁平结构，两端都用它解码任意消息
type Message struct {
	Type         MessageType       `json:"type"`
	RoomCode     string            `json:"roomCode,omitempty"`
	Team         int               `json:"team,omitempty"`
	Seed         uint32            `json:"seed,omitempty"`
	TurnInterval int               `json:"turnInterval,omitempty"`
	Turn         int               `json:"turn"`
	Commands     []json.RawMessage `json:"commands,omitempty"`
	Message      string            `json:"message,omitempty"`
}

// Decode 解析一帧消息；无法解析或缺少 type 时返回 false，调用方直接忽略该帧
func Decode(payload []byte) (Message, bool) {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil || m.Type == "" {
		return Message{}, false
	}
	return m, true
}

type typed struct {
	Type MessageType `json:"type"`
}

type CreateRoom struct {
	typed
}

type JoinRoom struct {
	typed
	RoomCode string `json:"roomCode"`
}

type TurnCommands struct {
	typed
	Turn     int               `json:"turn"`
	Commands []json.RawMessage `json:"commands"`
}

type Leave struct {
	typed
}

type RoomCreated struct {
	typed
	RoomCode string `json:"roomCode"`
	Team     int    `json:"team"`
}

type RoomJoined struct {
	typed
	RoomCode string `json:"roomCode"`
	Team     int    `json:"team"`
}

type GameStart struct {
	typed
	Seed         uint32 `json:"seed"`
	TurnInterval int    `json:"turnInterval"`
}

type TurnData struct {
	typed
	Turn     int               `json:"turn"`
	Commands []json.RawMessage `json:"commands"`
}

type OpponentDisconnected struct {
	typed
}

type Error struct {
	typed
	Message string `json:"message"`
}

func NewCreateRoom() CreateRoom { return CreateRoom{typed{TypeCreateRoom}} }

func NewJoinRoom(code string) JoinRoom { return JoinRoom{typed{TypeJoinRoom}, code} }

// NewTurnCommands 空批次编码为 []，而不是 null
func NewTurnCommands(turn int, cmds []json.RawMessage) TurnCommands {
	if cmds == nil {
		cmds = []json.RawMessage{}
	}
	return TurnCommands{typed{TypeTurnCommands}, turn, cmds}
}

func NewLeave() Leave { return Leave{typed{TypeLeave}} }

func NewRoomCreated(code string, team int) RoomCreated {
	return RoomCreated{typed{TypeRoomCreated}, code, team}
}

func NewRoomJoined(code string, team int) RoomJoined {
	return RoomJoined{typed{TypeRoomJoined}, code, team}
}

func NewGameStart(seed uint32, turnInterval int) GameStart {
	return GameStart{typed{TypeGameStart}, seed, turnInterval}
}

func NewTurnData(turn int, cmds []json.RawMessage) TurnData {
	if cmds == nil {
		cmds = []json.RawMessage{}
	}
	return TurnData{typed{TypeTurnData}, turn, cmds}
}

func NewOpponentDisconnected() OpponentDisconnected {
	return OpponentDisconnected{typed{TypeOpponentDisconnected}}
}

func NewError(msg string) Error { return Error{typed{TypeError}, msg} }

// Encode 序列化任意出站消息
func Encode(msg any) []byte {
	b, err := json.Marshal(msg)
	if err != nil {
		// 出站消息都是固定结构，只有 RawMessage 非法时才会失败
		return nil
	}
	return b
}
