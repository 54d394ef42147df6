package network

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrBufferTooSmall = errors.New("buffer too small")
)

var le = binary.LittleEndian

// Protocol handles binary encoding/decoding
type Protocol struct{}

// NewProtocol creates a new protocol handler
func NewProtocol() *Protocol {
	return &Protocol{}
}

func checkHeader(data []byte, msgType uint8, size int) error {
	if len(data) < size {
		return ErrBufferTooSmall
	}
	if data[0] != msgType {
		return ErrInvalidMessage
	}
	return nil
}

// DecodeInput decodes a client input message (6 bytes)
func (p *Protocol) DecodeInput(data []byte) (*InputMessage, error) {
	if err := checkHeader(data, MsgTypeInput, inputSize); err != nil {
		return nil, err
	}

	return &InputMessage{
		MsgType:  data[0],
		Sequence: data[1],
		Keys:     data[2],
		Steering: int8(data[3]),
		Throttle: int8(data[4]),
		Flags:    data[5],
	}, nil
}

// EncodeInput encodes a client input message
func (p *Protocol) EncodeInput(msg InputMessage) []byte {
	return []byte{
		MsgTypeInput,
		msg.Sequence,
		msg.Keys,
		uint8(msg.Steering),
		uint8(msg.Throttle),
		msg.Flags,
	}
}

// DecodeCommand decodes a client command message
func (p *Protocol) DecodeCommand(data []byte) (*CommandMessage, error) {
	if err := checkHeader(data, MsgTypeCommand, commandSize); err != nil {
		return nil, err
	}
	if data[1] < CmdStart || data[1] > CmdFocusLost {
		return nil, ErrInvalidMessage
	}
	return &CommandMessage{MsgType: data[0], Code: data[1]}, nil
}

// EncodeCommand encodes a client command message
func (p *Protocol) EncodeCommand(code uint8) []byte {
	return []byte{MsgTypeCommand, code}
}

// DecodeSettings decodes a client settings message (15 bytes)
func (p *Protocol) DecodeSettings(data []byte) (*SettingsMessage, error) {
	if err := checkHeader(data, MsgTypeSettings, settingsSize); err != nil {
		return nil, err
	}

	sens := math.Float32frombits(le.Uint32(data[1:5]))
	if math.IsNaN(float64(sens)) || math.IsInf(float64(sens), 0) {
		return nil, ErrInvalidMessage
	}

	return &SettingsMessage{
		MsgType:     data[0],
		Sensitivity: sens,
		Lives:       data[5],
		Flags:       data[6],
		Seed:        int64(le.Uint64(data[7:15])),
	}, nil
}

// EncodeSettings encodes a client settings message
func (p *Protocol) EncodeSettings(msg SettingsMessage) []byte {
	buf := make([]byte, settingsSize)
	buf[0] = MsgTypeSettings
	le.PutUint32(buf[1:5], math.Float32bits(msg.Sensitivity))
	buf[5] = msg.Lives
	buf[6] = msg.Flags
	le.PutUint64(buf[7:15], uint64(msg.Seed))
	return buf
}

// DecodePing returns the client timestamp of a ping message
func (p *Protocol) DecodePing(data []byte) (uint64, error) {
	if err := checkHeader(data, MsgTypePing, pingSize); err != nil {
		return 0, err
	}
	return le.Uint64(data[1:9]), nil
}

// EncodePing encodes a ping message
func (p *Protocol) EncodePing(timestamp uint64) []byte {
	buf := make([]byte, pingSize)
	buf[0] = MsgTypePing
	le.PutUint64(buf[1:9], timestamp)
	return buf
}

// EncodeStats encodes a stats message (33 bytes)
func (p *Protocol) EncodeStats(s StatsData) []byte {
	buf := make([]byte, statsSize)
	buf[0] = MsgTypeStats
	p.encodeStatsRecord(buf[1:], s)
	return buf
}

// DecodeStats decodes a stats message
func (p *Protocol) DecodeStats(data []byte) (*StatsData, error) {
	if err := checkHeader(data, MsgTypeStats, statsSize); err != nil {
		return nil, err
	}
	s := p.decodeStatsRecord(data[1:])
	return &s, nil
}

// encodeStatsRecord writes the 32-byte stats record
func (p *Protocol) encodeStatsRecord(buf []byte, s StatsData) {
	le.PutUint32(buf[0:4], s.Tick)
	le.PutUint64(buf[4:12], uint64(s.Score))
	le.PutUint32(buf[12:16], math.Float32bits(s.Distance))
	le.PutUint32(buf[16:20], math.Float32bits(s.Speed))
	le.PutUint32(buf[20:24], math.Float32bits(s.TimeElapsed))
	le.PutUint32(buf[24:28], s.ObstaclesAvoided)
	le.PutUint16(buf[28:30], s.Combo)
	buf[30] = s.Lives
	buf[31] = s.Level
}

func (p *Protocol) decodeStatsRecord(buf []byte) StatsData {
	return StatsData{
		Tick:             le.Uint32(buf[0:4]),
		Score:            int64(le.Uint64(buf[4:12])),
		Distance:         math.Float32frombits(le.Uint32(buf[12:16])),
		Speed:            math.Float32frombits(le.Uint32(buf[16:20])),
		TimeElapsed:      math.Float32frombits(le.Uint32(buf[20:24])),
		ObstaclesAvoided: le.Uint32(buf[24:28]),
		Combo:            le.Uint16(buf[28:30]),
		Lives:            buf[30],
		Level:            buf[31],
	}
}

// EncodeStateChange encodes a state transition (3 bytes)
func (p *Protocol) EncodeStateChange(from, to uint8) []byte {
	return []byte{MsgTypeStateChange, from, to}
}

// DecodeStateChange decodes a state transition
func (p *Protocol) DecodeStateChange(data []byte) (uint8, uint8, error) {
	if err := checkHeader(data, MsgTypeStateChange, 3); err != nil {
		return 0, 0, err
	}
	return data[1], data[2], nil
}

// EncodeGameOver encodes the end-of-game summary (50 bytes)
func (p *Protocol) EncodeGameOver(g GameOverData) []byte {
	buf := make([]byte, gameOverSize)
	buf[0] = MsgTypeGameOver
	p.encodeStatsRecord(buf[1:], g.Stats)

	offset := 1 + statsRecordSize
	le.PutUint64(buf[offset:offset+8], uint64(g.FinalScore))
	le.PutUint64(buf[offset+8:offset+16], uint64(g.HighScore))
	if g.NewRecord {
		buf[offset+16] = 1
	}
	return buf
}

// DecodeGameOver decodes the end-of-game summary
func (p *Protocol) DecodeGameOver(data []byte) (*GameOverData, error) {
	if err := checkHeader(data, MsgTypeGameOver, gameOverSize); err != nil {
		return nil, err
	}

	offset := 1 + statsRecordSize
	return &GameOverData{
		Stats:      p.decodeStatsRecord(data[1:]),
		FinalScore: int64(le.Uint64(data[offset : offset+8])),
		HighScore:  int64(le.Uint64(data[offset+8 : offset+16])),
		NewRecord:  data[offset+16] != 0,
	}, nil
}

// EncodeFrame encodes a scene snapshot. Obstacles past 255 are dropped.
func (p *Protocol) EncodeFrame(f FrameData) []byte {
	count := len(f.Obstacles)
	if count > maxFrameRecords {
		count = maxFrameRecords
	}

	// Header: 26 bytes + 12 bytes per obstacle
	buf := make([]byte, frameHeaderSize+count*obstacleSize)
	buf[0] = MsgTypeFrame
	le.PutUint32(buf[1:5], f.Tick)
	le.PutUint32(buf[5:9], math.Float32bits(f.Car.X))
	le.PutUint32(buf[9:13], math.Float32bits(f.Car.Z))
	le.PutUint32(buf[13:17], math.Float32bits(f.Car.Heading))
	le.PutUint32(buf[17:21], math.Float32bits(f.Car.Lean))
	le.PutUint32(buf[21:25], math.Float32bits(f.Car.Speed))
	buf[25] = uint8(count)

	offset := frameHeaderSize
	for i := 0; i < count; i++ {
		p.encodeObstacle(buf[offset:], f.Obstacles[i])
		offset += obstacleSize
	}
	return buf
}

// encodeObstacle encodes a single obstacle (12 bytes)
func (p *Protocol) encodeObstacle(buf []byte, o ObstacleData) {
	le.PutUint16(buf[0:2], o.ID)
	buf[2] = o.Kind
	buf[3] = o.Flags
	le.PutUint16(buf[4:6], uint16(o.X))
	le.PutUint16(buf[6:8], o.Width)
	le.PutUint32(buf[8:12], math.Float32bits(o.Z))
}

// DecodeFrame decodes a scene snapshot
func (p *Protocol) DecodeFrame(data []byte) (*FrameData, error) {
	if err := checkHeader(data, MsgTypeFrame, frameHeaderSize); err != nil {
		return nil, err
	}
	count := int(data[25])
	if len(data) < frameHeaderSize+count*obstacleSize {
		return nil, ErrBufferTooSmall
	}

	f := &FrameData{
		Tick: le.Uint32(data[1:5]),
		Car: CarData{
			X:       math.Float32frombits(le.Uint32(data[5:9])),
			Z:       math.Float32frombits(le.Uint32(data[9:13])),
			Heading: math.Float32frombits(le.Uint32(data[13:17])),
			Lean:    math.Float32frombits(le.Uint32(data[17:21])),
			Speed:   math.Float32frombits(le.Uint32(data[21:25])),
		},
		Obstacles: make([]ObstacleData, count),
	}

	offset := frameHeaderSize
	for i := range f.Obstacles {
		b := data[offset : offset+obstacleSize]
		f.Obstacles[i] = ObstacleData{
			ID:    le.Uint16(b[0:2]),
			Kind:  b[2],
			Flags: b[3],
			X:     int16(le.Uint16(b[4:6])),
			Width: le.Uint16(b[6:8]),
			Z:     math.Float32frombits(le.Uint32(b[8:12])),
		}
		offset += obstacleSize
	}
	return f, nil
}

// EncodeSessionInfo encodes the greeting sent after a session is created
func (p *Protocol) EncodeSessionInfo(info SessionInfoData) []byte {
	idBytes := []byte(info.SessionID)
	if len(idBytes) > 255 {
		idBytes = idBytes[:255]
	}

	buf := make([]byte, 11+len(idBytes))
	buf[0] = MsgTypeSessionInfo
	buf[1] = uint8(len(idBytes))
	copy(buf[2:], idBytes)
	offset := 2 + len(idBytes)
	buf[offset] = info.State
	le.PutUint64(buf[offset+1:], uint64(info.HighScore))

	return buf
}

// DecodeSessionInfo decodes the session greeting
func (p *Protocol) DecodeSessionInfo(data []byte) (*SessionInfoData, error) {
	if err := checkHeader(data, MsgTypeSessionInfo, 11); err != nil {
		return nil, err
	}
	idLen := int(data[1])
	if len(data) < 11+idLen {
		return nil, ErrBufferTooSmall
	}
	offset := 2 + idLen
	return &SessionInfoData{
		SessionID: string(data[2:offset]),
		State:     data[offset],
		HighScore: int64(le.Uint64(data[offset+1 : offset+9])),
	}, nil
}

// EncodePong encodes a pong message
func (p *Protocol) EncodePong(timestamp uint64) []byte {
	buf := make([]byte, 9)
	buf[0] = MsgTypePong
	le.PutUint64(buf[1:9], timestamp)
	return buf
}

// EncodeError encodes an error message
func (p *Protocol) EncodeError(code uint8, message string) []byte {
	msgBytes := []byte(message)
	if len(msgBytes) > 255 {
		msgBytes = msgBytes[:255]
	}

	buf := make([]byte, 3+len(msgBytes))
	buf[0] = MsgTypeError
	buf[1] = code
	buf[2] = uint8(len(msgBytes))
	copy(buf[3:], msgBytes)

	return buf
}

// DecodeError decodes an error message
func (p *Protocol) DecodeError(data []byte) (*ErrorMessage, error) {
	if err := checkHeader(data, MsgTypeError, 3); err != nil {
		return nil, err
	}
	n := int(data[2])
	if len(data) < 3+n {
		return nil, ErrBufferTooSmall
	}
	return &ErrorMessage{MsgType: data[0], Code: data[1], Message: string(data[3 : 3+n])}, nil
}

// DecodeSteeringThrottle converts int8 values to float64
func DecodeSteeringThrottle(steering, throttle int8) (float64, float64) {
	return float64(steering) / 127.0, float64(throttle) / 127.0
}

// EncodeAxis converts an axis value in [-1, 1] to int8
func EncodeAxis(v float64) int8 {
	return int8(math.Round(math.Max(-1, math.Min(1, v)) * 127))
}

// ScaleCentimetres converts world units to a fixed-point int16 (x100),
// saturating at the int16 range
func ScaleCentimetres(v float64) int16 {
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v*100))))
}
