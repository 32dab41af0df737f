package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// eofMessage must match byte for byte; the server compares the raw string.
const eofMessage = `{"eof" : 1}`

type voskModel struct {
	path     string
	endpoint string
	dialer   *websocket.Dialer
}

type voskConfig struct {
	Config voskConfigBody `json:"config"`
}

type voskConfigBody struct {
	SampleRate int `json:"sample_rate"`
	Words      int `json:"words"`
}

type voskResponse struct {
	Text    *string `json:"text"`
	Partial *string `json:"partial"`
	Result  []Word  `json:"result"`
}

// NewVoskModel returns a Model that streams audio to a Vosk websocket server.
// modelPath is the directory the server was started with; it is only used
// for identification.
func NewVoskModel(modelPath, endpoint string, dialTimeout time.Duration) Model {
	return newVoskModel(modelPath, endpoint, dialTimeout)
}

func newVoskModel(modelPath, endpoint string, dialTimeout time.Duration) *voskModel {
	return &voskModel{
		path:     modelPath,
		endpoint: endpoint,
		dialer: &websocket.Dialer{
			HandshakeTimeout: dialTimeout,
		},
	}
}

func (m *voskModel) Name() string {
	return fmt.Sprintf("vosk(%s @ %s)", m.path, m.endpoint)
}

// ping opens and closes one connection so an unreachable server is reported
// at startup instead of on every file.
func (m *voskModel) ping(ctx context.Context) error {
	conn, _, err := m.dialer.DialContext(ctx, m.endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, m.endpoint, err)
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return conn.Close()
}

func (m *voskModel) Close() error {
	return nil
}

func (m *voskModel) NewSession(ctx context.Context, sampleRate int) (Session, error) {
	conn, _, err := m.dialer.DialContext(ctx, m.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("recognizer: dial %s: %w", m.endpoint, err)
	}

	cfg := voskConfig{Config: voskConfigBody{SampleRate: sampleRate, Words: 1}}
	if err := conn.WriteJSON(cfg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("recognizer: send config: %w", err)
	}

	return &voskSession{conn: conn}, nil
}

type voskSession struct {
	conn    *websocket.Conn
	flushed bool
}

func (s *voskSession) AcceptWaveform(ctx context.Context, pcm []byte) (Fragment, bool, error) {
	if err := s.conn.SetWriteDeadline(deadline(ctx)); err != nil {
		return Fragment{}, false, err
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
		return Fragment{}, false, fmt.Errorf("recognizer: send audio: %w", err)
	}

	resp, err := s.read(ctx)
	if err != nil {
		return Fragment{}, false, err
	}
	if resp.Text == nil {
		return Fragment{}, false, nil
	}
	return resp.fragment(), true, nil
}

func (s *voskSession) FinalResult(ctx context.Context) (Fragment, error) {
	if err := s.conn.SetWriteDeadline(deadline(ctx)); err != nil {
		return Fragment{}, err
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(eofMessage)); err != nil {
		return Fragment{}, fmt.Errorf("recognizer: send eof: %w", err)
	}

	resp, err := s.read(ctx)
	if err != nil {
		return Fragment{}, err
	}
	s.flushed = true
	return resp.fragment(), nil
}

func (s *voskSession) Close() error {
	if !s.flushed {
		_ = s.conn.WriteMessage(websocket.TextMessage, []byte(eofMessage))
	}
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}

func (s *voskSession) read(ctx context.Context) (voskResponse, error) {
	if err := s.conn.SetReadDeadline(deadline(ctx)); err != nil {
		return voskResponse{}, err
	}
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return voskResponse{}, fmt.Errorf("recognizer: read result: %w", err)
	}

	var resp voskResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return voskResponse{}, fmt.Errorf("recognizer: decode result: %w", err)
	}
	return resp, nil
}

func (r voskResponse) fragment() Fragment {
	f := Fragment{Words: r.Result, Confidence: meanConfidence(r.Result)}
	if r.Text != nil {
		f.Text = *r.Text
	}
	return f
}
