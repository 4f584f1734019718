package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// session drives a running Server over a pair of pipes, one JSON line at a time.
type session struct {
	t    *testing.T
	in   *io.PipeWriter
	out  *bufio.Reader
	done chan error
}

func startSession(t *testing.T, ctx context.Context, s *Server) *session {
	t.Helper()
	pr, pw := io.Pipe()
	sr, sw := io.Pipe()
	sess := &session{t: t, in: pw, out: bufio.NewReader(sr), done: make(chan error, 1)}
	go func() {
		err := s.Run(ctx, pr, sw)
		_ = sw.Close()
		sess.done <- err
	}()
	return sess
}

func (s *session) send(line string) {
	s.t.Helper()
	_, err := io.WriteString(s.in, line+"\n")
	require.NoError(s.t, err)
}

// reply reads the next response and decodes it into a generic envelope.
func (s *session) reply() rpcEnvelope {
	s.t.Helper()
	line, err := s.out.ReadString('\n')
	require.NoError(s.t, err)
	var env rpcEnvelope
	require.NoError(s.t, json.Unmarshal([]byte(line), &env), "response: %s", line)
	return env
}

// wait closes stdin and returns Run's result.
func (s *session) wait() error {
	s.t.Helper()
	_ = s.in.Close()
	select {
	case err := <-s.done:
		return err
	case <-time.After(2 * time.Second):
		s.t.Fatal("Run did not return")
		return nil
	}
}

type rpcEnvelope struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *jsonrpcError   `json:"error"`
}

// runServer starts s and returns a request/response function, a function
// closing stdin, and a cleanup that cancels the server.
func runServer(t *testing.T, s *Server) (sendLine func(string) string, closePipe func(), cleanup func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	sess := startSession(t, ctx, s)

	sendLine = func(line string) string {
		sess.send(line)
		resp, err := sess.out.ReadString('\n')
		require.NoError(t, err)
		return resp
	}
	closePipe = func() { _ = sess.in.Close() }
	cleanup = func() {
		cancel()
		_ = sess.wait()
	}
	return sendLine, closePipe, cleanup
}

func TestInitialize_ReportsCropflowAndVersion(t *testing.T) {
	sess := startSession(t, context.Background(), NewServer(&fakeEngine{}, nil, "1.4.0", nil))

	sess.send(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	env := sess.reply()
	require.Nil(t, env.Error)
	assert.JSONEq(t, `1`, string(env.ID))

	var res struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"serverInfo"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &res))
	assert.NotEmpty(t, res.ProtocolVersion)
	assert.Equal(t, "cropflow", res.ServerInfo.Name)
	assert.Equal(t, "1.4.0", res.ServerInfo.Version)
	assert.NoError(t, sess.wait())
}

func toolNames(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	var res struct {
		Tools []toolListEntry `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(raw, &res))
	names := make([]string, len(res.Tools))
	for i, tool := range res.Tools {
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.NotEmpty(t, tool.InputSchema, tool.Name)
		names[i] = tool.Name
	}
	return names
}

func TestToolsList_CoverageOnlyWithStore(t *testing.T) {
	engineTools := []string{"generate_strategies", "generate_transactions", "analyze_trade"}

	sess := startSession(t, context.Background(), NewServer(&fakeEngine{}, nil, "test", nil))
	sess.send(`{"jsonrpc":"2.0","id":"a","method":"tools/list"}`)
	assert.ElementsMatch(t, engineTools, toolNames(t, sess.reply().Result))
	require.NoError(t, sess.wait())

	sess = startSession(t, context.Background(), seededServer(t))
	sess.send(`{"jsonrpc":"2.0","id":"b","method":"tools/list"}`)
	assert.ElementsMatch(t, append(engineTools, "list_coverage"), toolNames(t, sess.reply().Result))
	require.NoError(t, sess.wait())
}

func TestToolsCall_UnknownToolIsErrorResult(t *testing.T) {
	sess := startSession(t, context.Background(), NewServer(&fakeEngine{}, nil, "test", nil))

	sess.send(`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"plant_trees"}}`)
	env := sess.reply()
	require.Nil(t, env.Error)
	var res toolsCallResult
	require.NoError(t, json.Unmarshal(env.Result, &res))
	assert.True(t, res.IsError)
	assert.Equal(t, "unknown tool: plant_trees", res.Content[0].Text)
	assert.NoError(t, sess.wait())
}

func TestToolsCall_MalformedParams(t *testing.T) {
	sess := startSession(t, context.Background(), NewServer(&fakeEngine{}, nil, "test", nil))

	sess.send(`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":"generate_strategies"}`)
	env := sess.reply()
	require.NotNil(t, env.Error)
	assert.Equal(t, -32602, env.Error.Code)
	assert.NoError(t, sess.wait())
}

func TestProtocolErrors(t *testing.T) {
	sess := startSession(t, context.Background(), NewServer(&fakeEngine{}, nil, "test", nil))

	sess.send(`{"jsonrpc":"2.0","id":6,"method":"resources/list"}`)
	env := sess.reply()
	require.NotNil(t, env.Error)
	assert.Equal(t, -32601, env.Error.Code)

	sess.send(`{not json`)
	env = sess.reply()
	require.NotNil(t, env.Error)
	assert.Equal(t, -32700, env.Error.Code)
	assert.NoError(t, sess.wait())
}

func TestNotification_NoResponse(t *testing.T) {
	engine := &fakeEngine{}
	sess := startSession(t, context.Background(), NewServer(engine, nil, "test", nil))

	// A notification is skipped, so the next line read answers the request.
	sess.send(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	sess.send(`{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"generate_transactions","arguments":{"crop_year":"2012-13","crop":"Maize"}}}`)
	env := sess.reply()
	assert.JSONEq(t, `9`, string(env.ID))
	assert.Equal(t, "2012-13", engine.cropYear)
	assert.Equal(t, "Maize", engine.crop)
	assert.NoError(t, sess.wait())
}

func TestRun_ReturnsNilOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sess := startSession(t, ctx, NewServer(&fakeEngine{}, nil, "test", nil))
	cancel()
	assert.NoError(t, sess.wait())
}
