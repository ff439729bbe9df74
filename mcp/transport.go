package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// requestID is shared by every client in the process
var requestID atomic.Int64

func nextRequestID() int64 {
	return requestID.Add(1)
}

const sseDataPrefix = "data: "

// maxSSELineSize bounds a single event-stream line
const maxSSELineSize = 4 * 1024 * 1024

// rpcReply is a decoded response together with the session token the
// server returned, if any.
type rpcReply struct {
	Result    json.RawMessage
	SessionID string
}

// Doer performs a HTTP request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// transport sends JSON-RPC messages to one endpoint
type transport struct {
	endpoint   string
	auth       Auth
	httpClient Doer
}

func (t *transport) newHTTPRequest(ctx context.Context, msg Request, sessionID string) (*http.Request, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	applyAuth(req.Header, t.auth)

	return req, nil
}

func applyAuth(h http.Header, auth Auth) {
	if auth.Token == "" {
		return
	}

	switch auth.Type {
	case AuthTypeBearer:
		h.Set("Authorization", "Bearer "+auth.Token)
	case AuthTypeAPIKey:
		name := auth.HeaderName
		if name == "" {
			name = DefaultAPIKeyHeader
		}
		h.Set(name, auth.Token)
	}
}

// call sends a request and waits for its result
func (t *transport) call(ctx context.Context, method string, params interface{}, sessionID string) (*rpcReply, error) {
	id := nextRequestID()
	req, err := t.newHTTPRequest(ctx, Request{
		JSONRPC: JSONRPCVersion,
		ID:      &id,
		Method:  method,
		Params:  params,
	}, sessionID)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "MCP request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Newf("MCP request failed: %s", resp.Status)
	}

	reply := &rpcReply{SessionID: resp.Header.Get(SessionHeader)}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		reply.Result, err = readEventStream(resp.Body)
		if err != nil {
			return nil, err
		}
		return reply, nil
	}

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errors.Wrap(err, "failed to decode MCP response")
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}

	reply.Result = envelope.Result
	return reply, nil
}

// notify sends a notification. The response, if any, is drained and ignored.
func (t *transport) notify(ctx context.Context, method string, params interface{}, sessionID string) error {
	req, err := t.newHTTPRequest(ctx, Request{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  params,
	}, sessionID)
	if err != nil {
		return err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// readEventStream scans `data: ` lines for the first JSON-RPC message
// carrying a result. A message carrying an error fails the call; lines that
// are not valid JSON are skipped.
func readEventStream(body io.Reader) (json.RawMessage, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.HasPrefix(line, sseDataPrefix) {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, sseDataPrefix))
		if data == "" {
			continue
		}

		var msg Response
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}
		if msg.Error != nil {
			return nil, msg.Error
		}
		if msg.HasResult() {
			return msg.Result, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read event stream")
	}

	return nil, ErrNoStreamResult
}
