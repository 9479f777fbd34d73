package datachatctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("datachatctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "DataChat API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 30*time.Second), "HTTP timeout (e.g. 30s)")
	format := fs.String("format", "table", "output format: table or json")
	sessionID := fs.String("session", "", "session id for chat and history commands")
	limit := fs.Int("limit", 0, "row limit for the preview command")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}
	if *format != "table" && *format != "json" {
		_, _ = fmt.Fprintf(stderr, "invalid -format %q: must be table or json\n", *format)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	runner := &runner{
		client:  client,
		baseURL: strings.TrimRight(*baseURL, "/"),
		apiKey:  *apiKey,
		format:  *format,
		stdout:  stdout,
		stderr:  stderr,
	}

	command := strings.TrimSpace(fs.Arg(0))
	switch command {
	case "health":
		return runner.getJSON(ctx, "/v1/health")
	case "ready":
		return runner.getJSON(ctx, "/v1/ready")
	case "schema":
		return runner.schema(ctx)
	case "preview":
		return runner.preview(ctx, *limit)
	case "session-new":
		return runner.sessionNew(ctx)
	case "history":
		return runner.history(ctx, *sessionID, stderr)
	case "chat":
		message := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
		if message == "" {
			_, _ = fmt.Fprintln(stderr, "chat requires a message argument")
			return 2
		}
		return runner.chat(ctx, *sessionID, message)
	case "query":
		if fs.NArg() < 2 {
			_, _ = fmt.Fprintln(stderr, "query requires a SQL argument")
			return 2
		}
		return runner.query(ctx, strings.Join(fs.Args()[1:], " "))
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}
}

type runner struct {
	client  *http.Client
	baseURL string
	apiKey  string
	format  string
	stdout  io.Writer
	stderr  io.Writer
}

type tablePayload struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type turnPayload struct {
	SessionID string          `json:"session_id"`
	IntroText string          `json:"intro_text"`
	Summary   string          `json:"summary"`
	Table     *tablePayload   `json:"table"`
	Chart     json.RawMessage `json:"chart"`
	QueryText string          `json:"generated_query_text"`
	Error     *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r *runner) getJSON(ctx context.Context, path string) int {
	body, code := r.request(ctx, http.MethodGet, path, nil)
	if code != 0 {
		return code
	}
	r.printJSON(body)
	return 0
}

func (r *runner) schema(ctx context.Context) int {
	body, code := r.request(ctx, http.MethodGet, "/v1/schema", nil)
	if code != 0 {
		return code
	}
	if r.format == "json" {
		r.printJSON(body)
		return 0
	}

	var payload struct {
		Table   string `json:"table"`
		Columns []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"columns"`
		RowCount int64 `json:"row_count"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		_, _ = fmt.Fprintf(r.stderr, "decode response: %v\n", err)
		return 1
	}

	_, _ = fmt.Fprintf(r.stdout, "table %s (%d rows)\n", payload.Table, payload.RowCount)
	columns := []string{"column", "type"}
	rows := make([][]any, 0, len(payload.Columns))
	for _, column := range payload.Columns {
		rows = append(rows, []any{column.Name, column.Type})
	}
	r.renderTable(columns, rows)
	return 0
}

func (r *runner) preview(ctx context.Context, limit int) int {
	path := "/v1/dataset/preview"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	body, code := r.request(ctx, http.MethodGet, path, nil)
	if code != 0 {
		return code
	}
	if r.format == "json" {
		r.printJSON(body)
		return 0
	}

	var payload tablePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		_, _ = fmt.Fprintf(r.stderr, "decode response: %v\n", err)
		return 1
	}
	r.renderTable(payload.Columns, payload.Rows)
	return 0
}

func (r *runner) sessionNew(ctx context.Context) int {
	body, code := r.request(ctx, http.MethodPost, "/v1/sessions", nil)
	if code != 0 {
		return code
	}
	if r.format == "json" {
		r.printJSON(body)
		return 0
	}

	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		_, _ = fmt.Fprintf(r.stderr, "decode response: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(r.stdout, payload.SessionID)
	return 0
}

func (r *runner) history(ctx context.Context, sessionID string, stderr io.Writer) int {
	if strings.TrimSpace(sessionID) == "" {
		_, _ = fmt.Fprintln(stderr, "history requires -session")
		return 2
	}
	body, code := r.request(ctx, http.MethodGet, "/v1/sessions/"+url.PathEscape(sessionID)+"/history", nil)
	if code != 0 {
		return code
	}
	if r.format == "json" {
		r.printJSON(body)
		return 0
	}

	var payload struct {
		Turns []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"turns"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		_, _ = fmt.Fprintf(r.stderr, "decode response: %v\n", err)
		return 1
	}
	for _, turn := range payload.Turns {
		_, _ = fmt.Fprintf(r.stdout, "%s: %s\n", turn.Role, turn.Content)
	}
	return 0
}

func (r *runner) chat(ctx context.Context, sessionID, message string) int {
	body, code := r.request(ctx, http.MethodPost, "/v1/chat", map[string]string{
		"session_id": strings.TrimSpace(sessionID),
		"message":    message,
	})
	if code != 0 {
		return code
	}
	if r.format == "json" {
		r.printJSON(body)
		return 0
	}

	var turn turnPayload
	if err := json.Unmarshal(body, &turn); err != nil {
		_, _ = fmt.Fprintf(r.stderr, "decode response: %v\n", err)
		return 1
	}

	if turn.Error != nil {
		_, _ = fmt.Fprintln(r.stdout, turn.Error.Message)
		_, _ = fmt.Fprintf(r.stdout, "session: %s\n", turn.SessionID)
		return 0
	}

	if turn.IntroText != "" {
		_, _ = fmt.Fprintln(r.stdout, turn.IntroText)
	}
	if turn.Table != nil {
		r.renderTable(turn.Table.Columns, turn.Table.Rows)
	}
	if turn.Summary != "" {
		_, _ = fmt.Fprintln(r.stdout, turn.Summary)
	}
	if len(turn.Chart) > 0 {
		_, _ = fmt.Fprintf(r.stdout, "chart: %s\n", string(turn.Chart))
	}
	_, _ = fmt.Fprintf(r.stdout, "session: %s\n", turn.SessionID)
	return 0
}

func (r *runner) query(ctx context.Context, sqlText string) int {
	body, code := r.request(ctx, http.MethodPost, "/v1/query", map[string]string{"sql": sqlText})
	if code != 0 {
		return code
	}
	if r.format == "json" {
		r.printJSON(body)
		return 0
	}

	var payload tablePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		_, _ = fmt.Fprintf(r.stderr, "decode response: %v\n", err)
		return 1
	}
	r.renderTable(payload.Columns, payload.Rows)
	return 0
}

// request executes one API call; a non-zero second return is the process
// exit code for a failed call.
func (r *runner) request(ctx context.Context, method, path string, payload any) ([]byte, int) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			_, _ = fmt.Fprintf(r.stderr, "encode request: %v\n", err)
			return nil, 1
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reqBody)
	if err != nil {
		_, _ = fmt.Fprintf(r.stderr, "build request: %v\n", err)
		return nil, 1
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(r.apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(r.apiKey))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		_, _ = fmt.Fprintf(r.stderr, "request failed: %v\n", err)
		return nil, 1
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		_, _ = fmt.Fprintf(r.stderr, "read response: %v\n", err)
		return nil, 1
	}
	if resp.StatusCode >= 400 {
		_, _ = fmt.Fprintf(r.stderr, "http %d: %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
		return nil, 1
	}
	return body, 0
}

func (r *runner) renderTable(columns []string, rows [][]any) {
	tw := table.NewWriter()
	tw.SetOutputMirror(r.stdout)
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(columns))
	for _, column := range columns {
		header = append(header, column)
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		tw.AppendRow(table.Row(row))
	}
	tw.Render()
	_, _ = fmt.Fprintf(r.stdout, "(%d rows)\n", len(rows))
}

func (r *runner) printJSON(raw []byte) {
	if pretty, ok := prettyJSON(raw); ok {
		_, _ = fmt.Fprintln(r.stdout, pretty)
		return
	}
	if len(raw) > 0 {
		_, _ = fmt.Fprintln(r.stdout, string(raw))
	}
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: datachatctl [flags] <command> [args]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health                      GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                       GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  schema                      GET /v1/schema")
	_, _ = fmt.Fprintln(w, "  preview [-limit n]          GET /v1/dataset/preview")
	_, _ = fmt.Fprintln(w, "  session-new                 POST /v1/sessions")
	_, _ = fmt.Fprintln(w, "  history -session <id>       GET /v1/sessions/{id}/history")
	_, _ = fmt.Fprintln(w, "  chat [-session <id>] <msg>  POST /v1/chat")
	_, _ = fmt.Fprintln(w, "  query <sql>                 POST /v1/query")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
