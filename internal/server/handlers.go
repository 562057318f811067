package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/histogram-mcp/internal/histogram"
	"github.com/ironsheep/histogram-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "histogram_compute").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		toolCallsTotal.WithLabelValues(params.Name, "error").Inc()
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	toolCallsTotal.WithLabelValues(params.Name, "ok").Inc()

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)

	// Histogram lifecycle
	case "histogram_compute":
		return s.handleHistogramCompute(args)
	case "histogram_status":
		return s.handleHistogramStatus(args)
	case "histogram_cancel":
		return s.handleHistogramCancel(args)
	case "histogram_clear":
		return s.handleHistogramClear(args)

	// Queries
	case "histogram_channel_stats":
		return s.handleHistogramChannelStats(args)
	case "histogram_values":
		return s.handleHistogramValues(args)
	case "histogram_threshold_image":
		return s.handleHistogramThresholdImage(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// lookup returns the entry for path, or nil.
func (s *Server) lookup(path string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[path]
}

// entryFor returns the entry for path, creating an empty histogram on first
// use.
func (s *Server) entryFor(path string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[path]
	if !ok {
		e = &entry{h: histogram.New(s.cfg.HistogramOptions()...)}
		s.entries[path] = e
		trackedHistograms.Set(float64(len(s.entries)))
	}
	return e
}

// computed returns the entry for path or an error when nothing was computed.
func (s *Server) computed(path string) (*entry, error) {
	e := s.lookup(path)
	if e == nil {
		return nil, fmt.Errorf("no histogram computed for %s", path)
	}
	return e, nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Histogram Lifecycle Handlers ===

type histogramComputeArgs struct {
	Path     string          `json:"path"`
	Region   *imaging.Region `json:"region"`
	MaskPath string          `json:"mask_path"`
	Async    bool            `json:"async"`
}

func (s *Server) handleHistogramCompute(args json.RawMessage) (interface{}, error) {
	var a histogramComputeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	buf, err := s.cache.Buffer(a.Path)
	if err != nil {
		return nil, err
	}

	req := histogram.Request{Source: buf, Area: buf.Bounds()}
	if a.Region != nil {
		if err := imaging.ValidateRegion(*a.Region, buf.Bounds()); err != nil {
			return nil, err
		}
		req.Area = a.Region.Rect()
	}
	if a.MaskPath != "" {
		mask, err := imaging.LoadMask(s.cache, a.MaskPath, req.Area)
		if err != nil {
			return nil, fmt.Errorf("failed to load mask: %w", err)
		}
		req.Mask = mask
	}

	id := fmt.Sprintf("calc_%s", uuid.New().String())
	e := s.entryFor(a.Path)
	calc := e.h.CalculateAsync(req, s.calculationDone(a.Path, id, time.Now()))

	s.mu.Lock()
	e.calc, e.id = calc, id
	s.mu.Unlock()

	if a.Async {
		return &ComputeStarted{Path: a.Path, CalculationID: id, State: histogram.Running.String()}, nil
	}
	state := calc.Wait()
	return summarize(a.Path, id, e.h, state), nil
}

// calculationDone returns the callback recording the outcome of a run.
func (s *Server) calculationDone(path, id string, started time.Time) histogram.Callback {
	return func(h *histogram.Histogram, state histogram.State) {
		elapsed := time.Since(started)
		calculationsTotal.WithLabelValues(state.String()).Inc()
		calculationDuration.Observe(elapsed.Seconds())
		s.debugf("Calculation %s for %s %s after %v (%d components, %d bins)",
			id, path, state, elapsed, h.Components(), h.BinCount())
	}
}

type pathArgs struct {
	Path string `json:"path"`
}

type histogramStatusArgs struct {
	Path string `json:"path"`
	Wait bool   `json:"wait"`
}

func (s *Server) handleHistogramStatus(args json.RawMessage) (interface{}, error) {
	var a histogramStatusArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.computed(a.Path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	calc, id := e.calc, e.id
	s.mu.Unlock()

	state := e.h.State()
	if calc != nil {
		if a.Wait {
			state = calc.Wait()
		} else {
			select {
			case <-calc.Done():
				state = calc.Wait()
			default:
			}
		}
	}
	return summarize(a.Path, id, e.h, state), nil
}

func (s *Server) handleHistogramCancel(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.computed(a.Path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	id := e.id
	s.mu.Unlock()

	state := histogram.Idle
	if calc := e.h.Cancel(); calc != nil {
		state = calc.Wait()
	}
	return summarize(a.Path, id, e.h, state), nil
}

func (s *Server) handleHistogramClear(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.computed(a.Path)
	if err != nil {
		return nil, err
	}
	e.h.Clear(0)

	s.mu.Lock()
	delete(s.entries, a.Path)
	trackedHistograms.Set(float64(len(s.entries)))
	s.mu.Unlock()
	s.cache.Evict(a.Path)

	return map[string]interface{}{"path": a.Path, "cleared": true}, nil
}

// === Query Handlers ===

type histogramChannelStatsArgs struct {
	Path    string `json:"path"`
	Channel string `json:"channel"`
	Start   *int   `json:"start"`
	End     *int   `json:"end"`
}

func (s *Server) handleHistogramChannelStats(args json.RawMessage) (interface{}, error) {
	var a histogramChannelStatsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, ch, err := s.channelQuery(a.Path, a.Channel)
	if err != nil {
		return nil, err
	}

	start, end := 0, e.h.BinCount()-1
	if a.Start != nil {
		start = *a.Start
	}
	if a.End != nil {
		end = *a.End
	}
	stats := channelStats(e.h, ch, start, end)
	return &stats, nil
}

type histogramValuesArgs struct {
	Path    string `json:"path"`
	Channel string `json:"channel"`
}

func (s *Server) handleHistogramValues(args json.RawMessage) (interface{}, error) {
	var a histogramValuesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, ch, err := s.channelQuery(a.Path, a.Channel)
	if err != nil {
		return nil, err
	}
	return &ChannelValues{
		Channel: ch.String(),
		Bins:    e.h.BinCount(),
		Values:  e.h.Values(ch),
	}, nil
}

// channelQuery resolves the histogram and channel for a query tool.
func (s *Server) channelQuery(path, name string) (*entry, histogram.Channel, error) {
	e, err := s.computed(path)
	if err != nil {
		return nil, 0, err
	}
	ch, err := histogram.ParseChannel(name)
	if err != nil {
		return nil, 0, err
	}
	if e.h.Empty() {
		return nil, 0, fmt.Errorf("histogram for %s is empty", path)
	}
	if !e.h.HasChannel(ch) {
		return nil, 0, fmt.Errorf("channel %s not available for a %d-component image", ch, e.h.Components())
	}
	return e, ch, nil
}

type histogramThresholdImageArgs struct {
	Path    string          `json:"path"`
	Channel string          `json:"channel"`
	Region  *imaging.Region `json:"region"`
}

func (s *Server) handleHistogramThresholdImage(args json.RawMessage) (interface{}, error) {
	var a histogramThresholdImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Channel == "" {
		a.Channel = histogram.Value.String()
	}
	ch, err := histogram.ParseChannel(a.Channel)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Threshold(img, a.Region, ch, s.cfg.HistogramOptions()...)
}
