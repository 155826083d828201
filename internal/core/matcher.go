package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Request is the serialized input of one matcher call.
type Request struct {
	Documents [][]byte // JSON-encoded document snapshots
	Focus     []byte   // JSON-encoded focus snapshot; nil in corpus mode
}

// Engine is the matching service. Match returns one serialized
// DocumentResult per document that has at least one reference, and reports
// a ScanEvent through progress for every scanned document.
type Engine interface {
	Match(ctx context.Context, req Request, progress func(ScanEvent)) ([][]byte, error)
}

// MatcherClient runs an Engine off the caller's goroutine.
type MatcherClient struct {
	engine Engine
}

// NewMatcherClient returns a client for engine.
func NewMatcherClient(engine Engine) *MatcherClient {
	return &MatcherClient{engine: engine}
}

// Pending is the eventual result of a scan.
type Pending struct {
	done chan struct{}
	raw  [][]byte
	err  error
}

// Done is closed once the scan resolved or rejected.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the scan completes or ctx is done.
func (p *Pending) Wait(ctx context.Context) ([][]byte, error) {
	select {
	case <-p.done:
		return p.raw, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ScanCorpus matches every document against the rest of the corpus.
func (c *MatcherClient) ScanCorpus(ctx context.Context, docs []Document, onProgress func(ScanEvent)) *Pending {
	return c.scan(ctx, "corpus", nil, docs, onProgress)
}

// ScanSingle matches only focus against the corpus.
func (c *MatcherClient) ScanSingle(ctx context.Context, focus Document, docs []Document, onProgress func(ScanEvent)) *Pending {
	return c.scan(ctx, "single", &focus, docs, onProgress)
}

func (c *MatcherClient) scan(ctx context.Context, mode string, focus *Document, docs []Document, onProgress func(ScanEvent)) *Pending {
	p := &Pending{done: make(chan struct{})}

	req, err := encodeRequest(focus, docs)
	if err != nil {
		p.err = &MatcherError{Mode: mode, Err: err}
		close(p.done)
		return p
	}

	// Progress is delivered one event at a time and never after resolution,
	// even if the engine leaks a callback from a goroutine of its own.
	var mu sync.Mutex
	resolved := false
	progress := func(ev ScanEvent) {
		mu.Lock()
		defer mu.Unlock()
		if resolved || onProgress == nil {
			return
		}
		onProgress(ev)
	}

	go func() {
		defer close(p.done)
		raw, err := c.engine.Match(ctx, req, progress)
		mu.Lock()
		resolved = true
		mu.Unlock()
		if err != nil {
			p.err = &MatcherError{Mode: mode, Err: err}
			return
		}
		p.raw = raw
	}()
	return p
}

// snapshot is the wire form of a Document. Content travels as bytes so
// that text which is not valid UTF-8 reaches the engine unchanged and
// offsets stay byte-exact.
type snapshot struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content []byte   `json:"content"`
	Aliases []string `json:"aliases,omitempty"`
	Ignored []Range  `json:"ignored,omitempty"`
}

func encodeDocument(d Document) ([]byte, error) {
	b, err := json.Marshal(snapshot{ID: d.ID, Title: d.Title, Content: []byte(d.Content), Aliases: d.Aliases, Ignored: d.Ignored})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", d.ID, err)
	}
	return b, nil
}

func decodeDocument(b []byte) (Document, error) {
	var s snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return Document{}, err
	}
	return Document{ID: s.ID, Title: s.Title, Content: string(s.Content), Aliases: s.Aliases, Ignored: s.Ignored}, nil
}

func encodeRequest(focus *Document, docs []Document) (Request, error) {
	var req Request
	req.Documents = make([][]byte, 0, len(docs))
	for _, d := range docs {
		b, err := encodeDocument(d)
		if err != nil {
			return Request{}, err
		}
		req.Documents = append(req.Documents, b)
	}
	if focus != nil {
		b, err := encodeDocument(*focus)
		if err != nil {
			return Request{}, err
		}
		req.Focus = b
	}
	return req, nil
}

// decodeRequest is the engine side of encodeRequest.
func decodeRequest(req Request) (*Document, []Document, error) {
	docs := make([]Document, 0, len(req.Documents))
	for i, b := range req.Documents {
		d, err := decodeDocument(b)
		if err != nil {
			return nil, nil, fmt.Errorf("decode document %d: %w", i, err)
		}
		docs = append(docs, d)
	}
	if req.Focus == nil {
		return nil, docs, nil
	}
	focus, err := decodeDocument(req.Focus)
	if err != nil {
		return nil, nil, fmt.Errorf("decode focus document: %w", err)
	}
	return &focus, docs, nil
}
