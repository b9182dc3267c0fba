package service

import (
	"context"
	"log"
	"strings"
	"sync"

	store "github.com/solkit/solkit/internal/repository"
	"github.com/solkit/solkit/internal/trace"
)

// turnRecorder reconciles one turn's database row with the text that
// has actually been streamed to the client. Partial responses are
// flushed whenever the unflushed tail reaches flushChars, so a crash
// mid-generation leaves the row holding most of what the caller saw.
//
// Persistence failures are logged and swallowed: the stream to the
// client must never stall because the database hiccuped.
type turnRecorder struct {
	store      store.Store
	turnID     int64
	flushChars int
	sink       *trace.Sink

	mu        sync.Mutex
	buf       strings.Builder
	lastFlush int
}

func newTurnRecorder(st store.Store, turnID int64, flushChars int, sink *trace.Sink) *turnRecorder {
	return &turnRecorder{store: st, turnID: turnID, flushChars: flushChars, sink: sink}
}

// Append records streamed text and flushes the accumulated response to
// the store once enough new text has arrived since the last flush.
func (r *turnRecorder) Append(ctx context.Context, text string) {
	if text == "" {
		return
	}
	r.mu.Lock()
	r.buf.WriteString(text)
	flush := r.buf.Len()-r.lastFlush >= r.flushChars
	var snapshot string
	if flush {
		snapshot = r.buf.String()
		r.lastFlush = r.buf.Len()
	}
	r.mu.Unlock()

	if flush {
		if err := r.store.UpdateTurnResponse(ctx, r.turnID, snapshot); err != nil {
			log.Printf("ERROR: failed to persist partial response for turn %d: %v", r.turnID, err)
		}
	}
}

// Response returns everything appended so far.
func (r *turnRecorder) Response() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// Finalize commits the terminal state of the turn: the definitive
// response text, the success flag, token counts and the captured trace.
func (r *turnRecorder) Finalize(ctx context.Context, response string, success bool, inputTokens, outputTokens, totalTokens int) {
	if r.sink != nil {
		if verbose := r.sink.String(); verbose != "" {
			if err := r.store.UpdateTurnVerbose(ctx, r.turnID, verbose); err != nil {
				log.Printf("ERROR: failed to persist trace for turn %d: %v", r.turnID, err)
			}
		}
	}
	if err := r.store.FinalizeTurn(ctx, r.turnID, response, success, inputTokens, outputTokens, totalTokens); err != nil {
		log.Printf("ERROR: failed to finalize turn %d: %v", r.turnID, err)
	}
}
