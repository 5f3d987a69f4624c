package chunker

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(500))
		if p.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.chunkSize)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.overlap >= p.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})
}

func TestProcessor_Chunk_Empty(t *testing.T) {
	p := New()
	if chunks := p.Chunk(""); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty text, got %d", len(chunks))
	}
}

func TestProcessor_Chunk_Small(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))
	text := "This is a small piece of content."

	chunks := p.Chunk(text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small text, got %d", len(chunks))
	}
	if chunks[0].Content != text {
		t.Errorf("expected chunk content to match input")
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
}

func TestProcessor_Chunk_Large(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))
	text := strings.Repeat("x", 250)

	chunks := p.Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Indexes are sequential
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("expected index %d, got %d", i, chunk.Index)
		}
	}

	// Consecutive chunks overlap by the configured amount
	first := chunks[0].Content
	second := chunks[1].Content
	if !strings.HasPrefix(second, first[len(first)-20:]) {
		t.Error("expected second chunk to start with overlap of the first")
	}
}

func TestWholeText_Chunk(t *testing.T) {
	w := NewWholeText()

	if chunks := w.Chunk(""); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty text, got %d", len(chunks))
	}

	text := strings.Repeat("long email body ", 500)
	chunks := w.Chunk(text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != text {
		t.Error("expected whole text as single chunk")
	}
}
