package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakePrinter records calls and fails on a chosen item.
type fakePrinter struct {
	headerCount int
	footerCount int
	items       []testServer
	errOnURL    string
}

func (p *fakePrinter) Header(w io.Writer, count int) {
	p.headerCount = count
	_, _ = io.WriteString(w, "HEADER\n")
}

func (p *fakePrinter) Item(w io.Writer, s testServer) error {
	if s.URL == p.errOnURL {
		return fmt.Errorf("cannot print %s", s.URL)
	}
	p.items = append(p.items, s)
	_, err := fmt.Fprintf(w, "ITEM:%s\n", s.URL)
	return err
}

func (p *fakePrinter) Footer(w io.Writer, count int) {
	p.footerCount = count
	_, _ = io.WriteString(w, "FOOTER\n")
}

func TestTextHandler_HandleResults(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	p := &fakePrinter{}
	h := NewTextHandler[testServer](buf, p)
	require.Equal(t, buf, h.Writer())

	require.NoError(t, h.HandleResults(testServer{URL: "a"}, testServer{URL: "b"}))
	require.Equal(t, "HEADER\nITEM:a\nITEM:b\nFOOTER\n", buf.String())
	require.Equal(t, 2, p.headerCount)
	require.Equal(t, 2, p.footerCount)
}

func TestTextHandler_HandleResults_Empty(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	p := &fakePrinter{}
	h := NewTextHandler[testServer](buf, p)

	require.NoError(t, h.HandleResults())
	require.Equal(t, "No items found\n", buf.String())
	require.Zero(t, p.headerCount)
}

func TestTextHandler_HandleResults_ItemError(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	p := &fakePrinter{errOnURL: "b"}
	h := NewTextHandler[testServer](buf, p)

	err := h.HandleResults(testServer{URL: "a"}, testServer{URL: "b"}, testServer{URL: "c"})
	require.EqualError(t, err, "cannot print b")
	require.Len(t, p.items, 1)
	require.Zero(t, p.footerCount)
}

func TestTextHandler_HandleResultAndError(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	h := NewTextHandler[testServer](buf, &fakePrinter{})

	require.NoError(t, h.HandleResult(testServer{URL: "a"}))
	require.Equal(t, "ITEM:a\n", buf.String())

	err := errors.New("boom")
	require.Same(t, err, h.HandleError(err))
}
